package latest

import (
	"strings"

	pathutils "github.com/osg-htc/distmirror/internal/utils/path"
)

var latestConfigurationHomeDirectoryExpander = pathutils.NewHomeExpander()

// CommandConfiguration stores options for the link-latest command.
type CommandConfiguration struct {
	DestinationRoot    string `mapstructure:"dest_root"`
	SeriesManifestPath string `mapstructure:"series_manifest"`
}

// DefaultConfiguration supplies baseline values for link-latest configuration.
func DefaultConfiguration() CommandConfiguration {
	return CommandConfiguration{}
}

// Sanitize trims configured paths and expands home directory shortcuts.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.DestinationRoot = expandConfiguredPath(configuration.DestinationRoot)
	sanitized.SeriesManifestPath = expandConfiguredPath(configuration.SeriesManifestPath)
	return sanitized
}

func expandConfiguredPath(candidatePath string) string {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		return ""
	}
	return latestConfigurationHomeDirectoryExpander.Expand(trimmedPath)
}
