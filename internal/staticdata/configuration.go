package staticdata

import (
	"strings"

	pathutils "github.com/osg-htc/distmirror/internal/utils/path"
)

var staticConfigurationHomeDirectoryExpander = pathutils.NewHomeExpander()

const (
	defaultRepositoryNameConstant = "osg"
)

// CommandConfiguration stores options for the link-static command.
type CommandConfiguration struct {
	StaticRoot      string `mapstructure:"static_root"`
	DestinationRoot string `mapstructure:"dest_root"`
	RepositoryName  string `mapstructure:"repo_name"`
}

// DefaultConfiguration supplies baseline values for link-static configuration.
func DefaultConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RepositoryName: defaultRepositoryNameConstant,
	}
}

// Sanitize trims configured values and expands home directory shortcuts.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.StaticRoot = expandConfiguredPath(configuration.StaticRoot)
	sanitized.DestinationRoot = expandConfiguredPath(configuration.DestinationRoot)
	sanitized.RepositoryName = strings.TrimSpace(configuration.RepositoryName)
	if len(sanitized.RepositoryName) == 0 {
		sanitized.RepositoryName = defaultRepositoryNameConstant
	}
	return sanitized
}

func expandConfiguredPath(candidatePath string) string {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		return ""
	}
	return staticConfigurationHomeDirectoryExpander.Expand(trimmedPath)
}
