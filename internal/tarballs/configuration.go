package tarballs

import (
	"strings"

	pathutils "github.com/osg-htc/distmirror/internal/utils/path"
)

var tarballsConfigurationHomeDirectoryExpander = pathutils.NewHomeExpander()

const (
	defaultInstallSubdirectoryConstant = "tarballs"
)

// CommandConfiguration stores options for the sync-tarballs command.
type CommandConfiguration struct {
	UpstreamURL         string `mapstructure:"upstream"`
	WorkingRoot         string `mapstructure:"working_root"`
	DestinationRoot     string `mapstructure:"dest_root"`
	PreviousRoot        string `mapstructure:"previous_root"`
	InstallSubdirectory string `mapstructure:"install_dir"`
}

// DefaultConfiguration supplies baseline values for sync-tarballs configuration.
func DefaultConfiguration() CommandConfiguration {
	return CommandConfiguration{
		InstallSubdirectory: defaultInstallSubdirectoryConstant,
	}
}

// Sanitize trims configured values and expands home directory shortcuts.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.UpstreamURL = strings.TrimSpace(configuration.UpstreamURL)
	sanitized.WorkingRoot = expandConfiguredPath(configuration.WorkingRoot)
	sanitized.DestinationRoot = expandConfiguredPath(configuration.DestinationRoot)
	sanitized.PreviousRoot = expandConfiguredPath(configuration.PreviousRoot)
	sanitized.InstallSubdirectory = strings.TrimSpace(configuration.InstallSubdirectory)
	if len(sanitized.InstallSubdirectory) == 0 {
		sanitized.InstallSubdirectory = defaultInstallSubdirectoryConstant
	}
	return sanitized
}

func expandConfiguredPath(candidatePath string) string {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		return ""
	}
	return tarballsConfigurationHomeDirectoryExpander.Expand(trimmedPath)
}
