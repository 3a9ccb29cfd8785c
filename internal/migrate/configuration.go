package migrate

import (
	pathutils "github.com/osg-htc/distmirror/internal/utils/path"
)

var migrateConfigurationRootSanitizer = pathutils.NewRootPathSanitizer()

// CommandConfiguration stores options for the migrate command.
type CommandConfiguration struct {
	RepositoryRoots []string `mapstructure:"roots"`
	DryRun          bool     `mapstructure:"dry_run"`
}

// DefaultConfiguration supplies baseline values for migrate configuration.
func DefaultConfiguration() CommandConfiguration {
	return CommandConfiguration{}
}

// Sanitize trims configured roots and removes empty and duplicate entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.RepositoryRoots = migrateConfigurationRootSanitizer.Sanitize(configuration.RepositoryRoots)
	return sanitized
}
