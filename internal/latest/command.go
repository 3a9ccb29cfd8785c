package latest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	commandUseConstant              = "link-latest"
	commandShortDescriptionConstant = "Repoint the per-series release-latest symlinks"
	commandLongDescriptionConstant  = "link-latest locates the newest release RPM of every configured release " +
		"series and repoints the fixed-name release-latest symlink at it."
	flagDestinationRootNameConstant    = "dest-root"
	flagDestinationRootDescription     = "Root of the published tree"
	flagSeriesManifestNameConstant     = "series-manifest"
	flagSeriesManifestDescription      = "Path to the release series manifest"
	unexpectedArgumentsErrorMessage    = "link-latest does not accept positional arguments"
	missingDestinationRootErrorMessage = "link-latest requires a destination root to be configured"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current link-latest configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the link-latest cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
}

// Build constructs the cobra command for release-pointer maintenance.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(flagDestinationRootNameConstant, "", flagDestinationRootDescription)
	command.Flags().String(flagSeriesManifestNameConstant, "", flagSeriesManifestDescription)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessage)
	}

	configuration := builder.resolveConfiguration()

	destinationFlagValue, destinationFlagError := command.Flags().GetString(flagDestinationRootNameConstant)
	if destinationFlagError != nil {
		return destinationFlagError
	}
	destinationRoot := selectStringValue(destinationFlagValue, configuration.DestinationRoot)
	if len(destinationRoot) == 0 {
		return errors.New(missingDestinationRootErrorMessage)
	}

	manifestFlagValue, manifestFlagError := command.Flags().GetString(flagSeriesManifestNameConstant)
	if manifestFlagError != nil {
		return manifestFlagError
	}
	manifestPath := selectStringValue(manifestFlagValue, configuration.SeriesManifestPath)

	manifest, manifestError := LoadSeriesManifest(manifestPath)
	if manifestError != nil {
		return fmt.Errorf("link-latest: %w", manifestError)
	}

	service := NewService(ServiceDependencies{Logger: builder.resolveLogger()})
	return service.Run(destinationRoot, manifest)
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func selectStringValue(flagValue string, configurationValue string) string {
	trimmedFlagValue := strings.TrimSpace(flagValue)
	if len(trimmedFlagValue) > 0 {
		return trimmedFlagValue
	}
	return configurationValue
}
