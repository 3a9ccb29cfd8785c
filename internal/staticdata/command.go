package staticdata

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	commandUseConstant              = "link-static"
	commandShortDescriptionConstant = "Reconcile static data symlinks in the published tree"
	commandLongDescriptionConstant  = "link-static mirrors the top-level entries of the static data root into " +
		"the published tree as relative symlinks, pruning dangling links and " +
		"repointing incorrect ones."
	flagStaticRootNameConstant         = "static-root"
	flagStaticRootDescriptionConstant  = "Absolute root of the statically managed data"
	flagDestinationRootNameConstant    = "dest-root"
	flagDestinationRootDescription     = "Root of the published tree"
	flagRepositoryNameConstant         = "repo-name"
	flagRepositoryDescriptionConstant  = "Repository subdirectory to link"
	unexpectedArgumentsErrorMessage    = "link-static does not accept positional arguments"
	missingDestinationRootErrorMessage = "link-static requires a destination root to be configured"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current link-static configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the link-static cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
}

// Build constructs the cobra command for static data reconciliation.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(flagStaticRootNameConstant, "", flagStaticRootDescriptionConstant)
	command.Flags().String(flagDestinationRootNameConstant, "", flagDestinationRootDescription)
	command.Flags().String(flagRepositoryNameConstant, "", flagRepositoryDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessage)
	}

	configuration := builder.resolveConfiguration()

	staticFlagValue, staticFlagError := command.Flags().GetString(flagStaticRootNameConstant)
	if staticFlagError != nil {
		return staticFlagError
	}
	destinationFlagValue, destinationFlagError := command.Flags().GetString(flagDestinationRootNameConstant)
	if destinationFlagError != nil {
		return destinationFlagError
	}
	repositoryFlagValue, repositoryFlagError := command.Flags().GetString(flagRepositoryNameConstant)
	if repositoryFlagError != nil {
		return repositoryFlagError
	}

	options := RunOptions{
		StaticRoot:      selectStringValue(staticFlagValue, configuration.StaticRoot),
		DestinationRoot: selectStringValue(destinationFlagValue, configuration.DestinationRoot),
		RepositoryName:  selectStringValue(repositoryFlagValue, configuration.RepositoryName),
	}

	if len(options.StaticRoot) > 0 && len(options.DestinationRoot) == 0 {
		return errors.New(missingDestinationRootErrorMessage)
	}

	service := NewService(ServiceDependencies{Logger: builder.resolveLogger()})
	return service.Run(options)
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
