package tarballs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/osg-htc/distmirror/internal/execshell"
)

const (
	commandUseConstant              = "sync-tarballs"
	commandShortDescriptionConstant = "Mirror client tarballs from the upstream rsync endpoint"
	commandLongDescriptionConstant  = "sync-tarballs pulls the worker-node client tarballs from the configured " +
		"upstream, refreshes the per-series latest symlinks, and rotates the result " +
		"into the published directory."
	flagUpstreamNameConstant            = "upstream"
	flagUpstreamDescriptionConstant     = "Upstream rsync URL for client tarballs"
	flagWorkingRootNameConstant         = "working-root"
	flagWorkingRootDescriptionConstant  = "Root of the in-progress publication tree"
	flagDestinationRootNameConstant     = "dest-root"
	flagDestinationRootDescription      = "Root of the published tree"
	flagPreviousRootNameConstant        = "previous-root"
	flagPreviousRootDescriptionConstant = "Root keeping the prior publication"
	unexpectedArgumentsErrorMessage     = "sync-tarballs does not accept positional arguments"
	missingSettingErrorTemplate         = "sync-tarballs requires %s to be configured"
	upstreamSettingLabelConstant        = "an upstream URL"
	rootsSettingLabelConstant           = "working, destination, and previous roots"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current sync-tarballs configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the sync-tarballs cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Executor              RsyncExecutor
}

// Build constructs the cobra command for tarball synchronization.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(flagUpstreamNameConstant, "", flagUpstreamDescriptionConstant)
	command.Flags().String(flagWorkingRootNameConstant, "", flagWorkingRootDescriptionConstant)
	command.Flags().String(flagDestinationRootNameConstant, "", flagDestinationRootDescription)
	command.Flags().String(flagPreviousRootNameConstant, "", flagPreviousRootDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessage)
	}

	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger()
	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return executorError
	}

	service, serviceError := NewService(ServiceDependencies{
		Logger: logger,
		Client: NewRsyncClient(executor),
	})
	if serviceError != nil {
		return serviceError
	}

	return service.Run(command.Context(), options)
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (RunOptions, error) {
	configuration := builder.resolveConfiguration()

	upstreamFlagValue, upstreamFlagError := command.Flags().GetString(flagUpstreamNameConstant)
	if upstreamFlagError != nil {
		return RunOptions{}, upstreamFlagError
	}
	workingFlagValue, workingFlagError := command.Flags().GetString(flagWorkingRootNameConstant)
	if workingFlagError != nil {
		return RunOptions{}, workingFlagError
	}
	destinationFlagValue, destinationFlagError := command.Flags().GetString(flagDestinationRootNameConstant)
	if destinationFlagError != nil {
		return RunOptions{}, destinationFlagError
	}
	previousFlagValue, previousFlagError := command.Flags().GetString(flagPreviousRootNameConstant)
	if previousFlagError != nil {
		return RunOptions{}, previousFlagError
	}

	options := RunOptions{
		UpstreamURL:         selectStringValue(upstreamFlagValue, configuration.UpstreamURL),
		WorkingRoot:         selectStringValue(workingFlagValue, configuration.WorkingRoot),
		DestinationRoot:     selectStringValue(destinationFlagValue, configuration.DestinationRoot),
		PreviousRoot:        selectStringValue(previousFlagValue, configuration.PreviousRoot),
		InstallSubdirectory: configuration.InstallSubdirectory,
	}

	if len(options.UpstreamURL) == 0 {
		return RunOptions{}, fmt.Errorf(missingSettingErrorTemplate, upstreamSettingLabelConstant)
	}
	if len(options.WorkingRoot) == 0 || len(options.DestinationRoot) == 0 || len(options.PreviousRoot) == 0 {
		return RunOptions{}, fmt.Errorf(missingSettingErrorTemplate, rootsSettingLabelConstant)
	}

	return options, nil
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

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (RsyncExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}
	return execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
}

func selectStringValue(flagValue string, configurationValue string) string {
	trimmedFlagValue := strings.TrimSpace(flagValue)
	if len(trimmedFlagValue) > 0 {
		return trimmedFlagValue
	}
	return configurationValue
}
