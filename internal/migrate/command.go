package migrate

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/osg-htc/distmirror/internal/repos/discovery"
)

const (
	commandUseConstant              = "migrate [roots...]"
	commandShortDescriptionConstant = "Relocate repositories into the bucketed package layout"
	commandLongDescriptionConstant  = "migrate moves RPM files from flat repository directories into per-letter " +
		"bucket directories, leaving compatibility symlinks behind and replicating " +
		"Condor family packages into their channel buckets."
	flagSourceNameConstant        = "source"
	flagSourceDescriptionConstant = "Migrate source (SRPMS) trees"
	flagBinaryNameConstant        = "binary"
	flagBinaryDescriptionConstant = "Migrate binary architecture repositories"
	flagDebugNameConstant         = "debug"
	flagDebugDescriptionConstant  = "Migrate debuginfo repositories"
	flagDryRunNameConstant        = "dry-run"
	flagDryRunDescriptionConstant = "Log planned changes without modifying the filesystem"
	missingRootsErrorMessage      = "no repository roots provided; pass roots as arguments or configure tools.migrate.roots"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current migrate configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the migrate cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Discoverer            RepositoryDiscoverer
}

// Build constructs the cobra command for layout migration.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().Bool(flagSourceNameConstant, false, flagSourceDescriptionConstant)
	command.Flags().Bool(flagBinaryNameConstant, false, flagBinaryDescriptionConstant)
	command.Flags().Bool(flagDebugNameConstant, false, flagDebugDescriptionConstant)
	command.Flags().Bool(flagDryRunNameConstant, false, flagDryRunDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command, arguments)
	if optionsError != nil {
		return optionsError
	}

	service, serviceError := NewService(ServiceDependencies{
		Logger:     builder.resolveLogger(),
		Discoverer: builder.resolveDiscoverer(),
	})
	if serviceError != nil {
		return serviceError
	}

	return service.Run(options)
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string) (RunOptions, error) {
	configuration := builder.resolveConfiguration()

	repositoryRoots := migrateConfigurationRootSanitizer.Sanitize(arguments)
	if len(repositoryRoots) == 0 {
		repositoryRoots = configuration.RepositoryRoots
	}
	if len(repositoryRoots) == 0 {
		return RunOptions{}, errors.New(missingRootsErrorMessage)
	}

	sourceFlag, sourceFlagError := command.Flags().GetBool(flagSourceNameConstant)
	if sourceFlagError != nil {
		return RunOptions{}, sourceFlagError
	}
	binaryFlag, binaryFlagError := command.Flags().GetBool(flagBinaryNameConstant)
	if binaryFlagError != nil {
		return RunOptions{}, binaryFlagError
	}
	debugFlag, debugFlagError := command.Flags().GetBool(flagDebugNameConstant)
	if debugFlagError != nil {
		return RunOptions{}, debugFlagError
	}

	selectedKinds := make([]RepositoryKind, 0, len(AllRepositoryKinds()))
	if sourceFlag {
		selectedKinds = append(selectedKinds, RepositoryKindSource)
	}
	if binaryFlag {
		selectedKinds = append(selectedKinds, RepositoryKindBinary)
	}
	if debugFlag {
		selectedKinds = append(selectedKinds, RepositoryKindDebug)
	}
	if len(selectedKinds) == 0 {
		selectedKinds = AllRepositoryKinds()
	}

	dryRunValue := configuration.DryRun
	if command.Flags().Changed(flagDryRunNameConstant) {
		flagDryRunValue, dryRunFlagError := command.Flags().GetBool(flagDryRunNameConstant)
		if dryRunFlagError != nil {
			return RunOptions{}, dryRunFlagError
		}
		dryRunValue = flagDryRunValue
	}

	options := RunOptions{
		RepositoryRoots: repositoryRoots,
		Kinds:           selectedKinds,
		DryRun:          dryRunValue,
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

func (builder *CommandBuilder) resolveDiscoverer() RepositoryDiscoverer {
	if builder.Discoverer != nil {
		return builder.Discoverer
	}
	return discovery.NewFilesystemRepositoryDiscoverer()
}
