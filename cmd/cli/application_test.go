package cli_test

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/osg-htc/distmirror/cmd/cli"
)

const (
	testMigrateCommandNameConstant        = "migrate"
	testTarballsCommandNameConstant       = "sync-tarballs"
	testLatestCommandNameConstant         = "link-latest"
	testStaticCommandNameConstant         = "link-static"
	embeddedDefaultLogLevelConstant       = "info"
	embeddedDefaultLogFormatConstant      = "structured"
	embeddedDefaultInstallDirConstant     = "tarballs"
	embeddedDefaultRepositoryNameConstant = "osg"
)

var requiredCommandNames = []string{
	testMigrateCommandNameConstant,
	testTarballsCommandNameConstant,
	testLatestCommandNameConstant,
	testStaticCommandNameConstant,
}

func TestApplicationRegistersSubcommands(t *testing.T) {
	application := cli.NewApplication()
	rootCommand := application.RootCommand()
	require.NotNil(t, rootCommand)

	registeredCommandNames := map[string]bool{}
	for _, registeredCommand := range rootCommand.Commands() {
		registeredCommandNames[registeredCommand.Name()] = true
	}

	for _, requiredCommandName := range requiredCommandNames {
		require.Truef(t, registeredCommandNames[requiredCommandName], "command %s not registered", requiredCommandName)
	}
}

func TestApplicationEmbeddedDefaultsProvideCommandConfigurations(t *testing.T) {
	configuration := decodeEmbeddedApplicationConfiguration(t)

	require.Equal(t, embeddedDefaultLogLevelConstant, configuration.Common.LogLevel)
	require.Equal(t, embeddedDefaultLogFormatConstant, configuration.Common.LogFormat)
	require.Equal(t, embeddedDefaultInstallDirConstant, configuration.Tools.Tarballs.InstallSubdirectory)
	require.Equal(t, embeddedDefaultRepositoryNameConstant, configuration.Tools.StaticData.RepositoryName)
	require.Empty(t, configuration.Tools.Migrate.RepositoryRoots)
	require.False(t, configuration.Tools.Migrate.DryRun)
	require.Empty(t, configuration.Tools.Latest.SeriesManifestPath)
}

func decodeEmbeddedApplicationConfiguration(testingInstance testing.TB) cli.ApplicationConfiguration {
	testingInstance.Helper()

	configurationData, configurationType := cli.EmbeddedDefaultConfiguration()
	viperInstance := viper.New()
	viperInstance.SetConfigType(configurationType)

	readError := viperInstance.ReadConfig(bytes.NewReader(configurationData))
	require.NoError(testingInstance, readError)

	var configuration cli.ApplicationConfiguration
	unmarshalError := viperInstance.Unmarshal(&configuration)
	require.NoError(testingInstance, unmarshalError)

	return configuration
}
