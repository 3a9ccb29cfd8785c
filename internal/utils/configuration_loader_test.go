package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osg-htc/distmirror/internal/utils"
)

const (
	loaderConfigurationNameConstant     = "config"
	loaderConfigurationTypeConstant     = "yaml"
	loaderEnvironmentPrefixConstant     = "LOADERTEST"
	loaderConfigurationFileNameConstant = "config.yaml"
	loaderEmbeddedContentConstant       = "common:\n  log_level: info\ntools:\n  sample:\n    root: /srv/embedded\n"
	loaderFileContentConstant           = "tools:\n  sample:\n    root: /srv/from-file\n"
	loaderDefaultLogFormatKeyConstant   = "common.log_format"
	loaderDefaultLogFormatValueConstant = "structured"
	loaderEmbeddedRootValueConstant     = "/srv/embedded"
	loaderFileRootValueConstant         = "/srv/from-file"
)

type loaderTestConfiguration struct {
	Common struct {
		LogLevel  string `mapstructure:"log_level"`
		LogFormat string `mapstructure:"log_format"`
	} `mapstructure:"common"`
	Tools struct {
		Sample struct {
			Root string `mapstructure:"root"`
		} `mapstructure:"sample"`
	} `mapstructure:"tools"`
}

func newLoaderUnderTest(searchPaths []string) *utils.ConfigurationLoader {
	return utils.NewConfigurationLoader(
		loaderConfigurationNameConstant,
		loaderConfigurationTypeConstant,
		loaderEnvironmentPrefixConstant,
		searchPaths,
	)
}

func TestLoadConfigurationUsesEmbeddedDefaults(t *testing.T) {
	loader := newLoaderUnderTest([]string{t.TempDir()})
	loader.SetEmbeddedConfiguration([]byte(loaderEmbeddedContentConstant))

	var configuration loaderTestConfiguration
	defaults := map[string]any{loaderDefaultLogFormatKeyConstant: loaderDefaultLogFormatValueConstant}

	loadedConfiguration, loadError := loader.LoadConfiguration("", defaults, &configuration)
	require.NoError(t, loadError)

	require.Equal(t, loaderEmbeddedRootValueConstant, configuration.Tools.Sample.Root)
	require.Equal(t, loaderDefaultLogFormatValueConstant, configuration.Common.LogFormat)
	require.Empty(t, loadedConfiguration.ConfigFileUsed)
}

func TestLoadConfigurationFileOverridesEmbedded(t *testing.T) {
	temporaryDirectory := t.TempDir()
	configurationPath := filepath.Join(temporaryDirectory, loaderConfigurationFileNameConstant)
	require.NoError(t, os.WriteFile(configurationPath, []byte(loaderFileContentConstant), 0o600))

	loader := newLoaderUnderTest([]string{temporaryDirectory})
	loader.SetEmbeddedConfiguration([]byte(loaderEmbeddedContentConstant))

	var configuration loaderTestConfiguration

	loadedConfiguration, loadError := loader.LoadConfiguration(configurationPath, nil, &configuration)
	require.NoError(t, loadError)

	require.Equal(t, loaderFileRootValueConstant, configuration.Tools.Sample.Root)
	require.Equal(t, configurationPath, loadedConfiguration.ConfigFileUsed)
}

func TestLoadConfigurationEnvironmentOverride(t *testing.T) {
	t.Setenv("LOADERTEST_TOOLS_SAMPLE_ROOT", loaderFileRootValueConstant)

	loader := newLoaderUnderTest([]string{t.TempDir()})
	loader.SetEmbeddedConfiguration([]byte(loaderEmbeddedContentConstant))

	var configuration loaderTestConfiguration

	_, loadError := loader.LoadConfiguration("", nil, &configuration)
	require.NoError(t, loadError)

	require.Equal(t, loaderFileRootValueConstant, configuration.Tools.Sample.Root)
}
