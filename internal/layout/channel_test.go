package layout_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osg-htc/distmirror/internal/layout"
)

const (
	directoryPermissionsConstant = 0o755
)

func makeDirectories(testInstance *testing.T, rootDirectory string, segments ...string) string {
	testInstance.Helper()
	combined := filepath.Join(append([]string{rootDirectory}, segments...)...)
	require.NoError(testInstance, os.MkdirAll(combined, directoryPermissionsConstant))
	return combined
}

func TestChannelForRepositoryInspectsAncestors(testInstance *testing.T) {
	testCases := []struct {
		name              string
		directorySegments []string
		expectedChannel   layout.Channel
	}{
		{
			name:              "binary_under_testing",
			directorySegments: []string{"23-main", "el9", "testing", "x86_64"},
			expectedChannel:   layout.ChannelRelease,
		},
		{
			name:              "binary_under_release",
			directorySegments: []string{"23-main", "el9", "release", "x86_64"},
			expectedChannel:   layout.ChannelRelease,
		},
		{
			name:              "binary_under_development",
			directorySegments: []string{"23-main", "el9", "development", "aarch64"},
			expectedChannel:   layout.ChannelDevelopment,
		},
		{
			name:              "binary_without_channel_ancestor",
			directorySegments: []string{"23-main", "el9", "x86_64"},
			expectedChannel:   layout.ChannelUnknown,
		},
		{
			name:              "debug_uses_grandparent",
			directorySegments: []string{"23-main", "el9", "testing", "x86_64", "debug"},
			expectedChannel:   layout.ChannelRelease,
		},
		{
			name:              "source_uses_grandparent",
			directorySegments: []string{"23-main", "el9", "development", "source", "SRPMS"},
			expectedChannel:   layout.ChannelDevelopment,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			rootDirectory := testInstance.TempDir()
			repositoryPath := makeDirectories(testInstance, rootDirectory, testCase.directorySegments...)
			require.Equal(testInstance, testCase.expectedChannel, layout.ChannelForRepository(repositoryPath))
		})
	}
}

func TestChannelForRepositoryFollowsSymlinkedAncestors(testInstance *testing.T) {
	rootDirectory := testInstance.TempDir()
	realRepositoryPath := makeDirectories(testInstance, rootDirectory, "osg", "24-main", "el9", "testing", "x86_64")

	aliasPath := filepath.Join(rootDirectory, "alias")
	require.NoError(testInstance, os.Symlink(realRepositoryPath, aliasPath))

	require.Equal(testInstance, layout.ChannelRelease, layout.ChannelForRepository(aliasPath))
}
