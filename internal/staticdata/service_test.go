package staticdata_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/osg-htc/distmirror/internal/staticdata"
)

const (
	repositoryNameConstant = "osg"
	staticEntryNameFirst   = "23-main"
	staticEntryNameSecond  = "24-main"
)

func newStaticService() *staticdata.Service {
	return staticdata.NewService(staticdata.ServiceDependencies{Logger: zap.NewNop()})
}

func prepareRoots(testInstance *testing.T, staticEntryNames ...string) (string, string) {
	temporaryRoot := testInstance.TempDir()
	staticRoot := filepath.Join(temporaryRoot, "static")
	destinationRoot := filepath.Join(temporaryRoot, "dest")

	for _, staticEntryName := range staticEntryNames {
		require.NoError(testInstance, os.MkdirAll(filepath.Join(staticRoot, repositoryNameConstant, staticEntryName), 0o755))
	}
	require.NoError(testInstance, os.MkdirAll(destinationRoot, 0o755))

	return staticRoot, destinationRoot
}

func runReconciliation(staticRoot string, destinationRoot string) error {
	return newStaticService().Run(staticdata.RunOptions{
		StaticRoot:      staticRoot,
		DestinationRoot: destinationRoot,
		RepositoryName:  repositoryNameConstant,
	})
}

func TestRunCreatesRelativeSymlinks(testInstance *testing.T) {
	staticRoot, destinationRoot := prepareRoots(testInstance, staticEntryNameFirst, staticEntryNameSecond)

	require.NoError(testInstance, runReconciliation(staticRoot, destinationRoot))

	for _, staticEntryName := range []string{staticEntryNameFirst, staticEntryNameSecond} {
		linkPath := filepath.Join(destinationRoot, repositoryNameConstant, staticEntryName)
		linkTarget, readlinkError := os.Readlink(linkPath)
		require.NoError(testInstance, readlinkError)
		require.False(testInstance, filepath.IsAbs(linkTarget))

		resolvedTarget := filepath.Join(filepath.Dir(linkPath), linkTarget)
		require.Equal(testInstance, filepath.Join(staticRoot, repositoryNameConstant, staticEntryName), resolvedTarget)
	}
}

func TestRunIsIdempotent(testInstance *testing.T) {
	staticRoot, destinationRoot := prepareRoots(testInstance, staticEntryNameFirst)

	require.NoError(testInstance, runReconciliation(staticRoot, destinationRoot))
	require.NoError(testInstance, runReconciliation(staticRoot, destinationRoot))

	linkPath := filepath.Join(destinationRoot, repositoryNameConstant, staticEntryNameFirst)
	_, readlinkError := os.Readlink(linkPath)
	require.NoError(testInstance, readlinkError)
}

func TestRunPrunesDanglingLinksIntoSource(testInstance *testing.T) {
	staticRoot, destinationRoot := prepareRoots(testInstance, staticEntryNameFirst)
	destinationDirectory := filepath.Join(destinationRoot, repositoryNameConstant)
	require.NoError(testInstance, os.MkdirAll(destinationDirectory, 0o755))

	danglingLinkPath := filepath.Join(destinationDirectory, "removed-series")
	danglingTarget := filepath.Join(staticRoot, repositoryNameConstant, "removed-series")
	require.NoError(testInstance, os.Symlink(danglingTarget, danglingLinkPath))

	foreignLinkPath := filepath.Join(destinationDirectory, "external")
	require.NoError(testInstance, os.Symlink(filepath.Join(testInstance.TempDir(), "missing"), foreignLinkPath))

	require.NoError(testInstance, runReconciliation(staticRoot, destinationRoot))

	_, danglingStatError := os.Lstat(danglingLinkPath)
	require.True(testInstance, os.IsNotExist(danglingStatError))

	_, foreignStatError := os.Lstat(foreignLinkPath)
	require.NoError(testInstance, foreignStatError)
}

func TestRunRepointsIncorrectLinks(testInstance *testing.T) {
	staticRoot, destinationRoot := prepareRoots(testInstance, staticEntryNameFirst)
	destinationDirectory := filepath.Join(destinationRoot, repositoryNameConstant)
	require.NoError(testInstance, os.MkdirAll(destinationDirectory, 0o755))

	linkPath := filepath.Join(destinationDirectory, staticEntryNameFirst)
	require.NoError(testInstance, os.Symlink(filepath.Join("..", "somewhere-else"), linkPath))

	require.NoError(testInstance, runReconciliation(staticRoot, destinationRoot))

	linkTarget, readlinkError := os.Readlink(linkPath)
	require.NoError(testInstance, readlinkError)
	resolvedTarget := filepath.Join(filepath.Dir(linkPath), linkTarget)
	require.Equal(testInstance, filepath.Join(staticRoot, repositoryNameConstant, staticEntryNameFirst), resolvedTarget)
}

func TestRunFailsWhenOccupantIsNotSymlink(testInstance *testing.T) {
	staticRoot, destinationRoot := prepareRoots(testInstance, staticEntryNameFirst)
	destinationDirectory := filepath.Join(destinationRoot, repositoryNameConstant)
	require.NoError(testInstance, os.MkdirAll(filepath.Join(destinationDirectory, staticEntryNameFirst), 0o755))

	runError := runReconciliation(staticRoot, destinationRoot)
	require.Error(testInstance, runError)
	require.Contains(testInstance, runError.Error(), "is not a symlink")
}

func TestRunRequiresAbsoluteStaticRoot(testInstance *testing.T) {
	runError := newStaticService().Run(staticdata.RunOptions{
		StaticRoot:      "relative/static",
		DestinationRoot: testInstance.TempDir(),
		RepositoryName:  repositoryNameConstant,
	})
	require.Error(testInstance, runError)
	require.Contains(testInstance, runError.Error(), "must be absolute")
}

func TestRunWithoutStaticRootIsNoOp(testInstance *testing.T) {
	require.NoError(testInstance, newStaticService().Run(staticdata.RunOptions{
		DestinationRoot: testInstance.TempDir(),
		RepositoryName:  repositoryNameConstant,
	}))
}

func TestRunFailsWhenStaticSourceMissing(testInstance *testing.T) {
	temporaryRoot := testInstance.TempDir()
	runError := newStaticService().Run(staticdata.RunOptions{
		StaticRoot:      filepath.Join(temporaryRoot, "static"),
		DestinationRoot: filepath.Join(temporaryRoot, "dest"),
		RepositoryName:  repositoryNameConstant,
	})
	require.Error(testInstance, runError)
	require.Contains(testInstance, runError.Error(), "does not exist")
}
