package tarballs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/osg-htc/distmirror/internal/tarballs"
)

const (
	installSubdirectoryConstant = "tarballs"
	seriesDirectoryConstant     = "24-main"
	olderTarballFileName        = "osg-wn-client.24-main.20240101.el9.x86_64.tar.gz"
	newerTarballFileName        = "osg-wn-client.24-main.20240812.el9.x86_64.tar.gz"
	otherOSTarballFileName      = "osg-wn-client.24-main.20240401.el8.x86_64.tar.gz"
	foreignArchTarballFileName  = "osg-wn-client.24-main.20240401.el9.aarch64.tar.gz"
)

func newTarballService(testInstance *testing.T, executor *stubRsyncExecutor) *tarballs.Service {
	service, serviceError := tarballs.NewService(tarballs.ServiceDependencies{
		Logger: zap.NewNop(),
		Client: tarballs.NewRsyncClient(executor),
	})
	require.NoError(testInstance, serviceError)
	return service
}

func seedWorkingTree(testInstance *testing.T, workingRoot string, architectureName string, tarballFileNames ...string) string {
	architectureDirectory := filepath.Join(workingRoot, installSubdirectoryConstant, seriesDirectoryConstant, architectureName)
	require.NoError(testInstance, os.MkdirAll(architectureDirectory, 0o755))
	for _, tarballFileName := range tarballFileNames {
		require.NoError(testInstance, os.WriteFile(filepath.Join(architectureDirectory, tarballFileName), []byte(tarballFileName), 0o644))
	}
	return architectureDirectory
}

func TestNewServiceRequiresClient(testInstance *testing.T) {
	_, serviceError := tarballs.NewService(tarballs.ServiceDependencies{Logger: zap.NewNop()})
	require.Error(testInstance, serviceError)
}

func TestRunPublishesLatestSymlinksAndRotates(testInstance *testing.T) {
	temporaryRoot := testInstance.TempDir()
	workingRoot := filepath.Join(temporaryRoot, "working")
	destinationRoot := filepath.Join(temporaryRoot, "dest")
	previousRoot := filepath.Join(temporaryRoot, "previous")

	seedWorkingTree(testInstance, workingRoot, "x86_64", olderTarballFileName, newerTarballFileName, otherOSTarballFileName)

	previousPublication := filepath.Join(destinationRoot, installSubdirectoryConstant)
	require.NoError(testInstance, os.MkdirAll(previousPublication, 0o755))
	priorMarkerPath := filepath.Join(previousPublication, "stale-marker")
	require.NoError(testInstance, os.WriteFile(priorMarkerPath, []byte("previous"), 0o644))

	service := newTarballService(testInstance, &stubRsyncExecutor{})
	runError := service.Run(context.Background(), tarballs.RunOptions{
		UpstreamURL:         upstreamURLConstant,
		WorkingRoot:         workingRoot,
		DestinationRoot:     destinationRoot,
		PreviousRoot:        previousRoot,
		InstallSubdirectory: installSubdirectoryConstant,
	})
	require.NoError(testInstance, runError)

	publishedSeries := filepath.Join(destinationRoot, installSubdirectoryConstant, seriesDirectoryConstant)

	el9LinkTarget, el9ReadlinkError := os.Readlink(filepath.Join(publishedSeries, "osg-wn-client-latest.el9.x86_64.tar.gz"))
	require.NoError(testInstance, el9ReadlinkError)
	require.Equal(testInstance, filepath.Join("x86_64", newerTarballFileName), el9LinkTarget)

	el8LinkTarget, el8ReadlinkError := os.Readlink(filepath.Join(publishedSeries, "osg-wn-client-latest.el8.x86_64.tar.gz"))
	require.NoError(testInstance, el8ReadlinkError)
	require.Equal(testInstance, filepath.Join("x86_64", otherOSTarballFileName), el8LinkTarget)

	contentThroughLink, readError := os.ReadFile(filepath.Join(publishedSeries, "osg-wn-client-latest.el9.x86_64.tar.gz"))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, newerTarballFileName, string(contentThroughLink))

	_, priorMarkerStatError := os.Lstat(filepath.Join(previousRoot, installSubdirectoryConstant, "stale-marker"))
	require.NoError(testInstance, priorMarkerStatError)

	_, workingStatError := os.Lstat(filepath.Join(workingRoot, installSubdirectoryConstant))
	require.True(testInstance, os.IsNotExist(workingStatError))
}

func TestRunFailsOnMixedArchitectures(testInstance *testing.T) {
	temporaryRoot := testInstance.TempDir()
	workingRoot := filepath.Join(temporaryRoot, "working")

	seedWorkingTree(testInstance, workingRoot, "x86_64", newerTarballFileName, foreignArchTarballFileName)

	service := newTarballService(testInstance, &stubRsyncExecutor{})
	runError := service.Run(context.Background(), tarballs.RunOptions{
		UpstreamURL:         upstreamURLConstant,
		WorkingRoot:         workingRoot,
		DestinationRoot:     filepath.Join(temporaryRoot, "dest"),
		PreviousRoot:        filepath.Join(temporaryRoot, "previous"),
		InstallSubdirectory: installSubdirectoryConstant,
	})
	require.Error(testInstance, runError)
	require.Contains(testInstance, runError.Error(), "mixed tarball architectures")
}

func TestRunWarnsOnUnparsableNamesAndStillLinks(testInstance *testing.T) {
	temporaryRoot := testInstance.TempDir()
	workingRoot := filepath.Join(temporaryRoot, "working")

	architectureDirectory := seedWorkingTree(testInstance, workingRoot, "x86_64", newerTarballFileName)
	require.NoError(testInstance, os.WriteFile(filepath.Join(architectureDirectory, "README"), []byte("notes"), 0o644))

	service := newTarballService(testInstance, &stubRsyncExecutor{})
	runError := service.Run(context.Background(), tarballs.RunOptions{
		UpstreamURL:         upstreamURLConstant,
		WorkingRoot:         workingRoot,
		DestinationRoot:     filepath.Join(temporaryRoot, "dest"),
		PreviousRoot:        filepath.Join(temporaryRoot, "previous"),
		InstallSubdirectory: installSubdirectoryConstant,
	})
	require.NoError(testInstance, runError)

	publishedSeries := filepath.Join(temporaryRoot, "dest", installSubdirectoryConstant, seriesDirectoryConstant)
	_, statError := os.Lstat(filepath.Join(publishedSeries, "osg-wn-client-latest.el9.x86_64.tar.gz"))
	require.NoError(testInstance, statError)
}

func TestRunSurfacesDiskFullFailures(testInstance *testing.T) {
	temporaryRoot := testInstance.TempDir()
	fullDiskStderr := `rsync: [receiver] write failed on "/mirror/file": No space left on device (28)`
	service := newTarballService(testInstance, newFailingRsyncExecutor(11, fullDiskStderr))

	runError := service.Run(context.Background(), tarballs.RunOptions{
		UpstreamURL:         upstreamURLConstant,
		WorkingRoot:         filepath.Join(temporaryRoot, "working"),
		DestinationRoot:     filepath.Join(temporaryRoot, "dest"),
		PreviousRoot:        filepath.Join(temporaryRoot, "previous"),
		InstallSubdirectory: installSubdirectoryConstant,
	})

	var diskFullFailure tarballs.DiskFullError
	require.ErrorAs(testInstance, runError, &diskFullFailure)
}
