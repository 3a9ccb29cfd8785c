package tarballs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/osg-htc/distmirror/internal/execshell"
	"github.com/osg-htc/distmirror/internal/tarballs"
)

const (
	upstreamURLConstant = "rsync://upstream.example.org/tarballs/"
)

func createDirectory(directoryPath string) error {
	return os.MkdirAll(directoryPath, 0o755)
}

func newFailingRsyncExecutor(exitCode int, standardError string) *stubRsyncExecutor {
	failedResult := execshell.ExecutionResult{ExitCode: exitCode, StandardError: standardError}
	return &stubRsyncExecutor{
		executionResult: failedResult,
		executionError: execshell.CommandFailedError{
			Command: execshell.ShellCommand{Name: execshell.CommandRsync},
			Result:  failedResult,
		},
	}
}

type stubRsyncExecutor struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedRequests []execshell.CommandDetails
}

func (executor *stubRsyncExecutor) ExecuteRsync(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedRequests = append(executor.recordedRequests, details)
	return executor.executionResult, executor.executionError
}

func TestRsyncClientArgumentConstruction(testInstance *testing.T) {
	temporaryRoot := testInstance.TempDir()
	existingLinkDestination := filepath.Join(temporaryRoot, "current")
	require.NoError(testInstance, createDirectory(existingLinkDestination))
	missingLinkDestination := filepath.Join(temporaryRoot, "missing")
	destinationPath := filepath.Join(temporaryRoot, "working")

	testCases := []struct {
		name              string
		request           tarballs.SyncRequest
		expectedArguments []string
	}{
		{
			name: "recursive_delete_with_link_dest",
			request: tarballs.SyncRequest{
				SourceURL:           upstreamURLConstant,
				DestinationPath:     destinationPath,
				LinkDestinationPath: existingLinkDestination,
				Recursive:           true,
				Delete:              true,
			},
			expectedArguments: []string{
				"--times", "--stats", "--delete", "--recursive",
				"--link-dest=" + existingLinkDestination,
				upstreamURLConstant, destinationPath,
			},
		},
		{
			name: "missing_link_dest_omitted",
			request: tarballs.SyncRequest{
				SourceURL:           upstreamURLConstant,
				DestinationPath:     destinationPath,
				LinkDestinationPath: missingLinkDestination,
				Recursive:           true,
				Delete:              true,
			},
			expectedArguments: []string{
				"--times", "--stats", "--delete", "--recursive",
				upstreamURLConstant, destinationPath,
			},
		},
		{
			name: "delete_without_recursion_adds_dirs",
			request: tarballs.SyncRequest{
				SourceURL:       upstreamURLConstant,
				DestinationPath: destinationPath,
				Delete:          true,
			},
			expectedArguments: []string{
				"--times", "--stats", "--delete", "--dirs",
				upstreamURLConstant, destinationPath,
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &stubRsyncExecutor{}
			client := tarballs.NewRsyncClient(executor)

			require.NoError(testInstance, client.Sync(context.Background(), testCase.request))
			require.Len(testInstance, executor.recordedRequests, 1)
			require.Equal(testInstance, testCase.expectedArguments, executor.recordedRequests[0].Arguments)
		})
	}
}

func TestRsyncClientToleratesNotFoundWhenRequested(testInstance *testing.T) {
	failedCommand := execshell.ShellCommand{Name: execshell.CommandRsync}
	notFoundResult := execshell.ExecutionResult{ExitCode: 23}
	executor := &stubRsyncExecutor{
		executionResult: notFoundResult,
		executionError:  execshell.CommandFailedError{Command: failedCommand, Result: notFoundResult},
	}
	client := tarballs.NewRsyncClient(executor)

	tolerantRequest := tarballs.SyncRequest{
		SourceURL:            upstreamURLConstant,
		DestinationPath:      "/mirror/working",
		NotFoundIsAcceptable: true,
	}
	require.NoError(testInstance, client.Sync(context.Background(), tolerantRequest))

	strictRequest := tolerantRequest
	strictRequest.NotFoundIsAcceptable = false
	require.Error(testInstance, client.Sync(context.Background(), strictRequest))
}

func TestRsyncClientDetectsFullDisk(testInstance *testing.T) {
	fullDiskStderr := `rsync: [receiver] write failed on "/mirror/working/file.tar.gz": No space left on device (28)`
	failedResult := execshell.ExecutionResult{ExitCode: 11, StandardError: fullDiskStderr + "\n"}
	executor := &stubRsyncExecutor{
		executionResult: failedResult,
		executionError: execshell.CommandFailedError{
			Command: execshell.ShellCommand{Name: execshell.CommandRsync},
			Result:  failedResult,
		},
	}
	client := tarballs.NewRsyncClient(executor)

	syncError := client.Sync(context.Background(), tarballs.SyncRequest{
		SourceURL:       upstreamURLConstant,
		DestinationPath: "/mirror/working",
	})
	require.Error(testInstance, syncError)

	var diskFullFailure tarballs.DiskFullError
	require.ErrorAs(testInstance, syncError, &diskFullFailure)
	require.Equal(testInstance, upstreamURLConstant, diskFullFailure.Description)
}
