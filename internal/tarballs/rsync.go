package tarballs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/osg-htc/distmirror/internal/execshell"
)

const (
	rsyncTimesFlagConstant        = "--times"
	rsyncStatsFlagConstant        = "--stats"
	rsyncDeleteFlagConstant       = "--delete"
	rsyncRecursiveFlagConstant    = "--recursive"
	rsyncDirsFlagConstant         = "--dirs"
	rsyncLinkDestFlagTemplate     = "--link-dest=%s"
	rsyncNotFoundExitCodeConstant = 23
	diskFullErrorTemplateConstant = "destination disk is full: %s"
)

// diskFullStderrPattern matches the receiver-side write failure rsync emits
// when the destination filesystem runs out of space (ENOSPC is errno 28).
var diskFullStderrPattern = regexp.MustCompile(`(?m)rsync: \[receiver] write failed.*\(28\)$`)

// DiskFullError reports an rsync transfer that failed because the destination
// filesystem ran out of space. It aborts the whole run rather than being
// retried per transfer.
type DiskFullError struct {
	Description string
}

// Error describes the transfer that hit the full disk.
func (failure DiskFullError) Error() string {
	return fmt.Sprintf(diskFullErrorTemplateConstant, failure.Description)
}

// RsyncExecutor runs rsync with the given invocation details.
type RsyncExecutor interface {
	ExecuteRsync(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// SyncRequest describes one rsync transfer from an upstream URL into a local
// directory.
type SyncRequest struct {
	SourceURL            string
	DestinationPath      string
	LinkDestinationPath  string
	Recursive            bool
	Delete               bool
	NotFoundIsAcceptable bool
}

// RsyncClient builds rsync invocations for mirror transfers.
type RsyncClient struct {
	executor RsyncExecutor
}

// NewRsyncClient constructs an RsyncClient using the provided executor.
func NewRsyncClient(executor RsyncExecutor) *RsyncClient {
	return &RsyncClient{executor: executor}
}

// Sync runs one rsync transfer. A transfer that fails because the destination
// disk is full surfaces as DiskFullError; a tolerated source-not-found exit
// is treated as success when the request allows it.
func (client *RsyncClient) Sync(executionContext context.Context, request SyncRequest) error {
	executionResult, executionError := client.executor.ExecuteRsync(executionContext, execshell.CommandDetails{
		Arguments: buildRsyncArguments(request),
	})
	if executionError == nil {
		return nil
	}

	var commandFailure execshell.CommandFailedError
	if errors.As(executionError, &commandFailure) {
		if request.NotFoundIsAcceptable && commandFailure.Result.ExitCode == rsyncNotFoundExitCodeConstant {
			return nil
		}
		if diskFullStderrPattern.MatchString(executionResult.StandardError) {
			return DiskFullError{Description: request.SourceURL}
		}
	}

	return executionError
}

// buildRsyncArguments assembles the rsync flag list for a transfer. The
// --dirs fallback keeps --delete valid when recursion is off, and the
// link destination is only passed when it actually exists.
func buildRsyncArguments(request SyncRequest) []string {
	arguments := []string{rsyncTimesFlagConstant, rsyncStatsFlagConstant}
	if request.Delete {
		arguments = append(arguments, rsyncDeleteFlagConstant)
	}
	if request.Recursive {
		arguments = append(arguments, rsyncRecursiveFlagConstant)
	} else if request.Delete {
		arguments = append(arguments, rsyncDirsFlagConstant)
	}
	if len(request.LinkDestinationPath) > 0 {
		if _, statError := os.Stat(request.LinkDestinationPath); statError == nil {
			arguments = append(arguments, fmt.Sprintf(rsyncLinkDestFlagTemplate, request.LinkDestinationPath))
		}
	}
	return append(arguments, request.SourceURL, request.DestinationPath)
}
