package tarballs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	publicationDirectoryPermissions     = os.FileMode(0o755)
	syncStartedMessageConstant          = "Syncing client tarballs from upstream"
	syncFailedErrorTemplateConstant     = "unable to pull client tarballs from %s: %w"
	directoryCreateErrorTemplate        = "unable to create publication directory %s: %w"
	workingListErrorTemplateConstant    = "unable to list tarball directory %s: %w"
	unparsableTarballsMessageConstant   = "Skipping tarballs with unparsable names"
	mixedArchitecturesErrorTemplate     = "mixed tarball architectures in %s"
	latestSymlinkMessageConstant        = "Pointing latest tarball symlink"
	latestSymlinkErrorTemplateConstant  = "unable to create latest symlink %s: %w"
	rotationMissingWorkingErrorTemplate = "cannot publish %s: working directory does not exist"
	rotationClearErrorTemplateConstant  = "unable to clear previous publication %s: %w"
	rotationMoveErrorTemplateConstant   = "unable to move %s to %s: %w"
	rotationRestoredMessageConstant     = "Restored previous publication after failed rotation"
	rotationRestoreFailedMessage        = "Could not restore previous publication after failed rotation"
	publicationReleasedMessageConstant  = "Published tarball directory"
	logFieldUpstreamConstant            = "upstream"
	logFieldDirectoryConstant           = "directory"
	logFieldCountConstant               = "count"
	logFieldSymlinkConstant             = "symlink"
	logFieldTargetConstant              = "target"
)

// ServiceDependencies supplies collaborators for the tarball sync service.
type ServiceDependencies struct {
	Logger *zap.Logger
	Client *RsyncClient
}

// Service synchronizes client tarballs and maintains their latest symlinks.
type Service struct {
	logger *zap.Logger
	client *RsyncClient
}

const missingClientMessageConstant = "rsync client must be provided"

// NewService constructs a tarball sync service from the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Client == nil {
		return nil, errors.New(missingClientMessageConstant)
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{logger: logger, client: dependencies.Client}, nil
}

// RunOptions configures one tarball synchronization run.
type RunOptions struct {
	UpstreamURL         string
	WorkingRoot         string
	DestinationRoot     string
	PreviousRoot        string
	InstallSubdirectory string
}

// Run syncs the upstream tarball tree into the working directory, creates the
// latest symlinks there, and rotates the result into the published location.
func (service *Service) Run(executionContext context.Context, options RunOptions) error {
	workingDirectory := filepath.Join(options.WorkingRoot, options.InstallSubdirectory)
	destinationDirectory := filepath.Join(options.DestinationRoot, options.InstallSubdirectory)
	previousDirectory := filepath.Join(options.PreviousRoot, options.InstallSubdirectory)

	for _, publicationDirectory := range []string{workingDirectory, destinationDirectory, previousDirectory} {
		if creationError := os.MkdirAll(publicationDirectory, publicationDirectoryPermissions); creationError != nil {
			return fmt.Errorf(directoryCreateErrorTemplate, publicationDirectory, creationError)
		}
	}

	service.logger.Info(
		syncStartedMessageConstant,
		zap.String(logFieldUpstreamConstant, options.UpstreamURL),
		zap.String(logFieldDirectoryConstant, workingDirectory),
	)

	syncError := service.client.Sync(executionContext, SyncRequest{
		SourceURL:           options.UpstreamURL,
		DestinationPath:     workingDirectory,
		LinkDestinationPath: destinationDirectory,
		Recursive:           true,
		Delete:              true,
	})
	if syncError != nil {
		var diskFullFailure DiskFullError
		if errors.As(syncError, &diskFullFailure) {
			return syncError
		}
		return fmt.Errorf(syncFailedErrorTemplateConstant, options.UpstreamURL, syncError)
	}

	if symlinkError := service.createLatestSymlinks(workingDirectory); symlinkError != nil {
		return symlinkError
	}

	return service.rotatePublication(destinationDirectory, workingDirectory, previousDirectory)
}

// createLatestSymlinks walks <working>/<series>/<arch> directories and points
// a fixed-name latest symlink in each series directory at the newest tarball
// per OS version. Tarball dates sort lexically, so newest is the maximum
// date string.
func (service *Service) createLatestSymlinks(workingDirectory string) error {
	seriesEntries, listError := os.ReadDir(workingDirectory)
	if listError != nil {
		return fmt.Errorf(workingListErrorTemplateConstant, workingDirectory, listError)
	}

	for _, seriesEntry := range seriesEntries {
		if !seriesEntry.IsDir() {
			continue
		}
		seriesDirectory := filepath.Join(workingDirectory, seriesEntry.Name())

		architectureEntries, architectureListError := os.ReadDir(seriesDirectory)
		if architectureListError != nil {
			return fmt.Errorf(workingListErrorTemplateConstant, seriesDirectory, architectureListError)
		}

		for _, architectureEntry := range architectureEntries {
			if !architectureEntry.IsDir() {
				continue
			}
			architectureDirectory := filepath.Join(seriesDirectory, architectureEntry.Name())
			if linkError := service.linkLatestTarballs(seriesDirectory, architectureDirectory); linkError != nil {
				return linkError
			}
		}
	}

	return nil
}

func (service *Service) linkLatestTarballs(seriesDirectory string, architectureDirectory string) error {
	tarballEntries, listError := os.ReadDir(architectureDirectory)
	if listError != nil {
		return fmt.Errorf(workingListErrorTemplateConstant, architectureDirectory, listError)
	}

	descriptors := make([]TarballDescriptor, 0, len(tarballEntries))
	unparsableCount := 0
	for _, tarballEntry := range tarballEntries {
		if tarballEntry.IsDir() {
			continue
		}
		descriptor, parsed := ParseTarballDescriptor(tarballEntry.Name())
		if !parsed {
			unparsableCount++
			continue
		}
		descriptors = append(descriptors, descriptor)
	}

	if unparsableCount > 0 {
		service.logger.Warn(
			unparsableTarballsMessageConstant,
			zap.String(logFieldDirectoryConstant, architectureDirectory),
			zap.Int(logFieldCountConstant, unparsableCount),
		)
	}

	if len(descriptors) == 0 {
		return nil
	}

	architectureNames := make(map[string]struct{}, 1)
	for _, descriptor := range descriptors {
		architectureNames[descriptor.ArchitectureName] = struct{}{}
	}
	if len(architectureNames) != 1 {
		return fmt.Errorf(mixedArchitecturesErrorTemplate, architectureDirectory)
	}
	architectureName := descriptors[0].ArchitectureName

	newestByOS := make(map[string]TarballDescriptor)
	for _, descriptor := range descriptors {
		newest, seen := newestByOS[descriptor.OSVersion]
		if !seen || descriptor.DateString > newest.DateString {
			newestByOS[descriptor.OSVersion] = descriptor
		}
	}

	for osVersion, newest := range newestByOS {
		symlinkPath := filepath.Join(seriesDirectory, LatestSymlinkName(osVersion, architectureName))
		symlinkTarget := filepath.Join(filepath.Base(architectureDirectory), newest.FileName)

		service.logger.Info(
			latestSymlinkMessageConstant,
			zap.String(logFieldSymlinkConstant, symlinkPath),
			zap.String(logFieldTargetConstant, symlinkTarget),
		)

		if removeError := os.Remove(symlinkPath); removeError != nil && !os.IsNotExist(removeError) {
			return fmt.Errorf(latestSymlinkErrorTemplateConstant, symlinkPath, removeError)
		}
		if symlinkError := os.Symlink(symlinkTarget, symlinkPath); symlinkError != nil {
			return fmt.Errorf(latestSymlinkErrorTemplateConstant, symlinkPath, symlinkError)
		}
	}

	return nil
}

// rotatePublication moves the current publication aside and the working
// directory into its place. When the final move fails the previous
// publication is restored so readers never observe an empty destination.
func (service *Service) rotatePublication(destinationDirectory string, workingDirectory string, previousDirectory string) error {
	if _, statError := os.Lstat(workingDirectory); statError != nil {
		return fmt.Errorf(rotationMissingWorkingErrorTemplate, destinationDirectory)
	}

	if _, statError := os.Lstat(previousDirectory); statError == nil {
		if clearError := os.RemoveAll(previousDirectory); clearError != nil {
			return fmt.Errorf(rotationClearErrorTemplateConstant, previousDirectory, clearError)
		}
	}
	if creationError := os.MkdirAll(filepath.Dir(previousDirectory), publicationDirectoryPermissions); creationError != nil {
		return fmt.Errorf(directoryCreateErrorTemplate, filepath.Dir(previousDirectory), creationError)
	}

	destinationExisted := false
	if _, statError := os.Lstat(destinationDirectory); statError == nil {
		destinationExisted = true
		if moveError := os.Rename(destinationDirectory, previousDirectory); moveError != nil {
			return fmt.Errorf(rotationMoveErrorTemplateConstant, destinationDirectory, previousDirectory, moveError)
		}
	}
	if creationError := os.MkdirAll(filepath.Dir(destinationDirectory), publicationDirectoryPermissions); creationError != nil {
		return fmt.Errorf(directoryCreateErrorTemplate, filepath.Dir(destinationDirectory), creationError)
	}

	if moveError := os.Rename(workingDirectory, destinationDirectory); moveError != nil {
		if destinationExisted {
			if restoreError := os.Rename(previousDirectory, destinationDirectory); restoreError != nil {
				service.logger.Error(
					rotationRestoreFailedMessage,
					zap.String(logFieldDirectoryConstant, destinationDirectory),
					zap.Error(restoreError),
				)
			} else {
				service.logger.Info(
					rotationRestoredMessageConstant,
					zap.String(logFieldDirectoryConstant, destinationDirectory),
				)
			}
		}
		return fmt.Errorf(rotationMoveErrorTemplateConstant, workingDirectory, destinationDirectory, moveError)
	}

	service.logger.Info(
		publicationReleasedMessageConstant,
		zap.String(logFieldDirectoryConstant, destinationDirectory),
	)
	return nil
}
