package staticdata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	destinationDirectoryPermissions = os.FileMode(0o755)
	sourceNotAbsoluteErrorTemplate  = "static data root must be absolute, got %s"
	sourceMissingErrorTemplate      = "static data root %s does not exist"
	destinationCreateErrorTemplate  = "unable to create destination directory %s: %w"
	destinationListErrorTemplate    = "unable to list destination directory %s: %w"
	sourceListErrorTemplateConstant = "unable to list static data root %s: %w"
	occupantNotSymlinkErrorTemplate = "expected static data symlink %s is not a symlink"
	symlinkUpdateErrorTemplate      = "unable to update static data symlink %s: %w"
	danglingLinkRemovedMessage      = "Removed dangling static data symlink"
	symlinkCreatedMessageConstant   = "Linking static data entry"
	symlinkRepointedMessageConstant = "Repointing incorrect static data symlink"
	logFieldSymlinkConstant         = "symlink"
	logFieldTargetConstant          = "target"
)

// ServiceDependencies supplies collaborators for the static data service.
type ServiceDependencies struct {
	Logger *zap.Logger
}

// Service mirrors top-level static data entries into the published tree via
// symlinks.
type Service struct {
	logger *zap.Logger
}

// NewService constructs a static data reconciliation service.
func NewService(dependencies ServiceDependencies) *Service {
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

// RunOptions configures one static data reconciliation.
type RunOptions struct {
	StaticRoot      string
	DestinationRoot string
	RepositoryName  string
}

// Run reconciles <DestinationRoot>/<RepositoryName> against
// <StaticRoot>/<RepositoryName>: dangling links into the static root are
// pruned, missing links are created, wrong links are repointed, and a
// non-symlink occupying a link's slot fails the run. An empty StaticRoot
// makes the whole run a no-op.
func (service *Service) Run(options RunOptions) error {
	if len(strings.TrimSpace(options.StaticRoot)) == 0 {
		return nil
	}
	if !filepath.IsAbs(options.StaticRoot) {
		return fmt.Errorf(sourceNotAbsoluteErrorTemplate, options.StaticRoot)
	}

	staticSource := filepath.Join(options.StaticRoot, options.RepositoryName)
	if _, statError := os.Lstat(staticSource); statError != nil {
		return fmt.Errorf(sourceMissingErrorTemplate, staticSource)
	}

	destinationDirectory := filepath.Join(options.DestinationRoot, options.RepositoryName)
	if _, statError := os.Lstat(destinationDirectory); statError != nil {
		if creationError := os.Mkdir(destinationDirectory, destinationDirectoryPermissions); creationError != nil {
			return fmt.Errorf(destinationCreateErrorTemplate, destinationDirectory, creationError)
		}
	}

	if pruneError := service.pruneDanglingLinks(destinationDirectory, staticSource); pruneError != nil {
		return pruneError
	}

	return service.linkSourceEntries(destinationDirectory, staticSource)
}

// pruneDanglingLinks removes destination symlinks that point into the static
// source but no longer resolve to anything.
func (service *Service) pruneDanglingLinks(destinationDirectory string, staticSource string) error {
	destinationEntries, listError := os.ReadDir(destinationDirectory)
	if listError != nil {
		return fmt.Errorf(destinationListErrorTemplate, destinationDirectory, listError)
	}

	for _, destinationEntry := range destinationEntries {
		entryPath := filepath.Join(destinationDirectory, destinationEntry.Name())
		linkTarget, readlinkError := os.Readlink(entryPath)
		if readlinkError != nil {
			continue
		}

		resolvedTarget := linkTarget
		if !filepath.IsAbs(resolvedTarget) {
			resolvedTarget = filepath.Join(destinationDirectory, linkTarget)
		}
		if !pointsInto(resolvedTarget, staticSource) {
			continue
		}
		if _, statError := os.Stat(entryPath); statError == nil {
			continue
		}

		service.logger.Info(
			danglingLinkRemovedMessage,
			zap.String(logFieldSymlinkConstant, entryPath),
			zap.String(logFieldTargetConstant, linkTarget),
		)
		if removeError := os.Remove(entryPath); removeError != nil {
			return fmt.Errorf(symlinkUpdateErrorTemplate, entryPath, removeError)
		}
	}

	return nil
}

// linkSourceEntries ensures every top-level static source entry has a correct
// relative symlink in the destination directory.
func (service *Service) linkSourceEntries(destinationDirectory string, staticSource string) error {
	sourceEntries, listError := os.ReadDir(staticSource)
	if listError != nil {
		return fmt.Errorf(sourceListErrorTemplateConstant, staticSource, listError)
	}

	for _, sourceEntry := range sourceEntries {
		sourcePath := filepath.Join(staticSource, sourceEntry.Name())
		linkPath := filepath.Join(destinationDirectory, sourceEntry.Name())

		expectedTarget, relativeError := filepath.Rel(destinationDirectory, sourcePath)
		if relativeError != nil {
			return fmt.Errorf(symlinkUpdateErrorTemplate, linkPath, relativeError)
		}

		occupantInformation, occupantStatError := os.Lstat(linkPath)
		if occupantStatError == nil {
			if occupantInformation.Mode()&os.ModeSymlink == 0 {
				return fmt.Errorf(occupantNotSymlinkErrorTemplate, linkPath)
			}

			currentTarget, readlinkError := os.Readlink(linkPath)
			if readlinkError != nil {
				return fmt.Errorf(symlinkUpdateErrorTemplate, linkPath, readlinkError)
			}
			if currentTarget == expectedTarget {
				continue
			}

			service.logger.Info(
				symlinkRepointedMessageConstant,
				zap.String(logFieldSymlinkConstant, linkPath),
				zap.String(logFieldTargetConstant, expectedTarget),
			)
			if removeError := os.Remove(linkPath); removeError != nil {
				return fmt.Errorf(symlinkUpdateErrorTemplate, linkPath, removeError)
			}
		} else {
			service.logger.Info(
				symlinkCreatedMessageConstant,
				zap.String(logFieldSymlinkConstant, linkPath),
				zap.String(logFieldTargetConstant, expectedTarget),
			)
		}

		if symlinkError := os.Symlink(expectedTarget, linkPath); symlinkError != nil {
			return fmt.Errorf(symlinkUpdateErrorTemplate, linkPath, symlinkError)
		}
	}

	return nil
}

func pointsInto(resolvedTarget string, staticSource string) bool {
	cleanedTarget := filepath.Clean(resolvedTarget)
	cleanedSource := filepath.Clean(staticSource)
	return strings.HasPrefix(cleanedTarget, cleanedSource+string(filepath.Separator))
}
