package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/osg-htc/distmirror/internal/layout"
)

const (
	packagesDirectoryNameConstant        = "Packages"
	sourceTreeDestinationNameConstant    = "src"
	sourceParentDirectoryNameConstant    = "source"
	sourceTreeDirectoryNameConstant      = "SRPMS"
	debugDirectoryNameConstant           = "debug"
	bucketDirectoryPermissionsConstant   = fs.FileMode(0o755)
	repositoryReadErrorTemplateConstant  = "unable to list packages in %s: %w"
	bucketCreationErrorTemplateConstant  = "unable to create bucket directory %s: %w"
	replicaErrorTemplateConstant         = "unable to replicate %s to %s: %w"
	sourceTreeStatErrorTemplateConstant  = "unable to inspect source tree %s: %w"
	sourceTreeMoveErrorTemplateConstant  = "unable to relocate source tree %s: %w"
	discoveryErrorTemplateConstant       = "repository discovery failed: %w"
	legacyPackageFoundMessageConstant    = "Legacy release package present; repository not migrated"
	alreadyMigratedPackageMessage        = "Package is already a symlink; skipping"
	movePlannedMessageConstant           = "Moving package into bucket"
	replicaPlannedMessageConstant        = "Replicating Condor package into sibling bucket"
	sourceTreeSymlinkSkipMessageConstant = "Source tree is already a symlink; skipping"
	sourceTreeExistsSkipMessageConstant  = "Source tree destination already exists; skipping"
	sourceTreeRenamePlannedMessage       = "Renaming source tree and leaving compatibility symlink"
	sourceTreeRenameSkippedMessage       = "Skipping source tree rename; packages were not migrated"
	repositorySelectedMessageConstant    = "Migrating repository"
	logFieldRepositoryConstant           = "repository"
	logFieldPackageConstant              = "package"
	logFieldDestinationConstant          = "destination"
	logFieldReplicaConstant              = "replica"
	logFieldChannelConstant              = "channel"
	logFieldKindConstant                 = "kind"
	logFieldDryRunConstant               = "dry_run"
)

// RepositoryKind selects a category of repositories to migrate.
type RepositoryKind string

// Supported repository kinds.
const (
	RepositoryKindSource RepositoryKind = "source"
	RepositoryKindBinary RepositoryKind = "binary"
	RepositoryKindDebug  RepositoryKind = "debug"
)

// AllRepositoryKinds returns every supported repository kind in migration order.
func AllRepositoryKinds() []RepositoryKind {
	return []RepositoryKind{RepositoryKindSource, RepositoryKindBinary, RepositoryKindDebug}
}

// binaryArchitectureNames lists the directory names of arch-specific binary repositories.
var binaryArchitectureNames = []string{"aarch64", "x86_64"}

// RepositoryDiscoverer locates RPM repositories beneath provided roots.
type RepositoryDiscoverer interface {
	DiscoverRepositories(roots []string) ([]string, error)
}

// ServiceDependencies supplies collaborators for the migration service.
type ServiceDependencies struct {
	Logger     *zap.Logger
	Discoverer RepositoryDiscoverer
	Classifier *layout.Classifier
}

// Service migrates discovered repositories into the bucketed layout.
type Service struct {
	logger     *zap.Logger
	discoverer RepositoryDiscoverer
	classifier *layout.Classifier
}

const missingDiscovererMessageConstant = "repository discoverer must be provided"

// NewService constructs a migration service from the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Discoverer == nil {
		return nil, errors.New(missingDiscovererMessageConstant)
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	classifier := dependencies.Classifier
	if classifier == nil {
		classifier = layout.NewClassifier()
	}

	return &Service{logger: logger, discoverer: dependencies.Discoverer, classifier: classifier}, nil
}

// RunOptions configures one migration run.
type RunOptions struct {
	RepositoryRoots []string
	Kinds           []RepositoryKind
	DryRun          bool
}

// Run discovers repositories beneath the configured roots and migrates every
// repository matching the selected kinds. Per-repository failures are
// aggregated; skips are logged and do not fail the run.
func (service *Service) Run(options RunOptions) error {
	repositories, discoveryError := service.discoverer.DiscoverRepositories(options.RepositoryRoots)
	if discoveryError != nil {
		return fmt.Errorf(discoveryErrorTemplateConstant, discoveryError)
	}

	selectedKinds := options.Kinds
	if len(selectedKinds) == 0 {
		selectedKinds = AllRepositoryKinds()
	}

	var migrationErrors []error
	for _, repositoryKind := range selectedKinds {
		for _, repositoryPath := range repositories {
			if !repositoryMatchesKind(repositoryPath, repositoryKind) {
				continue
			}

			service.logger.Info(
				repositorySelectedMessageConstant,
				zap.String(logFieldRepositoryConstant, repositoryPath),
				zap.String(logFieldKindConstant, string(repositoryKind)),
			)

			if migrationError := service.migrateByKind(repositoryPath, repositoryKind, options.DryRun); migrationError != nil {
				migrationErrors = append(migrationErrors, migrationError)
			}
		}
	}

	return errors.Join(migrationErrors...)
}

func (service *Service) migrateByKind(repositoryPath string, repositoryKind RepositoryKind, dryRun bool) error {
	switch repositoryKind {
	case RepositoryKindSource:
		return service.MigrateSourceTree(repositoryPath, dryRun)
	case RepositoryKindDebug:
		packagesDirectory := filepath.Join(filepath.Dir(repositoryPath), packagesDirectoryNameConstant)
		_, migrationError := service.MigrateRepository(repositoryPath, packagesDirectory, dryRun)
		return migrationError
	default:
		packagesDirectory := filepath.Join(repositoryPath, packagesDirectoryNameConstant)
		_, migrationError := service.MigrateRepository(repositoryPath, packagesDirectory, dryRun)
		return migrationError
	}
}

// repositoryMatchesKind reports whether the repository directory belongs to
// the given migration kind. Binary repositories are the arch-named
// directories; debug repositories are their debug subdirectories; source
// repositories end in source/SRPMS.
func repositoryMatchesKind(repositoryPath string, repositoryKind RepositoryKind) bool {
	repositoryDirectoryName := filepath.Base(repositoryPath)
	switch repositoryKind {
	case RepositoryKindSource:
		return isSourceTreePath(repositoryPath)
	case RepositoryKindBinary:
		return isBinaryArchitectureName(repositoryDirectoryName)
	case RepositoryKindDebug:
		return repositoryDirectoryName == debugDirectoryNameConstant ||
			isBinaryArchitectureName(filepath.Base(filepath.Dir(repositoryPath)))
	default:
		return false
	}
}

func isBinaryArchitectureName(directoryName string) bool {
	for _, architectureName := range binaryArchitectureNames {
		if directoryName == architectureName {
			return true
		}
	}
	return false
}

func isSourceTreePath(repositoryPath string) bool {
	cleanedPath := filepath.Clean(repositoryPath)
	parentPath := filepath.Dir(cleanedPath)
	return filepath.Base(cleanedPath) == sourceTreeDirectoryNameConstant &&
		filepath.Base(parentPath) == sourceParentDirectoryNameConstant
}

// MigrateRepository relocates every package file directly beneath the
// repository into its bucket under packagesDirectory, leaving a relative
// compatibility symlink per file and replicating Condor family packages into
// their sibling buckets. It returns false without touching the filesystem
// when the repository holds legacy-release packages. A true result means the
// legacy gate did not trip, even when no file needed action.
func (service *Service) MigrateRepository(repositoryPath string, packagesDirectory string, dryRun bool) (bool, error) {
	packageEntries, readError := listPackageEntries(repositoryPath)
	if readError != nil {
		return false, readError
	}

	packageFileNames := make([]string, 0, len(packageEntries))
	for _, packageEntry := range packageEntries {
		packageFileNames = append(packageFileNames, packageEntry.Name())
	}

	if legacyPackageName, legacyFound := findLegacyPackage(packageFileNames); legacyFound {
		service.logger.Warn(
			legacyPackageFoundMessageConstant,
			zap.String(logFieldRepositoryConstant, repositoryPath),
			zap.String(logFieldPackageConstant, legacyPackageName),
		)
		return false, nil
	}

	repositoryChannel := layout.ChannelForRepository(repositoryPath)

	for _, packageEntry := range packageEntries {
		if packageEntry.Type()&fs.ModeSymlink != 0 {
			service.logger.Debug(
				alreadyMigratedPackageMessage,
				zap.String(logFieldPackageConstant, filepath.Join(repositoryPath, packageEntry.Name())),
			)
			continue
		}

		if migrationError := service.migratePackage(repositoryPath, packagesDirectory, packageEntry.Name(), repositoryChannel, dryRun); migrationError != nil {
			return false, migrationError
		}
	}

	return true, nil
}

func (service *Service) migratePackage(repositoryPath string, packagesDirectory string, packageFileName string, repositoryChannel layout.Channel, dryRun bool) error {
	classification := service.classifier.Classify(packageFileName, repositoryChannel)

	originalPath := filepath.Join(repositoryPath, packageFileName)
	destinationDirectory := filepath.Join(packagesDirectory, classification.PrimaryBucket())
	destinationPath := filepath.Join(destinationDirectory, packageFileName)

	service.logger.Info(
		movePlannedMessageConstant,
		zap.String(logFieldPackageConstant, originalPath),
		zap.String(logFieldDestinationConstant, destinationPath),
		zap.String(logFieldChannelConstant, string(repositoryChannel)),
		zap.Bool(logFieldDryRunConstant, dryRun),
	)

	if !dryRun {
		if creationError := os.MkdirAll(destinationDirectory, bucketDirectoryPermissionsConstant); creationError != nil {
			return fmt.Errorf(bucketCreationErrorTemplateConstant, destinationDirectory, creationError)
		}
		if moveError := moveAndSymlink(originalPath, destinationPath); moveError != nil {
			return moveError
		}
	}

	for _, replicaBucket := range classification.ReplicaBuckets() {
		replicaDirectory := filepath.Join(packagesDirectory, replicaBucket)
		replicaPath := filepath.Join(replicaDirectory, packageFileName)

		service.logger.Info(
			replicaPlannedMessageConstant,
			zap.String(logFieldPackageConstant, destinationPath),
			zap.String(logFieldReplicaConstant, replicaPath),
			zap.Bool(logFieldDryRunConstant, dryRun),
		)

		if dryRun {
			continue
		}

		if creationError := os.MkdirAll(replicaDirectory, bucketDirectoryPermissionsConstant); creationError != nil {
			return fmt.Errorf(bucketCreationErrorTemplateConstant, replicaDirectory, creationError)
		}
		if replicaError := hardlinkOrCopy(destinationPath, replicaPath); replicaError != nil {
			return fmt.Errorf(replicaErrorTemplateConstant, destinationPath, replicaPath, replicaError)
		}
	}

	return nil
}

// MigrateSourceTree migrates a source/SRPMS tree: the packages move into
// buckets beneath a Packages directory nested inside the tree, then the tree
// itself is renamed to the sibling src directory with a compatibility symlink
// left behind. The rename only happens after every package migrated, so an
// interrupted run leaves the tree in place and converges on re-invocation.
func (service *Service) MigrateSourceTree(repositoryPath string, dryRun bool) error {
	treeInformation, lstatError := os.Lstat(repositoryPath)
	if lstatError != nil {
		return fmt.Errorf(sourceTreeStatErrorTemplateConstant, repositoryPath, lstatError)
	}

	if treeInformation.Mode()&fs.ModeSymlink != 0 {
		service.logger.Info(
			sourceTreeSymlinkSkipMessageConstant,
			zap.String(logFieldRepositoryConstant, repositoryPath),
		)
		return nil
	}

	resolvedPath, resolveError := filepath.EvalSymlinks(repositoryPath)
	if resolveError != nil {
		resolvedPath = filepath.Clean(repositoryPath)
	}
	destinationPath := filepath.Join(filepath.Dir(filepath.Dir(resolvedPath)), sourceTreeDestinationNameConstant)

	if _, destinationError := os.Lstat(destinationPath); destinationError == nil {
		service.logger.Info(
			sourceTreeExistsSkipMessageConstant,
			zap.String(logFieldRepositoryConstant, repositoryPath),
			zap.String(logFieldDestinationConstant, destinationPath),
		)
		return nil
	}

	packagesDirectory := filepath.Join(repositoryPath, packagesDirectoryNameConstant)
	migrated, migrationError := service.MigrateRepository(repositoryPath, packagesDirectory, dryRun)
	if migrationError != nil {
		return migrationError
	}

	if !migrated {
		service.logger.Info(
			sourceTreeRenameSkippedMessage,
			zap.String(logFieldRepositoryConstant, repositoryPath),
		)
		return nil
	}

	service.logger.Info(
		sourceTreeRenamePlannedMessage,
		zap.String(logFieldRepositoryConstant, repositoryPath),
		zap.String(logFieldDestinationConstant, destinationPath),
		zap.Bool(logFieldDryRunConstant, dryRun),
	)

	if !dryRun {
		if moveError := moveAndSymlink(repositoryPath, destinationPath); moveError != nil {
			return fmt.Errorf(sourceTreeMoveErrorTemplateConstant, repositoryPath, moveError)
		}
	}

	return nil
}

// listPackageEntries returns the RPM entries directly beneath the repository.
// os.ReadDir already yields entries sorted by name.
func listPackageEntries(repositoryPath string) ([]fs.DirEntry, error) {
	directoryEntries, readError := os.ReadDir(repositoryPath)
	if readError != nil {
		return nil, fmt.Errorf(repositoryReadErrorTemplateConstant, repositoryPath, readError)
	}

	packageEntries := make([]fs.DirEntry, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		if directoryEntry.IsDir() {
			continue
		}
		if !layout.IsPackageFileName(directoryEntry.Name()) {
			continue
		}
		packageEntries = append(packageEntries, directoryEntry)
	}

	return packageEntries, nil
}
