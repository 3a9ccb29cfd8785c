package latest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	releaseMarkerPrefixConstant        = "osg-release"
	releaseDirectoryNameConstant       = "release"
	pointerSymlinkNameTemplateConstant = "osg-%s-%s-release-latest.rpm"
	seriesWalkErrorTemplateConstant    = "unable to scan series tree %s: %w"
	pointerUpdateErrorTemplateConstant = "unable to update release pointer %s: %w"
	relativeTargetErrorTemplate        = "unable to compute pointer target from %s to %s: %w"
	noCandidateErrorTemplateConstant   = "no valid release RPMs found for series %s (%s)"
	pointerUpdatedMessageConstant      = "Pointing release-latest symlink"
	logFieldSeriesConstant             = "series"
	logFieldOSVersionConstant          = "os_version"
	logFieldSymlinkConstant            = "symlink"
	logFieldTargetConstant             = "target"
)

// releaseNumberPattern extracts the integer release number from a release RPM
// name. Release RPMs of one series share a semantic version and differ only
// in this number.
var releaseNumberPattern = regexp.MustCompile(`-([0-9]+)\.osg`)

// NoReleaseCandidateError reports a series and OS version with no release
// RPM carrying a parseable, positive release number.
type NoReleaseCandidateError struct {
	SeriesName string
	OSVersion  string
}

// Error names the series and OS version that lacked a usable release RPM.
func (failure NoReleaseCandidateError) Error() string {
	return fmt.Sprintf(noCandidateErrorTemplateConstant, failure.SeriesName, failure.OSVersion)
}

// ReleaseNumber parses the release number from a release RPM file name. Zero
// means the name did not carry a usable number.
func ReleaseNumber(packageFileName string) int {
	numberMatch := releaseNumberPattern.FindStringSubmatch(packageFileName)
	if numberMatch == nil {
		return 0
	}
	releaseNumber, parseError := strconv.Atoi(numberMatch[1])
	if parseError != nil {
		return 0
	}
	return releaseNumber
}

// ServiceDependencies supplies collaborators for the release-pointer service.
type ServiceDependencies struct {
	Logger *zap.Logger
}

// Service repoints the per-series release-latest symlinks.
type Service struct {
	logger *zap.Logger
}

// NewService constructs a release-pointer service.
func NewService(dependencies ServiceDependencies) *Service {
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

// Run updates the release pointer of every series and OS version in the
// manifest beneath the destination root. A series and OS version without a
// valid candidate fails the run with NoReleaseCandidateError.
func (service *Service) Run(destinationRoot string, manifest SeriesManifest) error {
	for _, series := range manifest.Series {
		seriesRoot := filepath.Join(destinationRoot, series.Destination)
		for _, osVersion := range series.OSVersions {
			if pointerError := service.updatePointer(seriesRoot, series, osVersion); pointerError != nil {
				return pointerError
			}
		}
	}
	return nil
}

func (service *Service) updatePointer(seriesRoot string, series ReleaseSeries, osVersion string) error {
	candidatePath, candidateError := findNewestReleasePackage(filepath.Join(seriesRoot, osVersion), series.PrimaryArchitecture())
	if candidateError != nil {
		return candidateError
	}
	if len(candidatePath) == 0 {
		return NoReleaseCandidateError{SeriesName: series.Name, OSVersion: osVersion}
	}

	symlinkPath := filepath.Join(seriesRoot, fmt.Sprintf(pointerSymlinkNameTemplateConstant, series.Name, osVersion))
	symlinkTarget, relativeError := filepath.Rel(filepath.Dir(symlinkPath), candidatePath)
	if relativeError != nil {
		return fmt.Errorf(relativeTargetErrorTemplate, symlinkPath, candidatePath, relativeError)
	}

	service.logger.Info(
		pointerUpdatedMessageConstant,
		zap.String(logFieldSeriesConstant, series.Name),
		zap.String(logFieldOSVersionConstant, osVersion),
		zap.String(logFieldSymlinkConstant, symlinkPath),
		zap.String(logFieldTargetConstant, symlinkTarget),
	)

	if removeError := os.Remove(symlinkPath); removeError != nil && !os.IsNotExist(removeError) {
		return fmt.Errorf(pointerUpdateErrorTemplateConstant, symlinkPath, removeError)
	}
	if symlinkError := os.Symlink(symlinkTarget, symlinkPath); symlinkError != nil {
		return fmt.Errorf(pointerUpdateErrorTemplateConstant, symlinkPath, symlinkError)
	}

	return nil
}

// findNewestReleasePackage walks the OS-version tree for release-marker RPMs
// under release/<primaryArchitecture>/ and returns the one with the highest
// release number, or empty when none qualifies.
func findNewestReleasePackage(osVersionRoot string, primaryArchitecture string) (string, error) {
	newestPath := ""
	newestNumber := 0
	architectureMarker := string(filepath.Separator) + filepath.Join(releaseDirectoryNameConstant, primaryArchitecture) + string(filepath.Separator)

	walkError := filepath.WalkDir(osVersionRoot, func(entryPath string, entry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}
		if entry.IsDir() {
			return nil
		}
		if !strings.HasPrefix(entry.Name(), releaseMarkerPrefixConstant) {
			return nil
		}
		if !strings.Contains(entryPath, architectureMarker) {
			return nil
		}

		releaseNumber := ReleaseNumber(entry.Name())
		if releaseNumber > newestNumber {
			newestNumber = releaseNumber
			newestPath = entryPath
		}
		return nil
	})
	if walkError != nil {
		if errors.Is(walkError, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf(seriesWalkErrorTemplateConstant, osVersionRoot, walkError)
	}

	return newestPath, nil
}
