package tarballs

import (
	"strings"
)

const (
	descriptorMinimumSegmentsConstant = 5
	descriptorSegmentSeparator        = "."
	latestTarballPrefixConstant       = "osg-wn-client-latest"
	tarballSuffixConstant             = ".tar.gz"
)

// TarballDescriptor carries the fields parsed from a client tarball file
// name of the form <name>.<date>.<os>.<arch>.tar.gz.
type TarballDescriptor struct {
	FileName         string
	DateString       string
	OSVersion        string
	ArchitectureName string
}

// ParseTarballDescriptor extracts the trailing dot-separated date, OS, and
// architecture segments from a tarball file name. The boolean result reports
// whether every field was present.
func ParseTarballDescriptor(fileName string) (TarballDescriptor, bool) {
	nameSegments := strings.Split(fileName, descriptorSegmentSeparator)
	if len(nameSegments) < descriptorMinimumSegmentsConstant {
		return TarballDescriptor{FileName: fileName}, false
	}

	descriptor := TarballDescriptor{
		FileName:         fileName,
		DateString:       nameSegments[len(nameSegments)-5],
		OSVersion:        nameSegments[len(nameSegments)-4],
		ArchitectureName: nameSegments[len(nameSegments)-3],
	}

	complete := len(descriptor.DateString) > 0 && len(descriptor.OSVersion) > 0 && len(descriptor.ArchitectureName) > 0
	return descriptor, complete
}

// LatestSymlinkName returns the fixed-name latest symlink for an OS and
// architecture combination.
func LatestSymlinkName(osVersion string, architectureName string) string {
	return latestTarballPrefixConstant + descriptorSegmentSeparator + osVersion +
		descriptorSegmentSeparator + architectureName + tarballSuffixConstant
}
