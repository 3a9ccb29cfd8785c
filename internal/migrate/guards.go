package migrate

import (
	"regexp"
)

// legacyReleaseIdentifierPattern matches the release identifiers of the OSG
// 3.1 through 3.6 and devops series. Those repositories predate the bucketed
// layout and keep their flat arrangement, so finding even one such package
// disqualifies the whole repository from migration.
var legacyReleaseIdentifierPattern = regexp.MustCompile(`[.]osg(3[123456]|devops)`)

// HasLegacyReleaseIdentifier reports whether the package file name carries a
// legacy release identifier.
func HasLegacyReleaseIdentifier(packageFileName string) bool {
	return legacyReleaseIdentifierPattern.MatchString(packageFileName)
}

// findLegacyPackage returns the first package name carrying a legacy release
// identifier, if any.
func findLegacyPackage(packageFileNames []string) (string, bool) {
	for _, packageFileName := range packageFileNames {
		if HasLegacyReleaseIdentifier(packageFileName) {
			return packageFileName, true
		}
	}
	return "", false
}
