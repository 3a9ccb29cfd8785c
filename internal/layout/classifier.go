package layout

import (
	"path"
	"strings"
)

// Condor sub-channel bucket names beneath the Packages directory.
const (
	CondorReleaseBucketName = "condor-release"
	CondorUpdateBucketName  = "condor-update"
	CondorDailyBucketName   = "condor-daily"
)

const (
	numericBucketNameConstant      = "0"
	packageFileSuffixConstant      = ".rpm"
	decimalDigitCharactersConstant = "0123456789"
)

// condorFamilyGlobs enumerates the name patterns of packages sourced from the
// Condor repositories. Matching packages are replicated across the Condor
// sub-channel buckets instead of the per-letter buckets.
var condorFamilyGlobs = []string{
	"condor-*.rpm",
	"htcondor-ce-*.rpm",
	"htcondor-release-*.rpm",
	"minicondor-*.rpm",
	"pelican-*.rpm",
	"python3-condor-*.rpm",
}

// Classification describes the destination buckets for one package file. The
// first bucket receives the package itself; any remaining buckets receive
// replicas.
type Classification struct {
	CondorFamily bool
	Buckets      []string
}

// PrimaryBucket returns the bucket the package is moved into.
func (classification Classification) PrimaryBucket() string {
	return classification.Buckets[0]
}

// ReplicaBuckets returns the buckets that receive best-effort replicas.
func (classification Classification) ReplicaBuckets() []string {
	return classification.Buckets[1:]
}

// Classifier decides the destination buckets for package files. The Condor
// family predicates are fixed at construction time.
type Classifier struct {
	condorFamilyPatterns []string
}

// NewClassifier constructs a Classifier with the fixed Condor family patterns.
func NewClassifier() *Classifier {
	patterns := make([]string, len(condorFamilyGlobs))
	copy(patterns, condorFamilyGlobs)
	return &Classifier{condorFamilyPatterns: patterns}
}

// IsCondorFamily reports whether the package name matches one of the Condor
// family patterns.
func (classifier *Classifier) IsCondorFamily(packageFileName string) bool {
	for _, pattern := range classifier.condorFamilyPatterns {
		if matched, _ := path.Match(pattern, packageFileName); matched {
			return true
		}
	}
	return false
}

// Classify computes the ordered destination buckets for the package file under
// the given channel. Condor family packages fan out over the channel's Condor
// buckets; everything else lands in a single per-letter bucket.
func (classifier *Classifier) Classify(packageFileName string, channel Channel) Classification {
	if classifier.IsCondorFamily(packageFileName) {
		return Classification{
			CondorFamily: true,
			Buckets:      CondorBucketsForChannel(channel),
		}
	}

	return Classification{
		CondorFamily: false,
		Buckets:      []string{LetterBucket(packageFileName)},
	}
}

// CondorBucketsForChannel returns the ordered Condor sub-channel buckets for
// the given channel. A repository of unknown channel may hold packages from
// any of the Condor repositories, so it fans out over all of them.
func CondorBucketsForChannel(channel Channel) []string {
	switch channel {
	case ChannelRelease:
		return []string{CondorReleaseBucketName, CondorUpdateBucketName}
	case ChannelDevelopment:
		return []string{CondorDailyBucketName}
	default:
		return []string{CondorReleaseBucketName, CondorUpdateBucketName, CondorDailyBucketName}
	}
}

// LetterBucket returns the per-letter bucket for a package name: the
// lowercased first character, with all decimal digits collapsed into the "0"
// bucket.
func LetterBucket(packageFileName string) string {
	if len(packageFileName) == 0 {
		return numericBucketNameConstant
	}
	firstCharacter := packageFileName[:1]
	if strings.ContainsAny(firstCharacter, decimalDigitCharactersConstant) {
		return numericBucketNameConstant
	}
	return strings.ToLower(firstCharacter)
}

// IsPackageFileName reports whether the file name looks like an RPM package.
func IsPackageFileName(fileName string) bool {
	return strings.HasSuffix(fileName, packageFileSuffixConstant)
}
