package pathutils

import (
	"strings"
)

// RootPathSanitizer normalizes mirror-root path inputs consistently across commands.
type RootPathSanitizer struct {
	homeExpander *HomeExpander
}

// NewRootPathSanitizer constructs a RootPathSanitizer with default behavior.
func NewRootPathSanitizer() *RootPathSanitizer {
	return NewRootPathSanitizerWithExpander(nil)
}

// NewRootPathSanitizerWithExpander constructs a RootPathSanitizer using the provided expander.
func NewRootPathSanitizerWithExpander(homeExpander *HomeExpander) *RootPathSanitizer {
	resolvedExpander := homeExpander
	if resolvedExpander == nil {
		resolvedExpander = NewHomeExpander()
	}
	return &RootPathSanitizer{homeExpander: resolvedExpander}
}

// Sanitize trims whitespace, expands the user's home directory, and removes
// empty and duplicate entries while preserving order.
func (sanitizer *RootPathSanitizer) Sanitize(candidatePaths []string) []string {
	expander := sanitizer.homeExpander
	if expander == nil {
		expander = NewHomeExpander()
	}

	seenPaths := make(map[string]struct{}, len(candidatePaths))
	sanitizedPaths := make([]string, 0, len(candidatePaths))
	for _, candidatePath := range candidatePaths {
		trimmedCandidate := strings.TrimSpace(candidatePath)
		if len(trimmedCandidate) == 0 {
			continue
		}

		expandedCandidate := expander.Expand(trimmedCandidate)
		if _, alreadySeen := seenPaths[expandedCandidate]; alreadySeen {
			continue
		}

		seenPaths[expandedCandidate] = struct{}{}
		sanitizedPaths = append(sanitizedPaths, expandedCandidate)
	}

	if len(sanitizedPaths) == 0 {
		return nil
	}
	return sanitizedPaths
}
