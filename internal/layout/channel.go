package layout

import (
	"path/filepath"
)

const (
	debugRepositoryDirectoryNameConstant  = "debug"
	sourceRepositoryDirectoryNameConstant = "SRPMS"
	testingChannelDirectoryNameConstant   = "testing"
	releaseChannelDirectoryNameConstant   = "release"
	developmentChannelDirectoryName       = "development"
)

// Channel identifies the logical release stage a repository belongs to.
type Channel string

// Supported release channels.
const (
	ChannelDevelopment Channel = Channel(developmentChannelDirectoryName)
	ChannelRelease     Channel = Channel(releaseChannelDirectoryNameConstant)
	ChannelUnknown     Channel = "unknown"
)

// ChannelForRepository derives the release channel for a repository directory
// by inspecting its resolved ancestor directory names. Debug and source
// repositories sit one level deeper than binary repositories, so their channel
// directory is the grandparent rather than the parent.
func ChannelForRepository(repositoryPath string) Channel {
	resolvedPath, resolveError := filepath.EvalSymlinks(repositoryPath)
	if resolveError != nil {
		resolvedPath = filepath.Clean(repositoryPath)
	}

	ancestorPath := filepath.Dir(resolvedPath)
	repositoryDirectoryName := filepath.Base(resolvedPath)
	if repositoryDirectoryName == debugRepositoryDirectoryNameConstant || repositoryDirectoryName == sourceRepositoryDirectoryNameConstant {
		ancestorPath = filepath.Dir(ancestorPath)
	}

	switch filepath.Base(ancestorPath) {
	case testingChannelDirectoryNameConstant, releaseChannelDirectoryNameConstant:
		return ChannelRelease
	case developmentChannelDirectoryName:
		return ChannelDevelopment
	default:
		return ChannelUnknown
	}
}
