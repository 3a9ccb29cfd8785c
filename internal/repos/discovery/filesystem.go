package discovery

import (
	"io/fs"
	"path/filepath"
	"sort"
)

const repodataMetadataDirectoryNameConstant = "repodata"

// FilesystemRepositoryDiscoverer locates RPM repositories on disk. A
// repository is any directory containing a repodata metadata directory.
type FilesystemRepositoryDiscoverer struct{}

// NewFilesystemRepositoryDiscoverer constructs a repository discoverer backed by filepath.WalkDir.
func NewFilesystemRepositoryDiscoverer() *FilesystemRepositoryDiscoverer {
	return &FilesystemRepositoryDiscoverer{}
}

// DiscoverRepositories walks the provided roots and returns every directory
// containing a repodata entry. Repositories may nest (an architecture
// repository holds its debug repository), so traversal continues past a match
// and only the metadata directory itself is skipped.
func (discoverer *FilesystemRepositoryDiscoverer) DiscoverRepositories(roots []string) ([]string, error) {
	seen := make(map[string]struct{})
	var repositories []string

	for _, root := range roots {
		walkError := filepath.WalkDir(root, func(path string, directoryEntry fs.DirEntry, walkError error) error {
			if walkError != nil {
				return nil
			}

			if directoryEntry.Name() != repodataMetadataDirectoryNameConstant {
				return nil
			}

			if directoryEntry.IsDir() {
				repositoryPath := filepath.Dir(path)
				if _, alreadySeen := seen[repositoryPath]; !alreadySeen {
					seen[repositoryPath] = struct{}{}
					repositories = append(repositories, repositoryPath)
				}
				return fs.SkipDir
			}
			return nil
		})
		if walkError != nil {
			return nil, walkError
		}
	}

	sort.Strings(repositories)
	return repositories, nil
}
