// Package migrate implements the one-time relocation of mash-era flat
// repository trees into the bucketed distrepos layout. Package files move into
// per-letter or Condor sub-channel buckets beneath the Packages directory and
// relative compatibility symlinks are left at the original locations so
// already published repodata keeps resolving. Repositories holding packages
// from legacy releases are refused wholesale, and re-running a partially
// completed migration converges without repeating work.
package migrate
