// Package tarballs mirrors worker-node client tarballs from the upstream
// rsync endpoint into the published tree.
//
// A run syncs the upstream into a working root while hard-linking unchanged
// files against the current publication, creates per-series latest symlinks,
// and finally rotates working into the published root keeping the prior
// publication as a fallback.
package tarballs
