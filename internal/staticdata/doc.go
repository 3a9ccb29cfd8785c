// Package staticdata reconciles the symlinks that expose statically managed
// repository content inside the published tree.
package staticdata
