// Package layout encodes the bucketed repository layout rules: how a
// repository's release channel is derived from its position on disk and how
// individual RPM package files map onto destination buckets beneath the
// Packages directory.
package layout
