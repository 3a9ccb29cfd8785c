// Package latest maintains the fixed-name release-pointer symlinks that let
// installers fetch the newest release RPM of a series without knowing its
// release number.
package latest
