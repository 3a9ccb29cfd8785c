package migrate

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	moveErrorTemplateConstant         = "unable to move %s to %s: %w"
	symlinkErrorTemplateConstant      = "unable to create compatibility symlink at %s: %w"
	relativePathErrorTemplateConstant = "unable to compute relative path from %s to %s: %w"
	copyOpenErrorTemplateConstant     = "unable to open %s for copying: %w"
	copyCreateErrorTemplateConstant   = "unable to create copy at %s: %w"
	copyWriteErrorTemplateConstant    = "unable to copy %s to %s: %w"
)

// moveAndSymlink renames a file and leaves a relative symlink at the original
// location pointing at the new one. The symlink is relative so the whole
// mirror tree stays valid when mounted under a different root.
func moveAndSymlink(fromPath string, toPath string) error {
	relativeTarget, relativeError := filepath.Rel(filepath.Dir(fromPath), toPath)
	if relativeError != nil {
		return fmt.Errorf(relativePathErrorTemplateConstant, fromPath, toPath, relativeError)
	}

	if renameError := os.Rename(fromPath, toPath); renameError != nil {
		return fmt.Errorf(moveErrorTemplateConstant, fromPath, toPath, renameError)
	}

	if symlinkError := os.Symlink(relativeTarget, fromPath); symlinkError != nil {
		return fmt.Errorf(symlinkErrorTemplateConstant, fromPath, symlinkError)
	}

	return nil
}

// hardlinkOrCopy places a replica of fromPath at toPath, preferring a hard
// link to save disk space and falling back to a full copy when linking fails
// (for example across filesystems).
func hardlinkOrCopy(fromPath string, toPath string) error {
	if linkError := os.Link(fromPath, toPath); linkError == nil {
		return nil
	}
	return copyPreservingMetadata(fromPath, toPath)
}

// copyPreservingMetadata copies file contents and carries over the source's
// permission bits and modification time.
func copyPreservingMetadata(fromPath string, toPath string) error {
	sourceFile, openError := os.Open(fromPath)
	if openError != nil {
		return fmt.Errorf(copyOpenErrorTemplateConstant, fromPath, openError)
	}
	defer sourceFile.Close()

	sourceInformation, statError := sourceFile.Stat()
	if statError != nil {
		return fmt.Errorf(copyOpenErrorTemplateConstant, fromPath, statError)
	}

	destinationFile, createError := os.OpenFile(toPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, sourceInformation.Mode().Perm())
	if createError != nil {
		return fmt.Errorf(copyCreateErrorTemplateConstant, toPath, createError)
	}

	if _, copyError := io.Copy(destinationFile, sourceFile); copyError != nil {
		destinationFile.Close()
		return fmt.Errorf(copyWriteErrorTemplateConstant, fromPath, toPath, copyError)
	}

	if closeError := destinationFile.Close(); closeError != nil {
		return fmt.Errorf(copyWriteErrorTemplateConstant, fromPath, toPath, closeError)
	}

	modificationTime := sourceInformation.ModTime()
	if chtimesError := os.Chtimes(toPath, modificationTime, modificationTime); chtimesError != nil {
		return fmt.Errorf(copyWriteErrorTemplateConstant, fromPath, toPath, chtimesError)
	}

	return nil
}
