package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rohmanhakim/stream-harvester/pkg/failure"
)

// EnsureDir check if a given directory plus the following path exist, then create one if not
func EnsureDir(dir string, path ...string) failure.ClassifiedError {
	targetPath := append([]string{dir}, path...)

	fullPath := filepath.Join(targetPath...)
	if err := os.MkdirAll(fullPath, 0755); err != nil {
		return &FileError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      fullPath,
			Err:       err,
		}
	}
	return nil
}

// Exists reports whether path exists. Errors other than "not exist" are returned.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) failure.ClassifiedError {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &FileError{
			Message: fmt.Sprintf("create temp file: %v", err),
			Cause:   ErrCauseWriteError,
			Path:    path,
			Err:     err,
		}
	}
	tmpPath := tmp.Name()

	fail := func(cause FileErrorCause, err error) failure.ClassifiedError {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return &FileError{
			Message: err.Error(),
			Cause:   cause,
			Path:    path,
			Err:     err,
		}
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(ErrCauseWriteError, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return fail(ErrCauseWriteError, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return &FileError{Message: err.Error(), Cause: ErrCauseWriteError, Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &FileError{Message: err.Error(), Cause: ErrCauseRenameFail, Path: path, Err: err}
	}
	return nil
}
