package fs

import (
	"errors"
	"io/fs"
	"os"
)

var errFound = errors.New("file found")

// ContainsFiles reports whether anything other than a directory exists in
// fsys. Empty directories do not count, and a missing root has no files.
func ContainsFiles(fsys fs.FS) (bool, error) {
	err := fs.WalkDir(fsys, ".", func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return errFound
		}
		return nil
	})

	switch {
	case errors.Is(err, errFound):
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	}

	return false, err
}

// DirContainsFiles is ContainsFiles for a directory on disk.
func DirContainsFiles(dir string) (bool, error) {
	return ContainsFiles(os.DirFS(dir))
}
