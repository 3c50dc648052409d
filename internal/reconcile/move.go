package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/confsync/confsync/internal/gitsync"
)

// rename is replaced in tests to fail part way through a move.
var rename = os.Rename

// cloneInto clones uri next to dir and moves the result into dir. The
// temporary clone is removed on every return path.
func cloneInto(ctx context.Context, uri string, dir string, creds gitsync.CredentialSource) (*gitsync.Repository, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	// Sibling of dir, so that the move is a rename on the same filesystem.
	tmp, err := os.MkdirTemp(filepath.Dir(filepath.Clean(dir)), ".confsync-clone-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)

	if _, err := gitsync.Clone(ctx, uri, tmp, creds); err != nil {
		return nil, err
	}

	if err := moveContents(tmp, dir); err != nil {
		return nil, err
	}

	repo, err := gitsync.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open %v: %w", dir, err)
	}

	return repo.WithCredentials(creds), nil
}

// moveContents renames every entry of src into dst. Nothing is moved if an
// entry of the same name exists in dst. A failed rename moves the already
// moved entries back.
func moveContents(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, e := range entries {
		target := filepath.Join(dst, e.Name())
		if _, err := os.Lstat(target); err == nil {
			return fmt.Errorf("move into %v: %w: %s", dst, ErrPathCollision, e.Name())
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	var moved []string
	for _, e := range entries {
		if err := rename(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			errs := []error{fmt.Errorf("move into %v: %w", dst, err)}
			for _, name := range moved {
				if err := rename(filepath.Join(dst, name), filepath.Join(src, name)); err != nil {
					errs = append(errs, fmt.Errorf("roll back %v: %w", name, err))
				}
			}
			return errors.Join(errs...)
		}
		moved = append(moved, e.Name())
	}

	return nil
}
