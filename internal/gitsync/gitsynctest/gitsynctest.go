// Package gitsynctest provides repository fixtures for tests. Remotes are bare
// repositories on the local filesystem, addressed by path.
package gitsynctest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// NewRemote creates an empty bare repository and returns its path.
func NewRemote(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "remote.git")
	if _, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
		Bare:        true,
	}); err != nil {
		t.Fatal(err)
	}

	return dir
}

// NewSeededRemote creates a bare repository whose main branch holds one
// commit with the given files.
func NewSeededRemote(t *testing.T, files map[string]string) string {
	t.Helper()

	remote := NewRemote(t)

	dir := t.TempDir()
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{remote}}); err != nil {
		t.Fatal(err)
	}

	WriteFiles(t, dir, files)

	w, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	if err := w.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		t.Fatal(err)
	}

	sig := &object.Signature{Name: "seed", Email: "seed@example.com", When: time.Now()}
	if _, err := w.Commit("seed", &git.CommitOptions{Author: sig}); err != nil {
		t.Fatal(err)
	}

	if err := repo.Push(&git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{"refs/heads/main:refs/heads/main"},
	}); err != nil {
		t.Fatal(err)
	}

	return remote
}

// WriteFiles writes files relative to dir, creating parent directories.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

// RemoteRef returns the hash of refs/heads/<branch> in the bare repository at
// remote, and false if the reference does not exist.
func RemoteRef(t *testing.T, remote string, branch string) (plumbing.Hash, bool) {
	t.Helper()

	repo, err := git.PlainOpen(remote)
	if err != nil {
		t.Fatal(err)
	}

	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err == plumbing.ErrReferenceNotFound {
		return plumbing.ZeroHash, false
	} else if err != nil {
		t.Fatal(err)
	}

	return ref.Hash(), true
}

// CommitCount returns the number of commits reachable from HEAD of the
// repository at dir.
func CommitCount(t *testing.T, dir string) int {
	t.Helper()

	repo, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatal(err)
	}

	head, err := repo.Head()
	if err == plumbing.ErrReferenceNotFound {
		return 0
	} else if err != nil {
		t.Fatal(err)
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		t.Fatal(err)
	}

	var n int
	if err := iter.ForEach(func(*object.Commit) error {
		n++
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	return n
}

// Snapshot returns the content of every regular file below dir, keyed by
// slash separated relative path. The .git directory is skipped.
func Snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()

	files := map[string]string{}
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		bs, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(bs)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	return files
}
