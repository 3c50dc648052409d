package gitsync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repository is an open, non-bare repository together with its working tree.
// The worktree handle is kept for the lifetime of the Repository because
// transient ignore rules live on it.
type Repository struct {
	path       string
	repository *git.Repository
	worktree   *git.Worktree
	creds      CredentialSource
}

// Signature identifies the author or committer of a commit.
type Signature struct {
	Name  string
	Email string
}

func newRepository(path string, repository *git.Repository) (*Repository, error) {
	w, err := repository.Worktree()
	if err != nil {
		return nil, err
	}

	return &Repository{path: path, repository: repository, worktree: w}, nil
}

// WithCredentials sets the credentials used by Push.
func (r *Repository) WithCredentials(creds CredentialSource) *Repository {
	r.creds = creds
	return r
}

func (r *Repository) Path() string {
	return r.path
}

// Underlying returns the go-git repository.
func (r *Repository) Underlying() *git.Repository {
	return r.repository
}

// RemoteURL returns the first URL configured for the named remote.
func (r *Repository) RemoteURL(name string) (string, error) {
	remote, err := r.repository.Remote(name)
	if errors.Is(err, git.ErrRemoteNotFound) {
		return "", fmt.Errorf("%w: %s", ErrRemoteNotConfigured, name)
	} else if err != nil {
		return "", err
	}

	if urls := remote.Config().URLs; len(urls) > 0 {
		return urls[0], nil
	}

	return "", fmt.Errorf("%w: %s has no url", ErrRemoteNotConfigured, name)
}

// Head returns the checked out branch and its tip. On a branch without
// commits yet, tip is the zero hash.
func (r *Repository) Head() (branch plumbing.ReferenceName, tip plumbing.Hash, err error) {
	head, err := r.repository.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", plumbing.ZeroHash, err
	}

	if head.Type() != plumbing.SymbolicReference {
		return plumbing.HEAD, head.Hash(), nil
	}

	ref, err := r.repository.Reference(head.Target(), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return head.Target(), plumbing.ZeroHash, nil
	} else if err != nil {
		return "", plumbing.ZeroHash, err
	}

	return ref.Name(), ref.Hash(), nil
}

// AddTransientIgnore excludes paths matching the gitignore patterns from
// status and staging. The rules are held in memory only; nothing is written to
// .gitignore or .git/info/exclude.
func (r *Repository) AddTransientIgnore(patterns ...string) {
	for _, p := range patterns {
		r.worktree.Excludes = append(r.worktree.Excludes, gitignore.ParsePattern(p, nil))
	}
}

// Status returns the changes between the working tree and the last commit.
// Paths matching a transient ignore rule are left out even when tracked,
// since StageAll never stages them.
func (r *Repository) Status() (ChangeSet, error) {
	s, err := r.worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("status %v: %w", r.path, err)
	}

	cs := changeSetFromStatus(s, false)
	if len(r.worktree.Excludes) == 0 {
		return cs, nil
	}

	m := gitignore.NewMatcher(r.worktree.Excludes)
	return slices.DeleteFunc(cs, func(c Change) bool {
		return m.Match(strings.Split(c.Path, "/"), false)
	}), nil
}

// StageAll stages every change under the working tree root, respecting the
// transient ignore rules, and returns the staged changes.
func (r *Repository) StageAll() (ChangeSet, error) {
	if err := r.worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return nil, fmt.Errorf("stage %v: %w", r.path, err)
	}

	s, err := r.worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("status %v: %w", r.path, err)
	}

	return changeSetFromStatus(s, true), nil
}

// Commit records the staged changes. Both signatures are timestamped now.
func (r *Repository) Commit(message string, author, committer Signature) (plumbing.Hash, error) {
	now := time.Now()

	h, err := r.worktree.Commit(message, &git.CommitOptions{
		Author:    &object.Signature{Name: author.Name, Email: author.Email, When: now},
		Committer: &object.Signature{Name: committer.Name, Email: committer.Email, When: now},
	})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("commit %v: %w", r.path, err)
	}

	return h, nil
}

// Push pushes the checked out branch to the branch of the same name on the
// remote. An up to date remote is not an error.
func (r *Repository) Push(ctx context.Context) error {
	branch, _, err := r.Head()
	if err != nil {
		return fmt.Errorf("push %v: %w", r.path, err)
	}

	auth, err := authMethod(ctx, r.creds)
	if err != nil {
		return fmt.Errorf("push %v: %w", r.path, err)
	}

	err = r.repository.PushContext(ctx, &git.PushOptions{
		RemoteName: RemoteName,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(fmt.Sprintf("%s:%s", branch, branch))},
		Auth:       auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("push %v to %s: %w", branch.Short(), RemoteName, err)
	}

	return nil
}
