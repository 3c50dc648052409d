// gitsync package implements the version control operations confsync needs on
// top of go-git: listing remote references, opening and cloning repositories,
// and the status/stage/commit/push cycle of a single working tree. This package
// implements no scheduling, it is expected that the caller sequences the
// operations. A Repository is not thread-safe.
package gitsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/protocol/packp/capability"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/memory"
)

const (
	// RemoteName is the only remote confsync reads from or pushes to.
	RemoteName = "origin"

	// DefaultBranch is used when a repository is created from an empty remote.
	DefaultBranch = plumbing.Main
)

var (
	ErrRepositoryNotExists = git.ErrRepositoryNotExists
	ErrRemoteNotConfigured = errors.New("remote not configured")
)

func init() {
	// For Azure DevOps compatibility. More details: https://github.com/go-git/go-git/issues/64
	transport.UnsupportedCapabilities = []capability.Capability{
		capability.ThinPack,
	}
}

// ListRemoteRefs returns the references advertised by the repository at uri.
// An existing but empty remote yields no references and no error.
func ListRemoteRefs(ctx context.Context, uri string, creds CredentialSource) ([]*plumbing.Reference, error) {
	auth, err := authMethod(ctx, creds)
	if err != nil {
		return nil, err
	}

	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: RemoteName,
		URLs: []string{uri},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: auth})
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return refs, nil
}

// Open opens the repository whose working tree is path. If path is not a
// repository, the returned error wraps ErrRepositoryNotExists.
func Open(path string) (*Repository, error) {
	repository, err := git.PlainOpen(path)
	if err != nil {
		return nil, err
	}

	return newRepository(path, repository)
}

// Clone clones uri into dir, which must be empty or not exist yet. Cloning an
// empty remote initialises a repository on DefaultBranch with the remote
// configured, so that the first push creates the branch upstream.
func Clone(ctx context.Context, uri string, dir string, creds CredentialSource) (*Repository, error) {
	auth, err := authMethod(ctx, creds)
	if err != nil {
		return nil, err
	}

	repository, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:        uri,
		RemoteName: RemoteName,
		Auth:       auth,
	})
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return Init(dir, uri)
	} else if err != nil {
		return nil, fmt.Errorf("clone %v: %w", uri, err)
	}

	return newRepository(dir, repository)
}

// Init creates a new repository in dir with uri as its remote.
func Init(dir string, uri string) (*Repository, error) {
	repository, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: DefaultBranch},
	})
	if err != nil {
		return nil, fmt.Errorf("init %v: %w", dir, err)
	}

	if _, err := repository.CreateRemote(&gitconfig.RemoteConfig{
		Name: RemoteName,
		URLs: []string{uri},
	}); err != nil {
		return nil, fmt.Errorf("init %v: create remote: %w", dir, err)
	}

	return newRepository(dir, repository)
}
