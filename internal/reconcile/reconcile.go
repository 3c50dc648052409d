// Package reconcile brings the local configuration directory and the remote
// repository into a state the sync loop can work with. It runs once at
// startup and either returns an open repository or fails.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/confsync/confsync/internal/fs"
	"github.com/confsync/confsync/internal/gitsync"
	"github.com/confsync/confsync/internal/logging"
	"github.com/confsync/confsync/internal/metrics"
)

type Reconciler struct {
	repositoryURI string
	localPath     string
	creds         gitsync.CredentialSource
	ignore        []string
	log           *logging.Logger
}

func New(repositoryURI string, localPath string) *Reconciler {
	return &Reconciler{
		repositoryURI: repositoryURI,
		localPath:     localPath,
		log:           logging.NewNop(),
	}
}

func (r *Reconciler) WithCredentials(creds gitsync.CredentialSource) *Reconciler {
	r.creds = creds
	return r
}

// WithIgnorePatterns sets the transient ignore rules installed on the
// returned repository.
func (r *Reconciler) WithIgnorePatterns(patterns []string) *Reconciler {
	r.ignore = patterns
	return r
}

func (r *Reconciler) WithLogger(logger *logging.Logger) *Reconciler {
	r.log = logger
	return r
}

// Reconcile returns the repository at the local path, cloning the remote into
// it when the path holds no files yet.
func (r *Reconciler) Reconcile(ctx context.Context) (*gitsync.Repository, error) {
	repo, scenario, err := r.reconcile(ctx)
	if err == nil {
		err = r.ready(repo)
	}

	metrics.Reconciled(scenario.String(), err)
	if err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *Reconciler) reconcile(ctx context.Context) (*gitsync.Repository, Scenario, error) {
	r.log.Infof("Validating remote repository %v.", r.repositoryURI)

	refs, err := gitsync.ListRemoteRefs(ctx, r.repositoryURI, r.creds)
	if err != nil {
		return nil, scenarioUnknown, fmt.Errorf("%w: %s: %w", ErrRemoteInaccessible, r.repositoryURI, err)
	}

	state := State{RemoteHasRefs: len(refs) > 0}
	r.log.Debugf("Remote repository %v advertises %d references.", r.repositoryURI, len(refs))

	repo, err := gitsync.Open(r.localPath)
	switch {
	case err == nil:
		state.IsRepository = true
	case errors.Is(err, gitsync.ErrRepositoryNotExists):
		if state.LocalFilesExist, err = fs.DirContainsFiles(r.localPath); err != nil {
			return nil, scenarioUnknown, fmt.Errorf("inspect %v: %w", r.localPath, err)
		}
	default:
		return nil, scenarioUnknown, fmt.Errorf("open repository %v: %w", r.localPath, err)
	}

	scenario := Classify(state)
	r.log.Debugf("Reconciliation scenario: %v.", scenario)

	if !scenario.Supported() {
		return nil, scenario, &UnsupportedScenarioError{
			Scenario:      scenario,
			LocalPath:     r.localPath,
			RepositoryURI: r.repositoryURI,
		}
	}

	if scenario == ScenarioAlreadyOpen {
		if err := r.checkRemote(repo); err != nil {
			return nil, scenario, err
		}
		return repo.WithCredentials(r.creds), scenario, nil
	}

	r.log.Infof("Cloning %v into %v.", r.repositoryURI, r.localPath)
	repo, err = cloneInto(ctx, r.repositoryURI, r.localPath, r.creds)
	return repo, scenario, err
}

// ready installs the ignore rules and checks that a branch is checked out, so
// that pushes have a branch to update on the remote.
func (r *Reconciler) ready(repo *gitsync.Repository) error {
	repo.AddTransientIgnore(r.ignore...)

	branch, tip, err := repo.Head()
	if err != nil {
		return fmt.Errorf("resolve HEAD of %v: %w", r.localPath, err)
	}

	if branch == plumbing.HEAD {
		return fmt.Errorf("%w: %v at %v", ErrDetachedHead, r.localPath, tip)
	}

	r.log.Infof("Repository %v ready on branch %v at %v.", r.localPath, branch.Short(), tip)
	return nil
}

// checkRemote verifies that an existing repository pushes to the configured
// remote.
func (r *Reconciler) checkRemote(repo *gitsync.Repository) error {
	url, err := repo.RemoteURL(gitsync.RemoteName)
	if err != nil {
		return fmt.Errorf("%w: %v: %w", ErrRemoteMismatch, r.localPath, err)
	}

	if url != r.repositoryURI {
		return fmt.Errorf("%w: %v has %s %q, configured %q", ErrRemoteMismatch, r.localPath, gitsync.RemoteName, url, r.repositoryURI)
	}

	return nil
}
