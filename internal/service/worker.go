package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/confsync/confsync/internal/gitsync"
	"github.com/confsync/confsync/internal/logging"
	"github.com/confsync/confsync/internal/metrics"
)

const (
	// CommitMessage is used for every commit the worker creates.
	CommitMessage = "Automatic commit from addon"

	// Name is the committer name of every commit the worker creates.
	Name = "confsync"
)

var defaultInterval = 300 * time.Second

// Repository is the part of an open repository the sync worker drives.
type Repository interface {
	Status() (gitsync.ChangeSet, error)
	StageAll() (gitsync.ChangeSet, error)
	Commit(message string, author, committer gitsync.Signature) (plumbing.Hash, error)
	Push(ctx context.Context) error
}

// Step names a stage of a sync iteration.
type Step int

const (
	StepStatus Step = iota
	StepStage
	StepCommit
	StepPush
)

func (s Step) String() string {
	switch s {
	case StepStatus:
		return "status"
	case StepStage:
		return "stage"
	case StepCommit:
		return "commit"
	case StepPush:
		return "push"
	}
	return "unknown"
}

// StepError reports the step a sync iteration failed in.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("sync %v: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Result describes a completed sync iteration. Commit is the zero hash when
// the working tree was clean.
type Result struct {
	Changes gitsync.ChangeSet
	Commit  plumbing.Hash
}

// SyncWorker commits and pushes every change of the working tree it owns, once
// per interval. Iterations never overlap.
type SyncWorker struct {
	repo      Repository
	interval  time.Duration
	author    gitsync.Signature
	committer gitsync.Signature
	log       *logging.Logger
}

func NewSyncWorker(repo Repository, logger *logging.Logger) *SyncWorker {
	return &SyncWorker{
		repo:      repo,
		interval:  defaultInterval,
		author:    gitsync.Signature{Name: Name},
		committer: gitsync.Signature{Name: Name},
		log:       logger,
	}
}

func (w *SyncWorker) WithInterval(d time.Duration) *SyncWorker {
	w.interval = cmp.Or(d, defaultInterval)
	return w
}

// WithIdentity sets the commit author. The committer is always Name with the
// same email.
func (w *SyncWorker) WithIdentity(name, email string) *SyncWorker {
	w.author = gitsync.Signature{Name: cmp.Or(name, Name), Email: email}
	w.committer = gitsync.Signature{Name: Name, Email: email}
	return w
}

// Run sleeps for the interval and executes an iteration, until ctx is
// cancelled or an iteration fails. Cancellation is not an error.
func (w *SyncWorker) Run(ctx context.Context) error {
	w.log.Infof("Checking for changes every %v.", w.interval)

	timer := time.NewTimer(w.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		if _, err := w.Execute(ctx); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return nil
			}
			return err
		}

		timer.Reset(w.interval)
	}
}

// Execute runs a single iteration: status, and for a dirty working tree stage,
// commit and push. A failed push leaves the commit in place.
func (w *SyncWorker) Execute(ctx context.Context) (Result, error) {
	startTime := time.Now()

	changes, err := w.repo.Status()
	if err != nil {
		return Result{}, w.fail(StepStatus, startTime, err)
	}

	if changes.Empty() {
		w.log.Debugf("No changes.")
		metrics.SyncSucceeded(startTime, 0, false)
		return Result{}, nil
	}

	w.log.Infof("Found %d changed paths.", len(changes))

	staged, err := w.repo.StageAll()
	if err != nil {
		return Result{}, w.fail(StepStage, startTime, err)
	}

	if staged.Empty() {
		w.log.Infof("Nothing staged, skipping commit.")
		metrics.SyncSucceeded(startTime, 0, false)
		return Result{}, nil
	}

	for _, c := range staged {
		w.log.Infof("Staged %v: %v", c.Kind, c.Path)
	}

	hash, err := w.repo.Commit(CommitMessage, w.author, w.committer)
	if err != nil {
		return Result{Changes: staged}, w.fail(StepCommit, startTime, err)
	}

	w.log.Infof("Created commit %v.", hash)

	result := Result{Changes: staged, Commit: hash}

	if err := w.repo.Push(ctx); err != nil {
		return result, w.fail(StepPush, startTime, err)
	}

	w.log.Infof("Pushed commit %v.", hash)
	metrics.SyncSucceeded(startTime, len(staged), true)

	return result, nil
}

func (w *SyncWorker) fail(step Step, startTime time.Time, err error) error {
	metrics.SyncFailedAt(step.String(), startTime)
	w.log.Warnf("Sync failed at %v: %v", step, err)
	return &StepError{Step: step, Err: err}
}
