package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/google/go-cmp/cmp"

	"github.com/confsync/confsync/internal/gitsync"
	"github.com/confsync/confsync/internal/gitsync/gitsynctest"
	"github.com/confsync/confsync/internal/logging"
	"github.com/confsync/confsync/internal/reconcile"
)

type fakeRepository struct {
	changes   gitsync.ChangeSet
	staged    gitsync.ChangeSet
	statusErr error
	stageErr  error
	commitErr error
	pushErr   error

	calls   []string
	commits []fakeCommit
}

type fakeCommit struct {
	Message   string
	Author    gitsync.Signature
	Committer gitsync.Signature
}

func (f *fakeRepository) Status() (gitsync.ChangeSet, error) {
	f.calls = append(f.calls, "status")
	return f.changes, f.statusErr
}

func (f *fakeRepository) StageAll() (gitsync.ChangeSet, error) {
	f.calls = append(f.calls, "stage")
	if f.staged != nil {
		return f.staged, f.stageErr
	}
	return f.changes, f.stageErr
}

func (f *fakeRepository) Commit(message string, author, committer gitsync.Signature) (plumbing.Hash, error) {
	f.calls = append(f.calls, "commit")
	if f.commitErr != nil {
		return plumbing.ZeroHash, f.commitErr
	}
	f.commits = append(f.commits, fakeCommit{Message: message, Author: author, Committer: committer})
	f.changes = nil
	return plumbing.NewHash("0123456789abcdef0123456789abcdef01234567"), nil
}

func (f *fakeRepository) Push(context.Context) error {
	f.calls = append(f.calls, "push")
	return f.pushErr
}

func TestExecute(t *testing.T) {
	boom := errors.New("boom")
	changes := gitsync.ChangeSet{{Path: "a.yaml", Kind: gitsync.Added}}

	tests := []struct {
		note     string
		repo     *fakeRepository
		expCalls []string
		expStep  Step
		expErr   bool
	}{
		{
			note:     "clean",
			repo:     &fakeRepository{},
			expCalls: []string{"status"},
		},
		{
			note:     "dirty",
			repo:     &fakeRepository{changes: changes},
			expCalls: []string{"status", "stage", "commit", "push"},
		},
		{
			note:     "nothing staged",
			repo:     &fakeRepository{changes: changes, staged: gitsync.ChangeSet{}},
			expCalls: []string{"status", "stage"},
		},
		{
			note:     "status failure",
			repo:     &fakeRepository{statusErr: boom},
			expCalls: []string{"status"},
			expStep:  StepStatus,
			expErr:   true,
		},
		{
			note:     "stage failure",
			repo:     &fakeRepository{changes: changes, stageErr: boom},
			expCalls: []string{"status", "stage"},
			expStep:  StepStage,
			expErr:   true,
		},
		{
			note:     "commit failure",
			repo:     &fakeRepository{changes: changes, commitErr: boom},
			expCalls: []string{"status", "stage", "commit"},
			expStep:  StepCommit,
			expErr:   true,
		},
		{
			note:     "push failure",
			repo:     &fakeRepository{changes: changes, pushErr: boom},
			expCalls: []string{"status", "stage", "commit", "push"},
			expStep:  StepPush,
			expErr:   true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.note, func(t *testing.T) {
			w := NewSyncWorker(tc.repo, logging.NewNop())

			_, err := w.Execute(context.Background())
			if tc.expErr {
				var stepErr *StepError
				if !errors.As(err, &stepErr) || stepErr.Step != tc.expStep || !errors.Is(err, boom) {
					t.Fatalf("expected failure at %v, got %v", tc.expStep, err)
				}
			} else if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(tc.expCalls, tc.repo.calls); diff != "" {
				t.Fatalf("unexpected calls (-want,+got):\n%s", diff)
			}
		})
	}
}

func TestExecuteIdentity(t *testing.T) {
	repo := &fakeRepository{changes: gitsync.ChangeSet{{Path: "a.yaml", Kind: gitsync.Modified}}}

	w := NewSyncWorker(repo, logging.NewNop()).WithIdentity("Jane", "jane@example.com")
	if _, err := w.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	exp := []fakeCommit{{
		Message:   "Automatic commit from addon",
		Author:    gitsync.Signature{Name: "Jane", Email: "jane@example.com"},
		Committer: gitsync.Signature{Name: "confsync", Email: "jane@example.com"},
	}}
	if diff := cmp.Diff(exp, repo.commits); diff != "" {
		t.Fatalf("unexpected commits (-want,+got):\n%s", diff)
	}
}

func TestRunStopsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	repo := &fakeRepository{changes: gitsync.ChangeSet{{Path: "a.yaml", Kind: gitsync.Added}}, pushErr: boom}

	w := NewSyncWorker(repo, logging.NewNop()).WithInterval(time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := w.Run(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}

	if len(repo.commits) != 1 {
		t.Fatalf("expected exactly one commit, got %d", len(repo.commits))
	}
}

func TestRunCancelled(t *testing.T) {
	repo := &fakeRepository{}
	w := NewSyncWorker(repo, logging.NewNop()).WithInterval(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := w.Run(ctx); err != nil {
		t.Fatal(err)
	}

	if len(repo.calls) != 0 {
		t.Fatalf("expected no calls before the first interval, got %v", repo.calls)
	}
}

func TestExecuteAgainstRepository(t *testing.T) {
	ctx := context.Background()
	remote := gitsynctest.NewRemote(t)
	local := filepath.Join(t.TempDir(), "esphome")

	repo, err := reconcile.New(remote, local).
		WithIgnorePatterns([]string{"trash/"}).
		Reconcile(ctx)
	if err != nil {
		t.Fatal(err)
	}

	w := NewSyncWorker(repo, logging.NewNop()).WithIdentity("Jane", "jane@example.com")

	result, err := w.Execute(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Commit.IsZero() || gitsynctest.CommitCount(t, local) != 0 {
		t.Fatalf("expected no commit for a clean tree, got %v", result.Commit)
	}

	gitsynctest.WriteFiles(t, local, map[string]string{"kitchen.yaml": "esphome: {}", "trash/old.yaml": "old"})

	result, err = w.Execute(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"kitchen.yaml"}, result.Changes.Paths()); diff != "" {
		t.Fatalf("unexpected staged paths (-want,+got):\n%s", diff)
	}
	if n := gitsynctest.CommitCount(t, local); n != 1 {
		t.Fatalf("expected one commit, got %d", n)
	}

	commit, err := repo.Underlying().CommitObject(result.Commit)
	if err != nil {
		t.Fatal(err)
	}
	if commit.Author.Name != "Jane" || commit.Author.Email != "jane@example.com" ||
		commit.Committer.Name != "confsync" || commit.Committer.Email != "jane@example.com" {
		t.Fatalf("unexpected identities: author %v, committer %v", commit.Author, commit.Committer)
	}
	if commit.Message != CommitMessage {
		t.Fatalf("unexpected message %q", commit.Message)
	}

	if got, ok := gitsynctest.RemoteRef(t, remote, "main"); !ok || got != result.Commit {
		t.Fatalf("expected remote main at %v, got %v", result.Commit, got)
	}
}

func TestExecutePushFailureKeepsCommit(t *testing.T) {
	local := t.TempDir()

	repo, err := gitsync.Init(local, filepath.Join(t.TempDir(), "missing.git"))
	if err != nil {
		t.Fatal(err)
	}

	gitsynctest.WriteFiles(t, local, map[string]string{"a.yaml": "a"})

	result, err := NewSyncWorker(repo, logging.NewNop()).Execute(context.Background())

	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != StepPush {
		t.Fatalf("expected push failure, got %v", err)
	}

	if n := gitsynctest.CommitCount(t, local); n != 1 {
		t.Fatalf("expected the commit to remain, got %d commits", n)
	}

	_, tip, err := repo.Head()
	if err != nil {
		t.Fatal(err)
	}
	if tip != result.Commit {
		t.Fatalf("expected tip %v, got %v", result.Commit, tip)
	}
}

func TestExecuteIgnoredTrackedChange(t *testing.T) {
	ctx := context.Background()
	remote := gitsynctest.NewSeededRemote(t, map[string]string{"kitchen.yaml": "v1", "trash/old.yaml": "v1"})
	local := filepath.Join(t.TempDir(), "esphome")

	repo, err := reconcile.New(remote, local).
		WithIgnorePatterns([]string{"trash/"}).
		Reconcile(ctx)
	if err != nil {
		t.Fatal(err)
	}

	w := NewSyncWorker(repo, logging.NewNop())
	gitsynctest.WriteFiles(t, local, map[string]string{"trash/old.yaml": "v2"})

	for i := range 2 {
		result, err := w.Execute(ctx)
		if err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
		if !result.Commit.IsZero() {
			t.Fatalf("iteration %d: expected no commit, got %v", i, result.Commit)
		}
	}

	if n := gitsynctest.CommitCount(t, local); n != 1 {
		t.Fatalf("expected only the seed commit, got %d commits", n)
	}

	gitsynctest.WriteFiles(t, local, map[string]string{"kitchen.yaml": "v2"})

	result, err := w.Execute(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"kitchen.yaml"}, result.Changes.Paths()); diff != "" {
		t.Fatalf("unexpected staged paths (-want,+got):\n%s", diff)
	}
	if got, _ := gitsynctest.RemoteRef(t, remote, "main"); got != result.Commit {
		t.Fatalf("expected remote main at %v, got %v", result.Commit, got)
	}
}
