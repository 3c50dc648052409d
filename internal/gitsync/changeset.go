package gitsync

import (
	"slices"
	"strings"

	"github.com/go-git/go-git/v5"
)

type ChangeKind int

const (
	Added ChangeKind = iota
	Modified
	Deleted
	Renamed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	case Renamed:
		return "renamed"
	}
	return "unknown"
}

type Change struct {
	Path string
	Kind ChangeKind
}

// ChangeSet is the list of changed paths of a working tree, ordered by path.
type ChangeSet []Change

func (cs ChangeSet) Empty() bool {
	return len(cs) == 0
}

func (cs ChangeSet) Paths() []string {
	paths := make([]string, len(cs))
	for i := range cs {
		paths[i] = cs[i].Path
	}
	return paths
}

func (cs ChangeSet) String() string {
	var sb strings.Builder
	for i, c := range cs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.Kind.String())
		sb.WriteByte(' ')
		sb.WriteString(c.Path)
	}
	return sb.String()
}

// changeSetFromStatus converts a go-git status. With staged set, only index
// changes are reported; otherwise a path is reported if either the index or
// the worktree differs.
func changeSetFromStatus(s git.Status, staged bool) ChangeSet {
	var cs ChangeSet
	for path, fs := range s {
		code := fs.Staging
		switch {
		case staged && code == git.Untracked:
			continue
		case !staged && (code == git.Unmodified || code == git.Untracked):
			code = fs.Worktree
		}

		kind, ok := kindOf(code)
		if !ok {
			continue
		}

		cs = append(cs, Change{Path: path, Kind: kind})
	}

	slices.SortFunc(cs, func(a, b Change) int { return strings.Compare(a.Path, b.Path) })
	return cs
}

func kindOf(code git.StatusCode) (ChangeKind, bool) {
	switch code {
	case git.Untracked, git.Added, git.Copied:
		return Added, true
	case git.Modified, git.UpdatedButUnmerged:
		return Modified, true
	case git.Deleted:
		return Deleted, true
	case git.Renamed:
		return Renamed, true
	}
	return 0, false
}
