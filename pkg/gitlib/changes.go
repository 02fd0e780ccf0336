package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// ChangeAction represents the type of change in a diff.
type ChangeAction int

const (
	// Insert indicates a new file was added.
	Insert ChangeAction = iota
	// Delete indicates a file was removed.
	Delete
	// Modify indicates a file was modified, renamed or copied.
	Modify
)

// Change represents a single file change between two trees.
type Change struct {
	Action ChangeAction
	From   ChangeEntry
	To     ChangeEntry
}

// ChangeEntry represents one side of a change (old or new file).
type ChangeEntry struct {
	Name string
	Hash Hash
	Size int64
}

// Changes is a collection of Change objects.
type Changes []*Change

// Deletions returns only the changes that removed a file.
func (c Changes) Deletions() Changes {
	out := make(Changes, 0, len(c))

	for _, change := range c {
		if change.Action == Delete {
			out = append(out, change)
		}
	}

	return out
}

// TreeDiff computes the changes between two trees using libgit2.
// Skips diff when both tree OIDs are equal (e.g. metadata-only commits).
func TreeDiff(repo *Repository, oldTree, newTree *Tree) (Changes, error) {
	if oldTree != nil && newTree != nil && oldTree.Hash() == newTree.Hash() {
		return make(Changes, 0), nil
	}

	diff, err := repo.DiffTreeToTree(oldTree, newTree)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}
	defer diff.Free()

	numDeltas, numErr := diff.NumDeltas()
	if numErr != nil {
		return nil, fmt.Errorf("get num deltas: %w", numErr)
	}

	changes := make(Changes, 0, numDeltas)

	for i := range numDeltas {
		delta, deltaErr := diff.Delta(i)
		if deltaErr != nil {
			continue
		}

		change := &Change{}

		switch delta.Status {
		case git2go.DeltaAdded:
			change.Action = Insert
			change.To = changeEntry(delta.NewFile)
		case git2go.DeltaDeleted:
			change.Action = Delete
			change.From = changeEntry(delta.OldFile)
		case git2go.DeltaModified, git2go.DeltaRenamed, git2go.DeltaCopied, git2go.DeltaTypeChange:
			change.Action = Modify
			change.From = changeEntry(delta.OldFile)
			change.To = changeEntry(delta.NewFile)
		case git2go.DeltaUnmodified, git2go.DeltaIgnored, git2go.DeltaUntracked,
			git2go.DeltaUnreadable, git2go.DeltaConflicted:
			continue
		}

		changes = append(changes, change)
	}

	return changes, nil
}

func changeEntry(f DiffFile) ChangeEntry {
	return ChangeEntry{
		Name: f.Path,
		Hash: f.Hash,
		Size: f.Size,
	}
}
