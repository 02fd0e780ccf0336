package gitlib

import (
	"errors"
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrNotBlob is returned when a tree path resolves to something other than a file.
var ErrNotBlob = errors.New("tree entry is not a blob")

// Tree wraps a libgit2 tree.
type Tree struct {
	tree *git2go.Tree
	repo *Repository
}

// Hash returns the tree hash.
func (t *Tree) Hash() Hash {
	return HashFromOid(t.tree.Id())
}

// BlobAt loads the blob stored at path. Submodule links and directories yield [ErrNotBlob].
func (t *Tree) BlobAt(path string) (*Blob, error) {
	entry, err := t.tree.EntryByPath(path)
	if err != nil {
		return nil, fmt.Errorf("entry by path: %w", err)
	}

	if entry.Type != git2go.ObjectBlob {
		return nil, fmt.Errorf("%w: %s", ErrNotBlob, path)
	}

	return t.repo.LookupBlob(HashFromOid(entry.Id))
}

// Free releases the tree resources.
func (t *Tree) Free() {
	if t.tree != nil {
		t.tree.Free()
		t.tree = nil
	}
}
