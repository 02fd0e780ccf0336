// Package gitlibtest builds throwaway git repositories for tests.
package gitlibtest

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/exhume/pkg/gitlib"
)

// commitStep is how far the fixture clock advances between commits.
const commitStep = time.Minute

// Repo is a non-bare repository in a temporary directory with a deterministic clock.
type Repo struct {
	t      testing.TB
	Path   string
	native *git2go.Repository
	clock  time.Time
}

// NewRepo initializes an empty repository that is freed when the test ends.
func NewRepo(t testing.TB) *Repo {
	t.Helper()

	dir := t.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return &Repo{
		t:      t,
		Path:   dir,
		native: repo,
		clock:  time.Date(2020, time.January, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Write creates or overwrites a file in the working tree and stages it.
func (r *Repo) Write(name, content string) {
	r.t.Helper()

	r.WriteBytes(name, []byte(content))
}

// WriteBytes is Write for binary content.
func (r *Repo) WriteBytes(name string, data []byte) {
	r.t.Helper()

	path := filepath.Join(r.Path, filepath.FromSlash(name))

	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(r.t, os.WriteFile(path, data, 0o644))

	r.withIndex(func(index *git2go.Index) error {
		return index.AddByPath(name)
	})
}

// Remove deletes a file from the working tree and the index.
func (r *Repo) Remove(name string) {
	r.t.Helper()

	require.NoError(r.t, os.Remove(filepath.Join(r.Path, filepath.FromSlash(name))))

	r.withIndex(func(index *git2go.Index) error {
		return index.RemoveByPath(name)
	})
}

// Gitlink stages a submodule entry pointing at target without touching the working tree.
func (r *Repo) Gitlink(name string, target gitlib.Hash) {
	r.t.Helper()

	r.withIndex(func(index *git2go.Index) error {
		return index.Add(&git2go.IndexEntry{
			Mode: git2go.FilemodeCommit,
			Id:   target.ToOid(),
			Path: name,
		})
	})
}

// Unstage removes an entry from the index only.
func (r *Repo) Unstage(name string) {
	r.t.Helper()

	r.withIndex(func(index *git2go.Index) error {
		return index.RemoveByPath(name)
	})
}

// Commit records the index as a new commit on HEAD, one clock step after the previous one.
func (r *Repo) Commit(message string) gitlib.Hash {
	r.t.Helper()

	r.clock = r.clock.Add(commitStep)

	return r.CommitAt(message, r.clock)
}

// CommitAt records the index as a new commit on HEAD with the given timestamp.
func (r *Repo) CommitAt(message string, when time.Time) gitlib.Hash {
	r.t.Helper()

	index, err := r.native.Index()
	require.NoError(r.t, err)

	defer index.Free()

	treeID, err := index.WriteTree()
	require.NoError(r.t, err)

	tree, err := r.native.LookupTree(treeID)
	require.NoError(r.t, err)

	defer tree.Free()

	sig := &git2go.Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  when,
	}

	var parents []*git2go.Commit

	head, err := r.native.Head()
	if err == nil {
		headCommit, lookupErr := r.native.LookupCommit(head.Target())
		require.NoError(r.t, lookupErr)

		parents = append(parents, headCommit)

		head.Free()
	}

	oid, err := r.native.CreateCommit("HEAD", sig, sig, message, tree, parents...)
	require.NoError(r.t, err)

	for _, parent := range parents {
		parent.Free()
	}

	return gitlib.HashFromOid(oid)
}

// Branch creates (or moves) refs/heads/name to point at target.
func (r *Repo) Branch(name string, target gitlib.Hash) {
	r.t.Helper()

	ref, err := r.native.References.Create("refs/heads/"+name, target.ToOid(), true, "branch "+name)
	require.NoError(r.t, err)

	ref.Free()
}

// ResetHead moves the branch HEAD points at to target, leaving the index untouched.
func (r *Repo) ResetHead(target gitlib.Hash) {
	r.t.Helper()

	head, err := r.native.Head()
	require.NoError(r.t, err)

	defer head.Free()

	moved, err := head.SetTarget(target.ToOid(), "reset")
	require.NoError(r.t, err)

	moved.Free()
}

// TreeOf returns the root tree id of a commit.
func (r *Repo) TreeOf(commit gitlib.Hash) gitlib.Hash {
	r.t.Helper()

	c, err := r.native.LookupCommit(commit.ToOid())
	require.NoError(r.t, err)

	defer c.Free()

	return gitlib.HashFromOid(c.TreeId())
}

// DropObject deletes a loose object from the object store, leaving dangling
// references to it. Repositories opened afterwards fail to read it.
func (r *Repo) DropObject(id gitlib.Hash) {
	r.t.Helper()

	name := id.String()
	path := filepath.Join(r.Path, ".git", "objects", name[:2], name[2:])

	require.NoError(r.t, os.Remove(path))
}

func (r *Repo) withIndex(fn func(index *git2go.Index) error) {
	r.t.Helper()

	index, err := r.native.Index()
	require.NoError(r.t, err)

	defer index.Free()

	require.NoError(r.t, fn(index))
	require.NoError(r.t, index.Write())
}

// Hash parses a full hex object id.
func Hash(t testing.TB, hexID string) gitlib.Hash {
	t.Helper()

	raw, err := hex.DecodeString(hexID)
	require.NoError(t, err)

	var h gitlib.Hash

	require.Len(t, raw, len(h))
	copy(h[:], raw)

	return h
}
