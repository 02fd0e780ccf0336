package gitlib_test

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/exhume/pkg/gitlib"
	"github.com/Sumatoshi-tech/exhume/pkg/gitlib/gitlibtest"
)

func openFixture(t *testing.T, fixture *gitlibtest.Repo) *gitlib.Repository {
	t.Helper()

	repo, err := gitlib.OpenRepository(fixture.Path)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return repo
}

func TestOpenRepository(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	fixture.Write("a.txt", "a")
	head := fixture.Commit("initial")

	repo := openFixture(t, fixture)

	commit, err := repo.LookupCommit(head)
	require.NoError(t, err)

	defer commit.Free()

	assert.Equal(t, head, commit.Hash())
}

func TestOpenRepositoryNotFound(t *testing.T) {
	t.Parallel()

	repo, err := gitlib.OpenRepository("/nonexistent/path/to/repo")

	assert.Nil(t, repo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open repository")
}

func TestRepositoryFreeTwice(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	fixture.Write("x.txt", "x")
	fixture.Commit("init")

	repo, err := gitlib.OpenRepository(fixture.Path)
	require.NoError(t, err)

	repo.Free()
	repo.Free()
}

func TestCommitAccessors(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	fixture.Write("a.txt", "a")

	when := time.Date(2021, time.March, 4, 5, 6, 7, 0, time.UTC)
	first := fixture.CommitAt("first", when)

	fixture.Write("b.txt", "b")
	second := fixture.Commit("second")

	repo := openFixture(t, fixture)

	commit, err := repo.LookupCommit(second)
	require.NoError(t, err)

	defer commit.Free()

	assert.Equal(t, second, commit.Hash())
	assert.Equal(t, 1, commit.NumParents())

	parent, err := commit.Parent(0)
	require.NoError(t, err)

	defer parent.Free()

	assert.Equal(t, first, parent.Hash())
	assert.True(t, parent.When().Equal(when))
	assert.Equal(t, 0, parent.NumParents())
}

func TestParentNotFound(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	fixture.Write("a.txt", "a")
	root := fixture.Commit("root")

	repo := openFixture(t, fixture)

	commit, err := repo.LookupCommit(root)
	require.NoError(t, err)

	defer commit.Free()

	parent, err := commit.Parent(0)
	assert.Nil(t, parent)
	require.ErrorIs(t, err, gitlib.ErrParentNotFound)
}

func TestAllCommitsNewestFirst(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)

	var hashes []gitlib.Hash

	for _, name := range []string{"1.txt", "2.txt", "3.txt"} {
		fixture.Write(name, name)
		hashes = append(hashes, fixture.Commit("add "+name))
	}

	repo := openFixture(t, fixture)

	commits, err := gitlib.AllCommits(repo)
	require.NoError(t, err)

	defer gitlib.FreeCommits(commits)

	require.Len(t, commits, 3)
	assert.Equal(t, hashes[2], commits[0].Hash())
	assert.Equal(t, hashes[1], commits[1].Hash())
	assert.Equal(t, hashes[0], commits[2].Hash())
}

func TestAllCommitsFollowsEveryReference(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	fixture.Write("a.txt", "a")
	first := fixture.Commit("first")

	fixture.Write("b.txt", "b")
	second := fixture.Commit("second")

	// Keep the second commit reachable only through a side branch.
	fixture.Branch("side", second)
	fixture.ResetHead(first)

	repo := openFixture(t, fixture)

	commits, err := gitlib.AllCommits(repo)
	require.NoError(t, err)

	defer gitlib.FreeCommits(commits)

	got := make([]gitlib.Hash, 0, len(commits))
	for _, c := range commits {
		got = append(got, c.Hash())
	}

	assert.ElementsMatch(t, []gitlib.Hash{first, second}, got)
}

func TestAllCommitsEmptyRepository(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	repo := openFixture(t, fixture)

	commits, err := gitlib.AllCommits(repo)
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestCommitIterNext(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	fixture.Write("a.txt", "a")
	fixture.Commit("first")
	fixture.Write("b.txt", "b")
	fixture.Commit("second")

	repo := openFixture(t, fixture)

	iter, err := repo.Log()
	require.NoError(t, err)

	count := 0

	for {
		commit, nextErr := iter.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}

		require.NoError(t, nextErr)
		commit.Free()

		count++
	}

	assert.Equal(t, 2, count)

	iter.Close()
	iter.Close()
}

func TestTreeDiffClassifiesChanges(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	fixture.Write("unchanged.txt", "unchanged")
	fixture.Write("modified.txt", "original")
	fixture.Write("dir/deleted.txt", "to delete")
	first := fixture.Commit("first")

	fixture.Write("modified.txt", "modified")
	fixture.Write("added.txt", "new file")
	fixture.Remove("dir/deleted.txt")
	second := fixture.Commit("second")

	repo := openFixture(t, fixture)
	oldTree, newTree := commitTrees(t, repo, first, second)

	changes, err := gitlib.TreeDiff(repo, oldTree, newTree)
	require.NoError(t, err)

	actions := map[string]gitlib.ChangeAction{}

	for _, change := range changes {
		name := change.To.Name
		if change.Action == gitlib.Delete {
			name = change.From.Name
		}

		actions[name] = change.Action
	}

	assert.Equal(t, map[string]gitlib.ChangeAction{
		"modified.txt":    gitlib.Modify,
		"added.txt":       gitlib.Insert,
		"dir/deleted.txt": gitlib.Delete,
	}, actions)

	deletions := changes.Deletions()
	require.Len(t, deletions, 1)
	assert.Equal(t, "dir/deleted.txt", deletions[0].From.Name)
	assert.NotEqual(t, gitlib.Hash{}, deletions[0].From.Hash)
}

func TestTreeDiffRenameIsNotDeletion(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	fixture.Write("original.txt", "some content that is long enough to be similar\n")
	first := fixture.Commit("first")

	fixture.Remove("original.txt")
	fixture.Write("renamed.txt", "some content that is long enough to be similar\n")
	second := fixture.Commit("second")

	repo := openFixture(t, fixture)
	oldTree, newTree := commitTrees(t, repo, first, second)

	changes, err := gitlib.TreeDiff(repo, oldTree, newTree)
	require.NoError(t, err)

	require.Len(t, changes, 1)
	assert.Equal(t, gitlib.Modify, changes[0].Action)
	assert.Equal(t, "original.txt", changes[0].From.Name)
	assert.Equal(t, "renamed.txt", changes[0].To.Name)
	assert.Empty(t, changes.Deletions())
}

func TestTreeDiffSameTree(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	fixture.Write("a.txt", "a")
	first := fixture.Commit("first")
	second := fixture.Commit("metadata only")

	repo := openFixture(t, fixture)
	oldTree, newTree := commitTrees(t, repo, first, second)

	changes, err := gitlib.TreeDiff(repo, oldTree, newTree)
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestTreeBlobAt(t *testing.T) {
	t.Parallel()

	fixture := gitlibtest.NewRepo(t)
	fixture.Write("docs/readme.txt", "hello blob")
	head := fixture.Commit("docs")

	repo := openFixture(t, fixture)

	commit, err := repo.LookupCommit(head)
	require.NoError(t, err)

	defer commit.Free()

	tree, err := commit.Tree()
	require.NoError(t, err)

	defer tree.Free()

	blob, err := tree.BlobAt("docs/readme.txt")
	require.NoError(t, err)

	defer blob.Free()

	assert.Equal(t, int64(len("hello blob")), blob.Size())
	assert.Equal(t, []byte("hello blob"), blob.Contents())

	_, err = tree.BlobAt("docs")
	require.ErrorIs(t, err, gitlib.ErrNotBlob)

	_, err = tree.BlobAt("missing.txt")
	require.Error(t, err)
}

func TestIsRemoteURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		uri  string
		want bool
	}{
		{uri: "https://github.com/owner/repo.git", want: true},
		{uri: "file:///tmp/repo", want: true},
		{uri: "git@github.com:owner/repo.git", want: true},
		{uri: "./local/repo", want: false},
		{uri: "/abs/path", want: false},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, gitlib.IsRemoteURI(tc.uri), tc.uri)
	}
}

func commitTrees(t *testing.T, repo *gitlib.Repository, oldHash, newHash gitlib.Hash) (*gitlib.Tree, *gitlib.Tree) {
	t.Helper()

	trees := make([]*gitlib.Tree, 0, 2)

	for _, h := range []gitlib.Hash{oldHash, newHash} {
		commit, err := repo.LookupCommit(h)
		require.NoError(t, err)

		tree, err := commit.Tree()
		commit.Free()
		require.NoError(t, err)

		t.Cleanup(tree.Free)

		trees = append(trees, tree)
	}

	return trees[0], trees[1]
}
