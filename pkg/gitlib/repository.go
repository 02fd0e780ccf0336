package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// allRefsGlob matches every reference under refs/, the equivalent of `git rev-list --all`.
const allRefsGlob = "refs/*"

// Repository wraps a libgit2 repository.
type Repository struct {
	repo *git2go.Repository
}

// OpenRepository opens a git repository at the given path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo}, nil
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// LookupCommit returns the commit with the given hash.
func (r *Repository) LookupCommit(hash Hash) (*Commit, error) {
	commit, err := r.repo.LookupCommit(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup commit: %w", err)
	}

	return &Commit{commit: commit, repo: r}, nil
}

// LookupBlob returns the blob with the given hash.
func (r *Repository) LookupBlob(hash Hash) (*Blob, error) {
	blob, err := r.repo.LookupBlob(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup blob: %w", err)
	}

	return &Blob{blob: blob}, nil
}

// Walk creates a new revision walker with nothing pushed.
func (r *Repository) Walk() (*RevWalk, error) {
	walk, err := r.repo.Walk()
	if err != nil {
		return nil, fmt.Errorf("create revwalk: %w", err)
	}

	return &RevWalk{walk: walk, repo: r}, nil
}

// Log returns a commit iterator over every commit reachable from any reference,
// newest first.
func (r *Repository) Log() (*CommitIter, error) {
	walk, err := r.Walk()
	if err != nil {
		return nil, err
	}

	walk.Sorting(git2go.SortTime)

	err = walk.PushGlob(allRefsGlob)
	if err != nil {
		walk.Free()

		return nil, err
	}

	// A detached HEAD is not covered by refs/*. An unborn HEAD has nothing to push.
	_ = walk.PushHead()

	return &CommitIter{walk: walk}, nil
}

// DiffTreeToTree computes the diff between two trees. Renames are detected so that
// a moved file shows up as a rename rather than a delete and an add.
func (r *Repository) DiffTreeToTree(oldTree, newTree *Tree) (*Diff, error) {
	opts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("get diff options: %w", err)
	}

	var oldT, newT *git2go.Tree
	if oldTree != nil {
		oldT = oldTree.tree
	}

	if newTree != nil {
		newT = newTree.tree
	}

	diff, err := r.repo.DiffTreeToTree(oldT, newT, &opts)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	findOpts, err := git2go.DefaultDiffFindOptions()
	if err != nil {
		_ = diff.Free()

		return nil, fmt.Errorf("get diff find options: %w", err)
	}

	findOpts.Flags = git2go.DiffFindRenames

	err = diff.FindSimilar(&findOpts)
	if err != nil {
		_ = diff.Free()

		return nil, fmt.Errorf("find renames: %w", err)
	}

	return &Diff{diff: diff}, nil
}
