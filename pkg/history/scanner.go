// Package history selects commits and scans them for deleted files.
package history

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"path"
	"time"

	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/exhume/pkg/gitlib"
)

// Deletion is one file removed by a commit, as it existed in the commit's first parent.
type Deletion struct {
	Commit    gitlib.Hash
	When      time.Time
	Path      string
	Ext       string
	Language  string
	Blob      gitlib.Hash
	Size      int64
	SizeKnown bool
}

// Stats counts what the last Scan visited.
type Stats struct {
	Commits   int
	Skipped   int
	Deletions int
	Filtered  int
}

// Scanner walks commits and yields the deletions that pass its Criteria.
type Scanner struct {
	repo     *gitlib.Repository
	criteria Criteria
	logger   *slog.Logger
	stats    Stats

	// OnCommit, when set, is called after each commit with the number visited so far.
	OnCommit func(done, total int)
}

// NewScanner creates a scanner over repo. A nil logger discards warnings.
func NewScanner(repo *gitlib.Repository, criteria Criteria, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Scanner{repo: repo, criteria: criteria, logger: logger}
}

// Stats returns the counters of the most recent Scan.
func (s *Scanner) Stats() Stats {
	return s.stats
}

// Scan yields deletions commit by commit, in the order commits are given.
// Root commits never yield. A commit that cannot be diffed is logged and skipped.
// The sequence stops early when ctx is done.
func (s *Scanner) Scan(ctx context.Context, commits []*gitlib.Commit) iter.Seq[Deletion] {
	return func(yield func(Deletion) bool) {
		s.stats = Stats{}

		for i, commit := range commits {
			if ctx.Err() != nil {
				return
			}

			deletions, err := s.commitDeletions(commit)
			if err != nil {
				s.stats.Skipped++
				s.logger.WarnContext(ctx, "skipping commit",
					"commit", commit.Hash().String(), "error", err)
			}

			s.stats.Commits++

			if s.OnCommit != nil {
				s.OnCommit(i+1, len(commits))
			}

			for _, deletion := range deletions {
				s.stats.Deletions++

				if !yield(deletion) {
					return
				}
			}
		}
	}
}

func (s *Scanner) commitDeletions(commit *gitlib.Commit) ([]Deletion, error) {
	if commit.NumParents() == 0 {
		return nil, nil
	}

	parent, err := commit.Parent(0)
	if err != nil {
		return nil, err
	}
	defer parent.Free()

	parentTree, err := parent.Tree()
	if err != nil {
		return nil, fmt.Errorf("parent tree: %w", err)
	}
	defer parentTree.Free()

	tree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	defer tree.Free()

	changes, err := gitlib.TreeDiff(s.repo, parentTree, tree)
	if err != nil {
		return nil, err
	}

	var out []Deletion

	for _, change := range changes.Deletions() {
		deletion, ok := s.admit(commit, parentTree, change.From)
		if !ok {
			s.stats.Filtered++

			continue
		}

		out = append(out, deletion)
	}

	return out, nil
}

// admit applies the extension, vendored and size filters in that order.
func (s *Scanner) admit(commit *gitlib.Commit, parentTree *gitlib.Tree, from gitlib.ChangeEntry) (Deletion, bool) {
	deletion := Deletion{
		Commit: commit.Hash(),
		When:   commit.When(),
		Path:   from.Name,
		Ext:    Ext(from.Name),
		Blob:   from.Hash,
	}

	if s.criteria.ExcludesExt(deletion.Ext) {
		return Deletion{}, false
	}

	if s.criteria.SkipVendored && enry.IsVendor(from.Name) {
		return Deletion{}, false
	}

	blob, err := parentTree.BlobAt(from.Name)
	if err == nil {
		deletion.Blob = blob.Hash()
		deletion.Size = blob.Size()
		deletion.SizeKnown = true

		blob.Free()
	}

	if deletion.SizeKnown && !s.criteria.AdmitsSize(deletion.Size) {
		return Deletion{}, false
	}

	deletion.Language = enry.GetLanguage(path.Base(from.Name), nil)

	return deletion, true
}
