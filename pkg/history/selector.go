package history

import (
	"bytes"
	"fmt"
	"slices"
	"time"

	"github.com/Sumatoshi-tech/exhume/pkg/gitlib"
)

// Dated is the part of a commit the selector needs.
type Dated interface {
	Hash() gitlib.Hash
	When() time.Time
}

// CutoffCount is the number of commits kept when scanning the oldest percent of n:
// max(1, floor(n*percent/100)), or 0 when n is 0.
func CutoffCount(n, percent int) int {
	if n <= 0 {
		return 0
	}

	return max(1, n*percent/MaxPercent)
}

// SelectOldest returns the oldest percent of commits, oldest first. Commits sharing a
// timestamp are ordered by hash. A percent of 0 returns commits unchanged.
func SelectOldest[C Dated](commits []C, percent int) ([]C, error) {
	if percent == 0 {
		return commits, nil
	}

	if percent < 0 || percent > MaxPercent {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPercent, percent)
	}

	sorted := slices.Clone(commits)
	slices.SortStableFunc(sorted, func(a, b C) int {
		if c := a.When().Compare(b.When()); c != 0 {
			return c
		}

		ah, bh := a.Hash(), b.Hash()

		return bytes.Compare(ah[:], bh[:])
	})

	return sorted[:CutoffCount(len(sorted), percent)], nil
}

// Selection holds the commits chosen for one scan.
type Selection struct {
	// Commits are the commits to scan, in visiting order.
	Commits []*gitlib.Commit
	// Total is the number of reachable commits before the cutoff.
	Total int

	loaded []*gitlib.Commit
}

// Select loads every reachable commit and applies the oldest-percent cutoff.
// The caller must Release the selection.
func Select(repo *gitlib.Repository, percent int) (*Selection, error) {
	all, err := gitlib.AllCommits(repo)
	if err != nil {
		return nil, fmt.Errorf("select commits: %w", err)
	}

	chosen, err := SelectOldest(all, percent)
	if err != nil {
		gitlib.FreeCommits(all)

		return nil, err
	}

	return &Selection{Commits: chosen, Total: len(all), loaded: all}, nil
}

// Release frees every commit loaded by Select, including those cut off.
func (s *Selection) Release() {
	gitlib.FreeCommits(s.loaded)
	s.loaded = nil
	s.Commits = nil
}
