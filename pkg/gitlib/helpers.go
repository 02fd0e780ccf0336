package gitlib

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// scpLikeURI matches scp-style remotes such as git@github.com:owner/repo.git.
var scpLikeURI = regexp.MustCompile(`^[A-Za-z]\w*@[A-Za-z0-9][\w.]*:`)

// IsRemoteURI reports whether uri names a remote repository rather than a local path.
func IsRemoteURI(uri string) bool {
	return strings.Contains(uri, "://") || scpLikeURI.MatchString(uri)
}

// AllCommits loads every commit reachable from any reference, newest first.
// The caller owns the returned commits and must Free them.
func AllCommits(repository *Repository) ([]*Commit, error) {
	iter, err := repository.Log()
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}
	defer iter.Close()

	var commits []*Commit

	for {
		commit, nextErr := iter.Next()
		if errors.Is(nextErr, io.EOF) {
			break
		}

		if nextErr != nil {
			FreeCommits(commits)

			return nil, nextErr
		}

		commits = append(commits, commit)
	}

	return commits, nil
}

// FreeCommits releases every commit in the slice.
func FreeCommits(commits []*Commit) {
	for _, c := range commits {
		c.Free()
	}
}
