package gitlib

import (
	"time"
)

// TestCommit is a lightweight commit stand-in for code that only needs identity and
// timestamp, such as commit selection.
type TestCommit struct {
	hash Hash
	when time.Time
}

// NewTestCommit creates a new mock commit for testing.
func NewTestCommit(hash Hash, when time.Time) *TestCommit {
	return &TestCommit{hash: hash, when: when}
}

// Hash returns the commit hash.
func (m *TestCommit) Hash() Hash { return m.hash }

// When returns the commit timestamp.
func (m *TestCommit) When() time.Time { return m.when }
