// Package gitlib provides a thin interface over libgit2 for walking history,
// diffing trees and reading blobs.
package gitlib

import (
	"encoding/hex"

	git2go "github.com/libgit2/git2go/v34"
)

// ShortHashSize is the number of hex digits in an abbreviated hash.
const ShortHashSize = 7

// Hash is a git object id (SHA-1).
type Hash [20]byte

// HashFromOid converts a libgit2 Oid to Hash. A nil Oid yields the zero hash.
func HashFromOid(oid *git2go.Oid) Hash {
	var h Hash
	if oid != nil {
		copy(h[:], oid[:])
	}

	return h
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the abbreviated form shown in listings.
func (h Hash) Short() string {
	return h.String()[:ShortHashSize]
}

// ToOid converts the hash back to a libgit2 Oid.
func (h Hash) ToOid() *git2go.Oid {
	oid := new(git2go.Oid)
	copy(oid[:], h[:])

	return oid
}
