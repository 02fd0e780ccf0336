package history

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// Filter errors.
var (
	ErrInvalidPercent   = errors.New("oldest-commit percentage must be between 1 and 100")
	ErrInvalidSizeRange = errors.New("minimum size is greater than maximum size")
	ErrNegativeSize     = errors.New("size bound must not be negative")
)

// MaxPercent is the upper bound of Criteria.OldestPercent.
const MaxPercent = 100

// ExtensionSet is a set of lower-cased extensions including the leading dot.
type ExtensionSet map[string]struct{}

// NewExtensionSet builds a set from the given extensions, lower-casing each one.
func NewExtensionSet(exts ...string) ExtensionSet {
	set := make(ExtensionSet, len(exts))

	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" {
			set[ext] = struct{}{}
		}
	}

	return set
}

// Contains reports whether ext is in the set. The lookup is case-insensitive.
func (s ExtensionSet) Contains(ext string) bool {
	if ext == "" {
		return false
	}

	_, ok := s[strings.ToLower(ext)]

	return ok
}

// LoadExtensions reads one extension per line from filePath. Blank lines are ignored.
// A missing file yields an empty set and no error.
func LoadExtensions(filePath string) (ExtensionSet, error) {
	file, err := os.Open(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return ExtensionSet{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("open extensions file: %w", err)
	}
	defer file.Close()

	var exts []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		exts = append(exts, scanner.Text())
	}

	err = scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("read extensions file %s: %w", filePath, err)
	}

	return NewExtensionSet(exts...), nil
}

// Ext returns the lower-cased extension of name's last path element, including the dot.
// Leading dots do not start an extension, so ".gitignore" has none.
func Ext(name string) string {
	base := strings.TrimLeft(path.Base(name), ".")

	idx := strings.LastIndexByte(base, '.')
	if idx < 0 {
		return ""
	}

	return strings.ToLower(base[idx:])
}

// Criteria selects which deletions survive the scan. Nil size bounds are disabled.
type Criteria struct {
	MinSize       *int64
	MaxSize       *int64
	ExcludedExts  ExtensionSet
	SkipVendored  bool
	OldestPercent int
}

// Validate checks bounds and the oldest-commit percentage.
func (c Criteria) Validate() error {
	if (c.MinSize != nil && *c.MinSize < 0) || (c.MaxSize != nil && *c.MaxSize < 0) {
		return ErrNegativeSize
	}

	if c.MinSize != nil && c.MaxSize != nil && *c.MinSize > *c.MaxSize {
		return fmt.Errorf("%w: %d > %d", ErrInvalidSizeRange, *c.MinSize, *c.MaxSize)
	}

	if c.OldestPercent < 0 || c.OldestPercent > MaxPercent {
		return fmt.Errorf("%w: got %d", ErrInvalidPercent, c.OldestPercent)
	}

	return nil
}

// ExcludesExt reports whether deletions with the given extension are dropped.
func (c Criteria) ExcludesExt(ext string) bool {
	return c.ExcludedExts.Contains(ext)
}

// AdmitsSize reports whether a resolved size lies inside the inclusive bounds.
func (c Criteria) AdmitsSize(size int64) bool {
	if c.MinSize != nil && size < *c.MinSize {
		return false
	}

	if c.MaxSize != nil && size > *c.MaxSize {
		return false
	}

	return true
}
