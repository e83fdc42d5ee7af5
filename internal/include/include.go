// Package include implements the narrow file-resolution half of
// xacro:include (spec.md §4.3): glob expansion with deterministic
// ordering, optional-include tolerance, and parsing a resolved path
// into an xmlnode.Node. It deliberately knows nothing about the tree
// walker or scope/macro tables — those live in internal/walker, which
// calls back into this package rather than the other way around, so
// this package never needs the mutual recursion that forced the
// directive handlers into the walker's package.
package include

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/xacro-go/xacro/internal/xmlnode"
)

var globChars = regexp.MustCompile(`[*?\[]`)

// Resolve expands filenameSpec into the ordered list of files it
// names: a single file if it contains no glob metacharacters, or the
// sorted set of glob matches otherwise (spec.md §4.3's
// "get_include_files": "sorted(glob.glob(...))").
func Resolve(filenameSpec string) ([]string, error) {
	if !globChars.MatchString(filenameSpec) {
		return []string{filenameSpec}, nil
	}
	matches, err := filepath.Glob(filenameSpec)
	if err != nil {
		return nil, fmt.Errorf("include: invalid glob pattern %q: %w", filenameSpec, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Load parses the file at path into an xmlnode.Node tree.
func Load(path string) (*xmlnode.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return xmlnode.Parse(f)
}

// IsNotExist reports whether err indicates the file did not exist,
// the only condition under which `optional="true"` suppresses an
// include failure (spec.md §4.3).
func IsNotExist(err error) bool {
	return os.IsNotExist(err)
}
