// Package wildcard implements the `?`/`*` pattern matching used by
// find/find_file (spec §4.5, §6), grounded on the teacher's use of
// doublestar for fast path-pattern matching (internal/indexing/pipeline_types.go).
package wildcard

import "github.com/bmatcuk/doublestar/v4"

// Match reports whether name matches pattern with doublestar's path-aware
// rules: `?` matches exactly one rune other than `/`, `*` matches any run
// (including none) of runes other than `/`, and `**` as a path component
// matches across `/` separators. Words never contain `/`, so for find the
// first two rules are all that apply; find_file names are root-relative
// paths, where `*` stops at each directory boundary. An unparseable
// pattern matches nothing.
func Match(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	if err != nil {
		return false
	}
	return ok
}
