package pipeline

import "github.com/cespare/xxhash/v2"

// knownSnapshot is the walker's point-in-time copy of already-indexed
// names (spec §4.6 Idle->Walking transition), keyed by a fast 64-bit hash
// rather than the string itself — snapshots can hold hundreds of
// thousands of entries and are rebuilt on every WalkTree.
type knownSnapshot map[uint64]struct{}

func newKnownSnapshot(names []string) knownSnapshot {
	s := make(knownSnapshot, len(names))
	for _, n := range names {
		s[xxhash.Sum64String(n)] = struct{}{}
	}
	return s
}

func (s knownSnapshot) has(name string) bool {
	_, ok := s[xxhash.Sum64String(name)]
	return ok
}
