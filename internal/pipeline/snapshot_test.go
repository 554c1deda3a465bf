package pipeline

import "testing"

func TestKnownSnapshotHasExactMembership(t *testing.T) {
	s := newKnownSnapshot([]string{"a.txt", "dir/b.txt"})
	if !s.has("a.txt") {
		t.Error("expected a.txt to be known")
	}
	if !s.has("dir/b.txt") {
		t.Error("expected dir/b.txt to be known")
	}
	if s.has("c.txt") {
		t.Error("expected c.txt to be unknown")
	}
}

func TestKnownSnapshotEmpty(t *testing.T) {
	s := newKnownSnapshot(nil)
	if s.has("anything") {
		t.Error("expected an empty snapshot to report nothing as known")
	}
}
