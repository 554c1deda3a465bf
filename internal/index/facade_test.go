package index

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/standardbeagle/lciindex/internal/types"
)

func addFileWords(t *testing.T, f *Facade, name string, words ...string) types.FileId {
	t.Helper()
	id, err := f.AddFile(name)
	if err != nil {
		t.Fatalf("AddFile(%s): %v", name, err)
	}
	tmp := types.NewTmpWords(name)
	for _, w := range words {
		tmp.Add(w)
	}
	if err := f.Append(tmp, id); err != nil {
		t.Fatalf("Append(%s): %v", name, err)
	}
	return id
}

func TestFacadeFindIntersectsAcrossPatterns(t *testing.T) {
	dir := t.TempDir()
	f, err := Create(filepath.Join(dir, "idx"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	addFileWords(t, f, "a.txt", "apple", "banana")
	addFileWords(t, f, "b.txt", "apple", "cherry")
	addFileWords(t, f, "c.txt", "banana", "cherry")

	got, err := f.Find([]string{"apple"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	want := []string{"a.txt", "b.txt"}
	sort.Strings(got)
	if !equalStrings(got, want) {
		t.Errorf("Find(apple) = %v, want %v", got, want)
	}

	got, err = f.Find([]string{"apple", "banana"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !equalStrings(got, []string{"a.txt"}) {
		t.Errorf("Find(apple,banana) = %v, want [a.txt]", got)
	}
}

func TestFacadeFindWildcard(t *testing.T) {
	dir := t.TempDir()
	f, err := Create(filepath.Join(dir, "idx"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	addFileWords(t, f, "a.txt", "applesauce")
	addFileWords(t, f, "b.txt", "application")

	got, err := f.Find([]string{"appl*"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	sort.Strings(got)
	if !equalStrings(got, []string{"a.txt", "b.txt"}) {
		t.Errorf("Find(appl*) = %v", got)
	}
}

func TestFacadeRoundTripThroughWriteAndReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idx")

	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	addFileWords(t, f, "one.txt", "hello", "world")
	addFileWords(t, f, "two.txt", "hello", "there")
	if err := f.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()

	if !reopened.HaveFile("one.txt") || !reopened.HaveFile("two.txt") {
		t.Fatalf("expected both files present after reopen")
	}
	got, err := reopened.Find([]string{"hello"})
	if err != nil {
		t.Fatalf("Find after reopen: %v", err)
	}
	sort.Strings(got)
	if !equalStrings(got, []string{"one.txt", "two.txt"}) {
		t.Errorf("Find(hello) after reopen = %v", got)
	}
}

// TestPostingChainOverflowsToTail exercises spec §4.4's "add subsequent"
// push-down: a head chunk holds chunkSlots (6) ids before the 7th forces a
// tail chunk allocation and a head rewrite.
func TestPostingChainOverflowsToTail(t *testing.T) {
	dir := t.TempDir()
	f, err := Create(filepath.Join(dir, "idx"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	var names []string
	for i := 0; i < chunkSlots+1; i++ {
		name := fmt.Sprintf("file%d.txt", i)
		names = append(names, name)
		addFileWords(t, f, name, "shared")
	}

	got, err := f.Find([]string{"shared"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != len(names) {
		t.Fatalf("expected %d matches after overflow, got %d: %v", len(names), len(got), got)
	}

	rec, ok := f.words.GetMut("shared")
	if !ok {
		t.Fatalf("expected a word record for 'shared'")
	}
	chunk, err := f.postings.readChunk(rec.ListNr, int(rec.ListAt))
	if err != nil {
		t.Fatalf("readChunk: %v", err)
	}
	if chunk.nextBlockNr == 0 {
		t.Errorf("expected head chunk to point at a tail chunk after overflow")
	}
}

func TestFacadeRemoveFileZeroesPostingsWithoutCompaction(t *testing.T) {
	dir := t.TempDir()
	f, err := Create(filepath.Join(dir, "idx"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	addFileWords(t, f, "keep.txt", "word")
	addFileWords(t, f, "gone.txt", "word")

	if err := f.RemoveFile("gone.txt"); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	if f.HaveFile("gone.txt") {
		t.Errorf("expected gone.txt to no longer be present")
	}

	got, err := f.Find([]string{"word"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !equalStrings(got, []string{"keep.txt"}) {
		t.Errorf("Find(word) after remove = %v, want [keep.txt]", got)
	}

	// the word record itself survives — only the posting slot is zeroed.
	rec, ok := f.words.GetMut("word")
	if !ok {
		t.Fatalf("expected word record for 'word' to survive removal")
	}
	if rec.ListNr == 0 {
		t.Errorf("expected posting chain head to still be allocated")
	}
}

func TestFacadeAutosaveSkipsWhenTmpInFlight(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idx")
	f, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	addFileWords(t, f, "x.txt", "word")

	stored := path + ".stored"
	tmp := path + ".tmp_stored"
	if err := f.Autosave(stored, tmp); err != nil {
		t.Fatalf("Autosave: %v", err)
	}
	if _, err := os.Stat(stored); err != nil {
		t.Fatalf("expected stored file to exist: %v", err)
	}

	// With the temp path already present, a second autosave is a no-op.
	if err := os.Remove(stored); err != nil {
		t.Fatalf("removing stored file: %v", err)
	}
	if err := os.WriteFile(tmp, nil, 0644); err != nil {
		t.Fatalf("creating in-flight tmp file: %v", err)
	}
	if err := f.Autosave(stored, tmp); err != nil {
		t.Fatalf("Autosave with tmp in flight: %v", err)
	}
	if _, err := os.Stat(stored); !os.IsNotExist(err) {
		t.Errorf("expected autosave to skip while %s exists, but stored file was written (stat err: %v)", tmp, err)
	}
}

func TestFacadeSetAutosaveEveryOverridesCadence(t *testing.T) {
	dir := t.TempDir()
	f, err := Create(filepath.Join(dir, "idx"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	f.SetAutosaveEvery(2)

	addFileWords(t, f, "a.txt", "word")
	if f.ShouldAutosave() {
		t.Fatal("expected no autosave request after the 1st append with cadence 2")
	}
	addFileWords(t, f, "b.txt", "word")
	if !f.ShouldAutosave() {
		t.Fatal("expected an autosave request after the 2nd append with cadence 2")
	}

	f.SetAutosaveEvery(0)
	addFileWords(t, f, "c.txt", "word")
	addFileWords(t, f, "d.txt", "word")
	if f.ShouldAutosave() {
		t.Fatal("expected cadence 0 to disable the counter heuristic entirely")
	}
}

func TestFacadeWordCount(t *testing.T) {
	dir := t.TempDir()
	f, err := Create(filepath.Join(dir, "idx"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	if got := f.WordCount(); got != 0 {
		t.Fatalf("expected 0 words in a fresh index, got %d", got)
	}
	addFileWords(t, f, "a.txt", "apple", "banana")
	addFileWords(t, f, "b.txt", "banana", "cherry")
	if got := f.WordCount(); got != 3 {
		t.Fatalf("expected 3 distinct words, got %d", got)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
