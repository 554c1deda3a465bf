package index

import (
	"os"
	"sort"
	"sync"

	"github.com/standardbeagle/lciindex/internal/blockfile"
	"github.com/standardbeagle/lciindex/internal/debug"
	"github.com/standardbeagle/lciindex/internal/ixerrors"
	"github.com/standardbeagle/lciindex/internal/types"
	"github.com/standardbeagle/lciindex/internal/wildcard"
)

// autosaveEvery is the default cadence of the spec §4.5 autosave trigger:
// the 1000th append (and every 1000th thereafter) requests a save. This
// resolves the spec §9 open question in favor of the counter heuristic;
// Config.Index.AutosaveEveryAppends (applied via SetAutosaveEvery) may
// override it, and Config.Index.AutosaveIntervalMs drives an independent
// walltime heuristic in cmd/lciindex.
const autosaveEvery = 1000

// Facade owns the block file and every in-memory table (spec §4.5). All
// mutation is expected to happen under one exclusive lock held by a single
// writer (the pipeline's merge stage); readers (find, have_file) take the
// same lock briefly.
type Facade struct {
	mu sync.RWMutex

	bf       *blockfile.BlockFile
	files    *FileTable
	words    *WordTable
	bags     *BagDirectory
	postings *PostingStore

	wordCurBlock types.BlockNr
	wordCurSlot  int

	appendCount    uint64
	shouldAutosave bool
	autosaveEvery  uint64
}

// Create makes a fresh empty index at path (spec §4.5 create).
func Create(path string) (*Facade, error) {
	bf, err := blockfile.Create(path)
	if err != nil {
		return nil, err
	}
	dir := NewBagDirectory()
	f := &Facade{
		bf:            bf,
		files:         NewFileTable(),
		words:         NewWordTable(),
		bags:          dir,
		postings:      NewPostingStore(bf, dir),
		autosaveEvery: autosaveEvery,
	}
	debug.LogIndex("created fresh index at %s", path)
	return f, nil
}

// Open loads an existing index from path (spec §4.5 open).
func Open(path string) (*Facade, error) {
	bf, err := blockfile.Open(path)
	if err != nil {
		return nil, err
	}
	files, err := LoadFileTable(bf)
	if err != nil {
		return nil, err
	}
	words, wordBlock, wordSlot, err := LoadWordTable(bf)
	if err != nil {
		return nil, err
	}
	dir, err := LoadBagDirectory(bf)
	if err != nil {
		return nil, err
	}
	f := &Facade{
		bf:            bf,
		files:         files,
		words:         words,
		bags:          dir,
		postings:      NewPostingStore(bf, dir),
		wordCurBlock:  wordBlock,
		wordCurSlot:   wordSlot,
		autosaveEvery: autosaveEvery,
	}
	debug.LogIndex("opened index at %s", path)
	return f, nil
}

// Close releases the underlying block file.
func (f *Facade) Close() error {
	return f.bf.Close()
}

// AddFile allocates a new FileId for name (spec §4.5 add_file).
func (f *Facade) AddFile(name string) (types.FileId, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files.Add(name)
}

// IterFileNames returns every currently-indexed name, for the walker's
// known-file snapshot (spec §4.6 Idle->Walking transition).
func (f *Facade) IterFileNames() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var names []string
	f.files.Iter(func(_ types.FileId, rec *FileRecord) {
		names = append(names, rec.Name)
	})
	return names
}

// HaveFile reports whether name is already indexed (spec §4.5 have_file).
func (f *Facade) HaveFile(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.files.Have(name)
}

// AddWord attaches one occurrence of word to file, per the spec §4.5
// add_word policy: append to an existing head if the word already has
// one, materialise an initial chunk for a word that exists without a
// head, or create the word fresh and materialise its first chunk.
func (f *Facade) AddWord(word string, file types.FileId) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addWordLocked(word, file)
}

func (f *Facade) addWordLocked(word string, file types.FileId) error {
	bag := BagOf(truncateKey(word))
	rec, exists := f.words.GetMut(word)
	if !exists {
		nr, idx, err := f.postings.AddInitial(bag, file)
		if err != nil {
			return err
		}
		f.words.Insert(word, nr, idx)
		return nil
	}
	if rec.ListNr == 0 {
		nr, idx, err := f.postings.AddInitial(bag, file)
		if err != nil {
			return err
		}
		rec.ListNr, rec.ListAt = nr, idx
		return nil
	}
	return f.postings.AddSubsequent(bag, rec.ListNr, rec.ListAt, file)
}

// Append merges one file's word set into the index (spec §4.5 append):
// add_file semantics are assumed already applied by the caller (the
// merger calls AddFile itself); Append only walks the word set. It also
// advances the autosave counter.
func (f *Facade) Append(tmp *types.TmpWords, file types.FileId) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for word := range tmp.Words {
		if err := f.addWordLocked(word, file); err != nil {
			return err
		}
	}
	f.appendCount++
	if f.autosaveEvery > 0 && f.appendCount%f.autosaveEvery == 0 {
		f.shouldAutosave = true
	}
	return nil
}

// ShouldAutosave reports and clears the autosave-requested flag.
func (f *Facade) ShouldAutosave() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shouldAutosave {
		f.shouldAutosave = false
		return true
	}
	return false
}

// SetAutosaveEvery overrides the append-count autosave cadence (spec §9's
// counter heuristic), as configured by Config.Index.AutosaveEveryAppends.
// n <= 0 disables the counter heuristic entirely.
func (f *Facade) SetAutosaveEvery(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n <= 0 {
		f.autosaveEvery = 0
		return
	}
	f.autosaveEvery = uint64(n)
}

// WordCount reports the number of distinct words in the index (spec §6
// stats).
func (f *Facade) WordCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.words.Count()
}

// Find computes the intersection, across patterns, of files whose indexed
// words match that pattern (spec §4.5 find semantics). An empty pattern
// list returns no files.
func (f *Facade) Find(patterns []string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(patterns) == 0 {
		return nil, nil
	}

	var result map[types.FileId]struct{}
	for _, p := range patterns {
		matched := make(map[types.FileId]struct{})
		var iterErr error
		f.words.IterWords(func(key string, rec *WordRecord) {
			if iterErr != nil || rec.ListNr == 0 {
				return
			}
			if !wildcard.Match(p, key) {
				return
			}
			if err := f.postings.IterFiles(rec.ListNr, rec.ListAt, func(id types.FileId) {
				matched[id] = struct{}{}
			}); err != nil {
				iterErr = err
			}
		})
		if iterErr != nil {
			return nil, iterErr
		}
		if result == nil {
			result = matched
		} else {
			for id := range result {
				if _, ok := matched[id]; !ok {
					delete(result, id)
				}
			}
		}
		if len(result) == 0 {
			break
		}
	}

	names := make([]string, 0, len(result))
	for id := range result {
		if name, ok := f.files.Get(id); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// FindFile returns every indexed file name matching pattern, matched
// against the path relative to the indexed root (spec §9 resolved open
// question — the facade stores names already relative to the walked
// root, so a direct Match is correct).
func (f *Facade) FindFile(pattern string) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var names []string
	f.files.Iter(func(_ types.FileId, rec *FileRecord) {
		if wildcard.Match(pattern, rec.Name) {
			names = append(names, rec.Name)
		}
	})
	sort.Strings(names)
	return names
}

// RemoveFile deletes the in-memory file entry and zeroes any posting slot
// referencing it; posting chains are never rewritten/compacted (spec §3).
func (f *Facade) RemoveFile(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var id types.FileId
	f.files.Iter(func(fid types.FileId, rec *FileRecord) {
		if rec.Name == name {
			id = fid
		}
	})
	if id == 0 {
		return nil
	}
	var err error
	f.words.IterWords(func(_ string, rec *WordRecord) {
		if err != nil || rec.ListNr == 0 {
			return
		}
		if rmErr := f.postings.RemoveFromChain(rec.ListNr, rec.ListAt, id); rmErr != nil {
			err = rmErr
		}
	})
	if err != nil {
		return err
	}
	f.files.Remove(name)
	return nil
}

// Write flushes every table then applies the block-eviction retain policy
// (spec §4.5 write sequence): Word.store, File.store, Bag.store,
// BlockFile.store, retain.
func (f *Facade) Write() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeLocked()
}

func (f *Facade) writeLocked() error {
	newBlock, newSlot, err := f.words.Store(f.bf, f.wordCurBlock, f.wordCurSlot)
	if err != nil {
		return err
	}
	f.wordCurBlock, f.wordCurSlot = newBlock, newSlot

	if err := f.files.Store(f.bf); err != nil {
		return err
	}
	if err := f.bags.Store(f.bf); err != nil {
		return err
	}
	if err := f.bf.Store(); err != nil {
		return err
	}

	generation := f.bf.Generation()
	f.bf.Retain(func(m blockfile.Meta) bool {
		switch m.Type {
		case blockfile.TypeWordList:
			return generation-m.Generation <= 2
		case blockfile.TypeFileList:
			return false
		case blockfile.TypeWordMapHead:
			return true
		case blockfile.TypeWordMapTail:
			return generation-m.Generation <= 2
		default:
			return true
		}
	})
	debug.LogIndex("write: generation %d", generation)
	return nil
}

// Autosave implements the spec §4.5 autosave protocol: write to a temp
// path, then rename atomically over the last-successful-save path. If the
// temp path already exists, another autosave is in flight and this call
// is a no-op.
func (f *Facade) Autosave(storedPath, tmpPath string) error {
	if _, err := os.Stat(tmpPath); err == nil {
		debug.LogIndex("autosave skipped: %s already in flight", tmpPath)
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.writeLocked(); err != nil {
		return err
	}

	src, err := os.Open(f.bf.Path())
	if err != nil {
		return ixerrors.NewIoError("autosave:open", f.bf.Path(), err)
	}
	defer src.Close()

	dst, err := os.Create(tmpPath)
	if err != nil {
		return ixerrors.NewIoError("autosave:create", tmpPath, err)
	}
	if _, err := dst.ReadFrom(src); err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return ixerrors.NewIoError("autosave:copy", tmpPath, err)
	}
	if err := dst.Close(); err != nil {
		return ixerrors.NewIoError("autosave:close", tmpPath, err)
	}
	if err := os.Rename(tmpPath, storedPath); err != nil {
		return ixerrors.NewIoError("autosave:rename", storedPath, err)
	}
	debug.LogIndex("autosave complete: %s", storedPath)
	return nil
}
