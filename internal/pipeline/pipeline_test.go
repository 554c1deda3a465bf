package pipeline

import (
	"sync"
	"testing"
	"time"

	"github.com/standardbeagle/lciindex/internal/types"
)

// fakeFacade is a minimal in-memory stand-in for index.Facade, used so
// pipeline tests exercise the stage wiring without depending on the
// on-disk storage engine.
type fakeFacade struct {
	mu        sync.Mutex
	lastId    types.FileId
	known     map[string]types.FileId
	appends   []string
	removed   []string
	autosaves int
	writes    int
}

func newFakeFacade() *fakeFacade {
	return &fakeFacade{known: make(map[string]types.FileId)}
}

func (f *fakeFacade) AddFile(name string) (types.FileId, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.known[name]; ok {
		return id, nil
	}
	f.lastId++
	f.known[name] = f.lastId
	return f.lastId, nil
}

func (f *fakeFacade) Append(tmp *types.TmpWords, file types.FileId) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appends = append(f.appends, tmp.File)
	return nil
}

func (f *fakeFacade) ShouldAutosave() bool { return false }

func (f *fakeFacade) Autosave(storedPath, tmpPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.autosaves++
	return nil
}

func (f *fakeFacade) Write() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	return nil
}

func (f *fakeFacade) RemoveFile(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, name)
	return nil
}

func (f *fakeFacade) IterFileNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.known))
	for n := range f.known {
		names = append(names, n)
	}
	return names
}

// TestQuitDrainsAllStagesIncludingFanOut is the regression test for the
// indexer fan-out shutdown bug: four indexer workers share one input
// channel, and Quit must reach every one of them or Wait never returns.
func TestQuitDrainsAllStagesIncludingFanOut(t *testing.T) {
	facade := newFakeFacade()
	pl := New(facade, "/tmp/does-not-matter.stored", "/tmp/does-not-matter.tmp", nil, 0, 0)
	pl.Start()

	done := make(chan struct{})
	go func() {
		pl.Wait()
		close(done)
	}()

	pl.Quit()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait() did not return within 5s of Quit() — a stage is stuck (likely the indexer fan-out)")
	}
}

// TestQuitDrainsConfiguredIndexerWorkerCount checks the loader's Quit
// fan-out uses the configured worker count, not the IndexerCount default,
// when Config.Pipeline.IndexerWorkers overrides it.
func TestQuitDrainsConfiguredIndexerWorkerCount(t *testing.T) {
	facade := newFakeFacade()
	pl := New(facade, "/tmp/does-not-matter.stored", "/tmp/does-not-matter.tmp", nil, 0, 7)
	pl.Start()

	done := make(chan struct{})
	go func() {
		pl.Wait()
		close(done)
	}()

	pl.Quit()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Wait() did not return within 5s of Quit() with a non-default indexer worker count")
	}
}

func TestDeleteFileReachesTerminal(t *testing.T) {
	facade := newFakeFacade()
	pl := New(facade, "/tmp/does-not-matter.stored", "/tmp/does-not-matter.tmp", nil, 0, 0)
	pl.Start()
	defer func() {
		pl.Quit()
		pl.Wait()
	}()

	pl.DeleteFile("gone.txt")

	deadline := time.After(2 * time.Second)
	for {
		facade.mu.Lock()
		n := len(facade.removed)
		facade.mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("DeleteFile never reached the terminal stage")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestAutoSaveReachesTerminal(t *testing.T) {
	facade := newFakeFacade()
	pl := New(facade, "/tmp/does-not-matter.stored", "/tmp/does-not-matter.tmp", nil, 0, 0)
	pl.Start()
	defer func() {
		pl.Quit()
		pl.Wait()
	}()

	pl.AutoSave()

	deadline := time.After(2 * time.Second)
	for {
		facade.mu.Lock()
		n := facade.autosaves
		facade.mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("AutoSave never reached the terminal stage")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
