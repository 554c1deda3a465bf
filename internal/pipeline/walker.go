package pipeline

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/lciindex/internal/debug"
	"github.com/standardbeagle/lciindex/internal/wildcard"
)

// walkerState is the Idle/Walking state machine of spec §4.6.
type walkerState int

const (
	walkerIdle walkerState = iota
	walkerWalking
)

// Walker is stage 1: it enumerates a directory tree, skips names already
// known to the facade, and emits Load messages.
type Walker struct {
	facade   Facade
	in       <-chan Message
	out      chan<- Message
	excludes []string
	state    walkerState
}

// NewWalker builds the walker stage. excludes are doublestar patterns
// matched against the root-relative path; a match means Ignore.
func NewWalker(facade Facade, in <-chan Message, out chan<- Message, excludes []string) *Walker {
	return &Walker{facade: facade, in: in, out: out, excludes: excludes}
}

// Run drives the stage until a Quit message is forwarded and processed.
// One walk is done synchronously per WalkTree request: walkOne performs
// the whole directory walk without receiving from the input channel, so
// Quit, Debug and further WalkTree messages that arrive mid-walk wait in
// the channel until the walk has finished and are then handled in order.
func (w *Walker) Run() {
	w.state = walkerIdle
	for msg := range w.in {
		switch msg.Kind {
		case KindQuit:
			w.out <- msg
			return
		case KindDebug, KindDeleteFile, KindAutoSave:
			w.out <- msg
		case KindWalkTree:
			if w.state == walkerWalking {
				debug.LogPipeline("walker: dropping WalkTree(%s), already walking", msg.Path)
				continue
			}
			w.state = walkerWalking
			w.walkOne(msg.Path)
			w.state = walkerIdle
		default:
			debug.LogPipeline("walker: unexpected message %s", msg.Kind)
		}
	}
}

func (w *Walker) walkOne(root string) {
	snapshot := newKnownSnapshot(w.facade.IterFileNames())
	var seq uint64

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			debug.LogPipeline("walker: error at %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		filter := classifyExtension(rel)
		if w.excluded(rel) {
			filter = FilterIgnore
		}
		if filter == FilterIgnore {
			return nil
		}
		if snapshot.has(rel) {
			return nil
		}

		seq++
		w.out <- Message{
			Kind:    KindLoad,
			Seq:     seq,
			Filter:  filter,
			AbsPath: path,
			RelPath: rel,
		}
		return nil
	})

	w.out <- Message{Kind: KindAutoSave}
	w.out <- Message{Kind: KindWalkFinished, File: root}
}

func (w *Walker) excluded(rel string) bool {
	for _, pattern := range w.excludes {
		if wildcard.Match(pattern, rel) {
			return true
		}
	}
	return false
}

// classifyExtension gives the walker's cheap, extension-only first-pass
// filter; ambiguous/unknown extensions stay Inspect for the loader's
// content-sniffing pass (spec §4.6).
func classifyExtension(rel string) Filter {
	ext := strings.ToLower(filepath.Ext(rel))
	switch ext {
	case ".html", ".htm", ".xhtml":
		return FilterHtml
	case ".txt", ".md", ".go", ".json", ".yaml", ".yml", ".toml", ".kdl", ".csv", ".log":
		return FilterText
	case ".png", ".jpg", ".jpeg", ".gif", ".zip", ".tar", ".gz", ".exe", ".dll", ".so", ".a", ".o":
		return FilterIgnore
	default:
		return FilterInspect
	}
}
