package pipeline

import (
	"golang.org/x/sync/errgroup"
)

// ChannelCapacity is the default bounded-channel size between every pair
// of stages (spec §4.6: "bounded channels (capacity 10 each)"), used when
// New is given a capacity <= 0.
const ChannelCapacity = 10

// Pipeline owns every stage and the channels wiring them into the fixed
// DAG of spec §4.6: REPL -> Walker -> Loader -> Indexer x4 -> Merger ->
// Terminal.
type Pipeline struct {
	c0 chan Message // REPL -> walker
	c1 chan Message // walker -> loader
	c2 chan Message // loader -> indexers
	c3 chan Message // indexers -> merger
	c4 chan Message // merger -> terminal

	walker   *Walker
	loader   *Loader
	indexers []*Indexer
	merger   *Merger
	terminal *Terminal

	group *errgroup.Group
}

// New wires a fresh pipeline around facade, persisting autosaves to
// storedPath/tmpPath and excluding any root-relative path matching one of
// excludes. channelCapacity and indexerWorkers configure the DAG's
// tuning knobs (spec §4.6, Config.Pipeline); a value <= 0 falls back to
// the documented default (ChannelCapacity, IndexerCount).
func New(facade Facade, storedPath, tmpPath string, excludes []string, channelCapacity, indexerWorkers int) *Pipeline {
	if channelCapacity <= 0 {
		channelCapacity = ChannelCapacity
	}
	if indexerWorkers <= 0 {
		indexerWorkers = IndexerCount
	}
	p := &Pipeline{
		c0: make(chan Message, channelCapacity),
		c1: make(chan Message, channelCapacity),
		c2: make(chan Message, channelCapacity),
		c3: make(chan Message, channelCapacity),
		c4: make(chan Message, channelCapacity),
	}
	p.walker = NewWalker(facade, p.c0, p.c1, excludes)
	p.loader = NewLoader(p.c1, p.c2, indexerWorkers)
	p.indexers = make([]*Indexer, indexerWorkers)
	for i := range p.indexers {
		p.indexers[i] = NewIndexer(i, p.c2, p.c3)
	}
	p.merger = NewMerger(facade, p.c3, p.c4)
	p.terminal = NewTerminal(facade, p.c4, storedPath, tmpPath)
	return p
}

// Start launches every stage's goroutine under one errgroup, giving the
// supervisor a single Wait() to join all of them on shutdown.
func (p *Pipeline) Start() {
	p.group = &errgroup.Group{}
	p.group.Go(func() error { p.walker.Run(); return nil })
	p.group.Go(func() error { p.loader.Run(); return nil })
	for _, ix := range p.indexers {
		ix := ix
		p.group.Go(func() error { ix.Run(); return nil })
	}
	p.group.Go(func() error { p.merger.Run(); return nil })
	p.group.Go(func() error { p.terminal.Run(); return nil })
}

// WalkTree submits a WalkTree request to the pipeline head (blocking if
// the walker's input channel is full).
func (p *Pipeline) WalkTree(path string) {
	p.c0 <- Message{Kind: KindWalkTree, Path: path}
}

// DeleteFile submits a logical file removal at the pipeline head; every
// stage forwards it unchanged until the terminal stage applies it (spec
// §4.6 "REPL -> DeleteFile -> terminal").
func (p *Pipeline) DeleteFile(name string) {
	p.c0 <- Message{Kind: KindDeleteFile, File: name}
}

// AutoSave submits an explicit save request.
func (p *Pipeline) AutoSave() {
	p.c0 <- Message{Kind: KindAutoSave}
}

// Quit propagates a single Quit message through the head channel; every
// stage forwards it downstream once before exiting (spec §5 cancellation).
// The loader fans a Quit at the shared indexer queue out into one copy per
// worker so every configured indexer worker observes shutdown.
func (p *Pipeline) Quit() {
	p.c0 <- Message{Kind: KindQuit}
}

// Wait blocks until every stage goroutine has exited.
func (p *Pipeline) Wait() {
	_ = p.group.Wait()
}

// TerminalDone is closed once the terminal stage exits, signalling the
// full DAG has drained.
func (p *Pipeline) TerminalDone() <-chan struct{} {
	return p.terminal.Done()
}
