package pipeline

import (
	"os"

	"github.com/standardbeagle/lciindex/internal/debug"
)

// Loader is stage 2: it blocks on receive, reads the whole file into
// memory, and forwards text-bearing files downstream as Index messages.
// Binary/ignored files are logged and dropped (spec §4.6).
type Loader struct {
	in           <-chan Message
	out          chan<- Message
	indexerCount int
}

// NewLoader builds the loader stage. indexerCount is the number of
// workers sharing out (the pipeline's configured Pipeline.IndexerWorkers,
// or IndexerCount if unset), so Quit can be fanned out correctly.
func NewLoader(in <-chan Message, out chan<- Message, indexerCount int) *Loader {
	return &Loader{in: in, out: out, indexerCount: indexerCount}
}

// Run drives the stage until Quit is forwarded.
func (l *Loader) Run() {
	for msg := range l.in {
		switch msg.Kind {
		case KindQuit:
			// c2 fans out to indexerCount workers sharing one input
			// channel; one Quit would only wake one of them, so the
			// loader (the sole producer into that shared queue) sends
			// one copy per worker.
			for i := 0; i < l.indexerCount; i++ {
				l.out <- msg
			}
			return
		case KindDebug, KindAutoSave, KindWalkFinished, KindDeleteFile:
			l.out <- msg
		case KindLoad:
			l.handleLoad(msg)
		default:
			debug.LogPipeline("loader: unexpected message %s", msg.Kind)
		}
	}
}

func (l *Loader) handleLoad(msg Message) {
	data, err := os.ReadFile(msg.AbsPath)
	if err != nil {
		debug.LogPipeline("loader: dropped %s: %v", msg.AbsPath, err)
		return
	}

	filter := sniff(msg.Filter, msg.RelPath, data)
	switch filter {
	case FilterText, FilterHtml:
		l.out <- Message{
			Kind:    KindIndex,
			Seq:     msg.Seq,
			Filter:  filter,
			AbsPath: msg.AbsPath,
			RelPath: msg.RelPath,
			Bytes:   data,
		}
	default:
		debug.LogPipeline("loader: dropped non-text file %s (filter=%v)", msg.RelPath, filter)
	}
}
