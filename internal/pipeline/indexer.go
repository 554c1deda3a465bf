package pipeline

import (
	"github.com/standardbeagle/lciindex/internal/debug"
	"github.com/standardbeagle/lciindex/internal/tokenize"
	"github.com/standardbeagle/lciindex/internal/types"
)

// IndexerCount is the default fan-out of stage 3 (spec §4.6: "Indexer×4"),
// used when New is given an indexer worker count <= 0.
const IndexerCount = 4

// Indexer is stage 3: one of the configured parallel workers sharing a
// single input channel. On Index it runs the filter-appropriate parser
// and emits MergeWords. Parsers are external collaborators (spec §6);
// internal/tokenize supplies the concrete text/HTML implementation.
type Indexer struct {
	id  int
	in  <-chan Message
	out chan<- Message
}

// NewIndexer builds one indexer worker. All configured workers share the
// same in/out channels, giving the work-stealing fan-out spec §4.6
// describes ("four parallel workers sharing an input queue").
func NewIndexer(id int, in <-chan Message, out chan<- Message) *Indexer {
	return &Indexer{id: id, in: in, out: out}
}

// Run drives the worker. Quit is forwarded once per worker; the caller is
// responsible for sending one Quit per worker (or relying on channel
// close) so every worker observes shutdown.
func (ix *Indexer) Run() {
	for msg := range ix.in {
		switch msg.Kind {
		case KindQuit:
			ix.out <- msg
			return
		case KindDebug, KindAutoSave, KindWalkFinished, KindDeleteFile:
			ix.out <- msg
		case KindIndex:
			ix.handleIndex(msg)
		default:
			debug.LogPipeline("indexer[%d]: unexpected message %s", ix.id, msg.Kind)
		}
	}
}

func (ix *Indexer) handleIndex(msg Message) {
	tmp := parse(msg.Filter, msg.RelPath, msg.Bytes)
	ix.out <- Message{Kind: KindMergeWords, Seq: msg.Seq, RelPath: msg.RelPath, Tmp: tmp}
}

func parse(filter Filter, relPath string, data []byte) *types.TmpWords {
	switch filter {
	case FilterHtml:
		return tokenize.HTML(relPath, data)
	default:
		return tokenize.Text(relPath, data)
	}
}
