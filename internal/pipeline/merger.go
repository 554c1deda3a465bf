package pipeline

import "github.com/standardbeagle/lciindex/internal/debug"

// Merger is stage 4, the single worker permitted to mutate the facade. On
// MergeWords it takes the exclusive lock implicitly via Facade's own
// locking, calls AddFile then AddWord for every word, and forwards
// AutoSave when the append counter crosses its threshold (spec §4.6).
type Merger struct {
	facade Facade
	in     <-chan Message
	out    chan<- Message
}

// NewMerger builds the merger stage.
func NewMerger(facade Facade, in <-chan Message, out chan<- Message) *Merger {
	return &Merger{facade: facade, in: in, out: out}
}

// Run drives the stage until Quit is forwarded.
func (m *Merger) Run() {
	for msg := range m.in {
		switch msg.Kind {
		case KindQuit:
			m.out <- msg
			return
		case KindDebug, KindAutoSave, KindWalkFinished, KindDeleteFile:
			m.out <- msg
		case KindMergeWords:
			m.handleMerge(msg)
		default:
			debug.LogPipeline("merger: unexpected message %s", msg.Kind)
		}
	}
}

func (m *Merger) handleMerge(msg Message) {
	if msg.Tmp == nil || msg.Tmp.Count() == 0 {
		return
	}
	id, err := m.facade.AddFile(msg.Tmp.File)
	if err != nil {
		debug.LogPipeline("merger: add_file(%s) failed: %v", msg.Tmp.File, err)
		return
	}
	if err := m.facade.Append(msg.Tmp, id); err != nil {
		debug.LogPipeline("merger: append(%s) failed: %v", msg.Tmp.File, err)
		return
	}
	if m.facade.ShouldAutosave() {
		m.out <- Message{Kind: KindAutoSave}
	}
}
