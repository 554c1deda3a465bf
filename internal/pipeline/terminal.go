package pipeline

import "github.com/standardbeagle/lciindex/internal/debug"

// Terminal is stage 5: it handles AutoSave, DeleteFile and WalkFinished,
// the three message kinds that never flow further downstream (spec §4.6).
type Terminal struct {
	facade     Facade
	in         <-chan Message
	storedPath string
	tmpPath    string
	done       chan struct{}
}

// NewTerminal builds the terminal stage. storedPath/tmpPath are the
// "<index>.stored" / "<index>.tmp_stored" paths of spec §6.
func NewTerminal(facade Facade, in <-chan Message, storedPath, tmpPath string) *Terminal {
	return &Terminal{facade: facade, in: in, storedPath: storedPath, tmpPath: tmpPath, done: make(chan struct{})}
}

// Done is closed once the terminal observes Quit and exits.
func (t *Terminal) Done() <-chan struct{} { return t.done }

// Run drives the stage until Quit.
func (t *Terminal) Run() {
	defer close(t.done)
	for msg := range t.in {
		switch msg.Kind {
		case KindQuit:
			return
		case KindAutoSave:
			if err := t.facade.Autosave(t.storedPath, t.tmpPath); err != nil {
				debug.LogPipeline("terminal: autosave failed: %v", err)
			}
		case KindDeleteFile:
			if err := t.facade.RemoveFile(msg.File); err != nil {
				debug.LogPipeline("terminal: delete(%s) failed: %v", msg.File, err)
			}
		case KindWalkFinished:
			if err := t.facade.Write(); err != nil {
				debug.LogPipeline("terminal: write after walk of %s failed: %v", msg.File, err)
				continue
			}
			debug.LogPipeline("terminal: walk of %s complete, index flushed", msg.File)
		case KindDebug:
			debug.LogPipeline("terminal: debug tick")
		}
	}
}
