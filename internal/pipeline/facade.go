package pipeline

import "github.com/standardbeagle/lciindex/internal/types"

// Facade is the subset of internal/index.Facade the pipeline stages need.
// Defined here (rather than imported as a concrete type) so the pipeline
// package stays decoupled from the index package's storage internals —
// it only depends on the facade's public contract (spec §4.5).
type Facade interface {
	AddFile(name string) (types.FileId, error)
	Append(tmp *types.TmpWords, file types.FileId) error
	ShouldAutosave() bool
	Autosave(storedPath, tmpPath string) error
	Write() error
	RemoveFile(name string) error
	IterFileNames() []string
}
