// Package pipeline implements the fixed ingestion DAG of spec §4.6: a
// walker, a loader, four parallel indexers, a single merger and a terminal
// stage, connected by bounded channels carrying a tagged-union message.
package pipeline

import "github.com/standardbeagle/lciindex/internal/types"

// Filter classifies a file entry as the walker and loader see it.
type Filter int

const (
	// FilterInspect means content sniffing hasn't happened yet; the loader
	// decides between Text/Html/Binary/Ignore once it has read the bytes.
	FilterInspect Filter = iota
	FilterText
	FilterHtml
	FilterBinary
	FilterIgnore
)

// Message is the tagged union carried on every pipeline channel (spec
// §4.6). Only the fields relevant to Kind are populated; this mirrors a
// sum type without reflection or interface dispatch on the hot path.
type Message struct {
	Kind Kind

	Path string // WalkTree

	Seq     uint64 // Load, Index, MergeWords — per-file sequence number
	Filter  Filter
	AbsPath string
	RelPath string
	Bytes   []byte // Index only

	Tmp  *types.TmpWords // MergeWords
	File string          // DeleteFile, WalkFinished
}

// Kind discriminates the Message union.
type Kind int

const (
	KindQuit Kind = iota
	KindDebug
	KindWalkTree
	KindWalkFinished
	KindLoad
	KindIndex
	KindMergeWords
	KindAutoSave
	KindDeleteFile
)

func (k Kind) String() string {
	switch k {
	case KindQuit:
		return "Quit"
	case KindDebug:
		return "Debug"
	case KindWalkTree:
		return "WalkTree"
	case KindWalkFinished:
		return "WalkFinished"
	case KindLoad:
		return "Load"
	case KindIndex:
		return "Index"
	case KindMergeWords:
		return "MergeWords"
	case KindAutoSave:
		return "AutoSave"
	case KindDeleteFile:
		return "DeleteFile"
	default:
		return "Unknown"
	}
}
