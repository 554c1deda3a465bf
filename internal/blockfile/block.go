package blockfile

import "github.com/standardbeagle/lciindex/internal/types"

// BlockSize is the fixed page size of every block in the file, matching
// the on-disk format in spec §6: 4 KiB pages.
const BlockSize = 4096

// BlockType identifies the record family stored in a block.
type BlockType uint8

const (
	// TypeInvalid is never persisted; it marks an unallocated slot.
	TypeInvalid BlockType = iota
	// TypeWordList holds fixed 32-byte WordRecord slots.
	TypeWordList
	// TypeFileList holds the packed append-only file-table byte stream.
	TypeFileList
	// TypeWordMapHead holds hot, frequently-rewritten posting chunks.
	TypeWordMapHead
	// TypeWordMapTail holds write-once posting chunks.
	TypeWordMapTail
	// TypeWordMapBags holds the single 4 KiB bag-directory block.
	TypeWordMapBags
)

func (t BlockType) String() string {
	switch t {
	case TypeWordList:
		return "WordList"
	case TypeFileList:
		return "FileList"
	case TypeWordMapHead:
		return "WordMapHead"
	case TypeWordMapTail:
		return "WordMapTail"
	case TypeWordMapBags:
		return "WordMapBags"
	default:
		return "Invalid"
	}
}

// Block is one resident 4 KiB page. Data is addressed directly by callers
// (word/posting slot arithmetic); MarkDirty must be called after any
// in-place mutation so Store knows to flush it.
type Block struct {
	Nr         types.BlockNr
	Type       BlockType
	Generation uint32
	Data       [BlockSize]byte

	dirty bool
}

// MarkDirty flags the block for the next Store call.
func (b *Block) MarkDirty() { b.dirty = true }

// IsDirty reports whether the block has unflushed in-memory changes.
func (b *Block) IsDirty() bool { return b.dirty }

// Meta describes one allocated block for IterMetadata.
type Meta struct {
	Nr         types.BlockNr
	Type       BlockType
	Generation uint32
}
