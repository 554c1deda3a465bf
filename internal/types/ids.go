// Package types holds the nominal id spaces shared across the index engine.
//
// FileId, WordId, BlockNr and BlkIdx are distinct 32-bit spaces. Zero is a
// reserved sentinel in every space meaning "unassigned"; arithmetic and
// comparisons are only meaningful within one space, so each gets its own
// named type instead of sharing a bare uint32.
package types

import "fmt"

// FileId identifies an entry in the file table. Zero means unassigned.
type FileId uint32

// IsZero reports whether the id is the unassigned sentinel.
func (id FileId) IsZero() bool { return id == 0 }

// Next returns the successor id; callers use this to hand out monotonic ids.
func (id FileId) Next() FileId { return id + 1 }

func (id FileId) String() string { return fmt.Sprintf("file#%d", uint32(id)) }

// WordId identifies an entry in the word table. Zero means unassigned.
type WordId uint32

func (id WordId) IsZero() bool   { return id == 0 }
func (id WordId) Next() WordId   { return id + 1 }
func (id WordId) String() string { return fmt.Sprintf("word#%d", uint32(id)) }

// BlockNr addresses a block within the block file. Zero means "not yet
// flushed" / "no block".
type BlockNr uint32

func (b BlockNr) IsZero() bool   { return b == 0 }
func (b BlockNr) String() string { return fmt.Sprintf("block#%d", uint32(b)) }

// BlkIdx addresses a record's slot within a block. Zero is a valid slot
// index in some families (the word table) but is only meaningful paired
// with a non-zero BlockNr.
type BlkIdx uint32

func (i BlkIdx) String() string { return fmt.Sprintf("idx#%d", uint32(i)) }

// Location is a (BlockNr, BlkIdx) pair recording where a record was
// serialised. The zero Location means "not yet flushed".
type Location struct {
	BlockNr BlockNr
	BlkIdx  BlkIdx
}

// IsZero reports whether the location is unassigned.
func (l Location) IsZero() bool { return l.BlockNr == 0 && l.BlkIdx == 0 }
