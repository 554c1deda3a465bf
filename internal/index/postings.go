package index

import (
	"encoding/binary"

	"github.com/standardbeagle/lciindex/internal/blockfile"
	"github.com/standardbeagle/lciindex/internal/ixerrors"
	"github.com/standardbeagle/lciindex/internal/types"
)

// chunkSlots is the fixed arity of one posting chunk (spec §3 PostingChunk).
const chunkSlots = 6

// chunkSize is the fixed on-disk size of one posting chunk: 6 file-ids
// plus next_block_nr and next_idx, all u32 (spec §8: sizeof = 32).
const chunkSize = (chunkSlots + 2) * 4

// chunksPerBlock is how many fixed chunkSize slots fit in one 4 KiB block.
const chunksPerBlock = blockfile.BlockSize / chunkSize

type postingChunk struct {
	fileIds     [chunkSlots]types.FileId
	nextBlockNr types.BlockNr
	nextIdx     types.BlkIdx
}

func (c postingChunk) encode() [chunkSize]byte {
	var buf [chunkSize]byte
	for i, id := range c.fileIds {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], uint32(id))
	}
	binary.LittleEndian.PutUint32(buf[chunkSlots*4:chunkSlots*4+4], uint32(c.nextBlockNr))
	binary.LittleEndian.PutUint32(buf[chunkSlots*4+4:chunkSlots*4+8], uint32(c.nextIdx))
	return buf
}

func decodeChunk(buf []byte) postingChunk {
	var c postingChunk
	for i := range c.fileIds {
		c.fileIds[i] = types.FileId(binary.LittleEndian.Uint32(buf[i*4 : i*4+4]))
	}
	c.nextBlockNr = types.BlockNr(binary.LittleEndian.Uint32(buf[chunkSlots*4 : chunkSlots*4+4]))
	c.nextIdx = types.BlkIdx(binary.LittleEndian.Uint32(buf[chunkSlots*4+4 : chunkSlots*4+8]))
	return c
}

func chunkOffset(slot int) int { return slot * chunkSize }

// PostingStore implements the bag-sharded posting-list chain of spec §4.4:
// one hot, frequently-rewritten head chunk per word, followed by a
// write-once tail chain once the head's 6 slots fill.
type PostingStore struct {
	bf  *blockfile.BlockFile
	dir *BagDirectory
}

// NewPostingStore wraps the block file and bag directory the chains live
// in.
func NewPostingStore(bf *blockfile.BlockFile, dir *BagDirectory) *PostingStore {
	return &PostingStore{bf: bf, dir: dir}
}

func (p *PostingStore) allocHeadSlot(bag uint8) (types.BlockNr, int, error) {
	nr, idx := p.dir.headNr[bag], p.dir.headIdx[bag]
	if nr == 0 || int(idx) >= chunksPerBlock {
		blk, err := p.bf.Alloc(blockfile.TypeWordMapHead)
		if err != nil {
			return 0, 0, ixerrors.NewBlockFileError("postings.alloc_head", err)
		}
		nr, idx = blk.Nr, 0
	}
	slot := int(idx)
	p.dir.headNr[bag] = nr
	p.dir.headIdx[bag] = idx + 1
	p.dir.dirty = true
	return nr, slot, nil
}

func (p *PostingStore) allocTailSlot(bag uint8) (types.BlockNr, int, error) {
	nr, idx := p.dir.tailNr[bag], p.dir.tailIdx[bag]
	if nr == 0 || int(idx) >= chunksPerBlock {
		blk, err := p.bf.Alloc(blockfile.TypeWordMapTail)
		if err != nil {
			return 0, 0, ixerrors.NewBlockFileError("postings.alloc_tail", err)
		}
		nr, idx = blk.Nr, 0
	}
	slot := int(idx)
	p.dir.tailNr[bag] = nr
	p.dir.tailIdx[bag] = idx + 1
	p.dir.dirty = true
	return nr, slot, nil
}

func (p *PostingStore) writeChunk(nr types.BlockNr, slot int, c postingChunk) error {
	blk, err := p.bf.GetMut(nr)
	if err != nil {
		return ixerrors.NewBlockFileError("postings.write_chunk", err)
	}
	enc := c.encode()
	off := chunkOffset(slot)
	copy(blk.Data[off:off+chunkSize], enc[:])
	blk.MarkDirty()
	return nil
}

func (p *PostingStore) readChunk(nr types.BlockNr, slot int) (postingChunk, error) {
	blk, err := p.bf.Get(nr)
	if err != nil {
		return postingChunk{}, ixerrors.NewBlockFileError("postings.read_chunk", err)
	}
	off := chunkOffset(slot)
	return decodeChunk(blk.Data[off : off+chunkSize]), nil
}

// AddInitial creates the first posting chunk for a word with no existing
// chain, per spec §4.4 "add initial posting". Returns the chunk's
// location, which the caller stores as the word record's ListNr/ListAt.
func (p *PostingStore) AddInitial(bag uint8, file types.FileId) (types.BlockNr, types.BlkIdx, error) {
	nr, slot, err := p.allocHeadSlot(bag)
	if err != nil {
		return 0, 0, err
	}
	c := postingChunk{}
	c.fileIds[0] = file
	if err := p.writeChunk(nr, slot, c); err != nil {
		return 0, 0, err
	}
	return nr, types.BlkIdx(slot), nil
}

// AddSubsequent appends file to the chain whose head chunk lives at
// (blk, idx), per spec §4.4 "add subsequent posting": if the head chunk
// has a free slot, fill it; otherwise push the head's current contents
// down into a fresh tail chunk and rewrite the head to point at it.
func (p *PostingStore) AddSubsequent(bag uint8, blk types.BlockNr, idx types.BlkIdx, file types.FileId) error {
	slot := int(idx)
	c, err := p.readChunk(blk, slot)
	if err != nil {
		return err
	}
	for i := range c.fileIds {
		if c.fileIds[i] == 0 {
			c.fileIds[i] = file
			return p.writeChunk(blk, slot, c)
		}
	}

	tailNr, tailSlot, err := p.allocTailSlot(bag)
	if err != nil {
		return err
	}
	pushed := c // copy: six existing ids + this chunk's next pointer
	if err := p.writeChunk(tailNr, tailSlot, pushed); err != nil {
		return err
	}

	var newHead postingChunk
	newHead.fileIds[0] = file
	newHead.nextBlockNr = tailNr
	newHead.nextIdx = types.BlkIdx(tailSlot)
	return p.writeChunk(blk, slot, newHead)
}

// IterFiles walks the chain starting at (blk, idx), yielding every non-zero
// file-id in storage order. Interior zero slots (logical deletes) are
// skipped, not treated as end-of-chain.
func (p *PostingStore) IterFiles(blk types.BlockNr, idx types.BlkIdx, fn func(types.FileId)) error {
	nr, slot := blk, int(idx)
	for nr != 0 {
		c, err := p.readChunk(nr, slot)
		if err != nil {
			return err
		}
		for _, id := range c.fileIds {
			if id != 0 {
				fn(id)
			}
		}
		nr, slot = c.nextBlockNr, int(c.nextIdx)
	}
	return nil
}

// RemoveFromChain zeroes every slot in the chain equal to file (spec §3:
// remove_file only zeroes posting slots, it never rewrites/compacts the
// chain).
func (p *PostingStore) RemoveFromChain(blk types.BlockNr, idx types.BlkIdx, file types.FileId) error {
	nr, slot := blk, int(idx)
	for nr != 0 {
		c, err := p.readChunk(nr, slot)
		if err != nil {
			return err
		}
		changed := false
		for i, id := range c.fileIds {
			if id == file {
				c.fileIds[i] = 0
				changed = true
			}
		}
		if changed {
			if err := p.writeChunk(nr, slot, c); err != nil {
				return err
			}
		}
		nr, slot = c.nextBlockNr, int(c.nextIdx)
	}
	return nil
}
