// Package blockfile implements the paged, typed, generation-tracked block
// storage primitive the index engine is built on (spec §4.1). It is the one
// piece the specification treats as an external axiom ("rewriting the
// block-file primitive is out of scope"); this package supplies a concrete,
// minimal implementation of that contract so the rest of the engine has
// something real to run against.
//
// On-disk layout: a fixed 4 KiB header page at offset 0, followed by data
// pages at DataStart + (nr-1)*BlockSize for block nr 1..blockCount, followed
// by a trailing block directory (type+generation per block) written fresh
// on every Store. The header records where the current directory lives and
// is the single small write that commits a generation: a crash before the
// header write leaves the previous, still-valid generation visible on
// reopen, and any half-written pages/directory past the old blockCount are
// simply overwritten next time. This gives the "prefix-consistent snapshot"
// recovery property the spec requires without a separate WAL.
package blockfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/standardbeagle/lciindex/internal/debug"
	"github.com/standardbeagle/lciindex/internal/ixerrors"
	"github.com/standardbeagle/lciindex/internal/types"
)

const (
	// DataStart is the byte offset of block nr 1; block nr 0 is reserved
	// (never allocated — BlockNr's zero value means "unassigned").
	DataStart = BlockSize

	headerSize   = 32
	dirEntrySize = 8 // type:1 + reserved:3 + generation:4

	magic = "LCIDXv1\x00"
)

type header struct {
	blockCount uint32
	generation uint32
	dirOffset  int64
	dirLength  uint32
}

func (h header) encode() []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:8], magic)
	binary.LittleEndian.PutUint32(buf[8:12], h.blockCount)
	binary.LittleEndian.PutUint32(buf[12:16], h.generation)
	binary.LittleEndian.PutUint64(buf[16:24], uint64(h.dirOffset))
	binary.LittleEndian.PutUint32(buf[24:28], h.dirLength)
	return buf
}

func decodeHeader(buf []byte) (header, error) {
	if len(buf) < headerSize || string(buf[0:8]) != magic {
		return header{}, fmt.Errorf("blockfile: bad header magic")
	}
	return header{
		blockCount: binary.LittleEndian.Uint32(buf[8:12]),
		generation: binary.LittleEndian.Uint32(buf[12:16]),
		dirOffset:  int64(binary.LittleEndian.Uint64(buf[16:24])),
		dirLength:  binary.LittleEndian.Uint32(buf[24:28]),
	}, nil
}

type dirEntry struct {
	typ        BlockType
	generation uint32
}

// BlockFile is the open handle to one on-disk block store.
type BlockFile struct {
	path string
	file *os.File

	mu    sync.RWMutex
	hdr   header
	dir   []dirEntry // index i == block nr i+1
	cache map[types.BlockNr]*Block
}

// Create makes a fresh, empty block file at path, truncating any existing
// file there.
func Create(path string) (*BlockFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, ixerrors.NewBlockFileError("create", err)
	}
	bf := &BlockFile{
		path:  path,
		file:  f,
		hdr:   header{blockCount: 0, generation: 0, dirOffset: DataStart, dirLength: 0},
		dir:   nil,
		cache: make(map[types.BlockNr]*Block),
	}
	if err := bf.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return bf, nil
}

// Open loads an existing block file, recovering the most recently
// committed generation.
func Open(path string) (*BlockFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, ixerrors.NewBlockFileError("open", err)
	}
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		f.Close()
		return nil, ixerrors.NewBlockFileError("open:header", err)
	}
	hdr, err := decodeHeader(buf)
	if err != nil {
		f.Close()
		return nil, ixerrors.NewBlockFileError("open:header", err)
	}

	dir := make([]dirEntry, hdr.blockCount)
	if hdr.blockCount > 0 {
		raw := make([]byte, int(hdr.blockCount)*dirEntrySize)
		if _, err := f.ReadAt(raw, hdr.dirOffset); err != nil {
			f.Close()
			return nil, ixerrors.NewBlockFileError("open:directory", err)
		}
		for i := range dir {
			off := i * dirEntrySize
			dir[i] = dirEntry{
				typ:        BlockType(raw[off]),
				generation: binary.LittleEndian.Uint32(raw[off+4 : off+8]),
			}
		}
	}

	bf := &BlockFile{
		path:  path,
		file:  f,
		hdr:   hdr,
		dir:   dir,
		cache: make(map[types.BlockNr]*Block),
	}
	debug.LogBlockFile("opened %s: %d blocks at generation %d", path, hdr.blockCount, hdr.generation)
	return bf, nil
}

// Path returns the filesystem path this block file was opened/created at.
func (bf *BlockFile) Path() string { return bf.path }

// Close releases the underlying file handle.
func (bf *BlockFile) Close() error {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	return bf.file.Close()
}

func (bf *BlockFile) offsetOf(nr types.BlockNr) int64 {
	return int64(DataStart) + int64(nr-1)*int64(BlockSize)
}

// Alloc allocates a fresh zeroed block of the given type.
func (bf *BlockFile) Alloc(t BlockType) (*Block, error) {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	bf.hdr.blockCount++
	nr := types.BlockNr(bf.hdr.blockCount)
	bf.dir = append(bf.dir, dirEntry{typ: t})

	blk := &Block{Nr: nr, Type: t, Generation: 0, dirty: true}
	bf.cache[nr] = blk
	return blk, nil
}

// Get fetches a block by number, loading it from disk if not resident.
func (bf *BlockFile) Get(nr types.BlockNr) (*Block, error) {
	return bf.getMut(nr)
}

// GetMut fetches a block intending to mutate it; identical to Get since
// blocks are addressed directly — callers must call MarkDirty after
// mutating.
func (bf *BlockFile) GetMut(nr types.BlockNr) (*Block, error) {
	return bf.getMut(nr)
}

func (bf *BlockFile) getMut(nr types.BlockNr) (*Block, error) {
	if nr == 0 {
		return nil, fmt.Errorf("blockfile: block nr 0 is the unassigned sentinel")
	}
	bf.mu.Lock()
	defer bf.mu.Unlock()

	if blk, ok := bf.cache[nr]; ok {
		return blk, nil
	}
	if int(nr) > len(bf.dir) {
		return nil, fmt.Errorf("blockfile: block %s not allocated", nr)
	}
	entry := bf.dir[nr-1]
	blk := &Block{Nr: nr, Type: entry.typ, Generation: entry.generation}
	if _, err := bf.file.ReadAt(blk.Data[:], bf.offsetOf(nr)); err != nil && err != io.EOF {
		return nil, ixerrors.NewBlockFileError("get", err)
	}
	bf.cache[nr] = blk
	return blk, nil
}

// IterMetadata returns (BlockNr, Type) for every currently allocated block,
// in allocation order.
func (bf *BlockFile) IterMetadata() []Meta {
	bf.mu.RLock()
	defer bf.mu.RUnlock()

	out := make([]Meta, len(bf.dir))
	for i, e := range bf.dir {
		out[i] = Meta{Nr: types.BlockNr(i + 1), Type: e.typ, Generation: e.generation}
	}
	return out
}

// Generation returns the current commit generation: the generation stamped
// on blocks by the most recent Store call (0 before the first Store). The
// next Store assigns Generation()+1.
func (bf *BlockFile) Generation() uint32 {
	bf.mu.RLock()
	defer bf.mu.RUnlock()
	return bf.hdr.generation
}

// Store flushes every dirty resident block to disk, stamps them with the
// next generation, rewrites the trailing directory and commits the header.
func (bf *BlockFile) Store() error {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	nextGen := bf.hdr.generation + 1
	dirty := 0
	for nr, blk := range bf.cache {
		if !blk.dirty {
			continue
		}
		if _, err := bf.file.WriteAt(blk.Data[:], bf.offsetOf(nr)); err != nil {
			return ixerrors.NewBlockFileError("store:page", err)
		}
		blk.Generation = nextGen
		blk.dirty = false
		bf.dir[nr-1] = dirEntry{typ: blk.Type, generation: nextGen}
		dirty++
	}

	dirOffset := int64(DataStart) + int64(bf.hdr.blockCount)*int64(BlockSize)
	dirBuf := make([]byte, len(bf.dir)*dirEntrySize)
	for i, e := range bf.dir {
		off := i * dirEntrySize
		dirBuf[off] = byte(e.typ)
		binary.LittleEndian.PutUint32(dirBuf[off+4:off+8], e.generation)
	}
	if len(dirBuf) > 0 {
		if _, err := bf.file.WriteAt(dirBuf, dirOffset); err != nil {
			return ixerrors.NewBlockFileError("store:directory", err)
		}
	}

	bf.hdr.generation = nextGen
	bf.hdr.dirOffset = dirOffset
	bf.hdr.dirLength = uint32(len(dirBuf))
	if err := bf.writeHeader(); err != nil {
		return err
	}
	if err := bf.file.Sync(); err != nil {
		return ixerrors.NewBlockFileError("store:sync", err)
	}

	debug.LogBlockFile("store: generation %d, %d blocks dirtied, %d total", nextGen, dirty, bf.hdr.blockCount)
	return nil
}

func (bf *BlockFile) writeHeader() error {
	if _, err := bf.file.WriteAt(bf.hdr.encode(), 0); err != nil {
		return ixerrors.NewBlockFileError("store:header", err)
	}
	return nil
}

// Retain evicts in-memory blocks for which predicate returns false; they
// will be re-fetched from disk on next access. Dirty (not-yet-stored)
// blocks are never evicted.
func (bf *BlockFile) Retain(predicate func(Meta) bool) {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	for nr, blk := range bf.cache {
		if blk.dirty {
			continue
		}
		meta := Meta{Nr: nr, Type: blk.Type, Generation: blk.Generation}
		if !predicate(meta) {
			delete(bf.cache, nr)
		}
	}
}
