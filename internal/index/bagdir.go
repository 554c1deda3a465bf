package index

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/standardbeagle/lciindex/internal/blockfile"
	"github.com/standardbeagle/lciindex/internal/ixerrors"
	"github.com/standardbeagle/lciindex/internal/types"
)

// bagCount is the fixed number of independent append regions (spec §3/§4.4).
const bagCount = 256

// BagOf derives a word's bag index from its canonical (20-byte truncated)
// key: FNV-1a over the key bytes, reduced mod 256. Resolves the spec §9
// open question on bag hashing; the same function must run identically at
// load time, which it does since it depends only on the stored key.
func BagOf(key string) uint8 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return uint8(h.Sum32() % bagCount)
}

// BagDirectory holds, for each of the 256 bags, the current append cursor
// in the head region and the tail region (spec §3 RawBags). It is
// persisted as a single 4 KiB block: four arrays of 256 u32s.
type BagDirectory struct {
	headNr  [bagCount]types.BlockNr
	headIdx [bagCount]types.BlkIdx
	tailNr  [bagCount]types.BlockNr
	tailIdx [bagCount]types.BlkIdx

	loc   types.Location // where this directory block lives, zero if never stored
	dirty bool
}

// NewBagDirectory returns an empty directory for a brand-new index.
func NewBagDirectory() *BagDirectory {
	return &BagDirectory{}
}

const (
	bagDirSectionBytes = bagCount * 4
)

// Store persists the directory into its single dedicated WordMapBags
// block, allocating it on first use.
func (d *BagDirectory) Store(bf *blockfile.BlockFile) error {
	if !d.dirty && !d.loc.IsZero() {
		return nil
	}
	var blk *blockfile.Block
	var err error
	if d.loc.IsZero() {
		blk, err = bf.Alloc(blockfile.TypeWordMapBags)
		if err != nil {
			return ixerrors.NewBlockFileError("bagdir.store", err)
		}
		d.loc = types.Location{BlockNr: blk.Nr, BlkIdx: 0}
	} else {
		blk, err = bf.GetMut(d.loc.BlockNr)
		if err != nil {
			return ixerrors.NewBlockFileError("bagdir.store", err)
		}
	}

	encodeU32Array(blk.Data[0*bagDirSectionBytes:1*bagDirSectionBytes], d.headNr[:])
	encodeU32Array(blk.Data[1*bagDirSectionBytes:2*bagDirSectionBytes], d.headIdx[:])
	encodeU32Array(blk.Data[2*bagDirSectionBytes:3*bagDirSectionBytes], d.tailNr[:])
	encodeU32Array(blk.Data[3*bagDirSectionBytes:4*bagDirSectionBytes], d.tailIdx[:])
	blk.MarkDirty()
	d.dirty = false
	return nil
}

// LoadBagDirectory reads the single WordMapBags block, if any exists.
func LoadBagDirectory(bf *blockfile.BlockFile) (*BagDirectory, error) {
	d := NewBagDirectory()
	for _, m := range bf.IterMetadata() {
		if m.Type != blockfile.TypeWordMapBags {
			continue
		}
		blk, err := bf.Get(m.Nr)
		if err != nil {
			return nil, ixerrors.NewBlockFileError("bagdir.load", err)
		}
		decodeU32ArrayBlockNr(blk.Data[0*bagDirSectionBytes:1*bagDirSectionBytes], d.headNr[:])
		decodeU32ArrayBlkIdx(blk.Data[1*bagDirSectionBytes:2*bagDirSectionBytes], d.headIdx[:])
		decodeU32ArrayBlockNr(blk.Data[2*bagDirSectionBytes:3*bagDirSectionBytes], d.tailNr[:])
		decodeU32ArrayBlkIdx(blk.Data[3*bagDirSectionBytes:4*bagDirSectionBytes], d.tailIdx[:])
		d.loc = types.Location{BlockNr: m.Nr, BlkIdx: 0}
		break // exactly one bag-directory block is ever allocated
	}
	return d, nil
}

func encodeU32Array[T ~uint32](dst []byte, src []T) {
	for i, v := range src {
		binary.LittleEndian.PutUint32(dst[i*4:i*4+4], uint32(v))
	}
}

func decodeU32ArrayBlockNr(src []byte, dst []types.BlockNr) {
	for i := range dst {
		dst[i] = types.BlockNr(binary.LittleEndian.Uint32(src[i*4 : i*4+4]))
	}
}

func decodeU32ArrayBlkIdx(src []byte, dst []types.BlkIdx) {
	for i := range dst {
		dst[i] = types.BlkIdx(binary.LittleEndian.Uint32(src[i*4 : i*4+4]))
	}
}
