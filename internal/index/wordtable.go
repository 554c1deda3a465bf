package index

import (
	"encoding/binary"
	"sort"

	"github.com/standardbeagle/lciindex/internal/blockfile"
	"github.com/standardbeagle/lciindex/internal/ixerrors"
	"github.com/standardbeagle/lciindex/internal/types"
)

// wordKeyLen is the fixed, zero-padded, truncating width of a word's
// on-disk key (spec §4.3). Two distinct words sharing this 20-byte prefix
// collide and share a posting list; that is accepted, not a bug.
const wordKeyLen = 20

// wordRecordSize is the fixed on-disk size of one WordList slot: a 20-byte
// key plus three little-endian u32s (spec §8: sizeof(WordRecord) = 32).
const wordRecordSize = wordKeyLen + 4 + 4 + 4

// WordRecord is one entry of the word table (spec §3).
type WordRecord struct {
	Id     types.WordId
	Key    string // the 20-byte truncated canonical form
	Loc    types.Location
	ListNr types.BlockNr // file_map_block_nr: head of this word's posting chain
	ListAt types.BlkIdx  // file_map_idx
	onDisk [wordRecordSize]byte
	hasRec bool // onDisk is meaningful (loaded or already stored once)
}

func truncateKey(word string) string {
	b := []byte(word)
	if len(b) > wordKeyLen {
		b = b[:wordKeyLen]
	}
	return string(b)
}

// WordTable is the ordered map from a word's canonical (truncated) key to
// its WordRecord (spec §4.3).
type WordTable struct {
	lastId types.WordId
	byKey  map[string]*WordRecord
	byId   map[types.WordId]*WordRecord
}

// NewWordTable returns an empty table.
func NewWordTable() *WordTable {
	return &WordTable{
		byKey: make(map[string]*WordRecord),
		byId:  make(map[types.WordId]*WordRecord),
	}
}

// Insert assigns the next WordId to word (truncated to its 20-byte
// canonical key) and records where its posting chain begins. The caller
// must ensure word is not already present.
func (t *WordTable) Insert(word string, listNr types.BlockNr, listAt types.BlkIdx) *WordRecord {
	key := truncateKey(word)
	t.lastId = t.lastId.Next()
	rec := &WordRecord{Id: t.lastId, Key: key, ListNr: listNr, ListAt: listAt}
	t.byKey[key] = rec
	t.byId[rec.Id] = rec
	return rec
}

// GetMut returns the record for word's canonical key, if any.
func (t *WordTable) GetMut(word string) (*WordRecord, bool) {
	rec, ok := t.byKey[truncateKey(word)]
	return rec, ok
}

// Count reports the number of distinct words in the table.
func (t *WordTable) Count() int {
	return len(t.byId)
}

// IterWords calls fn for every record in ascending key order.
func (t *WordTable) IterWords(fn func(string, *WordRecord)) {
	keys := make([]string, 0, len(t.byKey))
	for k := range t.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fn(k, t.byKey[k])
	}
}

func (rec *WordRecord) encode() [wordRecordSize]byte {
	var buf [wordRecordSize]byte
	copy(buf[0:wordKeyLen], rec.Key)
	binary.LittleEndian.PutUint32(buf[wordKeyLen:wordKeyLen+4], uint32(rec.Id))
	binary.LittleEndian.PutUint32(buf[wordKeyLen+4:wordKeyLen+8], uint32(rec.ListNr))
	binary.LittleEndian.PutUint32(buf[wordKeyLen+8:wordKeyLen+12], uint32(rec.ListAt))
	return buf
}

func decodeWordRecord(buf [wordRecordSize]byte, loc types.Location) *WordRecord {
	key := string(buf[0:wordKeyLen])
	// trim trailing zero padding
	for len(key) > 0 && key[len(key)-1] == 0 {
		key = key[:len(key)-1]
	}
	return &WordRecord{
		Id:     types.WordId(binary.LittleEndian.Uint32(buf[wordKeyLen : wordKeyLen+4])),
		Key:    key,
		Loc:    loc,
		ListNr: types.BlockNr(binary.LittleEndian.Uint32(buf[wordKeyLen+4 : wordKeyLen+8])),
		ListAt: types.BlkIdx(binary.LittleEndian.Uint32(buf[wordKeyLen+8 : wordKeyLen+12])),
		onDisk: buf,
		hasRec: true,
	}
}

// slotsPerBlock is how many fixed wordRecordSize slots fit in one 4 KiB
// WordList block.
const slotsPerBlock = blockfile.BlockSize / wordRecordSize

// Store flushes new records (Loc.IsZero()) into the next free slot of the
// current append block, allocating a fresh WordList block when full, and
// rewrites in place any existing record whose posting-list head changed
// since it was last persisted (spec §4.3).
func (t *WordTable) Store(bf *blockfile.BlockFile, curBlock types.BlockNr, curSlot int) (types.BlockNr, int, error) {
	var storeErr error
	t.IterWords(func(_ string, rec *WordRecord) {
		if storeErr != nil {
			return
		}
		if rec.Loc.IsZero() {
			if curBlock == 0 || curSlot >= slotsPerBlock {
				blk, err := bf.Alloc(blockfile.TypeWordList)
				if err != nil {
					storeErr = ixerrors.NewBlockFileError("wordtable.store", err)
					return
				}
				curBlock = blk.Nr
				curSlot = 0
			}
			blk, err := bf.GetMut(curBlock)
			if err != nil {
				storeErr = ixerrors.NewBlockFileError("wordtable.store", err)
				return
			}
			enc := rec.encode()
			off := curSlot * wordRecordSize
			copy(blk.Data[off:off+wordRecordSize], enc[:])
			blk.MarkDirty()
			rec.Loc = types.Location{BlockNr: curBlock, BlkIdx: types.BlkIdx(curSlot)}
			rec.onDisk = enc
			rec.hasRec = true
			curSlot++
			return
		}

		enc := rec.encode()
		if rec.hasRec && rec.onDisk == enc {
			return // unchanged since last store
		}
		blk, err := bf.GetMut(rec.Loc.BlockNr)
		if err != nil {
			storeErr = ixerrors.NewBlockFileError("wordtable.store", err)
			return
		}
		off := int(rec.Loc.BlkIdx) * wordRecordSize
		copy(blk.Data[off:off+wordRecordSize], enc[:])
		blk.MarkDirty()
		rec.onDisk = enc
		rec.hasRec = true
	})
	if storeErr != nil {
		return curBlock, curSlot, storeErr
	}
	return curBlock, curSlot, nil
}

// LoadWordTable enumerates every WordList block and decodes each non-empty
// slot, returning the table plus the (block, slot) append cursor to resume
// at for future inserts.
func LoadWordTable(bf *blockfile.BlockFile) (*WordTable, types.BlockNr, int, error) {
	t := NewWordTable()
	var lastBlock types.BlockNr
	lastSlot := 0

	for _, m := range bf.IterMetadata() {
		if m.Type != blockfile.TypeWordList {
			continue
		}
		blk, err := bf.Get(m.Nr)
		if err != nil {
			return nil, 0, 0, ixerrors.NewBlockFileError("wordtable.load", err)
		}
		filled := 0
		for slot := 0; slot < slotsPerBlock; slot++ {
			off := slot * wordRecordSize
			var buf [wordRecordSize]byte
			copy(buf[:], blk.Data[off:off+wordRecordSize])
			if isZeroSlot(buf[:]) {
				continue
			}
			rec := decodeWordRecord(buf, types.Location{BlockNr: m.Nr, BlkIdx: types.BlkIdx(slot)})
			t.byKey[rec.Key] = rec
			t.byId[rec.Id] = rec
			if rec.Id > t.lastId {
				t.lastId = rec.Id
			}
			filled = slot + 1
		}
		if filled < slotsPerBlock {
			lastBlock, lastSlot = m.Nr, filled
		}
	}
	return t, lastBlock, lastSlot, nil
}

func isZeroSlot(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
