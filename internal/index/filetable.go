// Package index implements the four persisted record families the facade
// owns (spec §2 components B-E): the file table, word table, posting store
// and bag directory.
package index

import (
	"encoding/binary"
	"io"
	"sort"

	"github.com/standardbeagle/lciindex/internal/blockfile"
	"github.com/standardbeagle/lciindex/internal/ixerrors"
	"github.com/standardbeagle/lciindex/internal/types"
)

// maxNameLen is the spec §3 bound on a FileRecord's UTF-8 name: byte length
// must be strictly less than 65536, since the on-disk length prefix is a
// u16.
const maxNameLen = 65535

// FileRecord is one entry of the file table (spec §3). BlockNr/BlkIdx are
// the position of its append-stream write; zero means "not yet flushed".
type FileRecord struct {
	Id   types.FileId
	Name string
	Loc  types.Location
}

// FileTable is the bidirectional map between FileIds and path strings,
// persisted as a packed append-only byte stream in FileList blocks
// (spec §4.2).
type FileTable struct {
	lastId  types.FileId
	byId    map[types.FileId]*FileRecord
	byName  map[string]types.FileId
	dirty   []types.FileId // records with Loc.IsZero(), pending store
	cursorN types.BlockNr  // append-stream resume position
	cursorO types.BlkIdx
}

// NewFileTable returns an empty table, ready for a brand-new index.
func NewFileTable() *FileTable {
	return &FileTable{
		byId:   make(map[types.FileId]*FileRecord),
		byName: make(map[string]types.FileId),
	}
}

// Add allocates the next FileId for name and inserts an unflushed record.
// The caller must have already checked Have(name) if dedup is desired;
// Add itself does not dedupe (the walker is expected to snapshot names).
func (t *FileTable) Add(name string) (types.FileId, error) {
	if len(name) > maxNameLen {
		return 0, ixerrors.NewIoError("add_file", name, errNameTooLong)
	}
	t.lastId = t.lastId.Next()
	rec := &FileRecord{Id: t.lastId, Name: name}
	t.byId[rec.Id] = rec
	t.byName[name] = rec.Id
	t.dirty = append(t.dirty, rec.Id)
	return rec.Id, nil
}

// Have reports whether name is already present.
func (t *FileTable) Have(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Get returns the name for id, if any.
func (t *FileTable) Get(id types.FileId) (string, bool) {
	rec, ok := t.byId[id]
	if !ok {
		return "", false
	}
	return rec.Name, true
}

// Remove deletes the in-memory entry for name (spec §3 remove_file: logical
// deletion only, no posting-chain rewrite).
func (t *FileTable) Remove(name string) {
	id, ok := t.byName[name]
	if !ok {
		return
	}
	delete(t.byName, name)
	delete(t.byId, id)
}

// Iter calls fn for every record in ascending FileId order.
func (t *FileTable) Iter(fn func(types.FileId, *FileRecord)) {
	ids := make([]types.FileId, 0, len(t.byId))
	for id := range t.byId {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn(id, t.byId[id])
	}
}

// Store appends every unflushed record to the FileList stream, resuming at
// the table's saved cursor rather than starting a fresh block (spec §4.2).
func (t *FileTable) Store(bf *blockfile.BlockFile) error {
	if len(t.dirty) == 0 {
		return nil
	}
	w := bf.NewAppendWriter(blockfile.TypeFileList, t.cursorN, t.cursorO)
	for _, id := range t.dirty {
		rec, ok := t.byId[id]
		if !ok {
			continue // removed before flush
		}
		nameBytes := []byte(rec.Name)
		header := make([]byte, 6)
		binary.LittleEndian.PutUint32(header[0:4], uint32(rec.Id))
		binary.LittleEndian.PutUint16(header[4:6], uint16(len(nameBytes)))

		nr, off := w.Position()
		if _, err := w.Write(header); err != nil {
			return ixerrors.NewBlockFileError("filetable.store", err)
		}
		if _, err := w.Write(nameBytes); err != nil {
			return ixerrors.NewBlockFileError("filetable.store", err)
		}
		rec.Loc = types.Location{BlockNr: nr, BlkIdx: off}
	}
	t.cursorN, t.cursorO = w.Position()
	t.dirty = t.dirty[:0]
	return nil
}

// LoadFileTable replays the FileList stream, stopping at the id=0
// sentinel, and returns a table positioned to resume appending exactly
// where the stream left off.
func LoadFileTable(bf *blockfile.BlockFile) (*FileTable, error) {
	t := NewFileTable()
	r := bf.ReadStream(blockfile.TypeFileList)

	header := make([]byte, 6)
	for {
		nr, off := r.Position()
		if _, err := io.ReadFull(r, header); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				t.cursorN, t.cursorO = nr, off
				break
			}
			return nil, ixerrors.NewBlockFileError("filetable.load", err)
		}
		id := types.FileId(binary.LittleEndian.Uint32(header[0:4]))
		if id == 0 {
			t.cursorN, t.cursorO = nr, off
			break
		}
		nameLen := binary.LittleEndian.Uint16(header[4:6])
		nameBytes := make([]byte, nameLen)
		if _, err := io.ReadFull(r, nameBytes); err != nil {
			return nil, ixerrors.NewBlockFileError("filetable.load", err)
		}
		if !stringIsValidUTF8(nameBytes) {
			return nil, ixerrors.NewUtf8Error("filetable.load", nameBytes)
		}
		recNr, recOff := nr, off
		rec := &FileRecord{Id: id, Name: string(nameBytes), Loc: types.Location{BlockNr: recNr, BlkIdx: recOff}}
		t.byId[id] = rec
		t.byName[rec.Name] = id
		if id > t.lastId {
			t.lastId = id
		}
	}
	return t, nil
}
