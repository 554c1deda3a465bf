package blockfile

import (
	"io"

	"github.com/standardbeagle/lciindex/internal/types"
)

// AppendWriter appends bytes into a contiguous run of same-typed blocks,
// allocating a new block whenever the current one fills. It is used by the
// File Table to persist its packed `[id][len][bytes]` stream (spec §4.2).
//
// Callers own the resume cursor: after Load replays a stream up to its
// terminating sentinel, the caller must resume writing from that exact
// position (NewAppendWriter), not from a fresh block — otherwise the
// zero-padding at the tail of the previously-partial block would sit in
// the middle of the stream and strand everything written after restart.
type AppendWriter struct {
	bf  *BlockFile
	typ BlockType
	nr  types.BlockNr
	off int
}

// NewAppendWriter returns a writer appending to the stream of blocks typed
// t, resuming at the given (block, offset). Pass (0, 0) to start a brand
// new stream (the first Write will allocate the first block).
func (bf *BlockFile) NewAppendWriter(t BlockType, at types.BlockNr, atOff types.BlkIdx) *AppendWriter {
	return &AppendWriter{bf: bf, typ: t, nr: at, off: int(atOff)}
}

// AppendStream starts a fresh stream of type t from nothing, for use when
// creating a new index with no prior data of that type.
func (bf *BlockFile) AppendStream(t BlockType) *AppendWriter {
	return bf.NewAppendWriter(t, 0, 0)
}

// Position reports the (BlockNr, BlkIdx) the next byte will land at.
func (w *AppendWriter) Position() (types.BlockNr, types.BlkIdx) {
	if w.nr == 0 {
		return 0, 0
	}
	return w.nr, types.BlkIdx(w.off)
}

// Write implements io.Writer, spilling into newly allocated blocks of the
// stream's type as each fills.
func (w *AppendWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		if w.nr == 0 || w.off >= BlockSize {
			blk, err := w.bf.Alloc(w.typ)
			if err != nil {
				return written, err
			}
			w.nr = blk.Nr
			w.off = 0
		}
		blk, err := w.bf.GetMut(w.nr)
		if err != nil {
			return written, err
		}
		n := copy(blk.Data[w.off:], p)
		blk.MarkDirty()
		w.off += n
		p = p[n:]
		written += n
	}
	return written, nil
}

// streamReader concatenates every block of one type, in allocation order,
// into a single byte stream for ReadStream, tracking the (BlockNr, offset)
// of the next byte so callers can capture a resume cursor mid-scan.
type streamReader struct {
	bf   *BlockFile
	nrs  []types.BlockNr
	i    int
	cur  []byte
	curI int
}

// ReadStream returns a reader over the concatenation of every block of
// type t, in allocation order.
func (bf *BlockFile) ReadStream(t BlockType) *StreamReader {
	var nrs []types.BlockNr
	for _, m := range bf.IterMetadata() {
		if m.Type == t {
			nrs = append(nrs, m.Nr)
		}
	}
	return &StreamReader{r: &streamReader{bf: bf, nrs: nrs}}
}

// StreamReader wraps the internal cursor with a Position method so the
// File Table can record exactly where to resume appending.
type StreamReader struct {
	r *streamReader
}

func (s *StreamReader) Read(p []byte) (int, error) { return s.r.Read(p) }

// Position reports the (BlockNr, BlkIdx) of the next unread byte.
func (s *StreamReader) Position() (types.BlockNr, types.BlkIdx) {
	r := s.r
	if r.i == 0 && r.curI == 0 {
		return 0, 0
	}
	idx := r.i - 1
	if r.curI >= BlockSize && r.i < len(r.nrs) {
		idx = r.i
		return r.nrs[idx], 0
	}
	return r.nrs[idx], types.BlkIdx(r.curI)
}

func (r *streamReader) Read(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		if r.curI >= len(r.cur) {
			if r.i >= len(r.nrs) {
				if total > 0 {
					return total, nil
				}
				return 0, io.EOF
			}
			blk, err := r.bf.Get(r.nrs[r.i])
			if err != nil {
				return total, err
			}
			r.cur = blk.Data[:]
			r.curI = 0
			r.i++
		}
		n := copy(p[total:], r.cur[r.curI:])
		r.curI += n
		total += n
	}
	return total, nil
}
