package avro

import "encoding/binary"

// writer fills a pre-sized buffer without further allocation. size.go
// computes the exact final length up front so every write here is a plain
// slice copy into already-owned memory.
type writer struct {
	buf []byte
	pos int
}

func newWriter(size int) *writer {
	return &writer{buf: make([]byte, size)}
}

func (w *writer) writeByte(b byte) {
	w.buf[w.pos] = b
	w.pos++
}

func (w *writer) writeBytes(b []byte) {
	w.pos += copy(w.buf[w.pos:], b)
}

func (w *writer) writeVarint(v int64) {
	w.pos += putVarint(w.buf[w.pos:], v)
}

func (w *writer) writeUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.pos:w.pos+4], v)
	w.pos += 4
}

func (w *writer) writeUint64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[w.pos:w.pos+8], v)
	w.pos += 8
}

func (w *writer) bytes() []byte { return w.buf[:w.pos] }
