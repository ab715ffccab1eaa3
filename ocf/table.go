package ocf

import (
	"bytes"

	"github.com/avrolib/avro"
)

// blockEntry records where one block's compressed payload lives within
// Table.data, and the cumulative row index of its first row.
type blockEntry struct {
	dataOffset    int
	compressedLen int
	rowCount      int64
	rowStart      int64
}

// Table is a lazy, randomly-addressable view over an OCF file's rows.
type Table struct {
	schema    avro.Schema
	codecName string
	sync      [16]byte
	metadata  map[string][]byte
	data      []byte

	blocks  []blockEntry
	indexed bool
}

// Schema returns the embedded writer schema.
func (t *Table) Schema() avro.Schema { return t.schema }

// Metadata returns the OCF metadata map, including avro.schema and avro.codec.
func (t *Table) Metadata() map[string][]byte { return t.metadata }

// ensureIndex walks the block framing once, validating each block's sync
// marker and recording (offset, row_count) so RowAt can seek directly to the
// block containing row i.
func (t *Table) ensureIndex() error {
	if t.indexed {
		return nil
	}
	pos := 0
	var rowStart int64
	for pos < len(t.data) {
		rowCount, n, err := avro.GetVarint(t.data[pos:])
		if err != nil {
			return err
		}
		pos += n
		if rowCount <= 0 {
			return avro.NewError(avro.ErrTruncated, "block declares a non-positive row count")
		}

		compLen, n2, err := avro.GetVarint(t.data[pos:])
		if err != nil {
			return err
		}
		pos += n2
		if compLen < 0 || pos+int(compLen)+16 > len(t.data) {
			return avro.NewError(avro.ErrTruncated, "block declares more data than the file contains")
		}

		dataOffset := pos
		pos += int(compLen)
		if !bytes.Equal(t.data[pos:pos+16], t.sync[:]) {
			return avro.NewError(avro.ErrCorruptSync, "block sync marker does not match the file's sync marker")
		}
		pos += 16

		t.blocks = append(t.blocks, blockEntry{
			dataOffset:    dataOffset,
			compressedLen: int(compLen),
			rowCount:      rowCount,
			rowStart:      rowStart,
		})
		rowStart += rowCount
	}
	t.indexed = true
	return nil
}

// Len returns the total row count across all blocks, building the block
// index on first call.
func (t *Table) Len() (int64, error) {
	if err := t.ensureIndex(); err != nil {
		return 0, err
	}
	var n int64
	for _, b := range t.blocks {
		n += b.rowCount
	}
	return n, nil
}

// RowAt decodes row i as a generic value tree, locating its block via the
// index and skipping (i - block_start) rows with the skip operation.
func (t *Table) RowAt(i int64) (interface{}, error) {
	if err := t.ensureIndex(); err != nil {
		return nil, err
	}
	for _, b := range t.blocks {
		if i < b.rowStart || i >= b.rowStart+b.rowCount {
			continue
		}
		raw, err := t.decodeBlock(b)
		if err != nil {
			return nil, err
		}
		pos := 0
		for j := int64(0); j < i-b.rowStart; j++ {
			n, err := avro.SkipPrefix(t.schema, raw[pos:])
			if err != nil {
				return nil, err
			}
			pos += n
		}
		v, _, err := avro.ReadPrefix(t.schema, raw[pos:])
		return v, err
	}
	return nil, avro.NewError(avro.ErrSchemaMismatch, "row index %d out of range", i)
}

// ForEach decodes every row in file order, invoking fn for each, without
// materializing the full table in memory.
func (t *Table) ForEach(fn func(row interface{}) error) error {
	if err := t.ensureIndex(); err != nil {
		return err
	}
	for _, b := range t.blocks {
		raw, err := t.decodeBlock(b)
		if err != nil {
			return err
		}
		pos := 0
		for j := int64(0); j < b.rowCount; j++ {
			v, n, err := avro.ReadPrefix(t.schema, raw[pos:])
			if err != nil {
				return err
			}
			pos += n
			if err := fn(v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Table) decodeBlock(b blockEntry) ([]byte, error) {
	codec, err := CodecByName(t.codecName)
	if err != nil {
		return nil, err
	}
	return codec.Decompress(t.data[b.dataOffset : b.dataOffset+b.compressedLen])
}
