package ocf

import (
	"bytes"
	"crypto/rand"
	"io"

	"github.com/rs/zerolog"

	"github.com/avrolib/avro"
)

// Magic is the four-byte OCF file header.
var Magic = [4]byte{'O', 'b', 'j', 0x01}

var metadataSchema = avro.NewMapSchema(avro.NewPrimitiveSchema(avro.Bytes, nil))

const defaultBlockSoftCap = 64 * 1024

// WriterOptions configures NewWriter. A zero value selects the null codec, a
// 64 KiB block soft cap, a random sync marker, and a no-op logger.
type WriterOptions struct {
	Codec            string
	BlockSizeSoftCap int
	SyncMarker       *[16]byte
	ExtraMetadata    map[string][]byte

	// Logger receives block-flush and codec-selection diagnostics. Nil
	// (the zero value) disables logging; the core codec stays silent
	// regardless, only this file-level engine emits anything.
	Logger *zerolog.Logger
}

// Writer buffers encoded rows into blocks and flushes them through the
// configured codec, per the OCF writer contract.
type Writer struct {
	sink     io.Writer
	schema   avro.Schema
	codec    Codec
	sync     [16]byte
	softCap  int
	buf      bytes.Buffer
	rowCount int64
	closed   bool
	logger   zerolog.Logger
}

// NewWriter opens an OCF stream on sink: writes the magic header, the
// metadata map (avro.schema + avro.codec, plus any ExtraMetadata), and the
// sync marker.
func NewWriter(sink io.Writer, schema avro.Schema, opts WriterOptions) (*Writer, error) {
	codecName := opts.Codec
	if codecName == "" {
		codecName = "null"
	}
	codec, err := CodecByName(codecName)
	if err != nil {
		return nil, err
	}
	softCap := opts.BlockSizeSoftCap
	if softCap <= 0 {
		softCap = defaultBlockSoftCap
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	w := &Writer{sink: sink, schema: schema, codec: codec, softCap: softCap, logger: logger}
	if opts.SyncMarker != nil {
		w.sync = *opts.SyncMarker
	} else if _, err := rand.Read(w.sync[:]); err != nil {
		return nil, err
	}
	logger.Debug().Str("codec", codecName).Int("block_size_soft_cap", softCap).Msg("opened ocf writer")

	if _, err := sink.Write(Magic[:]); err != nil {
		return nil, err
	}

	metadata := map[string][]byte{
		"avro.schema": []byte(schema.String()),
		"avro.codec":  []byte(codecName),
	}
	for k, v := range opts.ExtraMetadata {
		metadata[k] = v
	}
	metaBytes, err := avro.Marshal(metadataSchema, metadata)
	if err != nil {
		return nil, err
	}
	if _, err := sink.Write(metaBytes); err != nil {
		return nil, err
	}
	if _, err := sink.Write(w.sync[:]); err != nil {
		return nil, err
	}
	return w, nil
}

// WriteRow buffers value's encoding into the current block, flushing the
// block first if it would exceed the configured soft cap.
func (w *Writer) WriteRow(value interface{}) error {
	encoded, err := avro.Marshal(w.schema, value)
	if err != nil {
		return err
	}
	if w.buf.Len() > 0 && w.buf.Len()+len(encoded) > w.softCap {
		if err := w.flush(); err != nil {
			return err
		}
	}
	w.buf.Write(encoded)
	w.rowCount++
	return nil
}

func (w *Writer) flush() error {
	if w.rowCount == 0 {
		return nil
	}
	compressed, err := w.codec.Compress(w.buf.Bytes())
	if err != nil {
		return err
	}

	head := make([]byte, 20)
	n := avro.PutVarint(head, w.rowCount)
	n += avro.PutVarint(head[n:], int64(len(compressed)))
	if _, err := w.sink.Write(head[:n]); err != nil {
		return err
	}
	if _, err := w.sink.Write(compressed); err != nil {
		return err
	}
	if _, err := w.sink.Write(w.sync[:]); err != nil {
		return err
	}

	w.logger.Debug().Int64("rows", w.rowCount).Int("compressed_bytes", len(compressed)).Msg("flushed ocf block")
	w.buf.Reset()
	w.rowCount = 0
	return nil
}

// Close flushes any partial block. The writer must not be used afterward.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.flush()
	w.logger.Debug().Msg("closed ocf writer")
	return err
}

// WriteTable opens sink, writes every row in rows, and closes the writer.
func WriteTable(sink io.Writer, schema avro.Schema, rows []interface{}, opts WriterOptions) error {
	w, err := NewWriter(sink, schema, opts)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	return w.Close()
}

// WriteTableFunc is WriteTable for a streaming row source: next returns one
// row and ok=false once exhausted.
func WriteTableFunc(sink io.Writer, schema avro.Schema, next func() (row interface{}, ok bool, err error), opts WriterOptions) error {
	w, err := NewWriter(sink, schema, opts)
	if err != nil {
		return err
	}
	for {
		row, ok, err := next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	return w.Close()
}
