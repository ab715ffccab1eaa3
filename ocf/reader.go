package ocf

import (
	"bytes"
	"io"

	"github.com/rs/zerolog"

	"github.com/avrolib/avro"
)

// ReaderOptions configures OpenReader. A zero value selects a no-op logger.
type ReaderOptions struct {
	// Logger receives codec-selection and file-open diagnostics.
	Logger *zerolog.Logger
}

// OpenReader validates the magic header, parses the metadata map, extracts
// the writer schema and codec name, and reads the sync marker. The returned
// Table lazily indexes blocks on first use. opts is optional; at most the
// first entry is used.
func OpenReader(source io.Reader, opts ...ReaderOptions) (*Table, error) {
	logger := zerolog.Nop()
	if len(opts) > 0 && opts[0].Logger != nil {
		logger = *opts[0].Logger
	}

	all, err := io.ReadAll(source)
	if err != nil {
		return nil, err
	}
	if len(all) < 4 || !bytes.Equal(all[:4], Magic[:]) {
		return nil, avro.NewError(avro.ErrBadMagic, "missing Obj\\x01 magic header")
	}
	pos := 4

	var metadata map[string][]byte
	consumed, err := avro.UnmarshalPrefix(metadataSchema, all[pos:], &metadata)
	if err != nil {
		return nil, err
	}
	pos += consumed

	if len(all) < pos+16 {
		return nil, avro.NewError(avro.ErrTruncated, "file ends before sync marker")
	}
	var sync [16]byte
	copy(sync[:], all[pos:pos+16])
	pos += 16

	schemaJSON, ok := metadata["avro.schema"]
	if !ok {
		return nil, avro.NewError(avro.ErrSchemaMismatch, "metadata is missing required key \"avro.schema\"")
	}
	schema, err := avro.Parse(string(schemaJSON))
	if err != nil {
		return nil, err
	}

	codecName := "null"
	if cn, ok := metadata["avro.codec"]; ok {
		codecName = string(cn)
	}
	if _, err := CodecByName(codecName); err != nil {
		return nil, err
	}
	logger.Debug().Str("codec", codecName).Int("blocks_bytes", len(all)-pos).Msg("opened ocf file")

	return &Table{
		schema:    schema,
		codecName: codecName,
		sync:      sync,
		metadata:  metadata,
		data:      all[pos:],
	}, nil
}
