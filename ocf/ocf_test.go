package ocf

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"

	"github.com/avrolib/avro"
	"github.com/stretchr/testify/require"
)

func widgetSchema(t *testing.T) *avro.RecordSchema {
	t.Helper()
	fields := []*avro.Field{
		avro.NewField("id", avro.NewPrimitiveSchema(avro.Long, nil), false, nil, 0),
		avro.NewField("name", avro.NewPrimitiveSchema(avro.String, nil), false, nil, 1),
	}
	s, err := avro.NewRecordSchema("Widget", "", fields)
	require.NoError(t, err)
	return s
}

func TestWriteOpenRoundTripNullCodec(t *testing.T) {
	schema := widgetSchema(t)
	var buf bytes.Buffer

	w, err := NewWriter(&buf, schema, WriterOptions{})
	require.NoError(t, err)
	for i := int64(0); i < 5; i++ {
		row := map[string]interface{}{"id": i, "name": "widget"}
		require.NoError(t, w.WriteRow(row))
	}
	require.NoError(t, w.Close())

	require.True(t, bytes.HasPrefix(buf.Bytes(), Magic[:]))

	table, err := OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	n, err := table.Len()
	require.NoError(t, err)
	require.EqualValues(t, 5, n)

	row2, err := table.RowAt(2)
	require.NoError(t, err)
	m, ok := row2.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, int64(2), m["id"])
	require.Equal(t, "widget", m["name"])

	var seen []int64
	err = table.ForEach(func(row interface{}) error {
		m := row.(map[string]interface{})
		seen = append(seen, m["id"].(int64))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1, 2, 3, 4}, seen)
}

func TestWriteOpenRoundTripDeflateCodec(t *testing.T) {
	schema := widgetSchema(t)
	var buf bytes.Buffer

	w, err := NewWriter(&buf, schema, WriterOptions{Codec: "deflate"})
	require.NoError(t, err)
	for i := int64(0); i < 3; i++ {
		row := map[string]interface{}{"id": i, "name": "foo"}
		require.NoError(t, w.WriteRow(row))
	}
	require.NoError(t, w.Close())

	table, err := OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, "deflate", string(table.Metadata()["avro.codec"]))

	n, err := table.Len()
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func TestWriteTableMultiBlockSoftCap(t *testing.T) {
	schema := widgetSchema(t)
	var buf bytes.Buffer

	rows := make([]interface{}, 0, 50)
	for i := int64(0); i < 50; i++ {
		rows = append(rows, map[string]interface{}{"id": i, "name": "abcdefghij"})
	}
	require.NoError(t, WriteTable(&buf, schema, rows, WriterOptions{BlockSizeSoftCap: 64}))

	table, err := OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	n, err := table.Len()
	require.NoError(t, err)
	require.EqualValues(t, 50, n)

	require.NoError(t, table.ensureIndex())
	require.Greater(t, len(table.blocks), 1, "soft cap of 64 bytes must force more than one block across 50 rows")

	last, err := table.RowAt(49)
	require.NoError(t, err)
	require.Equal(t, int64(49), last.(map[string]interface{})["id"])
}

func TestOpenReaderRejectsBadMagic(t *testing.T) {
	_, err := OpenReader(bytes.NewReader([]byte("not an ocf file at all")))
	require.Error(t, err)
	var avroErr *avro.Error
	require.ErrorAs(t, err, &avroErr)
	require.Equal(t, avro.ErrBadMagic, avroErr.Kind)
}

func TestOpenReaderRejectsUnknownCodec(t *testing.T) {
	schema := widgetSchema(t)
	var buf bytes.Buffer
	w, err := NewWriter(&buf, schema, WriterOptions{})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	corrupted := bytes.Replace(buf.Bytes(), []byte("null"), []byte("nope"), 1)
	_, err = OpenReader(bytes.NewReader(corrupted))
	require.Error(t, err)
	var avroErr *avro.Error
	require.ErrorAs(t, err, &avroErr)
	require.Equal(t, avro.ErrUnknownCodec, avroErr.Kind)
}

func TestTableRejectsCorruptSyncMarker(t *testing.T) {
	schema := widgetSchema(t)
	var buf bytes.Buffer
	w, err := NewWriter(&buf, schema, WriterOptions{})
	require.NoError(t, err)
	require.NoError(t, w.WriteRow(map[string]interface{}{"id": int64(1), "name": "x"}))
	require.NoError(t, w.Close())

	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xff

	table, err := OpenReader(bytes.NewReader(corrupted))
	require.NoError(t, err)
	_, err = table.Len()
	require.Error(t, err)
	var avroErr *avro.Error
	require.ErrorAs(t, err, &avroErr)
	require.Equal(t, avro.ErrCorruptSync, avroErr.Kind)
}

func TestCodecByNameUnknown(t *testing.T) {
	_, err := CodecByName("not-a-codec")
	require.Error(t, err)
	var avroErr *avro.Error
	require.ErrorAs(t, err, &avroErr)
	require.Equal(t, avro.ErrUnknownCodec, avroErr.Kind)
}

func TestEveryRegisteredCodecRoundTrips(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated. the quick brown fox jumps over the lazy dog.")
	for _, name := range []string{"null", "deflate", "bzip2", "xz", "zstd"} {
		name := name
		t.Run(name, func(t *testing.T) {
			c, err := CodecByName(name)
			require.NoError(t, err)
			compressed, err := c.Compress(payload)
			require.NoError(t, err)
			decompressed, err := c.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, payload, decompressed)
		})
	}
}

func TestWriterGeneratesRandomSyncMarkerByDefault(t *testing.T) {
	schema := widgetSchema(t)
	var buf1, buf2 bytes.Buffer
	w1, err := NewWriter(&buf1, schema, WriterOptions{})
	require.NoError(t, err)
	require.NoError(t, w1.Close())
	w2, err := NewWriter(&buf2, schema, WriterOptions{})
	require.NoError(t, err)
	require.NoError(t, w2.Close())

	require.NotEqual(t, w1.sync, w2.sync)
}

func TestWriterAndReaderLogToProvidedLogger(t *testing.T) {
	schema := widgetSchema(t)
	var logs bytes.Buffer
	logger := zerolog.New(&logs).Level(zerolog.DebugLevel)
	var buf bytes.Buffer

	w, err := NewWriter(&buf, schema, WriterOptions{Logger: &logger})
	require.NoError(t, err)
	require.NoError(t, w.WriteRow(map[string]interface{}{"id": int64(1), "name": "x"}))
	require.NoError(t, w.Close())
	require.Contains(t, logs.String(), "opened ocf writer")
	require.Contains(t, logs.String(), "flushed ocf block")

	logs.Reset()
	_, err = OpenReader(bytes.NewReader(buf.Bytes()), ReaderOptions{Logger: &logger})
	require.NoError(t, err)
	require.Contains(t, logs.String(), "opened ocf file")
}

func TestNewWriterHonorsExplicitSyncMarker(t *testing.T) {
	schema := widgetSchema(t)
	var sync [16]byte
	for i := range sync {
		sync[i] = byte(i)
	}
	var buf bytes.Buffer
	w, err := NewWriter(&buf, schema, WriterOptions{SyncMarker: &sync})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	table, err := OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, sync, table.sync)
}
