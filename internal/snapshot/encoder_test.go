package snapshot

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronoscope-go/internal/landmark"
)

func createTestCatalog() *landmark.Catalog {
	return landmark.NewCatalog(
		[]string{"Taj Mahal", "Eiffel Tower", "Notre-Dame Cathedral"},
		[][]float32{
			{1.0, 0.0, 0.0},
			{0.0, 0.6, 0.8},
			{-0.5, 0.5, 0.70710677},
		},
	)
}

func TestEncoderRoundTrip(t *testing.T) {
	encoders := []Encoder{NewBinaryEncoder(), NewJSONEncoder()}

	for _, encoder := range encoders {
		t.Run(encoder.Name(), func(t *testing.T) {
			catalog := createTestCatalog()

			var buf bytes.Buffer
			require.NoError(t, encoder.Encode(&buf, catalog))

			decoded, err := encoder.Decode(bufio.NewReader(&buf))
			require.NoError(t, err)

			assert.Equal(t, catalog.Names(), decoded.Names())
			assert.Equal(t, catalog.Vectors(), decoded.Vectors())
		})
	}
}

func TestEncoderEmptyCatalog(t *testing.T) {
	for _, encoder := range []Encoder{NewBinaryEncoder(), NewJSONEncoder()} {
		t.Run(encoder.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, encoder.Encode(&buf, &landmark.Catalog{}))

			decoded, err := encoder.Decode(bufio.NewReader(&buf))
			require.NoError(t, err)
			assert.Equal(t, 0, decoded.Len())
		})
	}
}

func TestEncoderRejectsRaggedCatalog(t *testing.T) {
	catalog := &landmark.Catalog{}
	catalog.Append("a", []float32{1, 2})
	catalog.Append("b", []float32{1, 2, 3})

	for _, encoder := range []Encoder{NewBinaryEncoder(), NewJSONEncoder()} {
		var buf bytes.Buffer
		assert.Error(t, encoder.Encode(&buf, catalog), encoder.Name())
	}
}

func TestBinaryEncoderDetectsCorruption(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewBinaryEncoder().Encode(&buf, createTestCatalog()))
	original := buf.Bytes()

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"flipped payload byte", func(b []byte) []byte {
			b[20] ^= 0xFF
			return b
		}},
		{"truncated", func(b []byte) []byte {
			return b[:len(b)-9]
		}},
		{"bad magic", func(b []byte) []byte {
			copy(b, "XXXX")
			return b
		}},
		{"only magic", func(b []byte) []byte {
			return b[:4]
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), original...))
			_, err := NewBinaryEncoder().Decode(bufio.NewReader(bytes.NewReader(data)))
			assert.ErrorIs(t, err, ErrCorruptSnapshot)
		})
	}
}

func TestJSONEncoderValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"names and rows differ", `{"version":1,"landmark_names":["a","b"],"embeddings":[[1,0]]}`},
		{"ragged rows", `{"version":1,"landmark_names":["a","b"],"embeddings":[[1,0],[1]]}`},
		{"wrong version", `{"version":9,"landmark_names":[],"embeddings":[]}`},
		{"not json", `=== nope ===`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJSONEncoder().Decode(bufio.NewReader(strings.NewReader(tt.doc)))
			assert.ErrorIs(t, err, ErrCorruptSnapshot)
		})
	}
}

func TestJSONEncoderOutputIsReadable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONEncoder().Encode(&buf, createTestCatalog()))

	out := buf.String()
	assert.Contains(t, out, `"landmark_names"`)
	assert.Contains(t, out, `"Eiffel Tower"`)
	assert.Contains(t, out, `"embeddings"`)
}

func TestEncoderFactoryAndSniff(t *testing.T) {
	enc, err := EncoderFactory("json")
	require.NoError(t, err)
	assert.Equal(t, EncoderJSON, enc.Name())

	enc, err = EncoderFactory("")
	require.NoError(t, err)
	assert.Equal(t, EncoderBinary, enc.Name())

	_, err = EncoderFactory("pickle")
	assert.ErrorIs(t, err, ErrUnsupportedEncoder)

	var bin, js bytes.Buffer
	require.NoError(t, NewBinaryEncoder().Encode(&bin, createTestCatalog()))
	require.NoError(t, NewJSONEncoder().Encode(&js, createTestCatalog()))

	assert.Equal(t, EncoderBinary, Sniff(bufio.NewReader(&bin)).Name())
	assert.Equal(t, EncoderJSON, Sniff(bufio.NewReader(&js)).Name())
	assert.Equal(t, EncoderJSON, Sniff(bufio.NewReader(strings.NewReader(""))).Name())
}
