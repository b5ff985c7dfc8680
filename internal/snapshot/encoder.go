package snapshot

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	commonMath "chronoscope-go/internal/common/math"
	"chronoscope-go/internal/landmark"
)

// Binary snapshot format:
// [4 bytes: magic "LMKS"]
// [4 bytes: format version]
// [4 bytes: N entries]
// [4 bytes: D dimension]
// N x ([4 bytes: name length][name bytes])
// [N * D * 4 bytes: embeddings, row-major]
// [4 bytes: CRC32 of everything after the magic]

const (
	FormatVersion uint32 = 1

	EncoderBinary = "binary"
	EncoderJSON   = "json"
)

var (
	magic = []byte("LMKS")

	ErrCorruptSnapshot    = errors.New("corrupt snapshot")
	ErrUnsupportedEncoder = errors.New("unsupported snapshot encoder")
)

// Encoder reads and writes a catalog as landmark_names plus an (N, D)
// embeddings matrix
type Encoder interface {
	Encode(writer io.Writer, catalog *landmark.Catalog) error
	Decode(reader *bufio.Reader) (*landmark.Catalog, error)
	Name() string
}

func EncoderFactory(encoderType string) (Encoder, error) {
	switch encoderType {
	case EncoderBinary, "":
		return NewBinaryEncoder(), nil
	case EncoderJSON:
		return NewJSONEncoder(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoder, encoderType)
	}
}

// Sniff picks the decoder matching the first bytes of reader without
// consuming them
func Sniff(reader *bufio.Reader) Encoder {
	head, err := reader.Peek(len(magic))
	if err == nil && bytes.Equal(head, magic) {
		return NewBinaryEncoder()
	}
	return NewJSONEncoder()
}

func catalogDim(catalog *landmark.Catalog) (int, error) {
	dim := catalog.Dim()
	for i, e := range catalog.Entries {
		if len(e.Embedding) != dim {
			return 0, fmt.Errorf("entry %d (%s) has dimension %d, expected %d", i, e.ID, len(e.Embedding), dim)
		}
	}
	return dim, nil
}

// BinaryEncoder implements the compact format with a CRC32 trailer
type BinaryEncoder struct{}

func NewBinaryEncoder() *BinaryEncoder {
	return &BinaryEncoder{}
}

func (e *BinaryEncoder) Name() string {
	return EncoderBinary
}

func (e *BinaryEncoder) Encode(writer io.Writer, catalog *landmark.Catalog) error {
	dim, err := catalogDim(catalog)
	if err != nil {
		return err
	}

	if _, err := writer.Write(magic); err != nil {
		return err
	}

	crc := crc32.NewIEEE()
	multiWriter := io.MultiWriter(writer, crc)

	header := []uint32{FormatVersion, uint32(catalog.Len()), uint32(dim)}
	if err := binary.Write(multiWriter, binary.BigEndian, header); err != nil {
		return err
	}

	for _, entry := range catalog.Entries {
		if err := binary.Write(multiWriter, binary.BigEndian, uint32(len(entry.ID))); err != nil {
			return err
		}
		if _, err := io.WriteString(multiWriter, entry.ID); err != nil {
			return err
		}
	}

	row := make([]byte, 4*dim)
	for _, entry := range catalog.Entries {
		for j, val := range entry.Embedding {
			binary.BigEndian.PutUint32(row[j*4:], math.Float32bits(val))
		}
		if _, err := multiWriter.Write(row); err != nil {
			return err
		}
	}

	return binary.Write(writer, binary.BigEndian, crc.Sum32())
}

func (e *BinaryEncoder) Decode(reader *bufio.Reader) (*landmark.Catalog, error) {
	head := make([]byte, len(magic))
	if _, err := io.ReadFull(reader, head); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	if !bytes.Equal(head, magic) {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptSnapshot, head)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if len(body) < 16 {
		return nil, fmt.Errorf("%w: snapshot too short", ErrCorruptSnapshot)
	}

	dataBytes := body[:len(body)-4]
	expectedChecksum := binary.BigEndian.Uint32(body[len(body)-4:])
	if actual := crc32.ChecksumIEEE(dataBytes); actual != expectedChecksum {
		return nil, fmt.Errorf("%w: checksum mismatch: expected %d, got %d", ErrCorruptSnapshot, expectedChecksum, actual)
	}

	r := &byteReader{data: dataBytes}
	version := r.uint32()
	n := int(r.uint32())
	dim := int(r.uint32())
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, version)
	}
	if n > len(dataBytes) || dim > len(dataBytes) {
		return nil, fmt.Errorf("%w: header claims %d x %d", ErrCorruptSnapshot, n, dim)
	}

	names := make([]string, n)
	for i := range names {
		names[i] = string(r.bytes(int(r.uint32())))
	}

	vectors := make([][]float32, n)
	for i := range vectors {
		raw := r.bytes(4 * dim)
		if raw == nil && dim > 0 {
			break
		}
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.BigEndian.Uint32(raw[j*4:]))
		}
		vectors[i] = vec
	}

	if r.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, r.err)
	}
	if r.off != len(dataBytes) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptSnapshot, len(dataBytes)-r.off)
	}

	return landmark.NewCatalog(names, vectors), nil
}

// byteReader walks a buffer and records the first overrun
type byteReader struct {
	data []byte
	off  int
	err  error
}

func (r *byteReader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = fmt.Errorf("unexpected end of data at offset %d", r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *byteReader) uint32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// JSONEncoder implements a human-readable encoding for inspection
type JSONEncoder struct{}

type jsonSnapshot struct {
	Version       uint32               `json:"version"`
	LandmarkNames []string             `json:"landmark_names"`
	Embeddings    *commonMath.Matrix32 `json:"embeddings"`
}

func NewJSONEncoder() *JSONEncoder {
	return &JSONEncoder{}
}

func (e *JSONEncoder) Name() string {
	return EncoderJSON
}

func (e *JSONEncoder) Encode(writer io.Writer, catalog *landmark.Catalog) error {
	if _, err := catalogDim(catalog); err != nil {
		return err
	}
	embeddings, err := commonMath.NewMatrix32FromRows(catalog.Vectors())
	if err != nil {
		return err
	}

	doc := jsonSnapshot{
		Version:       FormatVersion,
		LandmarkNames: catalog.Names(),
		Embeddings:    embeddings,
	}
	jsonBytes, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = fmt.Fprintf(writer, "%s\n", jsonBytes)
	return err
}

func (e *JSONEncoder) Decode(reader *bufio.Reader) (*landmark.Catalog, error) {
	var doc jsonSnapshot
	if err := json.NewDecoder(reader).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, doc.Version)
	}
	if doc.Embeddings == nil {
		doc.Embeddings = commonMath.NewMatrix32Empty(0, 0)
	}
	if len(doc.LandmarkNames) != doc.Embeddings.Rows {
		return nil, fmt.Errorf("%w: %d names for %d embeddings", ErrCorruptSnapshot, len(doc.LandmarkNames), doc.Embeddings.Rows)
	}

	return landmark.NewCatalog(doc.LandmarkNames, doc.Embeddings.ToRows()), nil
}
