package index

import (
	"errors"
	"fmt"

	"chronoscope-go/internal/common"
	"chronoscope-go/internal/common/math"
	"chronoscope-go/internal/landmark"
)

var (
	ErrInvalidHNSWParams    = errors.New("invalid HNSW parameters")
	ErrUnsupportedIndexType = errors.New("unsupported index type")
	ErrEmptyCatalog         = errors.New("catalog has no entries")
	ErrDimensionMismatch    = errors.New("embedding dimension mismatch")
	ErrIndexNotReady        = errors.New("index has not been built")
	ErrInvalidK             = errors.New("k must be at least 1")
)

// Index answers k-nearest-neighbor queries by inner product over a catalog
// that is built once and never mutated afterwards.
type Index interface {
	Build(catalog *landmark.Catalog) error
	Search(query *SearchQuery, k int) (*SearchResult, error)
	Size() int
	Dim() int
}

func NewIndex(params common.IndexParams) (Index, error) {
	switch params.IndexType {
	case common.IndexTypeFlat, "":
		return NewFlatIndex(params.Dim), nil
	case common.IndexTypeHnsw:
		if params.HnswParams == nil {
			return nil, ErrInvalidHNSWParams
		}
		return NewHNSWIndex(params.Dim, params.HnswParams.EFConstruction, params.HnswParams.M)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedIndexType, params.IndexType)
	}
}

// Match is one ranked catalog entry
type Match struct {
	Position   int64   `json:"position"`
	LandmarkID string  `json:"landmark_id"`
	Score      float32 `json:"score"`
}

type SearchResult struct {
	Matches []Match
}

// Top returns the best match, if any
func (r *SearchResult) Top() (Match, bool) {
	if r == nil || len(r.Matches) == 0 {
		return Match{}, false
	}
	return r.Matches[0], true
}

// prepareCatalog validates the catalog against the expected dimension
// (0 accepts whatever the first entry has) and packs a normalized copy.
func prepareCatalog(catalog *landmark.Catalog, dim int) (*math.Matrix32, []string, error) {
	if catalog.Len() == 0 {
		return nil, nil, ErrEmptyCatalog
	}
	if dim == 0 {
		dim = catalog.Dim()
	}
	if dim == 0 {
		return nil, nil, fmt.Errorf("%w: entry 0 has no components", ErrDimensionMismatch)
	}

	mat := math.NewMatrix32Empty(catalog.Len(), dim)
	names := make([]string, catalog.Len())
	for i, entry := range catalog.Entries {
		if len(entry.Embedding) != dim {
			return nil, nil, fmt.Errorf("%w: entry %d (%s) has %d, expected %d",
				ErrDimensionMismatch, i, entry.ID, len(entry.Embedding), dim)
		}
		copy(mat.Row(i), entry.Embedding)
		names[i] = entry.ID
	}
	mat.NormalizeRows()

	return mat, names, nil
}
