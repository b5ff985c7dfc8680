package index

import (
	"fmt"

	"chronoscope-go/internal/common/math"
	"chronoscope-go/internal/landmark"
)

// FlatIndex is an exact linear scan. It is immutable after Build, so
// concurrent searches need no locking.
type FlatIndex struct {
	dim     int
	vectors *math.Matrix32
	names   []string
}

var _ Index = (*FlatIndex)(nil)

// NewFlatIndex creates an unbuilt index. dim 0 takes the dimension of the
// first catalog entry.
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

func (fi *FlatIndex) Build(catalog *landmark.Catalog) error {
	vectors, names, err := prepareCatalog(catalog, fi.dim)
	if err != nil {
		return err
	}
	fi.vectors = vectors
	fi.names = names
	fi.dim = vectors.Cols
	return nil
}

func (fi *FlatIndex) Search(query *SearchQuery, k int) (*SearchResult, error) {
	if fi.vectors == nil {
		return nil, ErrIndexNotReady
	}
	if k < 1 {
		return nil, ErrInvalidK
	}
	if len(query.Vector) != fi.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query.Vector), fi.dim)
	}

	matches := make([]Match, 0, fi.vectors.Rows)
	for i := 0; i < fi.vectors.Rows; i++ {
		if query.filtered() && !query.IdFilter.Filter(uint64(i)) {
			continue
		}
		matches = append(matches, Match{
			Position:   int64(i),
			LandmarkID: fi.names[i],
			Score:      math.Dot(query.Vector, fi.vectors.Row(i)),
		})
	}

	return &SearchResult{Matches: rankMatches(matches, k)}, nil
}

func (fi *FlatIndex) Size() int {
	if fi.vectors == nil {
		return 0
	}
	return fi.vectors.Rows
}

func (fi *FlatIndex) Dim() int {
	return fi.dim
}

// Embedding returns a copy of the stored (normalized) vector at pos
func (fi *FlatIndex) Embedding(pos int) []float32 {
	out := make([]float32, fi.dim)
	copy(out, fi.vectors.Row(pos))
	return out
}
