package index

import (
	"fmt"
	"sync"

	faiss "github.com/blevesearch/go-faiss"

	"chronoscope-go/internal/landmark"
)

// HNSWIndex is an approximate graph index backed by faiss. Its results are
// re-ranked with the same tie-break as FlatIndex but may miss true
// neighbors; recall is checked against FlatIndex in tests.
type HNSWIndex struct {
	index          faiss.Index
	names          []string
	dim            int
	m              int
	efConstruction int
	mu             sync.Mutex
}

var _ Index = (*HNSWIndex)(nil)

func NewHNSWIndex(dim int, efConstruction int, M int) (*HNSWIndex, error) {
	if M <= 0 || efConstruction < 0 {
		return nil, fmt.Errorf("%w: m=%d ef_construction=%d", ErrInvalidHNSWParams, M, efConstruction)
	}
	return &HNSWIndex{dim: dim, m: M, efConstruction: efConstruction}, nil
}

func (hi *HNSWIndex) Build(catalog *landmark.Catalog) error {
	vectors, names, err := prepareCatalog(catalog, hi.dim)
	if err != nil {
		return err
	}

	idx, err := faiss.IndexFactory(vectors.Cols, fmt.Sprintf("IDMap,HNSW%d", hi.m), faiss.MetricInnerProduct)
	if err != nil {
		return fmt.Errorf("failed to initialize index: %w", err)
	}

	labels := make([]int64, vectors.Rows)
	for i := range labels {
		labels[i] = int64(i)
	}
	// Get raw data from matrix without copying
	if err := idx.AddWithIDs(vectors.RawData(), labels); err != nil {
		idx.Delete()
		return fmt.Errorf("failed to insert data: %w", err)
	}

	hi.mu.Lock()
	defer hi.mu.Unlock()
	if hi.index != nil {
		hi.index.Delete()
	}
	hi.index = idx
	hi.names = names
	hi.dim = vectors.Cols
	return nil
}

func (hi *HNSWIndex) Search(query *SearchQuery, k int) (*SearchResult, error) {
	hi.mu.Lock()
	defer hi.mu.Unlock()
	if hi.index == nil {
		return nil, ErrIndexNotReady
	}
	if k < 1 {
		return nil, ErrInvalidK
	}
	if len(query.Vector) != hi.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query.Vector), hi.dim)
	}

	limit := len(hi.names)
	if query.filtered() {
		limit = query.IdFilter.Len()
	}
	if k > limit {
		k = limit
	}
	if k == 0 {
		return &SearchResult{Matches: []Match{}}, nil
	}

	var labels []int64
	var distances []float32
	var err error

	if query.filtered() {
		// Use FAISS SearchWithIDs for filtering during search (not post-filtering)
		selector, err := query.IdFilter.AsSelector()
		if err != nil {
			return nil, fmt.Errorf("failed to create selector: %w", err)
		}
		distances, labels, err = hi.index.SearchWithIDs(query.Vector, int64(k), selector, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to search with filter: %w", err)
		}
	} else {
		distances, labels, err = hi.index.Search(query.Vector, int64(k))
		if err != nil {
			return nil, fmt.Errorf("failed to search: %w", err)
		}
	}

	matches := make([]Match, 0, len(labels))
	for i, label := range labels {
		// faiss pads with -1 when fewer than k neighbors were reached
		if label < 0 || int(label) >= len(hi.names) {
			continue
		}
		matches = append(matches, Match{
			Position:   label,
			LandmarkID: hi.names[label],
			Score:      distances[i],
		})
	}
	return &SearchResult{Matches: rankMatches(matches, k)}, nil
}

func (hi *HNSWIndex) Size() int {
	hi.mu.Lock()
	defer hi.mu.Unlock()
	return len(hi.names)
}

func (hi *HNSWIndex) Dim() int {
	hi.mu.Lock()
	defer hi.mu.Unlock()
	return hi.dim
}

// Close releases the faiss handle
func (hi *HNSWIndex) Close() {
	hi.mu.Lock()
	defer hi.mu.Unlock()
	if hi.index != nil {
		hi.index.Delete()
		hi.index = nil
	}
}
