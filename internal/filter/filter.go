package filter

import (
	"github.com/RoaringBitmap/roaring"
	faiss "github.com/blevesearch/go-faiss"
)

// IdFilter is a set of catalog positions a search is allowed to return
type IdFilter struct {
	bitmap *roaring.Bitmap
}

// NewIdFilter creates a new empty IdFilter
func NewIdFilter() *IdFilter {
	return &IdFilter{
		bitmap: roaring.New(),
	}
}

// NewIdFilterFrom creates an IdFilter from an existing bitmap
func NewIdFilterFrom(bitmap *roaring.Bitmap) *IdFilter {
	return &IdFilter{
		bitmap: bitmap,
	}
}

// Add adds a position to the filter
func (f *IdFilter) Add(id uint64) {
	f.bitmap.Add(uint32(id))
}

// AddAll adds multiple positions to the filter
func (f *IdFilter) AddAll(ids []uint64) {
	for _, id := range ids {
		f.Add(id)
	}
}

// Filter reports whether a position passes the filter
func (f *IdFilter) Filter(id uint64) bool {
	return f.bitmap.Contains(uint32(id))
}

// Len is the number of allowed positions
func (f *IdFilter) Len() int {
	return int(f.bitmap.GetCardinality())
}

func (f *IdFilter) IsEmpty() bool {
	return f.bitmap.IsEmpty()
}

// Positions returns the allowed positions in ascending order
func (f *IdFilter) Positions() []int64 {
	ids := make([]int64, 0, f.bitmap.GetCardinality())
	iter := f.bitmap.Iterator()
	for iter.HasNext() {
		ids = append(ids, int64(iter.Next()))
	}
	return ids
}

// AsSelector converts the IdFilter to a FAISS IdSelector for use in searches
func (f *IdFilter) AsSelector() (faiss.Selector, error) {
	return faiss.NewIDSelectorBatch(f.Positions())
}

// Clone creates a copy of the filter
func (f *IdFilter) Clone() *IdFilter {
	return &IdFilter{
		bitmap: f.bitmap.Clone(),
	}
}
