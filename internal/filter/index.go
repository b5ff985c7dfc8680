package filter

import (
	"github.com/RoaringBitmap/roaring"
)

// NameIndex maps a landmark name to the catalog positions carrying it.
// It is built once next to the landmark index and only read afterwards.
type NameIndex struct {
	byName map[string]*roaring.Bitmap
}

// NewNameIndex indexes names by their position in the slice
func NewNameIndex(names []string) *NameIndex {
	idx := &NameIndex{
		byName: make(map[string]*roaring.Bitmap, len(names)),
	}
	for pos, name := range names {
		bitmap, exists := idx.byName[name]
		if !exists {
			bitmap = roaring.New()
			idx.byName[name] = bitmap
		}
		bitmap.Add(uint32(pos))
	}
	return idx
}

// Contains reports whether at least one entry carries the name
func (idx *NameIndex) Contains(name string) bool {
	_, ok := idx.byName[name]
	return ok
}

// Distinct is the number of distinct names
func (idx *NameIndex) Distinct() int {
	return len(idx.byName)
}

// Lookup returns a filter allowing every position whose name is listed.
// Unknown names contribute nothing.
func (idx *NameIndex) Lookup(names ...string) *IdFilter {
	result := roaring.New()
	for _, name := range names {
		if bitmap, ok := idx.byName[name]; ok {
			result.Or(bitmap)
		}
	}
	return NewIdFilterFrom(result)
}
