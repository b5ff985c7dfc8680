// Package landmark holds the catalog types shared by the index, the snapshot
// codec and the offline builder.
package landmark

// Entry is one catalog row: a display name and its embedding
type Entry struct {
	ID        string
	Embedding []float32
}

// Catalog is an ordered sequence of entries. Position is identity inside an
// index; IDs may repeat when several reference photos exist for one landmark.
type Catalog struct {
	Entries []Entry
}

// NewCatalog builds a catalog from parallel name and vector slices.
// It panics if the lengths differ.
func NewCatalog(names []string, vectors [][]float32) *Catalog {
	if len(names) != len(vectors) {
		panic("landmark: names and vectors length mismatch")
	}
	entries := make([]Entry, len(names))
	for i := range names {
		entries[i] = Entry{ID: names[i], Embedding: vectors[i]}
	}
	return &Catalog{Entries: entries}
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Entries)
}

// Dim returns the dimension of the first entry, or 0 for an empty catalog
func (c *Catalog) Dim() int {
	if c.Len() == 0 {
		return 0
	}
	return len(c.Entries[0].Embedding)
}

// Names returns the entry IDs in catalog order
func (c *Catalog) Names() []string {
	names := make([]string, c.Len())
	for i, e := range c.Entries {
		names[i] = e.ID
	}
	return names
}

// Vectors returns the entry embeddings in catalog order
func (c *Catalog) Vectors() [][]float32 {
	vectors := make([][]float32, c.Len())
	for i, e := range c.Entries {
		vectors[i] = e.Embedding
	}
	return vectors
}

// Append adds an entry at the end of the catalog
func (c *Catalog) Append(id string, embedding []float32) {
	c.Entries = append(c.Entries, Entry{ID: id, Embedding: embedding})
}
