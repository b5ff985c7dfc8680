package index

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronoscope-go/internal/common"
	"chronoscope-go/internal/common/math"
	"chronoscope-go/internal/filter"
	"chronoscope-go/internal/landmark"
)

func toyCatalog() *landmark.Catalog {
	return landmark.NewCatalog(
		[]string{"Eiffel Tower", "Colosseum", "Big Ben"},
		[][]float32{{1, 0}, {0, 1}, {0.707, 0.707}},
	)
}

// randomCatalog generates nrow unit vectors from a fixed seed
func randomCatalog(nrow, dim int, seed uint64) *landmark.Catalog {
	rng := rand.New(rand.NewPCG(seed, seed))
	catalog := &landmark.Catalog{}
	for i := 0; i < nrow; i++ {
		v := make([]float32, dim)
		for j := range v {
			v[j] = float32(rng.NormFloat64())
		}
		math.NormalizeInPlace(v)
		catalog.Append(string(rune('A'+i%26)), v)
	}
	return catalog
}

func setupFlat(t *testing.T, catalog *landmark.Catalog) *FlatIndex {
	idx := NewFlatIndex(0)
	require.NoError(t, idx.Build(catalog), "Build failed")
	return idx
}

func TestFlatTopOneCorrectness(t *testing.T) {
	idx := setupFlat(t, toyCatalog())

	result, err := idx.Search(NewSearchQuery([]float32{1, 0}), 1)
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	top, ok := result.Top()
	require.True(t, ok)
	assert.Equal(t, "Eiffel Tower", top.LandmarkID)
	assert.Equal(t, int64(0), top.Position)
	assert.InDelta(t, 1.0, top.Score, 1e-6)
}

func TestFlatKBound(t *testing.T) {
	idx := setupFlat(t, toyCatalog())

	result, err := idx.Search(NewSearchQuery([]float32{1, 0}), 10)
	require.NoError(t, err)
	require.Len(t, result.Matches, 3)

	assert.Equal(t, "Eiffel Tower", result.Matches[0].LandmarkID)
	assert.Equal(t, "Big Ben", result.Matches[1].LandmarkID)
	assert.Equal(t, "Colosseum", result.Matches[2].LandmarkID)
	assert.InDelta(t, 0.0, result.Matches[2].Score, 1e-6)
}

func TestFlatSearchDeterminismAndTies(t *testing.T) {
	catalog := landmark.NewCatalog(
		[]string{"first", "second", "third", "fourth"},
		[][]float32{{0, 1}, {1, 0}, {0, 1}, {1, 0}},
	)
	idx := setupFlat(t, catalog)
	query := NewSearchQuery([]float32{0.6, 0.8})

	first, err := idx.Search(query, 4)
	require.NoError(t, err)

	wantOrder := []string{"first", "third", "second", "fourth"}
	for i, m := range first.Matches {
		assert.Equal(t, wantOrder[i], m.LandmarkID)
	}

	for i := 0; i < 20; i++ {
		again, err := idx.Search(query, 4)
		require.NoError(t, err)
		assert.Equal(t, first.Matches, again.Matches)
	}
}

func TestFlatBuildNormalizes(t *testing.T) {
	catalog := landmark.NewCatalog(
		[]string{"a", "b"},
		[][]float32{{3, 4}, {0, 10}},
	)
	idx := setupFlat(t, catalog)

	for i := 0; i < idx.Size(); i++ {
		assert.InDelta(t, 1.0, math.L2Norm(idx.Embedding(i)), 1e-5)
	}
	// the caller's catalog is left as is
	assert.Equal(t, []float32{3, 4}, catalog.Entries[0].Embedding)
}

func TestFlatBuildErrors(t *testing.T) {
	t.Run("empty catalog", func(t *testing.T) {
		err := NewFlatIndex(0).Build(&landmark.Catalog{})
		assert.ErrorIs(t, err, ErrEmptyCatalog)
	})

	t.Run("nil catalog", func(t *testing.T) {
		err := NewFlatIndex(0).Build(nil)
		assert.ErrorIs(t, err, ErrEmptyCatalog)
	})

	t.Run("mixed dimensions", func(t *testing.T) {
		catalog := &landmark.Catalog{}
		catalog.Append("small", make([]float32, 256))
		catalog.Append("large", make([]float32, 512))
		err := NewFlatIndex(0).Build(catalog)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("configured dimension differs", func(t *testing.T) {
		err := NewFlatIndex(3).Build(toyCatalog())
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestFlatSearchErrors(t *testing.T) {
	_, err := NewFlatIndex(2).Search(NewSearchQuery([]float32{1, 0}), 1)
	assert.ErrorIs(t, err, ErrIndexNotReady)

	idx := setupFlat(t, toyCatalog())

	_, err = idx.Search(NewSearchQuery([]float32{1, 0}), 0)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = idx.Search(NewSearchQuery([]float32{1, 0, 0}), 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestFlatSearchWithFilter(t *testing.T) {
	idx := setupFlat(t, toyCatalog())
	query := []float32{1, 0}

	idFilter := filter.NewIdFilter()
	idFilter.AddAll([]uint64{1, 2})

	result, err := idx.Search(NewSearchQuery(query).WithFilter(idFilter), 3)
	require.NoError(t, err)

	require.Len(t, result.Matches, 2)
	assert.Equal(t, "Big Ben", result.Matches[0].LandmarkID, "first entry should be filtered out")

	empty, err := idx.Search(NewSearchQuery(query).WithFilter(filter.NewIdFilter()), 3)
	require.NoError(t, err)
	assert.Empty(t, empty.Matches)
	_, ok := empty.Top()
	assert.False(t, ok)
}

func TestNewIndex(t *testing.T) {
	idx, err := NewIndex(common.IndexParams{Dim: 4, IndexType: common.IndexTypeFlat})
	require.NoError(t, err)
	assert.IsType(t, &FlatIndex{}, idx)
	assert.Equal(t, 4, idx.Dim())

	_, err = NewIndex(common.IndexParams{Dim: 4, IndexType: common.IndexTypeHnsw})
	assert.ErrorIs(t, err, ErrInvalidHNSWParams)

	_, err = NewIndex(common.IndexParams{Dim: 4, IndexType: "ivf"})
	assert.ErrorIs(t, err, ErrUnsupportedIndexType)
}
