package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdFilter(t *testing.T) {
	f := NewIdFilter()
	assert.True(t, f.IsEmpty())

	f.AddAll([]uint64{5, 1, 3})
	f.Add(1)

	assert.False(t, f.IsEmpty())
	assert.Equal(t, 3, f.Len())
	assert.True(t, f.Filter(3))
	assert.False(t, f.Filter(2))
	assert.Equal(t, []int64{1, 3, 5}, f.Positions())

	clone := f.Clone()
	clone.Add(7)
	assert.False(t, f.Filter(7), "clone must not share storage")
	assert.True(t, clone.Filter(7))
}

func TestNameIndexLookup(t *testing.T) {
	names := []string{"Big Ben", "Colosseum", "Big Ben", "Taj Mahal"}
	idx := NewNameIndex(names)

	assert.Equal(t, 3, idx.Distinct())
	assert.True(t, idx.Contains("Big Ben"))
	assert.False(t, idx.Contains("Acropolis"))

	tests := []struct {
		name  string
		query []string
		want  []int64
	}{
		{"single name with two photos", []string{"Big Ben"}, []int64{0, 2}},
		{"union", []string{"Taj Mahal", "Colosseum"}, []int64{1, 3}},
		{"unknown ignored", []string{"Acropolis", "Colosseum"}, []int64{1}},
		{"nothing known", []string{"Acropolis"}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := idx.Lookup(tt.query...)
			assert.Equal(t, tt.want, f.Positions())
		})
	}
}
