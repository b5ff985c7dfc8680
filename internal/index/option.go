package index

import (
	"chronoscope-go/internal/filter"
)

type SearchQuery struct {
	Vector   []float32
	IdFilter *filter.IdFilter
}

func NewSearchQuery(vector []float32) *SearchQuery {
	return &SearchQuery{
		Vector: vector,
	}
}

// WithFilter restricts the search to the positions allowed by the filter
func (q *SearchQuery) WithFilter(filter *filter.IdFilter) *SearchQuery {
	q.IdFilter = filter
	return q
}

func (q *SearchQuery) filtered() bool {
	return q.IdFilter != nil
}
