// Package matcher answers "which landmark is this photo?" by embedding the
// photo and searching the landmark index. When the model or the catalog could
// not be loaded it stays answerable in a degraded mode that is flagged on
// every result.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"chronoscope-go/internal/common"
	"chronoscope-go/internal/common/math"
	"chronoscope-go/internal/embedding"
	"chronoscope-go/internal/filter"
	"chronoscope-go/internal/index"
	"chronoscope-go/internal/landmark"
)

// FallbackConfidence is reported for every degraded answer
const FallbackConfidence float32 = 0.75

const DefaultTopK = 3

var (
	// ErrPredictionFailed is returned when the uploaded bytes are not an image
	ErrPredictionFailed = errors.New("prediction failed")
	// ErrNoCandidates is returned when none of the requested names is in the catalog
	ErrNoCandidates = errors.New("no catalog entry matches the candidate names")
)

type State string

const (
	StateReady    State = "ready"
	StateDegraded State = "degraded"
)

type PredictionResult struct {
	LandmarkID   string        `json:"landmark"`
	Confidence   float32       `json:"confidence"`
	Degraded     bool          `json:"degraded"`
	Alternatives []index.Match `json:"alternatives,omitempty"`
}

// Matcher is constructed once and shared by all requests. Its state never
// changes after construction.
type Matcher struct {
	state   State
	reason  error
	model   embedding.Model
	idx     index.Index
	names   *filter.NameIndex
	size    int
	topK    int
	params  common.IndexParams
	rngLock sync.Mutex
	rng     *rand.Rand
}

// New builds a READY matcher over catalog. The catalog dimension must match
// the model's.
func New(model embedding.Model, catalog *landmark.Catalog, opts ...Option) (*Matcher, error) {
	m := newMatcher(opts)
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", embedding.ErrModelUnavailable)
	}
	if catalog.Len() == 0 {
		return nil, index.ErrEmptyCatalog
	}
	if catalog.Dim() != model.Dim() {
		return nil, fmt.Errorf("%w: model produces %d, catalog has %d",
			index.ErrDimensionMismatch, model.Dim(), catalog.Dim())
	}

	params := m.params
	params.Dim = model.Dim()
	idx, err := index.NewIndex(params)
	if err != nil {
		return nil, err
	}
	if err := idx.Build(catalog); err != nil {
		return nil, err
	}

	m.state = StateReady
	m.model = model
	m.idx = idx
	m.names = filter.NewNameIndex(catalog.Names())
	m.size = catalog.Len()
	return m, nil
}

// NewDegraded builds a matcher that answers from the static fallback list.
// reason is kept for diagnostics.
func NewDegraded(reason error, opts ...Option) *Matcher {
	m := newMatcher(opts)
	m.state = StateDegraded
	m.reason = reason
	return m
}

func newMatcher(opts []Option) *Matcher {
	m := &Matcher{
		topK:   DefaultTopK,
		params: common.IndexParams{IndexType: common.IndexTypeFlat},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return m
}

func (m *Matcher) State() State {
	return m.state
}

// Reason returns the failure that put the matcher into degraded mode
func (m *Matcher) Reason() error {
	return m.reason
}

// CatalogSize is the number of indexed entries, 0 when degraded
func (m *Matcher) CatalogSize() int {
	return m.size
}

// Identify returns the best matching landmark for the image
func (m *Matcher) Identify(ctx context.Context, image []byte) (PredictionResult, error) {
	return m.identify(ctx, image, nil, nil)
}

// IdentifyAmong restricts the search to catalog entries named in candidates.
// Unknown names are ignored. An empty candidate list behaves like Identify.
func (m *Matcher) IdentifyAmong(ctx context.Context, image []byte, candidates []string) (PredictionResult, error) {
	if len(candidates) == 0 || m.state == StateDegraded {
		return m.identify(ctx, image, candidates, nil)
	}
	ids := m.names.Lookup(candidates...)
	if ids.IsEmpty() {
		return PredictionResult{}, ErrNoCandidates
	}
	return m.identify(ctx, image, candidates, ids)
}

func (m *Matcher) identify(ctx context.Context, image []byte, candidates []string, ids *filter.IdFilter) (PredictionResult, error) {
	if m.state == StateDegraded {
		if _, err := embedding.Decode(image); err != nil {
			return PredictionResult{}, fmt.Errorf("%w: %w", ErrPredictionFailed, err)
		}
		return m.fallback(candidates), nil
	}

	vec, err := m.model.Embed(ctx, image)
	switch {
	case errors.Is(err, embedding.ErrDecode):
		return PredictionResult{}, fmt.Errorf("%w: %w", ErrPredictionFailed, err)
	case errors.Is(err, embedding.ErrModelUnavailable):
		slog.Warn("Model unavailable, answering from fallback list", "error", err)
		return m.fallback(candidates), nil
	case err != nil:
		return PredictionResult{}, err
	}

	if math.NormalizeInPlace(vec) == 0 {
		slog.Warn("Model returned a zero vector, answering from fallback list")
		return m.fallback(candidates), nil
	}

	query := index.NewSearchQuery(vec)
	if ids != nil {
		query.WithFilter(ids)
	}
	result, err := m.idx.Search(query, m.topK)
	if err != nil {
		return PredictionResult{}, err
	}
	top, ok := result.Top()
	if !ok {
		return PredictionResult{}, index.ErrIndexNotReady
	}

	return PredictionResult{
		LandmarkID:   top.LandmarkID,
		Confidence:   top.Score,
		Alternatives: result.Matches,
	}, nil
}

// fallback picks uniformly from candidates when given, otherwise from the
// static landmark list
func (m *Matcher) fallback(candidates []string) PredictionResult {
	names := landmark.FallbackNames
	if len(candidates) > 0 {
		names = candidates
	}

	m.rngLock.Lock()
	pick := m.rng.IntN(len(names))
	m.rngLock.Unlock()

	return PredictionResult{
		LandmarkID: names[pick],
		Confidence: FallbackConfidence,
		Degraded:   true,
	}
}
