// Package store persists identification history and user feedback.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"chronoscope-go/internal/common"
)

const (
	BucketPredictions = "predictions"
	BucketFeedback    = "feedback"

	DefaultListLimit = 50
)

var ErrNotFound = errors.New("record not found")

type PredictionRecord struct {
	ID         string    `json:"id"`
	Seq        uint64    `json:"seq"`
	Filename   string    `json:"filename"`
	Landmark   string    `json:"landmark"`
	Confidence float32   `json:"confidence"`
	Degraded   bool      `json:"degraded"`
	Location   string    `json:"location,omitempty"`
	YearBuilt  string    `json:"year_built,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Feedback struct {
	ID           string    `json:"id"`
	ImageID      string    `json:"image_id"`
	PredictedQID string    `json:"predicted_qid"`
	CorrectQID   string    `json:"correct_qid,omitempty"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type HistoryStore struct {
	kv  Storage
	now func() time.Time
}

// OpenHistory opens the history database under dir
func OpenHistory(dir string) (*HistoryStore, error) {
	kv, err := NewStorage(&Option{
		Dir:     dir,
		Buckets: []string{BucketPredictions, BucketFeedback},
	})
	if err != nil {
		return nil, err
	}
	return NewHistoryStore(kv), nil
}

func NewHistoryStore(kv Storage) *HistoryStore {
	return &HistoryStore{kv: kv, now: time.Now}
}

// SavePrediction assigns the record an ID, a sequence number and a
// timestamp, then stores it
func (h *HistoryStore) SavePrediction(rec PredictionRecord) (PredictionRecord, error) {
	seq, err := h.kv.GenIncrIDs(BucketPredictions, 1)
	if err != nil {
		return PredictionRecord{}, err
	}
	rec.ID = uuid.NewString()
	rec.Seq = seq[0]
	rec.CreatedAt = h.now().UTC()

	if err := h.put(BucketPredictions, rec.ID, rec); err != nil {
		return PredictionRecord{}, err
	}
	return rec, nil
}

// ListPredictions returns at most limit records, newest first. limit <= 0
// means DefaultListLimit.
func (h *HistoryStore) ListPredictions(limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	it, err := h.kv.Iterator(BucketPredictions)
	if err != nil {
		return nil, err
	}

	records := make([]PredictionRecord, 0)
	for pair := range it {
		rec, err := common.JSONUnmarshal[PredictionRecord](pair.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to decode prediction %s: %w", pair.Key, err)
		}
		records = append(records, rec)
	}

	slices.SortFunc(records, func(a, b PredictionRecord) int {
		switch {
		case a.Seq > b.Seq:
			return -1
		case a.Seq < b.Seq:
			return 1
		}
		return 0
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// GetPrediction returns ErrNotFound for unknown IDs
func (h *HistoryStore) GetPrediction(id string) (PredictionRecord, error) {
	data, err := h.kv.Get(BucketPredictions, []byte(id))
	if err != nil {
		return PredictionRecord{}, err
	}
	if data == nil {
		return PredictionRecord{}, ErrNotFound
	}
	return common.JSONUnmarshal[PredictionRecord](data)
}

func (h *HistoryStore) DeletePrediction(id string) error {
	return h.kv.Delete(BucketPredictions, []byte(id))
}

func (h *HistoryStore) SaveFeedback(fb Feedback) (Feedback, error) {
	fb.ID = uuid.NewString()
	fb.CreatedAt = h.now().UTC()
	if err := h.put(BucketFeedback, fb.ID, fb); err != nil {
		return Feedback{}, err
	}
	return fb, nil
}

// ListFeedback returns every feedback entry, oldest first
func (h *HistoryStore) ListFeedback() ([]Feedback, error) {
	it, err := h.kv.Iterator(BucketFeedback)
	if err != nil {
		return nil, err
	}

	entries := make([]Feedback, 0)
	for pair := range it {
		fb, err := common.JSONUnmarshal[Feedback](pair.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to decode feedback %s: %w", pair.Key, err)
		}
		entries = append(entries, fb)
	}
	slices.SortStableFunc(entries, func(a, b Feedback) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return entries, nil
}

func (h *HistoryStore) Close() error {
	return h.kv.Close()
}

func (h *HistoryStore) put(bucket, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return h.kv.Put(bucket, []byte(id), data)
}
