package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestHistory(t *testing.T) *HistoryStore {
	t.Helper()
	h, err := OpenHistory(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestSaveAndListPredictions(t *testing.T) {
	h := openTestHistory(t)

	empty, err := h.ListPredictions(0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for i := 0; i < 5; i++ {
		rec, err := h.SavePrediction(PredictionRecord{
			Filename:   fmt.Sprintf("photo-%d.jpg", i),
			Landmark:   "Colosseum",
			Confidence: 0.9,
		})
		require.NoError(t, err)
		_, err = uuid.Parse(rec.ID)
		assert.NoError(t, err)
		assert.False(t, rec.CreatedAt.IsZero())
	}

	all, err := h.ListPredictions(0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, rec := range all {
		assert.Equal(t, fmt.Sprintf("photo-%d.jpg", 4-i), rec.Filename)
	}

	limited, err := h.ListPredictions(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "photo-4.jpg", limited[0].Filename)
}

func TestListPredictionsDefaultLimit(t *testing.T) {
	h := openTestHistory(t)
	for i := 0; i < DefaultListLimit+5; i++ {
		_, err := h.SavePrediction(PredictionRecord{Landmark: "Petra"})
		require.NoError(t, err)
	}

	records, err := h.ListPredictions(-1)
	require.NoError(t, err)
	assert.Len(t, records, DefaultListLimit)
}

func TestDeletePrediction(t *testing.T) {
	h := openTestHistory(t)
	rec, err := h.SavePrediction(PredictionRecord{Landmark: "Big Ben", Degraded: true})
	require.NoError(t, err)

	got, err := h.GetPrediction(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Landmark, got.Landmark)
	assert.True(t, got.Degraded)

	require.NoError(t, h.DeletePrediction(rec.ID))
	assert.ErrorIs(t, h.DeletePrediction(rec.ID), ErrNotFound)

	_, err = h.GetPrediction(rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	records, err := h.ListPredictions(0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSaveFeedback(t *testing.T) {
	h := openTestHistory(t)
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	first, err := h.SaveFeedback(Feedback{ImageID: "img-1", PredictedQID: "Q243", CorrectQID: "Q10285"})
	require.NoError(t, err)
	_, err = h.SaveFeedback(Feedback{ImageID: "img-2", PredictedQID: "Q9141", Comment: "correct"})
	require.NoError(t, err)

	entries, err := h.ListFeedback()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first, entries[0])
	assert.Equal(t, "img-2", entries[1].ImageID)
	assert.Equal(t, "correct", entries[1].Comment)
}

func TestHistoryPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	h, err := OpenHistory(dir)
	require.NoError(t, err)
	saved, err := h.SavePrediction(PredictionRecord{Landmark: "Angkor Wat"})
	require.NoError(t, err)
	require.NoError(t, h.Close())

	h, err = OpenHistory(dir)
	require.NoError(t, err)
	defer h.Close()

	next, err := h.SavePrediction(PredictionRecord{Landmark: "Petra"})
	require.NoError(t, err)
	assert.Greater(t, next.Seq, saved.Seq)

	records, err := h.ListPredictions(0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Petra", records[0].Landmark)
	assert.Equal(t, "Angkor Wat", records[1].Landmark)
}
