package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"chronoscope-go/internal/common"
	"chronoscope-go/internal/index"
	"chronoscope-go/internal/matcher"
	"chronoscope-go/internal/metrics"
	"chronoscope-go/internal/store"
	"chronoscope-go/internal/wiki"
)

const DefaultMaxUpload int64 = 10 << 20

type Identifier interface {
	Identify(ctx context.Context, image []byte) (matcher.PredictionResult, error)
	IdentifyAmong(ctx context.Context, image []byte, candidates []string) (matcher.PredictionResult, error)
	State() matcher.State
	CatalogSize() int
}

type Enricher interface {
	LandmarkInfo(ctx context.Context, name string) wiki.Info
}

type History interface {
	SavePrediction(rec store.PredictionRecord) (store.PredictionRecord, error)
	ListPredictions(limit int) ([]store.PredictionRecord, error)
	DeletePrediction(id string) error
	SaveFeedback(fb store.Feedback) (store.Feedback, error)
}

// Handler serves the HTTP API. All collaborators are constructed before the
// router starts and are safe for concurrent use.
type Handler struct {
	matcher   Identifier
	enricher  Enricher
	history   History
	metrics   *metrics.Metrics
	maxUpload int64
	now       func() time.Time
}

func NewHandler(m Identifier, enricher Enricher, history History, met *metrics.Metrics, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	met.SetMatcherState(m.CatalogSize(), m.State() == matcher.StateDegraded)
	return &Handler{
		matcher:   m,
		enricher:  enricher,
		history:   history,
		metrics:   met,
		maxUpload: maxUpload,
		now:       time.Now,
	}
}

func (h *Handler) HandleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, MessageResponse{Message: "Chronoscope landmark identification API"})
}

func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "healthy",
		State:       string(h.matcher.State()),
		CatalogSize: h.matcher.CatalogSize(),
		Timestamp:   h.now().UTC(),
	})
}

func (h *Handler) HandleIdentify(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no image file provided"})
		return
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file must be an image"})
		return
	}
	if file.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "image is too large"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload))
	f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	start := time.Now()
	candidates := common.SplitNames(c.PostForm("candidates"))
	result, err := h.matcher.IdentifyAmong(c.Request.Context(), data, candidates)
	switch {
	case errors.Is(err, matcher.ErrPredictionFailed):
		h.metrics.ObserveIdentify(metrics.OutcomeBadInput, time.Since(start), 0)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "could not process image"})
		return
	case errors.Is(err, matcher.ErrNoCandidates):
		h.metrics.ObserveIdentify(metrics.OutcomeBadInput, time.Since(start), 0)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		slog.Error("Identification failed", "filename", file.Filename, "error", err)
		h.metrics.ObserveIdentify(metrics.OutcomeError, time.Since(start), 0)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "identification failed"})
		return
	}

	outcome := metrics.OutcomeMatched
	if result.Degraded {
		outcome = metrics.OutcomeDegraded
	}
	h.metrics.ObserveIdentify(outcome, time.Since(start), result.Confidence)

	info := h.enricher.LandmarkInfo(c.Request.Context(), result.LandmarkID)

	rec, err := h.history.SavePrediction(store.PredictionRecord{
		Filename:   file.Filename,
		Landmark:   result.LandmarkID,
		Confidence: result.Confidence,
		Degraded:   result.Degraded,
		Location:   info.Location,
		YearBuilt:  info.YearBuilt,
	})
	if err != nil {
		slog.Warn("Failed to save prediction", "landmark", result.LandmarkID, "error", err)
	}

	alternatives := result.Alternatives
	if alternatives == nil {
		alternatives = []index.Match{}
	}
	c.JSON(http.StatusOK, IdentifyResponse{
		ID:           rec.ID,
		Landmark:     result.LandmarkID,
		Confidence:   result.Confidence,
		Degraded:     result.Degraded,
		Alternatives: alternatives,
		Summary:      info.Summary,
		YearBuilt:    info.YearBuilt,
		Location:     info.Location,
		ImageURL:     info.ImageURL,
		ReferenceURL: info.ReferenceURL,
	})
}

func (h *Handler) HandleHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	records, err := h.history.ListPredictions(limit)
	if err != nil {
		slog.Error("Failed to list history", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, HistoryResponse{Predictions: records})
}

func (h *Handler) HandleDeleteHistory(c *gin.Context) {
	err := h.history.DeletePrediction(c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "history item not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusOK, MessageResponse{Message: "history item deleted"})
	}
}

func (h *Handler) HandleFeedback(c *gin.Context) {
	fb := store.Feedback{
		ImageID:      formOrQuery(c, "image_id"),
		PredictedQID: formOrQuery(c, "predicted_qid"),
		CorrectQID:   formOrQuery(c, "correct_qid"),
		Comment:      formOrQuery(c, "comment"),
	}
	if fb.ImageID == "" || fb.PredictedQID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "image_id and predicted_qid are required"})
		return
	}

	saved, err := h.history.SaveFeedback(fb)
	if err != nil {
		slog.Error("Failed to save feedback", "image_id", fb.ImageID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, FeedbackResponse{Message: "feedback submitted", Feedback: saved})
}

func formOrQuery(c *gin.Context, key string) string {
	if v, ok := c.GetPostForm(key); ok {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(c.Query(key))
}
