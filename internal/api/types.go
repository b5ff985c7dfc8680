package api

import (
	"time"

	"chronoscope-go/internal/index"
	"chronoscope-go/internal/store"
)

type IdentifyResponse struct {
	ID           string        `json:"id"`
	Landmark     string        `json:"landmark"`
	Confidence   float32       `json:"confidence"`
	Degraded     bool          `json:"degraded"`
	Alternatives []index.Match `json:"alternatives"`
	Summary      string        `json:"summary"`
	YearBuilt    string        `json:"year_built,omitempty"`
	Location     string        `json:"location,omitempty"`
	ImageURL     string        `json:"image_url,omitempty"`
	ReferenceURL string        `json:"reference_url,omitempty"`
}

type HealthResponse struct {
	Status      string    `json:"status"`
	State       string    `json:"state"`
	CatalogSize int       `json:"catalog_size"`
	Timestamp   time.Time `json:"timestamp"`
}

type HistoryResponse struct {
	Predictions []store.PredictionRecord `json:"predictions"`
}

type FeedbackResponse struct {
	Message  string         `json:"message"`
	Feedback store.Feedback `json:"feedback"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
