package embedding

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	stdmath "math"
	"net/http"
	"strings"
	"time"

	"chronoscope-go/internal/common/math"
)

// RemoteModel calls a CLIP-compatible inference service. Preprocessing
// happens here so the service only runs the vision tower.
type RemoteModel struct {
	baseURL    string
	model      string
	token      string
	dim        int
	imageSize  int
	httpClient *http.Client
}

var _ Model = (*RemoteModel)(nil)

type embeddingRequest struct {
	Model       string `json:"model"`
	PixelValues string `json:"pixel_values"`
	Shape       [3]int `json:"shape"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func NewRemoteModel(cfg Config) (*RemoteModel, error) {
	cfg = cfg.withDefaults()
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("remote model: missing endpoint")
	}
	if cfg.Dim <= 0 {
		return nil, fmt.Errorf("remote model: dim must be set")
	}
	return &RemoteModel{
		baseURL:    strings.TrimRight(cfg.Endpoint, "/"),
		model:      cfg.ModelName,
		token:      cfg.APIToken,
		dim:        cfg.Dim,
		imageSize:  cfg.ImageSize,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}, nil
}

// Probe checks that the service answers its health endpoint
func (m *RemoteModel) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", ErrModelUnavailable, err)
	}
	m.authorize(req)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: health check returned http %d", ErrModelUnavailable, resp.StatusCode)
	}
	return nil
}

func (m *RemoteModel) Embed(ctx context.Context, image []byte) ([]float32, error) {
	tensor, err := Preprocess(image, m.imageSize)
	if err != nil {
		return nil, err
	}

	body := embeddingRequest{
		Model:       m.model,
		PixelValues: encodeTensor(tensor),
		Shape:       [3]int{tensor.Channels, tensor.Height, tensor.Width},
	}
	var parsed embeddingResponse
	if err := m.postJSON(ctx, m.baseURL+"/embeddings", body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}

	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("%w: empty embedding data", ErrModelUnavailable)
	}
	vec := parsed.Data[0].Embedding
	if len(vec) != m.dim {
		return nil, fmt.Errorf("%w: service returned dimension %d, expected %d", ErrModelUnavailable, len(vec), m.dim)
	}
	if math.NormalizeInPlace(vec) == 0 {
		return nil, fmt.Errorf("%w: zero embedding", ErrModelUnavailable)
	}
	return vec, nil
}

func (m *RemoteModel) Dim() int {
	return m.dim
}

func (m *RemoteModel) Name() string {
	return m.model
}

func (m *RemoteModel) authorize(req *http.Request) {
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}
}

func (m *RemoteModel) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	m.authorize(req)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %d for %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// encodeTensor packs the tensor as base64 little-endian float32
func encodeTensor(t *Tensor) string {
	buf := make([]byte, 4*len(t.Data))
	for i, v := range t.Data {
		binary.LittleEndian.PutUint32(buf[i*4:], stdmath.Float32bits(v))
	}
	return base64.StdEncoding.EncodeToString(buf)
}
