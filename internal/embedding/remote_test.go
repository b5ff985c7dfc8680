package embedding_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronoscope-go/internal/common"
	"chronoscope-go/internal/common/math"
	"chronoscope-go/internal/embedding"
	"chronoscope-go/internal/embedding/embeddingtest"
)

type fakeService struct {
	embedding []float32
	status    int
	calls     atomic.Int32
}

func (f *fakeService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(f.status)
	})
	mux.HandleFunc("/embeddings", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req struct {
			Model       string `json:"model"`
			PixelValues string `json:"pixel_values"`
			Shape       []int  `json:"shape"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		raw, err := base64.StdEncoding.DecodeString(req.PixelValues)
		assert.NoError(t, err)
		assert.Equal(t, []int{3, 32, 32}, req.Shape)
		assert.Len(t, raw, 4*3*32*32)
		assert.Equal(t, "clip-test", req.Model)

		if f.status != http.StatusOK {
			w.WriteHeader(f.status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": f.embedding}},
		})
	})
	return mux
}

func newRemote(t *testing.T, svc *fakeService, dim int) (*embedding.RemoteModel, *httptest.Server) {
	server := httptest.NewServer(svc.handler(t))
	t.Cleanup(server.Close)

	m, err := embedding.NewRemoteModel(embedding.Config{
		Endpoint:  server.URL + "/",
		ModelName: "clip-test",
		APIToken:  "secret",
		Dim:       dim,
		ImageSize: 32,
	})
	require.NoError(t, err)
	return m, server
}

func TestRemoteEmbedNormalizes(t *testing.T) {
	svc := &fakeService{embedding: []float32{3, 0, 4, 0}, status: http.StatusOK}
	m, _ := newRemote(t, svc, 4)

	vec, err := m.Embed(context.Background(), embeddingtest.SolidPNG(40, 40, color.White))
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float32{0.6, 0, 0.8, 0}, vec, 1e-6)
	assert.InDelta(t, 1.0, math.L2Norm(vec), 1e-6)
	assert.Equal(t, int32(1), svc.calls.Load())
	assert.Equal(t, "clip-test", m.Name())
}

func TestRemoteEmbedFailures(t *testing.T) {
	img := embeddingtest.SolidPNG(8, 8, color.Black)

	t.Run("server error", func(t *testing.T) {
		m, _ := newRemote(t, &fakeService{status: http.StatusServiceUnavailable}, 4)
		_, err := m.Embed(context.Background(), img)
		assert.ErrorIs(t, err, embedding.ErrModelUnavailable)
	})

	t.Run("wrong dimension", func(t *testing.T) {
		m, _ := newRemote(t, &fakeService{embedding: []float32{1, 2}, status: http.StatusOK}, 4)
		_, err := m.Embed(context.Background(), img)
		assert.ErrorIs(t, err, embedding.ErrModelUnavailable)
	})

	t.Run("zero embedding", func(t *testing.T) {
		m, _ := newRemote(t, &fakeService{embedding: []float32{0, 0, 0, 0}, status: http.StatusOK}, 4)
		_, err := m.Embed(context.Background(), img)
		assert.ErrorIs(t, err, embedding.ErrModelUnavailable)
	})

	t.Run("bad image never reaches the service", func(t *testing.T) {
		svc := &fakeService{embedding: []float32{1, 0, 0, 0}, status: http.StatusOK}
		m, _ := newRemote(t, svc, 4)
		_, err := m.Embed(context.Background(), []byte("plain text"))
		assert.ErrorIs(t, err, embedding.ErrDecode)
		assert.Equal(t, int32(0), svc.calls.Load())
	})

	t.Run("unreachable", func(t *testing.T) {
		m, server := newRemote(t, &fakeService{status: http.StatusOK}, 4)
		server.Close()
		_, err := m.Embed(context.Background(), img)
		assert.ErrorIs(t, err, embedding.ErrModelUnavailable)
	})
}

func TestLoadRemoteProbe(t *testing.T) {
	healthy := httptest.NewServer((&fakeService{status: http.StatusOK}).handler(t))
	defer healthy.Close()
	broken := httptest.NewServer((&fakeService{status: http.StatusInternalServerError}).handler(t))
	defer broken.Close()

	m, err := embedding.Load(context.Background(), embedding.Config{
		Provider: common.ModelProviderRemote,
		Endpoint: healthy.URL,
		Dim:      512,
	})
	require.NoError(t, err)
	assert.Equal(t, 512, m.Dim())

	_, err = embedding.Load(context.Background(), embedding.Config{
		Provider: common.ModelProviderRemote,
		Endpoint: broken.URL,
		Dim:      512,
	})
	assert.ErrorIs(t, err, embedding.ErrModelUnavailable)

	_, err = embedding.Load(context.Background(), embedding.Config{
		Provider: common.ModelProviderRemote,
		Dim:      512,
	})
	assert.ErrorIs(t, err, embedding.ErrModelUnavailable)
}
