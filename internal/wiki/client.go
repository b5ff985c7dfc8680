// Package wiki enriches an identified landmark with its Wikipedia summary
// and a few static facts.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/coocood/freecache"
)

const (
	DefaultBaseURL   = "https://en.wikipedia.org/api/rest_v1"
	DefaultTimeout   = 10 * time.Second
	DefaultCacheSize = 4 * 1024 * 1024
	DefaultCacheTTL  = 6 * time.Hour
)

// Info is the enrichment attached to a prediction. Empty fields are unknown.
type Info struct {
	Summary      string `json:"summary"`
	ReferenceURL string `json:"reference_url"`
	ImageURL     string `json:"image_url,omitempty"`
	YearBuilt    string `json:"year_built,omitempty"`
	Location     string `json:"location,omitempty"`
}

type Config struct {
	BaseURL         string `toml:"base_url"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	CacheSizeBytes  int    `toml:"cache_size_bytes"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
}

type Client struct {
	baseURL  string
	http     *http.Client
	cache    *freecache.Cache
	cacheTTL int
}

type summaryResponse struct {
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
	Thumbnail *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
}

func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: DefaultTimeout},
		cacheTTL: int(DefaultCacheTTL.Seconds()),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if cfg.TimeoutSeconds > 0 {
		c.http.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.CacheTTLSeconds > 0 {
		c.cacheTTL = cfg.CacheTTLSeconds
	}
	size := cfg.CacheSizeBytes
	if size <= 0 {
		size = DefaultCacheSize
	}
	c.cache = freecache.NewCache(size)
	return c
}

// LandmarkInfo never fails. When Wikipedia cannot be reached the summary
// says so and only the static facts are filled in.
func (c *Client) LandmarkInfo(ctx context.Context, name string) Info {
	key := []byte(name)
	if cached, err := c.cache.Get(key); err == nil {
		var info Info
		if json.Unmarshal(cached, &info) == nil {
			return info
		}
	}

	info, err := c.fetchSummary(ctx, name)
	if err != nil {
		slog.Warn("Wikipedia lookup failed", "landmark", name, "error", err)
		info = Info{Summary: unavailableSummary(name)}
	}

	facts, known := staticFacts[name]
	if known {
		info.YearBuilt = facts.YearBuilt
		info.Location = facts.Location
	} else if err == nil {
		info.YearBuilt = extractYear(info.Summary)
	}

	if err == nil {
		if data, err := json.Marshal(info); err == nil {
			c.cache.Set(key, data, c.cacheTTL)
		}
	}
	return info
}

// CacheHitRate reports the share of lookups answered from the cache
func (c *Client) CacheHitRate() float64 {
	return c.cache.HitRate()
}

func (c *Client) fetchSummary(ctx context.Context, name string) (Info, error) {
	title := url.PathEscape(strings.ReplaceAll(name, " ", "_"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/page/summary/"+title, nil)
	if err != nil {
		return Info{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Info{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Info{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Info{}, fmt.Errorf("decoding summary: %w", err)
	}

	info := Info{
		Summary:      body.Extract,
		ReferenceURL: body.ContentURLs.Desktop.Page,
	}
	if body.Thumbnail != nil {
		info.ImageURL = body.Thumbnail.Source
	}
	if info.Summary == "" {
		info.Summary = unavailableSummary(name)
	}
	return info, nil
}

func unavailableSummary(name string) string {
	return fmt.Sprintf("Information about %s is not available at the moment.", name)
}

var yearPattern = regexp.MustCompile(`\b(1[0-9]{3}|2[0-9]{3})\b`)

// extractYear returns the first four-digit year mentioned in text
func extractYear(text string) string {
	return yearPattern.FindString(text)
}
