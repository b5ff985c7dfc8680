package config

import (
	"github.com/BurntSushi/toml"

	"chronoscope-go/internal/common"
	"chronoscope-go/internal/embedding"
	"chronoscope-go/internal/wiki"
)

const DefaultPath = "config.toml"

type AppConfig struct {
	Server  ServerConfig  `toml:"server"`
	Model   ModelConfig   `toml:"model"`
	Catalog CatalogConfig `toml:"catalog"`
	Storage StorageConfig `toml:"storage"`
	Wiki    wiki.Config   `toml:"wiki"`
}

type ServerConfig struct {
	Port      uint16 `toml:"port"`
	LogLevel  string `toml:"log_level"`
	APIPrefix string `toml:"api_prefix"`
	MaxUpload int64  `toml:"max_upload_bytes"`
}

type ModelConfig struct {
	Provider       string `toml:"provider"`
	Name           string `toml:"name"`
	Endpoint       string `toml:"endpoint"`
	APIToken       string `toml:"api_token"`
	Dim            int    `toml:"dim"`
	ImageSize      int    `toml:"image_size"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	GridSize       int    `toml:"grid_size"`
	Seed           uint64 `toml:"seed"`
}

type CatalogConfig struct {
	SnapshotPath string      `toml:"snapshot_path"`
	IndexType    string      `toml:"index_type"`
	TopK         int         `toml:"top_k"`
	HnswParams   *HnswParams `toml:"hnsw_params,omitempty"`
}

type HnswParams struct {
	EFConstruction int `toml:"ef_construction"`
	M              int `toml:"m"`
}

type StorageConfig struct {
	Dir string `toml:"dir"`
}

// Default returns the configuration used for every field the file omits
func Default() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:      8000,
			LogLevel:  "info",
			APIPrefix: "/api",
			MaxUpload: 10 << 20,
		},
		Model: ModelConfig{
			Provider: string(common.ModelProviderThumbnail),
		},
		Catalog: CatalogConfig{
			SnapshotPath: "data/landmarks.lmks",
			IndexType:    string(common.IndexTypeFlat),
			TopK:         3,
		},
		Storage: StorageConfig{
			Dir: "data/history",
		},
		Wiki: wiki.Config{
			BaseURL:         wiki.DefaultBaseURL,
			TimeoutSeconds:  int(wiki.DefaultTimeout.Seconds()),
			CacheSizeBytes:  wiki.DefaultCacheSize,
			CacheTTLSeconds: int(wiki.DefaultCacheTTL.Seconds()),
		},
	}
}

// LoadConfig decodes path over the defaults
func LoadConfig(path string) (*AppConfig, error) {
	config := Default()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *AppConfig) EmbeddingConfig() embedding.Config {
	return embedding.Config{
		Provider:       common.ModelProvider(c.Model.Provider),
		ModelName:      c.Model.Name,
		Endpoint:       c.Model.Endpoint,
		APIToken:       c.Model.APIToken,
		Dim:            c.Model.Dim,
		ImageSize:      c.Model.ImageSize,
		TimeoutSeconds: c.Model.TimeoutSeconds,
		GridSize:       c.Model.GridSize,
		Seed:           c.Model.Seed,
	}
}

func (c *AppConfig) IndexParams() common.IndexParams {
	params := common.IndexParams{
		IndexType: common.IndexType(c.Catalog.IndexType),
	}
	if c.Catalog.HnswParams != nil {
		params.HnswParams = &common.HnswIndexOption{
			EFConstruction: c.Catalog.HnswParams.EFConstruction,
			M:              c.Catalog.HnswParams.M,
		}
	}
	return params
}
