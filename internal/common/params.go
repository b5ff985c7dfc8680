package common

// IndexType represents the type of landmark index
type IndexType string

const (
	IndexTypeFlat IndexType = "flat"
	IndexTypeHnsw IndexType = "hnsw"
)

// ModelProvider selects the embedding model implementation
type ModelProvider string

const (
	ModelProviderRemote    ModelProvider = "remote"
	ModelProviderThumbnail ModelProvider = "thumbnail"
)

// IndexParams contains parameters for index initialization
type IndexParams struct {
	Dim        int              `json:"dim"`
	IndexType  IndexType        `json:"index_type"`
	HnswParams *HnswIndexOption `json:"hnsw_params,omitempty"`
}

// HnswIndexOption contains HNSW index creation parameters
type HnswIndexOption struct {
	EFConstruction int `json:"ef_construction"`
	M              int `json:"m"`
}
