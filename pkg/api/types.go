package api

import (
	"github.com/ssargent/roiread/pkg/roi"
	"github.com/ssargent/roiread/pkg/storage"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// DecodeResponse is returned by the decode endpoint. ID and Summary are set
// only when the collection was stored in the catalog.
type DecodeResponse struct {
	ID         string           `json:"id,omitempty"`
	Summary    *storage.Summary `json:"summary,omitempty"`
	Collection *roi.Collection  `json:"collection"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind           string
	Port           int
	APIKey         string // empty disables authentication
	MaxUploadBytes int64
	Workers        int
	MaxEntrySize   int64
}

// Catalog is the subset of the collection store the handlers use.
type Catalog interface {
	Create(source string, coll *roi.Collection) (*storage.Summary, error)
	Read(id string) (*roi.Collection, error)
	List() ([]storage.Summary, error)
	Delete(id string) error
}
