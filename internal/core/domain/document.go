package domain

import (
	"fmt"
	"time"
)

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
	StatusDeleted    DocumentStatus = "deleted"
)

// Document is an uploaded source file scoped to one namespace (user).
type Document struct {
	ID          string         `json:"id"`
	Namespace   string         `json:"namespace"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	ChunkCount  int            `json:"chunk_count"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// PageText is the raw text of one 1-based page.
type PageText struct {
	Page int
	Text string
}

// Chunk is a fixed-size word window cut from one page.
type Chunk struct {
	DocumentID string `json:"document_id"`
	Page       int    `json:"page"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}

func (c Chunk) ID() string {
	return ChunkID(c.DocumentID, c.Page, c.ChunkIndex)
}

// ChunkID renders the stable dedup key of a chunk. Consumers must treat the
// result as opaque.
func ChunkID(documentID string, page, chunkIndex int) string {
	return fmt.Sprintf("%s#p%dc%d", documentID, page, chunkIndex)
}

// VectorRecord is one embedded chunk ready to be upserted.
type VectorRecord struct {
	Chunk  Chunk
	Vector []float32
}
