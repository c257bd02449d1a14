package dto

import (
	"time"

	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

// DocumentVersionResponse versión anterior de un documento.
type DocumentVersionResponse struct {
	Version    int       `json:"version"`
	Path       string    `json:"path"`
	UploadedAt time.Time `json:"uploaded_at"`
	SizeBytes  int64     `json:"size_bytes"`
}

// DocumentResponse metadatos de un documento.
type DocumentResponse struct {
	ID             string                    `json:"id"`
	EntityType     string                    `json:"entity_type"`
	EntityID       string                    `json:"entity_id"`
	Name           string                    `json:"name"`
	ContentType    string                    `json:"content_type"`
	Path           string                    `json:"path"`
	SizeBytes      int64                     `json:"size_bytes"`
	Version        int                       `json:"version"`
	VersionHistory []DocumentVersionResponse `json:"version_history"`
	UploadedBy     string                    `json:"uploaded_by"`
	CreatedAt      time.Time                 `json:"created_at"`
	UpdatedAt      time.Time                 `json:"updated_at"`
}

// DocumentFrom mapea la entidad.
func DocumentFrom(d *entity.Document) DocumentResponse {
	out := DocumentResponse{
		ID:             d.ID,
		EntityType:     d.EntityType,
		EntityID:       d.EntityID,
		Name:           d.Name,
		ContentType:    d.ContentType,
		Path:           d.Path,
		SizeBytes:      d.SizeBytes,
		Version:        d.Version,
		VersionHistory: make([]DocumentVersionResponse, 0, len(d.VersionHistory)),
		UploadedBy:     d.UploadedBy,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	for _, v := range d.VersionHistory {
		out.VersionHistory = append(out.VersionHistory, DocumentVersionResponse(v))
	}
	return out
}

// SignedURLResponse URL temporal de descarga.
type SignedURLResponse struct {
	URL              string `json:"url"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}
