package dto

import (
	"time"

	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WarningResponse paso secundario que no se aplicó; la operación principal sí.
type WarningResponse struct {
	Step    string `json:"step"`
	Entity  string `json:"entity"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

// Warnings convierte los avisos de aplicación parcial.
func Warnings(in []domain.PartialApplication) []WarningResponse {
	if len(in) == 0 {
		return nil
	}
	out := make([]WarningResponse, len(in))
	for i, w := range in {
		out[i] = WarningResponse{Step: w.Step, Entity: w.Entity, ID: w.ID}
		if w.Err != nil {
			out[i].Message = w.Err.Error()
		}
	}
	return out
}

// VersionRequest cuerpo mínimo de las acciones con control de concurrencia.
type VersionRequest struct {
	RowVersion int    `json:"row_version"`
	Reason     string `json:"reason,omitempty"`
}

// CommentsRequest cuerpo de aprobaciones y revisiones.
type CommentsRequest struct {
	Comments string `json:"comments"`
}

// AuditEntryResponse una entrada del historial.
type AuditEntryResponse struct {
	ID         string `json:"id"`
	Action     string `json:"action"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`
	ActorID    string `json:"actor_id"`
	Comments   string `json:"comments,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditFrom mapea el historial.
func AuditFrom(in []*entity.AuditEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(in))
	for _, e := range in {
		out = append(out, AuditEntryResponse{
			ID: e.ID, Action: e.Action, FromStatus: e.FromStatus, ToStatus: e.ToStatus,
			ActorID: e.ActorID, Comments: e.Comments, CreatedAt: e.CreatedAt,
		})
	}
	return out
}
