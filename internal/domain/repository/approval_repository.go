package repository

import (
	"context"

	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

// ApprovalRepository aprobaciones otorgadas (solo inserción).
type ApprovalRepository interface {
	Create(ctx context.Context, a *entity.Approval) error
	ListByOpportunity(ctx context.Context, opportunityID string) ([]*entity.Approval, error)
}

// AuditRepository traza de cambios de estado (solo inserción).
type AuditRepository interface {
	Create(ctx context.Context, e *entity.AuditEntry) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.AuditEntry, error)
}
