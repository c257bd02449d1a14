package repository

import (
	"context"

	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

// ChecklistRepository checklist de due diligence y sus ítems.
// Create persiste la checklist junto con Items. Los ítems se devuelven por OrderIndex.
type ChecklistRepository interface {
	Create(ctx context.Context, c *entity.Checklist) error
	GetByID(ctx context.Context, id string) (*entity.Checklist, error)
	GetByOpportunity(ctx context.Context, opportunityID string) (*entity.Checklist, error)
	GetItem(ctx context.Context, itemID string) (*entity.ChecklistItem, error)
	ListItems(ctx context.Context, checklistID string) ([]*entity.ChecklistItem, error)
	UpdateItem(ctx context.Context, item *entity.ChecklistItem) error
}
