package repository

import (
	"context"
	"time"

	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

// LeadFilter criterios de listado. Los campos vacíos no filtran.
type LeadFilter struct {
	Statuses      []entity.LeadStatus
	Priority      entity.Priority
	OwnerID       string
	Search        string // subcadena sobre name, sin distinguir mayúsculas
	UpdatedBefore *time.Time
	UpdatedAfter  *time.Time
	Limit         int
	Offset        int
}

// LeadRepository puerto de persistencia de leads.
// GetByID devuelve nil, nil si no existe. Update exige RowVersion vigente y lo incrementa.
type LeadRepository interface {
	Create(ctx context.Context, l *entity.Lead) error
	GetByID(ctx context.Context, id string) (*entity.Lead, error)
	List(ctx context.Context, f LeadFilter) ([]*entity.Lead, error)
	Update(ctx context.Context, l *entity.Lead) error
	Delete(ctx context.Context, id string) error
}
