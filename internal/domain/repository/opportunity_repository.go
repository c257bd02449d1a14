package repository

import (
	"context"

	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

// OpportunityFilter criterios de listado de oportunidades.
type OpportunityFilter struct {
	Statuses []entity.OpportunityStatus
	Search   string // subcadena sobre el nombre del lead
	Limit    int
	Offset   int
}

// OpportunityRepository puerto de persistencia de oportunidades (incluye LeadName por join).
type OpportunityRepository interface {
	Create(ctx context.Context, o *entity.Opportunity) error
	GetByID(ctx context.Context, id string) (*entity.Opportunity, error)
	GetByLeadID(ctx context.Context, leadID string) (*entity.Opportunity, error)
	List(ctx context.Context, f OpportunityFilter) ([]*entity.Opportunity, error)
	Update(ctx context.Context, o *entity.Opportunity) error
}
