package repository

import (
	"context"

	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

// NdaRepository puerto de persistencia de NDAs. ListByOpportunity ordena por versión ascendente.
type NdaRepository interface {
	Create(ctx context.Context, n *entity.Nda) error
	GetByID(ctx context.Context, id string) (*entity.Nda, error)
	ListByOpportunity(ctx context.Context, opportunityID string) ([]*entity.Nda, error)
	Update(ctx context.Context, n *entity.Nda) error
}

// BusinessPlanRepository puerto de persistencia de planes de negocio.
type BusinessPlanRepository interface {
	Create(ctx context.Context, p *entity.BusinessPlan) error
	GetByID(ctx context.Context, id string) (*entity.BusinessPlan, error)
	ListByOpportunity(ctx context.Context, opportunityID string) ([]*entity.BusinessPlan, error)
	Update(ctx context.Context, p *entity.BusinessPlan) error
}
