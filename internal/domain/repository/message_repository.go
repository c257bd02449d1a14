package repository

import (
	"context"
	"time"

	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

// MessageFilter criterios de listado de correos entrantes.
type MessageFilter struct {
	OnlyEnquiries bool
	Unlinked      bool
	Limit         int
	Offset        int
}

// InboundMessageRepository correos sincronizados. Upsert deduplica por (provider, external_id)
// y reporta si insertó.
type InboundMessageRepository interface {
	Upsert(ctx context.Context, m *entity.InboundMessage) (bool, error)
	GetByID(ctx context.Context, id string) (*entity.InboundMessage, error)
	List(ctx context.Context, f MessageFilter) ([]*entity.InboundMessage, error)
	Update(ctx context.Context, m *entity.InboundMessage) error
	LatestReceivedAt(ctx context.Context, provider entity.LeadSource) (*time.Time, error)
}
