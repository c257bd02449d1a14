package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/leadflow-api/internal/application/ports"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// NewRepositories arma el juego completo de repositorios sobre q (pool o tx).
func NewRepositories(q Querier) repository.Repositories {
	return repository.Repositories{
		Leads:         NewLeadRepository(q),
		Opportunities: NewOpportunityRepository(q),
		Ndas:          NewNdaRepository(q),
		BusinessPlans: NewBusinessPlanRepository(q),
		Checklists:    NewChecklistRepository(q),
		Tasks:         NewTaskRepository(q),
		Notifications: NewNotificationRepository(q),
		Meetings:      NewMeetingRepository(q),
		Comments:      NewCommentRepository(q),
		Documents:     NewDocumentRepository(q),
		Approvals:     NewApprovalRepository(q),
		Audit:         NewAuditRepository(q),
		Messages:      NewMessageRepository(q),
		Users:         NewUserRepository(q),
	}
}

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewRepositories(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
