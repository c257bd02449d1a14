// Package pipeline expone el tablero kanban y el movimiento de tarjetas entre etapas.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/leadflow-api/internal/application/ports"
	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/domain/pipeline"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

var openLeadStatuses = []entity.LeadStatus{
	entity.LeadActive,
	entity.LeadWaitingForDetails,
	entity.LeadWaitingForApproval,
}

// UseCase tablero de leads y oportunidades.
type UseCase struct {
	tx    ports.TxRunner
	repos repository.Repositories
	log   zerolog.Logger
	now   func() time.Time
}

// NewUseCase construye el caso de uso. now nil usa time.Now.
func NewUseCase(tx ports.TxRunner, repos repository.Repositories, log zerolog.Logger, now func() time.Time) *UseCase {
	if now == nil {
		now = time.Now
	}
	return &UseCase{tx: tx, repos: repos, log: log.With().Str("component", "pipeline").Logger(), now: now}
}

// LeadBoard agrupa los leads por etapa derivada. Sin includeClosed se omiten
// los leads archivados y rechazados.
func (uc *UseCase) LeadBoard(ctx context.Context, search string, includeClosed bool) ([]pipeline.Bucket[*entity.Lead], error) {
	f := repository.LeadFilter{}
	if !includeClosed {
		f.Statuses = openLeadStatuses
	}
	leads, err := uc.repos.Leads.List(ctx, f)
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Entity: "lead", Err: err}
	}
	return pipeline.ProjectLeads(leads, search), nil
}

// OpportunityBoard agrupa las oportunidades por estado.
func (uc *UseCase) OpportunityBoard(ctx context.Context, search string) ([]pipeline.Bucket[*entity.Opportunity], error) {
	opps, err := uc.repos.Opportunities.List(ctx, repository.OpportunityFilter{})
	if err != nil {
		return nil, &domain.StorageError{Op: "list", Entity: "opportunity", Err: err}
	}
	return pipeline.ProjectOpportunities(opps, search), nil
}

// MoveItem mueve una tarjeta a targetStage y reporta si hubo escritura.
// Mover a la etapa que ya produce el estado actual no escribe nada.
func (uc *UseCase) MoveItem(ctx context.Context, actor entity.Actor, t pipeline.Type, id, targetStage string, expectedVersion int) (bool, error) {
	switch t {
	case pipeline.TypeLead:
		return uc.moveLead(ctx, actor, id, targetStage, expectedVersion)
	case pipeline.TypeOpportunity:
		return uc.moveOpportunity(ctx, actor, id, targetStage, expectedVersion)
	}
	return false, domain.NewValidationError(domain.CodeValidation, "tipo de tablero %q no existe", t)
}

func (uc *UseCase) moveLead(ctx context.Context, actor entity.Actor, id, targetStage string, expected int) (bool, error) {
	changed := false
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		l, err := r.Leads.GetByID(ctx, id)
		if err != nil {
			return &domain.StorageError{Op: "get", Entity: "lead", ID: id, Err: err}
		}
		if l == nil {
			return fmt.Errorf("lead %s: %w", id, domain.ErrNotFound)
		}
		if expected > 0 && expected != l.RowVersion {
			return &domain.ConflictError{Entity: "lead", ID: id, Expected: expected, Actual: l.RowVersion}
		}
		m, err := pipeline.LeadMove(l, targetStage)
		if err != nil {
			return err
		}
		from := l.Status
		if m.Status != nil && *m.Status != from {
			if err := lifecycle.CheckLeadMove(from, *m.Status); err != nil {
				return err
			}
		}
		before := *l
		if !m.Apply(l) {
			return nil
		}
		if err := lifecycle.CheckActiveCoreData(before, *l); err != nil {
			return err
		}
		l.UpdatedAt = uc.now()
		if err := r.Leads.Update(ctx, l); err != nil {
			return wrapStorage(err, "update", "lead", id, "status", "priority")
		}
		changed = true
		return uc.audit(ctx, r, actor, entity.RelatedLead, id, string(from), string(l.Status), targetStage)
	})
	if err != nil {
		return false, err
	}
	if changed {
		uc.log.Info().Str("lead_id", id).Str("stage", targetStage).Msg("lead movido en el tablero")
	}
	return changed, nil
}

func (uc *UseCase) moveOpportunity(ctx context.Context, actor entity.Actor, id, targetStage string, expected int) (bool, error) {
	to := entity.OpportunityStatus(targetStage)
	if !to.Valid() {
		return false, domain.NewValidationError(domain.CodeValidation, "etapa de oportunidad %q no existe", targetStage)
	}
	changed := false
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		o, err := r.Opportunities.GetByID(ctx, id)
		if err != nil {
			return &domain.StorageError{Op: "get", Entity: "opportunity", ID: id, Err: err}
		}
		if o == nil {
			return fmt.Errorf("opportunity %s: %w", id, domain.ErrNotFound)
		}
		if expected > 0 && expected != o.RowVersion {
			return &domain.ConflictError{Entity: "opportunity", ID: id, Expected: expected, Actual: o.RowVersion}
		}
		if o.Status == to {
			return nil
		}
		if err := lifecycle.CheckOpportunityMove(o.Status, to); err != nil {
			return err
		}
		from := o.Status
		o.Status = to
		o.UpdatedAt = uc.now()
		if err := r.Opportunities.Update(ctx, o); err != nil {
			return wrapStorage(err, "update", "opportunity", id, "status")
		}
		changed = true
		return uc.audit(ctx, r, actor, entity.RelatedOpportunity, id, string(from), string(to), targetStage)
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

func (uc *UseCase) audit(ctx context.Context, r repository.Repositories, actor entity.Actor, entityType, entityID, from, to, stage string) error {
	e := &entity.AuditEntry{
		ID:         uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     "pipeline_move",
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.UserID,
		Comments:   "stage " + stage,
		CreatedAt:  uc.now(),
	}
	return wrapStorage(r.Audit.Create(ctx, e), "create", "audit_entry", e.ID)
}

func wrapStorage(err error, op, ent, id string, fields ...string) error {
	if err == nil || domain.IsCallerRecoverable(err) {
		return err
	}
	return &domain.StorageError{Op: op, Entity: ent, ID: id, Fields: fields, Err: err}
}
