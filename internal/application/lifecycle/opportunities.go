package lifecycle

import (
	"context"
	"time"

	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

// GetOpportunity devuelve la oportunidad o ErrNotFound.
func (s *Service) GetOpportunity(ctx context.Context, id string) (*entity.Opportunity, error) {
	return s.loadOpportunity(ctx, s.repos, id)
}

// ListOpportunities lista oportunidades con filtro.
func (s *Service) ListOpportunities(ctx context.Context, f repository.OpportunityFilter) ([]*entity.Opportunity, error) {
	list, err := s.repos.Opportunities.List(ctx, f)
	return list, storageErr(err, "list", "opportunity", "")
}

// ScheduleSiteVisit registra la visita al predio.
func (s *Service) ScheduleSiteVisit(ctx context.Context, actor entity.Actor, opportunityID string, date time.Time, notes string, expectedVersion int) (*entity.Opportunity, error) {
	if date.IsZero() {
		return nil, domain.NewValidationError(domain.CodeValidation, "date es requerido")
	}
	var out *entity.Opportunity
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		opp, err := s.openOpportunity(ctx, r, opportunityID)
		if err != nil {
			return err
		}
		if err := checkVersion("opportunity", opportunityID, expectedVersion, opp.RowVersion); err != nil {
			return err
		}
		opp.SiteVisitScheduled = true
		opp.SiteVisitDate = &date
		opp.SiteVisitNotes = notes
		if err := s.saveOpportunity(ctx, r, opp, "site_visit_scheduled", "site_visit_date", "site_visit_notes"); err != nil {
			return err
		}
		if err := s.audit(ctx, r, actor, entity.RelatedOpportunity, opportunityID, "schedule_site_visit",
			string(opp.Status), string(opp.Status), date.Format(time.RFC3339)); err != nil {
			return err
		}
		out = opp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RejectOpportunity lleva cualquier oportunidad no terminal a rejected.
func (s *Service) RejectOpportunity(ctx context.Context, actor entity.Actor, opportunityID, reason string, expectedVersion int) (*entity.Opportunity, error) {
	var out *entity.Opportunity
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		opp, err := s.loadOpportunity(ctx, r, opportunityID)
		if err != nil {
			return err
		}
		if err := checkVersion("opportunity", opportunityID, expectedVersion, opp.RowVersion); err != nil {
			return err
		}
		if err := lifecycle.CheckOpportunity(opp.Status, entity.OpportunityRejected); err != nil {
			return err
		}
		from := opp.Status
		opp.Status = entity.OpportunityRejected
		if err := s.saveOpportunity(ctx, r, opp, "status"); err != nil {
			return err
		}
		if err := s.audit(ctx, r, actor, entity.RelatedOpportunity, opportunityID, "reject", string(from), string(opp.Status), reason); err != nil {
			return err
		}
		out = opp
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("opportunity_id", opportunityID).Str("actor", actor.UserID).Msg("oportunidad rechazada")
	return out, nil
}

// OpportunityHistory traza de auditoría de la oportunidad.
func (s *Service) OpportunityHistory(ctx context.Context, id string) ([]*entity.AuditEntry, error) {
	list, err := s.repos.Audit.ListByEntity(ctx, entity.RelatedOpportunity, id)
	return list, storageErr(err, "list", "audit_entry", id)
}
