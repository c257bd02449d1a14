package lifecycle

import (
	"context"

	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

func planVersions(plans []*entity.BusinessPlan) []int {
	out := make([]int, 0, len(plans))
	for _, p := range plans {
		out = append(out, p.Version)
	}
	return out
}

// RequestBusinessPlan crea una versión en estado requested y actualiza el espejo de la oportunidad.
func (s *Service) RequestBusinessPlan(ctx context.Context, actor entity.Actor, opportunityID, notes string) (*entity.BusinessPlan, error) {
	var out *entity.BusinessPlan
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		opp, err := s.openOpportunity(ctx, r, opportunityID)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckBusinessPlan(opp.BusinessPlanStatus, entity.PlanRequested); err != nil {
			return err
		}
		existing, err := r.BusinessPlans.ListByOpportunity(ctx, opportunityID)
		if err != nil {
			return storageErr(err, "list", "business_plan", "")
		}

		now := s.now()
		p := &entity.BusinessPlan{
			ID:            newID(),
			OpportunityID: opportunityID,
			Version:       lifecycle.NextVersion(planVersions(existing)),
			Status:        entity.PlanRequested,
			Notes:         notes,
			RequestedBy:   actor.UserID,
			RequestedAt:   &now,
			RowVersion:    1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := r.BusinessPlans.Create(ctx, p); err != nil {
			return storageErr(err, "create", "business_plan", p.ID)
		}
		from := opp.BusinessPlanStatus
		opp.BusinessPlanStatus = entity.PlanRequested
		if err := s.saveOpportunity(ctx, r, opp, "business_plan_status"); err != nil {
			return err
		}
		if err := s.audit(ctx, r, actor, entity.RelatedBusinessPlan, p.ID, "request", string(from), string(p.Status), notes); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UploadBusinessPlanDocument crea una nueva versión en received que referencia
// el documento y lleva el espejo de la oportunidad a received.
func (s *Service) UploadBusinessPlanDocument(ctx context.Context, actor entity.Actor, opportunityID, documentID string,
	status entity.BusinessPlanStatus) (*entity.BusinessPlan, error) {
	if status == "" {
		status = entity.PlanReceived
	}
	// approve, reject y updates_needed solo se deciden en la revisión.
	if status != entity.PlanReceived {
		return nil, domain.NewValidationError(domain.CodeValidation, "una subida solo registra status received, no %q", status)
	}
	var out *entity.BusinessPlan
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		opp, err := s.openOpportunity(ctx, r, opportunityID)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckBusinessPlan(opp.BusinessPlanStatus, status); err != nil {
			return err
		}
		if err := s.requireDocument(ctx, r, documentID); err != nil {
			return err
		}
		existing, err := r.BusinessPlans.ListByOpportunity(ctx, opportunityID)
		if err != nil {
			return storageErr(err, "list", "business_plan", "")
		}

		now := s.now()
		p := &entity.BusinessPlan{
			ID:            newID(),
			OpportunityID: opportunityID,
			Version:       lifecycle.NextVersion(planVersions(existing)),
			Status:        status,
			DocumentID:    documentID,
			RowVersion:    1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if status == entity.PlanReceived {
			p.ReceivedAt = &now
		}
		if err := r.BusinessPlans.Create(ctx, p); err != nil {
			return storageErr(err, "create", "business_plan", p.ID)
		}
		from := opp.BusinessPlanStatus
		opp.BusinessPlanStatus = status
		if err := s.saveOpportunity(ctx, r, opp, "business_plan_status"); err != nil {
			return err
		}
		if err := s.audit(ctx, r, actor, entity.RelatedBusinessPlan, p.ID, "upload", string(from), string(status), documentID); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// reviewPlan aplica una decisión de revisión sobre la última versión y refleja el estado.
func (s *Service) reviewPlan(ctx context.Context, actor entity.Actor, planID string, to entity.BusinessPlanStatus,
	feedback, action string) (*entity.BusinessPlan, error) {
	var out *entity.BusinessPlan
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		p, err := r.BusinessPlans.GetByID(ctx, planID)
		if err != nil {
			return storageErr(err, "get", "business_plan", planID)
		}
		if p == nil {
			return notFound("business_plan", planID)
		}
		if err := lifecycle.CheckBusinessPlan(p.Status, to); err != nil {
			return err
		}
		versions, err := r.BusinessPlans.ListByOpportunity(ctx, p.OpportunityID)
		if err != nil {
			return storageErr(err, "list", "business_plan", "")
		}
		if latest := lifecycle.NextVersion(planVersions(versions)) - 1; p.Version != latest {
			return domain.NewValidationError(domain.CodePlanSuperseded,
				"la versión %d fue reemplazada por la %d; revise la última", p.Version, latest)
		}
		opp, err := s.loadOpportunity(ctx, r, p.OpportunityID)
		if err != nil {
			return err
		}
		if opp.BusinessPlanStatus != p.Status {
			return domain.NewValidationError(domain.CodePlanSuperseded,
				"la oportunidad refleja %q y la versión %d está en %q", opp.BusinessPlanStatus, p.Version, p.Status)
		}

		from := p.Status
		now := s.now()
		p.Status = to
		if feedback != "" {
			p.Feedback = feedback
		}
		if to == entity.PlanApproved {
			p.ApprovedBy = actor.UserID
			p.ApprovedAt = &now
		}
		p.UpdatedAt = now
		if err := r.BusinessPlans.Update(ctx, p); err != nil {
			return storageErr(err, "update", "business_plan", planID, "status", "feedback")
		}
		opp.BusinessPlanStatus = to
		if err := s.saveOpportunity(ctx, r, opp, "business_plan_status"); err != nil {
			return err
		}
		if err := s.audit(ctx, r, actor, entity.RelatedBusinessPlan, planID, action, string(from), string(to), feedback); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApproveBusinessPlan received → approved; sella approved_by/at.
func (s *Service) ApproveBusinessPlan(ctx context.Context, actor entity.Actor, planID, feedback string) (*entity.BusinessPlan, error) {
	return s.reviewPlan(ctx, actor, planID, entity.PlanApproved, feedback, "approve")
}

// RejectBusinessPlan received → rejected.
func (s *Service) RejectBusinessPlan(ctx context.Context, actor entity.Actor, planID, feedback string) (*entity.BusinessPlan, error) {
	return s.reviewPlan(ctx, actor, planID, entity.PlanRejected, feedback, "reject")
}

// RequestBusinessPlanUpdates received → updates_needed.
func (s *Service) RequestBusinessPlanUpdates(ctx context.Context, actor entity.Actor, planID, feedback string) (*entity.BusinessPlan, error) {
	return s.reviewPlan(ctx, actor, planID, entity.PlanUpdatesNeeded, feedback, "request_updates")
}

// ListBusinessPlans versiones del plan de negocio de la oportunidad.
func (s *Service) ListBusinessPlans(ctx context.Context, opportunityID string) ([]*entity.BusinessPlan, error) {
	list, err := s.repos.BusinessPlans.ListByOpportunity(ctx, opportunityID)
	return list, storageErr(err, "list", "business_plan", "")
}
