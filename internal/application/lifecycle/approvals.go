package lifecycle

import (
	"context"

	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

// grant registra la aprobación y mueve la oportunidad de from a to en una transacción.
func (s *Service) grant(ctx context.Context, actor entity.Actor, opportunityID string, stage entity.ApprovalStage,
	from, to entity.OpportunityStatus, comments string) (*entity.Approval, error) {
	var out *entity.Approval
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		opp, err := s.loadOpportunity(ctx, r, opportunityID)
		if err != nil {
			return err
		}
		if opp.Status != from {
			return &domain.TransitionError{Entity: "opportunity", From: string(opp.Status), To: string(to)}
		}
		if err := lifecycle.CheckOpportunity(opp.Status, to); err != nil {
			return err
		}
		a := &entity.Approval{
			ID:            newID(),
			OpportunityID: opportunityID,
			Stage:         stage,
			IsFinal:       stage == entity.StageFinal,
			Comments:      comments,
			ApprovedBy:    actor.UserID,
			ApproverRole:  actor.Role,
			CreatedAt:     s.now(),
		}
		if err := r.Approvals.Create(ctx, a); err != nil {
			return storageErr(err, "create", "approval", a.ID)
		}
		opp.Status = to
		if err := s.saveOpportunity(ctx, r, opp, "status"); err != nil {
			return err
		}
		if err := s.audit(ctx, r, actor, entity.RelatedOpportunity, opportunityID, "approve_"+string(stage), string(from), string(to), comments); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("opportunity_id", opportunityID).Str("stage", string(stage)).Str("actor", actor.UserID).Msg("aprobación otorgada")
	return out, nil
}

// GrantDueDiligenceApproval assessment_completed → waiting_for_approval, con registro de aprobación.
func (s *Service) GrantDueDiligenceApproval(ctx context.Context, actor entity.Actor, opportunityID, comments string) (*entity.Approval, error) {
	if !entity.ValidRole(actor.Role) {
		return nil, domain.ErrForbidden
	}
	return s.grant(ctx, actor, opportunityID, entity.StageDueDiligence,
		entity.OpportunityAssessmentCompleted, entity.OpportunityWaitingForApproval, comments)
}

// GrantFinalApproval waiting_for_approval → due_diligence_approved. Solo senior_management.
func (s *Service) GrantFinalApproval(ctx context.Context, actor entity.Actor, opportunityID, comments string) (*entity.Approval, error) {
	if actor.Role != entity.RoleSeniorManagement {
		return nil, domain.ErrForbidden
	}
	return s.grant(ctx, actor, opportunityID, entity.StageFinal,
		entity.OpportunityWaitingForApproval, entity.OpportunityApproved, comments)
}

// ListApprovals aprobaciones de la oportunidad.
func (s *Service) ListApprovals(ctx context.Context, opportunityID string) ([]*entity.Approval, error) {
	list, err := s.repos.Approvals.ListByOpportunity(ctx, opportunityID)
	return list, storageErr(err, "list", "approval", "")
}
