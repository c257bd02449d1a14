package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

const stepRecomputeAssessment = "recompute_assessment"

// ChecklistItemInput ítem a crear.
type ChecklistItemInput struct {
	Name        string
	Description string
	AssignedTo  string
	DueDate     *time.Time
}

// ChecklistItemUpdate cambio de estado de un ítem. Notes nil no modifica las notas.
type ChecklistItemUpdate struct {
	Status          entity.ChecklistItemStatus
	Notes           *string
	ExpectedVersion int
}

func templateItems(names []string) []ChecklistItemInput {
	out := make([]ChecklistItemInput, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, ChecklistItemInput{Name: n})
		}
	}
	return out
}

func (s *Service) newChecklist(opportunityID string, items []ChecklistItemInput) *entity.Checklist {
	now := s.now()
	cl := &entity.Checklist{ID: newID(), OpportunityID: opportunityID, CreatedAt: now, UpdatedAt: now}
	for i, in := range items {
		cl.Items = append(cl.Items, &entity.ChecklistItem{
			ID:          newID(),
			ChecklistID: cl.ID,
			Name:        in.Name,
			Description: in.Description,
			Status:      entity.ItemNotStarted,
			AssignedTo:  in.AssignedTo,
			DueDate:     in.DueDate,
			OrderIndex:  i,
			RowVersion:  1,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return cl
}

// CreateChecklist crea la checklist de la oportunidad. Sin ítems usa la plantilla configurada.
func (s *Service) CreateChecklist(ctx context.Context, actor entity.Actor, opportunityID string, items []ChecklistItemInput) (*entity.Checklist, error) {
	for _, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			return nil, domain.NewValidationError(domain.CodeValidation, "cada ítem requiere name")
		}
	}
	if len(items) == 0 {
		items = templateItems(s.cfg.ChecklistTemplate)
	}
	var cl *entity.Checklist
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		if _, err := s.openOpportunity(ctx, r, opportunityID); err != nil {
			return err
		}
		existing, err := r.Checklists.GetByOpportunity(ctx, opportunityID)
		if err != nil {
			return storageErr(err, "get", "checklist", "")
		}
		if existing != nil {
			return domain.NewValidationError(domain.CodeChecklistExists, "la oportunidad ya tiene la checklist %s", existing.ID)
		}
		cl = s.newChecklist(opportunityID, items)
		if err := r.Checklists.Create(ctx, cl); err != nil {
			return storageErr(err, "create", "checklist", cl.ID)
		}
		return s.audit(ctx, r, actor, entity.RelatedOpportunity, opportunityID, "create_checklist", "", "", cl.ID)
	})
	if err != nil {
		return nil, err
	}
	return cl, nil
}

// GetChecklist checklist de la oportunidad con sus ítems.
func (s *Service) GetChecklist(ctx context.Context, opportunityID string) (*entity.Checklist, error) {
	cl, err := s.repos.Checklists.GetByOpportunity(ctx, opportunityID)
	if err != nil {
		return nil, storageErr(err, "get", "checklist", "")
	}
	if cl == nil {
		return nil, notFound("checklist of opportunity", opportunityID)
	}
	return cl, nil
}

// UpdateChecklistItemStatus escribe el estado del ítem (sellando o limpiando
// completed_at/by) y luego recalcula el estado de evaluación de la oportunidad.
// Si el recálculo falla, el ítem queda escrito y se devuelve un aviso; el
// recálculo queda pendiente en el Reconciler.
func (s *Service) UpdateChecklistItemStatus(ctx context.Context, actor entity.Actor, itemID string, in ChecklistItemUpdate) (*entity.ChecklistItem, Outcome, error) {
	var (
		item          *entity.ChecklistItem
		opportunityID string
	)
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		it, err := r.Checklists.GetItem(ctx, itemID)
		if err != nil {
			return storageErr(err, "get", "checklist_item", itemID)
		}
		if it == nil {
			return notFound("checklist_item", itemID)
		}
		if err := checkVersion("checklist_item", itemID, in.ExpectedVersion, it.RowVersion); err != nil {
			return err
		}
		if err := lifecycle.CheckChecklistItem(it.Status, in.Status); err != nil {
			return err
		}
		cl, err := r.Checklists.GetByID(ctx, it.ChecklistID)
		if err != nil {
			return storageErr(err, "get", "checklist", it.ChecklistID)
		}
		if cl == nil {
			return notFound("checklist", it.ChecklistID)
		}
		opportunityID = cl.OpportunityID

		now := s.now()
		fields := []string{"status"}
		if in.Status == entity.ItemCompleted {
			if it.Status != entity.ItemCompleted || it.CompletedAt == nil {
				it.CompletedAt = &now
				it.CompletedBy = actor.UserID
				fields = append(fields, "completed_at", "completed_by")
			}
		} else if it.CompletedAt != nil || it.CompletedBy != "" {
			it.CompletedAt = nil
			it.CompletedBy = ""
			fields = append(fields, "completed_at", "completed_by")
		}
		it.Status = in.Status
		if in.Notes != nil {
			it.Notes = *in.Notes
			fields = append(fields, "notes")
		}
		it.UpdatedAt = now
		if err := r.Checklists.UpdateItem(ctx, it); err != nil {
			return storageErr(err, "update", "checklist_item", itemID, fields...)
		}
		item = it
		return nil
	})
	if err != nil {
		return nil, Outcome{}, err
	}

	var out Outcome
	if err := s.RecomputeAssessment(ctx, opportunityID); err != nil {
		warn := domain.PartialApplication{Step: stepRecomputeAssessment, Entity: "opportunity", ID: opportunityID, Err: err}
		out.Warnings = append(out.Warnings, warn)
		s.log.Warn().Err(err).Str("opportunity_id", opportunityID).Str("item_id", itemID).Msg("recálculo de evaluación pendiente")
		if s.reconciler != nil && !domain.IsCallerRecoverable(err) {
			oppID := opportunityID
			s.reconciler.Enqueue(Step{Name: stepRecomputeAssessment, Entity: "opportunity", ID: oppID,
				Run: func(ctx context.Context) error { return s.RecomputeAssessment(ctx, oppID) }}, err)
		}
	}
	return item, out, nil
}

// RecomputeAssessment recalcula el estado de evaluación desde los ítems y lo
// escribe en la oportunidad. Solo actúa mientras la oportunidad está en
// assessment_in_progress o assessment_completed. Es idempotente.
func (s *Service) RecomputeAssessment(ctx context.Context, opportunityID string) error {
	return s.tx.Run(ctx, func(r repository.Repositories) error {
		opp, err := s.loadOpportunity(ctx, r, opportunityID)
		if err != nil {
			return err
		}
		if !lifecycle.AssessmentRecomputable(opp.Status) {
			return nil
		}
		cl, err := r.Checklists.GetByOpportunity(ctx, opportunityID)
		if err != nil {
			return storageErr(err, "get", "checklist", "")
		}
		var statuses []entity.ChecklistItemStatus
		if cl != nil {
			items, err := r.Checklists.ListItems(ctx, cl.ID)
			if err != nil {
				return storageErr(err, "list", "checklist_item", cl.ID)
			}
			for _, it := range items {
				statuses = append(statuses, it.Status)
			}
		}
		next := lifecycle.ComputeAssessmentStatus(statuses)
		if next == opp.Status {
			return nil
		}
		if err := lifecycle.CheckOpportunity(opp.Status, next); err != nil {
			return err
		}
		from := opp.Status
		opp.Status = next
		if err := s.saveOpportunity(ctx, r, opp, "status"); err != nil {
			return err
		}
		return s.audit(ctx, r, entity.System, entity.RelatedOpportunity, opportunityID, "assessment_recomputed", string(from), string(next), "")
	})
}
