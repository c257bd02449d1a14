package lifecycle

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

// CreateLeadInput datos de alta de un lead. StatusChoice solo se usa cuando el
// lead es core investor sin datos suficientes.
type CreateLeadInput struct {
	Name         string
	InquiryType  entity.InquiryType
	Priority     entity.Priority
	Source       entity.LeadSource
	ExportQuota  *decimal.Decimal
	PlotSize     *decimal.Decimal
	Email        string
	Phone        string
	Notes        string
	OwnerID      string
	StatusChoice entity.LeadStatus
}

// UpdateLeadInput edición parcial; RowVersion es la versión leída por el cliente.
// Un puntero nil deja el campo igual. ClearExportQuota / ClearPlotSize borran
// la medida y tienen prioridad sobre el valor.
// StatusChoice se usa cuando la edición deja activo a un core investor sin datos:
// solo waiting_for_details o waiting_for_approval, según la tabla de transiciones.
type UpdateLeadInput struct {
	Name             *string
	InquiryType      *entity.InquiryType
	Priority         *entity.Priority
	Source           *entity.LeadSource
	ExportQuota      *decimal.Decimal
	PlotSize         *decimal.Decimal
	ClearExportQuota bool
	ClearPlotSize    bool
	Email            *string
	Phone            *string
	Notes            *string
	OwnerID          *string
	StatusChoice     entity.LeadStatus
	RowVersion       int
}

func validateLeadFields(name string, it entity.InquiryType, p entity.Priority, src entity.LeadSource) error {
	if strings.TrimSpace(name) == "" {
		return domain.NewValidationError(domain.CodeValidation, "name es requerido")
	}
	if !it.Valid() {
		return domain.NewValidationError(domain.CodeValidation, "inquiry_type %q no válido", it)
	}
	if !p.Valid() {
		return domain.NewValidationError(domain.CodeValidation, "priority %q no válida", p)
	}
	if !src.Valid() {
		return domain.NewValidationError(domain.CodeValidation, "source %q no válido", src)
	}
	return nil
}

func validateMeasures(quota, plot *decimal.Decimal) error {
	if quota != nil && (quota.IsNegative() || quota.GreaterThan(decimal.NewFromInt(100))) {
		return domain.NewValidationError(domain.CodeValidation, "export_quota debe estar entre 0 y 100")
	}
	if plot != nil && plot.IsNegative() {
		return domain.NewValidationError(domain.CodeValidation, "plot_size no puede ser negativo")
	}
	return nil
}

// CreateLead crea un lead aplicando el gate de core investor: sin datos
// suficientes la creación se bloquea hasta que el usuario elija estado.
func (s *Service) CreateLead(ctx context.Context, actor entity.Actor, in CreateLeadInput) (*entity.Lead, error) {
	if in.Source == "" {
		in.Source = entity.SourceOther
	}
	if err := validateLeadFields(in.Name, in.InquiryType, in.Priority, in.Source); err != nil {
		return nil, err
	}
	if err := validateMeasures(in.ExportQuota, in.PlotSize); err != nil {
		return nil, err
	}
	status, err := lifecycle.ResolveLeadCreationStatus(
		lifecycle.IsCoreInvestorCandidate(in.Priority, in.InquiryType),
		lifecycle.CoreInvestorDataSufficient(in.ExportQuota, in.PlotSize),
		in.StatusChoice,
	)
	if err != nil {
		return nil, err
	}

	owner := in.OwnerID
	if owner == "" {
		owner = actor.UserID
	}
	now := s.now()
	l := &entity.Lead{
		ID:          newID(),
		Name:        strings.TrimSpace(in.Name),
		InquiryType: in.InquiryType,
		Priority:    in.Priority,
		Source:      in.Source,
		Status:      status,
		ExportQuota: in.ExportQuota,
		PlotSize:    in.PlotSize,
		Email:       strings.TrimSpace(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		Notes:       in.Notes,
		OwnerID:     owner,
		RowVersion:  1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.tx.Run(ctx, func(r repository.Repositories) error {
		if err := r.Leads.Create(ctx, l); err != nil {
			return storageErr(err, "create", "lead", l.ID)
		}
		return s.audit(ctx, r, actor, entity.RelatedLead, l.ID, "create", "", string(status), "")
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("lead_id", l.ID).Str("status", string(status)).Msg("lead creado")
	return l, nil
}

// GetLead devuelve un lead o ErrNotFound.
func (s *Service) GetLead(ctx context.Context, id string) (*entity.Lead, error) {
	return s.loadLead(ctx, s.repos, id)
}

// ListLeads lista leads con filtro.
func (s *Service) ListLeads(ctx context.Context, f repository.LeadFilter) ([]*entity.Lead, error) {
	list, err := s.repos.Leads.List(ctx, f)
	return list, storageErr(err, "list", "lead", "")
}

// UpdateLead edita campos del lead. Un lead en waiting_for_details cuyos datos
// dejan de bloquear el gate pasa a active; una edición que deja activo a un
// core investor sin datos exige StatusChoice o se rechaza.
func (s *Service) UpdateLead(ctx context.Context, actor entity.Actor, id string, in UpdateLeadInput) (*entity.Lead, error) {
	if in.RowVersion <= 0 {
		return nil, domain.NewValidationError(domain.CodeValidation, "row_version es requerido")
	}
	var out *entity.Lead
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		l, err := s.loadLead(ctx, r, id)
		if err != nil {
			return err
		}
		if err := checkVersion("lead", id, in.RowVersion, l.RowVersion); err != nil {
			return err
		}
		before := *l
		fields := applyLeadUpdate(l, in)
		if err := validateLeadFields(l.Name, l.InquiryType, l.Priority, l.Source); err != nil {
			return err
		}
		if err := validateMeasures(l.ExportQuota, l.PlotSize); err != nil {
			return err
		}

		from := l.Status
		action := "details_completed"
		if from == entity.LeadWaitingForDetails {
			promoted, err := lifecycle.ResolveLeadCreationStatus(
				lifecycle.IsCoreInvestorCandidate(l.Priority, l.InquiryType),
				lifecycle.CoreInvestorDataSufficient(l.ExportQuota, l.PlotSize), "")
			if err == nil {
				if err := lifecycle.CheckLead(from, promoted); err != nil {
					return err
				}
				l.Status = promoted
				fields = append(fields, "status")
			}
		}
		if err := lifecycle.CheckActiveCoreData(before, *l); err != nil {
			if in.StatusChoice != entity.LeadWaitingForDetails && in.StatusChoice != entity.LeadWaitingForApproval {
				return err
			}
			if err := lifecycle.CheckLead(from, in.StatusChoice); err != nil {
				return err
			}
			l.Status = in.StatusChoice
			fields = append(fields, "status")
			action = "details_required"
		}
		l.UpdatedAt = s.now()
		if err := r.Leads.Update(ctx, l); err != nil {
			return storageErr(err, "update", "lead", id, fields...)
		}
		if l.Status != from {
			if err := s.audit(ctx, r, actor, entity.RelatedLead, id, action, string(from), string(l.Status), ""); err != nil {
				return err
			}
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func applyLeadUpdate(l *entity.Lead, in UpdateLeadInput) []string {
	var fields []string
	if in.Name != nil {
		l.Name = strings.TrimSpace(*in.Name)
		fields = append(fields, "name")
	}
	if in.InquiryType != nil {
		l.InquiryType = *in.InquiryType
		fields = append(fields, "inquiry_type")
	}
	if in.Priority != nil {
		l.Priority = *in.Priority
		fields = append(fields, "priority")
	}
	if in.Source != nil {
		l.Source = *in.Source
		fields = append(fields, "source")
	}
	switch {
	case in.ClearExportQuota:
		l.ExportQuota = nil
		fields = append(fields, "export_quota")
	case in.ExportQuota != nil:
		l.ExportQuota = in.ExportQuota
		fields = append(fields, "export_quota")
	}
	switch {
	case in.ClearPlotSize:
		l.PlotSize = nil
		fields = append(fields, "plot_size")
	case in.PlotSize != nil:
		l.PlotSize = in.PlotSize
		fields = append(fields, "plot_size")
	}
	if in.Email != nil {
		l.Email = strings.TrimSpace(*in.Email)
		fields = append(fields, "email")
	}
	if in.Phone != nil {
		l.Phone = strings.TrimSpace(*in.Phone)
		fields = append(fields, "phone")
	}
	if in.Notes != nil {
		l.Notes = *in.Notes
		fields = append(fields, "notes")
	}
	if in.OwnerID != nil {
		l.OwnerID = *in.OwnerID
		fields = append(fields, "owner_id")
	}
	return fields
}

// transitionLead cambia el estado si el actual está en allowed y la tabla lo permite.
func (s *Service) transitionLead(ctx context.Context, actor entity.Actor, id string, expected int,
	allowed []entity.LeadStatus, to entity.LeadStatus, action, comments string) (*entity.Lead, error) {
	var out *entity.Lead
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		l, err := s.loadLead(ctx, r, id)
		if err != nil {
			return err
		}
		if err := checkVersion("lead", id, expected, l.RowVersion); err != nil {
			return err
		}
		if !containsStatus(allowed, l.Status) {
			return &domain.TransitionError{Entity: "lead", From: string(l.Status), To: string(to)}
		}
		if err := lifecycle.CheckLead(l.Status, to); err != nil {
			return err
		}
		from := l.Status
		l.Status = to
		l.UpdatedAt = s.now()
		if err := r.Leads.Update(ctx, l); err != nil {
			return storageErr(err, "update", "lead", id, "status")
		}
		if err := s.audit(ctx, r, actor, entity.RelatedLead, id, action, string(from), string(to), comments); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("lead_id", id).Str("action", action).Str("status", string(to)).Str("actor", actor.UserID).Msg("transición de lead")
	return out, nil
}

func containsStatus(list []entity.LeadStatus, s entity.LeadStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ApproveLead waiting_for_approval → active.
func (s *Service) ApproveLead(ctx context.Context, actor entity.Actor, id string, expectedVersion int) (*entity.Lead, error) {
	return s.transitionLead(ctx, actor, id, expectedVersion,
		[]entity.LeadStatus{entity.LeadWaitingForApproval}, entity.LeadActive, "approve", "")
}

// RejectLead waiting_for_approval | waiting_for_details → rejected.
func (s *Service) RejectLead(ctx context.Context, actor entity.Actor, id, reason string, expectedVersion int) (*entity.Lead, error) {
	return s.transitionLead(ctx, actor, id, expectedVersion,
		[]entity.LeadStatus{entity.LeadWaitingForApproval, entity.LeadWaitingForDetails}, entity.LeadRejected, "reject", reason)
}

// ArchiveLead active → archived.
func (s *Service) ArchiveLead(ctx context.Context, actor entity.Actor, id string, expectedVersion int) (*entity.Lead, error) {
	return s.transitionLead(ctx, actor, id, expectedVersion,
		[]entity.LeadStatus{entity.LeadActive}, entity.LeadArchived, "archive", "")
}

// RestoreLead archived → active.
func (s *Service) RestoreLead(ctx context.Context, actor entity.Actor, id string, expectedVersion int) (*entity.Lead, error) {
	return s.transitionLead(ctx, actor, id, expectedVersion,
		[]entity.LeadStatus{entity.LeadArchived}, entity.LeadActive, "restore", "")
}

// SubmitLeadForApproval waiting_for_details → waiting_for_approval.
func (s *Service) SubmitLeadForApproval(ctx context.Context, actor entity.Actor, id string, expectedVersion int) (*entity.Lead, error) {
	return s.transitionLead(ctx, actor, id, expectedVersion,
		[]entity.LeadStatus{entity.LeadWaitingForDetails}, entity.LeadWaitingForApproval, "submit_for_approval", "")
}

// DeleteLead borrado físico para administración de datos. Solo senior_management
// y solo si el lead no tiene oportunidad.
func (s *Service) DeleteLead(ctx context.Context, actor entity.Actor, id string) error {
	if actor.Role != entity.RoleSeniorManagement {
		return domain.ErrForbidden
	}
	return s.tx.Run(ctx, func(r repository.Repositories) error {
		if _, err := s.loadLead(ctx, r, id); err != nil {
			return err
		}
		opp, err := r.Opportunities.GetByLeadID(ctx, id)
		if err != nil {
			return storageErr(err, "get", "opportunity", "")
		}
		if opp != nil {
			return domain.NewValidationError(domain.CodeOpportunityExists, "el lead tiene la oportunidad %s; archívelo en su lugar", opp.ID)
		}
		if err := r.Leads.Delete(ctx, id); err != nil {
			return storageErr(err, "delete", "lead", id)
		}
		return s.audit(ctx, r, actor, entity.RelatedLead, id, "delete", "", "", "")
	})
}

// ConvertLeadToOpportunity crea la oportunidad de un lead activo y su checklist
// por defecto, en una transacción.
func (s *Service) ConvertLeadToOpportunity(ctx context.Context, actor entity.Actor, leadID string) (*entity.Opportunity, *entity.Checklist, error) {
	var (
		opp *entity.Opportunity
		cl  *entity.Checklist
	)
	err := s.tx.Run(ctx, func(r repository.Repositories) error {
		l, err := s.loadLead(ctx, r, leadID)
		if err != nil {
			return err
		}
		if l.Status != entity.LeadActive {
			return domain.NewValidationError(domain.CodeValidation, "solo un lead active se convierte en oportunidad (estado: %s)", l.Status)
		}
		existing, err := r.Opportunities.GetByLeadID(ctx, leadID)
		if err != nil {
			return storageErr(err, "get", "opportunity", "")
		}
		if existing != nil {
			return domain.NewValidationError(domain.CodeOpportunityExists, "el lead ya tiene la oportunidad %s", existing.ID)
		}

		now := s.now()
		opp = &entity.Opportunity{
			ID:                 newID(),
			LeadID:             leadID,
			LeadName:           l.Name,
			Status:             entity.OpportunityAssessmentInProgress,
			NdaStatus:          entity.NdaNotIssued,
			BusinessPlanStatus: entity.PlanNotRequested,
			RowVersion:         1,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := r.Opportunities.Create(ctx, opp); err != nil {
			return storageErr(err, "create", "opportunity", opp.ID)
		}
		cl = s.newChecklist(opp.ID, templateItems(s.cfg.ChecklistTemplate))
		if err := r.Checklists.Create(ctx, cl); err != nil {
			return storageErr(err, "create", "checklist", cl.ID)
		}
		if err := s.audit(ctx, r, actor, entity.RelatedLead, leadID, "convert", string(l.Status), string(l.Status), "opportunity "+opp.ID); err != nil {
			return err
		}
		return s.audit(ctx, r, actor, entity.RelatedOpportunity, opp.ID, "create", "", string(opp.Status), "")
	})
	if err != nil {
		return nil, nil, err
	}
	s.log.Info().Str("lead_id", leadID).Str("opportunity_id", opp.ID).Int("checklist_items", len(cl.Items)).Msg("lead convertido en oportunidad")
	return opp, cl, nil
}

// LeadHistory traza de auditoría del lead.
func (s *Service) LeadHistory(ctx context.Context, id string) ([]*entity.AuditEntry, error) {
	list, err := s.repos.Audit.ListByEntity(ctx, entity.RelatedLead, id)
	return list, storageErr(err, "list", "audit_entry", id)
}
