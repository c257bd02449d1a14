package dto

import (
	"time"

	"github.com/jhoicas/leadflow-api/internal/application/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

// OpportunityResponse salida de una oportunidad.
type OpportunityResponse struct {
	ID                 string     `json:"id"`
	LeadID             string     `json:"lead_id"`
	LeadName           string     `json:"lead_name"`
	Status             string     `json:"status"`
	NdaStatus          string     `json:"nda_status"`
	BusinessPlanStatus string     `json:"business_plan_status"`
	SiteVisitScheduled bool       `json:"site_visit_scheduled"`
	SiteVisitDate      *time.Time `json:"site_visit_date,omitempty"`
	SiteVisitNotes     string     `json:"site_visit_notes,omitempty"`
	RowVersion         int        `json:"row_version"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// OpportunityFrom mapea la entidad.
func OpportunityFrom(o *entity.Opportunity) OpportunityResponse {
	return OpportunityResponse{
		ID:                 o.ID,
		LeadID:             o.LeadID,
		LeadName:           o.LeadName,
		Status:             string(o.Status),
		NdaStatus:          string(o.NdaStatus),
		BusinessPlanStatus: string(o.BusinessPlanStatus),
		SiteVisitScheduled: o.SiteVisitScheduled,
		SiteVisitDate:      o.SiteVisitDate,
		SiteVisitNotes:     o.SiteVisitNotes,
		RowVersion:         o.RowVersion,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

// OpportunitiesFrom mapea una lista.
func OpportunitiesFrom(in []*entity.Opportunity) []OpportunityResponse {
	out := make([]OpportunityResponse, 0, len(in))
	for _, o := range in {
		out = append(out, OpportunityFrom(o))
	}
	return out
}

// ConversionResponse resultado de convertir un lead.
type ConversionResponse struct {
	Opportunity OpportunityResponse `json:"opportunity"`
	Checklist   *ChecklistResponse  `json:"checklist,omitempty"`
}

// SiteVisitRequest agenda la visita al predio.
type SiteVisitRequest struct {
	Date       time.Time `json:"date" validate:"required"`
	Notes      string    `json:"notes"`
	RowVersion int       `json:"row_version"`
}

// ──────────────────────────────────────────────────────────────────────────────
// NDA
// ──────────────────────────────────────────────────────────────────────────────

// NdaResponse salida de un NDA.
type NdaResponse struct {
	ID              string            `json:"id"`
	OpportunityID   string            `json:"opportunity_id"`
	Version         int               `json:"version"`
	Status          string            `json:"status"`
	DocumentID      string            `json:"document_id,omitempty"`
	IssuedBy        string            `json:"issued_by,omitempty"`
	IssuedAt        *time.Time        `json:"issued_at,omitempty"`
	SignedAt        *time.Time        `json:"signed_at,omitempty"`
	CountersignedAt *time.Time        `json:"countersigned_at,omitempty"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
	Warnings        []WarningResponse `json:"warnings,omitempty"`
}

// NdaFrom mapea la entidad.
func NdaFrom(n *entity.Nda) NdaResponse {
	return NdaResponse{
		ID:              n.ID,
		OpportunityID:   n.OpportunityID,
		Version:         n.Version,
		Status:          string(n.Status),
		DocumentID:      n.DocumentID,
		IssuedBy:        n.IssuedBy,
		IssuedAt:        n.IssuedAt,
		SignedAt:        n.SignedAt,
		CountersignedAt: n.CountersignedAt,
		CompletedAt:     n.CompletedAt,
	}
}

// NdasFrom mapea una lista.
func NdasFrom(in []*entity.Nda) []NdaResponse {
	out := make([]NdaResponse, 0, len(in))
	for _, n := range in {
		out = append(out, NdaFrom(n))
	}
	return out
}

// AttachDocumentRequest liga un documento ya subido.
type AttachDocumentRequest struct {
	DocumentID string `json:"document_id" validate:"required"`
	Status     string `json:"status,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Plan de negocio
// ──────────────────────────────────────────────────────────────────────────────

// BusinessPlanResponse salida de una versión del plan de negocio.
type BusinessPlanResponse struct {
	ID            string     `json:"id"`
	OpportunityID string     `json:"opportunity_id"`
	Version       int        `json:"version"`
	Status        string     `json:"status"`
	DocumentID    string     `json:"document_id,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Feedback      string     `json:"feedback,omitempty"`
	RequestedBy   string     `json:"requested_by,omitempty"`
	RequestedAt   *time.Time `json:"requested_at,omitempty"`
	ReceivedAt    *time.Time `json:"received_at,omitempty"`
	ApprovedBy    string     `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
}

// BusinessPlanFrom mapea la entidad.
func BusinessPlanFrom(p *entity.BusinessPlan) BusinessPlanResponse {
	return BusinessPlanResponse{
		ID:            p.ID,
		OpportunityID: p.OpportunityID,
		Version:       p.Version,
		Status:        string(p.Status),
		DocumentID:    p.DocumentID,
		Notes:         p.Notes,
		Feedback:      p.Feedback,
		RequestedBy:   p.RequestedBy,
		RequestedAt:   p.RequestedAt,
		ReceivedAt:    p.ReceivedAt,
		ApprovedBy:    p.ApprovedBy,
		ApprovedAt:    p.ApprovedAt,
	}
}

// BusinessPlansFrom mapea una lista.
func BusinessPlansFrom(in []*entity.BusinessPlan) []BusinessPlanResponse {
	out := make([]BusinessPlanResponse, 0, len(in))
	for _, p := range in {
		out = append(out, BusinessPlanFrom(p))
	}
	return out
}

// RequestBusinessPlanRequest solicitud al inversor.
type RequestBusinessPlanRequest struct {
	Notes string `json:"notes"`
}

// ReviewRequest decisión sobre un plan recibido.
type ReviewRequest struct {
	Feedback string `json:"feedback"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Checklist
// ──────────────────────────────────────────────────────────────────────────────

// ChecklistItemRequest ítem personalizado al crear la checklist.
type ChecklistItemRequest struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	AssignedTo  string     `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date"`
}

// CreateChecklistRequest vacío usa la plantilla configurada.
type CreateChecklistRequest struct {
	Items []ChecklistItemRequest `json:"items"`
}

// Inputs convierte al caso de uso.
func (r CreateChecklistRequest) Inputs() []lifecycle.ChecklistItemInput {
	out := make([]lifecycle.ChecklistItemInput, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, lifecycle.ChecklistItemInput{
			Name: it.Name, Description: it.Description, AssignedTo: it.AssignedTo, DueDate: it.DueDate,
		})
	}
	return out
}

// UpdateChecklistItemRequest cambio de estado de un ítem.
type UpdateChecklistItemRequest struct {
	Status     string  `json:"status" validate:"required,oneof=not_started in_progress completed"`
	Notes      *string `json:"notes"`
	RowVersion int     `json:"row_version"`
}

// Input convierte al caso de uso.
func (r UpdateChecklistItemRequest) Input() lifecycle.ChecklistItemUpdate {
	return lifecycle.ChecklistItemUpdate{
		Status:          entity.ChecklistItemStatus(r.Status),
		Notes:           r.Notes,
		ExpectedVersion: r.RowVersion,
	}
}

// ChecklistItemResponse salida de un ítem.
type ChecklistItemResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Status      string            `json:"status"`
	AssignedTo  string            `json:"assigned_to,omitempty"`
	DueDate     *time.Time        `json:"due_date,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	CompletedBy string            `json:"completed_by,omitempty"`
	OrderIndex  int               `json:"order_index"`
	RowVersion  int               `json:"row_version"`
	Warnings    []WarningResponse `json:"warnings,omitempty"`
}

// ChecklistItemFrom mapea la entidad.
func ChecklistItemFrom(it *entity.ChecklistItem) ChecklistItemResponse {
	return ChecklistItemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Status:      string(it.Status),
		AssignedTo:  it.AssignedTo,
		DueDate:     it.DueDate,
		Notes:       it.Notes,
		CompletedAt: it.CompletedAt,
		CompletedBy: it.CompletedBy,
		OrderIndex:  it.OrderIndex,
		RowVersion:  it.RowVersion,
	}
}

// ChecklistResponse checklist con sus ítems en orden.
type ChecklistResponse struct {
	ID            string                  `json:"id"`
	OpportunityID string                  `json:"opportunity_id"`
	Items         []ChecklistItemResponse `json:"items"`
}

// ChecklistFrom mapea la entidad; nil devuelve nil.
func ChecklistFrom(c *entity.Checklist) *ChecklistResponse {
	if c == nil {
		return nil
	}
	out := &ChecklistResponse{ID: c.ID, OpportunityID: c.OpportunityID, Items: make([]ChecklistItemResponse, 0, len(c.Items))}
	for _, it := range c.Items {
		out.Items = append(out.Items, ChecklistItemFrom(it))
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Aprobaciones
// ──────────────────────────────────────────────────────────────────────────────

// ApprovalResponse salida de una aprobación.
type ApprovalResponse struct {
	ID            string    `json:"id"`
	OpportunityID string    `json:"opportunity_id"`
	Stage         string    `json:"stage"`
	IsFinal       bool      `json:"is_final"`
	Comments      string    `json:"comments,omitempty"`
	ApprovedBy    string    `json:"approved_by"`
	ApproverRole  string    `json:"approver_role"`
	CreatedAt     time.Time `json:"created_at"`
}

// ApprovalFrom mapea la entidad.
func ApprovalFrom(a *entity.Approval) ApprovalResponse {
	return ApprovalResponse{
		ID:            a.ID,
		OpportunityID: a.OpportunityID,
		Stage:         string(a.Stage),
		IsFinal:       a.IsFinal,
		Comments:      a.Comments,
		ApprovedBy:    a.ApprovedBy,
		ApproverRole:  a.ApproverRole,
		CreatedAt:     a.CreatedAt,
	}
}

// ApprovalsFrom mapea una lista.
func ApprovalsFrom(in []*entity.Approval) []ApprovalResponse {
	out := make([]ApprovalResponse, 0, len(in))
	for _, a := range in {
		out = append(out, ApprovalFrom(a))
	}
	return out
}
