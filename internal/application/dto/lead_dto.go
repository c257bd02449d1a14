package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/leadflow-api/internal/application/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

// CreateLeadRequest alta de lead. status_choice solo aplica a core investors
// sin export_quota o plot_size.
type CreateLeadRequest struct {
	Name         string           `json:"name" validate:"required,max=200"`
	InquiryType  string           `json:"inquiry_type" validate:"required,oneof=company individual"`
	Priority     string           `json:"priority" validate:"required,oneof=high medium low"`
	Source       string           `json:"source"`
	ExportQuota  *decimal.Decimal `json:"export_quota"`
	PlotSize     *decimal.Decimal `json:"plot_size"`
	Email        string           `json:"email" validate:"omitempty,email"`
	Phone        string           `json:"phone"`
	Notes        string           `json:"notes"`
	OwnerID      string           `json:"owner_id"`
	StatusChoice string           `json:"status_choice" validate:"omitempty,oneof=waiting_for_details waiting_for_approval"`
}

// Input convierte al caso de uso.
func (r CreateLeadRequest) Input() lifecycle.CreateLeadInput {
	return lifecycle.CreateLeadInput{
		Name:         r.Name,
		InquiryType:  entity.InquiryType(r.InquiryType),
		Priority:     entity.Priority(r.Priority),
		Source:       entity.LeadSource(r.Source),
		ExportQuota:  r.ExportQuota,
		PlotSize:     r.PlotSize,
		Email:        r.Email,
		Phone:        r.Phone,
		Notes:        r.Notes,
		OwnerID:      r.OwnerID,
		StatusChoice: entity.LeadStatus(r.StatusChoice),
	}
}

// UpdateLeadRequest edición parcial. row_version es obligatorio.
// Un campo ausente o null no cambia; para borrar export_quota o plot_size
// se envía clear_export_quota / clear_plot_size en true.
// status_choice (waiting_for_details | waiting_for_approval) es obligatorio cuando
// la edición deja activo a un core investor sin datos suficientes.
type UpdateLeadRequest struct {
	Name             *string          `json:"name"`
	InquiryType      *string          `json:"inquiry_type"`
	Priority         *string          `json:"priority"`
	Source           *string          `json:"source"`
	ExportQuota      *decimal.Decimal `json:"export_quota"`
	PlotSize         *decimal.Decimal `json:"plot_size"`
	ClearExportQuota bool             `json:"clear_export_quota"`
	ClearPlotSize    bool             `json:"clear_plot_size"`
	Email            *string          `json:"email"`
	Phone            *string          `json:"phone"`
	Notes            *string          `json:"notes"`
	OwnerID          *string          `json:"owner_id"`
	StatusChoice     string           `json:"status_choice" validate:"omitempty,oneof=waiting_for_details waiting_for_approval"`
	RowVersion       int              `json:"row_version" validate:"required,min=1"`
}

// Input convierte al caso de uso.
func (r UpdateLeadRequest) Input() lifecycle.UpdateLeadInput {
	in := lifecycle.UpdateLeadInput{
		Name:             r.Name,
		ExportQuota:      r.ExportQuota,
		PlotSize:         r.PlotSize,
		ClearExportQuota: r.ClearExportQuota,
		ClearPlotSize:    r.ClearPlotSize,
		Email:            r.Email,
		Phone:            r.Phone,
		Notes:            r.Notes,
		OwnerID:          r.OwnerID,
		StatusChoice:     entity.LeadStatus(r.StatusChoice),
		RowVersion:       r.RowVersion,
	}
	if r.InquiryType != nil {
		v := entity.InquiryType(*r.InquiryType)
		in.InquiryType = &v
	}
	if r.Priority != nil {
		v := entity.Priority(*r.Priority)
		in.Priority = &v
	}
	if r.Source != nil {
		v := entity.LeadSource(*r.Source)
		in.Source = &v
	}
	return in
}

// LeadResponse salida de un lead.
type LeadResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	InquiryType string           `json:"inquiry_type"`
	Priority    string           `json:"priority"`
	Source      string           `json:"source"`
	Status      string           `json:"status"`
	ExportQuota *decimal.Decimal `json:"export_quota"`
	PlotSize    *decimal.Decimal `json:"plot_size"`
	Email       string           `json:"email,omitempty"`
	Phone       string           `json:"phone,omitempty"`
	Notes       string           `json:"notes,omitempty"`
	OwnerID     string           `json:"owner_id,omitempty"`
	RowVersion  int              `json:"row_version"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// LeadListResponse lista paginada de leads.
type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// LeadFrom mapea la entidad.
func LeadFrom(l *entity.Lead) LeadResponse {
	return LeadResponse{
		ID:          l.ID,
		Name:        l.Name,
		InquiryType: string(l.InquiryType),
		Priority:    string(l.Priority),
		Source:      string(l.Source),
		Status:      string(l.Status),
		ExportQuota: l.ExportQuota,
		PlotSize:    l.PlotSize,
		Email:       l.Email,
		Phone:       l.Phone,
		Notes:       l.Notes,
		OwnerID:     l.OwnerID,
		RowVersion:  l.RowVersion,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

// LeadsFrom mapea una lista.
func LeadsFrom(in []*entity.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(in))
	for _, l := range in {
		out = append(out, LeadFrom(l))
	}
	return out
}
