package dto

import (
	"time"

	"github.com/jhoicas/leadflow-api/internal/application/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

// InboundMessageResponse correo sincronizado.
type InboundMessageResponse struct {
	ID             string    `json:"id"`
	Provider       string    `json:"provider"`
	SenderName     string    `json:"sender_name"`
	SenderEmail    string    `json:"sender_email"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body,omitempty"`
	ReceivedAt     time.Time `json:"received_at"`
	HasAttachments bool      `json:"has_attachments"`
	IsEnquiry      bool      `json:"is_enquiry"`
	LinkedLeadID   string    `json:"linked_lead_id,omitempty"`
}

// MessageFrom mapea la entidad.
func MessageFrom(m *entity.InboundMessage) InboundMessageResponse {
	return InboundMessageResponse{
		ID:             m.ID,
		Provider:       string(m.Provider),
		SenderName:     m.SenderName,
		SenderEmail:    m.SenderEmail,
		Subject:        m.Subject,
		Body:           m.Body,
		ReceivedAt:     m.ReceivedAt,
		HasAttachments: m.HasAttachments,
		IsEnquiry:      m.IsEnquiry,
		LinkedLeadID:   m.LinkedLeadID,
	}
}

// MessagesFrom mapea una lista.
func MessagesFrom(in []*entity.InboundMessage) []InboundMessageResponse {
	out := make([]InboundMessageResponse, 0, len(in))
	for _, m := range in {
		out = append(out, MessageFrom(m))
	}
	return out
}

// LinkLeadRequest liga el correo a un lead existente.
type LinkLeadRequest struct {
	LeadID string `json:"lead_id" validate:"required"`
}

// LeadDraftFrom el borrador usa el mismo formato que el alta de leads.
func LeadDraftFrom(in lifecycle.CreateLeadInput) CreateLeadRequest {
	return CreateLeadRequest{
		Name:         in.Name,
		InquiryType:  string(in.InquiryType),
		Priority:     string(in.Priority),
		Source:       string(in.Source),
		ExportQuota:  in.ExportQuota,
		PlotSize:     in.PlotSize,
		Email:        in.Email,
		Phone:        in.Phone,
		Notes:        in.Notes,
		OwnerID:      in.OwnerID,
		StatusChoice: string(in.StatusChoice),
	}
}
