package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeadStatus estado persistido del lead.
type LeadStatus string

const (
	LeadActive             LeadStatus = "active"
	LeadWaitingForDetails  LeadStatus = "waiting_for_details"
	LeadWaitingForApproval LeadStatus = "waiting_for_approval"
	LeadRejected           LeadStatus = "rejected"
	LeadArchived           LeadStatus = "archived"
)

// InquiryType tipo de consulta del lead.
type InquiryType string

const (
	InquiryCompany    InquiryType = "company"
	InquiryIndividual InquiryType = "individual"
)

// Priority prioridad compartida por leads y tareas.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// LeadSource origen del lead.
type LeadSource string

const (
	SourceReferral LeadSource = "referral"
	SourceWebsite  LeadSource = "website"
	SourceDirect   LeadSource = "direct"
	SourceEvent    LeadSource = "event"
	SourceOutlook  LeadSource = "outlook"
	SourceGmail    LeadSource = "gmail"
	SourceOther    LeadSource = "other"
)

// Lead consulta de un posible inversor.
type Lead struct {
	ID          string
	Name        string
	InquiryType InquiryType
	Priority    Priority
	Source      LeadSource
	Status      LeadStatus
	ExportQuota *decimal.Decimal // porcentaje, opcional
	PlotSize    *decimal.Decimal // hectáreas, opcional
	Email       string
	Phone       string
	Notes       string
	OwnerID     string // usuario responsable; recibe tareas y notificaciones automáticas
	RowVersion  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Valid reporta si el valor pertenece al enum.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadActive, LeadWaitingForDetails, LeadWaitingForApproval, LeadRejected, LeadArchived:
		return true
	}
	return false
}

func (t InquiryType) Valid() bool { return t == InquiryCompany || t == InquiryIndividual }

func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

func (s LeadSource) Valid() bool {
	switch s {
	case SourceReferral, SourceWebsite, SourceDirect, SourceEvent, SourceOutlook, SourceGmail, SourceOther:
		return true
	}
	return false
}
