package entity

import "time"

// BusinessPlanStatus estado de revisión del plan de negocio.
type BusinessPlanStatus string

const (
	PlanNotRequested  BusinessPlanStatus = "not_requested"
	PlanRequested     BusinessPlanStatus = "requested"
	PlanReceived      BusinessPlanStatus = "received"
	PlanUpdatesNeeded BusinessPlanStatus = "updates_needed"
	PlanApproved      BusinessPlanStatus = "approved"
	PlanRejected      BusinessPlanStatus = "rejected"
)

// BusinessPlan versión de un plan de negocio de una oportunidad.
type BusinessPlan struct {
	ID            string
	OpportunityID string
	Version       int
	Status        BusinessPlanStatus
	DocumentID    string
	Notes         string
	Feedback      string
	RequestedBy   string
	RequestedAt   *time.Time
	ReceivedAt    *time.Time
	ApprovedBy    string
	ApprovedAt    *time.Time
	RowVersion    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (s BusinessPlanStatus) Valid() bool {
	switch s {
	case PlanNotRequested, PlanRequested, PlanReceived, PlanUpdatesNeeded, PlanApproved, PlanRejected:
		return true
	}
	return false
}
