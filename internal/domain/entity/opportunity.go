package entity

import "time"

// OpportunityStatus estado del embudo de due diligence.
type OpportunityStatus string

const (
	OpportunityAssessmentInProgress OpportunityStatus = "assessment_in_progress"
	OpportunityAssessmentCompleted  OpportunityStatus = "assessment_completed"
	OpportunityWaitingForApproval   OpportunityStatus = "waiting_for_approval"
	OpportunityApproved             OpportunityStatus = "due_diligence_approved"
	OpportunityRejected             OpportunityStatus = "rejected"
)

// Opportunity lead que entró al embudo de due diligence. Una por lead.
type Opportunity struct {
	ID                 string
	LeadID             string
	LeadName           string // solo lectura, viene del join con leads
	Status             OpportunityStatus
	NdaStatus          NdaStatus          // espejo del último NDA
	BusinessPlanStatus BusinessPlanStatus // espejo del último plan de negocio
	SiteVisitScheduled bool
	SiteVisitDate      *time.Time
	SiteVisitNotes     string
	RowVersion         int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (s OpportunityStatus) Valid() bool {
	switch s {
	case OpportunityAssessmentInProgress, OpportunityAssessmentCompleted, OpportunityWaitingForApproval,
		OpportunityApproved, OpportunityRejected:
		return true
	}
	return false
}

// Terminal reporta si no admite más transiciones.
func (s OpportunityStatus) Terminal() bool {
	return s == OpportunityApproved || s == OpportunityRejected
}
