package entity

import "time"

// ApprovalStage etapa de aprobación.
type ApprovalStage string

const (
	StageDueDiligence ApprovalStage = "due_diligence"
	StageFinal        ApprovalStage = "final"
)

// Approval registro de una aprobación otorgada.
type Approval struct {
	ID            string
	OpportunityID string
	Stage         ApprovalStage
	IsFinal       bool
	Comments      string
	ApprovedBy    string
	ApproverRole  string
	CreatedAt     time.Time
}

// AuditEntry traza de un cambio de estado.
type AuditEntry struct {
	ID         string
	EntityType string
	EntityID   string
	Action     string
	FromStatus string
	ToStatus   string
	ActorID    string
	Comments   string
	CreatedAt  time.Time
}
