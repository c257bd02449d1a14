package entity

import "time"

// ChecklistItemStatus estado de un ítem de due diligence.
type ChecklistItemStatus string

const (
	ItemNotStarted ChecklistItemStatus = "not_started"
	ItemInProgress ChecklistItemStatus = "in_progress"
	ItemCompleted  ChecklistItemStatus = "completed"
)

// Checklist checklist de due diligence; una por oportunidad.
type Checklist struct {
	ID            string
	OpportunityID string
	Items         []*ChecklistItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ChecklistItem ítem ordenado por OrderIndex.
type ChecklistItem struct {
	ID          string
	ChecklistID string
	Name        string
	Description string
	Status      ChecklistItemStatus
	AssignedTo  string
	DueDate     *time.Time
	Notes       string
	CompletedAt *time.Time
	CompletedBy string
	OrderIndex  int
	RowVersion  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s ChecklistItemStatus) Valid() bool {
	return s == ItemNotStarted || s == ItemInProgress || s == ItemCompleted
}
