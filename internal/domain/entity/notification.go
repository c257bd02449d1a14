package entity

import "time"

// NotificationType tipo de alerta.
type NotificationType string

const (
	NotifyLeadHighPriority NotificationType = "lead_high_priority"
	NotifyLeadInactive     NotificationType = "lead_inactive"
	NotifyLeadArchived     NotificationType = "lead_archived"
	NotifyTaskAssigned     NotificationType = "task_assigned"
	NotifyTaskDueSoon      NotificationType = "task_due_soon"
	NotifyMeetingReminder  NotificationType = "meeting_reminder"
)

// Notification alerta para un usuario. Solo cambia el flag de lectura.
type Notification struct {
	ID                string
	UserID            string
	Title             string
	Content           string
	Type              NotificationType
	RelatedEntityID   string
	RelatedEntityType string
	Read              bool
	CreatedAt         time.Time
}
