package entity

import "time"

// TaskStatus estado de una tarea.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCanceled   TaskStatus = "canceled"
)

// Tipos de entidad relacionada (tareas, notificaciones, comentarios, documentos).
const (
	RelatedLead         = "lead"
	RelatedOpportunity  = "opportunity"
	RelatedMeeting      = "meeting"
	RelatedNda          = "nda"
	RelatedBusinessPlan = "business_plan"
	RelatedTask         = "task"
)

// Task tarea asignable, opcionalmente ligada a otra entidad.
type Task struct {
	ID                string
	Title             string
	Description       string
	AssignedTo        string
	AssignedBy        string
	Status            TaskStatus
	Priority          Priority
	DueDate           *time.Time
	RelatedEntityID   string
	RelatedEntityType string
	RowVersion        int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskCanceled:
		return true
	}
	return false
}
