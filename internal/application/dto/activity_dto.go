package dto

import (
	"time"

	"github.com/jhoicas/leadflow-api/internal/application/activity"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

// CreateTaskRequest alta de tarea.
type CreateTaskRequest struct {
	Title             string     `json:"title" validate:"required"`
	Description       string     `json:"description"`
	AssignedTo        string     `json:"assigned_to"`
	Priority          string     `json:"priority" validate:"omitempty,oneof=high medium low"`
	DueDate           *time.Time `json:"due_date"`
	RelatedEntityID   string     `json:"related_entity_id"`
	RelatedEntityType string     `json:"related_entity_type"`
}

// Input convierte al caso de uso.
func (r CreateTaskRequest) Input() activity.CreateTaskInput {
	return activity.CreateTaskInput{
		Title:             r.Title,
		Description:       r.Description,
		AssignedTo:        r.AssignedTo,
		Priority:          entity.Priority(r.Priority),
		DueDate:           r.DueDate,
		RelatedEntityID:   r.RelatedEntityID,
		RelatedEntityType: r.RelatedEntityType,
	}
}

// UpdateTaskStatusRequest cambio de estado de una tarea.
type UpdateTaskStatusRequest struct {
	Status     string `json:"status" validate:"required,oneof=pending in_progress completed canceled"`
	RowVersion int    `json:"row_version"`
}

// TaskResponse salida de una tarea.
type TaskResponse struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	AssignedTo        string     `json:"assigned_to"`
	AssignedBy        string     `json:"assigned_by"`
	Status            string     `json:"status"`
	Priority          string     `json:"priority"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	RelatedEntityID   string     `json:"related_entity_id,omitempty"`
	RelatedEntityType string     `json:"related_entity_type,omitempty"`
	RowVersion        int        `json:"row_version"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TaskFrom mapea la entidad.
func TaskFrom(t *entity.Task) TaskResponse {
	return TaskResponse{
		ID:                t.ID,
		Title:             t.Title,
		Description:       t.Description,
		AssignedTo:        t.AssignedTo,
		AssignedBy:        t.AssignedBy,
		Status:            string(t.Status),
		Priority:          string(t.Priority),
		DueDate:           t.DueDate,
		RelatedEntityID:   t.RelatedEntityID,
		RelatedEntityType: t.RelatedEntityType,
		RowVersion:        t.RowVersion,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

// TasksFrom mapea una lista.
func TasksFrom(in []*entity.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(in))
	for _, t := range in {
		out = append(out, TaskFrom(t))
	}
	return out
}

// NotificationResponse salida de una notificación.
type NotificationResponse struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Content           string    `json:"content"`
	Type              string    `json:"type"`
	RelatedEntityID   string    `json:"related_entity_id,omitempty"`
	RelatedEntityType string    `json:"related_entity_type,omitempty"`
	Read              bool      `json:"read"`
	CreatedAt         time.Time `json:"created_at"`
}

// NotificationsFrom mapea una lista.
func NotificationsFrom(in []*entity.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(in))
	for _, n := range in {
		out = append(out, NotificationResponse{
			ID:                n.ID,
			Title:             n.Title,
			Content:           n.Content,
			Type:              string(n.Type),
			RelatedEntityID:   n.RelatedEntityID,
			RelatedEntityType: n.RelatedEntityType,
			Read:              n.Read,
			CreatedAt:         n.CreatedAt,
		})
	}
	return out
}

// ScheduleMeetingRequest alta de reunión.
type ScheduleMeetingRequest struct {
	Title             string    `json:"title" validate:"required"`
	Description       string    `json:"description"`
	StartsAt          time.Time `json:"starts_at" validate:"required"`
	EndsAt            time.Time `json:"ends_at"`
	Location          string    `json:"location"`
	RelatedEntityID   string    `json:"related_entity_id"`
	RelatedEntityType string    `json:"related_entity_type"`
}

// Input convierte al caso de uso.
func (r ScheduleMeetingRequest) Input() activity.ScheduleMeetingInput {
	return activity.ScheduleMeetingInput{
		Title:             r.Title,
		Description:       r.Description,
		StartsAt:          r.StartsAt,
		EndsAt:            r.EndsAt,
		Location:          r.Location,
		RelatedEntityID:   r.RelatedEntityID,
		RelatedEntityType: r.RelatedEntityType,
	}
}

// MeetingResponse salida de una reunión.
type MeetingResponse struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	StartsAt          time.Time  `json:"starts_at"`
	EndsAt            *time.Time `json:"ends_at,omitempty"`
	Location          string     `json:"location,omitempty"`
	OrganizerID       string     `json:"organizer_id"`
	RelatedEntityID   string     `json:"related_entity_id,omitempty"`
	RelatedEntityType string     `json:"related_entity_type,omitempty"`
}

// MeetingFrom mapea la entidad.
func MeetingFrom(m *entity.Meeting) MeetingResponse {
	out := MeetingResponse{
		ID:                m.ID,
		Title:             m.Title,
		Description:       m.Description,
		StartsAt:          m.StartsAt,
		Location:          m.Location,
		OrganizerID:       m.OrganizerID,
		RelatedEntityID:   m.RelatedEntityID,
		RelatedEntityType: m.RelatedEntityType,
	}
	if !m.EndsAt.IsZero() {
		ends := m.EndsAt
		out.EndsAt = &ends
	}
	return out
}

// MeetingsFrom mapea una lista.
func MeetingsFrom(in []*entity.Meeting) []MeetingResponse {
	out := make([]MeetingResponse, 0, len(in))
	for _, m := range in {
		out = append(out, MeetingFrom(m))
	}
	return out
}

// CreateCommentRequest alta de comentario.
type CreateCommentRequest struct {
	Body              string `json:"body" validate:"required"`
	RelatedEntityID   string `json:"related_entity_id" validate:"required"`
	RelatedEntityType string `json:"related_entity_type" validate:"required"`
}

// CommentResponse salida de un comentario.
type CommentResponse struct {
	ID                string    `json:"id"`
	AuthorID          string    `json:"author_id"`
	Body              string    `json:"body"`
	RelatedEntityID   string    `json:"related_entity_id"`
	RelatedEntityType string    `json:"related_entity_type"`
	CreatedAt         time.Time `json:"created_at"`
}

// CommentFrom mapea la entidad.
func CommentFrom(c *entity.Comment) CommentResponse {
	return CommentResponse{
		ID: c.ID, AuthorID: c.AuthorID, Body: c.Body,
		RelatedEntityID: c.RelatedEntityID, RelatedEntityType: c.RelatedEntityType, CreatedAt: c.CreatedAt,
	}
}

// CommentsFrom mapea una lista.
func CommentsFrom(in []*entity.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(in))
	for _, c := range in {
		out = append(out, CommentFrom(c))
	}
	return out
}

// LockResponse estado del lock de edición.
type LockResponse struct {
	LeadID           string `json:"lead_id"`
	Held             bool   `json:"held"`
	Holder           string `json:"holder,omitempty"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
	Mine             bool   `json:"mine"`
}

// LockFrom mapea el estado del lock.
func LockFrom(st activity.LockStatus) LockResponse {
	return LockResponse{
		LeadID:           st.LeadID,
		Held:             st.Held,
		Holder:           st.Holder,
		ExpiresInSeconds: int(st.ExpiresIn.Seconds()),
		Mine:             st.Mine,
	}
}
