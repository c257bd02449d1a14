// Package activity agrupa el trabajo diario alrededor de leads y oportunidades:
// tareas, notificaciones, reuniones, comentarios y el lock de edición de leads.
package activity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/leadflow-api/internal/application/ports"
	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

// UseCase tareas, notificaciones, reuniones y comentarios.
type UseCase struct {
	tx    ports.TxRunner
	repos repository.Repositories
	log   zerolog.Logger
	now   func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(tx ports.TxRunner, repos repository.Repositories, log zerolog.Logger, now func() time.Time) *UseCase {
	if now == nil {
		now = time.Now
	}
	return &UseCase{tx: tx, repos: repos, log: log.With().Str("component", "activity").Logger(), now: now}
}

func validRelated(entityType, entityID string) error {
	if entityType == "" && entityID == "" {
		return nil
	}
	switch entityType {
	case entity.RelatedLead, entity.RelatedOpportunity, entity.RelatedMeeting,
		entity.RelatedNda, entity.RelatedBusinessPlan, entity.RelatedTask:
	default:
		return domain.NewValidationError(domain.CodeValidation, "related_entity_type %q no válido", entityType)
	}
	if entityID == "" {
		return domain.NewValidationError(domain.CodeValidation, "related_entity_id es requerido")
	}
	return nil
}

func storage(err error, op, ent, id string) error {
	if err == nil || domain.IsCallerRecoverable(err) {
		return err
	}
	return &domain.StorageError{Op: op, Entity: ent, ID: id, Err: err}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tareas
// ──────────────────────────────────────────────────────────────────────────────

// CreateTaskInput alta de tarea.
type CreateTaskInput struct {
	Title             string
	Description       string
	AssignedTo        string
	Priority          entity.Priority
	DueDate           *time.Time
	RelatedEntityID   string
	RelatedEntityType string
}

// CreateTask crea la tarea. Si se asigna a otra persona, le notifica en la misma transacción.
func (uc *UseCase) CreateTask(ctx context.Context, actor entity.Actor, in CreateTaskInput) (*entity.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.NewValidationError(domain.CodeValidation, "title es requerido")
	}
	if in.Priority == "" {
		in.Priority = entity.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, domain.NewValidationError(domain.CodeValidation, "priority %q no válida", in.Priority)
	}
	if err := validRelated(in.RelatedEntityType, in.RelatedEntityID); err != nil {
		return nil, err
	}
	assignee := in.AssignedTo
	if assignee == "" {
		assignee = actor.UserID
	}
	now := uc.now()
	t := &entity.Task{
		ID:                uuid.NewString(),
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		AssignedTo:        assignee,
		AssignedBy:        actor.UserID,
		Status:            entity.TaskPending,
		Priority:          in.Priority,
		DueDate:           in.DueDate,
		RelatedEntityID:   in.RelatedEntityID,
		RelatedEntityType: in.RelatedEntityType,
		RowVersion:        1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		if err := r.Tasks.Create(ctx, t); err != nil {
			return storage(err, "create", "task", t.ID)
		}
		if assignee == actor.UserID {
			return nil
		}
		return storage(r.Notifications.Create(ctx, &entity.Notification{
			ID:                uuid.NewString(),
			UserID:            assignee,
			Title:             "Nueva tarea asignada",
			Content:           t.Title,
			Type:              entity.NotifyTaskAssigned,
			RelatedEntityID:   t.ID,
			RelatedEntityType: entity.RelatedTask,
			CreatedAt:         now,
		}), "create", "notification", "")
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTasks tareas con filtro.
func (uc *UseCase) ListTasks(ctx context.Context, f repository.TaskFilter) ([]*entity.Task, error) {
	list, err := uc.repos.Tasks.List(ctx, f)
	return list, storage(err, "list", "task", "")
}

// UpdateTaskStatus cambia el estado según la tabla de transiciones de tareas.
func (uc *UseCase) UpdateTaskStatus(ctx context.Context, actor entity.Actor, id string, to entity.TaskStatus, expectedVersion int) (*entity.Task, error) {
	var out *entity.Task
	err := uc.tx.Run(ctx, func(r repository.Repositories) error {
		t, err := r.Tasks.GetByID(ctx, id)
		if err != nil {
			return storage(err, "get", "task", id)
		}
		if t == nil {
			return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
		}
		if expectedVersion > 0 && expectedVersion != t.RowVersion {
			return &domain.ConflictError{Entity: "task", ID: id, Expected: expectedVersion, Actual: t.RowVersion}
		}
		if err := lifecycle.CheckTask(t.Status, to); err != nil {
			return err
		}
		t.Status = to
		t.UpdatedAt = uc.now()
		if err := r.Tasks.Update(ctx, t); err != nil {
			return storage(err, "update", "task", id)
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Debug().Str("task_id", id).Str("status", string(to)).Str("actor", actor.UserID).Msg("tarea actualizada")
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Notificaciones
// ──────────────────────────────────────────────────────────────────────────────

// ListNotifications notificaciones del usuario, más recientes primero.
func (uc *UseCase) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*entity.Notification, error) {
	list, err := uc.repos.Notifications.List(ctx, repository.NotificationFilter{UserID: userID, UnreadOnly: unreadOnly, Limit: limit})
	return list, storage(err, "list", "notification", "")
}

// MarkNotificationRead marca como leída una notificación propia.
func (uc *UseCase) MarkNotificationRead(ctx context.Context, actor entity.Actor, id string) error {
	n, err := uc.repos.Notifications.GetByID(ctx, id)
	if err != nil {
		return storage(err, "get", "notification", id)
	}
	if n == nil {
		return fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
	}
	if n.UserID != actor.UserID {
		return domain.ErrForbidden
	}
	if n.Read {
		return nil
	}
	return storage(uc.repos.Notifications.MarkRead(ctx, id), "update", "notification", id)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reuniones y comentarios
// ──────────────────────────────────────────────────────────────────────────────

// ScheduleMeetingInput datos de la reunión.
type ScheduleMeetingInput struct {
	Title             string
	Description       string
	StartsAt          time.Time
	EndsAt            time.Time
	Location          string
	RelatedEntityID   string
	RelatedEntityType string
}

// ScheduleMeeting agenda una reunión organizada por actor.
func (uc *UseCase) ScheduleMeeting(ctx context.Context, actor entity.Actor, in ScheduleMeetingInput) (*entity.Meeting, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.NewValidationError(domain.CodeValidation, "title es requerido")
	}
	if in.StartsAt.IsZero() {
		return nil, domain.NewValidationError(domain.CodeValidation, "starts_at es requerido")
	}
	if !in.EndsAt.IsZero() && !in.EndsAt.After(in.StartsAt) {
		return nil, domain.NewValidationError(domain.CodeValidation, "ends_at debe ser posterior a starts_at")
	}
	if err := validRelated(in.RelatedEntityType, in.RelatedEntityID); err != nil {
		return nil, err
	}
	m := &entity.Meeting{
		ID:                uuid.NewString(),
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		StartsAt:          in.StartsAt,
		EndsAt:            in.EndsAt,
		Location:          in.Location,
		OrganizerID:       actor.UserID,
		RelatedEntityID:   in.RelatedEntityID,
		RelatedEntityType: in.RelatedEntityType,
		CreatedAt:         uc.now(),
	}
	if err := uc.repos.Meetings.Create(ctx, m); err != nil {
		return nil, storage(err, "create", "meeting", m.ID)
	}
	return m, nil
}

// ListMeetings reuniones de una entidad por fecha de inicio.
func (uc *UseCase) ListMeetings(ctx context.Context, entityType, entityID string) ([]*entity.Meeting, error) {
	list, err := uc.repos.Meetings.ListByEntity(ctx, entityType, entityID)
	return list, storage(err, "list", "meeting", "")
}

// AddComment agrega un comentario a una entidad.
func (uc *UseCase) AddComment(ctx context.Context, actor entity.Actor, entityType, entityID, body string) (*entity.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, domain.NewValidationError(domain.CodeValidation, "body es requerido")
	}
	if entityType == "" || entityID == "" {
		return nil, domain.NewValidationError(domain.CodeValidation, "related_entity_type y related_entity_id son requeridos")
	}
	if err := validRelated(entityType, entityID); err != nil {
		return nil, err
	}
	c := &entity.Comment{
		ID:                uuid.NewString(),
		AuthorID:          actor.UserID,
		Body:              body,
		RelatedEntityID:   entityID,
		RelatedEntityType: entityType,
		CreatedAt:         uc.now(),
	}
	if err := uc.repos.Comments.Create(ctx, c); err != nil {
		return nil, storage(err, "create", "comment", c.ID)
	}
	return c, nil
}

// ListComments comentarios de una entidad, del más antiguo al más nuevo.
func (uc *UseCase) ListComments(ctx context.Context, entityType, entityID string) ([]*entity.Comment, error) {
	list, err := uc.repos.Comments.ListByEntity(ctx, entityType, entityID)
	return list, storage(err, "list", "comment", "")
}
