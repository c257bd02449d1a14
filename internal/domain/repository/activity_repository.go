package repository

import (
	"context"
	"time"

	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

// TaskFilter criterios de listado de tareas.
type TaskFilter struct {
	AssignedTo        string
	Status            entity.TaskStatus
	RelatedEntityID   string
	RelatedEntityType string
	Limit             int
	Offset            int
}

// TaskRepository puerto de persistencia de tareas.
type TaskRepository interface {
	Create(ctx context.Context, t *entity.Task) error
	GetByID(ctx context.Context, id string) (*entity.Task, error)
	List(ctx context.Context, f TaskFilter) ([]*entity.Task, error)
	Update(ctx context.Context, t *entity.Task) error
}

// NotificationFilter criterios de listado de notificaciones. Orden: más recientes primero.
type NotificationFilter struct {
	UserID            string
	Type              entity.NotificationType
	RelatedEntityID   string
	RelatedEntityType string
	CreatedAfter      *time.Time
	UnreadOnly        bool
	Limit             int
}

// NotificationRepository notificaciones: solo se crean y se marcan como leídas.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	GetByID(ctx context.Context, id string) (*entity.Notification, error)
	List(ctx context.Context, f NotificationFilter) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

// MeetingRepository reuniones por entidad relacionada, ordenadas por inicio.
type MeetingRepository interface {
	Create(ctx context.Context, m *entity.Meeting) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.Meeting, error)
}

// CommentRepository comentarios por entidad relacionada, del más antiguo al más nuevo.
type CommentRepository interface {
	Create(ctx context.Context, c *entity.Comment) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.Comment, error)
}
