package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

var (
	_ repository.TaskRepository         = (*TaskRepo)(nil)
	_ repository.NotificationRepository = (*NotificationRepo)(nil)
	_ repository.MeetingRepository      = (*MeetingRepo)(nil)
	_ repository.CommentRepository      = (*CommentRepo)(nil)
)

const taskColumns = `id, title, COALESCE(description, ''), assigned_to, assigned_by, status, priority, due_date,
	COALESCE(related_entity_id, ''), COALESCE(related_entity_type, ''), row_version, created_at, updated_at`

// TaskRepo tareas asignadas a usuarios.
type TaskRepo struct {
	q Querier
}

func NewTaskRepository(q Querier) *TaskRepo {
	return &TaskRepo{q: q}
}

func (r *TaskRepo) Create(ctx context.Context, t *entity.Task) error {
	if t.RowVersion == 0 {
		t.RowVersion = 1
	}
	query := `
		INSERT INTO tasks (id, title, description, assigned_to, assigned_by, status, priority, due_date,
			related_entity_id, related_entity_type, row_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.Title, nullIfEmpty(t.Description), t.AssignedTo, t.AssignedBy, string(t.Status), string(t.Priority),
		t.DueDate, nullIfEmpty(t.RelatedEntityID), nullIfEmpty(t.RelatedEntityType), t.RowVersion, t.CreatedAt, t.UpdatedAt,
	)
	return insertErr(err, "task")
}

func (r *TaskRepo) GetByID(ctx context.Context, id string) (*entity.Task, error) {
	t, err := scanTask(r.q.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}
	return t, nil
}

func (r *TaskRepo) List(ctx context.Context, f repository.TaskFilter) ([]*entity.Task, error) {
	var w where
	if f.AssignedTo != "" {
		w.add("assigned_to = ?", f.AssignedTo)
	}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	if f.RelatedEntityID != "" {
		w.add("related_entity_id = ?", f.RelatedEntityID)
	}
	if f.RelatedEntityType != "" {
		w.add("related_entity_type = ?", f.RelatedEntityType)
	}
	query := `SELECT ` + taskColumns + ` FROM tasks` + w.String() +
		` ORDER BY created_at DESC, id DESC` + pageClause(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	var list []*entity.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *TaskRepo) Update(ctx context.Context, t *entity.Task) error {
	query := `
		UPDATE tasks SET title = $3, description = $4, assigned_to = $5, status = $6, priority = $7, due_date = $8,
			related_entity_id = $9, related_entity_type = $10, updated_at = $11, row_version = row_version + 1
		WHERE id = $1 AND row_version = $2`
	tag, err := r.q.Exec(ctx, query,
		t.ID, t.RowVersion, t.Title, nullIfEmpty(t.Description), t.AssignedTo, string(t.Status), string(t.Priority),
		t.DueDate, nullIfEmpty(t.RelatedEntityID), nullIfEmpty(t.RelatedEntityType), t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if err := afterVersionedUpdate(ctx, r.q, "tasks", "task", t.ID, t.RowVersion, tag); err != nil {
		return err
	}
	t.RowVersion++
	return nil
}

func scanTask(row pgx.Row) (*entity.Task, error) {
	var t entity.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.AssignedTo, &t.AssignedBy, &t.Status, &t.Priority,
		&t.DueDate, &t.RelatedEntityID, &t.RelatedEntityType, &t.RowVersion, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const notificationColumns = `id, user_id, title, content, type, COALESCE(related_entity_id, ''),
	COALESCE(related_entity_type, ''), read, created_at`

// NotificationRepo notificaciones por usuario.
type NotificationRepo struct {
	q Querier
}

func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

func (r *NotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, title, content, type, related_entity_id, related_entity_type, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		n.ID, n.UserID, n.Title, n.Content, string(n.Type), nullIfEmpty(n.RelatedEntityID),
		nullIfEmpty(n.RelatedEntityType), n.Read, n.CreatedAt,
	)
	return insertErr(err, "notification")
}

func (r *NotificationRepo) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	n, err := scanNotification(r.q.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get notification by id: %w", err)
	}
	return n, nil
}

func (r *NotificationRepo) List(ctx context.Context, f repository.NotificationFilter) ([]*entity.Notification, error) {
	var w where
	if f.UserID != "" {
		w.add("user_id = ?", f.UserID)
	}
	if f.Type != "" {
		w.add("type = ?", string(f.Type))
	}
	if f.RelatedEntityID != "" {
		w.add("related_entity_id = ?", f.RelatedEntityID)
	}
	if f.RelatedEntityType != "" {
		w.add("related_entity_type = ?", f.RelatedEntityType)
	}
	if f.CreatedAfter != nil {
		w.add("created_at > ?", *f.CreatedAfter)
	}
	if f.UnreadOnly {
		w.conds = append(w.conds, "NOT read")
	}
	query := `SELECT ` + notificationColumns + ` FROM notifications` + w.String() +
		` ORDER BY created_at DESC, id DESC` + pageClause(f.Limit, 0)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	var list []*entity.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return mustAffect(tag)
}

func scanNotification(row pgx.Row) (*entity.Notification, error) {
	var n entity.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.Type, &n.RelatedEntityID, &n.RelatedEntityType,
		&n.Read, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MeetingRepo reuniones ligadas a un lead u oportunidad.
type MeetingRepo struct {
	q Querier
}

func NewMeetingRepository(q Querier) *MeetingRepo {
	return &MeetingRepo{q: q}
}

func (r *MeetingRepo) Create(ctx context.Context, m *entity.Meeting) error {
	var endsAt *time.Time
	if !m.EndsAt.IsZero() {
		endsAt = &m.EndsAt
	}
	query := `
		INSERT INTO meetings (id, title, description, starts_at, ends_at, location, organizer_id,
			related_entity_id, related_entity_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.Title, nullIfEmpty(m.Description), m.StartsAt, endsAt, nullIfEmpty(m.Location), m.OrganizerID,
		nullIfEmpty(m.RelatedEntityID), nullIfEmpty(m.RelatedEntityType), m.CreatedAt,
	)
	return insertErr(err, "meeting")
}

func (r *MeetingRepo) ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.Meeting, error) {
	query := `
		SELECT id, title, COALESCE(description, ''), starts_at, ends_at, COALESCE(location, ''), organizer_id,
			COALESCE(related_entity_id, ''), COALESCE(related_entity_type, ''), created_at
		FROM meetings WHERE related_entity_type = $1 AND related_entity_id = $2 ORDER BY starts_at, id`
	rows, err := r.q.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()
	var list []*entity.Meeting
	for rows.Next() {
		var m entity.Meeting
		var endsAt *time.Time
		if err := rows.Scan(&m.ID, &m.Title, &m.Description, &m.StartsAt, &endsAt, &m.Location, &m.OrganizerID,
			&m.RelatedEntityID, &m.RelatedEntityType, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		if endsAt != nil {
			m.EndsAt = *endsAt
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// CommentRepo comentarios; seq mantiene el orden de inserción.
type CommentRepo struct {
	q Querier
}

func NewCommentRepository(q Querier) *CommentRepo {
	return &CommentRepo{q: q}
}

func (r *CommentRepo) Create(ctx context.Context, c *entity.Comment) error {
	query := `
		INSERT INTO comments (id, author_id, body, related_entity_id, related_entity_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, c.ID, c.AuthorID, c.Body, c.RelatedEntityID, c.RelatedEntityType, c.CreatedAt)
	return insertErr(err, "comment")
}

func (r *CommentRepo) ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.Comment, error) {
	query := `
		SELECT id, author_id, body, related_entity_id, related_entity_type, created_at
		FROM comments WHERE related_entity_type = $1 AND related_entity_id = $2 ORDER BY seq`
	rows, err := r.q.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Comment
	for rows.Next() {
		var c entity.Comment
		if err := rows.Scan(&c.ID, &c.AuthorID, &c.Body, &c.RelatedEntityID, &c.RelatedEntityType, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}
