package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

var (
	_ repository.TaskRepository           = (*TaskRepo)(nil)
	_ repository.NotificationRepository   = (*NotificationRepo)(nil)
	_ repository.MeetingRepository        = (*MeetingRepo)(nil)
	_ repository.CommentRepository        = (*CommentRepo)(nil)
	_ repository.DocumentRepository       = (*DocumentRepo)(nil)
	_ repository.InboundMessageRepository = (*MessageRepo)(nil)
	_ repository.UserRepository           = (*UserRepo)(nil)
)

// TaskRepo tareas en memoria.
type TaskRepo struct{ s *Store }

func (r *TaskRepo) Create(_ context.Context, t *entity.Task) error {
	if err := r.s.begin("tasks.create", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.tasks.get(t.ID); ok {
		return domain.ErrDuplicate
	}
	if t.RowVersion == 0 {
		t.RowVersion = 1
	}
	r.s.st.tasks.put(t.ID, *t)
	return nil
}

func (r *TaskRepo) GetByID(_ context.Context, id string) (*entity.Task, error) {
	if err := r.s.begin("tasks.get", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	t, ok := r.s.st.tasks.get(id)
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *TaskRepo) List(_ context.Context, f repository.TaskFilter) ([]*entity.Task, error) {
	if err := r.s.begin("tasks.list", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.Task
	for _, t := range reversed(r.s.st.tasks.values()) {
		if f.AssignedTo != "" && t.AssignedTo != f.AssignedTo {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.RelatedEntityID != "" && t.RelatedEntityID != f.RelatedEntityID {
			continue
		}
		if f.RelatedEntityType != "" && t.RelatedEntityType != f.RelatedEntityType {
			continue
		}
		t := t
		out = append(out, &t)
	}
	return page(out, f.Limit, f.Offset), nil
}

func (r *TaskRepo) Update(_ context.Context, t *entity.Task) error {
	if err := r.s.begin("tasks.update", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	cur, ok := r.s.st.tasks.get(t.ID)
	if !ok {
		return domain.ErrNotFound
	}
	if cur.RowVersion != t.RowVersion {
		return &domain.ConflictError{Entity: "task", ID: t.ID, Expected: t.RowVersion, Actual: cur.RowVersion}
	}
	t.RowVersion++
	r.s.st.tasks.put(t.ID, *t)
	return nil
}

// NotificationRepo notificaciones en memoria.
type NotificationRepo struct{ s *Store }

func (r *NotificationRepo) Create(_ context.Context, n *entity.Notification) error {
	if err := r.s.begin("notifications.create", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	r.s.st.notifications.put(n.ID, *n)
	return nil
}

func (r *NotificationRepo) GetByID(_ context.Context, id string) (*entity.Notification, error) {
	if err := r.s.begin("notifications.get", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	n, ok := r.s.st.notifications.get(id)
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (r *NotificationRepo) List(_ context.Context, f repository.NotificationFilter) ([]*entity.Notification, error) {
	if err := r.s.begin("notifications.list", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.Notification
	for _, n := range reversed(r.s.st.notifications.values()) {
		if f.UserID != "" && n.UserID != f.UserID {
			continue
		}
		if f.Type != "" && n.Type != f.Type {
			continue
		}
		if f.RelatedEntityID != "" && n.RelatedEntityID != f.RelatedEntityID {
			continue
		}
		if f.RelatedEntityType != "" && n.RelatedEntityType != f.RelatedEntityType {
			continue
		}
		if f.CreatedAfter != nil && !n.CreatedAt.After(*f.CreatedAfter) {
			continue
		}
		if f.UnreadOnly && n.Read {
			continue
		}
		n := n
		out = append(out, &n)
	}
	return page(out, f.Limit, 0), nil
}

func (r *NotificationRepo) MarkRead(_ context.Context, id string) error {
	if err := r.s.begin("notifications.update", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	n, ok := r.s.st.notifications.get(id)
	if !ok {
		return domain.ErrNotFound
	}
	n.Read = true
	r.s.st.notifications.put(id, n)
	return nil
}

// MeetingRepo reuniones en memoria.
type MeetingRepo struct{ s *Store }

func (r *MeetingRepo) Create(_ context.Context, m *entity.Meeting) error {
	if err := r.s.begin("meetings.create", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	r.s.st.meetings.put(m.ID, *m)
	return nil
}

func (r *MeetingRepo) ListByEntity(_ context.Context, entityType, entityID string) ([]*entity.Meeting, error) {
	if err := r.s.begin("meetings.list", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.Meeting
	for _, m := range r.s.st.meetings.values() {
		if m.RelatedEntityType == entityType && m.RelatedEntityID == entityID {
			m := m
			out = append(out, &m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

// CommentRepo comentarios en memoria.
type CommentRepo struct{ s *Store }

func (r *CommentRepo) Create(_ context.Context, c *entity.Comment) error {
	if err := r.s.begin("comments.create", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	r.s.st.comments.put(c.ID, *c)
	return nil
}

func (r *CommentRepo) ListByEntity(_ context.Context, entityType, entityID string) ([]*entity.Comment, error) {
	if err := r.s.begin("comments.list", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.Comment
	for _, c := range r.s.st.comments.values() {
		if c.RelatedEntityType == entityType && c.RelatedEntityID == entityID {
			c := c
			out = append(out, &c)
		}
	}
	return out, nil
}

// DocumentRepo metadatos de documentos en memoria.
type DocumentRepo struct{ s *Store }

func cloneDocument(d entity.Document) *entity.Document {
	d.VersionHistory = slices.Clone(d.VersionHistory)
	return &d
}

func (r *DocumentRepo) Create(_ context.Context, d *entity.Document) error {
	if err := r.s.begin("documents.create", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for _, existing := range r.s.st.documents.values() {
		if existing.ID == d.ID || (existing.EntityType == d.EntityType && existing.EntityID == d.EntityID && existing.Name == d.Name) {
			return domain.ErrDuplicate
		}
	}
	if d.RowVersion == 0 {
		d.RowVersion = 1
	}
	r.s.st.documents.put(d.ID, *cloneDocument(*d))
	return nil
}

func (r *DocumentRepo) GetByID(_ context.Context, id string) (*entity.Document, error) {
	if err := r.s.begin("documents.get", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	d, ok := r.s.st.documents.get(id)
	if !ok {
		return nil, nil
	}
	return cloneDocument(d), nil
}

func (r *DocumentRepo) FindByName(_ context.Context, entityType, entityID, name string) (*entity.Document, error) {
	if err := r.s.begin("documents.get", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	for _, d := range r.s.st.documents.values() {
		if d.EntityType == entityType && d.EntityID == entityID && d.Name == name {
			return cloneDocument(d), nil
		}
	}
	return nil, nil
}

func (r *DocumentRepo) Update(_ context.Context, d *entity.Document) error {
	if err := r.s.begin("documents.update", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	cur, ok := r.s.st.documents.get(d.ID)
	if !ok {
		return domain.ErrNotFound
	}
	if cur.RowVersion != d.RowVersion {
		return &domain.ConflictError{Entity: "document", ID: d.ID, Expected: d.RowVersion, Actual: cur.RowVersion}
	}
	d.RowVersion++
	r.s.st.documents.put(d.ID, *cloneDocument(*d))
	return nil
}

func (r *DocumentRepo) Delete(_ context.Context, id string) error {
	if err := r.s.begin("documents.delete", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.documents.get(id); !ok {
		return domain.ErrNotFound
	}
	r.s.st.documents.del(id)
	return nil
}

// MessageRepo correos entrantes en memoria.
type MessageRepo struct{ s *Store }

func (r *MessageRepo) Upsert(_ context.Context, m *entity.InboundMessage) (bool, error) {
	if err := r.s.begin("messages.upsert", true); err != nil {
		return false, err
	}
	defer r.s.mu.Unlock()
	for _, existing := range r.s.st.messages.values() {
		if existing.Provider == m.Provider && existing.ExternalID == m.ExternalID {
			m.ID = existing.ID
			m.IsEnquiry = existing.IsEnquiry
			m.LinkedLeadID = existing.LinkedLeadID
			m.CreatedAt = existing.CreatedAt
			r.s.st.messages.put(existing.ID, *m)
			return false, nil
		}
	}
	r.s.st.messages.put(m.ID, *m)
	return true, nil
}

func (r *MessageRepo) GetByID(_ context.Context, id string) (*entity.InboundMessage, error) {
	if err := r.s.begin("messages.get", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	m, ok := r.s.st.messages.get(id)
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *MessageRepo) List(_ context.Context, f repository.MessageFilter) ([]*entity.InboundMessage, error) {
	if err := r.s.begin("messages.list", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	all := r.s.st.messages.values()
	sort.SliceStable(all, func(i, j int) bool { return all[i].ReceivedAt.After(all[j].ReceivedAt) })
	var out []*entity.InboundMessage
	for _, m := range all {
		if f.OnlyEnquiries && !m.IsEnquiry {
			continue
		}
		if f.Unlinked && m.LinkedLeadID != "" {
			continue
		}
		m := m
		out = append(out, &m)
	}
	return page(out, f.Limit, f.Offset), nil
}

func (r *MessageRepo) Update(_ context.Context, m *entity.InboundMessage) error {
	if err := r.s.begin("messages.update", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.messages.get(m.ID); !ok {
		return domain.ErrNotFound
	}
	r.s.st.messages.put(m.ID, *m)
	return nil
}

func (r *MessageRepo) LatestReceivedAt(_ context.Context, provider entity.LeadSource) (*time.Time, error) {
	if err := r.s.begin("messages.get", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var latest *time.Time
	for _, m := range r.s.st.messages.values() {
		if m.Provider != provider {
			continue
		}
		if latest == nil || m.ReceivedAt.After(*latest) {
			t := m.ReceivedAt
			latest = &t
		}
	}
	return latest, nil
}

// UserRepo usuarios en memoria (se cargan con Store.SeedUser).
type UserRepo struct{ s *Store }

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	if err := r.s.begin("users.get", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	u, ok := r.s.st.users.get(id)
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	if err := r.s.begin("users.get", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	for _, u := range r.s.st.users.values() {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}
