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

var _ repository.InboundMessageRepository = (*MessageRepo)(nil)

const messageColumns = `id, provider, external_id, COALESCE(sender_name, ''), COALESCE(sender_email, ''),
	COALESCE(subject, ''), COALESCE(body, ''), received_at, has_attachments, is_enquiry,
	COALESCE(linked_lead_id, ''), created_at`

// MessageRepo correos importados de los buzones.
type MessageRepo struct {
	q Querier
}

func NewMessageRepository(q Querier) *MessageRepo {
	return &MessageRepo{q: q}
}

// Upsert inserta o refresca por (provider, external_id). Al refrescar se conservan
// id, is_enquiry, linked_lead_id y created_at; devuelve true si la fila es nueva.
func (r *MessageRepo) Upsert(ctx context.Context, m *entity.InboundMessage) (bool, error) {
	query := `
		INSERT INTO inbound_messages (id, provider, external_id, sender_name, sender_email, subject, body,
			received_at, has_attachments, is_enquiry, linked_lead_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (provider, external_id) DO UPDATE SET
			sender_name = EXCLUDED.sender_name, sender_email = EXCLUDED.sender_email, subject = EXCLUDED.subject,
			body = EXCLUDED.body, received_at = EXCLUDED.received_at, has_attachments = EXCLUDED.has_attachments
		RETURNING id, is_enquiry, COALESCE(linked_lead_id, ''), created_at, (xmax = 0)`
	var created bool
	err := r.q.QueryRow(ctx, query,
		m.ID, string(m.Provider), m.ExternalID, nullIfEmpty(m.SenderName), nullIfEmpty(m.SenderEmail),
		nullIfEmpty(m.Subject), nullIfEmpty(m.Body), m.ReceivedAt, m.HasAttachments, m.IsEnquiry,
		nullIfEmpty(m.LinkedLeadID), m.CreatedAt,
	).Scan(&m.ID, &m.IsEnquiry, &m.LinkedLeadID, &m.CreatedAt, &created)
	if err != nil {
		return false, fmt.Errorf("upsert inbound message: %w", err)
	}
	return created, nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id string) (*entity.InboundMessage, error) {
	m, err := scanMessage(r.q.QueryRow(ctx, `SELECT `+messageColumns+` FROM inbound_messages WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inbound message by id: %w", err)
	}
	return m, nil
}

// List más recientes (received_at) primero.
func (r *MessageRepo) List(ctx context.Context, f repository.MessageFilter) ([]*entity.InboundMessage, error) {
	var w where
	if f.OnlyEnquiries {
		w.conds = append(w.conds, "is_enquiry")
	}
	if f.Unlinked {
		w.conds = append(w.conds, "linked_lead_id IS NULL")
	}
	query := `SELECT ` + messageColumns + ` FROM inbound_messages` + w.String() +
		` ORDER BY received_at DESC, id` + pageClause(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list inbound messages: %w", err)
	}
	defer rows.Close()
	var list []*entity.InboundMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inbound message: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (r *MessageRepo) Update(ctx context.Context, m *entity.InboundMessage) error {
	query := `
		UPDATE inbound_messages SET sender_name = $2, sender_email = $3, subject = $4, body = $5, received_at = $6,
			has_attachments = $7, is_enquiry = $8, linked_lead_id = $9
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		m.ID, nullIfEmpty(m.SenderName), nullIfEmpty(m.SenderEmail), nullIfEmpty(m.Subject), nullIfEmpty(m.Body),
		m.ReceivedAt, m.HasAttachments, m.IsEnquiry, nullIfEmpty(m.LinkedLeadID),
	)
	if err != nil {
		return fmt.Errorf("update inbound message: %w", err)
	}
	return mustAffect(tag)
}

// LatestReceivedAt marca de agua para la próxima importación; nil sin mensajes.
func (r *MessageRepo) LatestReceivedAt(ctx context.Context, provider entity.LeadSource) (*time.Time, error) {
	var latest *time.Time
	err := r.q.QueryRow(ctx,
		`SELECT MAX(received_at) FROM inbound_messages WHERE provider = $1`, string(provider)).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("latest received_at: %w", err)
	}
	return latest, nil
}

func scanMessage(row pgx.Row) (*entity.InboundMessage, error) {
	var m entity.InboundMessage
	err := row.Scan(&m.ID, &m.Provider, &m.ExternalID, &m.SenderName, &m.SenderEmail, &m.Subject, &m.Body,
		&m.ReceivedAt, &m.HasAttachments, &m.IsEnquiry, &m.LinkedLeadID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
