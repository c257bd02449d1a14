package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

var (
	_ repository.NdaRepository          = (*NdaRepo)(nil)
	_ repository.BusinessPlanRepository = (*BusinessPlanRepo)(nil)
	_ repository.ChecklistRepository    = (*ChecklistRepo)(nil)
	_ repository.ApprovalRepository     = (*ApprovalRepo)(nil)
	_ repository.AuditRepository        = (*AuditRepo)(nil)
)

// ────────────────────────────────────────────────────────────────
// NDA
// ────────────────────────────────────────────────────────────────

const ndaColumns = `id, opportunity_id, version, status, COALESCE(document_id, ''), COALESCE(issued_by, ''),
	issued_at, signed_at, countersigned_at, completed_at, row_version, created_at, updated_at`

// NdaRepo versiones de NDA por oportunidad.
type NdaRepo struct {
	q Querier
}

func NewNdaRepository(q Querier) *NdaRepo {
	return &NdaRepo{q: q}
}

func (r *NdaRepo) Create(ctx context.Context, n *entity.Nda) error {
	if n.RowVersion == 0 {
		n.RowVersion = 1
	}
	query := `
		INSERT INTO ndas (id, opportunity_id, version, status, document_id, issued_by, issued_at, signed_at,
			countersigned_at, completed_at, row_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		n.ID, n.OpportunityID, n.Version, string(n.Status), nullIfEmpty(n.DocumentID), nullIfEmpty(n.IssuedBy),
		n.IssuedAt, n.SignedAt, n.CountersignedAt, n.CompletedAt, n.RowVersion, n.CreatedAt, n.UpdatedAt,
	)
	return insertErr(err, "nda")
}

func (r *NdaRepo) GetByID(ctx context.Context, id string) (*entity.Nda, error) {
	n, err := scanNda(r.q.QueryRow(ctx, `SELECT `+ndaColumns+` FROM ndas WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get nda by id: %w", err)
	}
	return n, nil
}

// ListByOpportunity versiones en orden ascendente.
func (r *NdaRepo) ListByOpportunity(ctx context.Context, opportunityID string) ([]*entity.Nda, error) {
	rows, err := r.q.Query(ctx, `SELECT `+ndaColumns+` FROM ndas WHERE opportunity_id = $1 ORDER BY version`, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list ndas: %w", err)
	}
	defer rows.Close()
	var list []*entity.Nda
	for rows.Next() {
		n, err := scanNda(rows)
		if err != nil {
			return nil, fmt.Errorf("scan nda: %w", err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (r *NdaRepo) Update(ctx context.Context, n *entity.Nda) error {
	query := `
		UPDATE ndas SET status = $3, document_id = $4, issued_by = $5, issued_at = $6, signed_at = $7,
			countersigned_at = $8, completed_at = $9, updated_at = $10, row_version = row_version + 1
		WHERE id = $1 AND row_version = $2`
	tag, err := r.q.Exec(ctx, query,
		n.ID, n.RowVersion, string(n.Status), nullIfEmpty(n.DocumentID), nullIfEmpty(n.IssuedBy), n.IssuedAt,
		n.SignedAt, n.CountersignedAt, n.CompletedAt, n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update nda: %w", err)
	}
	if err := afterVersionedUpdate(ctx, r.q, "ndas", "nda", n.ID, n.RowVersion, tag); err != nil {
		return err
	}
	n.RowVersion++
	return nil
}

func scanNda(row pgx.Row) (*entity.Nda, error) {
	var n entity.Nda
	err := row.Scan(&n.ID, &n.OpportunityID, &n.Version, &n.Status, &n.DocumentID, &n.IssuedBy,
		&n.IssuedAt, &n.SignedAt, &n.CountersignedAt, &n.CompletedAt, &n.RowVersion, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ────────────────────────────────────────────────────────────────
// Plan de negocio
// ────────────────────────────────────────────────────────────────

const businessPlanColumns = `id, opportunity_id, version, status, COALESCE(document_id, ''), COALESCE(notes, ''),
	COALESCE(feedback, ''), COALESCE(requested_by, ''), requested_at, received_at, COALESCE(approved_by, ''),
	approved_at, row_version, created_at, updated_at`

// BusinessPlanRepo versiones del plan de negocio por oportunidad.
type BusinessPlanRepo struct {
	q Querier
}

func NewBusinessPlanRepository(q Querier) *BusinessPlanRepo {
	return &BusinessPlanRepo{q: q}
}

func (r *BusinessPlanRepo) Create(ctx context.Context, p *entity.BusinessPlan) error {
	if p.RowVersion == 0 {
		p.RowVersion = 1
	}
	query := `
		INSERT INTO business_plans (id, opportunity_id, version, status, document_id, notes, feedback, requested_by,
			requested_at, received_at, approved_by, approved_at, row_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.OpportunityID, p.Version, string(p.Status), nullIfEmpty(p.DocumentID), nullIfEmpty(p.Notes),
		nullIfEmpty(p.Feedback), nullIfEmpty(p.RequestedBy), p.RequestedAt, p.ReceivedAt, nullIfEmpty(p.ApprovedBy),
		p.ApprovedAt, p.RowVersion, p.CreatedAt, p.UpdatedAt,
	)
	return insertErr(err, "business plan")
}

func (r *BusinessPlanRepo) GetByID(ctx context.Context, id string) (*entity.BusinessPlan, error) {
	p, err := scanBusinessPlan(r.q.QueryRow(ctx, `SELECT `+businessPlanColumns+` FROM business_plans WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get business plan by id: %w", err)
	}
	return p, nil
}

func (r *BusinessPlanRepo) ListByOpportunity(ctx context.Context, opportunityID string) ([]*entity.BusinessPlan, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+businessPlanColumns+` FROM business_plans WHERE opportunity_id = $1 ORDER BY version`, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list business plans: %w", err)
	}
	defer rows.Close()
	var list []*entity.BusinessPlan
	for rows.Next() {
		p, err := scanBusinessPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan business plan: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *BusinessPlanRepo) Update(ctx context.Context, p *entity.BusinessPlan) error {
	query := `
		UPDATE business_plans SET status = $3, document_id = $4, notes = $5, feedback = $6, requested_by = $7,
			requested_at = $8, received_at = $9, approved_by = $10, approved_at = $11, updated_at = $12,
			row_version = row_version + 1
		WHERE id = $1 AND row_version = $2`
	tag, err := r.q.Exec(ctx, query,
		p.ID, p.RowVersion, string(p.Status), nullIfEmpty(p.DocumentID), nullIfEmpty(p.Notes), nullIfEmpty(p.Feedback),
		nullIfEmpty(p.RequestedBy), p.RequestedAt, p.ReceivedAt, nullIfEmpty(p.ApprovedBy), p.ApprovedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update business plan: %w", err)
	}
	if err := afterVersionedUpdate(ctx, r.q, "business_plans", "business_plan", p.ID, p.RowVersion, tag); err != nil {
		return err
	}
	p.RowVersion++
	return nil
}

func scanBusinessPlan(row pgx.Row) (*entity.BusinessPlan, error) {
	var p entity.BusinessPlan
	err := row.Scan(&p.ID, &p.OpportunityID, &p.Version, &p.Status, &p.DocumentID, &p.Notes, &p.Feedback,
		&p.RequestedBy, &p.RequestedAt, &p.ReceivedAt, &p.ApprovedBy, &p.ApprovedAt, &p.RowVersion,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ────────────────────────────────────────────────────────────────
// Checklist de due diligence
// ────────────────────────────────────────────────────────────────

const checklistItemColumns = `id, checklist_id, name, COALESCE(description, ''), status, COALESCE(assigned_to, ''),
	due_date, COALESCE(notes, ''), completed_at, COALESCE(completed_by, ''), order_index, row_version,
	created_at, updated_at`

// ChecklistRepo checklist (uno por oportunidad) y sus ítems.
type ChecklistRepo struct {
	q Querier
}

func NewChecklistRepository(q Querier) *ChecklistRepo {
	return &ChecklistRepo{q: q}
}

// Create inserta cabecera e ítems. Conviene llamarlo dentro de TxRunner.Run.
func (r *ChecklistRepo) Create(ctx context.Context, c *entity.Checklist) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO checklists (id, opportunity_id, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		c.ID, c.OpportunityID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return insertErr(err, "checklist")
	}
	query := `
		INSERT INTO checklist_items (id, checklist_id, name, description, status, assigned_to, due_date, notes,
			completed_at, completed_by, order_index, row_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	for _, it := range c.Items {
		if it.RowVersion == 0 {
			it.RowVersion = 1
		}
		it.ChecklistID = c.ID
		_, err := r.q.Exec(ctx, query,
			it.ID, it.ChecklistID, it.Name, nullIfEmpty(it.Description), string(it.Status), nullIfEmpty(it.AssignedTo),
			it.DueDate, nullIfEmpty(it.Notes), it.CompletedAt, nullIfEmpty(it.CompletedBy), it.OrderIndex,
			it.RowVersion, it.CreatedAt, it.UpdatedAt,
		)
		if err != nil {
			return insertErr(err, "checklist item")
		}
	}
	return nil
}

func (r *ChecklistRepo) GetByID(ctx context.Context, id string) (*entity.Checklist, error) {
	return r.getOne(ctx, "id", id)
}

func (r *ChecklistRepo) GetByOpportunity(ctx context.Context, opportunityID string) (*entity.Checklist, error) {
	return r.getOne(ctx, "opportunity_id", opportunityID)
}

func (r *ChecklistRepo) getOne(ctx context.Context, column, value string) (*entity.Checklist, error) {
	var c entity.Checklist
	err := r.q.QueryRow(ctx,
		`SELECT id, opportunity_id, created_at, updated_at FROM checklists WHERE `+column+` = $1`, value,
	).Scan(&c.ID, &c.OpportunityID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get checklist: %w", err)
	}
	items, err := r.ListItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items
	return &c, nil
}

func (r *ChecklistRepo) GetItem(ctx context.Context, itemID string) (*entity.ChecklistItem, error) {
	it, err := scanChecklistItem(r.q.QueryRow(ctx, `SELECT `+checklistItemColumns+` FROM checklist_items WHERE id = $1`, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get checklist item: %w", err)
	}
	return it, nil
}

func (r *ChecklistRepo) ListItems(ctx context.Context, checklistID string) ([]*entity.ChecklistItem, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+checklistItemColumns+` FROM checklist_items WHERE checklist_id = $1 ORDER BY order_index, id`, checklistID)
	if err != nil {
		return nil, fmt.Errorf("list checklist items: %w", err)
	}
	defer rows.Close()
	var list []*entity.ChecklistItem
	for rows.Next() {
		it, err := scanChecklistItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checklist item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

func (r *ChecklistRepo) UpdateItem(ctx context.Context, it *entity.ChecklistItem) error {
	query := `
		UPDATE checklist_items SET name = $3, description = $4, status = $5, assigned_to = $6, due_date = $7,
			notes = $8, completed_at = $9, completed_by = $10, order_index = $11, updated_at = $12,
			row_version = row_version + 1
		WHERE id = $1 AND row_version = $2`
	tag, err := r.q.Exec(ctx, query,
		it.ID, it.RowVersion, it.Name, nullIfEmpty(it.Description), string(it.Status), nullIfEmpty(it.AssignedTo),
		it.DueDate, nullIfEmpty(it.Notes), it.CompletedAt, nullIfEmpty(it.CompletedBy), it.OrderIndex, it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update checklist item: %w", err)
	}
	if err := afterVersionedUpdate(ctx, r.q, "checklist_items", "checklist_item", it.ID, it.RowVersion, tag); err != nil {
		return err
	}
	it.RowVersion++
	return nil
}

func scanChecklistItem(row pgx.Row) (*entity.ChecklistItem, error) {
	var it entity.ChecklistItem
	err := row.Scan(&it.ID, &it.ChecklistID, &it.Name, &it.Description, &it.Status, &it.AssignedTo, &it.DueDate,
		&it.Notes, &it.CompletedAt, &it.CompletedBy, &it.OrderIndex, &it.RowVersion, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// ────────────────────────────────────────────────────────────────
// Aprobaciones y auditoría (solo inserción)
// ────────────────────────────────────────────────────────────────

// ApprovalRepo registros de aprobación.
type ApprovalRepo struct {
	q Querier
}

func NewApprovalRepository(q Querier) *ApprovalRepo {
	return &ApprovalRepo{q: q}
}

func (r *ApprovalRepo) Create(ctx context.Context, a *entity.Approval) error {
	query := `
		INSERT INTO approvals (id, opportunity_id, stage, is_final, comments, approved_by, approver_role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.OpportunityID, string(a.Stage), a.IsFinal, nullIfEmpty(a.Comments), a.ApprovedBy, a.ApproverRole, a.CreatedAt)
	return insertErr(err, "approval")
}

func (r *ApprovalRepo) ListByOpportunity(ctx context.Context, opportunityID string) ([]*entity.Approval, error) {
	query := `
		SELECT id, opportunity_id, stage, is_final, COALESCE(comments, ''), approved_by, approver_role, created_at
		FROM approvals WHERE opportunity_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, opportunityID)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()
	var list []*entity.Approval
	for rows.Next() {
		var a entity.Approval
		if err := rows.Scan(&a.ID, &a.OpportunityID, &a.Stage, &a.IsFinal, &a.Comments, &a.ApprovedBy,
			&a.ApproverRole, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

// AuditRepo bitácora; seq conserva el orden de inserción.
type AuditRepo struct {
	q Querier
}

func NewAuditRepository(q Querier) *AuditRepo {
	return &AuditRepo{q: q}
}

func (r *AuditRepo) Create(ctx context.Context, e *entity.AuditEntry) error {
	query := `
		INSERT INTO audit_entries (id, entity_type, entity_id, action, from_status, to_status, actor_id, comments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.EntityType, e.EntityID, e.Action, nullIfEmpty(e.FromStatus), nullIfEmpty(e.ToStatus), e.ActorID,
		nullIfEmpty(e.Comments), e.CreatedAt)
	return insertErr(err, "audit entry")
}

func (r *AuditRepo) ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.AuditEntry, error) {
	query := `
		SELECT id, entity_type, entity_id, action, COALESCE(from_status, ''), COALESCE(to_status, ''), actor_id,
			COALESCE(comments, ''), created_at
		FROM audit_entries WHERE entity_type = $1 AND entity_id = $2 ORDER BY seq`
	rows, err := r.q.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()
	var list []*entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.FromStatus, &e.ToStatus, &e.ActorID,
			&e.Comments, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
