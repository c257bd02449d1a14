package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
	"github.com/jhoicas/leadflow-api/pkg/textfold"
)

var _ repository.LeadRepository = (*LeadRepo)(nil)

const leadColumns = `id, name, inquiry_type, priority, source, status, export_quota, plot_size,
	COALESCE(email, ''), COALESCE(phone, ''), COALESCE(notes, ''), COALESCE(owner_id, ''),
	row_version, created_at, updated_at`

// LeadRepo implementación del puerto LeadRepository sobre PostgreSQL.
type LeadRepo struct {
	q Querier
}

// NewLeadRepository construye el adaptador de persistencia para leads.
func NewLeadRepository(q Querier) *LeadRepo {
	return &LeadRepo{q: q}
}

// Create persiste un nuevo lead.
func (r *LeadRepo) Create(ctx context.Context, l *entity.Lead) error {
	if l.RowVersion == 0 {
		l.RowVersion = 1
	}
	query := `
		INSERT INTO leads (id, name, name_folded, inquiry_type, priority, source, status, export_quota, plot_size,
			email, phone, notes, owner_id, row_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.Name, textfold.Fold(l.Name), string(l.InquiryType), string(l.Priority), string(l.Source), string(l.Status),
		l.ExportQuota, l.PlotSize, nullIfEmpty(l.Email), nullIfEmpty(l.Phone), nullIfEmpty(l.Notes), nullIfEmpty(l.OwnerID),
		l.RowVersion, l.CreatedAt, l.UpdatedAt,
	)
	return insertErr(err, "lead")
}

// GetByID obtiene un lead por ID; nil si no existe.
func (r *LeadRepo) GetByID(ctx context.Context, id string) (*entity.Lead, error) {
	l, err := scanLead(r.q.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lead by id: %w", err)
	}
	return l, nil
}

// List filtra leads, más recientes primero.
func (r *LeadRepo) List(ctx context.Context, f repository.LeadFilter) ([]*entity.Lead, error) {
	var w where
	if len(f.Statuses) > 0 {
		w.add("status = ANY(?)", toStrings(f.Statuses))
	}
	if f.Priority != "" {
		w.add("priority = ?", string(f.Priority))
	}
	if f.OwnerID != "" {
		w.add("owner_id = ?", f.OwnerID)
	}
	if f.Search != "" {
		w.add(`name_folded LIKE ? ESCAPE '\'`, containsPattern(f.Search))
	}
	if f.UpdatedBefore != nil {
		w.add("updated_at < ?", *f.UpdatedBefore)
	}
	if f.UpdatedAfter != nil {
		w.add("updated_at > ?", *f.UpdatedAfter)
	}
	query := `SELECT ` + leadColumns + ` FROM leads` + w.String() +
		` ORDER BY created_at DESC, id DESC` + pageClause(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()
	var list []*entity.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// Update escribe el lead si row_version coincide e incrementa la versión del llamador.
func (r *LeadRepo) Update(ctx context.Context, l *entity.Lead) error {
	query := `
		UPDATE leads SET name = $3, name_folded = $4, inquiry_type = $5, priority = $6, source = $7, status = $8,
			export_quota = $9, plot_size = $10, email = $11, phone = $12, notes = $13, owner_id = $14,
			updated_at = $15, row_version = row_version + 1
		WHERE id = $1 AND row_version = $2`
	tag, err := r.q.Exec(ctx, query,
		l.ID, l.RowVersion, l.Name, textfold.Fold(l.Name), string(l.InquiryType), string(l.Priority), string(l.Source),
		string(l.Status), l.ExportQuota, l.PlotSize, nullIfEmpty(l.Email), nullIfEmpty(l.Phone), nullIfEmpty(l.Notes),
		nullIfEmpty(l.OwnerID), l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	if err := afterVersionedUpdate(ctx, r.q, "leads", "lead", l.ID, l.RowVersion, tag); err != nil {
		return err
	}
	l.RowVersion++
	return nil
}

// Delete elimina un lead por ID.
func (r *LeadRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	return mustAffect(tag)
}

func scanLead(row pgx.Row) (*entity.Lead, error) {
	var l entity.Lead
	err := row.Scan(&l.ID, &l.Name, &l.InquiryType, &l.Priority, &l.Source, &l.Status, &l.ExportQuota, &l.PlotSize,
		&l.Email, &l.Phone, &l.Notes, &l.OwnerID, &l.RowVersion, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

var _ repository.OpportunityRepository = (*OpportunityRepo)(nil)

const opportunityColumns = `o.id, o.lead_id, l.name, o.status, o.nda_status, o.business_plan_status,
	o.site_visit_scheduled, o.site_visit_date, COALESCE(o.site_visit_notes, ''),
	o.row_version, o.created_at, o.updated_at`

const opportunityFrom = ` FROM opportunities o JOIN leads l ON l.id = o.lead_id`

// OpportunityRepo oportunidades; LeadName sale del join con leads.
type OpportunityRepo struct {
	q Querier
}

// NewOpportunityRepository construye el adaptador de persistencia para oportunidades.
func NewOpportunityRepository(q Querier) *OpportunityRepo {
	return &OpportunityRepo{q: q}
}

func (r *OpportunityRepo) Create(ctx context.Context, o *entity.Opportunity) error {
	if o.RowVersion == 0 {
		o.RowVersion = 1
	}
	query := `
		INSERT INTO opportunities (id, lead_id, status, nda_status, business_plan_status, site_visit_scheduled,
			site_visit_date, site_visit_notes, row_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.LeadID, string(o.Status), string(o.NdaStatus), string(o.BusinessPlanStatus), o.SiteVisitScheduled,
		o.SiteVisitDate, nullIfEmpty(o.SiteVisitNotes), o.RowVersion, o.CreatedAt, o.UpdatedAt,
	)
	return insertErr(err, "opportunity")
}

func (r *OpportunityRepo) GetByID(ctx context.Context, id string) (*entity.Opportunity, error) {
	return r.getOne(ctx, "o.id", id)
}

func (r *OpportunityRepo) GetByLeadID(ctx context.Context, leadID string) (*entity.Opportunity, error) {
	return r.getOne(ctx, "o.lead_id", leadID)
}

func (r *OpportunityRepo) getOne(ctx context.Context, column, value string) (*entity.Opportunity, error) {
	o, err := scanOpportunity(r.q.QueryRow(ctx, `SELECT `+opportunityColumns+opportunityFrom+` WHERE `+column+` = $1`, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get opportunity: %w", err)
	}
	return o, nil
}

func (r *OpportunityRepo) List(ctx context.Context, f repository.OpportunityFilter) ([]*entity.Opportunity, error) {
	var w where
	if len(f.Statuses) > 0 {
		w.add("o.status = ANY(?)", toStrings(f.Statuses))
	}
	if f.Search != "" {
		w.add(`l.name_folded LIKE ? ESCAPE '\'`, containsPattern(f.Search))
	}
	query := `SELECT ` + opportunityColumns + opportunityFrom + w.String() +
		` ORDER BY o.created_at DESC, o.id DESC` + pageClause(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()
	var list []*entity.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

func (r *OpportunityRepo) Update(ctx context.Context, o *entity.Opportunity) error {
	query := `
		UPDATE opportunities SET status = $3, nda_status = $4, business_plan_status = $5, site_visit_scheduled = $6,
			site_visit_date = $7, site_visit_notes = $8, updated_at = $9, row_version = row_version + 1
		WHERE id = $1 AND row_version = $2`
	tag, err := r.q.Exec(ctx, query,
		o.ID, o.RowVersion, string(o.Status), string(o.NdaStatus), string(o.BusinessPlanStatus), o.SiteVisitScheduled,
		o.SiteVisitDate, nullIfEmpty(o.SiteVisitNotes), o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update opportunity: %w", err)
	}
	if err := afterVersionedUpdate(ctx, r.q, "opportunities", "opportunity", o.ID, o.RowVersion, tag); err != nil {
		return err
	}
	o.RowVersion++
	return nil
}

func scanOpportunity(row pgx.Row) (*entity.Opportunity, error) {
	var o entity.Opportunity
	err := row.Scan(&o.ID, &o.LeadID, &o.LeadName, &o.Status, &o.NdaStatus, &o.BusinessPlanStatus,
		&o.SiteVisitScheduled, &o.SiteVisitDate, &o.SiteVisitNotes, &o.RowVersion, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
