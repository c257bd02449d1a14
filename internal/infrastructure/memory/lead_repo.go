package memory

import (
	"context"
	"slices"

	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
	"github.com/jhoicas/leadflow-api/pkg/textfold"
)

var (
	_ repository.LeadRepository        = (*LeadRepo)(nil)
	_ repository.OpportunityRepository = (*OpportunityRepo)(nil)
)

// LeadRepo leads en memoria.
type LeadRepo struct{ s *Store }

func (r *LeadRepo) Create(_ context.Context, l *entity.Lead) error {
	if err := r.s.begin("leads.create", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.leads.get(l.ID); ok {
		return domain.ErrDuplicate
	}
	if l.RowVersion == 0 {
		l.RowVersion = 1
	}
	r.s.st.leads.put(l.ID, *l)
	return nil
}

func (r *LeadRepo) GetByID(_ context.Context, id string) (*entity.Lead, error) {
	if err := r.s.begin("leads.get", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	l, ok := r.s.st.leads.get(id)
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *LeadRepo) List(_ context.Context, f repository.LeadFilter) ([]*entity.Lead, error) {
	if err := r.s.begin("leads.list", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.Lead
	for _, l := range reversed(r.s.st.leads.values()) {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, l.Status) {
			continue
		}
		if f.Priority != "" && l.Priority != f.Priority {
			continue
		}
		if f.OwnerID != "" && l.OwnerID != f.OwnerID {
			continue
		}
		if f.Search != "" && !textfold.Contains(l.Name, f.Search) {
			continue
		}
		if f.UpdatedBefore != nil && !l.UpdatedAt.Before(*f.UpdatedBefore) {
			continue
		}
		if f.UpdatedAfter != nil && !l.UpdatedAt.After(*f.UpdatedAfter) {
			continue
		}
		l := l
		out = append(out, &l)
	}
	return page(out, f.Limit, f.Offset), nil
}

func (r *LeadRepo) Update(_ context.Context, l *entity.Lead) error {
	if err := r.s.begin("leads.update", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	cur, ok := r.s.st.leads.get(l.ID)
	if !ok {
		return domain.ErrNotFound
	}
	if cur.RowVersion != l.RowVersion {
		return &domain.ConflictError{Entity: "lead", ID: l.ID, Expected: l.RowVersion, Actual: cur.RowVersion}
	}
	l.RowVersion++
	r.s.st.leads.put(l.ID, *l)
	return nil
}

func (r *LeadRepo) Delete(_ context.Context, id string) error {
	if err := r.s.begin("leads.delete", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.leads.get(id); !ok {
		return domain.ErrNotFound
	}
	r.s.st.leads.del(id)
	return nil
}

// OpportunityRepo oportunidades en memoria; LeadName se completa desde leads.
type OpportunityRepo struct{ s *Store }

func (r *OpportunityRepo) withLead(o entity.Opportunity) *entity.Opportunity {
	if l, ok := r.s.st.leads.get(o.LeadID); ok {
		o.LeadName = l.Name
	}
	return &o
}

func (r *OpportunityRepo) Create(_ context.Context, o *entity.Opportunity) error {
	if err := r.s.begin("opportunities.create", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.opportunities.get(o.ID); ok {
		return domain.ErrDuplicate
	}
	for _, existing := range r.s.st.opportunities.values() {
		if existing.LeadID == o.LeadID {
			return domain.ErrDuplicate
		}
	}
	if o.RowVersion == 0 {
		o.RowVersion = 1
	}
	r.s.st.opportunities.put(o.ID, *o)
	return nil
}

func (r *OpportunityRepo) GetByID(_ context.Context, id string) (*entity.Opportunity, error) {
	if err := r.s.begin("opportunities.get", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	o, ok := r.s.st.opportunities.get(id)
	if !ok {
		return nil, nil
	}
	return r.withLead(o), nil
}

func (r *OpportunityRepo) GetByLeadID(_ context.Context, leadID string) (*entity.Opportunity, error) {
	if err := r.s.begin("opportunities.get", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	for _, o := range r.s.st.opportunities.values() {
		if o.LeadID == leadID {
			return r.withLead(o), nil
		}
	}
	return nil, nil
}

func (r *OpportunityRepo) List(_ context.Context, f repository.OpportunityFilter) ([]*entity.Opportunity, error) {
	if err := r.s.begin("opportunities.list", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.Opportunity
	for _, o := range reversed(r.s.st.opportunities.values()) {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, o.Status) {
			continue
		}
		full := r.withLead(o)
		if f.Search != "" && !textfold.Contains(full.LeadName, f.Search) {
			continue
		}
		out = append(out, full)
	}
	return page(out, f.Limit, f.Offset), nil
}

func (r *OpportunityRepo) Update(_ context.Context, o *entity.Opportunity) error {
	if err := r.s.begin("opportunities.update", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	cur, ok := r.s.st.opportunities.get(o.ID)
	if !ok {
		return domain.ErrNotFound
	}
	if cur.RowVersion != o.RowVersion {
		return &domain.ConflictError{Entity: "opportunity", ID: o.ID, Expected: o.RowVersion, Actual: cur.RowVersion}
	}
	o.RowVersion++
	stored := *o
	stored.LeadName = ""
	r.s.st.opportunities.put(o.ID, stored)
	return nil
}
