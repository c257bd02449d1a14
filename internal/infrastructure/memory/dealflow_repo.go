package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/leadflow-api/internal/domain"
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

// NdaRepo NDAs en memoria.
type NdaRepo struct{ s *Store }

func (r *NdaRepo) Create(_ context.Context, n *entity.Nda) error {
	if err := r.s.begin("ndas.create", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for _, existing := range r.s.st.ndas.values() {
		if existing.ID == n.ID || (existing.OpportunityID == n.OpportunityID && existing.Version == n.Version) {
			return domain.ErrDuplicate
		}
	}
	if n.RowVersion == 0 {
		n.RowVersion = 1
	}
	r.s.st.ndas.put(n.ID, *n)
	return nil
}

func (r *NdaRepo) GetByID(_ context.Context, id string) (*entity.Nda, error) {
	if err := r.s.begin("ndas.get", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	n, ok := r.s.st.ndas.get(id)
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (r *NdaRepo) ListByOpportunity(_ context.Context, opportunityID string) ([]*entity.Nda, error) {
	if err := r.s.begin("ndas.list", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.Nda
	for _, n := range r.s.st.ndas.values() {
		if n.OpportunityID == opportunityID {
			n := n
			out = append(out, &n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (r *NdaRepo) Update(_ context.Context, n *entity.Nda) error {
	if err := r.s.begin("ndas.update", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	cur, ok := r.s.st.ndas.get(n.ID)
	if !ok {
		return domain.ErrNotFound
	}
	if cur.RowVersion != n.RowVersion {
		return &domain.ConflictError{Entity: "nda", ID: n.ID, Expected: n.RowVersion, Actual: cur.RowVersion}
	}
	n.RowVersion++
	r.s.st.ndas.put(n.ID, *n)
	return nil
}

// BusinessPlanRepo planes de negocio en memoria.
type BusinessPlanRepo struct{ s *Store }

func (r *BusinessPlanRepo) Create(_ context.Context, p *entity.BusinessPlan) error {
	if err := r.s.begin("business_plans.create", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for _, existing := range r.s.st.plans.values() {
		if existing.ID == p.ID || (existing.OpportunityID == p.OpportunityID && existing.Version == p.Version) {
			return domain.ErrDuplicate
		}
	}
	if p.RowVersion == 0 {
		p.RowVersion = 1
	}
	r.s.st.plans.put(p.ID, *p)
	return nil
}

func (r *BusinessPlanRepo) GetByID(_ context.Context, id string) (*entity.BusinessPlan, error) {
	if err := r.s.begin("business_plans.get", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	p, ok := r.s.st.plans.get(id)
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *BusinessPlanRepo) ListByOpportunity(_ context.Context, opportunityID string) ([]*entity.BusinessPlan, error) {
	if err := r.s.begin("business_plans.list", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.BusinessPlan
	for _, p := range r.s.st.plans.values() {
		if p.OpportunityID == opportunityID {
			p := p
			out = append(out, &p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func (r *BusinessPlanRepo) Update(_ context.Context, p *entity.BusinessPlan) error {
	if err := r.s.begin("business_plans.update", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	cur, ok := r.s.st.plans.get(p.ID)
	if !ok {
		return domain.ErrNotFound
	}
	if cur.RowVersion != p.RowVersion {
		return &domain.ConflictError{Entity: "business_plan", ID: p.ID, Expected: p.RowVersion, Actual: cur.RowVersion}
	}
	p.RowVersion++
	r.s.st.plans.put(p.ID, *p)
	return nil
}

// ChecklistRepo checklists e ítems en memoria.
type ChecklistRepo struct{ s *Store }

func (r *ChecklistRepo) Create(_ context.Context, c *entity.Checklist) error {
	if err := r.s.begin("checklists.create", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for _, existing := range r.s.st.checklists.values() {
		if existing.ID == c.ID || existing.OpportunityID == c.OpportunityID {
			return domain.ErrDuplicate
		}
	}
	head := *c
	head.Items = nil
	r.s.st.checklists.put(c.ID, head)
	for _, it := range c.Items {
		if it.RowVersion == 0 {
			it.RowVersion = 1
		}
		it.ChecklistID = c.ID
		r.s.st.items.put(it.ID, *it)
	}
	return nil
}

func (r *ChecklistRepo) itemsOf(checklistID string) []*entity.ChecklistItem {
	var out []*entity.ChecklistItem
	for _, it := range r.s.st.items.values() {
		if it.ChecklistID == checklistID {
			it := it
			out = append(out, &it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out
}

func (r *ChecklistRepo) GetByID(_ context.Context, id string) (*entity.Checklist, error) {
	if err := r.s.begin("checklists.get", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	c, ok := r.s.st.checklists.get(id)
	if !ok {
		return nil, nil
	}
	c.Items = r.itemsOf(c.ID)
	return &c, nil
}

func (r *ChecklistRepo) GetByOpportunity(_ context.Context, opportunityID string) (*entity.Checklist, error) {
	if err := r.s.begin("checklists.get", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	for _, c := range r.s.st.checklists.values() {
		if c.OpportunityID == opportunityID {
			c.Items = r.itemsOf(c.ID)
			return &c, nil
		}
	}
	return nil, nil
}

func (r *ChecklistRepo) GetItem(_ context.Context, itemID string) (*entity.ChecklistItem, error) {
	if err := r.s.begin("checklist_items.get", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	it, ok := r.s.st.items.get(itemID)
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (r *ChecklistRepo) ListItems(_ context.Context, checklistID string) ([]*entity.ChecklistItem, error) {
	if err := r.s.begin("checklist_items.list", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	return r.itemsOf(checklistID), nil
}

func (r *ChecklistRepo) UpdateItem(_ context.Context, item *entity.ChecklistItem) error {
	if err := r.s.begin("checklist_items.update", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	cur, ok := r.s.st.items.get(item.ID)
	if !ok {
		return domain.ErrNotFound
	}
	if cur.RowVersion != item.RowVersion {
		return &domain.ConflictError{Entity: "checklist_item", ID: item.ID, Expected: item.RowVersion, Actual: cur.RowVersion}
	}
	item.RowVersion++
	r.s.st.items.put(item.ID, *item)
	return nil
}

// ApprovalRepo aprobaciones en memoria.
type ApprovalRepo struct{ s *Store }

func (r *ApprovalRepo) Create(_ context.Context, a *entity.Approval) error {
	if err := r.s.begin("approvals.create", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	r.s.st.approvals.put(a.ID, *a)
	return nil
}

func (r *ApprovalRepo) ListByOpportunity(_ context.Context, opportunityID string) ([]*entity.Approval, error) {
	if err := r.s.begin("approvals.list", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.Approval
	for _, a := range r.s.st.approvals.values() {
		if a.OpportunityID == opportunityID {
			a := a
			out = append(out, &a)
		}
	}
	return out, nil
}

// AuditRepo traza de auditoría en memoria.
type AuditRepo struct{ s *Store }

func (r *AuditRepo) Create(_ context.Context, e *entity.AuditEntry) error {
	if err := r.s.begin("audit.create", true); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	r.s.st.audit.put(e.ID, *e)
	return nil
}

func (r *AuditRepo) ListByEntity(_ context.Context, entityType, entityID string) ([]*entity.AuditEntry, error) {
	if err := r.s.begin("audit.list", false); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	var out []*entity.AuditEntry
	for _, e := range r.s.st.audit.values() {
		if e.EntityType == entityType && e.EntityID == entityID {
			e := e
			out = append(out, &e)
		}
	}
	return out, nil
}
