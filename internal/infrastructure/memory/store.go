// Package memory implementa los repositorios en memoria. Sirve como driver de
// desarrollo (STORAGE_DRIVER=memory) y como doble de pruebas: cuenta escrituras
// y permite inyectar fallos por operación.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/leadflow-api/internal/application/ports"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

var _ ports.TxRunner = (*Store)(nil)

// table filas por ID recordando el orden de inserción.
type table[T any] struct {
	rows  map[string]T
	order map[string]int
	next  int
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: map[string]T{}, order: map[string]int{}}
}

func (t *table[T]) put(id string, v T) {
	if _, ok := t.rows[id]; !ok {
		t.next++
		t.order[id] = t.next
	}
	t.rows[id] = v
}

func (t *table[T]) get(id string) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) del(id string) {
	delete(t.rows, id)
	delete(t.order, id)
}

// values en orden de inserción.
func (t *table[T]) values() []T {
	out := make([]T, len(t.rows))
	ids := make([]string, len(t.rows))
	i := 0
	for id := range t.rows {
		ids[i] = id
		i++
	}
	sortByOrder(ids, t.order)
	for i, id := range ids {
		out[i] = t.rows[id]
	}
	return out
}

func (t *table[T]) clone() *table[T] {
	c := &table[T]{rows: make(map[string]T, len(t.rows)), order: make(map[string]int, len(t.order)), next: t.next}
	for k, v := range t.rows {
		c.rows[k] = v
	}
	for k, v := range t.order {
		c.order[k] = v
	}
	return c
}

type state struct {
	leads         *table[entity.Lead]
	opportunities *table[entity.Opportunity]
	ndas          *table[entity.Nda]
	plans         *table[entity.BusinessPlan]
	checklists    *table[entity.Checklist]
	items         *table[entity.ChecklistItem]
	tasks         *table[entity.Task]
	notifications *table[entity.Notification]
	meetings      *table[entity.Meeting]
	comments      *table[entity.Comment]
	documents     *table[entity.Document]
	approvals     *table[entity.Approval]
	audit         *table[entity.AuditEntry]
	messages      *table[entity.InboundMessage]
	users         *table[entity.User]
}

func newState() *state {
	return &state{
		leads:         newTable[entity.Lead](),
		opportunities: newTable[entity.Opportunity](),
		ndas:          newTable[entity.Nda](),
		plans:         newTable[entity.BusinessPlan](),
		checklists:    newTable[entity.Checklist](),
		items:         newTable[entity.ChecklistItem](),
		tasks:         newTable[entity.Task](),
		notifications: newTable[entity.Notification](),
		meetings:      newTable[entity.Meeting](),
		comments:      newTable[entity.Comment](),
		documents:     newTable[entity.Document](),
		approvals:     newTable[entity.Approval](),
		audit:         newTable[entity.AuditEntry](),
		messages:      newTable[entity.InboundMessage](),
		users:         newTable[entity.User](),
	}
}

func (s *state) clone() *state {
	return &state{
		leads:         s.leads.clone(),
		opportunities: s.opportunities.clone(),
		ndas:          s.ndas.clone(),
		plans:         s.plans.clone(),
		checklists:    s.checklists.clone(),
		items:         s.items.clone(),
		tasks:         s.tasks.clone(),
		notifications: s.notifications.clone(),
		meetings:      s.meetings.clone(),
		comments:      s.comments.clone(),
		documents:     s.documents.clone(),
		approvals:     s.approvals.clone(),
		audit:         s.audit.clone(),
		messages:      s.messages.clone(),
		users:         s.users.clone(),
	}
}

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	txMu sync.Mutex // serializa transacciones
	mu   sync.Mutex
	st   *state

	writes   int
	failures map[string][]error
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{st: newState(), failures: map[string][]error{}}
}

// Repositories devuelve los repositorios sobre este store.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Leads:         &LeadRepo{s: s},
		Opportunities: &OpportunityRepo{s: s},
		Ndas:          &NdaRepo{s: s},
		BusinessPlans: &BusinessPlanRepo{s: s},
		Checklists:    &ChecklistRepo{s: s},
		Tasks:         &TaskRepo{s: s},
		Notifications: &NotificationRepo{s: s},
		Meetings:      &MeetingRepo{s: s},
		Comments:      &CommentRepo{s: s},
		Documents:     &DocumentRepo{s: s},
		Approvals:     &ApprovalRepo{s: s},
		Audit:         &AuditRepo{s: s},
		Messages:      &MessageRepo{s: s},
		Users:         &UserRepo{s: s},
	}
}

// Run ejecuta fn de forma serializada; si fn falla se restaura el estado previo.
// Las lecturas fuera de Run pueden observar escrituras aún no confirmadas.
func (s *Store) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	snapshot := s.st.clone()
	writes := s.writes
	s.mu.Unlock()

	if err := fn(s.Repositories()); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.writes = writes
		s.mu.Unlock()
		return err
	}
	return nil
}

// Writes cantidad de escrituras intentadas (create, update, delete, upsert, mark read).
// Las escrituras de una transacción revertida no cuentan.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// ResetWrites pone el contador en cero.
func (s *Store) ResetWrites() {
	s.mu.Lock()
	s.writes = 0
	s.mu.Unlock()
}

// FailNext hace que la próxima llamada a op (p. ej. "opportunities.update") devuelva err.
// Varias llamadas encolan varios fallos.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	s.failures[op] = append(s.failures[op], err)
	s.mu.Unlock()
}

// SeedUser inserta un usuario (los usuarios no tienen puerto de escritura).
func (s *Store) SeedUser(u *entity.User) {
	s.mu.Lock()
	s.st.users.put(u.ID, *u)
	s.mu.Unlock()
}

// begin toma el mutex, consume un fallo inyectado y cuenta la escritura.
// El llamador debe invocar s.mu.Unlock() si no hay error.
func (s *Store) begin(op string, write bool) error {
	s.mu.Lock()
	if q := s.failures[op]; len(q) > 0 {
		err := q[0]
		s.failures[op] = q[1:]
		if write {
			s.writes++
		}
		s.mu.Unlock()
		return err
	}
	if write {
		s.writes++
	}
	return nil
}
