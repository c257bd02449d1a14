// Package lifecycle orquesta las operaciones que mutan un lead u oportunidad
// junto con sus dependientes (NDA, plan de negocio, checklist, aprobaciones).
//
// Cada operación valida con las reglas de internal/domain/lifecycle antes de
// escribir y agrupa la entidad y su espejo en una sola transacción. El único
// paso que corre fuera de la transacción principal es el recálculo de la
// evaluación tras un cambio de checklist (y el PDF del NDA): si falla, la
// operación devuelve un aviso PartialApplication y el paso queda en el
// Reconciler para reintento.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/leadflow-api/internal/application/ports"
	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

// DefaultChecklistItems plantilla de due diligence cuando no se configura otra.
var DefaultChecklistItems = []string{
	"Verificación de identidad y KYC",
	"Estructura societaria y beneficiarios finales",
	"Antecedentes financieros",
	"Títulos y estado legal del predio",
	"Estudio de suelos y uso del terreno",
	"Permisos ambientales",
	"Cuota de exportación comprometida",
	"Revisión del plan de negocio",
}

// Config parámetros del orquestador.
type Config struct {
	ChecklistTemplate []string
}

// Deps dependencias del orquestador. Renderer y Documents son opcionales:
// sin ellos no se genera el PDF del NDA.
type Deps struct {
	Tx         ports.TxRunner
	Repos      repository.Repositories
	Renderer   ports.NdaRenderer
	Documents  ports.DocumentStore
	Reconciler *Reconciler
	Log        zerolog.Logger
	Now        func() time.Time
}

// Outcome resultado de operaciones con pasos secundarios.
type Outcome struct {
	Warnings []domain.PartialApplication
}

// Partial reporta si algún paso secundario quedó sin aplicar.
func (o Outcome) Partial() bool { return len(o.Warnings) > 0 }

// Service orquestador del ciclo de vida.
type Service struct {
	tx         ports.TxRunner
	repos      repository.Repositories
	renderer   ports.NdaRenderer
	docs       ports.DocumentStore
	reconciler *Reconciler
	cfg        Config
	log        zerolog.Logger
	now        func() time.Time
}

// NewService construye el orquestador.
func NewService(d Deps, cfg Config) *Service {
	if len(cfg.ChecklistTemplate) == 0 {
		cfg.ChecklistTemplate = DefaultChecklistItems
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		tx:         d.Tx,
		repos:      d.Repos,
		renderer:   d.Renderer,
		docs:       d.Documents,
		reconciler: d.Reconciler,
		cfg:        cfg,
		log:        d.Log.With().Str("component", "lifecycle").Logger(),
		now:        now,
	}
}

func newID() string { return uuid.NewString() }

// storageErr envuelve fallos del store en StorageError; los errores de dominio pasan tal cual.
func storageErr(err error, op, ent, id string, fields ...string) error {
	if err == nil {
		return nil
	}
	if domain.IsCallerRecoverable(err) || errors.Is(err, domain.ErrStorage) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &domain.StorageError{Op: op, Entity: ent, ID: id, Fields: fields, Err: err}
}

func notFound(ent, id string) error {
	return fmt.Errorf("%s %s: %w", ent, id, domain.ErrNotFound)
}

// checkVersion expected == 0 acepta la versión leída dentro de la transacción.
func checkVersion(ent, id string, expected, actual int) error {
	if expected > 0 && expected != actual {
		return &domain.ConflictError{Entity: ent, ID: id, Expected: expected, Actual: actual}
	}
	return nil
}

func (s *Service) audit(ctx context.Context, r repository.Repositories, actor entity.Actor,
	entityType, entityID, action, from, to, comments string) error {
	e := &entity.AuditEntry{
		ID:         newID(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor.UserID,
		Comments:   comments,
		CreatedAt:  s.now(),
	}
	return storageErr(r.Audit.Create(ctx, e), "create", "audit_entry", e.ID)
}

func (s *Service) loadLead(ctx context.Context, r repository.Repositories, id string) (*entity.Lead, error) {
	l, err := r.Leads.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "get", "lead", id)
	}
	if l == nil {
		return nil, notFound("lead", id)
	}
	return l, nil
}

func (s *Service) loadOpportunity(ctx context.Context, r repository.Repositories, id string) (*entity.Opportunity, error) {
	o, err := r.Opportunities.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(err, "get", "opportunity", id)
	}
	if o == nil {
		return nil, notFound("opportunity", id)
	}
	return o, nil
}

// openOpportunity carga la oportunidad y exige que no esté en estado terminal.
func (s *Service) openOpportunity(ctx context.Context, r repository.Repositories, id string) (*entity.Opportunity, error) {
	o, err := s.loadOpportunity(ctx, r, id)
	if err != nil {
		return nil, err
	}
	if o.Status.Terminal() {
		return nil, domain.NewValidationError(domain.CodeValidation, "la oportunidad %s está cerrada (%s)", id, o.Status)
	}
	return o, nil
}

func (s *Service) saveOpportunity(ctx context.Context, r repository.Repositories, o *entity.Opportunity, fields ...string) error {
	o.UpdatedAt = s.now()
	return storageErr(r.Opportunities.Update(ctx, o), "update", "opportunity", o.ID, fields...)
}
