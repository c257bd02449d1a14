package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/leadflow-api/internal/domain"
)

// Step paso secundario pendiente de aplicar. Run debe ser idempotente.
type Step struct {
	Name   string
	Entity string
	ID     string
	Run    func(ctx context.Context) error
}

func (s Step) key() string { return s.Name + ":" + s.Entity + ":" + s.ID }

// ReconcilerConfig parámetros de reintento.
type ReconcilerConfig struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
	Now         func() time.Time
}

type pendingStep struct {
	step     Step
	attempts int
	nextAt   time.Time
	lastErr  error
}

// Reconciler reintenta pasos secundarios que fallaron tras confirmar la
// operación principal. Backoff exponencial desde BaseDelay hasta MaxDelay.
// Un paso se descarta al agotar MaxAttempts o si falla con un error que el
// llamador debe corregir.
type Reconciler struct {
	cfg     ReconcilerConfig
	log     zerolog.Logger
	mu      sync.Mutex
	pending map[string]*pendingStep
}

// NewReconciler construye el reconciliador.
func NewReconciler(cfg ReconcilerConfig, log zerolog.Logger) *Reconciler {
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 5 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 8
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Reconciler{
		cfg:     cfg,
		log:     log.With().Str("component", "reconciler").Logger(),
		pending: make(map[string]*pendingStep),
	}
}

// Enqueue registra el paso; si ya estaba pendiente conserva sus intentos.
func (r *Reconciler) Enqueue(step Step, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := step.key()
	if p, ok := r.pending[k]; ok {
		p.step = step
		p.lastErr = cause
		return
	}
	r.pending[k] = &pendingStep{step: step, nextAt: r.cfg.Now().Add(r.cfg.BaseDelay), lastErr: cause}
	r.log.Debug().Str("step", k).Msg("paso encolado")
}

// Pending número de pasos en espera.
func (r *Reconciler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

func (r *Reconciler) backoff(attempts int) time.Duration {
	d := r.cfg.BaseDelay
	for i := 0; i < attempts && d < r.cfg.MaxDelay; i++ {
		d *= 2
	}
	if d > r.cfg.MaxDelay {
		d = r.cfg.MaxDelay
	}
	return d
}

// RetryDue ejecuta los pasos vencidos y devuelve cuántos se aplicaron.
func (r *Reconciler) RetryDue(ctx context.Context) int {
	now := r.cfg.Now()
	r.mu.Lock()
	var due []*pendingStep
	for _, p := range r.pending {
		if !p.nextAt.After(now) {
			due = append(due, p)
		}
	}
	r.mu.Unlock()

	applied := 0
	for _, p := range due {
		if ctx.Err() != nil {
			break
		}
		k := p.step.key()
		err := p.step.Run(ctx)

		r.mu.Lock()
		switch {
		case err == nil:
			delete(r.pending, k)
			applied++
			r.log.Info().Str("step", k).Int("attempts", p.attempts+1).Msg("paso reconciliado")
		case domain.IsCallerRecoverable(err):
			delete(r.pending, k)
			r.log.Warn().Err(err).Str("step", k).Msg("paso descartado")
		default:
			p.attempts++
			p.lastErr = err
			if p.attempts >= r.cfg.MaxAttempts {
				delete(r.pending, k)
				r.log.Error().Err(err).Str("step", k).Int("attempts", p.attempts).Msg("paso abandonado tras agotar reintentos")
			} else {
				p.nextAt = r.cfg.Now().Add(r.backoff(p.attempts))
			}
		}
		r.mu.Unlock()
	}
	return applied
}

// Start reintenta cada interval hasta que ctx se cancele.
func (r *Reconciler) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			r.RetryDue(ctx)
		}
	}
}
