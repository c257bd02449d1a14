package automation

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler corre el barrido al iniciar y luego cada interval.
type Scheduler struct {
	sweeper  *Sweeper
	interval time.Duration
	log      zerolog.Logger
}

// NewScheduler interval <= 0 usa 6 horas.
func NewScheduler(s *Sweeper, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Scheduler{sweeper: s, interval: interval, log: log.With().Str("component", "scheduler").Logger()}
}

// Start bloquea hasta que ctx se cancele.
func (s *Scheduler) Start(ctx context.Context) error {
	s.log.Info().Dur("interval", s.interval).Msg("scheduler de automatización iniciado")
	s.tick(ctx)
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler de automatización detenido")
			return nil
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.sweeper.Run(ctx); err != nil && ctx.Err() == nil {
		s.log.Error().Err(err).Msg("barrido fallido")
	}
}
