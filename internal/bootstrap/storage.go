// Package bootstrap arma el Entity Store y sus adaptadores según la configuración.
// Lo comparten cmd/api y cmd/sweep.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/leadflow-api/internal/application/automation"
	"github.com/jhoicas/leadflow-api/internal/application/ports"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
	"github.com/jhoicas/leadflow-api/internal/infrastructure/memory"
	"github.com/jhoicas/leadflow-api/internal/infrastructure/postgres"
	"github.com/jhoicas/leadflow-api/pkg/config"
)

// Storage repositorios, transacciones y lock del barrido para el driver elegido.
type Storage struct {
	Tx        ports.TxRunner
	Repos     repository.Repositories
	SweepLock ports.SweepLocker
	Close     func()
}

// OpenStorage abre PostgreSQL (aplicando migraciones si corresponde) o el store en memoria.
func OpenStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Storage, error) {
	if cfg.Storage.Driver == "memory" {
		log.Warn().Msg("STORAGE_DRIVER=memory: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return &Storage{
			Tx:        store,
			Repos:     store.Repositories(),
			SweepLock: memory.NewSweepLock(),
			Close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB, postgres.PoolOptions{})
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	if cfg.Storage.Migrate {
		if err := postgres.ApplyMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migraciones: %w", err)
		}
		log.Info().Msg("migraciones aplicadas")
	}
	return &Storage{
		Tx:        postgres.NewTxRunner(pool),
		Repos:     postgres.NewRepositories(pool),
		SweepLock: postgres.NewSweepLock(pool),
		Close:     pool.Close,
	}, nil
}

// NewSweeper barrido de automatización sobre el storage abierto.
func NewSweeper(st *Storage, c config.AutomationConfig, log zerolog.Logger) *automation.Sweeper {
	return automation.NewSweeper(st.Tx, st.Repos, st.SweepLock, automation.Config{
		FollowUpDays:       c.FollowUpDays,
		InactiveDays:       c.InactiveDays,
		ArchiveDays:        c.ArchiveDays,
		NotifyCooldownDays: c.NotifyCooldownDays,
	}, log, nil)
}
