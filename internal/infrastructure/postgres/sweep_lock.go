package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/leadflow-api/internal/application/ports"
)

var _ ports.SweepLocker = (*SweepLock)(nil)

// SweepLock exclusión del barrido entre procesos con un advisory lock de sesión.
// La conexión queda retenida hasta liberar el lock.
type SweepLock struct {
	pool *pgxpool.Pool
}

func NewSweepLock(pool *pgxpool.Pool) *SweepLock {
	return &SweepLock{pool: pool}
}

// TryLock no bloquea: ok=false si otro proceso tiene el lock.
func (l *SweepLock) TryLock(ctx context.Context, name string) (func(), bool, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire conn: %w", err)
	}
	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtextextended($1, 0))`, name).Scan(&ok); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return func() {}, false, nil
	}
	var once sync.Once
	release := func() {
		once.Do(func() {
			_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock(hashtextextended($1, 0))`, name)
			conn.Release()
		})
	}
	return release, true, nil
}
