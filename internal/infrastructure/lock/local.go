package lock

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/leadflow-api/internal/application/ports"
)

var _ ports.RecordLocker = (*LocalLocker)(nil)

type entry struct {
	owner   string
	expires time.Time
}

// LocalLocker locks en memoria para una sola instancia.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]entry
	now   func() time.Time
}

// NewLocalLocker now nil usa time.Now.
func NewLocalLocker(now func() time.Time) *LocalLocker {
	if now == nil {
		now = time.Now
	}
	return &LocalLocker{locks: map[string]entry{}, now: now}
}

// current devuelve el lock vigente; los vencidos se descartan.
func (l *LocalLocker) current(key string) (entry, bool) {
	e, ok := l.locks[key]
	if ok && !l.now().Before(e.expires) {
		delete(l.locks, key)
		return entry{}, false
	}
	return e, ok
}

func (l *LocalLocker) Acquire(_ context.Context, key, owner string, ttl time.Duration) (bool, string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.current(key); ok && e.owner != owner {
		return false, e.owner, nil
	}
	l.locks[key] = entry{owner: owner, expires: l.now().Add(ttl)}
	return true, owner, nil
}

func (l *LocalLocker) Release(_ context.Context, key, owner string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.current(key)
	if !ok || e.owner != owner {
		return false, nil
	}
	delete(l.locks, key)
	return true, nil
}

func (l *LocalLocker) Holder(_ context.Context, key string) (string, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.current(key)
	if !ok {
		return "", 0, nil
	}
	return e.owner, e.expires.Sub(l.now()), nil
}
