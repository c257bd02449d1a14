package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/leadflow-api/internal/application/ports"
)

var _ ports.SweepLocker = (*SweepLock)(nil)

// SweepLock exclusión del barrido dentro del proceso.
type SweepLock struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewSweepLock crea el lock en memoria.
func NewSweepLock() *SweepLock {
	return &SweepLock{held: map[string]bool{}}
}

func (l *SweepLock) TryLock(_ context.Context, name string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] {
		return func() {}, false, nil
	}
	l.held[name] = true
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, name)
			l.mu.Unlock()
		})
	}, true, nil
}
