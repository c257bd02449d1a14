package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/leadflow-api/internal/application/ports"
	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

// LockStatus estado del lock de edición de un lead.
type LockStatus struct {
	LeadID    string        `json:"lead_id"`
	Held      bool          `json:"held"`
	Holder    string        `json:"holder,omitempty"`
	ExpiresIn time.Duration `json:"expires_in"`
	Mine      bool          `json:"mine"`
}

// LeadLocks lock de cortesía al abrir un lead para edición.
type LeadLocks struct {
	locker ports.RecordLocker
	ttl    time.Duration
}

// NewLeadLocks ttl <= 0 usa 10 minutos.
func NewLeadLocks(locker ports.RecordLocker, ttl time.Duration) *LeadLocks {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &LeadLocks{locker: locker, ttl: ttl}
}

func lockKey(leadID string) string { return "lead:" + leadID }

// Acquire toma o renueva el lock. Si otro usuario lo tiene devuelve un ConflictError
// junto con el estado actual.
func (l *LeadLocks) Acquire(ctx context.Context, actor entity.Actor, leadID string) (LockStatus, error) {
	ok, holder, err := l.locker.Acquire(ctx, lockKey(leadID), actor.UserID, l.ttl)
	if err != nil {
		return LockStatus{}, fmt.Errorf("acquire lead lock: %w", err)
	}
	if !ok {
		st, err := l.Status(ctx, actor, leadID)
		if err != nil {
			return LockStatus{}, err
		}
		if st.Holder == "" {
			st.Holder = holder
		}
		return st, &domain.ConflictError{Entity: "lead_lock", ID: leadID}
	}
	return LockStatus{LeadID: leadID, Held: true, Holder: actor.UserID, ExpiresIn: l.ttl, Mine: true}, nil
}

// Release libera el lock si actor es el titular.
func (l *LeadLocks) Release(ctx context.Context, actor entity.Actor, leadID string) (bool, error) {
	ok, err := l.locker.Release(ctx, lockKey(leadID), actor.UserID)
	if err != nil {
		return false, fmt.Errorf("release lead lock: %w", err)
	}
	return ok, nil
}

// Status titular actual del lock.
func (l *LeadLocks) Status(ctx context.Context, actor entity.Actor, leadID string) (LockStatus, error) {
	holder, ttl, err := l.locker.Holder(ctx, lockKey(leadID))
	if err != nil {
		return LockStatus{}, fmt.Errorf("lead lock holder: %w", err)
	}
	return LockStatus{
		LeadID:    leadID,
		Held:      holder != "",
		Holder:    holder,
		ExpiresIn: ttl,
		Mine:      holder != "" && holder == actor.UserID,
	}, nil
}
