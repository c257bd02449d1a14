// Package automation implementa el barrido periódico sobre leads: tareas de
// seguimiento para leads high, avisos de inactividad y archivado automático.
//
// Cada fase revisa el efecto existente antes de crearlo, así que repetir el
// barrido no duplica tareas ni notificaciones. Un fallo en un lead se registra
// y se salta.
package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/leadflow-api/internal/application/ports"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

const lockName = "automation_sweep"

const day = 24 * time.Hour

// Config umbrales del barrido, en días.
type Config struct {
	FollowUpDays       int
	InactiveDays       int
	ArchiveDays        int
	NotifyCooldownDays int
}

// DefaultConfig 3 / 30 / 90 / 7.
func DefaultConfig() Config {
	return Config{FollowUpDays: 3, InactiveDays: 30, ArchiveDays: 90, NotifyCooldownDays: 7}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FollowUpDays <= 0 {
		c.FollowUpDays = d.FollowUpDays
	}
	if c.InactiveDays <= 0 {
		c.InactiveDays = d.InactiveDays
	}
	if c.ArchiveDays <= 0 {
		c.ArchiveDays = d.ArchiveDays
	}
	if c.NotifyCooldownDays <= 0 {
		c.NotifyCooldownDays = d.NotifyCooldownDays
	}
	return c
}

// Result conteos de una corrida. Skipped indica que otra corrida tenía el lock.
type Result struct {
	TasksCreated         int  `json:"tasks_created"`
	NotificationsCreated int  `json:"notifications_created"`
	LeadsArchived        int  `json:"leads_archived"`
	Failures             int  `json:"failures"`
	Skipped              bool `json:"skipped"`
}

// Sweeper ejecuta el barrido.
type Sweeper struct {
	tx     ports.TxRunner
	repos  repository.Repositories
	locker ports.SweepLocker
	cfg    Config
	log    zerolog.Logger
	now    func() time.Time
}

// NewSweeper construye el barrido. locker nil desactiva la exclusión entre corridas.
func NewSweeper(tx ports.TxRunner, repos repository.Repositories, locker ports.SweepLocker,
	cfg Config, log zerolog.Logger, now func() time.Time) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{
		tx:     tx,
		repos:  repos,
		locker: locker,
		cfg:    cfg.withDefaults(),
		log:    log.With().Str("component", "automation").Logger(),
		now:    now,
	}
}

// Run ejecuta las tres fases en orden. Solo devuelve error si no se pudo
// consultar el lock o si ctx se canceló.
func (s *Sweeper) Run(ctx context.Context) (Result, error) {
	var res Result
	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, lockName)
		if err != nil {
			return res, fmt.Errorf("sweep lock: %w", err)
		}
		defer release()
		if !ok {
			s.log.Info().Msg("barrido en curso en otra instancia, se omite")
			res.Skipped = true
			return res, nil
		}
	}

	now := s.now()
	s.followUps(ctx, now, &res)
	s.inactivity(ctx, now, &res)
	s.archive(ctx, now, &res)

	s.log.Info().
		Int("tasks_created", res.TasksCreated).
		Int("notifications_created", res.NotificationsCreated).
		Int("leads_archived", res.LeadsArchived).
		Int("failures", res.Failures).
		Msg("barrido completado")
	return res, ctx.Err()
}

func (s *Sweeper) fail(res *Result, err error, phase, leadID string) {
	res.Failures++
	s.log.Warn().Err(err).Str("phase", phase).Str("lead_id", leadID).Msg("lead omitido en el barrido")
}

// followUps crea una tarea pendiente por cada lead high activo que no tenga una.
func (s *Sweeper) followUps(ctx context.Context, now time.Time, res *Result) {
	leads, err := s.repos.Leads.List(ctx, repository.LeadFilter{
		Statuses: []entity.LeadStatus{entity.LeadActive},
		Priority: entity.PriorityHigh,
	})
	if err != nil {
		s.fail(res, err, "follow_up", "")
		return
	}
	created := 0
	for _, l := range leads {
		if ctx.Err() != nil {
			return
		}
		if l.OwnerID == "" {
			s.log.Debug().Str("lead_id", l.ID).Msg("lead sin responsable, sin tarea de seguimiento")
			continue
		}
		pending, err := s.repos.Tasks.List(ctx, repository.TaskFilter{
			RelatedEntityID:   l.ID,
			RelatedEntityType: entity.RelatedLead,
			Status:            entity.TaskPending,
			Limit:             1,
		})
		if err != nil {
			s.fail(res, err, "follow_up", l.ID)
			continue
		}
		if len(pending) > 0 {
			continue
		}
		due := now.Add(time.Duration(s.cfg.FollowUpDays) * day)
		t := &entity.Task{
			ID:                uuid.NewString(),
			Title:             "Seguimiento: " + l.Name,
			Description:       "Lead de prioridad alta pendiente de seguimiento",
			AssignedTo:        l.OwnerID,
			AssignedBy:        l.OwnerID,
			Status:            entity.TaskPending,
			Priority:          entity.PriorityHigh,
			DueDate:           &due,
			RelatedEntityID:   l.ID,
			RelatedEntityType: entity.RelatedLead,
			RowVersion:        1,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.repos.Tasks.Create(ctx, t); err != nil {
			s.fail(res, err, "follow_up", l.ID)
			continue
		}
		created++
	}
	res.TasksCreated += created
	s.log.Info().Int("candidates", len(leads)).Int("created", created).Msg("fase de seguimiento")
}

// inactivity avisa al responsable de leads activos sin cambios entre
// InactiveDays y ArchiveDays, como máximo una vez por NotifyCooldownDays.
func (s *Sweeper) inactivity(ctx context.Context, now time.Time, res *Result) {
	before := now.Add(-time.Duration(s.cfg.InactiveDays) * day)
	after := now.Add(-time.Duration(s.cfg.ArchiveDays) * day)
	leads, err := s.repos.Leads.List(ctx, repository.LeadFilter{
		Statuses:      []entity.LeadStatus{entity.LeadActive},
		UpdatedBefore: &before,
		UpdatedAfter:  &after,
	})
	if err != nil {
		s.fail(res, err, "inactivity", "")
		return
	}
	cooldown := now.Add(-time.Duration(s.cfg.NotifyCooldownDays) * day)
	created := 0
	for _, l := range leads {
		if ctx.Err() != nil {
			return
		}
		if l.OwnerID == "" {
			continue
		}
		recent, err := s.repos.Notifications.List(ctx, repository.NotificationFilter{
			Type:              entity.NotifyLeadInactive,
			RelatedEntityID:   l.ID,
			RelatedEntityType: entity.RelatedLead,
			CreatedAfter:      &cooldown,
			Limit:             1,
		})
		if err != nil {
			s.fail(res, err, "inactivity", l.ID)
			continue
		}
		if len(recent) > 0 {
			continue
		}
		days := int(now.Sub(l.UpdatedAt) / day)
		n := &entity.Notification{
			ID:                uuid.NewString(),
			UserID:            l.OwnerID,
			Title:             "Lead inactivo",
			Content:           fmt.Sprintf("El lead %s lleva %d días sin actividad", l.Name, days),
			Type:              entity.NotifyLeadInactive,
			RelatedEntityID:   l.ID,
			RelatedEntityType: entity.RelatedLead,
			CreatedAt:         now,
		}
		if err := s.repos.Notifications.Create(ctx, n); err != nil {
			s.fail(res, err, "inactivity", l.ID)
			continue
		}
		created++
	}
	res.NotificationsCreated += created
	s.log.Info().Int("candidates", len(leads)).Int("created", created).Msg("fase de inactividad")
}

var errNoLongerEligible = errors.New("lead ya no es candidato")

// archive archiva cada lead activo sin cambios desde ArchiveDays. El cambio de
// estado, la auditoría y la notificación van en una transacción por lead.
func (s *Sweeper) archive(ctx context.Context, now time.Time, res *Result) {
	cutoff := now.Add(-time.Duration(s.cfg.ArchiveDays) * day)
	leads, err := s.repos.Leads.List(ctx, repository.LeadFilter{
		Statuses:      []entity.LeadStatus{entity.LeadActive},
		UpdatedBefore: &cutoff,
	})
	if err != nil {
		s.fail(res, err, "archive", "")
		return
	}
	archived := 0
	for _, candidate := range leads {
		if ctx.Err() != nil {
			return
		}
		notified := false
		err := s.tx.Run(ctx, func(r repository.Repositories) error {
			l, err := r.Leads.GetByID(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if l == nil || l.Status != entity.LeadActive || !l.UpdatedAt.Before(cutoff) {
				return errNoLongerEligible
			}
			if err := lifecycle.CheckLead(l.Status, entity.LeadArchived); err != nil {
				return err
			}
			days := int(now.Sub(l.UpdatedAt) / day)
			l.Status = entity.LeadArchived
			l.UpdatedAt = now
			if err := r.Leads.Update(ctx, l); err != nil {
				return err
			}
			if err := r.Audit.Create(ctx, &entity.AuditEntry{
				ID:         uuid.NewString(),
				EntityType: entity.RelatedLead,
				EntityID:   l.ID,
				Action:     "sweep_archive",
				FromStatus: string(entity.LeadActive),
				ToStatus:   string(entity.LeadArchived),
				ActorID:    entity.System.UserID,
				Comments:   fmt.Sprintf("%d días sin actividad", days),
				CreatedAt:  now,
			}); err != nil {
				return err
			}
			if l.OwnerID == "" {
				return nil
			}
			if err := r.Notifications.Create(ctx, &entity.Notification{
				ID:                uuid.NewString(),
				UserID:            l.OwnerID,
				Title:             "Lead archivado",
				Content:           fmt.Sprintf("El lead %s se archivó tras %d días sin actividad", l.Name, days),
				Type:              entity.NotifyLeadArchived,
				RelatedEntityID:   l.ID,
				RelatedEntityType: entity.RelatedLead,
				CreatedAt:         now,
			}); err != nil {
				return err
			}
			notified = true
			return nil
		})
		switch {
		case errors.Is(err, errNoLongerEligible):
			continue
		case err != nil:
			s.fail(res, err, "archive", candidate.ID)
			continue
		}
		archived++
		if notified {
			res.NotificationsCreated++
		}
	}
	res.LeadsArchived += archived
	s.log.Info().Int("candidates", len(leads)).Int("archived", archived).Msg("fase de archivado")
}
