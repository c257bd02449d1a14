package activity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/leadflow-api/internal/application/activity"
	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
	"github.com/jhoicas/leadflow-api/internal/infrastructure/lock"
	"github.com/jhoicas/leadflow-api/internal/infrastructure/memory"
)

var (
	now   = time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)
	ana   = entity.Actor{UserID: "ana", Role: entity.RoleInvestorServices}
	beto  = entity.Actor{UserID: "beto", Role: entity.RoleLegalServices}
	clock = func() time.Time { return now }
)

func newUseCase() (*activity.UseCase, *memory.Store) {
	store := memory.NewStore()
	return activity.NewUseCase(store, store.Repositories(), zerolog.Nop(), clock), store
}

// ──────────────────────────────────────────────────────────────────────────────
// Tareas
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateTask_AsignadaAOtroNotifica(t *testing.T) {
	uc, _ := newUseCase()
	ctx := context.Background()

	task, err := uc.CreateTask(ctx, ana, activity.CreateTaskInput{
		Title: "Llamar a Acme", AssignedTo: "beto", RelatedEntityID: "lead-1", RelatedEntityType: entity.RelatedLead,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TaskPending, task.Status)
	assert.Equal(t, entity.PriorityMedium, task.Priority)
	assert.Equal(t, "ana", task.AssignedBy)

	list, err := uc.ListNotifications(ctx, "beto", true, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.NotifyTaskAssigned, list[0].Type)
	assert.Equal(t, task.ID, list[0].RelatedEntityID)
}

func TestCreateTask_PropiaNoNotifica(t *testing.T) {
	uc, _ := newUseCase()
	ctx := context.Background()
	_, err := uc.CreateTask(ctx, ana, activity.CreateTaskInput{Title: "Revisar"})
	require.NoError(t, err)

	list, err := uc.ListNotifications(ctx, "ana", false, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateTask_FalloNotificacionRevierte(t *testing.T) {
	uc, store := newUseCase()
	ctx := context.Background()
	store.FailNext("notifications.create", errors.New("caído"))

	_, err := uc.CreateTask(ctx, ana, activity.CreateTaskInput{Title: "X", AssignedTo: "beto"})
	assert.ErrorIs(t, err, domain.ErrStorage)
	tasks, err := uc.ListTasks(ctx, repository.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestCreateTask_Validaciones(t *testing.T) {
	uc, _ := newUseCase()
	ctx := context.Background()
	_, err := uc.CreateTask(ctx, ana, activity.CreateTaskInput{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.CreateTask(ctx, ana, activity.CreateTaskInput{Title: "X", RelatedEntityType: "factura", RelatedEntityID: "1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.CreateTask(ctx, ana, activity.CreateTaskInput{Title: "X", Priority: "urgente"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateTaskStatus(t *testing.T) {
	uc, _ := newUseCase()
	ctx := context.Background()
	task, err := uc.CreateTask(ctx, ana, activity.CreateTaskInput{Title: "Enviar NDA"})
	require.NoError(t, err)

	task, err = uc.UpdateTaskStatus(ctx, ana, task.ID, entity.TaskInProgress, task.RowVersion)
	require.NoError(t, err)
	task, err = uc.UpdateTaskStatus(ctx, ana, task.ID, entity.TaskCompleted, task.RowVersion)
	require.NoError(t, err)
	assert.Equal(t, entity.TaskCompleted, task.Status)

	_, err = uc.UpdateTaskStatus(ctx, ana, task.ID, entity.TaskPending, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = uc.UpdateTaskStatus(ctx, ana, task.ID, entity.TaskCanceled, 1)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// ──────────────────────────────────────────────────────────────────────────────
// Notificaciones, reuniones y comentarios
// ──────────────────────────────────────────────────────────────────────────────

func TestMarkNotificationRead_SoloLaPropia(t *testing.T) {
	uc, _ := newUseCase()
	ctx := context.Background()
	_, err := uc.CreateTask(ctx, ana, activity.CreateTaskInput{Title: "X", AssignedTo: "beto"})
	require.NoError(t, err)
	list, _ := uc.ListNotifications(ctx, "beto", true, 0)
	require.Len(t, list, 1)

	assert.ErrorIs(t, uc.MarkNotificationRead(ctx, ana, list[0].ID), domain.ErrForbidden)
	require.NoError(t, uc.MarkNotificationRead(ctx, beto, list[0].ID))
	require.NoError(t, uc.MarkNotificationRead(ctx, beto, list[0].ID))

	unread, _ := uc.ListNotifications(ctx, "beto", true, 0)
	assert.Empty(t, unread)
	assert.ErrorIs(t, uc.MarkNotificationRead(ctx, beto, "nope"), domain.ErrNotFound)
}

func TestMeetingsYComentarios(t *testing.T) {
	uc, _ := newUseCase()
	ctx := context.Background()

	_, err := uc.ScheduleMeeting(ctx, ana, activity.ScheduleMeetingInput{
		Title: "Visita", StartsAt: now, EndsAt: now.Add(-time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	late, err := uc.ScheduleMeeting(ctx, ana, activity.ScheduleMeetingInput{
		Title: "Cierre", StartsAt: now.Add(48 * time.Hour), RelatedEntityID: "opp-1", RelatedEntityType: entity.RelatedOpportunity,
	})
	require.NoError(t, err)
	early, err := uc.ScheduleMeeting(ctx, ana, activity.ScheduleMeetingInput{
		Title: "Kickoff", StartsAt: now.Add(time.Hour), EndsAt: now.Add(2 * time.Hour),
		RelatedEntityID: "opp-1", RelatedEntityType: entity.RelatedOpportunity,
	})
	require.NoError(t, err)

	meetings, err := uc.ListMeetings(ctx, entity.RelatedOpportunity, "opp-1")
	require.NoError(t, err)
	require.Len(t, meetings, 2)
	assert.Equal(t, early.ID, meetings[0].ID)
	assert.Equal(t, late.ID, meetings[1].ID)

	_, err = uc.AddComment(ctx, ana, entity.RelatedLead, "lead-1", "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.AddComment(ctx, ana, entity.RelatedLead, "lead-1", "primero")
	require.NoError(t, err)
	_, err = uc.AddComment(ctx, beto, entity.RelatedLead, "lead-1", "segundo")
	require.NoError(t, err)
	comments, err := uc.ListComments(ctx, entity.RelatedLead, "lead-1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "primero", comments[0].Body)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lock de edición
// ──────────────────────────────────────────────────────────────────────────────

func TestLeadLocks(t *testing.T) {
	ctx := context.Background()
	locks := activity.NewLeadLocks(lock.NewLocalLocker(clock), 0)

	st, err := locks.Acquire(ctx, ana, "lead-1")
	require.NoError(t, err)
	assert.True(t, st.Mine)
	assert.Equal(t, 10*time.Minute, st.ExpiresIn)

	st, err = locks.Acquire(ctx, beto, "lead-1")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "ana", st.Holder)
	assert.False(t, st.Mine)

	released, err := locks.Release(ctx, beto, "lead-1")
	require.NoError(t, err)
	assert.False(t, released)
	released, err = locks.Release(ctx, ana, "lead-1")
	require.NoError(t, err)
	assert.True(t, released)

	st, err = locks.Status(ctx, beto, "lead-1")
	require.NoError(t, err)
	assert.False(t, st.Held)
}
