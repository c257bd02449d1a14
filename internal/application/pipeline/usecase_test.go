package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apppipeline "github.com/jhoicas/leadflow-api/internal/application/pipeline"
	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/pipeline"
	"github.com/jhoicas/leadflow-api/internal/infrastructure/memory"
)

var actor = entity.Actor{UserID: "u-1", Role: entity.RoleInvestorServices}

func seedLead(t *testing.T, store *memory.Store, name string, status entity.LeadStatus, p entity.Priority) *entity.Lead {
	t.Helper()
	now := time.Now()
	l := &entity.Lead{
		ID: name, Name: name, InquiryType: entity.InquiryIndividual, Priority: p, Source: entity.SourceWebsite,
		Status: status, RowVersion: 1, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.Repositories().Leads.Create(context.Background(), l))
	return l
}

func seedOpportunity(t *testing.T, store *memory.Store, leadID string, status entity.OpportunityStatus) *entity.Opportunity {
	t.Helper()
	o := &entity.Opportunity{
		ID: "opp-" + leadID, LeadID: leadID, Status: status,
		NdaStatus: entity.NdaNotIssued, BusinessPlanStatus: entity.PlanNotRequested, RowVersion: 1,
	}
	require.NoError(t, store.Repositories().Opportunities.Create(context.Background(), o))
	return o
}

func seedCompanyLead(t *testing.T, store *memory.Store, name string, status entity.LeadStatus, p entity.Priority) *entity.Lead {
	t.Helper()
	l := seedLead(t, store, name, status, p)
	l.InquiryType = entity.InquiryCompany
	require.NoError(t, store.Repositories().Leads.Update(context.Background(), l))
	got, err := store.Repositories().Leads.GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	return got
}

func newUseCase(store *memory.Store) *apppipeline.UseCase {
	return apppipeline.NewUseCase(store, store.Repositories(), zerolog.Nop(), nil)
}

func count[T any](buckets []pipeline.Bucket[T]) int {
	n := 0
	for _, b := range buckets {
		n += len(b.Items)
	}
	return n
}

// ──────────────────────────────────────────────────────────────────────────────
// Tablero
// ──────────────────────────────────────────────────────────────────────────────

func TestLeadBoard_OmiteCerradosSalvoIncludeClosed(t *testing.T) {
	store := memory.NewStore()
	seedLead(t, store, "abierto", entity.LeadActive, entity.PriorityLow)
	seedLead(t, store, "archivado", entity.LeadArchived, entity.PriorityLow)
	seedLead(t, store, "rechazado", entity.LeadRejected, entity.PriorityHigh)
	uc := newUseCase(store)

	board, err := uc.LeadBoard(context.Background(), "", false)
	require.NoError(t, err)
	assert.Len(t, board, 4)
	assert.Equal(t, 1, count(board))

	board, err = uc.LeadBoard(context.Background(), "", true)
	require.NoError(t, err)
	assert.Equal(t, 3, count(board))
}

func TestOpportunityBoard_Busqueda(t *testing.T) {
	store := memory.NewStore()
	seedLead(t, store, "Hacienda Ñandú", entity.LeadActive, entity.PriorityLow)
	seedLead(t, store, "Otro", entity.LeadActive, entity.PriorityLow)
	seedOpportunity(t, store, "Hacienda Ñandú", entity.OpportunityAssessmentInProgress)
	seedOpportunity(t, store, "Otro", entity.OpportunityRejected)

	board, err := newUseCase(store).OpportunityBoard(context.Background(), "nandu")
	require.NoError(t, err)
	require.Len(t, board, 5)
	assert.Equal(t, 1, count(board))
	require.Len(t, board[0].Items, 1)
	assert.Equal(t, "Hacienda Ñandú", board[0].Items[0].LeadName)
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos
// ──────────────────────────────────────────────────────────────────────────────

func TestMoveItem_LeadAContactado(t *testing.T) {
	store := memory.NewStore()
	l := seedLead(t, store, "mover", entity.LeadActive, entity.PriorityMedium)
	uc := newUseCase(store)

	changed, err := uc.MoveItem(context.Background(), actor, pipeline.TypeLead, l.ID, pipeline.StageContacted, 1)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := store.Repositories().Leads.GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LeadWaitingForDetails, got.Status)
	assert.Equal(t, 2, got.RowVersion)
}

func TestMoveItem_MismaEtapaNoEscribe(t *testing.T) {
	store := memory.NewStore()
	l := seedLead(t, store, "quieto", entity.LeadActive, entity.PriorityLow)
	store.ResetWrites()

	changed, err := newUseCase(store).MoveItem(context.Background(), actor, pipeline.TypeLead, l.ID, pipeline.StageNew, 0)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 0, store.Writes())
}

func TestMoveItem_NoApruebaLeads(t *testing.T) {
	store := memory.NewStore()
	l := seedLead(t, store, "pendiente", entity.LeadWaitingForApproval, entity.PriorityLow)

	_, err := newUseCase(store).MoveItem(context.Background(), actor, pipeline.TypeLead, l.ID, pipeline.StageNew, 0)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, domain.CodeApprovalGate, ve.Code)
}

func TestMoveItem_OportunidadNoSaltaAprobacionFinal(t *testing.T) {
	store := memory.NewStore()
	seedLead(t, store, "l", entity.LeadActive, entity.PriorityLow)
	o := seedOpportunity(t, store, "l", entity.OpportunityWaitingForApproval)
	uc := newUseCase(store)

	_, err := uc.MoveItem(context.Background(), actor, pipeline.TypeOpportunity, o.ID, string(entity.OpportunityApproved), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	changed, err := uc.MoveItem(context.Background(), actor, pipeline.TypeOpportunity, o.ID, string(entity.OpportunityRejected), 0)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestMoveItem_VersionObsoleta(t *testing.T) {
	store := memory.NewStore()
	l := seedLead(t, store, "v", entity.LeadActive, entity.PriorityLow)

	_, err := newUseCase(store).MoveItem(context.Background(), actor, pipeline.TypeLead, l.ID, pipeline.StageQualified, 5)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestMoveItem_CoreInvestorSinDatosNoQuedaActivo(t *testing.T) {
	cases := []struct {
		name     string
		status   entity.LeadStatus
		priority entity.Priority
		stage    string
	}{
		{"esperando detalles a meeting", entity.LeadWaitingForDetails, entity.PriorityHigh, pipeline.StageMeeting},
		{"activo medio a qualified", entity.LeadActive, entity.PriorityMedium, pipeline.StageQualified},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := memory.NewStore()
			l := seedCompanyLead(t, store, "Acme Farms", tc.status, tc.priority)
			store.ResetWrites()

			changed, err := newUseCase(store).MoveItem(context.Background(), actor, pipeline.TypeLead, l.ID, tc.stage, 0)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, domain.CodeCoreInvestorChoice, ve.Code)
			assert.False(t, changed)
			assert.Equal(t, 0, store.Writes())

			got, err := store.Repositories().Leads.GetByID(context.Background(), l.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.status, got.Status)
			assert.Equal(t, tc.priority, got.Priority)
		})
	}
}

func TestMoveItem_CoreInvestorAprobadoSinDatosSePuedeMover(t *testing.T) {
	store := memory.NewStore()
	l := seedCompanyLead(t, store, "Acme Farms", entity.LeadActive, entity.PriorityHigh)

	changed, err := newUseCase(store).MoveItem(context.Background(), actor, pipeline.TypeLead, l.ID, pipeline.StageContacted, 0)
	require.NoError(t, err)
	assert.True(t, changed)
}
