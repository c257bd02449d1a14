package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/leadflow-api/internal/application/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/application/ports"
	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/infrastructure/memory"
)

var (
	investor = entity.Actor{UserID: "u-investor", Role: entity.RoleInvestorServices}
	legal    = entity.Actor{UserID: "u-legal", Role: entity.RoleLegalServices}
	senior   = entity.Actor{UserID: "u-senior", Role: entity.RoleSeniorManagement}
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeRenderer struct{ err error }

func (f *fakeRenderer) RenderNda(doc ports.NdaDocument) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 " + doc.LeadName), nil
}

type fakeDocs struct {
	mu      sync.Mutex
	uploads map[string][]byte
}

func (f *fakeDocs) Upload(_ context.Context, path string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[path] = data
	return nil
}

func (f *fakeDocs) SignedURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "https://files.local/" + path, nil
}

func (f *fakeDocs) Remove(_ context.Context, paths []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range paths {
		delete(f.uploads, p)
	}
	return nil
}

type fixture struct {
	svc   *lifecycle.Service
	store *memory.Store
	clock *clock
	rec   *lifecycle.Reconciler
	docs  *fakeDocs
}

type option func(*lifecycle.Deps, *lifecycle.Config)

func withTemplate(items ...string) option {
	return func(_ *lifecycle.Deps, c *lifecycle.Config) { c.ChecklistTemplate = items }
}

func withRenderer(r ports.NdaRenderer) option {
	return func(d *lifecycle.Deps, _ *lifecycle.Config) { d.Renderer = r }
}

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()
	store := memory.NewStore()
	clk := &clock{t: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	rec := lifecycle.NewReconciler(lifecycle.ReconcilerConfig{BaseDelay: time.Minute, MaxAttempts: 3, Now: clk.Now}, zerolog.Nop())
	docs := &fakeDocs{uploads: map[string][]byte{}}
	deps := lifecycle.Deps{
		Tx:         store,
		Repos:      store.Repositories(),
		Documents:  docs,
		Reconciler: rec,
		Log:        zerolog.Nop(),
		Now:        clk.Now,
	}
	var cfg lifecycle.Config
	for _, o := range opts {
		o(&deps, &cfg)
	}
	return &fixture{svc: lifecycle.NewService(deps, cfg), store: store, clock: clk, rec: rec, docs: docs}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (f *fixture) activeLead(t *testing.T, name string) *entity.Lead {
	t.Helper()
	l, err := f.svc.CreateLead(context.Background(), investor, lifecycle.CreateLeadInput{
		Name:        name,
		InquiryType: entity.InquiryIndividual,
		Priority:    entity.PriorityMedium,
		Source:      entity.SourceReferral,
	})
	require.NoError(t, err)
	require.Equal(t, entity.LeadActive, l.Status)
	return l
}

func (f *fixture) opportunity(t *testing.T, name string) (*entity.Opportunity, *entity.Checklist) {
	t.Helper()
	l := f.activeLead(t, name)
	opp, cl, err := f.svc.ConvertLeadToOpportunity(context.Background(), investor, l.ID)
	require.NoError(t, err)
	return opp, cl
}

func (f *fixture) document(t *testing.T, id string) {
	t.Helper()
	now := f.clock.Now()
	require.NoError(t, f.store.Repositories().Documents.Create(context.Background(), &entity.Document{
		ID: id, EntityType: entity.RelatedBusinessPlan, EntityID: "x", Name: id + ".pdf",
		Path: "business_plan/x/" + id + ".pdf", Version: 1, RowVersion: 1, CreatedAt: now, UpdatedAt: now,
	}))
}

func validationCode(t *testing.T, err error) string {
	t.Helper()
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "se esperaba ValidationError, se obtuvo %v", err)
	return ve.Code
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenario completo: Acme Farms
// ──────────────────────────────────────────────────────────────────────────────

func TestAcmeFarms_DeLeadANdaContrafirmado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := lifecycle.CreateLeadInput{
		Name:        "Acme Farms",
		InquiryType: entity.InquiryCompany,
		Priority:    entity.PriorityHigh,
		Source:      entity.SourceDirect,
	}
	_, err := f.svc.CreateLead(ctx, investor, in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCoreInvestorChoiceRequired))
	assert.Equal(t, 0, f.store.Writes())

	in.StatusChoice = entity.LeadWaitingForApproval
	lead, err := f.svc.CreateLead(ctx, investor, in)
	require.NoError(t, err)
	assert.Equal(t, entity.LeadWaitingForApproval, lead.Status)

	lead, err = f.svc.ApproveLead(ctx, senior, lead.ID, lead.RowVersion)
	require.NoError(t, err)
	assert.Equal(t, entity.LeadActive, lead.Status)

	opp, _, err := f.svc.ConvertLeadToOpportunity(ctx, investor, lead.ID)
	require.NoError(t, err)

	nda, out, err := f.svc.IssueNda(ctx, legal, opp.ID)
	require.NoError(t, err)
	assert.False(t, out.Partial())
	assert.Equal(t, 1, nda.Version)
	assert.Equal(t, entity.NdaIssued, nda.Status)
	assert.Equal(t, legal.UserID, nda.IssuedBy)
	require.NotNil(t, nda.IssuedAt)

	got, err := f.svc.GetOpportunity(ctx, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.NdaIssued, got.NdaStatus)

	nda, err = f.svc.MarkNdaSigned(ctx, legal, nda.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.NdaSignedByInvestor, nda.Status)
	require.NotNil(t, nda.SignedAt)
	got, _ = f.svc.GetOpportunity(ctx, opp.ID)
	assert.Equal(t, entity.NdaSignedByInvestor, got.NdaStatus)

	nda, err = f.svc.MarkNdaCounterSigned(ctx, senior, nda.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.NdaCounterSigned, nda.Status)
	require.NotNil(t, nda.CountersignedAt)
	got, _ = f.svc.GetOpportunity(ctx, opp.ID)
	assert.Equal(t, entity.NdaCounterSigned, got.NdaStatus)

	history, err := f.svc.LeadHistory(ctx, lead.ID)
	require.NoError(t, err)
	actions := make([]string, 0, len(history))
	for _, h := range history {
		actions = append(actions, h.Action)
	}
	assert.Contains(t, actions, "create")
	assert.Contains(t, actions, "approve")
}

// ──────────────────────────────────────────────────────────────────────────────
// Leads
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateLead_CoreConDatosEsActive(t *testing.T) {
	f := newFixture(t)
	l, err := f.svc.CreateLead(context.Background(), investor, lifecycle.CreateLeadInput{
		Name: "Agro Norte", InquiryType: entity.InquiryCompany, Priority: entity.PriorityHigh,
		ExportQuota: dec("80"), PlotSize: dec("3"),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.LeadActive, l.Status)
	assert.Equal(t, entity.SourceOther, l.Source)
	assert.Equal(t, investor.UserID, l.OwnerID)
	assert.Equal(t, 1, l.RowVersion)
}

func TestCreateLead_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateLead(ctx, investor, lifecycle.CreateLeadInput{InquiryType: entity.InquiryCompany, Priority: entity.PriorityLow})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.CreateLead(ctx, investor, lifecycle.CreateLeadInput{
		Name: "X", InquiryType: entity.InquiryCompany, Priority: entity.PriorityLow, ExportQuota: dec("120"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, f.store.Writes())
}

func TestUpdateLead_CompletarDatosPromueveAActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l, err := f.svc.CreateLead(ctx, investor, lifecycle.CreateLeadInput{
		Name: "Hacienda Sol", InquiryType: entity.InquiryCompany, Priority: entity.PriorityHigh,
		StatusChoice: entity.LeadWaitingForDetails,
	})
	require.NoError(t, err)
	require.Equal(t, entity.LeadWaitingForDetails, l.Status)

	l, err = f.svc.UpdateLead(ctx, investor, l.ID, lifecycle.UpdateLeadInput{
		ExportQuota: dec("75"), PlotSize: dec("1"), RowVersion: l.RowVersion,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.LeadActive, l.Status)
	assert.Equal(t, 2, l.RowVersion)
}

func TestUpdateLead_CoreInvestorSinDatosNoQuedaActivo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l, err := f.svc.CreateLead(ctx, investor, lifecycle.CreateLeadInput{
		Name: "Beta", InquiryType: entity.InquiryCompany, Priority: entity.PriorityMedium,
	})
	require.NoError(t, err)
	require.Equal(t, entity.LeadActive, l.Status)
	high := entity.PriorityHigh
	f.store.ResetWrites()

	_, err = f.svc.UpdateLead(ctx, investor, l.ID, lifecycle.UpdateLeadInput{Priority: &high, RowVersion: l.RowVersion})
	assert.Equal(t, domain.CodeCoreInvestorChoice, validationCode(t, err))
	assert.Equal(t, 0, f.store.Writes())

	// active → waiting_for_approval no está en la tabla
	_, err = f.svc.UpdateLead(ctx, investor, l.ID, lifecycle.UpdateLeadInput{
		Priority: &high, StatusChoice: entity.LeadWaitingForApproval, RowVersion: l.RowVersion,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	got, err := f.svc.UpdateLead(ctx, investor, l.ID, lifecycle.UpdateLeadInput{
		Priority: &high, StatusChoice: entity.LeadWaitingForDetails, RowVersion: l.RowVersion,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.LeadWaitingForDetails, got.Status)
	assert.Equal(t, entity.PriorityHigh, got.Priority)

	history, err := f.svc.LeadHistory(ctx, l.ID)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, "details_required", history[len(history)-1].Action)
}

func TestUpdateLead_CoreAprobadoSinDatosSigueEditable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l, err := f.svc.CreateLead(ctx, investor, lifecycle.CreateLeadInput{
		Name: "Acme Farms", InquiryType: entity.InquiryCompany, Priority: entity.PriorityHigh,
		StatusChoice: entity.LeadWaitingForApproval,
	})
	require.NoError(t, err)
	l, err = f.svc.ApproveLead(ctx, senior, l.ID, 0)
	require.NoError(t, err)
	notes := "llamar el lunes"

	got, err := f.svc.UpdateLead(ctx, investor, l.ID, lifecycle.UpdateLeadInput{Notes: &notes, RowVersion: l.RowVersion})
	require.NoError(t, err)
	assert.Equal(t, entity.LeadActive, got.Status)
	assert.Equal(t, notes, got.Notes)
}

func TestUpdateLead_BorrarMedidas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l, err := f.svc.CreateLead(ctx, investor, lifecycle.CreateLeadInput{
		Name: "Gamma", InquiryType: entity.InquiryIndividual, Priority: entity.PriorityLow,
		ExportQuota: dec("40"), PlotSize: dec("3"),
	})
	require.NoError(t, err)

	got, err := f.svc.UpdateLead(ctx, investor, l.ID, lifecycle.UpdateLeadInput{
		ClearExportQuota: true, PlotSize: dec("5"), RowVersion: l.RowVersion,
	})
	require.NoError(t, err)
	assert.Nil(t, got.ExportQuota)
	require.NotNil(t, got.PlotSize)
	assert.True(t, got.PlotSize.Equal(decimal.NewFromInt(5)))

	// clear gana sobre el valor; nil deja el campo como estaba
	got, err = f.svc.UpdateLead(ctx, investor, l.ID, lifecycle.UpdateLeadInput{
		ClearPlotSize: true, PlotSize: dec("9"), RowVersion: got.RowVersion,
	})
	require.NoError(t, err)
	assert.Nil(t, got.PlotSize)
	assert.Nil(t, got.ExportQuota)
}

func TestUpdateLead_VersionObsoletaEsConflicto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.activeLead(t, "Finca Azul")
	name := "Finca Azul SAS"

	_, err := f.svc.UpdateLead(ctx, investor, l.ID, lifecycle.UpdateLeadInput{Name: &name, RowVersion: l.RowVersion})
	require.NoError(t, err)

	other := "Otro nombre"
	_, err = f.svc.UpdateLead(ctx, legal, l.ID, lifecycle.UpdateLeadInput{Name: &other, RowVersion: l.RowVersion})
	require.Error(t, err)
	var ce *domain.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 1, ce.Expected)
	assert.Equal(t, 2, ce.Actual)

	got, err := f.svc.GetLead(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, name, got.Name)
}

func TestLeadTransitions_Precondiciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l := f.activeLead(t, "Viñedos del Valle")

	_, err := f.svc.ApproveLead(ctx, senior, l.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.svc.RejectLead(ctx, senior, l.ID, "sin interés", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	l, err = f.svc.ArchiveLead(ctx, investor, l.ID, l.RowVersion)
	require.NoError(t, err)
	assert.Equal(t, entity.LeadArchived, l.Status)

	l, err = f.svc.RestoreLead(ctx, investor, l.ID, l.RowVersion)
	require.NoError(t, err)
	assert.Equal(t, entity.LeadActive, l.Status)

	_, err = f.svc.ApproveLead(ctx, senior, "no-existe", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteLead_SoloSeniorYSinOportunidad(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	opp, _ := f.opportunity(t, "Campo Verde")
	free := f.activeLead(t, "Libre")

	assert.ErrorIs(t, f.svc.DeleteLead(ctx, investor, free.ID), domain.ErrForbidden)
	err := f.svc.DeleteLead(ctx, senior, opp.LeadID)
	assert.Equal(t, domain.CodeOpportunityExists, validationCode(t, err))

	require.NoError(t, f.svc.DeleteLead(ctx, senior, free.ID))
	_, err = f.svc.GetLead(ctx, free.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Conversión y checklist
// ──────────────────────────────────────────────────────────────────────────────

func TestConvertLead_CreaOportunidadYChecklist(t *testing.T) {
	f := newFixture(t, withTemplate("KYC", "Títulos", "Suelos"))
	ctx := context.Background()
	opp, cl := f.opportunity(t, "Palmar")

	assert.Equal(t, entity.OpportunityAssessmentInProgress, opp.Status)
	assert.Equal(t, entity.NdaNotIssued, opp.NdaStatus)
	assert.Equal(t, entity.PlanNotRequested, opp.BusinessPlanStatus)
	require.Len(t, cl.Items, 3)
	for i, it := range cl.Items {
		assert.Equal(t, i, it.OrderIndex)
		assert.Equal(t, entity.ItemNotStarted, it.Status)
	}

	_, _, err := f.svc.ConvertLeadToOpportunity(ctx, investor, opp.LeadID)
	assert.Equal(t, domain.CodeOpportunityExists, validationCode(t, err))

	_, err = f.svc.CreateChecklist(ctx, investor, opp.ID, nil)
	assert.Equal(t, domain.CodeChecklistExists, validationCode(t, err))
}

func TestConvertLead_RequiereLeadActivo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	l, err := f.svc.CreateLead(ctx, investor, lifecycle.CreateLeadInput{
		Name: "Pendiente", InquiryType: entity.InquiryCompany, Priority: entity.PriorityHigh,
		StatusChoice: entity.LeadWaitingForApproval,
	})
	require.NoError(t, err)
	_, _, err = f.svc.ConvertLeadToOpportunity(ctx, investor, l.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestChecklist_CascadaEvaluacion(t *testing.T) {
	f := newFixture(t, withTemplate("KYC", "Títulos"))
	ctx := context.Background()
	opp, cl := f.opportunity(t, "Los Robles")
	first, second := cl.Items[0], cl.Items[1]

	it, out, err := f.svc.UpdateChecklistItemStatus(ctx, legal, first.ID, lifecycle.ChecklistItemUpdate{Status: entity.ItemCompleted})
	require.NoError(t, err)
	assert.False(t, out.Partial())
	require.NotNil(t, it.CompletedAt)
	assert.Equal(t, legal.UserID, it.CompletedBy)
	got, _ := f.svc.GetOpportunity(ctx, opp.ID)
	assert.Equal(t, entity.OpportunityAssessmentInProgress, got.Status)

	_, _, err = f.svc.UpdateChecklistItemStatus(ctx, legal, second.ID, lifecycle.ChecklistItemUpdate{Status: entity.ItemCompleted})
	require.NoError(t, err)
	got, _ = f.svc.GetOpportunity(ctx, opp.ID)
	assert.Equal(t, entity.OpportunityAssessmentCompleted, got.Status)

	notes := "falta certificado"
	it, _, err = f.svc.UpdateChecklistItemStatus(ctx, legal, second.ID, lifecycle.ChecklistItemUpdate{
		Status: entity.ItemInProgress, Notes: &notes,
	})
	require.NoError(t, err)
	assert.Nil(t, it.CompletedAt)
	assert.Empty(t, it.CompletedBy)
	assert.Equal(t, notes, it.Notes)
	got, _ = f.svc.GetOpportunity(ctx, opp.ID)
	assert.Equal(t, entity.OpportunityAssessmentInProgress, got.Status)
}

func TestChecklist_FalloDelRecalculoEsParcialYSeReconcilia(t *testing.T) {
	f := newFixture(t, withTemplate("KYC"))
	ctx := context.Background()
	opp, cl := f.opportunity(t, "El Mirador")

	f.store.FailNext("opportunities.update", errors.New("conexión perdida"))
	it, out, err := f.svc.UpdateChecklistItemStatus(ctx, legal, cl.Items[0].ID, lifecycle.ChecklistItemUpdate{Status: entity.ItemCompleted})
	require.NoError(t, err)
	assert.Equal(t, entity.ItemCompleted, it.Status)
	require.True(t, out.Partial())
	assert.Equal(t, "recompute_assessment", out.Warnings[0].Step)
	assert.ErrorIs(t, out.Warnings[0].Err, domain.ErrStorage)
	assert.Equal(t, 1, f.rec.Pending())

	got, _ := f.svc.GetOpportunity(ctx, opp.ID)
	assert.Equal(t, entity.OpportunityAssessmentInProgress, got.Status)

	assert.Equal(t, 0, f.rec.RetryDue(ctx), "el backoff aún no vence")
	f.clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, f.rec.RetryDue(ctx))
	assert.Equal(t, 0, f.rec.Pending())

	got, _ = f.svc.GetOpportunity(ctx, opp.ID)
	assert.Equal(t, entity.OpportunityAssessmentCompleted, got.Status)
}

func TestChecklist_VersionObsoletaNoEscribe(t *testing.T) {
	f := newFixture(t, withTemplate("KYC"))
	ctx := context.Background()
	_, cl := f.opportunity(t, "Cerro Alto")
	f.store.ResetWrites()

	_, _, err := f.svc.UpdateChecklistItemStatus(ctx, legal, cl.Items[0].ID, lifecycle.ChecklistItemUpdate{
		Status: entity.ItemInProgress, ExpectedVersion: 7,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 0, f.store.Writes())
}

// ──────────────────────────────────────────────────────────────────────────────
// NDA
// ──────────────────────────────────────────────────────────────────────────────

func TestMarkNdaCompleted_DesdeNotIssuedNoEscribe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	opp, _ := f.opportunity(t, "Sin NDA")
	now := f.clock.Now()
	nda := &entity.Nda{ID: "nda-draft", OpportunityID: opp.ID, Version: 1, Status: entity.NdaNotIssued, RowVersion: 1, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.store.Repositories().Ndas.Create(ctx, nda))
	f.store.ResetWrites()

	_, err := f.svc.MarkNdaCompleted(ctx, legal, nda.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 0, f.store.Writes())
}

func TestIssueNda_RechazaSiHayUnoEnCurso(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	opp, _ := f.opportunity(t, "Doble")

	_, _, err := f.svc.IssueNda(ctx, legal, opp.ID)
	require.NoError(t, err)
	_, _, err = f.svc.IssueNda(ctx, legal, opp.ID)
	assert.Equal(t, domain.CodeNdaPending, validationCode(t, err))
}

func TestIssueNda_VersionesSinHuecosEntreOportunidades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, _ := f.opportunity(t, "Alfa")
	b, _ := f.opportunity(t, "Beta")

	complete := func(id string) {
		_, err := f.svc.MarkNdaSigned(ctx, legal, id)
		require.NoError(t, err)
		_, err = f.svc.MarkNdaCounterSigned(ctx, legal, id)
		require.NoError(t, err)
		_, err = f.svc.MarkNdaCompleted(ctx, legal, id)
		require.NoError(t, err)
	}
	for i := 1; i <= 3; i++ {
		na, _, err := f.svc.IssueNda(ctx, legal, a.ID)
		require.NoError(t, err)
		nb, _, err := f.svc.IssueNda(ctx, legal, b.ID)
		require.NoError(t, err)
		assert.Equal(t, i, na.Version)
		assert.Equal(t, i, nb.Version)
		complete(nb.ID)
		complete(na.ID)
	}

	for _, id := range []string{a.ID, b.ID} {
		list, err := f.svc.ListNdas(ctx, id)
		require.NoError(t, err)
		require.Len(t, list, 3)
		for i, n := range list {
			assert.Equal(t, i+1, n.Version)
		}
	}
}

func TestIssueNda_GeneraPDF(t *testing.T) {
	f := newFixture(t, withRenderer(&fakeRenderer{}))
	ctx := context.Background()
	opp, _ := f.opportunity(t, "Con PDF")

	nda, out, err := f.svc.IssueNda(ctx, legal, opp.ID)
	require.NoError(t, err)
	assert.False(t, out.Partial())
	assert.NotEmpty(t, nda.DocumentID)
	assert.Contains(t, f.docs.uploads, "nda/"+opp.ID+"/v1/nda.pdf")
}

func TestIssueNda_FalloDelPDFEsAviso(t *testing.T) {
	f := newFixture(t, withRenderer(&fakeRenderer{err: errors.New("fuente no disponible")}))
	ctx := context.Background()
	opp, _ := f.opportunity(t, "PDF roto")

	nda, out, err := f.svc.IssueNda(ctx, legal, opp.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.NdaIssued, nda.Status)
	require.True(t, out.Partial())
	assert.Equal(t, "nda_document", out.Warnings[0].Step)
	assert.Equal(t, 1, f.rec.Pending())
}

// ──────────────────────────────────────────────────────────────────────────────
// Plan de negocio
// ──────────────────────────────────────────────────────────────────────────────

func TestBusinessPlan_CicloConActualizaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	opp, _ := f.opportunity(t, "Plan")
	f.document(t, "doc-1")
	f.document(t, "doc-2")

	req, err := f.svc.RequestBusinessPlan(ctx, investor, opp.ID, "incluir flujo de caja")
	require.NoError(t, err)
	assert.Equal(t, entity.PlanRequested, req.Status)
	assert.Equal(t, 1, req.Version)
	assert.Equal(t, investor.UserID, req.RequestedBy)

	v2, err := f.svc.UploadBusinessPlanDocument(ctx, investor, opp.ID, "doc-1", "")
	require.NoError(t, err)
	assert.Equal(t, entity.PlanReceived, v2.Status)
	assert.Equal(t, 2, v2.Version)
	require.NotNil(t, v2.ReceivedAt)

	_, err = f.svc.RequestBusinessPlanUpdates(ctx, senior, v2.ID, "faltan anexos")
	require.NoError(t, err)
	got, _ := f.svc.GetOpportunity(ctx, opp.ID)
	assert.Equal(t, entity.PlanUpdatesNeeded, got.BusinessPlanStatus)

	v3, err := f.svc.UploadBusinessPlanDocument(ctx, investor, opp.ID, "doc-2", entity.PlanReceived)
	require.NoError(t, err)
	assert.Equal(t, 3, v3.Version)

	v3, err = f.svc.ApproveBusinessPlan(ctx, senior, v3.ID, "")
	require.NoError(t, err)
	assert.Equal(t, entity.PlanApproved, v3.Status)
	assert.Equal(t, senior.UserID, v3.ApprovedBy)
	require.NotNil(t, v3.ApprovedAt)
	got, _ = f.svc.GetOpportunity(ctx, opp.ID)
	assert.Equal(t, entity.PlanApproved, got.BusinessPlanStatus)

	_, err = f.svc.RejectBusinessPlan(ctx, senior, v3.ID, "tarde")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestBusinessPlan_SubidaSoloRegistraRecibido(t *testing.T) {
	f := newFixture(t)
	opp, _ := f.opportunity(t, "Directo")
	f.document(t, "doc-1")
	f.store.ResetWrites()

	for _, st := range []entity.BusinessPlanStatus{entity.PlanApproved, entity.PlanRejected, entity.PlanUpdatesNeeded, entity.PlanRequested} {
		_, err := f.svc.UploadBusinessPlanDocument(context.Background(), investor, opp.ID, "doc-1", st)
		assert.Equal(t, domain.CodeValidation, validationCode(t, err), string(st))
	}
	assert.Equal(t, 0, f.store.Writes())

	got, _ := f.svc.GetOpportunity(context.Background(), opp.ID)
	assert.Equal(t, entity.PlanNotRequested, got.BusinessPlanStatus)
}

func TestBusinessPlan_SoloSeRevisaLaUltimaVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	opp, _ := f.opportunity(t, "Versiones")
	f.document(t, "doc-1")

	v1, err := f.svc.UploadBusinessPlanDocument(ctx, investor, opp.ID, "doc-1", "")
	require.NoError(t, err)
	now := f.clock.Now()
	v2 := &entity.BusinessPlan{
		ID: "plan-v2", OpportunityID: opp.ID, Version: 2, Status: entity.PlanReceived,
		DocumentID: "doc-1", ReceivedAt: &now, RowVersion: 1, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.store.Repositories().BusinessPlans.Create(ctx, v2))
	f.store.ResetWrites()

	_, err = f.svc.ApproveBusinessPlan(ctx, senior, v1.ID, "")
	assert.Equal(t, domain.CodePlanSuperseded, validationCode(t, err))
	assert.Equal(t, 0, f.store.Writes())

	approved, err := f.svc.ApproveBusinessPlan(ctx, senior, v2.ID, "")
	require.NoError(t, err)
	assert.Equal(t, senior.UserID, approved.ApprovedBy)
	got, _ := f.svc.GetOpportunity(ctx, opp.ID)
	assert.Equal(t, entity.PlanApproved, got.BusinessPlanStatus)
}

func TestBusinessPlan_DocumentoInexistente(t *testing.T) {
	f := newFixture(t)
	opp, _ := f.opportunity(t, "Sin doc")
	f.store.ResetWrites()

	_, err := f.svc.UploadBusinessPlanDocument(context.Background(), investor, opp.ID, "no-existe", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, f.store.Writes())
}

// ──────────────────────────────────────────────────────────────────────────────
// Aprobaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestApprovals_DueDiligenceYFinal(t *testing.T) {
	f := newFixture(t, withTemplate("KYC"))
	ctx := context.Background()
	opp, cl := f.opportunity(t, "Aprobable")

	_, err := f.svc.GrantDueDiligenceApproval(ctx, legal, opp.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "la evaluación no está completa")

	_, _, err = f.svc.UpdateChecklistItemStatus(ctx, legal, cl.Items[0].ID, lifecycle.ChecklistItemUpdate{Status: entity.ItemCompleted})
	require.NoError(t, err)

	dd, err := f.svc.GrantDueDiligenceApproval(ctx, legal, opp.ID, "todo en orden")
	require.NoError(t, err)
	assert.Equal(t, entity.StageDueDiligence, dd.Stage)
	assert.False(t, dd.IsFinal)
	got, _ := f.svc.GetOpportunity(ctx, opp.ID)
	assert.Equal(t, entity.OpportunityWaitingForApproval, got.Status)

	f.store.ResetWrites()
	_, err = f.svc.GrantFinalApproval(ctx, investor, opp.ID, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, 0, f.store.Writes())

	final, err := f.svc.GrantFinalApproval(ctx, senior, opp.ID, "aprobado por comité")
	require.NoError(t, err)
	assert.True(t, final.IsFinal)
	assert.Equal(t, entity.RoleSeniorManagement, final.ApproverRole)
	got, _ = f.svc.GetOpportunity(ctx, opp.ID)
	assert.Equal(t, entity.OpportunityApproved, got.Status)

	list, err := f.svc.ListApprovals(ctx, opp.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.svc.RejectOpportunity(ctx, senior, opp.ID, "tarde", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRejectOpportunity_DesdeNoTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	opp, _ := f.opportunity(t, "Rechazable")

	got, err := f.svc.RejectOpportunity(ctx, senior, opp.ID, "sin financiación", opp.RowVersion)
	require.NoError(t, err)
	assert.Equal(t, entity.OpportunityRejected, got.Status)

	_, _, err = f.svc.IssueNda(ctx, legal, opp.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "oportunidad cerrada")

	history, err := f.svc.OpportunityHistory(ctx, opp.ID)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	last := history[len(history)-1]
	assert.Equal(t, "reject", last.Action)
	assert.Equal(t, "sin financiación", last.Comments)
}

func TestScheduleSiteVisit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	opp, _ := f.opportunity(t, "Visita")
	date := f.clock.Now().Add(72 * time.Hour)

	got, err := f.svc.ScheduleSiteVisit(ctx, investor, opp.ID, date, "llevar planos", opp.RowVersion)
	require.NoError(t, err)
	assert.True(t, got.SiteVisitScheduled)
	require.NotNil(t, got.SiteVisitDate)
	assert.True(t, date.Equal(*got.SiteVisitDate))

	_, err = f.svc.ScheduleSiteVisit(ctx, investor, opp.ID, time.Time{}, "", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
