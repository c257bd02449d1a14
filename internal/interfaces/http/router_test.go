package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/leadflow-api/internal/application/activity"
	"github.com/jhoicas/leadflow-api/internal/application/auth"
	"github.com/jhoicas/leadflow-api/internal/application/automation"
	"github.com/jhoicas/leadflow-api/internal/application/documents"
	"github.com/jhoicas/leadflow-api/internal/application/dto"
	"github.com/jhoicas/leadflow-api/internal/application/emailbridge"
	"github.com/jhoicas/leadflow-api/internal/application/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/application/pipeline"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/infrastructure/lock"
	"github.com/jhoicas/leadflow-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/leadflow-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/leadflow-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers: API completa sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

type blobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (b *blobStore) Upload(_ context.Context, path string, data []byte, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[path] = data
	return nil
}

func (b *blobStore) SignedURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "https://blobs.local/" + path, nil
}

func (b *blobStore) Remove(_ context.Context, paths []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range paths {
		delete(b.blobs, p)
	}
	return nil
}

type api struct {
	app   *fiber.App
	store *memory.Store
	blobs *blobStore
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	log := zerolog.Nop()
	blobs := &blobStore{blobs: map[string][]byte{}}

	hash, err := bcrypt.GenerateFromPassword([]byte("clave-segura"), bcrypt.MinCost)
	require.NoError(t, err)
	store.SeedUser(&entity.User{
		ID: "u-senior", Email: "direccion@leadflow.com", PasswordHash: string(hash), Name: "Dirección",
		Role: entity.RoleSeniorManagement, Status: "active", CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})

	svc := lifecycle.NewService(lifecycle.Deps{Tx: store, Repos: repos, Documents: blobs, Log: log}, lifecycle.Config{})
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:    auth.NewAuthUseCase(repos.Users, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: 60, Issuer: testIssuer}, log),
		Lifecycle: svc,
		LeadLocks: activity.NewLeadLocks(lock.NewLocalLocker(nil), time.Minute),
		Pipeline:  pipeline.NewUseCase(store, repos, log, nil),
		Activity:  activity.NewUseCase(store, repos, log, nil),
		Documents: documents.NewUseCase(store, repos, blobs, time.Minute, log, nil),
		Email:     emailbridge.NewUseCase(repos, nil, svc, log, nil),
		Sweeper:   automation.NewSweeper(store, repos, memory.NewSweepLock(), automation.DefaultConfig(), log, nil),
		JWTSecret: testJWTSecret,
		Log:       log,
	})
	return &api{app: app, store: store, blobs: blobs}
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	tok, _, err := pkgjwt.Generate(testJWTSecret, userID, role, testIssuer, testExpMin, time.Now())
	require.NoError(t, err)
	return "Bearer " + tok
}

// call envía body como JSON (nil = sin cuerpo) y decodifica la respuesta en out si no es nil.
func (a *api) call(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *api) createLead(t *testing.T, token string, body map[string]any) dto.LeadResponse {
	t.Helper()
	var l dto.LeadResponse
	require.Equal(t, http.StatusCreated, a.call(t, http.MethodPost, "/api/leads", token, body, &l))
	return l
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_DevuelveTokenUsable(t *testing.T) {
	a := newAPI(t)
	var res dto.LoginResponse
	status := a.call(t, http.MethodPost, "/api/auth/login", "",
		dto.LoginRequest{Email: "direccion@leadflow.com", Password: "clave-segura"}, &res)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, entity.RoleSeniorManagement, res.User.Role)

	var me dto.UserResponse
	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/auth/me", "Bearer "+res.Token, nil, &me))
	assert.Equal(t, "u-senior", me.ID)
	assert.Equal(t, "direccion@leadflow.com", me.Email)
}

func TestMe_UsuarioDelTokenInexistente_Retorna404(t *testing.T) {
	a := newAPI(t)
	assert.Equal(t, http.StatusNotFound, a.call(t, http.MethodGet, "/api/auth/me",
		bearer(t, "u-fantasma", entity.RoleLegalServices), nil, nil))
}

func TestLogin_PasswordIncorrecto_Retorna401(t *testing.T) {
	a := newAPI(t)
	var e dto.ErrorResponse
	status := a.call(t, http.MethodPost, "/api/auth/login", "",
		dto.LoginRequest{Email: "direccion@leadflow.com", Password: "otra"}, &e)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", e.Code)
}

func TestRutasProtegidas_SinToken_Retorna401(t *testing.T) {
	a := newAPI(t)
	assert.Equal(t, http.StatusUnauthorized, a.call(t, http.MethodGet, "/api/leads", "", nil, nil))
}

// ──────────────────────────────────────────────────────────────────────────────
// Leads
// ──────────────────────────────────────────────────────────────────────────────

func TestCrearLead_CoreInvestorSinDatos_ExigeEleccion(t *testing.T) {
	a := newAPI(t)
	tok := bearer(t, "u-inv", entity.RoleInvestorServices)

	var e dto.ErrorResponse
	status := a.call(t, http.MethodPost, "/api/leads", tok, map[string]any{
		"name": "Agro Exportadora SAS", "inquiry_type": "company", "priority": "high",
	}, &e)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "CORE_INVESTOR_CHOICE_REQUIRED", e.Code)

	l := a.createLead(t, tok, map[string]any{
		"name": "Agro Exportadora SAS", "inquiry_type": "company", "priority": "high",
		"status_choice": "waiting_for_approval",
	})
	assert.Equal(t, string(entity.LeadWaitingForApproval), l.Status)
	assert.Equal(t, "u-inv", l.OwnerID)
}

func TestCrearLead_CamposInvalidos_Retorna422(t *testing.T) {
	a := newAPI(t)
	var e dto.ErrorResponse
	status := a.call(t, http.MethodPost, "/api/leads", bearer(t, "u-inv", entity.RoleInvestorServices),
		map[string]any{"name": "X", "inquiry_type": "cooperativa", "priority": "low"}, &e)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION", e.Code)
}

func TestCrearLead_CuerpoMalformado_Retorna400(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader("{no-json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, "u-inv", entity.RoleInvestorServices))
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLead_AprobarConvertirYVerHistorial(t *testing.T) {
	a := newAPI(t)
	tok := bearer(t, "u-inv", entity.RoleInvestorServices)
	l := a.createLead(t, tok, map[string]any{
		"name": "Finca El Roble", "inquiry_type": "company", "priority": "high",
		"status_choice": "waiting_for_approval",
	})

	var approved dto.LeadResponse
	require.Equal(t, http.StatusOK, a.call(t, http.MethodPost, "/api/leads/"+l.ID+"/approve", tok,
		dto.VersionRequest{RowVersion: l.RowVersion}, &approved))
	assert.Equal(t, string(entity.LeadActive), approved.Status)

	var conv dto.ConversionResponse
	require.Equal(t, http.StatusCreated, a.call(t, http.MethodPost, "/api/leads/"+l.ID+"/convert", tok, nil, &conv))
	assert.Equal(t, l.ID, conv.Opportunity.LeadID)
	assert.Equal(t, string(entity.OpportunityAssessmentInProgress), conv.Opportunity.Status)
	require.NotNil(t, conv.Checklist)
	assert.Len(t, conv.Checklist.Items, len(lifecycle.DefaultChecklistItems))

	// una segunda conversión choca con la oportunidad existente
	var e dto.ErrorResponse
	assert.Equal(t, http.StatusUnprocessableEntity, a.call(t, http.MethodPost, "/api/leads/"+l.ID+"/convert", tok, nil, &e))
	assert.Equal(t, "OPPORTUNITY_EXISTS", e.Code)

	var hist []dto.AuditEntryResponse
	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/leads/"+l.ID+"/history", tok, nil, &hist))
	actions := make([]string, 0, len(hist))
	for _, h := range hist {
		actions = append(actions, h.Action)
	}
	assert.Equal(t, []string{"create", "approve", "convert"}, actions)
}

func TestLead_TransicionIlegal_Retorna422(t *testing.T) {
	a := newAPI(t)
	tok := bearer(t, "u-inv", entity.RoleInvestorServices)
	l := a.createLead(t, tok, map[string]any{"name": "Parcela Norte", "inquiry_type": "individual", "priority": "low"})

	var archived dto.LeadResponse
	require.Equal(t, http.StatusOK, a.call(t, http.MethodPost, "/api/leads/"+l.ID+"/archive", tok, nil, &archived))
	assert.Equal(t, string(entity.LeadArchived), archived.Status)

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusUnprocessableEntity, a.call(t, http.MethodPost, "/api/leads/"+l.ID+"/submit", tok, nil, &e))
	assert.Equal(t, "INVALID_TRANSITION", e.Code)
}

func TestLead_VersionVieja_Retorna409(t *testing.T) {
	a := newAPI(t)
	tok := bearer(t, "u-inv", entity.RoleInvestorServices)
	l := a.createLead(t, tok, map[string]any{"name": "Hacienda Sur", "inquiry_type": "individual", "priority": "medium"})

	var updated dto.LeadResponse
	require.Equal(t, http.StatusOK, a.call(t, http.MethodPut, "/api/leads/"+l.ID, tok,
		map[string]any{"notes": "primer contacto", "row_version": l.RowVersion}, &updated))
	assert.Equal(t, l.RowVersion+1, updated.RowVersion)

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, a.call(t, http.MethodPut, "/api/leads/"+l.ID, tok,
		map[string]any{"notes": "otra edición", "row_version": l.RowVersion}, &e))
	assert.Equal(t, "CONFLICT", e.Code)
}

func TestLead_Inexistente_Retorna404(t *testing.T) {
	a := newAPI(t)
	var e dto.ErrorResponse
	assert.Equal(t, http.StatusNotFound, a.call(t, http.MethodGet, "/api/leads/no-existe",
		bearer(t, "u-inv", entity.RoleInvestorServices), nil, &e))
	assert.Equal(t, "NOT_FOUND", e.Code)
}

func TestLead_EliminarSoloDireccion(t *testing.T) {
	a := newAPI(t)
	inv := bearer(t, "u-inv", entity.RoleInvestorServices)
	l := a.createLead(t, inv, map[string]any{"name": "Lote 7", "inquiry_type": "individual", "priority": "low"})

	assert.Equal(t, http.StatusForbidden, a.call(t, http.MethodDelete, "/api/leads/"+l.ID, inv, nil, nil))
	assert.Equal(t, http.StatusNoContent, a.call(t, http.MethodDelete, "/api/leads/"+l.ID,
		bearer(t, "u-senior", entity.RoleSeniorManagement), nil, nil))
	assert.Equal(t, http.StatusNotFound, a.call(t, http.MethodGet, "/api/leads/"+l.ID, inv, nil, nil))
}

func TestLead_LockDeEdicion(t *testing.T) {
	a := newAPI(t)
	ana := bearer(t, "u-ana", entity.RoleInvestorServices)
	luis := bearer(t, "u-luis", entity.RoleLegalServices)
	l := a.createLead(t, ana, map[string]any{"name": "Predio Alto", "inquiry_type": "individual", "priority": "low"})

	var st dto.LockResponse
	require.Equal(t, http.StatusOK, a.call(t, http.MethodPost, "/api/leads/"+l.ID+"/lock", ana, nil, &st))
	assert.True(t, st.Mine)

	assert.Equal(t, http.StatusConflict, a.call(t, http.MethodPost, "/api/leads/"+l.ID+"/lock", luis, nil, nil))

	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/leads/"+l.ID+"/lock", luis, nil, &st))
	assert.True(t, st.Held)
	assert.False(t, st.Mine)
	assert.Equal(t, "u-ana", st.Holder)

	assert.Equal(t, http.StatusNoContent, a.call(t, http.MethodDelete, "/api/leads/"+l.ID+"/lock", ana, nil, nil))
	assert.Equal(t, http.StatusOK, a.call(t, http.MethodPost, "/api/leads/"+l.ID+"/lock", luis, nil, nil))
}

// ──────────────────────────────────────────────────────────────────────────────
// Oportunidades y pipeline
// ──────────────────────────────────────────────────────────────────────────────

func (a *api) opportunity(t *testing.T, token string) dto.OpportunityResponse {
	t.Helper()
	l := a.createLead(t, token, map[string]any{"name": "Cultivos del Valle", "inquiry_type": "individual", "priority": "medium"})
	var conv dto.ConversionResponse
	require.Equal(t, http.StatusCreated, a.call(t, http.MethodPost, "/api/leads/"+l.ID+"/convert", token, nil, &conv))
	return conv.Opportunity
}

func TestAprobacionFinal_RequiereDireccion(t *testing.T) {
	a := newAPI(t)
	inv := bearer(t, "u-inv", entity.RoleInvestorServices)
	o := a.opportunity(t, inv)

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusForbidden, a.call(t, http.MethodPost, "/api/opportunities/"+o.ID+"/approvals/final", inv,
		dto.CommentsRequest{Comments: "ok"}, &e))
	assert.Equal(t, "FORBIDDEN", e.Code)

	// dirección pasa el rol pero la oportunidad aún no está en waiting_for_approval
	assert.Equal(t, http.StatusUnprocessableEntity, a.call(t, http.MethodPost, "/api/opportunities/"+o.ID+"/approvals/final",
		bearer(t, "u-senior", entity.RoleSeniorManagement), dto.CommentsRequest{Comments: "ok"}, nil))
}

func TestChecklistCompleto_CierraEvaluacion(t *testing.T) {
	a := newAPI(t)
	tok := bearer(t, "u-inv", entity.RoleInvestorServices)
	o := a.opportunity(t, tok)

	var cl dto.ChecklistResponse
	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/opportunities/"+o.ID+"/checklist", tok, nil, &cl))
	require.NotEmpty(t, cl.Items)
	for _, it := range cl.Items {
		require.Equal(t, http.StatusOK, a.call(t, http.MethodPatch, "/api/checklist-items/"+it.ID, tok,
			map[string]any{"status": "completed"}, nil))
	}

	var got dto.OpportunityResponse
	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/opportunities/"+o.ID, tok, nil, &got))
	assert.Equal(t, string(entity.OpportunityAssessmentCompleted), got.Status)

	require.Equal(t, http.StatusCreated, a.call(t, http.MethodPost, "/api/opportunities/"+o.ID+"/approvals/due-diligence", tok,
		dto.CommentsRequest{Comments: "DD revisado"}, nil))
	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/opportunities/"+o.ID, tok, nil, &got))
	assert.Equal(t, string(entity.OpportunityWaitingForApproval), got.Status)

	require.Equal(t, http.StatusCreated, a.call(t, http.MethodPost, "/api/opportunities/"+o.ID+"/approvals/final",
		bearer(t, "u-senior", entity.RoleSeniorManagement), dto.CommentsRequest{Comments: "aprobado"}, nil))
	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/opportunities/"+o.ID, tok, nil, &got))
	assert.Equal(t, string(entity.OpportunityApproved), got.Status)

	var approvals []dto.ApprovalResponse
	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/opportunities/"+o.ID+"/approvals", tok, nil, &approvals))
	assert.Len(t, approvals, 2)
}

func TestPipeline_TipoDesconocido_Retorna422(t *testing.T) {
	a := newAPI(t)
	assert.Equal(t, http.StatusUnprocessableEntity, a.call(t, http.MethodGet, "/api/pipeline/contratos",
		bearer(t, "u-inv", entity.RoleInvestorServices), nil, nil))
}

func TestPipeline_TableroYMovimiento(t *testing.T) {
	a := newAPI(t)
	tok := bearer(t, "u-inv", entity.RoleInvestorServices)
	l := a.createLead(t, tok, map[string]any{"name": "Vivero Central", "inquiry_type": "individual", "priority": "low"})

	var board []dto.BucketResponse[dto.LeadResponse]
	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/pipeline/leads", tok, nil, &board))
	counts := map[string]int{}
	for _, b := range board {
		counts[b.StageID] = b.Count
	}
	assert.Equal(t, 1, counts["new"])

	var mv dto.MoveResponse
	require.Equal(t, http.StatusOK, a.call(t, http.MethodPost, "/api/pipeline/leads/move", tok,
		dto.MoveRequest{ID: l.ID, TargetStage: "new", RowVersion: l.RowVersion}, &mv))
	assert.False(t, mv.Changed, "mover a la etapa actual no cambia nada")
}

func TestPipeline_CoreInvestorSinDatosAMeeting_Retorna422(t *testing.T) {
	a := newAPI(t)
	tok := bearer(t, "u-inv", entity.RoleInvestorServices)
	l := a.createLead(t, tok, map[string]any{
		"name": "Acme Farms", "inquiry_type": "company", "priority": "high", "status_choice": "waiting_for_details",
	})

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusUnprocessableEntity, a.call(t, http.MethodPost, "/api/pipeline/leads/move", tok,
		dto.MoveRequest{ID: l.ID, TargetStage: "meeting", RowVersion: l.RowVersion}, &e))
	assert.Equal(t, "CORE_INVESTOR_CHOICE_REQUIRED", e.Code)
}

func TestListados_ParametrosInvalidos_Retorna400(t *testing.T) {
	a := newAPI(t)
	tok := bearer(t, "u-inv", entity.RoleInvestorServices)
	for _, path := range []string{"/api/leads?limit=abc", "/api/opportunities?offset=x", "/api/tasks?limit=diez", "/api/email/messages?limit=-"} {
		var e dto.ErrorResponse
		assert.Equal(t, http.StatusBadRequest, a.call(t, http.MethodGet, path, tok, nil, &e), path)
		assert.Equal(t, "INVALID_PARAMS", e.Code, path)
	}
}

func TestLead_EditarAPrioridadAltaSinDatos(t *testing.T) {
	a := newAPI(t)
	tok := bearer(t, "u-inv", entity.RoleInvestorServices)
	l := a.createLead(t, tok, map[string]any{
		"name": "Beta", "inquiry_type": "company", "priority": "medium", "export_quota": "30", "plot_size": "2",
	})

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusUnprocessableEntity, a.call(t, http.MethodPut, "/api/leads/"+l.ID, tok,
		map[string]any{"priority": "high", "row_version": l.RowVersion}, &e))
	assert.Equal(t, "CORE_INVESTOR_CHOICE_REQUIRED", e.Code)

	var updated dto.LeadResponse
	require.Equal(t, http.StatusOK, a.call(t, http.MethodPut, "/api/leads/"+l.ID, tok, map[string]any{
		"priority": "high", "clear_export_quota": true, "status_choice": "waiting_for_details", "row_version": l.RowVersion,
	}, &updated))
	assert.Equal(t, string(entity.LeadWaitingForDetails), updated.Status)
	assert.Nil(t, updated.ExportQuota)
	require.NotNil(t, updated.PlotSize)
}

// ──────────────────────────────────────────────────────────────────────────────
// Documentos, correo y automatización
// ──────────────────────────────────────────────────────────────────────────────

func (a *api) upload(t *testing.T, token, entityID, filename, content string) (int, dto.DocumentResponse) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("entity_type", "lead"))
	require.NoError(t, w.WriteField("entity_id", entityID))
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", token)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var d dto.DocumentResponse
	if resp.StatusCode == http.StatusCreated {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&d))
	}
	return resp.StatusCode, d
}

func TestDocumentos_VersionadoYURLFirmada(t *testing.T) {
	a := newAPI(t)
	tok := bearer(t, "u-inv", entity.RoleInvestorServices)

	status, d1 := a.upload(t, tok, "lead-1", "escritura.pdf", "v1")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, 1, d1.Version)

	status, d2 := a.upload(t, tok, "lead-1", "escritura.pdf", "v2 con más datos")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, d1.ID, d2.ID)
	assert.Equal(t, 2, d2.Version)
	require.Len(t, d2.VersionHistory, 1)
	assert.Equal(t, d1.Path, d2.VersionHistory[0].Path)

	var u dto.SignedURLResponse
	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/documents/"+d2.ID+"/url", tok, nil, &u))
	assert.Equal(t, "https://blobs.local/"+d2.Path, u.URL)
	assert.Equal(t, 60, u.ExpiresInSeconds)

	require.Equal(t, http.StatusNoContent, a.call(t, http.MethodDelete, "/api/documents/"+d2.ID, tok, nil, nil))
	assert.Empty(t, a.blobs.blobs, "borrar elimina todas las versiones del blob store")
	assert.Equal(t, http.StatusNotFound, a.call(t, http.MethodGet, "/api/documents/"+d2.ID, tok, nil, nil))
}

func TestDocumentos_SinArchivo_Retorna400(t *testing.T) {
	a := newAPI(t)
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("entity_type", "lead"))
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", bearer(t, "u-inv", entity.RoleInvestorServices))
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCorreo_SincronizarSinBuzonConfigurado_Retorna422(t *testing.T) {
	a := newAPI(t)
	assert.Equal(t, http.StatusUnprocessableEntity, a.call(t, http.MethodPost, "/api/email/sync",
		bearer(t, "u-inv", entity.RoleInvestorServices), nil, nil))
}

func TestCorreo_CrearLeadDesdeMensaje(t *testing.T) {
	a := newAPI(t)
	tok := bearer(t, "u-inv", entity.RoleInvestorServices)
	msg := &entity.InboundMessage{
		ID: "m-1", Provider: entity.SourceGmail, ExternalID: "ext-1",
		SenderName: "Marta Gómez", SenderEmail: "marta@agrovalle.co", Subject: "Interés en 20 ha",
		ReceivedAt: time.Now(),
	}
	_, err := a.store.Repositories().Messages.Upsert(context.Background(), msg)
	require.NoError(t, err)

	var draft dto.CreateLeadRequest
	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/email/messages/m-1/lead-draft", tok, nil, &draft))
	assert.Equal(t, "Marta Gómez", draft.Name)
	assert.Equal(t, "marta@agrovalle.co", draft.Email)

	draft.InquiryType = "individual"
	draft.Priority = "medium"
	var l dto.LeadResponse
	require.Equal(t, http.StatusCreated, a.call(t, http.MethodPost, "/api/email/messages/m-1/lead", tok, draft, &l))
	assert.Equal(t, string(entity.SourceGmail), l.Source)

	var msgs []dto.InboundMessageResponse
	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/email/messages", tok, nil, &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, l.ID, msgs[0].LinkedLeadID)
}

func TestBarrido_SoloDireccion(t *testing.T) {
	a := newAPI(t)
	assert.Equal(t, http.StatusForbidden, a.call(t, http.MethodPost, "/api/automation/sweep",
		bearer(t, "u-inv", entity.RoleInvestorServices), nil, nil))

	var res automation.Result
	require.Equal(t, http.StatusOK, a.call(t, http.MethodPost, "/api/automation/sweep",
		bearer(t, "u-senior", entity.RoleSeniorManagement), nil, &res))
	assert.False(t, res.Skipped)
	assert.Zero(t, res.LeadsArchived)
}

// ──────────────────────────────────────────────────────────────────────────────
// Actividad
// ──────────────────────────────────────────────────────────────────────────────

func TestTareas_AsignacionNotificaAlResponsable(t *testing.T) {
	a := newAPI(t)
	ana := bearer(t, "u-ana", entity.RoleInvestorServices)
	luis := bearer(t, "u-luis", entity.RoleLegalServices)

	var task dto.TaskResponse
	require.Equal(t, http.StatusCreated, a.call(t, http.MethodPost, "/api/tasks", ana, map[string]any{
		"title": "Revisar títulos", "assigned_to": "u-luis", "priority": "high",
	}, &task))
	assert.Equal(t, "pending", task.Status)

	var mine []dto.TaskResponse
	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/tasks", luis, nil, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, task.ID, mine[0].ID)

	var notes []dto.NotificationResponse
	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/notifications?unread=true", luis, nil, &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, http.StatusNoContent, a.call(t, http.MethodPost, "/api/notifications/"+notes[0].ID+"/read", luis, nil, nil))
	require.Equal(t, http.StatusOK, a.call(t, http.MethodGet, "/api/notifications?unread=true", luis, nil, &notes))
	assert.Empty(t, notes)

	var done dto.TaskResponse
	require.Equal(t, http.StatusOK, a.call(t, http.MethodPatch, fmt.Sprintf("/api/tasks/%s/status", task.ID), luis,
		dto.UpdateTaskStatusRequest{Status: "completed", RowVersion: task.RowVersion}, &done))
	assert.Equal(t, http.StatusUnprocessableEntity, a.call(t, http.MethodPatch, fmt.Sprintf("/api/tasks/%s/status", task.ID), luis,
		dto.UpdateTaskStatusRequest{Status: "pending"}, nil))
}
