package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/leadflow-api/internal/application/dto"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	apphttp "github.com/jhoicas/leadflow-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/leadflow-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testIssuer    = "leadflow-test"
	testExpMin    = 60
)

// guardedApp GET /guarded detrás de AuthMiddleware + RequireRole; responde los locals.
func guardedApp(roles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/guarded", apphttp.AuthMiddleware(testJWTSecret), apphttp.RequireRole(roles...), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": apphttp.GetUserID(c), "role": apphttp.GetRole(c)})
	})
	return app
}

func signed(t *testing.T, secret, role string, issuedAt time.Time) string {
	t.Helper()
	tok, _, err := pkgjwt.Generate(secret, "u-77", role, testIssuer, testExpMin, issuedAt)
	require.NoError(t, err)
	return "Bearer " + tok
}

// ──────────────────────────────────────────────────────────────────────────────
// AuthMiddleware: rechazos de token
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_RechazaTokens(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"esquema basic", "Basic dXNlcjpwdw==", "INVALID_TOKEN"},
		{"token malformado", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
		{"firmado con otra clave", signed(t, "otra-clave", entity.RoleLegalServices, now), "INVALID_TOKEN"},
		{"expirado", signed(t, testJWTSecret, entity.RoleLegalServices, now.Add(-2*time.Hour)), "INVALID_TOKEN"},
	}
	app := guardedApp(entity.RoleLegalServices)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := hit(t, app, tc.header)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestAuthMiddleware_CargaClaims(t *testing.T) {
	app := guardedApp(entity.RoleSeniorManagement)
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", signed(t, testJWTSecret, entity.RoleSeniorManagement, time.Now()))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "u-77", got["user_id"])
	assert.Equal(t, entity.RoleSeniorManagement, got["role"])
}

// ──────────────────────────────────────────────────────────────────────────────
// RequireRole
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name    string
		allowed []string
		role    string
		status  int
		code    string
	}{
		{"rol exacto", []string{entity.RoleSeniorManagement}, entity.RoleSeniorManagement, http.StatusOK, ""},
		{"uno de varios", []string{entity.RoleSeniorManagement, entity.RoleLegalServices}, entity.RoleLegalServices, http.StatusOK, ""},
		{"inversionistas en ruta de dirección", []string{entity.RoleSeniorManagement}, entity.RoleInvestorServices, http.StatusForbidden, "FORBIDDEN"},
		{"legal en ruta de desarrollo", []string{entity.RolePropertyDevelopment}, entity.RoleLegalServices, http.StatusForbidden, "FORBIDDEN"},
		{"token sin rol", []string{entity.RoleSeniorManagement}, "", http.StatusUnauthorized, "MISSING_ROLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := hit(t, guardedApp(tc.allowed...), signed(t, testJWTSecret, tc.role, time.Now()))
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

// hit GET /guarded; body solo trae Code en respuestas de error.
func hit(t *testing.T, app *fiber.App, header string) (int, dto.ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body dto.ErrorResponse
	if resp.StatusCode != http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}
