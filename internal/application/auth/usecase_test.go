package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/leadflow-api/internal/application/auth"
	"github.com/jhoicas/leadflow-api/internal/application/dto"
	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/infrastructure/memory"
	"github.com/jhoicas/leadflow-api/pkg/jwt"
)

func seed(t *testing.T, store *memory.Store, email, password, status string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	store.SeedUser(&entity.User{
		ID: "u-" + email, Email: email, PasswordHash: string(hash), Name: email,
		Role: entity.RoleSeniorManagement, Status: status, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
}

func newAuth(store *memory.Store) *auth.AuthUseCase {
	return auth.NewAuthUseCase(store.Repositories().Users, auth.JWTConfig{Secret: "s3cr3t", ExpMinutes: 60, Issuer: "leadflow"}, zerolog.Nop())
}

func TestLogin_OK(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "sofia@leadflow.com", "clave-larga", "active")

	res, err := newAuth(store).Login(context.Background(), dto.LoginRequest{Email: " Sofia@LeadFlow.com ", Password: "clave-larga"})
	require.NoError(t, err)
	assert.Equal(t, "sofia@leadflow.com", res.User.Email)

	userID, role, err := jwt.Parse("s3cr3t", res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, userID)
	assert.Equal(t, entity.RoleSeniorManagement, role)
}

func TestLogin_Credenciales(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "sofia@leadflow.com", "clave-larga", "active")
	seed(t, store, "inactivo@leadflow.com", "clave-larga", "suspended")
	uc := newAuth(store)
	ctx := context.Background()

	_, err := uc.Login(ctx, dto.LoginRequest{Email: "sofia@leadflow.com", Password: "otra"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@leadflow.com", Password: "clave-larga"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(ctx, dto.LoginRequest{Email: "inactivo@leadflow.com", Password: "clave-larga"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = uc.Login(ctx, dto.LoginRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMe(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, "sofia@leadflow.com", "clave-larga", "active")
	seed(t, store, "inactivo@leadflow.com", "clave-larga", "suspended")
	uc := newAuth(store)
	ctx := context.Background()

	me, err := uc.Me(ctx, "u-sofia@leadflow.com")
	require.NoError(t, err)
	assert.Equal(t, "sofia@leadflow.com", me.Email)
	assert.Equal(t, entity.RoleSeniorManagement, me.Role)

	_, err = uc.Me(ctx, "u-inactivo@leadflow.com")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = uc.Me(ctx, "u-nadie")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
