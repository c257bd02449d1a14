package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/leadflow-api/internal/application/dto"
	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
	"github.com/jhoicas/leadflow-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase login de usuarios. El alta la hace el portal de administración.
type AuthUseCase struct {
	users  repository.UserRepository
	jwtCfg JWTConfig
	log    zerolog.Logger
	now    func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(users repository.UserRepository, jwtCfg JWTConfig, log zerolog.Logger) *AuthUseCase {
	return &AuthUseCase{users: users, jwtCfg: jwtCfg, log: log.With().Str("component", "auth").Logger(), now: time.Now}
}

// Login verifica email/password, genera JWT y retorna token + usuario.
// Usuario inexistente y password incorrecto devuelven el mismo error.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, domain.NewValidationError(domain.CodeValidation, "email y password son requeridos")
	}
	user, err := uc.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, &domain.StorageError{Op: "get", Entity: "user", Err: err}
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if user.Status != "active" {
		return nil, domain.ErrForbidden
	}
	token, exp, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes, uc.now())
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("login")
	return &dto.LoginResponse{Token: token, ExpiresAt: exp, User: dto.UserFrom(user)}, nil
}

// Me perfil del usuario del token. Un usuario desactivado después de emitido el token queda fuera.
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, &domain.StorageError{Op: "get", Entity: "user", ID: userID, Err: err}
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	if user.Status != "active" {
		return nil, domain.ErrForbidden
	}
	out := dto.UserFrom(user)
	return &out, nil
}
