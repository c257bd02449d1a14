package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/leadflow-api/internal/application/dto"
	"github.com/jhoicas/leadflow-api/internal/domain"
)

// localError guarda el error de la petición para el request logger.
const localError = "request_error"

// respondError traduce errores de dominio a dto.ErrorResponse.
func respondError(c *fiber.Ctx, err error) error {
	c.Locals(localError, err)
	status, code := classify(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func classify(err error) (int, string) {
	var ve *domain.ValidationError
	var te *domain.TransitionError
	switch {
	case errors.As(err, &te):
		return fiber.StatusUnprocessableEntity, "INVALID_TRANSITION"
	case errors.As(err, &ve):
		return fiber.StatusUnprocessableEntity, ve.Code
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusUnprocessableEntity, domain.CodeValidation
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrStorage):
		return fiber.StatusServiceUnavailable, "STORAGE"
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func badQuery(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_PARAMS", Message: "parámetros de consulta inválidos"})
}
