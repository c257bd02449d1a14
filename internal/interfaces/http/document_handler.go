package http

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/leadflow-api/internal/application/documents"
	"github.com/jhoicas/leadflow-api/internal/application/dto"
)

// maxUploadBytes tope de lectura por archivo subido.
const maxUploadBytes = 25 << 20

// DocumentHandler subida versionada y descarga firmada de documentos.
type DocumentHandler struct {
	uc *documents.UseCase
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(uc *documents.UseCase) *DocumentHandler {
	return &DocumentHandler{uc: uc}
}

// Upload godoc
// @Summary      Subir documento
// @Description  Un archivo con el mismo nombre sobre la misma entidad crea una nueva versión.
// @Tags         documents
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        entity_type  formData  string  true   "Tipo de entidad"
// @Param        entity_id    formData  string  true   "ID de la entidad"
// @Param        name         formData  string  false  "Nombre (default: nombre del archivo)"
// @Param        file         formData  file    true   "Archivo"
// @Success      201  {object}  dto.DocumentResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/documents [post]
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_FILE", Message: "campo file requerido"})
	}
	if fh.Size > maxUploadBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{Code: "FILE_TOO_LARGE", Message: "archivo demasiado grande"})
	}
	f, err := fh.Open()
	if err != nil {
		return badBody(c)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return badBody(c)
	}

	name := c.FormValue("name")
	if name == "" {
		name = fh.Filename
	}
	d, err := h.uc.Upload(c.UserContext(), actorFrom(c), documents.UploadInput{
		EntityType:  c.FormValue("entity_type"),
		EntityID:    c.FormValue("entity_id"),
		Name:        name,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.DocumentFrom(d))
}

// Get godoc
// @Summary      Metadatos del documento
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	d, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.DocumentFrom(d))
}

// SignedURL godoc
// @Summary      URL temporal de descarga
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.SignedURLResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/url [get]
func (h *DocumentHandler) SignedURL(c *fiber.Ctx) error {
	url, ttl, err := h.uc.SignedURL(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SignedURLResponse{URL: url, ExpiresInSeconds: int(ttl.Seconds())})
}

// Delete godoc
// @Summary      Eliminar documento y todas sus versiones
// @Tags         documents
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del documento"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [delete]
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
