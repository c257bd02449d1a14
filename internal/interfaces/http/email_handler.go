package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/leadflow-api/internal/application/dto"
	"github.com/jhoicas/leadflow-api/internal/application/emailbridge"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

// EmailHandler bandeja importada y conversión de correos en leads.
type EmailHandler struct {
	uc *emailbridge.UseCase
}

// NewEmailHandler construye el handler.
func NewEmailHandler(uc *emailbridge.UseCase) *EmailHandler {
	return &EmailHandler{uc: uc}
}

// Sync godoc
// @Summary      Importar correos nuevos del buzón
// @Tags         email
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  emailbridge.SyncResult
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/email/sync [post]
func (h *EmailHandler) Sync(c *fiber.Ctx) error {
	res, err := h.uc.SyncInbox(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// List godoc
// @Summary      Correos importados
// @Tags         email
// @Produce      json
// @Security     BearerAuth
// @Param        only_enquiries  query  bool  false  "Solo consultas"
// @Param        unlinked        query  bool  false  "Solo sin lead"
// @Param        limit           query  int   false  "Límite (default 20)"
// @Param        offset          query  int   false  "Desplazamiento"
// @Success      200  {array}  dto.InboundMessageResponse
// @Router       /api/email/messages [get]
func (h *EmailHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badQuery(c)
	}
	page.DefaultPage()
	list, err := h.uc.ListMessages(c.UserContext(), repository.MessageFilter{
		OnlyEnquiries: c.QueryBool("only_enquiries"),
		Unlinked:      c.QueryBool("unlinked"),
		Limit:         page.Limit,
		Offset:        page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessagesFrom(list))
}

// MarkEnquiry godoc
// @Summary      Marcar correo como consulta
// @Tags         email
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del correo"
// @Success      200  {object}  dto.InboundMessageResponse
// @Router       /api/email/messages/{id}/enquiry [post]
func (h *EmailHandler) MarkEnquiry(c *fiber.Ctx) error {
	m, err := h.uc.MarkAsEnquiry(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageFrom(m))
}

// Matches godoc
// @Summary      Leads candidatos para el correo
// @Tags         email
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del correo"
// @Success      200  {array}  dto.LeadResponse
// @Router       /api/email/messages/{id}/matches [get]
func (h *EmailHandler) Matches(c *fiber.Ctx) error {
	leads, err := h.uc.FindMatchingLeads(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.LeadsFrom(leads))
}

// LeadDraft godoc
// @Summary      Borrador de lead a partir del correo
// @Tags         email
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del correo"
// @Success      200  {object}  dto.CreateLeadRequest
// @Router       /api/email/messages/{id}/lead-draft [get]
func (h *EmailHandler) LeadDraft(c *fiber.Ctx) error {
	in, err := h.uc.LeadDraftFromMessage(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.LeadDraftFrom(in))
}

// Link godoc
// @Summary      Ligar correo a un lead existente
// @Tags         email
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string               true  "ID del correo"
// @Param        body  body  dto.LinkLeadRequest  true  "lead_id"
// @Success      200   {object}  dto.InboundMessageResponse
// @Router       /api/email/messages/{id}/link [post]
func (h *EmailHandler) Link(c *fiber.Ctx) error {
	var in dto.LinkLeadRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	m, err := h.uc.LinkToLead(c.UserContext(), c.Params("id"), in.LeadID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageFrom(m))
}

// CreateLead godoc
// @Summary      Crear lead desde el correo (confirmado por el usuario)
// @Tags         email
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                 true  "ID del correo"
// @Param        body  body  dto.CreateLeadRequest  true  "Borrador revisado"
// @Success      201   {object}  dto.LeadResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/email/messages/{id}/lead [post]
func (h *EmailHandler) CreateLead(c *fiber.Ctx) error {
	var in dto.CreateLeadRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	l, err := h.uc.ConfirmLeadFromMessage(c.UserContext(), actorFrom(c), c.Params("id"), in.Input())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.LeadFrom(l))
}
