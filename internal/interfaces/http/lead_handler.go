package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/leadflow-api/internal/application/activity"
	"github.com/jhoicas/leadflow-api/internal/application/dto"
	"github.com/jhoicas/leadflow-api/internal/application/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

// LeadHandler alta, edición y transiciones de leads.
type LeadHandler struct {
	svc   *lifecycle.Service
	locks *activity.LeadLocks
}

// NewLeadHandler construye el handler.
func NewLeadHandler(svc *lifecycle.Service, locks *activity.LeadLocks) *LeadHandler {
	return &LeadHandler{svc: svc, locks: locks}
}

// Create godoc
// @Summary      Crear lead
// @Description  Un core investor sin export_quota/plot_size exige status_choice.
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateLeadRequest  true  "Datos del lead"
// @Success      201   {object}  dto.LeadResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/leads [post]
func (h *LeadHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateLeadRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	l, err := h.svc.CreateLead(c.UserContext(), actorFrom(c), in.Input())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.LeadFrom(l))
}

// List godoc
// @Summary      Listar leads
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        status    query  string  false  "Estados separados por coma"
// @Param        priority  query  string  false  "high, medium, low"
// @Param        owner_id  query  string  false  "Responsable"
// @Param        search    query  string  false  "Búsqueda por nombre"
// @Param        limit     query  int     false  "Límite (default 20)"
// @Param        offset    query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.LeadListResponse
// @Router       /api/leads [get]
func (h *LeadHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badQuery(c)
	}
	page.DefaultPage()
	f := repository.LeadFilter{
		Priority: entity.Priority(c.Query("priority")),
		OwnerID:  c.Query("owner_id"),
		Search:   c.Query("search"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	}
	for _, s := range splitCSV(c.Query("status")) {
		f.Statuses = append(f.Statuses, entity.LeadStatus(s))
	}
	list, err := h.svc.ListLeads(c.UserContext(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.LeadListResponse{
		Items: dto.LeadsFrom(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// GetByID godoc
// @Summary      Obtener lead
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del lead"
// @Success      200  {object}  dto.LeadResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/leads/{id} [get]
func (h *LeadHandler) GetByID(c *fiber.Ctx) error {
	l, err := h.svc.GetLead(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.LeadFrom(l))
}

// Update godoc
// @Summary      Editar lead
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                 true  "ID del lead"
// @Param        body  body  dto.UpdateLeadRequest  true  "Campos a modificar y row_version"
// @Success      200   {object}  dto.LeadResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/leads/{id} [put]
func (h *LeadHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateLeadRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	l, err := h.svc.UpdateLead(c.UserContext(), actorFrom(c), c.Params("id"), in.Input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.LeadFrom(l))
}

// Delete godoc
// @Summary      Eliminar lead (administración de datos)
// @Tags         leads
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del lead"
// @Success      204
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/leads/{id} [delete]
func (h *LeadHandler) Delete(c *fiber.Ctx) error {
	if err := h.svc.DeleteLead(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type leadTransition func(h *LeadHandler, c *fiber.Ctx, in dto.VersionRequest) (*entity.Lead, error)

// transition arma los handlers approve/reject/archive/restore/submit.
func (h *LeadHandler) transition(fn leadTransition) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in dto.VersionRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&in); err != nil {
				return badBody(c)
			}
		}
		l, err := fn(h, c, in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(dto.LeadFrom(l))
	}
}

// Approve godoc
// @Summary      Aprobar lead
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string              true  "ID del lead"
// @Param        body  body  dto.VersionRequest  false "row_version"
// @Success      200   {object}  dto.LeadResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/leads/{id}/approve [post]
func (h *LeadHandler) Approve() fiber.Handler {
	return h.transition(func(h *LeadHandler, c *fiber.Ctx, in dto.VersionRequest) (*entity.Lead, error) {
		return h.svc.ApproveLead(c.UserContext(), actorFrom(c), c.Params("id"), in.RowVersion)
	})
}

// Reject godoc
// @Summary      Rechazar lead
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string              true  "ID del lead"
// @Param        body  body  dto.VersionRequest  false "row_version y reason"
// @Success      200   {object}  dto.LeadResponse
// @Router       /api/leads/{id}/reject [post]
func (h *LeadHandler) Reject() fiber.Handler {
	return h.transition(func(h *LeadHandler, c *fiber.Ctx, in dto.VersionRequest) (*entity.Lead, error) {
		return h.svc.RejectLead(c.UserContext(), actorFrom(c), c.Params("id"), in.Reason, in.RowVersion)
	})
}

// Archive godoc
// @Summary      Archivar lead
// @Tags         leads
// @Security     BearerAuth
// @Param        id    path  string              true  "ID del lead"
// @Param        body  body  dto.VersionRequest  false "row_version"
// @Success      200   {object}  dto.LeadResponse
// @Router       /api/leads/{id}/archive [post]
func (h *LeadHandler) Archive() fiber.Handler {
	return h.transition(func(h *LeadHandler, c *fiber.Ctx, in dto.VersionRequest) (*entity.Lead, error) {
		return h.svc.ArchiveLead(c.UserContext(), actorFrom(c), c.Params("id"), in.RowVersion)
	})
}

// Restore godoc
// @Summary      Restaurar lead archivado
// @Tags         leads
// @Security     BearerAuth
// @Param        id    path  string              true  "ID del lead"
// @Param        body  body  dto.VersionRequest  false "row_version"
// @Success      200   {object}  dto.LeadResponse
// @Router       /api/leads/{id}/restore [post]
func (h *LeadHandler) Restore() fiber.Handler {
	return h.transition(func(h *LeadHandler, c *fiber.Ctx, in dto.VersionRequest) (*entity.Lead, error) {
		return h.svc.RestoreLead(c.UserContext(), actorFrom(c), c.Params("id"), in.RowVersion)
	})
}

// Submit godoc
// @Summary      Enviar lead a aprobación
// @Tags         leads
// @Security     BearerAuth
// @Param        id    path  string              true  "ID del lead"
// @Param        body  body  dto.VersionRequest  false "row_version"
// @Success      200   {object}  dto.LeadResponse
// @Router       /api/leads/{id}/submit [post]
func (h *LeadHandler) Submit() fiber.Handler {
	return h.transition(func(h *LeadHandler, c *fiber.Ctx, in dto.VersionRequest) (*entity.Lead, error) {
		return h.svc.SubmitLeadForApproval(c.UserContext(), actorFrom(c), c.Params("id"), in.RowVersion)
	})
}

// Convert godoc
// @Summary      Convertir lead en oportunidad
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del lead"
// @Success      201  {object}  dto.ConversionResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/leads/{id}/convert [post]
func (h *LeadHandler) Convert(c *fiber.Ctx) error {
	o, cl, err := h.svc.ConvertLeadToOpportunity(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ConversionResponse{
		Opportunity: dto.OpportunityFrom(o),
		Checklist:   dto.ChecklistFrom(cl),
	})
}

// History godoc
// @Summary      Historial de auditoría del lead
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del lead"
// @Success      200  {array}  dto.AuditEntryResponse
// @Router       /api/leads/{id}/history [get]
func (h *LeadHandler) History(c *fiber.Ctx) error {
	list, err := h.svc.LeadHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.AuditFrom(list))
}

// AcquireLock godoc
// @Summary      Tomar el lock de edición del lead
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del lead"
// @Success      200  {object}  dto.LockResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/leads/{id}/lock [post]
func (h *LeadHandler) AcquireLock(c *fiber.Ctx) error {
	st, err := h.locks.Acquire(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.LockFrom(st))
}

// ReleaseLock godoc
// @Summary      Liberar el lock de edición
// @Tags         leads
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del lead"
// @Success      204
// @Router       /api/leads/{id}/lock [delete]
func (h *LeadHandler) ReleaseLock(c *fiber.Ctx) error {
	if _, err := h.locks.Release(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LockStatus godoc
// @Summary      Estado del lock de edición
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del lead"
// @Success      200  {object}  dto.LockResponse
// @Router       /api/leads/{id}/lock [get]
func (h *LeadHandler) LockStatus(c *fiber.Ctx) error {
	st, err := h.locks.Status(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.LockFrom(st))
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
