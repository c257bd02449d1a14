package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/leadflow-api/internal/application/dto"
	"github.com/jhoicas/leadflow-api/internal/application/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

// OpportunityHandler oportunidades y sus artefactos de due diligence
// (NDA, plan de negocio, checklist y aprobaciones).
type OpportunityHandler struct {
	svc *lifecycle.Service
}

// NewOpportunityHandler construye el handler.
func NewOpportunityHandler(svc *lifecycle.Service) *OpportunityHandler {
	return &OpportunityHandler{svc: svc}
}

// List godoc
// @Summary      Listar oportunidades
// @Tags         opportunities
// @Produce      json
// @Security     BearerAuth
// @Param        status  query  string  false  "Estados separados por coma"
// @Param        search  query  string  false  "Búsqueda por nombre del lead"
// @Param        limit   query  int     false  "Límite (default 20)"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {array}  dto.OpportunityResponse
// @Router       /api/opportunities [get]
func (h *OpportunityHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badQuery(c)
	}
	page.DefaultPage()
	f := repository.OpportunityFilter{Search: c.Query("search"), Limit: page.Limit, Offset: page.Offset}
	for _, s := range splitCSV(c.Query("status")) {
		f.Statuses = append(f.Statuses, entity.OpportunityStatus(s))
	}
	list, err := h.svc.ListOpportunities(c.UserContext(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OpportunitiesFrom(list))
}

// GetByID godoc
// @Summary      Obtener oportunidad
// @Tags         opportunities
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la oportunidad"
// @Success      200  {object}  dto.OpportunityResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/opportunities/{id} [get]
func (h *OpportunityHandler) GetByID(c *fiber.Ctx) error {
	o, err := h.svc.GetOpportunity(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OpportunityFrom(o))
}

// History godoc
// @Summary      Historial de auditoría de la oportunidad
// @Tags         opportunities
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la oportunidad"
// @Success      200  {array}  dto.AuditEntryResponse
// @Router       /api/opportunities/{id}/history [get]
func (h *OpportunityHandler) History(c *fiber.Ctx) error {
	list, err := h.svc.OpportunityHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.AuditFrom(list))
}

// Reject godoc
// @Summary      Rechazar oportunidad
// @Tags         opportunities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string              true  "ID de la oportunidad"
// @Param        body  body  dto.VersionRequest  false "row_version y reason"
// @Success      200   {object}  dto.OpportunityResponse
// @Router       /api/opportunities/{id}/reject [post]
func (h *OpportunityHandler) Reject(c *fiber.Ctx) error {
	var in dto.VersionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	o, err := h.svc.RejectOpportunity(c.UserContext(), actorFrom(c), c.Params("id"), in.Reason, in.RowVersion)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OpportunityFrom(o))
}

// ScheduleSiteVisit godoc
// @Summary      Agendar visita al predio
// @Tags         opportunities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                true  "ID de la oportunidad"
// @Param        body  body  dto.SiteVisitRequest  true  "Fecha y notas"
// @Success      200   {object}  dto.OpportunityResponse
// @Router       /api/opportunities/{id}/site-visit [post]
func (h *OpportunityHandler) ScheduleSiteVisit(c *fiber.Ctx) error {
	var in dto.SiteVisitRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	o, err := h.svc.ScheduleSiteVisit(c.UserContext(), actorFrom(c), c.Params("id"), in.Date, in.Notes, in.RowVersion)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OpportunityFrom(o))
}

// ──────────────────────────────────────────────────────────────────────────────
// NDA
// ──────────────────────────────────────────────────────────────────────────────

// IssueNda godoc
// @Summary      Emitir nueva versión del NDA
// @Description  Si falla la generación del PDF el NDA queda emitido y se devuelven warnings.
// @Tags         ndas
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la oportunidad"
// @Success      201  {object}  dto.NdaResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/opportunities/{id}/ndas [post]
func (h *OpportunityHandler) IssueNda(c *fiber.Ctx) error {
	n, out, err := h.svc.IssueNda(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	resp := dto.NdaFrom(n)
	resp.Warnings = dto.Warnings(out.Warnings)
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListNdas godoc
// @Summary      Versiones de NDA de la oportunidad
// @Tags         ndas
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la oportunidad"
// @Success      200  {array}  dto.NdaResponse
// @Router       /api/opportunities/{id}/ndas [get]
func (h *OpportunityHandler) ListNdas(c *fiber.Ctx) error {
	list, err := h.svc.ListNdas(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NdasFrom(list))
}

func (h *OpportunityHandler) ndaStep(fn func(h *OpportunityHandler, c *fiber.Ctx) (*entity.Nda, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := fn(h, c)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(dto.NdaFrom(n))
	}
}

// SignNda godoc
// @Summary      Marcar NDA firmado por el inversionista
// @Tags         ndas
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del NDA"
// @Success      200  {object}  dto.NdaResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/ndas/{id}/sign [post]
func (h *OpportunityHandler) SignNda() fiber.Handler {
	return h.ndaStep(func(h *OpportunityHandler, c *fiber.Ctx) (*entity.Nda, error) {
		return h.svc.MarkNdaSigned(c.UserContext(), actorFrom(c), c.Params("id"))
	})
}

// CountersignNda godoc
// @Summary      Marcar NDA contrafirmado
// @Tags         ndas
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del NDA"
// @Success      200  {object}  dto.NdaResponse
// @Router       /api/ndas/{id}/countersign [post]
func (h *OpportunityHandler) CountersignNda() fiber.Handler {
	return h.ndaStep(func(h *OpportunityHandler, c *fiber.Ctx) (*entity.Nda, error) {
		return h.svc.MarkNdaCounterSigned(c.UserContext(), actorFrom(c), c.Params("id"))
	})
}

// CompleteNda godoc
// @Summary      Marcar NDA completado
// @Tags         ndas
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del NDA"
// @Success      200  {object}  dto.NdaResponse
// @Router       /api/ndas/{id}/complete [post]
func (h *OpportunityHandler) CompleteNda() fiber.Handler {
	return h.ndaStep(func(h *OpportunityHandler, c *fiber.Ctx) (*entity.Nda, error) {
		return h.svc.MarkNdaCompleted(c.UserContext(), actorFrom(c), c.Params("id"))
	})
}

// AttachNdaDocument godoc
// @Summary      Ligar documento al NDA
// @Tags         ndas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                     true  "ID del NDA"
// @Param        body  body  dto.AttachDocumentRequest  true  "document_id"
// @Success      200   {object}  dto.NdaResponse
// @Router       /api/ndas/{id}/document [post]
func (h *OpportunityHandler) AttachNdaDocument(c *fiber.Ctx) error {
	var in dto.AttachDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	n, err := h.svc.AttachNdaDocument(c.UserContext(), actorFrom(c), c.Params("id"), in.DocumentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NdaFrom(n))
}

// ──────────────────────────────────────────────────────────────────────────────
// Plan de negocio
// ──────────────────────────────────────────────────────────────────────────────

// RequestBusinessPlan godoc
// @Summary      Solicitar plan de negocio
// @Tags         business-plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                          true   "ID de la oportunidad"
// @Param        body  body  dto.RequestBusinessPlanRequest  false  "Notas"
// @Success      201   {object}  dto.BusinessPlanResponse
// @Router       /api/opportunities/{id}/business-plans/request [post]
func (h *OpportunityHandler) RequestBusinessPlan(c *fiber.Ctx) error {
	var in dto.RequestBusinessPlanRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	p, err := h.svc.RequestBusinessPlan(c.UserContext(), actorFrom(c), c.Params("id"), in.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.BusinessPlanFrom(p))
}

// UploadBusinessPlan godoc
// @Summary      Registrar documento de plan de negocio (nueva versión)
// @Tags         business-plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                     true  "ID de la oportunidad"
// @Param        body  body  dto.AttachDocumentRequest  true  "document_id; status vacío o received"
// @Success      201   {object}  dto.BusinessPlanResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/opportunities/{id}/business-plans [post]
func (h *OpportunityHandler) UploadBusinessPlan(c *fiber.Ctx) error {
	var in dto.AttachDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	p, err := h.svc.UploadBusinessPlanDocument(c.UserContext(), actorFrom(c), c.Params("id"), in.DocumentID,
		entity.BusinessPlanStatus(in.Status))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.BusinessPlanFrom(p))
}

// ListBusinessPlans godoc
// @Summary      Versiones del plan de negocio
// @Tags         business-plans
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la oportunidad"
// @Success      200  {array}  dto.BusinessPlanResponse
// @Router       /api/opportunities/{id}/business-plans [get]
func (h *OpportunityHandler) ListBusinessPlans(c *fiber.Ctx) error {
	list, err := h.svc.ListBusinessPlans(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BusinessPlansFrom(list))
}

type planReview func(s *lifecycle.Service, c *fiber.Ctx, feedback string) (*entity.BusinessPlan, error)

func (h *OpportunityHandler) review(fn planReview) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in dto.ReviewRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&in); err != nil {
				return badBody(c)
			}
		}
		p, err := fn(h.svc, c, in.Feedback)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(dto.BusinessPlanFrom(p))
	}
}

// ApproveBusinessPlan godoc
// @Summary      Aprobar plan de negocio
// @Tags         business-plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string             true   "ID del plan"
// @Param        body  body  dto.ReviewRequest  false  "feedback"
// @Success      200   {object}  dto.BusinessPlanResponse
// @Router       /api/business-plans/{id}/approve [post]
func (h *OpportunityHandler) ApproveBusinessPlan() fiber.Handler {
	return h.review(func(s *lifecycle.Service, c *fiber.Ctx, feedback string) (*entity.BusinessPlan, error) {
		return s.ApproveBusinessPlan(c.UserContext(), actorFrom(c), c.Params("id"), feedback)
	})
}

// RejectBusinessPlan godoc
// @Summary      Rechazar plan de negocio
// @Tags         business-plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string             true   "ID del plan"
// @Param        body  body  dto.ReviewRequest  false  "feedback"
// @Success      200   {object}  dto.BusinessPlanResponse
// @Router       /api/business-plans/{id}/reject [post]
func (h *OpportunityHandler) RejectBusinessPlan() fiber.Handler {
	return h.review(func(s *lifecycle.Service, c *fiber.Ctx, feedback string) (*entity.BusinessPlan, error) {
		return s.RejectBusinessPlan(c.UserContext(), actorFrom(c), c.Params("id"), feedback)
	})
}

// RequestBusinessPlanUpdates godoc
// @Summary      Pedir cambios al plan de negocio
// @Tags         business-plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string             true   "ID del plan"
// @Param        body  body  dto.ReviewRequest  false  "feedback"
// @Success      200   {object}  dto.BusinessPlanResponse
// @Router       /api/business-plans/{id}/request-updates [post]
func (h *OpportunityHandler) RequestBusinessPlanUpdates() fiber.Handler {
	return h.review(func(s *lifecycle.Service, c *fiber.Ctx, feedback string) (*entity.BusinessPlan, error) {
		return s.RequestBusinessPlanUpdates(c.UserContext(), actorFrom(c), c.Params("id"), feedback)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Checklist
// ──────────────────────────────────────────────────────────────────────────────

// CreateChecklist godoc
// @Summary      Crear checklist de due diligence
// @Description  Sin ítems se usa la plantilla configurada.
// @Tags         checklist
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                      true   "ID de la oportunidad"
// @Param        body  body  dto.CreateChecklistRequest  false  "Ítems"
// @Success      201   {object}  dto.ChecklistResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/opportunities/{id}/checklist [post]
func (h *OpportunityHandler) CreateChecklist(c *fiber.Ctx) error {
	var in dto.CreateChecklistRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	cl, err := h.svc.CreateChecklist(c.UserContext(), actorFrom(c), c.Params("id"), in.Inputs())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ChecklistFrom(cl))
}

// GetChecklist godoc
// @Summary      Checklist de la oportunidad
// @Tags         checklist
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la oportunidad"
// @Success      200  {object}  dto.ChecklistResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/opportunities/{id}/checklist [get]
func (h *OpportunityHandler) GetChecklist(c *fiber.Ctx) error {
	cl, err := h.svc.GetChecklist(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ChecklistFrom(cl))
}

// UpdateChecklistItem godoc
// @Summary      Cambiar estado de un ítem
// @Description  Recalcula el estado de evaluación de la oportunidad.
// @Tags         checklist
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                          true  "ID del ítem"
// @Param        body  body  dto.UpdateChecklistItemRequest  true  "status, notes y row_version"
// @Success      200   {object}  dto.ChecklistItemResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/checklist-items/{id} [patch]
func (h *OpportunityHandler) UpdateChecklistItem(c *fiber.Ctx) error {
	var in dto.UpdateChecklistItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	it, out, err := h.svc.UpdateChecklistItemStatus(c.UserContext(), actorFrom(c), c.Params("id"), in.Input())
	if err != nil {
		return respondError(c, err)
	}
	resp := dto.ChecklistItemFrom(it)
	resp.Warnings = dto.Warnings(out.Warnings)
	return c.JSON(resp)
}

// ──────────────────────────────────────────────────────────────────────────────
// Aprobaciones
// ──────────────────────────────────────────────────────────────────────────────

func (h *OpportunityHandler) grant(final bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in dto.CommentsRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&in); err != nil {
				return badBody(c)
			}
		}
		grant := h.svc.GrantDueDiligenceApproval
		if final {
			grant = h.svc.GrantFinalApproval
		}
		a, err := grant(c.UserContext(), actorFrom(c), c.Params("id"), in.Comments)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(dto.ApprovalFrom(a))
	}
}

// GrantDueDiligence godoc
// @Summary      Aprobación de due diligence
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string               true   "ID de la oportunidad"
// @Param        body  body  dto.CommentsRequest  false  "Comentarios"
// @Success      201   {object}  dto.ApprovalResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/opportunities/{id}/approvals/due-diligence [post]
func (h *OpportunityHandler) GrantDueDiligence() fiber.Handler { return h.grant(false) }

// GrantFinal godoc
// @Summary      Aprobación final (senior_management)
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string               true   "ID de la oportunidad"
// @Param        body  body  dto.CommentsRequest  false  "Comentarios"
// @Success      201   {object}  dto.ApprovalResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/opportunities/{id}/approvals/final [post]
func (h *OpportunityHandler) GrantFinal() fiber.Handler { return h.grant(true) }

// ListApprovals godoc
// @Summary      Aprobaciones de la oportunidad
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la oportunidad"
// @Success      200  {array}  dto.ApprovalResponse
// @Router       /api/opportunities/{id}/approvals [get]
func (h *OpportunityHandler) ListApprovals(c *fiber.Ctx) error {
	list, err := h.svc.ListApprovals(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ApprovalsFrom(list))
}
