package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/leadflow-api/internal/application/dto"
	"github.com/jhoicas/leadflow-api/internal/application/pipeline"
	domainpipeline "github.com/jhoicas/leadflow-api/internal/domain/pipeline"
)

// PipelineHandler tablero kanban de leads u oportunidades.
type PipelineHandler struct {
	uc *pipeline.UseCase
}

// NewPipelineHandler construye el handler.
func NewPipelineHandler(uc *pipeline.UseCase) *PipelineHandler {
	return &PipelineHandler{uc: uc}
}

// Board godoc
// @Summary      Tablero por etapas
// @Tags         pipeline
// @Produce      json
// @Security     BearerAuth
// @Param        type            path   string  true   "lead u opportunity"
// @Param        search          query  string  false  "Filtro por nombre"
// @Param        include_closed  query  bool    false  "Incluir leads rechazados/archivados"
// @Success      200  {array}  dto.BucketResponse[dto.LeadResponse]
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/pipeline/{type} [get]
func (h *PipelineHandler) Board(c *fiber.Ctx) error {
	t, err := domainpipeline.ParseType(c.Params("type"))
	if err != nil {
		return respondError(c, err)
	}
	search := c.Query("search")
	if t == domainpipeline.TypeLead {
		buckets, err := h.uc.LeadBoard(c.UserContext(), search, c.QueryBool("include_closed"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(dto.BucketsFrom(buckets, dto.LeadFrom))
	}
	buckets, err := h.uc.OpportunityBoard(c.UserContext(), search)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.BucketsFrom(buckets, dto.OpportunityFrom))
}

// Move godoc
// @Summary      Mover tarjeta de etapa
// @Tags         pipeline
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        type  path  string           true  "lead u opportunity"
// @Param        body  body  dto.MoveRequest  true  "id, target_stage y row_version"
// @Success      200   {object}  dto.MoveResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/pipeline/{type}/move [post]
func (h *PipelineHandler) Move(c *fiber.Ctx) error {
	t, err := domainpipeline.ParseType(c.Params("type"))
	if err != nil {
		return respondError(c, err)
	}
	var in dto.MoveRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	changed, err := h.uc.MoveItem(c.UserContext(), actorFrom(c), t, in.ID, in.TargetStage, in.RowVersion)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MoveResponse{Changed: changed})
}
