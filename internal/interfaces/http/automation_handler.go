package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/leadflow-api/internal/application/automation"
)

// AutomationHandler disparo manual del barrido.
type AutomationHandler struct {
	sweeper *automation.Sweeper
}

// NewAutomationHandler construye el handler.
func NewAutomationHandler(s *automation.Sweeper) *AutomationHandler {
	return &AutomationHandler{sweeper: s}
}

// Sweep godoc
// @Summary      Ejecutar el barrido de automatización
// @Description  skipped=true si otra corrida tiene el lock.
// @Tags         automation
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  automation.Result
// @Router       /api/automation/sweep [post]
func (h *AutomationHandler) Sweep(c *fiber.Ctx) error {
	res, err := h.sweeper.Run(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}
