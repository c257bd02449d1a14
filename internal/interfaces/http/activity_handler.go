package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/leadflow-api/internal/application/activity"
	"github.com/jhoicas/leadflow-api/internal/application/dto"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

// ActivityHandler tareas, notificaciones, reuniones y comentarios.
type ActivityHandler struct {
	uc *activity.UseCase
}

// NewActivityHandler construye el handler.
func NewActivityHandler(uc *activity.UseCase) *ActivityHandler {
	return &ActivityHandler{uc: uc}
}

// CreateTask godoc
// @Summary      Crear tarea
// @Description  Si se asigna a otra persona se le notifica.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateTaskRequest  true  "Datos de la tarea"
// @Success      201   {object}  dto.TaskResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/tasks [post]
func (h *ActivityHandler) CreateTask(c *fiber.Ctx) error {
	var in dto.CreateTaskRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	t, err := h.uc.CreateTask(c.UserContext(), actorFrom(c), in.Input())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TaskFrom(t))
}

// ListTasks godoc
// @Summary      Listar tareas
// @Description  Sin assigned_to ni related_entity_id lista las del usuario autenticado.
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        assigned_to          query  string  false  "Usuario asignado"
// @Param        status               query  string  false  "Estado"
// @Param        related_entity_id    query  string  false  "Entidad relacionada"
// @Param        related_entity_type  query  string  false  "lead, opportunity, ..."
// @Param        limit                query  int     false  "Límite (default 20)"
// @Param        offset               query  int     false  "Desplazamiento"
// @Success      200  {array}  dto.TaskResponse
// @Router       /api/tasks [get]
func (h *ActivityHandler) ListTasks(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badQuery(c)
	}
	page.DefaultPage()
	f := repository.TaskFilter{
		AssignedTo:        c.Query("assigned_to"),
		Status:            entity.TaskStatus(c.Query("status")),
		RelatedEntityID:   c.Query("related_entity_id"),
		RelatedEntityType: c.Query("related_entity_type"),
		Limit:             page.Limit,
		Offset:            page.Offset,
	}
	if f.AssignedTo == "" && f.RelatedEntityID == "" {
		f.AssignedTo = GetUserID(c)
	}
	list, err := h.uc.ListTasks(c.UserContext(), f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.TasksFrom(list))
}

// UpdateTaskStatus godoc
// @Summary      Cambiar estado de una tarea
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                       true  "ID de la tarea"
// @Param        body  body  dto.UpdateTaskStatusRequest  true  "status y row_version"
// @Success      200   {object}  dto.TaskResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/tasks/{id}/status [patch]
func (h *ActivityHandler) UpdateTaskStatus(c *fiber.Ctx) error {
	var in dto.UpdateTaskStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	t, err := h.uc.UpdateTaskStatus(c.UserContext(), actorFrom(c), c.Params("id"), entity.TaskStatus(in.Status), in.RowVersion)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.TaskFrom(t))
}

// ListNotifications godoc
// @Summary      Notificaciones del usuario autenticado
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread  query  bool  false  "Solo no leídas"
// @Param        limit   query  int   false  "Límite (default 20)"
// @Success      200  {array}  dto.NotificationResponse
// @Router       /api/notifications [get]
func (h *ActivityHandler) ListNotifications(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badQuery(c)
	}
	page.DefaultPage()
	list, err := h.uc.ListNotifications(c.UserContext(), GetUserID(c), c.QueryBool("unread"), page.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NotificationsFrom(list))
}

// MarkNotificationRead godoc
// @Summary      Marcar notificación como leída
// @Tags         notifications
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la notificación"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/notifications/{id}/read [post]
func (h *ActivityHandler) MarkNotificationRead(c *fiber.Ctx) error {
	if err := h.uc.MarkNotificationRead(c.UserContext(), actorFrom(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ScheduleMeeting godoc
// @Summary      Agendar reunión
// @Tags         meetings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.ScheduleMeetingRequest  true  "Datos de la reunión"
// @Success      201   {object}  dto.MeetingResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/meetings [post]
func (h *ActivityHandler) ScheduleMeeting(c *fiber.Ctx) error {
	var in dto.ScheduleMeetingRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	m, err := h.uc.ScheduleMeeting(c.UserContext(), actorFrom(c), in.Input())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MeetingFrom(m))
}

// ListMeetings godoc
// @Summary      Reuniones de una entidad
// @Tags         meetings
// @Produce      json
// @Security     BearerAuth
// @Param        entity_type  query  string  true  "lead u opportunity"
// @Param        entity_id    query  string  true  "ID de la entidad"
// @Success      200  {array}  dto.MeetingResponse
// @Router       /api/meetings [get]
func (h *ActivityHandler) ListMeetings(c *fiber.Ctx) error {
	list, err := h.uc.ListMeetings(c.UserContext(), c.Query("entity_type"), c.Query("entity_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MeetingsFrom(list))
}

// AddComment godoc
// @Summary      Comentar una entidad
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateCommentRequest  true  "Comentario"
// @Success      201   {object}  dto.CommentResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/comments [post]
func (h *ActivityHandler) AddComment(c *fiber.Ctx) error {
	var in dto.CreateCommentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	cm, err := h.uc.AddComment(c.UserContext(), actorFrom(c), in.RelatedEntityType, in.RelatedEntityID, in.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CommentFrom(cm))
}

// ListComments godoc
// @Summary      Comentarios de una entidad
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        entity_type  query  string  true  "Tipo de entidad"
// @Param        entity_id    query  string  true  "ID de la entidad"
// @Success      200  {array}  dto.CommentResponse
// @Router       /api/comments [get]
func (h *ActivityHandler) ListComments(c *fiber.Ctx) error {
	list, err := h.uc.ListComments(c.UserContext(), c.Query("entity_type"), c.Query("entity_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.CommentsFrom(list))
}
