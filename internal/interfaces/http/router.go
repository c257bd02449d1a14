package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/leadflow-api/internal/application/activity"
	"github.com/jhoicas/leadflow-api/internal/application/auth"
	"github.com/jhoicas/leadflow-api/internal/application/automation"
	"github.com/jhoicas/leadflow-api/internal/application/documents"
	"github.com/jhoicas/leadflow-api/internal/application/emailbridge"
	"github.com/jhoicas/leadflow-api/internal/application/lifecycle"
	"github.com/jhoicas/leadflow-api/internal/application/pipeline"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	Lifecycle *lifecycle.Service
	LeadLocks *activity.LeadLocks
	Pipeline  *pipeline.UseCase
	Activity  *activity.UseCase
	Documents *documents.UseCase
	Email     *emailbridge.UseCase
	Sweeper   *automation.Sweeper
	JWTSecret string
	Log       zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", RequestLogger(deps.Log))

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	admin := RequireRole(entity.RoleSeniorManagement)

	protected.Get("/auth/me", authHandler.Me)

	leads := protected.Group("/leads")
	lh := NewLeadHandler(deps.Lifecycle, deps.LeadLocks)
	leads.Post("/", lh.Create)
	leads.Get("/", lh.List)
	leads.Get("/:id", lh.GetByID)
	leads.Put("/:id", lh.Update)
	leads.Delete("/:id", admin, lh.Delete)
	leads.Get("/:id/history", lh.History)
	leads.Post("/:id/approve", lh.Approve())
	leads.Post("/:id/reject", lh.Reject())
	leads.Post("/:id/archive", lh.Archive())
	leads.Post("/:id/restore", lh.Restore())
	leads.Post("/:id/submit", lh.Submit())
	leads.Post("/:id/convert", lh.Convert)
	leads.Post("/:id/lock", lh.AcquireLock)
	leads.Delete("/:id/lock", lh.ReleaseLock)
	leads.Get("/:id/lock", lh.LockStatus)

	opps := protected.Group("/opportunities")
	oh := NewOpportunityHandler(deps.Lifecycle)
	opps.Get("/", oh.List)
	opps.Get("/:id", oh.GetByID)
	opps.Get("/:id/history", oh.History)
	opps.Post("/:id/reject", oh.Reject)
	opps.Post("/:id/site-visit", oh.ScheduleSiteVisit)
	opps.Post("/:id/ndas", oh.IssueNda)
	opps.Get("/:id/ndas", oh.ListNdas)
	opps.Post("/:id/business-plans/request", oh.RequestBusinessPlan)
	opps.Post("/:id/business-plans", oh.UploadBusinessPlan)
	opps.Get("/:id/business-plans", oh.ListBusinessPlans)
	opps.Post("/:id/checklist", oh.CreateChecklist)
	opps.Get("/:id/checklist", oh.GetChecklist)
	opps.Post("/:id/approvals/due-diligence", oh.GrantDueDiligence())
	opps.Post("/:id/approvals/final", admin, oh.GrantFinal())
	opps.Get("/:id/approvals", oh.ListApprovals)

	ndas := protected.Group("/ndas")
	ndas.Post("/:id/sign", oh.SignNda())
	ndas.Post("/:id/countersign", oh.CountersignNda())
	ndas.Post("/:id/complete", oh.CompleteNda())
	ndas.Post("/:id/document", oh.AttachNdaDocument)

	plans := protected.Group("/business-plans")
	plans.Post("/:id/approve", oh.ApproveBusinessPlan())
	plans.Post("/:id/reject", oh.RejectBusinessPlan())
	plans.Post("/:id/request-updates", oh.RequestBusinessPlanUpdates())

	protected.Patch("/checklist-items/:id", oh.UpdateChecklistItem)

	ph := NewPipelineHandler(deps.Pipeline)
	protected.Get("/pipeline/:type", ph.Board)
	protected.Post("/pipeline/:type/move", ph.Move)

	ah := NewActivityHandler(deps.Activity)
	protected.Post("/tasks", ah.CreateTask)
	protected.Get("/tasks", ah.ListTasks)
	protected.Patch("/tasks/:id/status", ah.UpdateTaskStatus)
	protected.Get("/notifications", ah.ListNotifications)
	protected.Post("/notifications/:id/read", ah.MarkNotificationRead)
	protected.Post("/meetings", ah.ScheduleMeeting)
	protected.Get("/meetings", ah.ListMeetings)
	protected.Post("/comments", ah.AddComment)
	protected.Get("/comments", ah.ListComments)

	docs := protected.Group("/documents")
	dh := NewDocumentHandler(deps.Documents)
	docs.Post("/", dh.Upload)
	docs.Get("/:id", dh.Get)
	docs.Get("/:id/url", dh.SignedURL)
	docs.Delete("/:id", dh.Delete)

	email := protected.Group("/email")
	eh := NewEmailHandler(deps.Email)
	email.Post("/sync", eh.Sync)
	email.Get("/messages", eh.List)
	email.Post("/messages/:id/enquiry", eh.MarkEnquiry)
	email.Get("/messages/:id/matches", eh.Matches)
	email.Get("/messages/:id/lead-draft", eh.LeadDraft)
	email.Post("/messages/:id/link", eh.Link)
	email.Post("/messages/:id/lead", eh.CreateLead)

	protected.Post("/automation/sweep", admin, NewAutomationHandler(deps.Sweeper).Sweep)
}
