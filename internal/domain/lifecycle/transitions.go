package lifecycle

import (
	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

// Tablas de transición permitidas (from → to). Un estado sin entrada es terminal.
var (
	leadTransitions = map[entity.LeadStatus]map[entity.LeadStatus]bool{
		entity.LeadActive:             {entity.LeadArchived: true, entity.LeadWaitingForDetails: true},
		entity.LeadWaitingForDetails:  {entity.LeadWaitingForApproval: true, entity.LeadActive: true, entity.LeadRejected: true},
		entity.LeadWaitingForApproval: {entity.LeadActive: true, entity.LeadRejected: true, entity.LeadWaitingForDetails: true},
		entity.LeadArchived:           {entity.LeadActive: true},
	}

	opportunityTransitions = map[entity.OpportunityStatus]map[entity.OpportunityStatus]bool{
		entity.OpportunityAssessmentInProgress: {entity.OpportunityAssessmentCompleted: true, entity.OpportunityRejected: true},
		entity.OpportunityAssessmentCompleted: {
			entity.OpportunityAssessmentInProgress: true,
			entity.OpportunityWaitingForApproval:   true,
			entity.OpportunityRejected:             true,
		},
		entity.OpportunityWaitingForApproval: {entity.OpportunityApproved: true, entity.OpportunityRejected: true},
	}

	ndaTransitions = map[entity.NdaStatus]map[entity.NdaStatus]bool{
		entity.NdaNotIssued:        {entity.NdaIssued: true},
		entity.NdaIssued:           {entity.NdaSignedByInvestor: true},
		entity.NdaSignedByInvestor: {entity.NdaCounterSigned: true},
		entity.NdaCounterSigned:    {entity.NdaCompleted: true},
	}

	planTransitions = map[entity.BusinessPlanStatus]map[entity.BusinessPlanStatus]bool{
		entity.PlanNotRequested:  {entity.PlanRequested: true, entity.PlanReceived: true},
		entity.PlanRequested:     {entity.PlanReceived: true},
		entity.PlanReceived:      {entity.PlanApproved: true, entity.PlanRejected: true, entity.PlanUpdatesNeeded: true},
		entity.PlanUpdatesNeeded: {entity.PlanReceived: true},
	}

	taskTransitions = map[entity.TaskStatus]map[entity.TaskStatus]bool{
		entity.TaskPending:    {entity.TaskInProgress: true, entity.TaskCompleted: true, entity.TaskCanceled: true},
		entity.TaskInProgress: {entity.TaskCompleted: true, entity.TaskCanceled: true, entity.TaskPending: true},
	}
)

// CheckLead valida una transición de lead.
func CheckLead(from, to entity.LeadStatus) error {
	if !to.Valid() || !leadTransitions[from][to] {
		return &domain.TransitionError{Entity: "lead", From: string(from), To: string(to)}
	}
	return nil
}

// CheckOpportunity valida una transición de oportunidad.
func CheckOpportunity(from, to entity.OpportunityStatus) error {
	if !to.Valid() || !opportunityTransitions[from][to] {
		return &domain.TransitionError{Entity: "opportunity", From: string(from), To: string(to)}
	}
	return nil
}

// CheckNda valida una transición de NDA (solo hacia adelante, de a un paso).
func CheckNda(from, to entity.NdaStatus) error {
	if !ndaTransitions[from][to] {
		return &domain.TransitionError{Entity: "nda", From: string(from), To: string(to)}
	}
	return nil
}

// CheckBusinessPlan valida una transición de plan de negocio.
func CheckBusinessPlan(from, to entity.BusinessPlanStatus) error {
	if !to.Valid() || !planTransitions[from][to] {
		return &domain.TransitionError{Entity: "business_plan", From: string(from), To: string(to)}
	}
	return nil
}

// CheckChecklistItem cualquier estado válido puede pasar a cualquier otro, incluido el mismo.
func CheckChecklistItem(from, to entity.ChecklistItemStatus) error {
	if !from.Valid() || !to.Valid() {
		return &domain.TransitionError{Entity: "checklist_item", From: string(from), To: string(to)}
	}
	return nil
}

// CheckTask valida una transición de tarea.
func CheckTask(from, to entity.TaskStatus) error {
	if !taskTransitions[from][to] {
		return &domain.TransitionError{Entity: "task", From: string(from), To: string(to)}
	}
	return nil
}

// CheckLeadMove como CheckLead, pero un movimiento en el tablero no puede
// sacar un lead de waiting_for_approval hacia active: eso es una aprobación.
func CheckLeadMove(from, to entity.LeadStatus) error {
	if from == entity.LeadWaitingForApproval && to == entity.LeadActive {
		return domain.NewValidationError(domain.CodeApprovalGate, "el lead espera aprobación: use approve")
	}
	return CheckLead(from, to)
}

// CheckOpportunityMove como CheckOpportunity, pero due_diligence_approved solo
// se alcanza con la aprobación final.
func CheckOpportunityMove(from, to entity.OpportunityStatus) error {
	if to == entity.OpportunityApproved {
		return domain.NewValidationError(domain.CodeApprovalGate, "due_diligence_approved requiere la aprobación final")
	}
	return CheckOpportunity(from, to)
}
