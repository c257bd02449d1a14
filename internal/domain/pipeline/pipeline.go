// Package pipeline construye la vista kanban agrupada por etapa. La etapa de
// un lead es derivada y con pérdida: no es un espejo de Lead.Status.
package pipeline

import (
	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/pkg/textfold"
)

// Type tipo de tablero.
type Type string

const (
	TypeLead        Type = "lead"
	TypeOpportunity Type = "opportunity"
)

// Etapas del tablero de leads.
const (
	StageNew       = "new"
	StageContacted = "contacted"
	StageQualified = "qualified"
	StageMeeting   = "meeting" // ninguna derivación produce esta etapa
)

// StageDef definición estática de una etapa.
type StageDef struct {
	ID   string
	Name string
}

// LeadStages etapas del tablero de leads, en orden.
var LeadStages = []StageDef{
	{ID: StageNew, Name: "Nuevo"},
	{ID: StageContacted, Name: "Contactado"},
	{ID: StageQualified, Name: "Calificado"},
	{ID: StageMeeting, Name: "Reunión"},
}

// OpportunityStages etapas del tablero de oportunidades: etapa == estado.
var OpportunityStages = []StageDef{
	{ID: string(entity.OpportunityAssessmentInProgress), Name: "Evaluación en curso"},
	{ID: string(entity.OpportunityAssessmentCompleted), Name: "Evaluación completada"},
	{ID: string(entity.OpportunityWaitingForApproval), Name: "Esperando aprobación"},
	{ID: string(entity.OpportunityApproved), Name: "Due diligence aprobada"},
	{ID: string(entity.OpportunityRejected), Name: "Rechazada"},
}

// Stages devuelve las etapas del tipo, o nil si el tipo no existe.
func Stages(t Type) []StageDef {
	switch t {
	case TypeLead:
		return LeadStages
	case TypeOpportunity:
		return OpportunityStages
	}
	return nil
}

// ParseType valida el tipo de tablero.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeLead, TypeOpportunity:
		return Type(s), nil
	}
	return "", domain.NewValidationError(domain.CodeValidation, "tipo de pipeline %q no válido (lead | opportunity)", s)
}

// Bucket una etapa con sus elementos.
type Bucket[T any] struct {
	StageID   string
	StageName string
	Items     []T
}

// LeadStage deriva la etapa de un lead. La prioridad alta manda sobre el estado.
func LeadStage(l *entity.Lead) string {
	switch {
	case l.Priority == entity.PriorityHigh:
		return StageQualified
	case l.Status == entity.LeadWaitingForDetails || l.Status == entity.LeadWaitingForApproval:
		return StageContacted
	case l.Status == entity.LeadActive:
		return StageNew
	}
	return ""
}

// OpportunityStage la etapa de una oportunidad es su estado.
func OpportunityStage(o *entity.Opportunity) string {
	return string(o.Status)
}

// ProjectLeads agrupa leads por etapa derivada, filtrando por nombre.
func ProjectLeads(leads []*entity.Lead, search string) []Bucket[*entity.Lead] {
	filtered := make([]*entity.Lead, 0, len(leads))
	for _, l := range leads {
		if textfold.Contains(l.Name, search) {
			filtered = append(filtered, l)
		}
	}
	return group(LeadStages, filtered, LeadStage)
}

// ProjectOpportunities agrupa oportunidades por estado, filtrando por nombre del lead.
func ProjectOpportunities(opps []*entity.Opportunity, search string) []Bucket[*entity.Opportunity] {
	filtered := make([]*entity.Opportunity, 0, len(opps))
	for _, o := range opps {
		if textfold.Contains(o.LeadName, search) {
			filtered = append(filtered, o)
		}
	}
	return group(OpportunityStages, filtered, OpportunityStage)
}

// group reparte items en las etapas; una etapa desconocida cae en la primera.
func group[T any](defs []StageDef, items []T, stageOf func(T) string) []Bucket[T] {
	buckets := make([]Bucket[T], len(defs))
	index := make(map[string]int, len(defs))
	for i, d := range defs {
		buckets[i] = Bucket[T]{StageID: d.ID, StageName: d.Name, Items: []T{}}
		index[d.ID] = i
	}
	for _, it := range items {
		i, ok := index[stageOf(it)]
		if !ok {
			i = 0
		}
		buckets[i].Items = append(buckets[i].Items, it)
	}
	return buckets
}

// LeadMutation cambios de campos que produce mover un lead a una etapa.
// Un nil deja el campo como está.
type LeadMutation struct {
	Status   *entity.LeadStatus
	Priority *entity.Priority
}

// LeadMove traduce la etapa destino en cambios sobre el lead. No es la inversa
// de LeadStage: re-derivar tras el movimiento puede dar otra etapa.
func LeadMove(l *entity.Lead, targetStage string) (LeadMutation, error) {
	status := func(s entity.LeadStatus) *entity.LeadStatus { return &s }
	priority := func(p entity.Priority) *entity.Priority { return &p }

	switch targetStage {
	case StageNew:
		m := LeadMutation{Status: status(entity.LeadActive)}
		if l.Priority == entity.PriorityHigh {
			m.Priority = priority(entity.PriorityMedium)
		}
		return m, nil
	case StageContacted:
		return LeadMutation{Status: status(entity.LeadWaitingForDetails)}, nil
	case StageQualified:
		return LeadMutation{Priority: priority(entity.PriorityHigh)}, nil
	case StageMeeting:
		return LeadMutation{Status: status(entity.LeadActive)}, nil
	}
	return LeadMutation{}, domain.NewValidationError(domain.CodeValidation, "etapa de lead %q no existe", targetStage)
}

// Apply aplica la mutación y reporta si algún campo cambió.
func (m LeadMutation) Apply(l *entity.Lead) bool {
	changed := false
	if m.Status != nil && *m.Status != l.Status {
		l.Status = *m.Status
		changed = true
	}
	if m.Priority != nil && *m.Priority != l.Priority {
		l.Priority = *m.Priority
		changed = true
	}
	return changed
}
