// Package lifecycle contiene las reglas puras del ciclo de vida de leads y
// oportunidades: gate de core investor, numeración de versiones, estado de
// evaluación y tablas de transición. No hace I/O.
package lifecycle

import (
	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Umbrales mínimos de un core investor.
var (
	MinExportQuota = decimal.NewFromInt(75) // %
	MinPlotSize    = decimal.NewFromInt(1)  // hectáreas
)

// IsCoreInvestorCandidate true si el lead es de prioridad alta y tipo empresa.
func IsCoreInvestorCandidate(priority entity.Priority, inquiryType entity.InquiryType) bool {
	return priority == entity.PriorityHigh && inquiryType == entity.InquiryCompany
}

// CoreInvestorDataSufficient true si ambos datos están presentes y superan los mínimos.
func CoreInvestorDataSufficient(exportQuota, plotSize *decimal.Decimal) bool {
	if exportQuota == nil || plotSize == nil {
		return false
	}
	return exportQuota.GreaterThanOrEqual(MinExportQuota) && plotSize.GreaterThanOrEqual(MinPlotSize)
}

// ResolveLeadCreationStatus decide el estado inicial de un lead.
// Un core investor sin datos suficientes exige que el usuario elija
// waiting_for_details o waiting_for_approval; sin elección la creación se bloquea.
func ResolveLeadCreationStatus(candidateCore, dataSufficient bool, userChoice entity.LeadStatus) (entity.LeadStatus, error) {
	if !candidateCore || dataSufficient {
		return entity.LeadActive, nil
	}
	switch userChoice {
	case entity.LeadWaitingForDetails, entity.LeadWaitingForApproval:
		return userChoice, nil
	case "":
		return "", domain.NewValidationError(domain.CodeCoreInvestorChoice,
			"core investor sin export_quota >= %s y plot_size >= %s: elija waiting_for_details o waiting_for_approval",
			MinExportQuota, MinPlotSize)
	default:
		return "", domain.NewValidationError(domain.CodeCoreInvestorChoice,
			"estado %q no válido para un core investor sin datos; opciones: waiting_for_details, waiting_for_approval", userChoice)
	}
}

func activeWithoutCoreData(l entity.Lead) bool {
	return l.Status == entity.LeadActive &&
		IsCoreInvestorCandidate(l.Priority, l.InquiryType) &&
		!CoreInvestorDataSufficient(l.ExportQuota, l.PlotSize)
}

// CheckActiveCoreData rechaza un cambio que deja en active a un core investor
// sin datos suficientes. Un lead que ya estaba así (aprobado sin datos) sigue editable.
func CheckActiveCoreData(before, after entity.Lead) error {
	if activeWithoutCoreData(after) && !activeWithoutCoreData(before) {
		return domain.NewValidationError(domain.CodeCoreInvestorChoice,
			"core investor activo requiere export_quota >= %s y plot_size >= %s; complete los datos o pase a waiting_for_details",
			MinExportQuota, MinPlotSize)
	}
	return nil
}

// NextVersion max(existing)+1, o 1 si no hay versiones. Se usa para NDA y planes de negocio.
func NextVersion(existing []int) int {
	highest := 0
	for _, v := range existing {
		if v > highest {
			highest = v
		}
	}
	return highest + 1
}

// ComputeAssessmentStatus assessment_completed sii hay ítems y todos están completados.
func ComputeAssessmentStatus(items []entity.ChecklistItemStatus) entity.OpportunityStatus {
	if len(items) == 0 {
		return entity.OpportunityAssessmentInProgress
	}
	for _, s := range items {
		if s != entity.ItemCompleted {
			return entity.OpportunityAssessmentInProgress
		}
	}
	return entity.OpportunityAssessmentCompleted
}

// AssessmentRecomputable reporta si el estado de la oportunidad lo gobierna la checklist.
func AssessmentRecomputable(s entity.OpportunityStatus) bool {
	return s == entity.OpportunityAssessmentInProgress || s == entity.OpportunityAssessmentCompleted
}
