package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound                   = errors.New("recurso no encontrado")
	ErrInvalidInput               = errors.New("entrada inválida")
	ErrDuplicate                  = errors.New("recurso duplicado")
	ErrUnauthorized               = errors.New("no autorizado")
	ErrForbidden                  = errors.New("acceso denegado")
	ErrConflict                   = errors.New("conflicto con el estado actual")
	ErrInvalidTransition          = errors.New("transición de estado no permitida")
	ErrCoreInvestorChoiceRequired = errors.New("lead core investor sin datos suficientes: se requiere elegir estado")
	ErrStorage                    = errors.New("fallo de almacenamiento")
)

// ValidationError precondición no cumplida. Se detecta antes de cualquier escritura.
type ValidationError struct {
	Code    string
	Message string
}

// NewValidationError construye un ValidationError con código estable para la API.
func NewValidationError(code, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string { return e.Message }

// Is permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool {
	if target == ErrInvalidInput {
		return true
	}
	return e.Code == CodeCoreInvestorChoice && target == ErrCoreInvestorChoiceRequired
}

// Códigos de validación expuestos en la API.
const (
	CodeValidation         = "VALIDATION"
	CodeCoreInvestorChoice = "CORE_INVESTOR_CHOICE_REQUIRED"
	CodeNdaPending         = "NDA_PENDING"
	CodeChecklistExists    = "CHECKLIST_EXISTS"
	CodeOpportunityExists  = "OPPORTUNITY_EXISTS"
	CodeApprovalGate       = "APPROVAL_GATE"
	CodePlanSuperseded     = "PLAN_SUPERSEDED"
)

// TransitionError movimiento de estado rechazado por la tabla de transiciones.
// Es una variante de ValidationError.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: transición %q → %q no permitida", e.Entity, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition || target == ErrInvalidInput
}

// ConflictError escritura con row_version desactualizado.
type ConflictError struct {
	Entity   string
	ID       string
	Expected int
	Actual   int
}

func (e *ConflictError) Error() string {
	if e.Actual > 0 {
		return fmt.Sprintf("%s %s modificado concurrentemente (versión esperada %d, actual %d)", e.Entity, e.ID, e.Expected, e.Actual)
	}
	return fmt.Sprintf("%s %s modificado concurrentemente (versión esperada %d)", e.Entity, e.ID, e.Expected)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// StorageError fallo del Entity Store o Document Store con el contexto del intento.
type StorageError struct {
	Op     string
	Entity string
	ID     string
	Fields []string
	Err    error
}

func (e *StorageError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Op, e.Entity)
	if e.ID != "" {
		fmt.Fprintf(&b, " %s", e.ID)
	}
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Fields, ","))
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// PartialApplication aviso: la escritura primaria quedó aplicada pero un paso
// secundario falló. No se devuelve como error.
type PartialApplication struct {
	Step   string
	Entity string
	ID     string
	Err    error
}

func (w PartialApplication) String() string {
	return fmt.Sprintf("%s (%s %s): %v", w.Step, w.Entity, w.ID, w.Err)
}

// IsCallerRecoverable indica errores que no deben reintentarse automáticamente.
func IsCallerRecoverable(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrDuplicate)
}
