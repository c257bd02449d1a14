package entity

import "time"

// Roles válidos para User.
const (
	RoleInvestorServices    = "investor_services"
	RoleLegalServices       = "legal_services"
	RolePropertyDevelopment = "property_development"
	RoleSeniorManagement    = "senior_management"
)

// ValidRole reporta si role es uno de los roles del sistema.
func ValidRole(role string) bool {
	switch role {
	case RoleInvestorServices, RoleLegalServices, RolePropertyDevelopment, RoleSeniorManagement:
		return true
	}
	return false
}

// User usuario de la aplicación. Lo administra el portal de administración.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash
	Name         string
	Role         string
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor identidad y rol de quien ejecuta una operación.
type Actor struct {
	UserID string
	Role   string
}

// System actor de los procesos automáticos.
var System = Actor{UserID: "system", Role: "system"}
