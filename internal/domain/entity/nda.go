package entity

import "time"

// NdaStatus estado del acuerdo de confidencialidad.
type NdaStatus string

const (
	NdaNotIssued        NdaStatus = "not_issued"
	NdaIssued           NdaStatus = "issued"
	NdaSignedByInvestor NdaStatus = "signed_by_investor"
	NdaCounterSigned    NdaStatus = "counter_signed"
	NdaCompleted        NdaStatus = "completed"
)

// Nda versión de un NDA de una oportunidad. Version es 1..N por oportunidad.
type Nda struct {
	ID              string
	OpportunityID   string
	Version         int
	Status          NdaStatus
	DocumentID      string
	IssuedBy        string
	IssuedAt        *time.Time
	SignedAt        *time.Time
	CountersignedAt *time.Time
	CompletedAt     *time.Time
	RowVersion      int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Pending reporta si el NDA está en curso (emitido y no completado).
func (s NdaStatus) Pending() bool {
	return s == NdaIssued || s == NdaSignedByInvestor || s == NdaCounterSigned
}
