package entity

import "time"

// InboundMessage correo entrante sincronizado desde el buzón.
type InboundMessage struct {
	ID             string
	Provider       LeadSource // outlook | gmail
	ExternalID     string
	SenderName     string
	SenderEmail    string
	Subject        string
	Body           string
	ReceivedAt     time.Time
	HasAttachments bool
	IsEnquiry      bool
	LinkedLeadID   string
	CreatedAt      time.Time
}
