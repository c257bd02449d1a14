package entity

import "time"

// Meeting reunión agendada con un lead u oportunidad.
type Meeting struct {
	ID                string
	Title             string
	Description       string
	StartsAt          time.Time
	EndsAt            time.Time
	Location          string
	OrganizerID       string
	RelatedEntityID   string
	RelatedEntityType string
	CreatedAt         time.Time
}

// Comment comentario libre sobre una entidad.
type Comment struct {
	ID                string
	AuthorID          string
	Body              string
	RelatedEntityID   string
	RelatedEntityType string
	CreatedAt         time.Time
}
