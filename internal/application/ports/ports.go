// Package ports define los contratos de salida de la capa de aplicación.
// Los adaptadores viven en internal/infrastructure.
package ports

import (
	"context"
	"time"

	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

// TxRunner ejecuta fn con repositorios atados a una única transacción.
// Si fn devuelve error no queda ninguna escritura aplicada.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repositories) error) error
}

// DocumentStore blob store opaco. Las rutas van con espacio de nombres por entidad.
type DocumentStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, paths []string) error
}

// NdaDocument datos para generar el PDF de un NDA.
type NdaDocument struct {
	OpportunityID string
	LeadName      string
	LeadEmail     string
	Version       int
	IssuedBy      string
	IssuedAt      time.Time
}

// NdaRenderer genera el PDF de un NDA.
type NdaRenderer interface {
	RenderNda(doc NdaDocument) ([]byte, error)
}

// RecordLocker lock de cortesía con expiración. No protege escrituras: eso lo hace RowVersion.
type RecordLocker interface {
	// Acquire toma o renueva el lock para owner. Si lo tiene otro devuelve false y el titular.
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, string, error)
	// Release libera el lock solo si owner es el titular.
	Release(ctx context.Context, key, owner string) (bool, error)
	// Holder devuelve el titular actual y el tiempo restante; "" si está libre.
	Holder(ctx context.Context, key string) (string, time.Duration, error)
}

// MailSource origen de correos entrantes.
type MailSource interface {
	Provider() entity.LeadSource
	Fetch(ctx context.Context, since time.Time) ([]*entity.InboundMessage, error)
}

// SweepLocker exclusión entre corridas concurrentes del barrido automático.
// Si ok es false otra corrida tiene el lock; release siempre es invocable.
type SweepLocker interface {
	TryLock(ctx context.Context, name string) (release func(), ok bool, err error)
}
