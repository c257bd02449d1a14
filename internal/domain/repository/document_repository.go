package repository

import (
	"context"

	"github.com/jhoicas/leadflow-api/internal/domain/entity"
)

// DocumentRepository metadatos de documentos (el contenido vive en el blob store).
type DocumentRepository interface {
	Create(ctx context.Context, d *entity.Document) error
	GetByID(ctx context.Context, id string) (*entity.Document, error)
	FindByName(ctx context.Context, entityType, entityID, name string) (*entity.Document, error)
	Update(ctx context.Context, d *entity.Document) error
	Delete(ctx context.Context, id string) error
}
