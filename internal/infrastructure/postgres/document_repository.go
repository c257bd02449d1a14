package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

const documentColumns = `id, entity_type, entity_id, name, content_type, path, size_bytes, version, version_history,
	COALESCE(uploaded_by, ''), row_version, created_at, updated_at`

// DocumentRepo metadatos de documentos; el historial de versiones va en JSONB.
type DocumentRepo struct {
	q Querier
}

func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

func (r *DocumentRepo) Create(ctx context.Context, d *entity.Document) error {
	if d.RowVersion == 0 {
		d.RowVersion = 1
	}
	query := `
		INSERT INTO documents (id, entity_type, entity_id, name, content_type, path, size_bytes, version,
			version_history, uploaded_by, row_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		d.ID, d.EntityType, d.EntityID, d.Name, d.ContentType, d.Path, d.SizeBytes, d.Version,
		history(d.VersionHistory), nullIfEmpty(d.UploadedBy), d.RowVersion, d.CreatedAt, d.UpdatedAt,
	)
	return insertErr(err, "document")
}

func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	return r.getOne(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
}

func (r *DocumentRepo) FindByName(ctx context.Context, entityType, entityID, name string) (*entity.Document, error) {
	return r.getOne(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE entity_type = $1 AND entity_id = $2 AND name = $3`,
		entityType, entityID, name)
}

func (r *DocumentRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Document, error) {
	var d entity.Document
	err := r.q.QueryRow(ctx, query, args...).Scan(&d.ID, &d.EntityType, &d.EntityID, &d.Name, &d.ContentType,
		&d.Path, &d.SizeBytes, &d.Version, &d.VersionHistory, &d.UploadedBy, &d.RowVersion, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &d, nil
}

func (r *DocumentRepo) Update(ctx context.Context, d *entity.Document) error {
	query := `
		UPDATE documents SET content_type = $3, path = $4, size_bytes = $5, version = $6, version_history = $7,
			uploaded_by = $8, updated_at = $9, row_version = row_version + 1
		WHERE id = $1 AND row_version = $2`
	tag, err := r.q.Exec(ctx, query,
		d.ID, d.RowVersion, d.ContentType, d.Path, d.SizeBytes, d.Version, history(d.VersionHistory),
		nullIfEmpty(d.UploadedBy), d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if err := afterVersionedUpdate(ctx, r.q, "documents", "document", d.ID, d.RowVersion, tag); err != nil {
		return err
	}
	d.RowVersion++
	return nil
}

func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return mustAffect(tag)
}

// history evita guardar 'null' en la columna JSONB.
func history(h []entity.DocumentVersion) []entity.DocumentVersion {
	if h == nil {
		return []entity.DocumentVersion{}
	}
	return h
}
