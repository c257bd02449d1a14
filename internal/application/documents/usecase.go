// Package documents sube, versiona y elimina archivos asociados a entidades.
// El contenido va al DocumentStore; aquí solo se gestionan los metadatos.
package documents

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/leadflow-api/internal/application/ports"
	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/domain/repository"
)

// ErrStoreDisabled no hay Document Store configurado.
var ErrStoreDisabled = fmt.Errorf("document store no configurado: %w", domain.ErrInvalidInput)

// UseCase documentos versionados.
type UseCase struct {
	tx     ports.TxRunner
	repos  repository.Repositories
	store  ports.DocumentStore
	urlTTL time.Duration
	log    zerolog.Logger
	now    func() time.Time
}

// NewUseCase urlTTL <= 0 usa 15 minutos. store puede ser nil (documentos deshabilitados).
func NewUseCase(tx ports.TxRunner, repos repository.Repositories, store ports.DocumentStore, urlTTL time.Duration, log zerolog.Logger, now func() time.Time) *UseCase {
	if urlTTL <= 0 {
		urlTTL = 15 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &UseCase{
		tx: tx, repos: repos, store: store, urlTTL: urlTTL,
		log: log.With().Str("component", "documents").Logger(), now: now,
	}
}

// UploadInput archivo a subir.
type UploadInput struct {
	EntityType  string
	EntityID    string
	Name        string
	ContentType string
	Data        []byte
}

func (in *UploadInput) validate() error {
	switch in.EntityType {
	case entity.RelatedLead, entity.RelatedOpportunity, entity.RelatedNda,
		entity.RelatedBusinessPlan, entity.RelatedMeeting, entity.RelatedTask:
	default:
		return domain.NewValidationError(domain.CodeValidation, "entity_type %q no válido", in.EntityType)
	}
	if in.EntityID == "" {
		return domain.NewValidationError(domain.CodeValidation, "entity_id es requerido")
	}
	in.Name = path.Base(strings.TrimSpace(strings.ReplaceAll(in.Name, "\\", "/")))
	if in.Name == "" || in.Name == "." || in.Name == "/" {
		return domain.NewValidationError(domain.CodeValidation, "name es requerido")
	}
	if len(in.Data) == 0 {
		return domain.NewValidationError(domain.CodeValidation, "el archivo está vacío")
	}
	if in.ContentType == "" {
		in.ContentType = "application/octet-stream"
	}
	return nil
}

// objectPath ruta del blob: <tipo>/<id>/v<n>/<nombre>.
func objectPath(entityType, entityID string, version int, name string) string {
	return fmt.Sprintf("%s/%s/v%d/%s", entityType, entityID, version, name)
}

// Upload sube el archivo. Si ya existe uno con el mismo nombre para la entidad,
// crea una versión nueva y guarda la anterior en el historial.
func (uc *UseCase) Upload(ctx context.Context, actor entity.Actor, in UploadInput) (*entity.Document, error) {
	if uc.store == nil {
		return nil, ErrStoreDisabled
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	current, err := uc.repos.Documents.FindByName(ctx, in.EntityType, in.EntityID, in.Name)
	if err != nil {
		return nil, &domain.StorageError{Op: "get", Entity: "document", Err: err}
	}
	version := 1
	if current != nil {
		version = current.Version + 1
	}
	objPath := objectPath(in.EntityType, in.EntityID, version, in.Name)
	if err := uc.store.Upload(ctx, objPath, in.Data, in.ContentType); err != nil {
		return nil, &domain.StorageError{Op: "upload", Entity: "document", ID: objPath, Err: err}
	}

	now := uc.now()
	var out *entity.Document
	err = uc.tx.Run(ctx, func(r repository.Repositories) error {
		d, err := r.Documents.FindByName(ctx, in.EntityType, in.EntityID, in.Name)
		if err != nil {
			return &domain.StorageError{Op: "get", Entity: "document", Err: err}
		}
		if d == nil {
			d = &entity.Document{
				ID: uuid.NewString(), EntityType: in.EntityType, EntityID: in.EntityID, Name: in.Name,
				Version: 1, RowVersion: 1, CreatedAt: now,
			}
		} else {
			if d.Version+1 != version {
				return &domain.ConflictError{Entity: "document", ID: d.ID, Expected: version - 1, Actual: d.Version}
			}
			d.VersionHistory = append(d.VersionHistory, entity.DocumentVersion{
				Version: d.Version, Path: d.Path, UploadedAt: d.UpdatedAt, SizeBytes: d.SizeBytes,
			})
			d.Version = version
		}
		d.ContentType = in.ContentType
		d.Path = objPath
		d.SizeBytes = int64(len(in.Data))
		d.UploadedBy = actor.UserID
		d.UpdatedAt = now

		if d.Version == 1 {
			err = r.Documents.Create(ctx, d)
		} else {
			err = r.Documents.Update(ctx, d)
		}
		if err != nil {
			if domain.IsCallerRecoverable(err) {
				return err
			}
			return &domain.StorageError{Op: "save", Entity: "document", ID: d.ID, Err: err}
		}
		audit := &entity.AuditEntry{
			ID: uuid.NewString(), EntityType: "document", EntityID: d.ID, Action: "upload_document",
			ActorID: actor.UserID, Comments: fmt.Sprintf("%s v%d", d.Name, d.Version), CreatedAt: now,
		}
		if err := r.Audit.Create(ctx, audit); err != nil {
			return &domain.StorageError{Op: "create", Entity: "audit", Err: err}
		}
		out = d
		return nil
	})
	if err != nil {
		// el blob quedó huérfano: se intenta limpiar sin ocultar el error original
		if rmErr := uc.store.Remove(ctx, []string{objPath}); rmErr != nil {
			uc.log.Warn().Err(rmErr).Str("path", objPath).Msg("no se pudo limpiar el blob huérfano")
		}
		return nil, err
	}
	uc.log.Info().Str("document_id", out.ID).Str("path", objPath).Int("version", out.Version).Msg("documento subido")
	return out, nil
}

// Get metadatos del documento.
func (uc *UseCase) Get(ctx context.Context, id string) (*entity.Document, error) {
	d, err := uc.repos.Documents.GetByID(ctx, id)
	if err != nil {
		return nil, &domain.StorageError{Op: "get", Entity: "document", ID: id, Err: err}
	}
	if d == nil {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return d, nil
}

// SignedURL URL temporal de la versión actual.
func (uc *UseCase) SignedURL(ctx context.Context, id string) (string, time.Duration, error) {
	if uc.store == nil {
		return "", 0, ErrStoreDisabled
	}
	d, err := uc.Get(ctx, id)
	if err != nil {
		return "", 0, err
	}
	url, err := uc.store.SignedURL(ctx, d.Path, uc.urlTTL)
	if err != nil {
		return "", 0, &domain.StorageError{Op: "sign", Entity: "document", ID: id, Err: err}
	}
	return url, uc.urlTTL, nil
}

// Delete borra todas las versiones del blob store y luego la fila.
func (uc *UseCase) Delete(ctx context.Context, actor entity.Actor, id string) error {
	if uc.store == nil {
		return ErrStoreDisabled
	}
	d, err := uc.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.store.Remove(ctx, d.Paths()); err != nil {
		return &domain.StorageError{Op: "remove", Entity: "document", ID: id, Err: err}
	}
	err = uc.tx.Run(ctx, func(r repository.Repositories) error {
		if err := r.Documents.Delete(ctx, id); err != nil {
			if domain.IsCallerRecoverable(err) {
				return err
			}
			return &domain.StorageError{Op: "delete", Entity: "document", ID: id, Err: err}
		}
		audit := &entity.AuditEntry{
			ID: uuid.NewString(), EntityType: "document", EntityID: id, Action: "delete_document",
			ActorID: actor.UserID, Comments: d.Name, CreatedAt: uc.now(),
		}
		if err := r.Audit.Create(ctx, audit); err != nil {
			return &domain.StorageError{Op: "create", Entity: "audit", Err: err}
		}
		return nil
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("document_id", id).Int("paths", len(d.Paths())).Msg("documento eliminado")
	return nil
}
