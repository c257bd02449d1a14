package documents_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/leadflow-api/internal/application/documents"
	"github.com/jhoicas/leadflow-api/internal/domain"
	"github.com/jhoicas/leadflow-api/internal/domain/entity"
	"github.com/jhoicas/leadflow-api/internal/infrastructure/memory"
)

type fakeStore struct {
	objects   map[string][]byte
	uploadErr error
	removeErr error
	removed   []string
}

func newFakeStore() *fakeStore { return &fakeStore{objects: map[string][]byte{}} }

func (f *fakeStore) Upload(_ context.Context, path string, data []byte, _ string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.objects[path] = data
	return nil
}

func (f *fakeStore) SignedURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	return "https://blob.local/" + path + "?ttl=" + ttl.String(), nil
}

func (f *fakeStore) Remove(_ context.Context, paths []string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	for _, p := range paths {
		delete(f.objects, p)
		f.removed = append(f.removed, p)
	}
	return nil
}

var actor = entity.Actor{UserID: "u-1", Role: entity.RoleLegalServices}

func setup(t *testing.T) (*documents.UseCase, *fakeStore, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	blobs := newFakeStore()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	uc := documents.NewUseCase(store, store.Repositories(), blobs, 0, zerolog.Nop(), func() time.Time {
		now = now.Add(time.Minute)
		return now
	})
	return uc, blobs, store
}

func upload(name string, data string) documents.UploadInput {
	return documents.UploadInput{
		EntityType: entity.RelatedOpportunity, EntityID: "opp-1", Name: name,
		ContentType: "application/pdf", Data: []byte(data),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Upload
// ──────────────────────────────────────────────────────────────────────────────

func TestUpload_VersionaPorNombre(t *testing.T) {
	uc, blobs, _ := setup(t)
	ctx := context.Background()

	first, err := uc.Upload(ctx, actor, upload("plan.pdf", "v1"))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, "opportunity/opp-1/v1/plan.pdf", first.Path)
	assert.Empty(t, first.VersionHistory)

	second, err := uc.Upload(ctx, actor, upload("plan.pdf", "version dos"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, "opportunity/opp-1/v2/plan.pdf", second.Path)
	require.Len(t, second.VersionHistory, 1)
	assert.Equal(t, 1, second.VersionHistory[0].Version)
	assert.Equal(t, first.Path, second.VersionHistory[0].Path)
	assert.Equal(t, int64(2), second.VersionHistory[0].SizeBytes)

	assert.Len(t, blobs.objects, 2)

	other, err := uc.Upload(ctx, actor, upload("anexo.pdf", "x"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
	assert.Equal(t, 1, other.Version)
}

func TestUpload_NombreSinRutas(t *testing.T) {
	uc, _, _ := setup(t)
	d, err := uc.Upload(context.Background(), actor, upload("../../etc/passwd", "x"))
	require.NoError(t, err)
	assert.Equal(t, "passwd", d.Name)
	assert.Equal(t, "opportunity/opp-1/v1/passwd", d.Path)
}

func TestUpload_Validaciones(t *testing.T) {
	uc, _, _ := setup(t)
	ctx := context.Background()

	in := upload("plan.pdf", "")
	_, err := uc.Upload(ctx, actor, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = upload("plan.pdf", "x")
	in.EntityType = "factura"
	_, err = uc.Upload(ctx, actor, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Upload(ctx, actor, upload("  ", "x"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpload_FalloBlobNoEscribeMetadatos(t *testing.T) {
	uc, blobs, store := setup(t)
	blobs.uploadErr = errors.New("bucket caído")

	_, err := uc.Upload(context.Background(), actor, upload("plan.pdf", "x"))
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Zero(t, store.Writes())
}

func TestUpload_FalloMetadatosLimpiaBlob(t *testing.T) {
	uc, blobs, store := setup(t)
	store.FailNext("documents.create", errors.New("db caída"))

	_, err := uc.Upload(context.Background(), actor, upload("plan.pdf", "x"))
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Empty(t, blobs.objects)
	assert.Equal(t, []string{"opportunity/opp-1/v1/plan.pdf"}, blobs.removed)
}

func TestUpload_SinStore(t *testing.T) {
	store := memory.NewStore()
	uc := documents.NewUseCase(store, store.Repositories(), nil, 0, zerolog.Nop(), nil)
	_, err := uc.Upload(context.Background(), actor, upload("plan.pdf", "x"))
	assert.ErrorIs(t, err, documents.ErrStoreDisabled)
}

// ──────────────────────────────────────────────────────────────────────────────
// URL firmada y borrado
// ──────────────────────────────────────────────────────────────────────────────

func TestSignedURL(t *testing.T) {
	uc, _, _ := setup(t)
	ctx := context.Background()
	d, err := uc.Upload(ctx, actor, upload("plan.pdf", "x"))
	require.NoError(t, err)

	url, ttl, err := uc.SignedURL(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, ttl)
	assert.Contains(t, url, "opportunity/opp-1/v1/plan.pdf")

	_, _, err = uc.SignedURL(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_BorraTodasLasVersiones(t *testing.T) {
	uc, blobs, _ := setup(t)
	ctx := context.Background()
	_, err := uc.Upload(ctx, actor, upload("plan.pdf", "1"))
	require.NoError(t, err)
	_, err = uc.Upload(ctx, actor, upload("plan.pdf", "2"))
	require.NoError(t, err)
	d, err := uc.Upload(ctx, actor, upload("plan.pdf", "3"))
	require.NoError(t, err)

	require.NoError(t, uc.Delete(ctx, actor, d.ID))
	assert.Empty(t, blobs.objects)
	assert.ElementsMatch(t, []string{
		"opportunity/opp-1/v1/plan.pdf", "opportunity/opp-1/v2/plan.pdf", "opportunity/opp-1/v3/plan.pdf",
	}, blobs.removed)

	_, err = uc.Get(ctx, d.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_FalloBlobConservaFila(t *testing.T) {
	uc, blobs, _ := setup(t)
	ctx := context.Background()
	d, err := uc.Upload(ctx, actor, upload("plan.pdf", "1"))
	require.NoError(t, err)
	blobs.removeErr = errors.New("timeout")

	assert.ErrorIs(t, uc.Delete(ctx, actor, d.ID), domain.ErrStorage)
	_, err = uc.Get(ctx, d.ID)
	assert.NoError(t, err)
}
