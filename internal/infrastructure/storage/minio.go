// Package storage implementa el Document Store sobre MinIO / S3.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jhoicas/leadflow-api/internal/application/ports"
)

// MinioConfig conexión al bucket de documentos.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string // opcional; si se fija, firmar URLs no consulta al servidor
}

// MinioStore implementa ports.DocumentStore.
type MinioStore struct {
	client *minio.Client
	bucket string
}

var _ ports.DocumentStore = (*MinioStore)(nil)

// NewMinioStore crea el cliente. No abre conexión; ver EnsureBucket.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio: bucket requerido")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: crear cliente: %w", err)
	}
	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

// EnsureBucket crea el bucket si no existe.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("minio: verificar bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("minio: crear bucket: %w", err)
	}
	return nil
}

// Upload sube el objeto en path.
func (s *MinioStore) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("minio: subir %s: %w", path, err)
	}
	return nil
}

// SignedURL URL prefirmada de descarga.
func (s *MinioStore) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, path, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("minio: firmar %s: %w", path, err)
	}
	return u.String(), nil
}

// Remove borra los objetos. Un objeto inexistente no es error.
func (s *MinioStore) Remove(ctx context.Context, paths []string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucket, p, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("minio: borrar %s: %w", p, err)
		}
	}
	return nil
}
