package taxreturn

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/growwelltax/intake-api/internal/domain"
	s3infra "github.com/growwelltax/intake-api/internal/infrastructure/s3"
	"github.com/growwelltax/intake-api/internal/pkg/sealed"
)

const maxReturnBytes = 10 << 20

// Prepared returns are documents, not scans.
var allowedContentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// Store is the metadata persistence interface.
type Store interface {
	Put(ctx context.Context, r *domain.TaxReturn) error
	Get(ctx context.Context, applicationID, returnType string) (*domain.TaxReturn, error)
	ListByApplication(ctx context.Context, applicationID string) ([]domain.TaxReturn, error)
}

// BlobStore is the object storage interface.
type BlobStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType, originalName string) error
	Get(ctx context.Context, key string) (*s3infra.Object, error)
	Delete(ctx context.Context, key string) error
}

// UploadInput carries one prepared return file.
type UploadInput struct {
	ApplicationID string
	ReturnType    string
	UploadedBy    string
	OriginalName  string
	ContentType   string
	Size          int64
	Body          io.Reader
}

type Service interface {
	// Upload encrypts the file and stores it, replacing any previous return
	// of the same type for the application.
	Upload(ctx context.Context, in UploadInput) (*domain.TaxReturn, error)

	List(ctx context.Context, applicationID string) ([]domain.TaxReturn, error)

	// Open fetches and decrypts a stored return. Caller reads the stream to
	// completion.
	Open(ctx context.Context, applicationID, returnType string) (*domain.TaxReturn, io.Reader, func() error, error)
}

type service struct {
	returns Store
	blobs   BlobStore
	sealer  *sealed.Sealer
	logger  *slog.Logger
}

func NewService(returns Store, blobs BlobStore, sealer *sealed.Sealer, logger *slog.Logger) Service {
	return &service{returns: returns, blobs: blobs, sealer: sealer, logger: logger}
}

func (s *service) Upload(ctx context.Context, in UploadInput) (*domain.TaxReturn, error) {
	if !domain.ValidReturnType(in.ReturnType) {
		return nil, fmt.Errorf("return type must be draft or final: %w", domain.ErrBadRequest)
	}
	if !allowedContentTypes[in.ContentType] {
		return nil, fmt.Errorf("content type %q not accepted: %w", in.ContentType, domain.ErrInvalidFileType)
	}
	if in.Size <= 0 || in.Size > maxReturnBytes {
		return nil, domain.ErrFileTooLarge
	}
	if in.ApplicationID == "" {
		return nil, fmt.Errorf("application id is required: %w", domain.ErrBadRequest)
	}

	// Encrypt fully before touching storage so a mid-stream failure never
	// leaves partial plaintext anywhere.
	var buf bytes.Buffer
	wc, err := s.sealer.Encrypt(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(wc, io.LimitReader(in.Body, maxReturnBytes+1)); err != nil {
		return nil, err
	}
	if err := wc.Close(); err != nil {
		return nil, err
	}

	key := buildPath(in.ApplicationID, in.ReturnType)
	if err := s.blobs.Upload(ctx, key, &buf, "application/octet-stream", in.OriginalName); err != nil {
		return nil, err
	}

	prev, prevErr := s.returns.Get(ctx, in.ApplicationID, in.ReturnType)

	record := &domain.TaxReturn{
		ApplicationID: in.ApplicationID,
		ReturnType:    in.ReturnType,
		OriginalName:  in.OriginalName,
		ContentType:   in.ContentType,
		Size:          in.Size,
		StoragePath:   key,
		UploadedBy:    in.UploadedBy,
		UploadedAt:    time.Now().UTC(),
	}
	if err := s.returns.Put(ctx, record); err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned return blob", "key", key, "error", delErr)
		}
		return nil, err
	}

	// The record now points at the new blob; the old one is unreachable.
	if prevErr == nil && prev.StoragePath != "" && prev.StoragePath != key {
		if err := s.blobs.Delete(ctx, prev.StoragePath); err != nil {
			s.logger.Warn("failed to delete replaced return blob", "key", prev.StoragePath, "error", err)
		}
	}
	return record, nil
}

func (s *service) List(ctx context.Context, applicationID string) ([]domain.TaxReturn, error) {
	return s.returns.ListByApplication(ctx, applicationID)
}

func (s *service) Open(ctx context.Context, applicationID, returnType string) (*domain.TaxReturn, io.Reader, func() error, error) {
	record, err := s.returns.Get(ctx, applicationID, returnType)
	if err != nil {
		return nil, nil, nil, err
	}
	obj, err := s.blobs.Get(ctx, record.StoragePath)
	if err != nil {
		return nil, nil, nil, err
	}
	plain, err := s.sealer.Decrypt(obj.Body)
	if err != nil {
		obj.Body.Close()
		return nil, nil, nil, err
	}
	return record, plain, obj.Body.Close, nil
}

func buildPath(applicationID, returnType string) string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return fmt.Sprintf("admin-returns/%s/%s-%d-%s.age", applicationID, returnType, time.Now().UnixMilli(), hex.EncodeToString(b))
}
