package document

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/growwelltax/intake-api/internal/domain"
	s3infra "github.com/growwelltax/intake-api/internal/infrastructure/s3"
	"github.com/growwelltax/intake-api/internal/pkg/id"
	"github.com/klauspost/compress/zip"
)

const (
	maxUploadBytes  = 10 << 20
	presignedURLTTL = 15 * time.Minute
)

// allowedContentTypes mirrors the intake form: tax documents arrive as PDFs,
// scans, or office files.
var allowedContentTypes = map[string]string{
	"application/pdf":    ".pdf",
	"image/jpeg":         ".jpg",
	"image/png":          ".png",
	"image/gif":          ".gif",
	"image/webp":         ".webp",
	"image/heic":         ".heic",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/vnd.ms-excel": ".xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": ".xlsx",
}

// Store is the metadata persistence interface.
type Store interface {
	Put(ctx context.Context, d *domain.Document) error
	Get(ctx context.Context, documentID string) (*domain.Document, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Document, error)
	ListByApplication(ctx context.Context, applicationID string) ([]domain.Document, error)
	Delete(ctx context.Context, documentID string) error
}

// BlobStore is the object storage interface.
type BlobStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType, originalName string) error
	Get(ctx context.Context, key string) (*s3infra.Object, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	MakePublic(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// UploadInput carries one incoming file.
type UploadInput struct {
	OwnerUserID   string
	ApplicationID string
	Category      string
	OriginalName  string
	ContentType   string
	Size          int64
	Body          io.Reader
}

// ListedDocument is a document plus a short-lived download URL.
type ListedDocument struct {
	domain.Document
	URL string `json:"url"`
}

type Service interface {
	Upload(ctx context.Context, in UploadInput) (*domain.Document, error)

	// Stream fetches a stored blob by its storage path. Caller closes the
	// body. The object's original filename rides on its metadata.
	Stream(ctx context.Context, storagePath string) (*s3infra.Object, error)

	ListByUser(ctx context.Context, userID string) ([]ListedDocument, error)

	// DeleteOwn removes a document only when it belongs to userID.
	DeleteOwn(ctx context.Context, userID, documentID string) error

	// DeleteByPath removes the blob at storagePath and its metadata record
	// when one exists (admin path).
	DeleteByPath(ctx context.Context, storagePath string) error

	// MakePublic switches the blob to public-read and returns its URL.
	MakePublic(ctx context.Context, storagePath string) (string, error)

	// WriteArchive streams every document attached to the application as a
	// zip archive.
	WriteArchive(ctx context.Context, applicationID string, w io.Writer) error
}

type service struct {
	docs   Store
	blobs  BlobStore
	logger *slog.Logger
}

func NewService(docs Store, blobs BlobStore, logger *slog.Logger) Service {
	return &service{docs: docs, blobs: blobs, logger: logger}
}

func (s *service) Upload(ctx context.Context, in UploadInput) (*domain.Document, error) {
	if _, ok := allowedContentTypes[in.ContentType]; !ok {
		return nil, fmt.Errorf("content type %q not accepted: %w", in.ContentType, domain.ErrInvalidFileType)
	}
	if in.Size <= 0 || in.Size > maxUploadBytes {
		return nil, domain.ErrFileTooLarge
	}
	if in.Category == "" || in.OwnerUserID == "" {
		return nil, fmt.Errorf("category and owner are required: %w", domain.ErrBadRequest)
	}

	key := BuildPath(in.Category, in.OwnerUserID, in.OriginalName)

	// Guard against clients that understate Content-Length.
	body := io.LimitReader(in.Body, maxUploadBytes+1)
	if err := s.blobs.Upload(ctx, key, body, in.ContentType, in.OriginalName); err != nil {
		return nil, err
	}

	doc := &domain.Document{
		DocumentID:    id.New(),
		OriginalName:  in.OriginalName,
		ContentType:   in.ContentType,
		Size:          in.Size,
		Category:      in.Category,
		StoragePath:   key,
		OwnerUserID:   in.OwnerUserID,
		ApplicationID: in.ApplicationID,
		UploadedAt:    time.Now().UTC(),
	}
	if err := s.docs.Put(ctx, doc); err != nil {
		// Orphaned blob; remove it so storage does not leak.
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned blob", "key", key, "error", delErr)
		}
		return nil, err
	}
	return doc, nil
}

func (s *service) Stream(ctx context.Context, storagePath string) (*s3infra.Object, error) {
	return s.blobs.Get(ctx, storagePath)
}

func (s *service) ListByUser(ctx context.Context, userID string) ([]ListedDocument, error) {
	docs, err := s.docs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	listed := make([]ListedDocument, 0, len(docs))
	for _, d := range docs {
		url, err := s.blobs.PresignedURL(ctx, d.StoragePath, presignedURLTTL)
		if err != nil {
			s.logger.Warn("failed to presign document", "documentId", d.DocumentID, "error", err)
			url = ""
		}
		listed = append(listed, ListedDocument{Document: d, URL: url})
	}
	return listed, nil
}

func (s *service) DeleteOwn(ctx context.Context, userID, documentID string) error {
	doc, err := s.docs.Get(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.OwnerUserID != userID {
		return domain.ErrForbidden
	}
	if err := s.docs.Delete(ctx, doc.DocumentID); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, doc.StoragePath); err != nil {
		s.logger.Warn("failed to delete blob", "key", doc.StoragePath, "error", err)
	}
	return nil
}

func (s *service) DeleteByPath(ctx context.Context, storagePath string) error {
	if err := s.blobs.Delete(ctx, storagePath); err != nil {
		return err
	}
	// Storage keys embed the owner, so the matching record is findable
	// without a table scan.
	if ownerID := ownerFromPath(storagePath); ownerID != "" {
		docs, err := s.docs.ListByUser(ctx, ownerID)
		if err != nil {
			s.logger.Warn("failed to list documents for cleanup", "owner", ownerID, "error", err)
			return nil
		}
		for _, d := range docs {
			if d.StoragePath == storagePath {
				if err := s.docs.Delete(ctx, d.DocumentID); err != nil {
					s.logger.Warn("failed to delete document record", "documentId", d.DocumentID, "error", err)
				}
				break
			}
		}
	}
	return nil
}

func (s *service) MakePublic(ctx context.Context, storagePath string) (string, error) {
	return s.blobs.MakePublic(ctx, storagePath)
}

func (s *service) WriteArchive(ctx context.Context, applicationID string, w io.Writer) error {
	docs, err := s.docs.ListByApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return domain.ErrNoDocuments
	}

	zw := zip.NewWriter(w)
	seen := map[string]int{}
	for _, d := range docs {
		obj, err := s.blobs.Get(ctx, d.StoragePath)
		if err != nil {
			s.logger.Warn("skipping document missing from storage", "documentId", d.DocumentID, "error", err)
			continue
		}
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     archiveEntryName(d, seen),
			Method:   zip.Deflate,
			Modified: time.Now(),
		})
		if err != nil {
			obj.Body.Close()
			return err
		}
		if _, err := io.Copy(entry, obj.Body); err != nil {
			obj.Body.Close()
			return err
		}
		obj.Body.Close()
	}
	return zw.Close()
}

// archiveEntryName prefixes entries with the category and deduplicates
// repeated original names.
func archiveEntryName(d domain.Document, seen map[string]int) string {
	name := d.Category + "/" + d.OriginalName
	if n := seen[name]; n > 0 {
		ext := path.Ext(d.OriginalName)
		base := strings.TrimSuffix(d.OriginalName, ext)
		seen[name] = n + 1
		return fmt.Sprintf("%s/%s (%d)%s", d.Category, base, n, ext)
	}
	seen[name] = 1
	return name
}

// BuildPath produces a storage key scoped to one user within a category. The
// key keeps only the original file's extension; the name itself is replaced
// with a timestamp plus random suffix.
func BuildPath(category, userID, originalName string) string {
	ext := strings.ToLower(path.Ext(originalName))
	return fmt.Sprintf("%s/%s/%d-%s%s", category, userID, time.Now().UnixMilli(), randHex(8), ext)
}

// ownerFromPath extracts the user segment from a category/userID/file key.
func ownerFromPath(storagePath string) string {
	parts := strings.Split(storagePath, "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}

func randHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
