package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/growwelltax/intake-api/internal/application/document"
	"github.com/growwelltax/intake-api/internal/domain"
	jwtinfra "github.com/growwelltax/intake-api/internal/infrastructure/jwt"
	s3infra "github.com/growwelltax/intake-api/internal/infrastructure/s3"
	"github.com/growwelltax/intake-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockDocumentService struct{ mock.Mock }

func (m *mockDocumentService) Upload(ctx context.Context, in document.UploadInput) (*domain.Document, error) {
	args := m.Called(ctx, in)
	if d, _ := args.Get(0).(*domain.Document); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDocumentService) Stream(ctx context.Context, storagePath string) (*s3infra.Object, error) {
	args := m.Called(ctx, storagePath)
	if o, _ := args.Get(0).(*s3infra.Object); o != nil {
		return o, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDocumentService) ListByUser(ctx context.Context, userID string) ([]document.ListedDocument, error) {
	args := m.Called(ctx, userID)
	if l, _ := args.Get(0).([]document.ListedDocument); l != nil {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDocumentService) DeleteOwn(ctx context.Context, userID, documentID string) error {
	return m.Called(ctx, userID, documentID).Error(0)
}
func (m *mockDocumentService) DeleteByPath(ctx context.Context, storagePath string) error {
	return m.Called(ctx, storagePath).Error(0)
}
func (m *mockDocumentService) MakePublic(ctx context.Context, storagePath string) (string, error) {
	args := m.Called(ctx, storagePath)
	return args.String(0), args.Error(1)
}
func (m *mockDocumentService) WriteArchive(ctx context.Context, applicationID string, w io.Writer) error {
	return m.Called(ctx, applicationID, w).Error(0)
}

func multipartUpload(t *testing.T, fileBody []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "w2.pdf")
	require.NoError(t, err)
	_, err = fw.Write(fileBody)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("category", "w2-forms"))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func userRequest(method, target string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, target, body)
	claims := &jwtinfra.AccessClaims{UserID: "u1"}
	return r.WithContext(context.WithValue(r.Context(), middleware.ClaimsKey, claims))
}

// --- tests ---

func TestUploadHandler_StoresFile(t *testing.T) {
	svc := new(mockDocumentService)
	svc.On("Upload", mock.Anything, mock.MatchedBy(func(in document.UploadInput) bool {
		return in.OwnerUserID == "u1" && in.Category == "w2-forms" && in.OriginalName == "w2.pdf"
	})).Return(&domain.Document{StoragePath: "w2-forms/u1/x.pdf", Size: 4}, nil)
	h := NewDocumentHandler(svc)

	body, contentType := multipartUpload(t, []byte("%PDF"))
	req := userRequest(http.MethodPost, "/upload/document", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestUploadHandler_OversizedBodyRejectedBeforeService(t *testing.T) {
	svc := new(mockDocumentService)
	h := NewDocumentHandler(svc)

	body, contentType := multipartUpload(t, bytes.Repeat([]byte("a"), maxMultipartBody+1))
	req := userRequest(http.MethodPost, "/upload/document", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}
