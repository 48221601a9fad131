package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/growwelltax/intake-api/internal/application/document"
	"github.com/growwelltax/intake-api/internal/pkg/validate"
	"github.com/growwelltax/intake-api/internal/transport/http/middleware"
)

// maxMultipartBody caps a full upload request body, slightly above the
// per-file ceiling to leave room for the other form fields.
const maxMultipartBody = 12 << 20

// DocumentHandler handles end-user uploads and the admin file gateway.
type DocumentHandler struct {
	svc document.Service
}

func NewDocumentHandler(svc document.Service) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Upload stores one multipart file for the authenticated user. The owner is
// always the caller; clients cannot upload into another user's space.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	// Abort oversized bodies before they spool to temp disk.
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(maxMultipartBody); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer f.Close()

	doc, err := h.svc.Upload(r.Context(), document.UploadInput{
		OwnerUserID:   claims.UserID,
		ApplicationID: r.FormValue("applicationId"),
		Category:      r.FormValue("category"),
		OriginalName:  header.Filename,
		ContentType:   header.Header.Get("Content-Type"),
		Size:          header.Size,
		Body:          f,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":     true,
		"storagePath": doc.StoragePath,
		"size":        doc.Size,
		"contentType": doc.ContentType,
	})
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	docs, err := h.svc.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "documents": docs})
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.DeleteOwn(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "document deleted"})
}

// AdminServe streams a stored file to an admin. A trailing /download segment
// switches the response from inline to attachment.
func (h *DocumentHandler) AdminServe(w http.ResponseWriter, r *http.Request) {
	storagePath := chi.URLParam(r, "*")
	asAttachment := false
	if strings.HasSuffix(storagePath, "/download") {
		storagePath = strings.TrimSuffix(storagePath, "/download")
		asAttachment = true
	}
	if storagePath == "" {
		writeError(w, http.StatusBadRequest, "missing file path")
		return
	}

	obj, err := h.svc.Stream(r.Context(), storagePath)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", obj.Size))
	}
	disposition := "inline"
	if asAttachment {
		disposition = "attachment"
	}
	name := obj.OriginalName
	if name == "" {
		name = storagePath[strings.LastIndexByte(storagePath, '/')+1:]
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, name))
	_, _ = io.Copy(w, obj.Body)
}

type storagePathRequest struct {
	StoragePath string `json:"storagePath" validate:"required"`
}

func (h *DocumentHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	var body storagePathRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.DeleteByPath(r.Context(), body.StoragePath); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: "file deleted"})
}

func (h *DocumentHandler) AdminMakePublic(w http.ResponseWriter, r *http.Request) {
	var body storagePathRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	url, err := h.svc.MakePublic(r.Context(), body.StoragePath)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "url": url})
}

// AdminDownloadAll streams every document attached to an application as one
// zip archive.
func (h *DocumentHandler) AdminDownloadAll(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "applicationId")

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", applicationID+"-documents.zip"))
	if err := h.svc.WriteArchive(r.Context(), applicationID, w); err != nil {
		// Nothing written yet only in the no-documents case; otherwise the
		// stream is already underway and the status cannot change.
		writeDomainError(w, err)
		return
	}
}
