package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/growwelltax/intake-api/internal/application/taxreturn"
	"github.com/growwelltax/intake-api/internal/transport/http/middleware"
)

// ReturnHandler handles encrypted prepared-return endpoints.
type ReturnHandler struct {
	svc taxreturn.Service
}

func NewReturnHandler(svc taxreturn.Service) *ReturnHandler {
	return &ReturnHandler{svc: svc}
}

func (h *ReturnHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.AdminClaimsFromContext(r.Context())
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

	record, err := h.svc.Upload(r.Context(), taxreturn.UploadInput{
		ApplicationID: r.FormValue("applicationId"),
		ReturnType:    r.FormValue("returnType"),
		UploadedBy:    claims.AdminID,
		OriginalName:  header.Filename,
		ContentType:   header.Header.Get("Content-Type"),
		Size:          header.Size,
		Body:          f,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "return": record})
}

func (h *ReturnHandler) List(w http.ResponseWriter, r *http.Request) {
	returns, err := h.svc.List(r.Context(), chi.URLParam(r, "applicationId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "returns": returns})
}

// View decrypts a stored return and streams it inline under its original
// filename.
func (h *ReturnHandler) View(w http.ResponseWriter, r *http.Request) {
	record, plain, closeFn, err := h.svc.Open(r.Context(), chi.URLParam(r, "applicationId"), chi.URLParam(r, "returnType"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer closeFn()

	w.Header().Set("Content-Type", record.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", record.OriginalName))
	_, _ = io.Copy(w, plain)
}
