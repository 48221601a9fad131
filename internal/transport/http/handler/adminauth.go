package handler

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/growwelltax/intake-api/internal/application/auth"
	"github.com/growwelltax/intake-api/internal/application/permission"
	"github.com/growwelltax/intake-api/internal/domain"
	"github.com/growwelltax/intake-api/internal/pkg/validate"
)

// AdminAuthHandler handles admin credential login and token refresh.
type AdminAuthHandler struct {
	svc auth.Service
}

func NewAdminAuthHandler(svc auth.Service) *AdminAuthHandler {
	return &AdminAuthHandler{svc: svc}
}

// adminProfile is the admin shape returned to clients. The password hash
// never leaves the server.
type adminProfile struct {
	AdminID      string   `json:"adminId"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Pages        []string `json:"pages"`
	Permissions  []string `json:"permissions"`
	Capabilities []string `json:"capabilities"`
}

func toAdminProfile(a *domain.AdminUser) adminProfile {
	caps := permission.Resolve(a)
	names := make([]string, 0, len(caps))
	for c := range caps {
		names = append(names, c)
	}
	sort.Strings(names)
	return adminProfile{
		AdminID:      a.AdminID,
		Email:        a.Email,
		Name:         a.Name,
		Role:         a.Role,
		Pages:        a.Pages,
		Permissions:  a.Permissions,
		Capabilities: names,
	}
}

type adminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AdminAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.AdminLogin(r.Context(), body.Email, body.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LoginEnvelope{
		Success: true,
		Message: "login successful",
		User:    toAdminProfile(result.Admin),
		Tokens: &TokenPair{
			AccessToken:  result.AccessToken,
			RefreshToken: result.RefreshToken,
		},
	})
}

func (h *AdminAuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	accessToken, err := h.svc.AdminRefresh(r.Context(), body.RefreshToken)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RefreshEnvelope{Success: true, AccessToken: accessToken})
}
