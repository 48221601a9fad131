package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/growwelltax/intake-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TokenPair carries a freshly minted token pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginEnvelope wraps verify-otp and admin login responses.
type LoginEnvelope struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	User      interface{} `json:"user,omitempty"`
	Tokens    *TokenPair  `json:"tokens,omitempty"`
	IsNewUser *bool       `json:"isNewUser,omitempty"`
}

// RefreshEnvelope wraps access-token refresh responses.
type RefreshEnvelope struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
}

// VerifyErrorEnvelope carries the remaining-attempt count on a wrong code.
type VerifyErrorEnvelope struct {
	Success      bool   `json:"success"`
	Error        string `json:"error"`
	AttemptsLeft int    `json:"attemptsLeft"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// writeDomainError maps service errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var invalidCode *domain.InvalidCodeError
	if errors.As(err, &invalidCode) {
		writeJSON(w, http.StatusBadRequest, VerifyErrorEnvelope{
			Error:        invalidCode.Error(),
			AttemptsLeft: invalidCode.AttemptsLeft,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrOTPNotFound),
		errors.Is(err, domain.ErrOTPExpired),
		errors.Is(err, domain.ErrOTPTooManyAttempts),
		errors.Is(err, domain.ErrInvalidFileType),
		errors.Is(err, domain.ErrFileTooLarge),
		errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoDocuments):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
