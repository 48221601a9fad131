package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// OTP challenge terminal states. A verify that returns one of these (other
// than InvalidCodeError) has consumed the challenge; the caller must request
// a new one.
var (
	ErrOTPNotFound        = errors.New("OTP not found")
	ErrOTPExpired         = errors.New("OTP expired")
	ErrOTPTooManyAttempts = errors.New("too many incorrect attempts")
)

// InvalidCodeError reports a wrong code on a still-live challenge.
type InvalidCodeError struct {
	AttemptsLeft int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid OTP, %d attempts left", e.AttemptsLeft)
}

// File validation failures, always raised before any storage write.
var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrNoDocuments     = errors.New("no documents for application")
)
