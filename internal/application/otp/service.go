package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/growwelltax/intake-api/internal/domain"
	"github.com/growwelltax/intake-api/internal/infrastructure/smtp"
	"github.com/growwelltax/intake-api/internal/infrastructure/sns"
)

const (
	challengeTTL = 10 * time.Minute
	maxAttempts  = 3
)

// ChallengeStore is the minimal challenge persistence interface the service needs.
type ChallengeStore interface {
	Put(ctx context.Context, c *domain.OtpChallenge) error
	Get(ctx context.Context, identifier string) (*domain.OtpChallenge, error)
	IncrementAttempts(ctx context.Context, identifier string) (int, error)
	Delete(ctx context.Context, identifier string) error
}

// Service issues and verifies one-time passcodes.
type Service interface {
	// Request persists a fresh challenge for the identifier (replacing any
	// live one) and dispatches the code out-of-band. It succeeds whether or
	// not the identifier belongs to a known user.
	Request(ctx context.Context, identifier, channel string) error

	// Verify consumes the challenge: success, expiry, and the attempt
	// ceiling all remove it, so a code is never usable twice.
	Verify(ctx context.Context, identifier, code string) error
}

type service struct {
	challenges ChallengeStore
	mailer     smtp.Mailer
	smsSender  sns.SMSSender
}

func NewService(challenges ChallengeStore, mailer smtp.Mailer, smsSender sns.SMSSender) Service {
	return &service{challenges: challenges, mailer: mailer, smsSender: smsSender}
}

func (s *service) Request(ctx context.Context, identifier, channel string) error {
	switch channel {
	case domain.ChannelEmail:
		if !strings.Contains(identifier, "@") {
			return fmt.Errorf("valid email address is required: %w", domain.ErrBadRequest)
		}
	case domain.ChannelPhone:
		if len(digitsOf(identifier)) < 10 {
			return fmt.Errorf("valid phone number is required: %w", domain.ErrBadRequest)
		}
	default:
		return fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	now := time.Now()
	c := &domain.OtpChallenge{
		Identifier: identifier,
		Code:       code,
		Channel:    channel,
		ExpiresAt:  now.Add(challengeTTL).Unix(),
		Attempts:   0,
		CreatedAt:  now.Unix(),
	}
	if err := s.challenges.Put(ctx, c); err != nil {
		return err
	}

	// Delivery failure after persist is logged, not surfaced: the response
	// must not reveal whether the identifier maps to a real inbox or number.
	if err := s.dispatch(ctx, identifier, channel, code); err != nil {
		slog.Warn("failed to dispatch OTP", "channel", channel, "err", err)
	}
	return nil
}

func (s *service) Verify(ctx context.Context, identifier, code string) error {
	c, err := s.challenges.Get(ctx, identifier)
	if err != nil {
		// Only an absent challenge is a terminal OTP state; a storage
		// failure must not tell the client to request a new code.
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: request a new code", domain.ErrOTPNotFound)
		}
		return fmt.Errorf("load challenge: %w", err)
	}

	if time.Now().Unix() > c.ExpiresAt {
		s.remove(ctx, identifier)
		return fmt.Errorf("%w: request a new code", domain.ErrOTPExpired)
	}

	if c.Code != code {
		attempts, err := s.challenges.IncrementAttempts(ctx, identifier)
		if err != nil {
			return err
		}
		if attempts >= maxAttempts {
			s.remove(ctx, identifier)
			return fmt.Errorf("%w: request a new code", domain.ErrOTPTooManyAttempts)
		}
		return &domain.InvalidCodeError{AttemptsLeft: maxAttempts - attempts}
	}

	s.remove(ctx, identifier)
	return nil
}

func (s *service) dispatch(ctx context.Context, identifier, channel, code string) error {
	if channel == domain.ChannelEmail {
		return s.mailer.SendEmail(identifier, "Your verification code", "Your OTP: "+code)
	}
	if s.smsSender == nil {
		return fmt.Errorf("sms sender not configured")
	}
	return s.smsSender.SendSMS(ctx, identifier, "Your verification code: "+code)
}

func (s *service) remove(ctx context.Context, identifier string) {
	if err := s.challenges.Delete(ctx, identifier); err != nil {
		slog.Warn("failed to delete OTP challenge", "err", err)
	}
}

// generateCode draws a 6-digit code uniformly from [000000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
