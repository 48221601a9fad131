package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/growwelltax/intake-api/internal/domain"
	"github.com/growwelltax/intake-api/internal/pkg/id"
)

// UserStore is the minimal user persistence interface the resolver needs.
type UserStore interface {
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	CreateWithIdentifiers(ctx context.Context, u *domain.User, identifiers []string) error
	ClaimIdentifier(ctx context.Context, identifier, userID string) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// Service finds or creates the user behind a verified login identifier.
type Service interface {
	// Resolve returns the user owning email or phone, creating one on first
	// login. Safe under concurrent calls for the same identifier: creation
	// goes through a conditional transaction, and the loser re-resolves.
	Resolve(ctx context.Context, email, phone string) (user *domain.User, isNew bool, err error)
}

type service struct {
	users UserStore
}

func NewService(users UserStore) Service {
	return &service{users: users}
}

func (s *service) Resolve(ctx context.Context, email, phone string) (*domain.User, bool, error) {
	if email == "" && phone == "" {
		return nil, false, fmt.Errorf("email or phone required: %w", domain.ErrBadRequest)
	}

	// Two passes: if our create loses the identifier race, the second lookup
	// finds the winner's user.
	for attempt := 0; attempt < 2; attempt++ {
		u, err := s.lookup(ctx, email, phone)
		if err == nil {
			return u, false, s.touchLogin(ctx, u, email, phone)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, false, err
		}

		u, err = s.create(ctx, email, phone)
		if err == nil {
			return u, true, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, false, err
		}
	}
	return nil, false, fmt.Errorf("could not resolve identity: %w", domain.ErrConflict)
}

func (s *service) lookup(ctx context.Context, email, phone string) (*domain.User, error) {
	if email != "" {
		u, err := s.users.GetByIdentifier(ctx, email)
		if err == nil || !errors.Is(err, domain.ErrNotFound) {
			return u, err
		}
	}
	if phone != "" {
		return s.users.GetByIdentifier(ctx, phone)
	}
	return nil, fmt.Errorf("identifier not registered: %w", domain.ErrNotFound)
}

// touchLogin bumps last_login_at and backfills whichever identifier the
// stored record is missing from the login payload.
func (s *service) touchLogin(ctx context.Context, u *domain.User, email, phone string) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"last_login_at": now.Format(time.RFC3339),
	}

	if u.Email == "" && email != "" {
		if err := s.users.ClaimIdentifier(ctx, email, u.UserID); err != nil {
			// Another user owns this email; keep the login but skip the merge.
			slog.Warn("email backfill skipped", "user_id", u.UserID, "err", err)
		} else {
			updates["email"] = email
			u.Email = email
		}
	}
	if u.Phone == "" && phone != "" {
		if err := s.users.ClaimIdentifier(ctx, phone, u.UserID); err != nil {
			slog.Warn("phone backfill skipped", "user_id", u.UserID, "err", err)
		} else {
			updates["phone"] = phone
			u.Phone = phone
		}
	}

	u.LastLoginAt = now
	return s.users.Update(ctx, u.UserID, updates)
}

func (s *service) create(ctx context.Context, email, phone string) (*domain.User, error) {
	now := time.Now().UTC()
	u := &domain.User{
		UserID:      id.New(),
		Email:       email,
		Phone:       phone,
		Role:        domain.RoleTaxpayer,
		Status:      domain.StatusActive,
		CreatedAt:   now,
		LastLoginAt: now,
		UpdatedAt:   now,
	}
	var identifiers []string
	if email != "" {
		identifiers = append(identifiers, email)
	}
	if phone != "" {
		identifiers = append(identifiers, phone)
	}
	if err := s.users.CreateWithIdentifiers(ctx, u, identifiers); err != nil {
		return nil, err
	}
	return u, nil
}
