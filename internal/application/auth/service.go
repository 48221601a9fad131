package auth

import (
	"context"
	"fmt"

	"github.com/growwelltax/intake-api/internal/application/identity"
	"github.com/growwelltax/intake-api/internal/application/otp"
	"github.com/growwelltax/intake-api/internal/domain"
	jwtinfra "github.com/growwelltax/intake-api/internal/infrastructure/jwt"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the minimal user persistence interface the service needs.
type UserStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// AdminStore is the minimal admin persistence interface the service needs.
type AdminStore interface {
	Get(ctx context.Context, adminID string) (*domain.AdminUser, error)
	GetByEmail(ctx context.Context, email string) (*domain.AdminUser, error)
}

// TokenProvider signs and verifies the token pairs this service hands out.
type TokenProvider interface {
	SignAccess(u *domain.User) (string, error)
	SignRefresh(userID string) (string, error)
	SignAdmin(a *domain.AdminUser) (string, error)
	SignAdminRefresh(adminID string) (string, error)
	VerifyRefresh(token string) (*jwtinfra.RefreshClaims, error)
	VerifyAdminRefresh(token string) (*jwtinfra.AdminRefreshClaims, error)
}

// LoginResult is a successful passwordless login: the resolved user plus a
// fresh token pair.
type LoginResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
	IsNew        bool
}

// AdminLoginResult is a successful admin credential login.
type AdminLoginResult struct {
	Admin        *domain.AdminUser
	AccessToken  string
	RefreshToken string
}

type Service interface {
	// SendOTP issues a challenge for the identifier. The result never
	// discloses whether the identifier belongs to an existing user.
	SendOTP(ctx context.Context, identifier, channel string) error

	// VerifyOTP checks the code, finds or creates the user, and mints a
	// token pair. Exactly one of email/phone selects the challenge.
	VerifyOTP(ctx context.Context, email, phone, code string) (*LoginResult, error)

	// Me reads the live user record (not the token snapshot).
	Me(ctx context.Context, userID string) (*domain.User, error)

	// Refresh validates a refresh token and mints a new access token from
	// the current user record. The refresh token itself is not rotated.
	Refresh(ctx context.Context, refreshToken string) (string, error)

	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error)

	AdminLogin(ctx context.Context, email, password string) (*AdminLoginResult, error)
	AdminRefresh(ctx context.Context, refreshToken string) (string, error)
}

type service struct {
	otpSvc      otp.Service
	identitySvc identity.Service
	users       UserStore
	admins      AdminStore
	tokens      TokenProvider
}

func NewService(otpSvc otp.Service, identitySvc identity.Service, users UserStore, admins AdminStore, tokens TokenProvider) Service {
	return &service{
		otpSvc:      otpSvc,
		identitySvc: identitySvc,
		users:       users,
		admins:      admins,
		tokens:      tokens,
	}
}

func (s *service) SendOTP(ctx context.Context, identifier, channel string) error {
	return s.otpSvc.Request(ctx, identifier, channel)
}

func (s *service) VerifyOTP(ctx context.Context, email, phone, code string) (*LoginResult, error) {
	if !validCodeFormat(code) {
		return nil, fmt.Errorf("valid 6-digit OTP is required: %w", domain.ErrBadRequest)
	}
	identifier := email
	if identifier == "" {
		identifier = phone
	}
	if identifier == "" {
		return nil, fmt.Errorf("email or phone is required: %w", domain.ErrBadRequest)
	}

	if err := s.otpSvc.Verify(ctx, identifier, code); err != nil {
		return nil, err
	}

	user, isNew, err := s.identitySvc.Resolve(ctx, email, phone)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.SignAccess(user)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.SignRefresh(user.UserID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		IsNew:        isNew,
	}, nil
}

func (s *service) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.Get(ctx, userID)
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", err
	}
	// Re-read the live record so role and name changes since issuance make
	// it into the new snapshot.
	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		return "", fmt.Errorf("user no longer exists: %w", domain.ErrUnauthorized)
	}
	return s.tokens.SignAccess(user)
}

func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("nothing to update: %w", domain.ErrBadRequest)
	}
	if err := s.users.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.users.Get(ctx, userID)
}

func (s *service) AdminLogin(ctx context.Context, email, password string) (*AdminLoginResult, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !admin.IsActive {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	accessToken, err := s.tokens.SignAdmin(admin)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.SignAdminRefresh(admin.AdminID)
	if err != nil {
		return nil, err
	}
	return &AdminLoginResult{Admin: admin, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *service) AdminRefresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyAdminRefresh(refreshToken)
	if err != nil {
		return "", err
	}
	admin, err := s.admins.Get(ctx, claims.AdminID)
	if err != nil {
		return "", fmt.Errorf("admin no longer exists: %w", domain.ErrUnauthorized)
	}
	if !admin.IsActive {
		return "", fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	return s.tokens.SignAdmin(admin)
}

func validCodeFormat(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// HashPassword is used by the startup seed to store admin credentials.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
