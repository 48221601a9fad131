package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/growwelltax/intake-api/internal/domain"
)

const refreshTokenType = "refresh"

// AccessClaims is the end-user access token payload: a snapshot of the user
// record at issuance time. It is not re-read from storage until refresh.
type AccessClaims struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
	// TokenType is never set on access tokens; it surfaces here only when a
	// refresh token is parsed into these claims, so verify can reject it.
	TokenType string `json:"token_type,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims carries only the principal id. TokenType guards against an
// access token being replayed on the refresh endpoint.
type RefreshClaims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// AdminClaims is the admin access token payload. Role/pages/permissions ride
// along so the capability middleware resolves without a store read.
type AdminClaims struct {
	AdminID     string   `json:"admin_id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role,omitempty"`
	Pages       []string `json:"pages,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	TokenType   string   `json:"token_type,omitempty"`
	jwt.RegisteredClaims
}

// AdminRefreshClaims is the admin refresh token payload.
type AdminRefreshClaims struct {
	AdminID   string `json:"admin_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs with the server secret.
type Provider struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewProvider(secret string, accessTTL, refreshTTL time.Duration) (*Provider, error) {
	if secret == "" {
		return nil, errors.New("JWT secret is not configured")
	}
	return &Provider{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

func (p *Provider) SignAccess(u *domain.User) (string, error) {
	return p.sign(&AccessClaims{
		UserID:           u.UserID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		Phone:            u.Phone,
		Role:             u.Role,
		RegisteredClaims: p.registered(p.accessTTL),
	})
}

func (p *Provider) SignRefresh(userID string) (string, error) {
	return p.sign(&RefreshClaims{
		UserID:           userID,
		TokenType:        refreshTokenType,
		RegisteredClaims: p.registered(p.refreshTTL),
	})
}

func (p *Provider) SignAdmin(a *domain.AdminUser) (string, error) {
	return p.sign(&AdminClaims{
		AdminID:          a.AdminID,
		Email:            a.Email,
		Name:             a.Name,
		Role:             a.Role,
		Pages:            a.Pages,
		Permissions:      a.Permissions,
		RegisteredClaims: p.registered(p.accessTTL),
	})
}

func (p *Provider) SignAdminRefresh(adminID string) (string, error) {
	return p.sign(&AdminRefreshClaims{
		AdminID:          adminID,
		TokenType:        refreshTokenType,
		RegisteredClaims: p.registered(p.refreshTTL),
	})
}

func (p *Provider) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := p.verify(tokenStr, &claims); err != nil {
		return nil, err
	}
	if claims.UserID == "" || claims.TokenType != "" {
		return nil, fmt.Errorf("not a user access token: %w", domain.ErrUnauthorized)
	}
	return &claims, nil
}

func (p *Provider) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := p.verify(tokenStr, &claims); err != nil {
		return nil, err
	}
	if claims.TokenType != refreshTokenType || claims.UserID == "" {
		return nil, fmt.Errorf("not a user refresh token: %w", domain.ErrUnauthorized)
	}
	return &claims, nil
}

func (p *Provider) VerifyAdmin(tokenStr string) (*AdminClaims, error) {
	var claims AdminClaims
	if err := p.verify(tokenStr, &claims); err != nil {
		return nil, err
	}
	if claims.AdminID == "" || claims.TokenType != "" {
		return nil, fmt.Errorf("not an admin token: %w", domain.ErrUnauthorized)
	}
	return &claims, nil
}

func (p *Provider) VerifyAdminRefresh(tokenStr string) (*AdminRefreshClaims, error) {
	var claims AdminRefreshClaims
	if err := p.verify(tokenStr, &claims); err != nil {
		return nil, err
	}
	if claims.TokenType != refreshTokenType || claims.AdminID == "" {
		return nil, fmt.Errorf("not an admin refresh token: %w", domain.ErrUnauthorized)
	}
	return &claims, nil
}

func (p *Provider) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

func (p *Provider) verify(tokenStr string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}
	if !token.Valid {
		return fmt.Errorf("invalid token claims: %w", domain.ErrUnauthorized)
	}
	return nil
}

func (p *Provider) registered(ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
}
