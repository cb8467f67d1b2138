package auth

import (
	"fmt"
	"time"

	"github.com/shoptrack/shoptrack/internal/platform/httpx"
)

// Account is one shop owner login. Each account owns exactly one tenant,
// and every product, sale, and summary row is keyed by that tenant.
type Account struct {
	TenantID     string    `json:"tenantId"`
	Email        string    `json:"email"`
	ShopName     string    `json:"shopName"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SignupRequest creates an account together with its tenant.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	ShopName string `json:"shopName" validate:"required,max=200"`
}

// LoginRequest exchanges credentials for a token.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is the issued bearer token and its expiry.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   string `json:"expiresAt"`
	TenantID    string `json:"tenantId"`
	ShopName    string `json:"shopName"`
}

var (
	// ErrInvalidCredentials deliberately does not distinguish a missing
	// account from a wrong password.
	ErrInvalidCredentials = fmt.Errorf("auth: invalid credentials: %w", httpx.ErrUnauthorized)
	// ErrEmailTaken indicates a signup collision.
	ErrEmailTaken = fmt.Errorf("auth: email %w", httpx.ErrDuplicate)
	// ErrInvalidToken indicates a missing, malformed, or expired token.
	ErrInvalidToken = fmt.Errorf("auth: invalid or expired token: %w", httpx.ErrUnauthorized)
	// ErrPasswordTooLong rejects passwords over the bcrypt 72-byte limit.
	ErrPasswordTooLong = fmt.Errorf("auth: password longer than 72 bytes: %w", httpx.ErrValidation)
)
