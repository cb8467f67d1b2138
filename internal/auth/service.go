package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RepositoryPort abstracts account storage for the service.
type RepositoryPort interface {
	CreateAccount(ctx context.Context, account Account) error
	GetByEmail(ctx context.Context, email string) (Account, error)
}

type tenantClaims struct {
	jwtlib.RegisteredClaims
	ShopName string `json:"shopName"`
}

// Service issues and verifies tenant tokens.
type Service struct {
	repo     RepositoryPort
	secret   []byte
	tokenTTL time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, secret string, tokenTTL time.Duration, logger *slog.Logger) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	return &Service{
		repo:     repo,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Signup registers a shop and returns a token for its fresh tenant.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (TokenResponse, error) {
	// bcrypt only hashes the first 72 bytes; anything longer is rejected
	// here rather than silently truncated.
	if len(req.Password) > 72 {
		return TokenResponse{}, ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return TokenResponse{}, err
	}
	account := Account{
		TenantID:     uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		ShopName:     strings.TrimSpace(req.ShopName),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return TokenResponse{}, err
	}

	s.logger.Info("tenant registered",
		slog.String("tenant_id", account.TenantID),
		slog.String("shop", account.ShopName))
	return s.issue(account)
}

// Login verifies credentials and returns a token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	account, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return TokenResponse{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		return TokenResponse{}, ErrInvalidCredentials
	}
	return s.issue(account)
}

// ParseToken verifies a bearer token and returns the tenant it belongs to.
func (s *Service) ParseToken(tokenStr string) (string, error) {
	claims := &tenantClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

func (s *Service) issue(account Account) (TokenResponse, error) {
	expiresAt := s.now().UTC().Add(s.tokenTTL)
	claims := tenantClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   account.TenantID,
			IssuedAt:  jwtlib.NewNumericDate(s.now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "shoptrack",
		},
		ShopName: account.ShopName,
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
		TenantID:    account.TenantID,
		ShopName:    account.ShopName,
	}, nil
}
