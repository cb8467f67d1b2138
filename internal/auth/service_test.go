package auth

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shoptrack/shoptrack/internal/platform/httpx"
)

type memoryRepo struct {
	accounts map[string]Account
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{accounts: map[string]Account{}}
}

func (r *memoryRepo) CreateAccount(ctx context.Context, account Account) error {
	if _, ok := r.accounts[account.Email]; ok {
		return ErrEmailTaken
	}
	r.accounts[account.Email] = account
	return nil
}

func (r *memoryRepo) GetByEmail(ctx context.Context, email string) (Account, error) {
	account, ok := r.accounts[email]
	if !ok {
		return Account{}, ErrInvalidCredentials
	}
	return account, nil
}

func newTestService(repo RepositoryPort) *Service {
	return NewService(repo, "test-secret", time.Hour, slog.Default())
}

func TestSignupLoginRoundTrip(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	issued, err := svc.Signup(ctx, SignupRequest{
		Email:    "Owner@Example.com",
		Password: "hunter2hunter2",
		ShopName: "Corner Store",
	})
	require.NoError(t, err)
	require.NotEmpty(t, issued.AccessToken)
	require.NotEmpty(t, issued.TenantID)
	require.Equal(t, "Corner Store", issued.ShopName)

	// Email is normalized, so the mixed-case login works.
	logged, err := svc.Login(ctx, LoginRequest{Email: "owner@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)
	require.Equal(t, issued.TenantID, logged.TenantID)

	tenantID, err := svc.ParseToken(logged.AccessToken)
	require.NoError(t, err)
	require.Equal(t, issued.TenantID, tenantID)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	req := SignupRequest{Email: "a@b.com", Password: "password-1", ShopName: "A"}
	_, err := svc.Signup(ctx, req)
	require.NoError(t, err)
	_, err = svc.Signup(ctx, req)
	require.ErrorIs(t, err, ErrEmailTaken)
	require.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupRequest{Email: "a@b.com", Password: "password-1", ShopName: "A"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "a@b.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@b.com", Password: "password-1"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseTokenRejectsGarbageAndExpired(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.ParseToken("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)

	// Issue a token already past its expiry.
	expired := newTestService(newMemoryRepo())
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	issued, err := expired.issue(Account{TenantID: "t1", ShopName: "A"})
	require.NoError(t, err)

	_, err = svc.ParseToken(issued.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireTenantMiddleware(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	issued, err := svc.issue(Account{TenantID: "tenant-42", ShopName: "A"})
	require.NoError(t, err)

	var seen string
	handler := RequireTenant(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httpx.TenantFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Valid token.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/inventory", nil)
	req.Header.Set("Authorization", "Bearer "+issued.AccessToken)
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "tenant-42", seen)

	// Missing header.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inventory", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/inventory", nil)
	req.Header.Set("Authorization", "Bearer nope")
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignupRejectsOverlongPassword(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	// bcrypt cannot hash more than 72 bytes.
	_, err := svc.Signup(context.Background(), SignupRequest{
		Email:    "a@b.com",
		Password: strings.Repeat("x", 100),
		ShopName: "A",
	})
	require.ErrorIs(t, err, ErrPasswordTooLong)
	require.ErrorIs(t, err, httpx.ErrValidation)
	require.Empty(t, repo.accounts)
}
