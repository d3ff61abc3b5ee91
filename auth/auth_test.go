package auth_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/account"
	"github.com/ficoreafrica/ledger/auth"
	"github.com/ficoreafrica/ledger/id"
)

func newAuthenticator(t *testing.T, opts ...auth.Option) *auth.Authenticator {
	t.Helper()
	a, err := auth.New("test-secret", opts...)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return a
}

func TestNewRequiresSecret(t *testing.T) {
	if _, err := auth.New(""); !errors.Is(err, auth.ErrNoSecret) {
		t.Errorf("expected ErrNoSecret, got %v", err)
	}
}

func TestIssueVerify(t *testing.T) {
	a := newAuthenticator(t, auth.WithIssuer("ficore"))
	accountID := id.NewAccountID()

	token, err := a.Issue(accountID, account.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := a.Verify("Bearer " + token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != accountID.String() {
		t.Errorf("subject = %q, want %q", claims.Subject, accountID.String())
	}
	if claims.SessionID == "" {
		t.Error("expected a session id")
	}
	actor := claims.Actor()
	if actor.AccountID != accountID || !actor.IsAdmin() {
		t.Errorf("unexpected actor: %+v", actor)
	}
}

func TestIssueDefaultsRole(t *testing.T) {
	a := newAuthenticator(t)
	token, err := a.Issue(id.NewAccountID(), "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := a.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Role != account.RoleUser {
		t.Errorf("role = %q, want user", claims.Role)
	}
}

func TestIssueRejectsNilAccount(t *testing.T) {
	a := newAuthenticator(t)
	if _, err := a.Issue(id.AccountID{}, account.RoleUser); !errors.Is(err, ledger.ErrInvalidUser) {
		t.Errorf("expected ErrInvalidUser, got %v", err)
	}
}

func TestVerifyRejects(t *testing.T) {
	a := newAuthenticator(t)
	accountID := id.NewAccountID()

	good, err := a.Issue(accountID, account.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	wrongKey, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Role: account.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("another-secret"))

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Role:             account.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{Subject: accountID.String()},
	}).SignedString([]byte("test-secret"))

	badSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Role: account.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))

	badRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Role: "root",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", auth.ErrMissingToken},
		{"bearer only", "Bearer ", auth.ErrMissingToken},
		{"garbage", "not.a.token", auth.ErrInvalidToken},
		{"tampered", good + "x", auth.ErrInvalidToken},
		{"wrong key", wrongKey, auth.ErrInvalidToken},
		{"no expiry", noExpiry, auth.ErrInvalidToken},
		{"bad subject", badSubject, auth.ErrInvalidToken},
		{"bad role", badRole, auth.ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Verify(tt.token); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestVerifyExpired(t *testing.T) {
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := issued
	a := newAuthenticator(t, auth.WithTTL(time.Hour), auth.WithClock(func() time.Time { return now }))

	token, err := a.Issue(id.NewAccountID(), account.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := a.Verify(token); err != nil {
		t.Fatalf("verify fresh token: %v", err)
	}

	now = issued.Add(2 * time.Hour)
	if _, err := a.Verify(token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer header-token")
	if got := auth.TokenFromRequest(r); got != "Bearer header-token" {
		t.Errorf("got %q, want header value", got)
	}

	r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "cookie-token"})
	if got := auth.TokenFromRequest(r); got != "cookie-token" {
		t.Errorf("got %q, want cookie value first", got)
	}
}

func TestMiddleware(t *testing.T) {
	a := newAuthenticator(t)
	accountID := id.NewAccountID()
	token, err := a.Issue(accountID, account.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var denied error
	deny := func(w http.ResponseWriter, _ *http.Request, err error) {
		denied = err
		w.WriteHeader(http.StatusUnauthorized)
	}

	var gotSession string
	h := a.Middleware(deny)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := auth.ActorFrom(r.Context())
		if !ok || actor.AccountID != accountID {
			t.Errorf("unexpected actor: %+v", actor)
		}
		gotSession = ledger.SessionIDFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if gotSession == "" {
		t.Error("expected session id on context")
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if !errors.Is(denied, auth.ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", denied)
	}
}
