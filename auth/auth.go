// Package auth issues and verifies the signed tokens that identify the
// caller of every budget route.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ficoreafrica/ledger"
	"github.com/ficoreafrica/ledger/account"
	"github.com/ficoreafrica/ledger/billing"
	"github.com/ficoreafrica/ledger/id"
)

// CookieName is the cookie checked before the Authorization header.
const CookieName = "access_token"

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 24 * time.Hour

var (
	ErrMissingToken = errors.New("auth: missing token")
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrNoSecret     = errors.New("auth: signing secret is empty")
)

// Claims carries the account, its role and the session.
type Claims struct {
	Role      account.Role `json:"role"`
	SessionID string       `json:"sid"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies HS256 tokens.
type Authenticator struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithTTL sets the lifetime of issued tokens.
func WithTTL(d time.Duration) Option {
	return func(a *Authenticator) { a.ttl = d }
}

// WithIssuer sets the iss claim. Verification then requires it.
func WithIssuer(iss string) Option {
	return func(a *Authenticator) { a.issuer = iss }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

// New creates an Authenticator for secret.
func New(secret string, opts ...Option) (*Authenticator, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	a := &Authenticator{
		secret: []byte(secret),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Issue signs a token for the account with a fresh session ID.
func (a *Authenticator) Issue(accountID id.AccountID, role account.Role) (string, error) {
	if accountID.IsNil() {
		return "", fmt.Errorf("auth: issue: %w", ledger.ErrInvalidUser)
	}
	if role == "" {
		role = account.RoleUser
	}

	now := a.now()
	claims := Claims{
		Role:      role,
		SessionID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token and returns its claims. A "Bearer " prefix is
// accepted.
func (a *Authenticator) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return nil, ErrMissingToken
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(a.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if _, err := id.ParseAccountID(claims.Subject); err != nil {
		return nil, fmt.Errorf("%w: subject: %v", ErrInvalidToken, err)
	}
	switch claims.Role {
	case account.RoleUser, account.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}

// Actor converts verified claims into the billing actor.
func (c *Claims) Actor() billing.Actor {
	accountID, _ := id.ParseAccountID(c.Subject)
	return billing.Actor{AccountID: accountID, Role: c.Role}
}

// TokenFromRequest reads the access_token cookie, falling back to the
// Authorization header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && strings.TrimSpace(c.Value) != "" {
		return strings.TrimSpace(c.Value)
	}
	return strings.TrimSpace(r.Header.Get("Authorization"))
}

// Middleware verifies the request token and stores the actor and session
// on the request context. Requests without a valid token are passed to
// deny.
func (a *Authenticator) Middleware(deny func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := a.Verify(TokenFromRequest(r))
			if err != nil {
				deny(w, r, err)
				return
			}
			ctx := WithActor(r.Context(), claims.Actor())
			ctx = ledger.WithSessionID(ctx, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type actorKey struct{}

// WithActor returns a context carrying actor.
func WithActor(ctx context.Context, actor billing.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored by the middleware.
func ActorFrom(ctx context.Context) (billing.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(billing.Actor)
	return actor, ok
}
