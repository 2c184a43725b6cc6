// Package session implements the issuance flow: validate an email, look the
// account up in the external directory, check its status, and mint a signed
// time-bounded token. Issuance is stateless — there is no session table, the
// browser owns the credential after it is handed over.
package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gatepass.dev/internal/directory"
)

const (
	issuerName = "gatepass"

	// DefaultTTL is the fixed validity window of an issued token.
	DefaultTTL = 24 * time.Hour
)

var (
	// ErrMissingEmail indicates an empty or absent email.
	ErrMissingEmail = errors.New("session: email is required")
	// ErrInvalidEmail indicates the email failed the shape check.
	ErrInvalidEmail = errors.New("session: invalid email format")
	// ErrNotConfigured indicates a deployment defect: the directory
	// credential or the signing secret is absent.
	ErrNotConfigured = errors.New("session: service is not configured")
	// ErrUserNotFound indicates no directory record matched the email.
	ErrUserNotFound = errors.New("session: user not found")
	// ErrInactiveAccount indicates the matched record is not active.
	ErrInactiveAccount = errors.New("session: account is inactive")
	// ErrInvalidToken indicates the token failed validation.
	ErrInvalidToken = errors.New("session: invalid token")
)

// local@domain.tld, no whitespace, single @.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Claims are the identity claims embedded in a session token.
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Profile is the subset of a directory record safe to return to the client.
type Profile struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Gender string `json:"gender"`
	Status string `json:"status"`
}

// Finder is the directory lookup the issuer depends on.
type Finder interface {
	Configured() bool
	ListByEmail(ctx context.Context, email string) ([]directory.User, error)
}

// Issuer validates login attempts against the directory and mints tokens.
type Issuer struct {
	dir    Finder
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures Issuer behavior.
type Option func(*Issuer)

// WithTTL overrides the token validity window.
func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(i *Issuer) {
		if fn != nil {
			i.now = fn
		}
	}
}

// NewIssuer constructs an Issuer. An empty secret is accepted here and
// reported per request as ErrNotConfigured, so a misconfigured deployment
// still starts and surfaces the defect through /readyz and error responses
// instead of crash-looping.
func NewIssuer(dir Finder, secret string, opts ...Option) *Issuer {
	iss := &Issuer{
		dir:    dir,
		secret: []byte(strings.TrimSpace(secret)),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(iss)
	}
	return iss
}

// Issue runs the login flow for the given email.
//
// A token is issued if and only if a directory record with that email exists
// and its status is "active". When the directory returns several records the
// first one is taken as canonical; the directory is trusted to keep email
// unique, so the order is never expected to matter.
func (i *Issuer) Issue(ctx context.Context, email string) (string, Profile, error) {
	if email == "" {
		return "", Profile{}, ErrMissingEmail
	}
	if !emailPattern.MatchString(email) {
		return "", Profile{}, ErrInvalidEmail
	}
	if !i.dir.Configured() || len(i.secret) == 0 {
		return "", Profile{}, ErrNotConfigured
	}

	users, err := i.dir.ListByEmail(ctx, email)
	if err != nil {
		return "", Profile{}, err
	}
	if len(users) == 0 {
		return "", Profile{}, ErrUserNotFound
	}

	user := users[0]
	if user.Status != "active" {
		return "", Profile{}, ErrInactiveAccount
	}

	token, err := i.mint(user)
	if err != nil {
		return "", Profile{}, err
	}
	profile := Profile{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Gender: user.Gender,
		Status: user.Status,
	}
	return token, profile, nil
}

// TTL returns the configured validity window, for cookie max-age.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

func (i *Issuer) mint(user directory.User) (string, error) {
	now := i.now().UTC()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseAndValidate verifies a token's signature and required claims.
func (i *Issuer) ParseAndValidate(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	if len(i.secret) == 0 {
		return nil, ErrNotConfigured
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if err := i.validateClaims(claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *Issuer) validateClaims(claims *Claims) error {
	if claims.Issuer != issuerName {
		return fmt.Errorf("unexpected issuer: %s", claims.Issuer)
	}
	if claims.UserID == 0 || strings.TrimSpace(claims.Email) == "" {
		return errors.New("identity claims missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	now := i.now().UTC()
	if now.After(claims.ExpiresAt.Time) {
		return errors.New("token expired")
	}
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return errors.New("token issued in the future")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}
