package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped into every token and required on parse.
const Issuer = "todo-backend"

// DefaultTTL is the lifetime of a login token.
const DefaultTTL = 7 * 24 * time.Hour

var (
	// ErrMissingSecret is returned when no signing secret is configured.
	ErrMissingSecret = errors.New("jwt: signing secret not configured")
	// ErrMalformed is returned when a token cannot be parsed.
	ErrMalformed = errors.New("jwt: malformed token")
	// ErrBadSignature is returned when a token signature does not verify.
	ErrBadSignature = errors.New("jwt: bad signature")
	// ErrExpired is returned when a token is past its expiration.
	ErrExpired = errors.New("jwt: token expired")
	// ErrInvalidClaims is returned when a verified token carries unusable claims.
	ErrInvalidClaims = errors.New("jwt: invalid claims")
)

// Identity is the minimal identity embedded in a token.
type Identity struct {
	UserID string
	Email  string
}

// Claims defines JWT payload.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwtlib.RegisteredClaims
}

// Identity returns the embedded identity claim.
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Email: c.Email}
}

// GenerateToken issues a signed JWT with provided secret and ttl.
func GenerateToken(identity Identity, secret string, ttl time.Duration) (string, error) {
	return GenerateTokenAt(identity, secret, ttl, time.Now())
}

// GenerateTokenAt issues a token as if signed at now.
func GenerateTokenAt(identity Identity, secret string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	claims := Claims{
		UserID: identity.UserID,
		Email:  identity.Email,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   identity.UserID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse validates and extracts claims from token.
func Parse(token string, secret string) (*Claims, error) {
	return ParseAt(token, secret, time.Now())
}

// ParseAt validates token against the clock reading now.
func ParseAt(token string, secret string, now time.Time) (*Claims, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrMalformed
	}
	parsed, err := jwtlib.ParseWithClaims(token, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}),
		jwtlib.WithIssuer(Issuer),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, classify(err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidClaims
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, fmt.Errorf("%w: user_id missing", ErrInvalidClaims)
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwtlib.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, jwtlib.ErrTokenSignatureInvalid), errors.Is(err, jwtlib.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrBadSignature, err)
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidClaims, err)
	}
}
