package jwt

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func TestGenerateAndParseRoundTrip(t *testing.T) {
	token, err := GenerateToken(Identity{UserID: "user-1", Email: "a@x.com"}, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := Parse(token, testSecret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "a@x.com" {
		t.Fatalf("unexpected claims: %+v", claims.Identity())
	}
	if claims.Issuer != Issuer {
		t.Fatalf("unexpected issuer %q", claims.Issuer)
	}
}

func TestGenerateTokenDefaultsTTL(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	token, err := GenerateTokenAt(Identity{UserID: "user-1"}, testSecret, 0, now)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseAt(token, testSecret, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := claims.ExpiresAt.Time.Sub(now); got != DefaultTTL {
		t.Fatalf("expected default ttl %s, got %s", DefaultTTL, got)
	}
}

func TestParseExpiredToken(t *testing.T) {
	issued := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	token, err := GenerateTokenAt(Identity{UserID: "user-1"}, testSecret, DefaultTTL, issued)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseAt(token, testSecret, issued.Add(DefaultTTL-time.Minute)); err != nil {
		t.Fatalf("expected token valid before expiry, got %v", err)
	}
	_, err = ParseAt(token, testSecret, issued.Add(DefaultTTL+time.Minute))
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestParseWrongSecret(t *testing.T) {
	token, err := GenerateToken(Identity{UserID: "user-1"}, "other-secret", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := Parse(token, testSecret); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestParseTamperedPayload(t *testing.T) {
	token, err := GenerateToken(Identity{UserID: "user-1", Email: "a@x.com"}, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	parts := strings.Split(token, ".")
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	payload["user_id"] = "user-2"
	forged, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	parts[1] = base64.RawURLEncoding.EncodeToString(forged)

	if _, err := Parse(strings.Join(parts, "."), testSecret); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    Issuer,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Parse(token, testSecret); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature for HS512 token, got %v", err)
	}
}

func TestParseMalformed(t *testing.T) {
	for _, token := range []string{"", "not-a-token", "a.b", "a.b.c"} {
		if _, err := Parse(token, testSecret); !errors.Is(err, ErrMalformed) {
			t.Fatalf("expected ErrMalformed for %q, got %v", token, err)
		}
	}
}

func TestParseRequiresUserID(t *testing.T) {
	token, err := GenerateToken(Identity{}, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := Parse(token, testSecret); !errors.Is(err, ErrInvalidClaims) {
		t.Fatalf("expected ErrInvalidClaims, got %v", err)
	}
}

func TestMissingSecret(t *testing.T) {
	if _, err := GenerateToken(Identity{UserID: "user-1"}, "", time.Hour); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret on generate, got %v", err)
	}
	if _, err := Parse("a.b.c", ""); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret on parse, got %v", err)
	}
}
