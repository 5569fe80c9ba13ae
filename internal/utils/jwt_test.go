package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	tok, err := NewAccessToken("s3cret", "alice", "ADMIN", "alice@club.test", time.Hour)
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	claims, err := ParseAccessToken("s3cret", tok.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "alice" || claims.Role != "ADMIN" || claims.Email != "alice@club.test" {
		t.Fatalf("claims = %+v", claims)
	}
	if tok.Exp.Before(time.Now().Add(59 * time.Minute)) {
		t.Fatalf("exp = %v, want about an hour from now", tok.Exp)
	}
}

func TestNewAccessTokenRequiresUID(t *testing.T) {
	t.Parallel()

	if _, err := NewAccessToken("s3cret", "", "MEMBER", "", time.Hour); err == nil {
		t.Fatal("expected error for empty uid")
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	t.Parallel()

	expired, err := NewAccessToken("s3cret", "alice", "MEMBER", "", -time.Minute)
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "MEMBER",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"},
	}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "MEMBER",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role: "MEMBER",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	good, _ := NewAccessToken("s3cret", "alice", "MEMBER", "", time.Hour)
	parts := strings.Split(good.Token, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	tests := []struct {
		name   string
		secret string
		raw    string
	}{
		{name: "expired", secret: "s3cret", raw: expired.Token},
		{name: "no expiry", secret: "s3cret", raw: noExp},
		{name: "no subject", secret: "s3cret", raw: noSubject},
		{name: "alg none", secret: "s3cret", raw: unsigned},
		{name: "wrong secret", secret: "other", raw: good.Token},
		{name: "tampered signature", secret: "s3cret", raw: tampered},
	}
	for _, tt := range tests {
		if _, err := ParseAccessToken(tt.secret, tt.raw); err == nil {
			t.Errorf("%s: parse succeeded, want error", tt.name)
		}
	}
}
