package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestNewJWTStrategy_CustomTTL(t *testing.T) {
	ttl := 2 * time.Hour
	strategy := NewJWTStrategy("secret", Options{TTL: ttl})
	if strategy.ttl != ttl {
		t.Fatalf("unexpected ttl: %s", strategy.ttl)
	}
	if strategy.Name() != "jwt" {
		t.Fatalf("unexpected name %q", strategy.Name())
	}
}

func TestJWTStrategy_IssueAndParse(t *testing.T) {
	strategy := NewJWTStrategy("secret", Options{TTL: time.Minute})
	want := Principal{UserID: uuid.New(), Role: RoleAdmin}

	token, err := strategy.IssueToken(want)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	got, err := strategy.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if got != want {
		t.Fatalf("unexpected principal: %+v", got)
	}
	if !got.IsAdmin() {
		t.Fatal("expected admin principal")
	}
}

func TestJWTStrategy_RejectsInvalidTokens(t *testing.T) {
	strategy := NewJWTStrategy("secret", Options{TTL: time.Minute})
	user := uuid.New()

	sign := func(method jwt.SigningMethod, key any, c jwt.Claims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(method, c).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return token
	}
	valid := jwt.RegisteredClaims{Subject: user.String(), ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))}

	cases := map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": sign(jwt.SigningMethodHS256, []byte("other"), valid),
		"wrong method": sign(jwt.SigningMethodHS512, []byte("secret"), valid),
		"expired":      sign(jwt.SigningMethodHS256, []byte("secret"), jwt.RegisteredClaims{Subject: user.String(), ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}),
		"no expiry":    sign(jwt.SigningMethodHS256, []byte("secret"), jwt.RegisteredClaims{Subject: user.String()}),
		"bad subject":  sign(jwt.SigningMethodHS256, []byte("secret"), jwt.RegisteredClaims{Subject: "42", ExpiresAt: valid.ExpiresAt}),
		"alg none":     sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := strategy.ParseToken(token); err != ErrInvalidToken {
				t.Fatalf("expected invalid token, got %v", err)
			}
		})
	}
}
