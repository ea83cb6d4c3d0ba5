// ABOUTME: Unit tests for JWT issuing, verification and unverified inspection
// ABOUTME: Tests valid tokens, invalid tokens, and expired tokens

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-key-for-jwt-signing")

func TestJWTIssuer_ValidToken(t *testing.T) {
	issuer := NewJWTIssuer(testSecret)

	token, err := issuer.Generate("ana@example.com", "admin", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Subject != "ana@example.com" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "ana@example.com")
	}
	if claims.Role != "admin" {
		t.Errorf("Role = %q, want admin", claims.Role)
	}
	if claims.Expired(time.Now()) {
		t.Error("fresh token reported expired")
	}
}

func TestJWTIssuer_InvalidToken(t *testing.T) {
	issuer := NewJWTIssuer(testSecret)
	other, _ := NewJWTIssuer([]byte("another-secret")).Generate("ana@example.com", "", time.Hour)

	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSecret)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "empty", token: "", wantErr: ErrInvalidToken},
		{name: "garbage", token: "not.a.jwt", wantErr: ErrInvalidToken},
		{name: "wrong secret", token: other, wantErr: ErrInvalidToken},
		{name: "missing sub", token: noSub, wantErr: ErrMissingClaim},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Verify(tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestJWTIssuer_ExpiredToken(t *testing.T) {
	issuer := NewJWTIssuer(testSecret)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := issuer.Generate("ana@example.com", "", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	issuer.now = time.Now
	if _, err := issuer.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Verify() error = %v, want %v", err, ErrExpiredToken)
	}

	// Inspect still reads it.
	claims, err := Inspect(token)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if !claims.Expired(time.Now()) {
		t.Error("Inspect() claims not expired")
	}
}

func TestInspect_Invalid(t *testing.T) {
	if _, err := Inspect("opaque-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Inspect() error = %v, want %v", err, ErrInvalidToken)
	}
}
