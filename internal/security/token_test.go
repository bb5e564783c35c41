package security

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "token-test-secret"

func TestGenerateAndVerifyToken(t *testing.T) {
	token, err := GenerateToken(testSecret, 42, "maria_garcia", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims := VerifyToken(token, testSecret)
	if claims == nil {
		t.Fatal("VerifyToken returned nil for a fresh token")
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Username != "maria_garcia" {
		t.Errorf("Username = %q, want maria_garcia", claims.Username)
	}
	if claims.Issuer != TokenIssuer {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, TokenIssuer)
	}
}

func TestVerifyTokenRejections(t *testing.T) {
	token, err := GenerateToken(testSecret, 1, "ana", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	cases := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", token, "another-secret"},
		{"tampered token", token + "x", testSecret},
		{"malformed", "not.a.jwt", testSecret},
		{"empty", "", testSecret},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if VerifyToken(tc.token, tc.secret) != nil {
				t.Fatal("VerifyToken accepted an invalid token")
			}
		})
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken(testSecret, 1, "ana", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if VerifyToken(token, testSecret) != nil {
		t.Fatal("VerifyToken accepted an expired token")
	}

	_, err = ParseToken(token, testSecret)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("ParseToken error = %v, want jwt.ErrTokenExpired", err)
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	a := HashToken("some-token")
	b := HashToken("some-token")
	if a != b {
		t.Fatal("same token produced different hashes")
	}
	if a == HashToken("other-token") {
		t.Fatal("different tokens produced the same hash")
	}
	if len(a) != 64 {
		t.Fatalf("hash length = %d, want 64 hex chars", len(a))
	}
}
