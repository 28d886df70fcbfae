package utils

import (
	"testing"
	"time"
)

const (
	testAccessSecret  = "access-secret-for-tests"
	testRefreshSecret = "refresh-secret-for-tests"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testAccessSecret, 42, "CUSTOMER", time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	if tok.Token == "" {
		t.Fatal("NewAccessToken() returned empty token")
	}

	claims, err := VerifyAccessToken(testAccessSecret, tok.Token)
	if err != nil {
		t.Fatalf("VerifyAccessToken() error = %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("claims.UserID = %d, want 42", claims.UserID)
	}
	if claims.Role != "CUSTOMER" {
		t.Errorf("claims.Role = %q, want CUSTOMER", claims.Role)
	}
	if claims.JTI == "" {
		t.Error("claims.JTI is empty, want a unique id")
	}
}

func TestAccessTokenTamperFailsVerification(t *testing.T) {
	tok, err := NewAccessToken(testAccessSecret, 7, "ADMIN", time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}

	// Flip one byte of the serialized token.
	raw := []byte(tok.Token)
	last := len(raw) - 1
	if raw[last] == 'A' {
		raw[last] = 'B'
	} else {
		raw[last] = 'A'
	}

	if _, err := VerifyAccessToken(testAccessSecret, string(raw)); err == nil {
		t.Fatal("VerifyAccessToken() accepted a tampered token")
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	tok, err := NewAccessToken(testAccessSecret, 7, "ADMIN", time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	if _, err := VerifyAccessToken("some-other-secret", tok.Token); err != ErrInvalidSignature {
		t.Errorf("VerifyAccessToken() error = %v, want ErrInvalidSignature", err)
	}
}

func TestAccessTokenExpired(t *testing.T) {
	// ClockSkew grants 60s of leeway, so the token must be well past its
	// expiry to count as expired.
	tok, err := NewAccessToken(testAccessSecret, 7, "CUSTOMER", -2*ClockSkew)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	if _, err := VerifyAccessToken(testAccessSecret, tok.Token); err != ErrExpired {
		t.Errorf("VerifyAccessToken() error = %v, want ErrExpired", err)
	}
}

func TestAccessTokenWithinClockSkewStillValid(t *testing.T) {
	// Expired ten seconds ago but inside the 60s leeway: still accepted.
	tok, err := NewAccessToken(testAccessSecret, 7, "CUSTOMER", -10*time.Second)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	if _, err := VerifyAccessToken(testAccessSecret, tok.Token); err != nil {
		t.Errorf("VerifyAccessToken() error = %v, want nil inside leeway", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	tok, err := NewRefreshToken(testRefreshSecret, 9, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("NewRefreshToken() error = %v", err)
	}
	claims, err := VerifyRefreshToken(testRefreshSecret, tok.Raw)
	if err != nil {
		t.Fatalf("VerifyRefreshToken() error = %v", err)
	}
	if claims.UserID != 9 {
		t.Errorf("claims.UserID = %d, want 9", claims.UserID)
	}
	if claims.JTI != tok.JTI {
		t.Errorf("claims.JTI = %q, want %q", claims.JTI, tok.JTI)
	}
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	access, err := NewAccessToken(testAccessSecret, 5, "CUSTOMER", time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	refresh, err := NewRefreshToken(testAccessSecret, 5, time.Hour) // same secret on purpose
	if err != nil {
		t.Fatalf("NewRefreshToken() error = %v", err)
	}

	if _, err := VerifyRefreshToken(testAccessSecret, access.Token); err != ErrWrongTokenType {
		t.Errorf("VerifyRefreshToken(access) error = %v, want ErrWrongTokenType", err)
	}
	if _, err := VerifyAccessToken(testAccessSecret, refresh.Raw); err != ErrWrongTokenType {
		t.Errorf("VerifyAccessToken(refresh) error = %v, want ErrWrongTokenType", err)
	}
}

func TestVerifyGarbageTokens(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "random string", token: "not.a.valid.token"},
		{name: "truncated jwt", token: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifyAccessToken(testAccessSecret, tt.token); err == nil {
				t.Error("VerifyAccessToken() accepted garbage input")
			}
		})
	}
}

func TestHashRefreshRawIsStable(t *testing.T) {
	tok, err := NewRefreshToken(testRefreshSecret, 1, time.Hour)
	if err != nil {
		t.Fatalf("NewRefreshToken() error = %v", err)
	}
	if HashRefreshRaw(tok.Raw) != HashRefreshRaw(tok.Raw) {
		t.Error("HashRefreshRaw() is not deterministic")
	}
	other, err := NewRefreshToken(testRefreshSecret, 1, time.Hour)
	if err != nil {
		t.Fatalf("NewRefreshToken() error = %v", err)
	}
	if HashRefreshRaw(tok.Raw) == HashRefreshRaw(other.Raw) {
		t.Error("two distinct refresh tokens hashed to the same digest")
	}
}
