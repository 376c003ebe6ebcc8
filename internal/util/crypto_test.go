package util

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ============ password hashing ============

func TestHashPassword(t *testing.T) {
	password := "MyPassword123"

	hashed, err := HashPassword(password, 4)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.HasPrefix(hashed, "$2") {
		t.Errorf("hash %q is not a bcrypt hash", hashed)
	}

	if _, err := HashPassword("", 4); err == nil {
		t.Error("empty password should return an error")
	}

	// same password, different salt
	hashed2, _ := HashPassword(password, 4)
	if hashed == hashed2 {
		t.Error("same password should produce different hashes")
	}
}

func TestCheckPassword(t *testing.T) {
	password := "TestPass456"
	hashed, _ := HashPassword(password, 4)

	if !CheckPassword(password, hashed) {
		t.Error("correct password rejected")
	}
	if CheckPassword("WrongPass", hashed) {
		t.Error("wrong password accepted")
	}
	if CheckPassword("", hashed) {
		t.Error("empty password accepted")
	}
	if CheckPassword(password, "") {
		t.Error("empty hash accepted")
	}
	if CheckPassword(password, "invalid-format") {
		t.Error("malformed hash accepted")
	}
}

// ============ random secrets ============

func TestRandomString(t *testing.T) {
	str, err := RandomString(32)
	if err != nil {
		t.Fatalf("RandomString failed: %v", err)
	}
	if len(str) != 32 {
		t.Errorf("len = %d, want 32", len(str))
	}

	str2, _ := RandomString(32)
	if str == str2 {
		t.Error("expected different random strings")
	}

	if _, err := RandomString(0); err == nil {
		t.Error("length 0 should return an error")
	}
	if _, err := RandomString(-5); err == nil {
		t.Error("negative length should return an error")
	}
}

func TestUnusableSecret(t *testing.T) {
	a, err := UnusableSecret()
	if err != nil {
		t.Fatalf("UnusableSecret failed: %v", err)
	}
	b, _ := UnusableSecret()
	if a == b {
		t.Error("expected distinct secrets")
	}
	if len(a) < 60 {
		t.Errorf("secret %q looks too short", a)
	}
}

// ============ bearer tokens ============

func TestGenerateAndParseToken(t *testing.T) {
	now := time.Now()
	tok, expires, err := GenerateToken("test-secret", "money-layer", "alice", now, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if !expires.Equal(now.Add(time.Hour)) {
		t.Errorf("expires = %v, want %v", expires, now.Add(time.Hour))
	}

	claims, err := ParseToken("test-secret", tok)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.Subject != "alice" {
		t.Errorf("subject = %q, want alice", claims.Subject)
	}
	if claims.Issuer != "money-layer" {
		t.Errorf("issuer = %q, want money-layer", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}
}

func TestParseToken_Rejects(t *testing.T) {
	now := time.Now()
	valid, _, _ := GenerateToken("test-secret", "", "alice", now, time.Hour)
	expired, _, _ := GenerateToken("test-secret", "", "alice", now.Add(-2*time.Hour), time.Hour)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"})
	noExpStr, _ := noExp.SignedString([]byte("test-secret"))

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	hs512Str, _ := hs512.SignedString([]byte("test-secret"))

	noSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	noSubStr, _ := noSub.SignedString([]byte("test-secret"))

	cases := map[string]struct {
		secret string
		token  string
	}{
		"wrong secret":    {"other-secret", valid},
		"expired":         {"test-secret", expired},
		"missing exp":     {"test-secret", noExpStr},
		"wrong algorithm": {"test-secret", hs512Str},
		"missing subject": {"test-secret", noSubStr},
		"garbage":         {"test-secret", "not.a.token"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseToken(tc.secret, tc.token); err == nil {
				t.Error("ParseToken error = nil, want error")
			}
		})
	}
}

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("BenchmarkPassword123", 4)
	}
}
