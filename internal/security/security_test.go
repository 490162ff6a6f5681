package security

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "s3cret-pass") {
		t.Fatalf("expected password to match")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("expected mismatch")
	}
}

func TestUserTokenRoundTrip(t *testing.T) {
	token, expiresAt, err := IssueUserToken("secret", time.Hour, 42, "owner@example.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiry")
	}
	claims, err := ParseUserToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "owner@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, errWrong := ParseUserToken("other-secret", token); errWrong == nil {
		t.Fatalf("expected signature error")
	}
}

func TestUserTokenExpired(t *testing.T) {
	token, _, err := IssueUserToken("secret", -time.Minute, 1, "a@b.c")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, errParse := ParseUserToken("secret", token); errParse == nil {
		t.Fatalf("expected expired token error")
	}
}

func TestTOTPEnrollmentValidates(t *testing.T) {
	enrollment, err := GenerateTOTP("owner@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	now := time.Now()
	code, err := totp.GenerateCode(enrollment.Secret, now)
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	if !ValidateTOTPAt(enrollment.Secret, code, now) {
		t.Fatalf("expected code to validate")
	}
	if ValidateTOTPAt(enrollment.Secret, code, now.Add(24*time.Hour)) {
		t.Fatalf("expected code to be rejected a day later")
	}
	if ValidateTOTP("", code) {
		t.Fatalf("empty secret must not validate")
	}
}
