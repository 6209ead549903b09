package utils

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-0123456789"

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	issuedAt := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	svc := NewTokenService(testSecret).WithClock(fixedClock(issuedAt))

	tok, err := svc.Issue("01HZX4T5PSG2W9Q8J1M3N7K6RB")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if got := tok.Exp.Sub(tok.IssuedAt); got != 24*time.Hour {
		t.Fatalf("expected 24h window, got %v", got)
	}

	sub, err := svc.Verify(tok.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sub != "01HZX4T5PSG2W9Q8J1M3N7K6RB" {
		t.Fatalf("unexpected subject %q", sub)
	}
}

func TestVerifyTimeBounds(t *testing.T) {
	issuedAt := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	tok, err := NewTokenService(testSecret).WithClock(fixedClock(issuedAt)).Issue("user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cases := []struct {
		name string
		at   time.Time
		want error
	}{
		{"before issuance", issuedAt.Add(-time.Minute), ErrInvalidToken},
		{"at issuance", issuedAt, nil},
		{"just before expiry", issuedAt.Add(24*time.Hour - time.Second), nil},
		{"after expiry", issuedAt.Add(24*time.Hour + time.Second), ErrExpiredToken},
		{"long after expiry", issuedAt.Add(30 * 24 * time.Hour), ErrExpiredToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTokenService(testSecret).WithClock(fixedClock(tc.at)).Verify(tok.Token)
			if !errors.Is(err, tc.want) && !(err == nil && tc.want == nil) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestVerifyRejectsTamperedSignatureBytes(t *testing.T) {
	svc := NewTokenService(testSecret)
	tok, err := svc.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parts := strings.Split(tok.Token, ".")
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}

	for i := range sig {
		for _, mask := range []byte{0x01, 0x80, 0xff} {
			altered := append([]byte(nil), sig...)
			altered[i] ^= mask
			raw := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(altered)
			if _, err := svc.Verify(raw); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("byte %d mask %#x: expected invalid token, got %v", i, mask, err)
			}
		}
	}
}

func TestVerifyRejectsTamperedEncodedCharacters(t *testing.T) {
	svc := NewTokenService(testSecret)
	tok, err := svc.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	for i := 0; i < len(tok.Token); i++ {
		if tok.Token[i] == '.' {
			continue
		}
		b := []byte(tok.Token)
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}
		if _, err := svc.Verify(string(b)); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("position %d: expected invalid token, got %v", i, err)
		}
	}
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	otherSecret, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-secret-0123456"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt:  claims.IssuedAt,
		ExpiresAt: claims.ExpiresAt,
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  "user-1",
		IssuedAt: claims.IssuedAt,
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	svc := NewTokenService(testSecret)
	for name, raw := range map[string]string{
		"other secret": otherSecret,
		"hs512":        hs512,
		"alg none":     none,
		"no subject":   noSubject,
		"no expiry":    noExpiry,
		"garbage":      "not.a.token",
		"empty":        "",
	} {
		if _, err := svc.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected invalid token, got %v", name, err)
		}
	}
}

func TestIssueRejectsEmptySubject(t *testing.T) {
	if _, err := NewTokenService(testSecret).Issue(""); err == nil {
		t.Fatalf("expected error for empty subject")
	}
}
