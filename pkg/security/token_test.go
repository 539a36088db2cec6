package security_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abdedarghal111/facturascripts/pkg/security"
)

func TestTokenIssuer_ValidateOnce(t *testing.T) {
	issuer := security.NewTokenIssuer("secret")
	token := issuer.NewToken()

	if err := issuer.Validate(token); err != nil {
		t.Fatalf("first validate: %v", err)
	}
	if err := issuer.Validate(token); !errors.Is(err, security.ErrTokenReused) {
		t.Fatalf("expected reuse error, got %v", err)
	}
}

func TestTokenIssuer_RejectsTampering(t *testing.T) {
	issuer := security.NewTokenIssuer("secret")
	other := security.NewTokenIssuer("other-secret")

	token := issuer.NewToken()
	if err := other.Validate(token); !errors.Is(err, security.ErrInvalidToken) {
		t.Fatalf("expected invalid token for foreign secret, got %v", err)
	}

	parts := strings.Split(token, ".")
	parts[1] = "1"
	if err := issuer.Validate(strings.Join(parts, ".")); !errors.Is(err, security.ErrInvalidToken) {
		t.Fatalf("expected invalid token for altered timestamp, got %v", err)
	}
	for _, bad := range []string{"", "a.b", "not-a-uuid.1.abc"} {
		if err := issuer.Validate(bad); !errors.Is(err, security.ErrInvalidToken) {
			t.Fatalf("%q: expected invalid token, got %v", bad, err)
		}
	}
}

func TestTokenIssuer_Expiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	issuer := security.NewTokenIssuer("secret",
		security.WithMaxAge(time.Hour),
		security.WithClock(func() time.Time { return now }),
	)
	token := issuer.NewToken()

	now = now.Add(2 * time.Hour)
	if err := issuer.Validate(token); !errors.Is(err, security.ErrExpiredToken) {
		t.Fatalf("expected expired token, got %v", err)
	}
}
