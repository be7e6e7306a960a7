package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIssueVerify_RoundTrip(t *testing.T) {
	now := time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC)
	iss := NewIssuer("dev-secret", 15*time.Minute).WithNow(func() time.Time { return now })

	raw, exp, err := iss.Issue("ord_1", "tap_1", "ven_1", "usr_1")
	if err != nil {
		t.Fatal(err)
	}
	if !exp.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("expiry=%s", exp)
	}

	claims, err := iss.Verify(raw)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if claims.OrderID != "ord_1" || claims.TapID != "tap_1" || claims.VenueID != "ven_1" || claims.UserID != "usr_1" {
		t.Fatalf("claims=%+v", claims)
	}
}

func TestVerify_Expired(t *testing.T) {
	issued := time.Date(2026, 2, 25, 12, 0, 0, 0, time.UTC)
	iss := NewIssuer("dev-secret", 15*time.Minute).WithNow(func() time.Time { return issued })

	raw, _, err := iss.Issue("ord_1", "tap_1", "ven_1", "usr_1")
	if err != nil {
		t.Fatal(err)
	}

	later := issued.Add(15*time.Minute + time.Second)
	iss.WithNow(func() time.Time { return later })

	if _, err := iss.Verify(raw); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	iss := NewIssuer("dev-secret", 15*time.Minute)
	raw, _, err := iss.Issue("ord_1", "tap_1", "ven_1", "usr_1")
	if err != nil {
		t.Fatal(err)
	}

	other := NewIssuer("OTHER", 15*time.Minute)
	if _, err := other.Verify(raw); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestVerify_Tampered(t *testing.T) {
	iss := NewIssuer("dev-secret", 15*time.Minute)
	raw, _, err := iss.Issue("ord_1", "tap_1", "ven_1", "usr_1")
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %s", raw)
	}
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	if _, err := iss.Verify(tampered); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
