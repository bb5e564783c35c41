package security

import (
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	cases := []struct {
		name     string
		username string
		wantErrs int
	}{
		{"valid", "maria_garcia", 0},
		{"minimum length", "abc", 0},
		{"too short", "ab", 1},
		{"invalid chars", "maria garcia", 1},
		{"too long", strings.Repeat("a", 51), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := len(ValidateUsername(tc.username)); got != tc.wantErrs {
				t.Errorf("ValidateUsername(%q) produced %d errors, want %d", tc.username, got, tc.wantErrs)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	if errs := ValidatePassword("Segura123!"); len(errs) != 0 {
		t.Fatalf("valid password rejected: %v", errs)
	}
	// Short, no uppercase, no digit, no special char.
	if errs := ValidatePassword("abc"); len(errs) != 4 {
		t.Fatalf("weak password produced %d errors, want 4: %v", len(errs), errs)
	}
	if errs := ValidatePassword("Segura123"); len(errs) != 1 {
		t.Fatalf("missing special char produced %d errors, want 1: %v", len(errs), errs)
	}
}

func TestValidateSerial(t *testing.T) {
	if errs := ValidateSerial("TGH001"); len(errs) != 0 {
		t.Fatalf("valid serial rejected: %v", errs)
	}
	if errs := ValidateSerial(""); len(errs) == 0 {
		t.Fatal("empty serial accepted")
	}
	if errs := ValidateSerial("TGH-001"); len(errs) == 0 {
		t.Fatal("serial with dash accepted")
	}
}
