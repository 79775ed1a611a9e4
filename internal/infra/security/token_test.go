package security

import (
	"strings"
	"testing"
)

func TestGenerateSecureTokenUnique(t *testing.T) {
	first, err := GenerateSecureToken(24)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	second, err := GenerateSecureToken(24)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if first == "" || first == second {
		t.Errorf("expected distinct non-empty tokens, got %q and %q", first, second)
	}
}

func TestGenerateSecureTokenRejectsNonPositiveLength(t *testing.T) {
	if _, err := GenerateSecureToken(0); err == nil {
		t.Error("expected an error for zero length")
	}
	if _, err := GenerateSecureToken(-1); err == nil {
		t.Error("expected an error for negative length")
	}
}

func TestGenerateShortID(t *testing.T) {
	id, err := GenerateShortID(22)
	if err != nil {
		t.Fatalf("generate id: %v", err)
	}

	if len(id) != 22 {
		t.Fatalf("expected a 22-character id, got %d", len(id))
	}
	for _, c := range id {
		if !strings.ContainsRune(idCharset, c) {
			t.Errorf("unexpected character %q in id %q", c, id)
		}
	}

	other, err := GenerateShortID(22)
	if err != nil {
		t.Fatalf("generate id: %v", err)
	}
	if id == other {
		t.Errorf("expected distinct ids, got %q twice", id)
	}
}

func TestGenerateShortIDRejectsNonPositiveLength(t *testing.T) {
	if _, err := GenerateShortID(0); err == nil {
		t.Error("expected an error for zero length")
	}
}
