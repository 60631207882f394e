package isa

import "testing"

// TestCatalogRoundTrip verifies every opcode's mnemonic resolves back to it.
func TestCatalogRoundTrip(t *testing.T) {
	for op, info := range Catalog {
		if info.Mnemonic == "" {
			t.Errorf("opcode 0x%02X has no mnemonic", op)
		}
		if info.Length <= 0 {
			t.Errorf("opcode 0x%02X (%s) has non-positive length", op, info.Mnemonic)
		}
		got, ok := Lookup(info.Mnemonic)
		if !ok || got != op {
			t.Errorf("Lookup(%q) = %v, %v; want %v, true", info.Mnemonic, got, ok, op)
		}
	}
}

func TestRegisterAlphabet(t *testing.T) {
	tests := []struct {
		letter byte
		idx    int
		valid  bool
	}{
		{'A', 0, true},
		{'H', 7, true},
		{'I', 8, false},
		{'P', 15, false},
	}
	for _, tc := range tests {
		idx, ok := RegisterIndex(tc.letter)
		if !ok {
			t.Fatalf("RegisterIndex(%q) not found", tc.letter)
		}
		if idx != tc.idx {
			t.Errorf("RegisterIndex(%q) = %d, want %d", tc.letter, idx, tc.idx)
		}
		if IsValidRegister(idx) != tc.valid {
			t.Errorf("IsValidRegister(%d) = %v, want %v", idx, IsValidRegister(idx), tc.valid)
		}
	}
}

func TestUnknownMnemonic(t *testing.T) {
	if _, ok := Lookup("NOPE"); ok {
		t.Error("Lookup(\"NOPE\") unexpectedly found")
	}
}
