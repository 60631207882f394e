package asm

import (
	"testing"

	"github.com/vm8/toolkit/pkg/isa"
)

// TestS1Arith assembles a small arithmetic program and checks the exact
// emitted bytes.
func TestS1Arith(t *testing.T) {
	src := `
LDI A, 10
LDI B, 5
SUB A, B
HALT
`
	res, err := Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	want := []byte{
		byte(isa.LDI), 0, 10,
		byte(isa.LDI), 1, 5,
		byte(isa.SUB), 0, 1,
		byte(isa.HALT),
	}
	if string(res.Bytes) != string(want) {
		t.Errorf("got % X, want % X", res.Bytes, want)
	}
}

// TestS2Loop assembles a counting loop, exercising a backward label
// reference.
func TestS2Loop(t *testing.T) {
	src := `
LDI A, 3
L: DEC A
JNZ L
HALT
`
	res, err := Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	want := []byte{
		byte(isa.LDI), 0, 3,
		byte(isa.DEC), 0,
		byte(isa.JNZ), 3, 0,
		byte(isa.HALT),
	}
	if string(res.Bytes) != string(want) {
		t.Errorf("got % X, want % X", res.Bytes, want)
	}
	if res.Labels["L"] != 3 {
		t.Errorf("label L = %d, want 3", res.Labels["L"])
	}
}

func TestForwardLabelReference(t *testing.T) {
	src := `
JMP skip
LDI A, 99
skip: HALT
`
	res, err := Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if res.Labels["skip"] != 6 {
		t.Errorf("label skip = %d, want 6", res.Labels["skip"])
	}
	if res.Bytes[1] != 6 || res.Bytes[2] != 0 {
		t.Errorf("JMP operand = (%d,%d), want (6,0)", res.Bytes[1], res.Bytes[2])
	}
}

func TestDuplicateLabelIsFatal(t *testing.T) {
	src := `
L: HALT
L: HALT
`
	if _, err := Assemble(src); err == nil {
		t.Error("expected duplicate label error")
	}
}

func TestUnknownMnemonicIsFatal(t *testing.T) {
	if _, err := Assemble("FROBNICATE A, B\n"); err == nil {
		t.Error("expected unknown mnemonic error")
	}
}

func TestUnresolvedLabelIsFatal(t *testing.T) {
	if _, err := Assemble("JMP nowhere\nHALT\n"); err == nil {
		t.Error("expected unresolved identifier error")
	}
}

func TestCommentForms(t *testing.T) {
	src := "HALT ; stop\nHALT # also stop\nHALT // still stop\n"
	res, err := Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(res.Bytes) != 3 {
		t.Errorf("got %d bytes, want 3", len(res.Bytes))
	}
}

// TestRegisterPairBothForms checks that LDI16 accepts a combined two-letter
// token and two separate register tokens identically.
func TestRegisterPairBothForms(t *testing.T) {
	combined, err := Assemble("LDI16 AB, 0x1234\n")
	if err != nil {
		t.Fatalf("assemble combined: %v", err)
	}
	separate, err := Assemble("LDI16 A, B, 0x1234\n")
	if err != nil {
		t.Fatalf("assemble separate: %v", err)
	}
	if string(combined.Bytes) != string(separate.Bytes) {
		t.Errorf("combined % X != separate % X", combined.Bytes, separate.Bytes)
	}
	want := []byte{byte(isa.LDI16), 0, 1, 0x34, 0x12}
	if string(combined.Bytes) != string(want) {
		t.Errorf("got % X, want % X", combined.Bytes, want)
	}
}

func TestDataDirectiveWidths(t *testing.T) {
	src := "L: $ 65 0x100 L\nHALT\n"
	res, err := Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	// 65 -> 1 byte, 0x100 -> 2 bytes lo,hi, label L (addr 0) -> 2 bytes lo,hi
	want := []byte{65, 0x00, 0x01, 0x00, 0x00, byte(isa.HALT)}
	if string(res.Bytes) != string(want) {
		t.Errorf("got % X, want % X", res.Bytes, want)
	}
}

func TestNegativeDataByteWraps(t *testing.T) {
	res, err := Assemble("$ -1\n")
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(res.Bytes) != 1 || res.Bytes[0] != 0xFF {
		t.Errorf("got % X, want [FF]", res.Bytes)
	}
}

// TestLengthDeterminism verifies that assembling the same source twice
// yields byte-identical output and label tables.
func TestLengthDeterminism(t *testing.T) {
	src := "LDI A, 1\nL: INC A\nJMP L\nHALT\n"
	a, err := Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	b, err := Assemble(src)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if string(a.Bytes) != string(b.Bytes) {
		t.Error("two assemblies of the same source produced different bytes")
	}
	if a.Labels["L"] != b.Labels["L"] {
		t.Error("two assemblies of the same source produced different label tables")
	}
}

func TestRegisterLetterOutOfRangeIsFatal(t *testing.T) {
	if _, err := Assemble("LDI I, 1\n"); err == nil {
		t.Error("expected register I (index 8) to be rejected")
	}
}

func TestSchemaLengthsMatchCatalog(t *testing.T) {
	for op, kinds := range schema {
		total := 1
		for _, k := range kinds {
			switch k {
			case kindReg, kindImm8, kindPort:
				total++
			case kindImm16, kindAddr16, kindRegPair:
				total += 2
			}
		}
		if total != isa.Length(op) {
			t.Errorf("opcode %v: schema implies length %d, catalog says %d", op, total, isa.Length(op))
		}
	}
}
