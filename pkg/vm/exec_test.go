package vm

import (
	"testing"

	"github.com/vm8/toolkit/pkg/isa"
)

func asm(b ...byte) []byte { return b }

// TestFlagLawsAdd verifies ADD's Z/C flag laws across corner cases (the
// full [0,255]^2 sweep lives in pkg/verify).
func TestFlagLawsAdd(t *testing.T) {
	tests := []struct {
		a, b      uint8
		wantC     bool
		wantZ     bool
	}{
		{0, 0, false, true},
		{0xFF, 1, true, true},
		{10, 5, false, false},
		{200, 200, true, false},
	}
	for _, tc := range tests {
		s := New(nil)
		s.Regs[0] = tc.a
		s.Regs[1] = tc.b
		execAdd(s, &s.Regs[0], s.Regs[1])
		if s.C != tc.wantC || s.Z != tc.wantZ {
			t.Errorf("ADD %d+%d: C=%v Z=%v, want C=%v Z=%v", tc.a, tc.b, s.C, s.Z, tc.wantC, tc.wantZ)
		}
	}
}

func TestFlagLawsSub(t *testing.T) {
	tests := []struct {
		a, b  uint8
		wantC bool
		wantZ bool
	}{
		{10, 5, false, false},
		{5, 10, true, false},
		{5, 5, false, true},
	}
	for _, tc := range tests {
		s := New(nil)
		s.Regs[0] = tc.a
		execSub(s, &s.Regs[0], tc.b)
		if s.C != tc.wantC || s.Z != tc.wantZ {
			t.Errorf("SUB %d-%d: C=%v Z=%v, want C=%v Z=%v", tc.a, tc.b, s.C, s.Z, tc.wantC, tc.wantZ)
		}
	}
}

// TestStackRoundTrip verifies PUSH then POP restores the pushed value.
func TestStackRoundTrip(t *testing.T) {
	for _, x := range []uint8{0, 1, 42, 255} {
		s := New(nil)
		startSP := s.SP
		if err := s.push(x); err != nil {
			t.Fatalf("push: %v", err)
		}
		got, err := s.pop()
		if err != nil {
			t.Fatalf("pop: %v", err)
		}
		if got != x {
			t.Errorf("round trip: got %d, want %d", got, x)
		}
		if s.SP != startSP {
			t.Errorf("SP after round trip = 0x%04X, want 0x%04X", s.SP, startSP)
		}
	}
}

func TestPush16Pop16RoundTrip(t *testing.T) {
	s := New(nil)
	startSP := s.SP
	if err := s.push16(0x12, 0x34); err != nil {
		t.Fatalf("push16: %v", err)
	}
	hi, lo, err := s.pop16()
	if err != nil {
		t.Fatalf("pop16: %v", err)
	}
	if hi != 0x12 || lo != 0x34 {
		t.Errorf("pop16 = (0x%02X, 0x%02X), want (0x12, 0x34)", hi, lo)
	}
	if s.SP != startSP {
		t.Errorf("SP after round trip = 0x%04X, want 0x%04X", s.SP, startSP)
	}
}

// TestCallReturnRoundTrip verifies CALL followed by RET lands back at the
// instruction after CALL with the stack restored.
func TestCallReturnRoundTrip(t *testing.T) {
	// CALL L ; ... ; L: RET
	image := asm(byte(isa.CALL), 0x05, 0x00, byte(isa.HALT), 0x00, byte(isa.RET))
	s := New(image)
	startSP := s.SP
	halted, err := s.Step() // CALL
	if err != nil || halted {
		t.Fatalf("CALL step: halted=%v err=%v", halted, err)
	}
	if s.PC != 5 {
		t.Fatalf("PC after CALL = %d, want 5", s.PC)
	}
	halted, err = s.Step() // RET
	if err != nil || halted {
		t.Fatalf("RET step: halted=%v err=%v", halted, err)
	}
	if s.PC != 3 {
		t.Errorf("PC after RET = %d, want 3 (byte after CALL)", s.PC)
	}
	if s.SP != startSP {
		t.Errorf("SP after call/ret = 0x%04X, want 0x%04X", s.SP, startSP)
	}
}

// TestS1Arith runs a small arithmetic program end to end.
func TestS1Arith(t *testing.T) {
	image := asm(
		byte(isa.LDI), 0, 10,
		byte(isa.LDI), 1, 5,
		byte(isa.SUB), 0, 1,
		byte(isa.HALT),
	)
	s := New(image)
	if err := s.Run(nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.Regs[0] != 5 || s.Z || s.C {
		t.Errorf("A=%d Z=%v C=%v, want A=5 Z=false C=false", s.Regs[0], s.Z, s.C)
	}
}

// TestS2Loop runs a counting loop end to end.
func TestS2Loop(t *testing.T) {
	image := asm(
		byte(isa.LDI), 0, 3, // LDI A,3
		byte(isa.DEC), 0, // L: DEC A
		byte(isa.JNZ), 3, 0, // JNZ L
		byte(isa.HALT),
	)
	s := New(image)
	if err := s.Run(nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.Regs[0] != 0 || !s.Z {
		t.Errorf("A=%d Z=%v, want A=0 Z=true", s.Regs[0], s.Z)
	}
	if s.PC != 8 {
		t.Errorf("PC at halt = %d, want 8", s.PC)
	}
}

// TestS3Stack runs a program that exercises a PUSH/POP pair end to end.
func TestS3Stack(t *testing.T) {
	image := asm(
		byte(isa.LDI), 0, 7,
		byte(isa.PUSH), 0,
		byte(isa.LDI), 0, 0,
		byte(isa.POP), 0,
		byte(isa.HALT),
	)
	s := New(image)
	if err := s.Run(nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.Regs[0] != 7 {
		t.Errorf("A=%d, want 7", s.Regs[0])
	}
	if s.SP != StackEnd {
		t.Errorf("SP=0x%04X, want StackEnd 0x%04X", s.SP, StackEnd)
	}
}

// TestS6Memory runs a program that stores a byte into the text buffer
// with STM end to end.
func TestS6Memory(t *testing.T) {
	image := asm(
		byte(isa.LDI), 0, 65,
		byte(isa.STM), 0xF0, 0xFF, 0,
		byte(isa.HALT),
	)
	s := New(image)
	if err := s.Run(nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.Mem[TextBufferStart] != 65 {
		t.Errorf("text buffer[0] = %d, want 65", s.Mem[TextBufferStart])
	}
}

func TestUnknownOpcodeSkipped(t *testing.T) {
	image := asm(0xEE, byte(isa.HALT))
	s := New(image)
	halted, err := s.Step()
	if err != nil || halted {
		t.Fatalf("unknown opcode step: halted=%v err=%v", halted, err)
	}
	if s.PC != 1 {
		t.Errorf("PC after unknown opcode = %d, want 1", s.PC)
	}
}

func TestStackOverflow(t *testing.T) {
	s := New(nil)
	s.SP = StackStart + 1
	if err := s.push(1); err != nil {
		t.Fatalf("unexpected error on last legal push: %v", err)
	}
	if err := s.push(1); err == nil {
		t.Error("expected stack overflow error")
	}
}

func TestStackUnderflow(t *testing.T) {
	s := New(nil)
	if _, err := s.pop(); err == nil {
		t.Error("expected stack underflow error")
	}
}

func TestInvalidRegisterIndexIsFatalNotPanic(t *testing.T) {
	image := asm(byte(isa.LDI), 9, 1) // register index 9 is out of range
	s := New(image)
	if _, err := s.Step(); err == nil {
		t.Error("expected fatal error for out-of-range register index")
	}
}

func TestInvalidPort(t *testing.T) {
	s := New(nil)
	if err := s.execOut(8, 0); err == nil {
		t.Error("expected invalid port error for OUT")
	}
	var r uint8
	if err := s.execIn(&r, 200); err == nil {
		t.Error("expected invalid port error for IN")
	}
}
