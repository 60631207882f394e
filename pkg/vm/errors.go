package vm

import (
	"fmt"

	"github.com/vm8/toolkit/pkg/isa"
)

// RuntimeError is a fatal VM error: stack overflow/underflow, an invalid
// port index, or an out-of-range register index. It records the PC and opcode byte at the point of failure
// so the host can report the failing PC and last-executed instruction.
type RuntimeError struct {
	PC     uint16
	Opcode byte
	Reason string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("vm: %s at PC=0x%04X (opcode 0x%02X)", e.Reason, e.PC, e.Opcode)
}

func newRuntimeError(s *State, reason string) *RuntimeError {
	return &RuntimeError{PC: s.PC, Opcode: s.Mem[s.PC], Reason: reason}
}

// validReg guards every register-index byte pulled from memory before it is
// used to index State.Regs. The assembler only ever emits indices in
// [0,isa.RegisterCount), but nothing stops a hand-assembled or corrupt
// byte image from containing a larger index, which would otherwise panic
// instead of
// failing as a guest-fatal RuntimeError.
func validReg(s *State, idx byte) *RuntimeError {
	if !isa.IsValidRegister(int(idx)) {
		return newRuntimeError(s, fmt.Sprintf("register index %d out of range", idx))
	}
	return nil
}
