// Package vm implements the fetch-decode-execute loop over the canonical
// 8-bit ISA (pkg/isa): 64 KiB of byte memory, eight general registers, a
// program counter, a stack pointer, two flags, and eight I/O ports.
// State, arithmetic helpers and the dispatch switch live in separate
// files (state.go, arith.go, exec.go).
package vm

import "github.com/vm8/toolkit/pkg/isa"

// MemSize is the size of the flat byte-addressed memory.
const MemSize = 65536

// StackStart and StackEnd bound the call/data stack region. The stack
// grows downward from StackEnd toward StackStart; StackEnd sits
// immediately below the text buffer so the two regions never collide.
const (
	StackStart      = 0xF000
	StackEnd        = MemSize - TextBufferSize
	TextBufferSize  = 16
	TextBufferStart = MemSize - TextBufferSize
)

// State is the complete machine state, including all 64 KiB of memory.
// Trace snapshots (pkg/report) copy only PC, SP, registers and flags.
type State struct {
	Regs [isa.RegisterCount]uint8
	PC   uint16
	SP   uint16
	Z    bool
	C    bool
	Mem  [MemSize]byte
	Port [8]uint8
}

// New returns a State with the byte image loaded at address 0, everything
// else zero, registers zero, PC=0, SP=StackEnd, flags clear.
func New(image []byte) *State {
	s := &State{SP: StackEnd}
	copy(s.Mem[:], image)
	return s
}

// TextBuffer returns a snapshot of the 16-byte console region.
func (s *State) TextBuffer() [TextBufferSize]byte {
	var buf [TextBufferSize]byte
	copy(buf[:], s.Mem[TextBufferStart:])
	return buf
}
