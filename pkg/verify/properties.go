package verify

import (
	"fmt"

	"github.com/vm8/toolkit/pkg/asm"
	"github.com/vm8/toolkit/pkg/charmap"
	"github.com/vm8/toolkit/pkg/isa"
	"github.com/vm8/toolkit/pkg/vm"
)

// binaryExpect computes the flags a two-operand arithmetic/logic opcode
// must produce for operands (a, b) with carry-in cin, independently of
// pkg/vm's own implementation.
func binaryExpect(op isa.OpCode, a, b uint8, cin bool) (wantResult uint8, wantC, wantZ bool) {
	switch op {
	case isa.ADD:
		sum := uint16(a) + uint16(b)
		return uint8(sum), sum >= 256, uint8(sum) == 0
	case isa.ADC:
		carry := uint16(0)
		if cin {
			carry = 1
		}
		sum := uint16(a) + uint16(b) + carry
		return uint8(sum), sum >= 256, uint8(sum) == 0
	case isa.SUB:
		diff := uint16(a) - uint16(b)
		return uint8(diff), a < b, uint8(diff) == 0
	case isa.SBC:
		borrow := uint16(0)
		if cin {
			borrow = 1
		}
		diff := uint16(a) - uint16(b) - borrow
		return uint8(diff), uint16(a) < uint16(b)+borrow, uint8(diff) == 0
	case isa.AND:
		r := a & b
		return r, cin, r == 0
	case isa.OR:
		r := a | b
		return r, cin, r == 0
	case isa.XOR:
		r := a ^ b
		return r, cin, r == 0
	case isa.CMP:
		return a, a < b, a == b
	}
	panic(fmt.Sprintf("binaryExpect: unhandled opcode %v", op))
}

// FlagSweepTasks builds one Task per value of the first operand, each
// sweeping the full second-operand and carry-in space exhaustively over
// [0,255]^2, rather than the handful of corner cases pkg/vm's own unit
// tests cover.
func FlagSweepTasks(op isa.OpCode) []Task {
	tasks := make([]Task, 0, 256)
	for a16 := 0; a16 < 256; a16++ {
		a := uint8(a16)
		tasks = append(tasks, Task{
			Name: fmt.Sprintf("flags/%s/a=%d", isa.Catalog[op].Mnemonic, a),
			Run: func() error {
				for b16 := 0; b16 < 256; b16++ {
					b := uint8(b16)
					for _, cin := range []bool{false, true} {
						image := []byte{byte(op), 0, 1}
						s := vm.New(image)
						s.Regs[0], s.Regs[1], s.C = a, b, cin
						if _, err := s.Step(); err != nil {
							return fmt.Errorf("a=%d b=%d cin=%v: %v", a, b, cin, err)
						}
						wantResult, wantC, wantZ := binaryExpect(op, a, b, cin)
						gotResult := s.Regs[0]
						if op == isa.CMP {
							gotResult = a // CMP must not write the destination
						}
						if gotResult != wantResult || s.C != wantC || s.Z != wantZ {
							return fmt.Errorf("a=%d b=%d cin=%v: got (r=%d,C=%v,Z=%v), want (r=%d,C=%v,Z=%v)",
								a, b, cin, gotResult, s.C, s.Z, wantResult, wantC, wantZ)
						}
					}
				}
				return nil
			},
		})
	}
	return tasks
}

// unaryExpect mirrors binaryExpect for the single-operand opcodes.
func unaryExpect(op isa.OpCode, a uint8) (wantResult uint8, wantC, wantZ bool) {
	switch op {
	case isa.INC:
		sum := uint16(a) + 1
		return uint8(sum), sum >= 256, uint8(sum) == 0
	case isa.DEC:
		return uint8(uint16(a) - 1), a < 1, uint8(uint16(a)-1) == 0
	case isa.NOT:
		r := ^a
		return r, false, r == 0 // C left untouched; caller ignores wantC
	case isa.SHL:
		r := a << 1
		return r, a&0x80 != 0, r == 0
	case isa.SHR:
		r := a >> 1
		return r, a&0x01 != 0, r == 0
	}
	panic(fmt.Sprintf("unaryExpect: unhandled opcode %v", op))
}

// UnarySweepTasks covers the five one-operand opcodes over every input byte.
func UnarySweepTasks(op isa.OpCode) []Task {
	checksCarry := op != isa.NOT
	tasks := make([]Task, 0, 256)
	for a16 := 0; a16 < 256; a16++ {
		a := uint8(a16)
		tasks = append(tasks, Task{
			Name: fmt.Sprintf("flags/%s/a=%d", isa.Catalog[op].Mnemonic, a),
			Run: func() error {
				image := []byte{byte(op), 0}
				s := vm.New(image)
				s.Regs[0] = a
				if _, err := s.Step(); err != nil {
					return fmt.Errorf("a=%d: %v", a, err)
				}
				wantResult, wantC, wantZ := unaryExpect(op, a)
				if s.Regs[0] != wantResult || s.Z != wantZ {
					return fmt.Errorf("a=%d: got (r=%d,Z=%v), want (r=%d,Z=%v)", a, s.Regs[0], s.Z, wantResult, wantZ)
				}
				if checksCarry && s.C != wantC {
					return fmt.Errorf("a=%d: got C=%v, want C=%v", a, s.C, wantC)
				}
				return nil
			},
		})
	}
	return tasks
}

// StackRoundTripTask verifies PUSH then POP restores both the value and
// the stack pointer, for every byte value.
func StackRoundTripTask() Task {
	return Task{
		Name: "stack/push-pop-round-trip",
		Run: func() error {
			for v16 := 0; v16 < 256; v16++ {
				v := uint8(v16)
				s := vm.New([]byte{byte(isa.PUSH), 0, byte(isa.POP), 1, byte(isa.HALT)})
				s.Regs[0] = v
				startSP := s.SP
				if _, err := s.Step(); err != nil { // PUSH
					return err
				}
				if _, err := s.Step(); err != nil { // POP
					return err
				}
				if s.Regs[1] != v {
					return fmt.Errorf("v=%d: popped %d", v, s.Regs[1])
				}
				if s.SP != startSP {
					return fmt.Errorf("v=%d: SP=0x%04X, want 0x%04X", v, s.SP, startSP)
				}
			}
			return nil
		},
	}
}

// CallReturnRoundTripTask verifies one CALL/RET round trip: a CALL at
// address 0 to a RET at address 5 returns to address 3 with SP restored.
func CallReturnRoundTripTask() Task {
	return Task{
		Name: "stack/call-ret-round-trip",
		Run: func() error {
			image := []byte{byte(isa.CALL), 0x05, 0x00, byte(isa.HALT), 0x00, byte(isa.RET)}
			s := vm.New(image)
			startSP := s.SP
			if _, err := s.Step(); err != nil {
				return err
			}
			if s.PC != 5 {
				return fmt.Errorf("PC after CALL = %d, want 5", s.PC)
			}
			if _, err := s.Step(); err != nil {
				return err
			}
			if s.PC != 3 {
				return fmt.Errorf("PC after RET = %d, want 3", s.PC)
			}
			if s.SP != startSP {
				return fmt.Errorf("SP after round trip = 0x%04X, want 0x%04X", s.SP, startSP)
			}
			return nil
		},
	}
}

// CharRoundTripTask verifies the character-literal round trip: every
// non-empty glyph in the table maps to a byte and back to itself.
func CharRoundTripTask() Task {
	return Task{
		Name: "charmap/round-trip",
		Run: func() error {
			for code := 0; code < 256; code++ {
				glyph := charmap.Glyph(byte(code))
				if glyph == "" {
					continue
				}
				got, ok := charmap.ByteOf(glyph)
				if !ok {
					return fmt.Errorf("glyph %q has no reverse mapping", glyph)
				}
				if charmap.Glyph(got) != glyph {
					return fmt.Errorf("code 0x%02X: round trip landed on 0x%02X (%q)", code, got, charmap.Glyph(got))
				}
			}
			return nil
		},
	}
}

// LabelIdempotenceTask verifies that assembling the same source text twice
// yields byte-identical output and an identical label table, for a
// handful of representative programs.
func LabelIdempotenceTask(sources []string) Task {
	return Task{
		Name: "asm/label-idempotence",
		Run: func() error {
			for _, src := range sources {
				a, err := asm.Assemble(src)
				if err != nil {
					return err
				}
				b, err := asm.Assemble(src)
				if err != nil {
					return err
				}
				if string(a.Bytes) != string(b.Bytes) {
					return fmt.Errorf("non-deterministic assembly for source %q", src)
				}
				for name, addr := range a.Labels {
					if b.Labels[name] != addr {
						return fmt.Errorf("label %q drifted: %d vs %d", name, addr, b.Labels[name])
					}
				}
			}
			return nil
		},
	}
}

// AllProperties assembles the full default task list run by cmd/vm8's
// "verify" subcommand.
func AllProperties() []Task {
	var tasks []Task
	for _, op := range []isa.OpCode{isa.ADD, isa.ADC, isa.SUB, isa.SBC, isa.AND, isa.OR, isa.XOR, isa.CMP} {
		tasks = append(tasks, FlagSweepTasks(op)...)
	}
	for _, op := range []isa.OpCode{isa.INC, isa.DEC, isa.NOT, isa.SHL, isa.SHR} {
		tasks = append(tasks, UnarySweepTasks(op)...)
	}
	tasks = append(tasks, StackRoundTripTask(), CallReturnRoundTripTask(), CharRoundTripTask())
	tasks = append(tasks, LabelIdempotenceTask([]string{
		"LDI A, 1\nL: INC A\nJMP L\nHALT\n",
		"JMP skip\nLDI A, 99\nskip: HALT\n",
	}))
	return tasks
}
