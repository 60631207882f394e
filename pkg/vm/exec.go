package vm

import "github.com/vm8/toolkit/pkg/isa"

// Step fetches, decodes and executes a single instruction. It reports
// whether HALT was retired and any fatal RuntimeError. An unrecognized
// opcode is non-fatal: PC advances by one and halted/err are both zero
// values.
func (s *State) Step() (halted bool, rerr *RuntimeError) {
	op := isa.OpCode(s.Mem[s.PC])

	switch op {
	case isa.HALT:
		return true, nil

	case isa.LDI:
		r, imm := s.Mem[s.PC+1], s.Mem[s.PC+2]
		if rerr = validReg(s, r); rerr != nil {
			return false, rerr
		}
		s.Regs[r] = imm
		s.PC += 3

	case isa.LDI16:
		hi, lo := s.Mem[s.PC+1], s.Mem[s.PC+2]
		if rerr = validReg(s, hi); rerr != nil {
			return false, rerr
		}
		if rerr = validReg(s, lo); rerr != nil {
			return false, rerr
		}
		immLo, immHi := s.Mem[s.PC+3], s.Mem[s.PC+4]
		s.Regs[hi] = immHi
		s.Regs[lo] = immLo
		s.PC += 5

	case isa.MOV:
		r1, r2 := s.Mem[s.PC+1], s.Mem[s.PC+2]
		if rerr = validReg(s, r1); rerr != nil {
			return false, rerr
		}
		if rerr = validReg(s, r2); rerr != nil {
			return false, rerr
		}
		s.Regs[r1] = s.Regs[r2]
		s.PC += 3

	case isa.LDM:
		r := s.Mem[s.PC+1]
		if rerr = validReg(s, r); rerr != nil {
			return false, rerr
		}
		addr := le16(s.Mem[s.PC+2], s.Mem[s.PC+3])
		s.Regs[r] = s.Mem[addr]
		s.PC += 4

	case isa.STM:
		addr := le16(s.Mem[s.PC+1], s.Mem[s.PC+2])
		r := s.Mem[s.PC+3]
		if rerr = validReg(s, r); rerr != nil {
			return false, rerr
		}
		s.Mem[addr] = s.Regs[r]
		s.PC += 4

	case isa.LDR:
		r, hi, lo := s.Mem[s.PC+1], s.Mem[s.PC+2], s.Mem[s.PC+3]
		if rerr = validReg(s, r); rerr != nil {
			return false, rerr
		}
		if rerr = validReg(s, hi); rerr != nil {
			return false, rerr
		}
		if rerr = validReg(s, lo); rerr != nil {
			return false, rerr
		}
		addr := uint16(s.Regs[hi])<<8 | uint16(s.Regs[lo])
		s.Regs[r] = s.Mem[addr]
		s.PC += 4

	case isa.STR:
		hi, lo, r := s.Mem[s.PC+1], s.Mem[s.PC+2], s.Mem[s.PC+3]
		if rerr = validReg(s, hi); rerr != nil {
			return false, rerr
		}
		if rerr = validReg(s, lo); rerr != nil {
			return false, rerr
		}
		if rerr = validReg(s, r); rerr != nil {
			return false, rerr
		}
		addr := uint16(s.Regs[hi])<<8 | uint16(s.Regs[lo])
		s.Mem[addr] = s.Regs[r]
		s.PC += 4

	case isa.ADD, isa.ADC, isa.SUB, isa.SBC, isa.CMP, isa.AND, isa.OR, isa.XOR:
		r1, r2 := s.Mem[s.PC+1], s.Mem[s.PC+2]
		if rerr = validReg(s, r1); rerr != nil {
			return false, rerr
		}
		if rerr = validReg(s, r2); rerr != nil {
			return false, rerr
		}
		switch op {
		case isa.ADD:
			execAdd(s, &s.Regs[r1], s.Regs[r2])
		case isa.ADC:
			execAdc(s, &s.Regs[r1], s.Regs[r2])
		case isa.SUB:
			execSub(s, &s.Regs[r1], s.Regs[r2])
		case isa.SBC:
			execSbc(s, &s.Regs[r1], s.Regs[r2])
		case isa.CMP:
			execCmp(s, s.Regs[r1], s.Regs[r2])
		case isa.AND:
			execAnd(s, &s.Regs[r1], s.Regs[r2])
		case isa.OR:
			execOr(s, &s.Regs[r1], s.Regs[r2])
		case isa.XOR:
			execXor(s, &s.Regs[r1], s.Regs[r2])
		}
		s.PC += 3

	case isa.INC, isa.DEC, isa.NOT, isa.SHL, isa.SHR:
		r := s.Mem[s.PC+1]
		if rerr = validReg(s, r); rerr != nil {
			return false, rerr
		}
		switch op {
		case isa.INC:
			execInc(s, &s.Regs[r])
		case isa.DEC:
			execDec(s, &s.Regs[r])
		case isa.NOT:
			execNot(s, &s.Regs[r])
		case isa.SHL:
			execShl(s, &s.Regs[r])
		case isa.SHR:
			execShr(s, &s.Regs[r])
		}
		s.PC += 2

	case isa.JMP:
		s.PC = le16(s.Mem[s.PC+1], s.Mem[s.PC+2])
	case isa.JZ:
		target := le16(s.Mem[s.PC+1], s.Mem[s.PC+2])
		if s.Z {
			s.PC = target
		} else {
			s.PC += 3
		}
	case isa.JNZ:
		target := le16(s.Mem[s.PC+1], s.Mem[s.PC+2])
		if !s.Z {
			s.PC = target
		} else {
			s.PC += 3
		}
	case isa.JC:
		target := le16(s.Mem[s.PC+1], s.Mem[s.PC+2])
		if s.C {
			s.PC = target
		} else {
			s.PC += 3
		}
	case isa.JNC:
		target := le16(s.Mem[s.PC+1], s.Mem[s.PC+2])
		if !s.C {
			s.PC = target
		} else {
			s.PC += 3
		}

	case isa.PUSH:
		r := s.Mem[s.PC+1]
		if rerr = validReg(s, r); rerr != nil {
			return false, rerr
		}
		if rerr = s.push(s.Regs[r]); rerr != nil {
			return false, rerr
		}
		s.PC += 2
	case isa.POP:
		r := s.Mem[s.PC+1]
		if rerr = validReg(s, r); rerr != nil {
			return false, rerr
		}
		v, err := s.pop()
		if err != nil {
			return false, err
		}
		s.Regs[r] = v
		s.PC += 2

	case isa.PUSH16:
		hi, lo := s.Mem[s.PC+1], s.Mem[s.PC+2]
		if rerr = validReg(s, hi); rerr != nil {
			return false, rerr
		}
		if rerr = validReg(s, lo); rerr != nil {
			return false, rerr
		}
		if rerr = s.push16(s.Regs[hi], s.Regs[lo]); rerr != nil {
			return false, rerr
		}
		s.PC += 3
	case isa.POP16:
		hi, lo := s.Mem[s.PC+1], s.Mem[s.PC+2]
		if rerr = validReg(s, hi); rerr != nil {
			return false, rerr
		}
		if rerr = validReg(s, lo); rerr != nil {
			return false, rerr
		}
		hiv, lov, err := s.pop16()
		if err != nil {
			return false, err
		}
		s.Regs[hi] = hiv
		s.Regs[lo] = lov
		s.PC += 3

	case isa.CALL:
		target := le16(s.Mem[s.PC+1], s.Mem[s.PC+2])
		ret := s.PC + 3
		if rerr = s.push16(byte(ret>>8), byte(ret)); rerr != nil {
			return false, rerr
		}
		s.PC = target
	case isa.RET:
		hi, lo, err := s.pop16()
		if err != nil {
			return false, err
		}
		s.PC = uint16(hi)<<8 | uint16(lo)

	case isa.IN:
		r, port := s.Mem[s.PC+1], s.Mem[s.PC+2]
		if rerr = validReg(s, r); rerr != nil {
			return false, rerr
		}
		if rerr = s.execIn(&s.Regs[r], port); rerr != nil {
			return false, rerr
		}
		s.PC += 3
	case isa.OUT:
		port, r := s.Mem[s.PC+1], s.Mem[s.PC+2]
		if rerr = validReg(s, r); rerr != nil {
			return false, rerr
		}
		if rerr = s.execOut(port, s.Regs[r]); rerr != nil {
			return false, rerr
		}
		s.PC += 3

	default:
		// Unknown opcode: non-fatal, skip one byte.
		s.PC++
	}

	return false, nil
}

// Run executes instructions until HALT, a fatal RuntimeError, or the
// caller's onRetire hook returns false. onRetire is called after every
// retired instruction with the current state, so a host can refresh a
// text buffer or poll input; it may be nil. Run itself never sleeps —
// the console's suspension interval is outside the ISA contract, so any
// pacing belongs to the caller (see cmd/vm8's runInteractive).
func (s *State) Run(onRetire func(*State) bool) *RuntimeError {
	for {
		halted, err := s.Step()
		if err != nil {
			return err
		}
		if onRetire != nil {
			if !onRetire(s) {
				return nil
			}
		}
		if halted {
			return nil
		}
	}
}

// le16 decodes a little-endian 16-bit value from an instruction stream.
func le16(lo, hi uint8) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}
