package asm

import (
	"github.com/vm8/toolkit/pkg/isa"
)

// resolve turns an operand token into a numeric value: a label looked up
// in the symbol table, or a parsed numeric literal. Unresolved identifiers
// are fatal.
func resolve(labels map[string]uint16, line int, tok string) (int64, *Error) {
	if addr, ok := labels[tok]; ok {
		return int64(addr), nil
	}
	if v, ok := parseNumber(tok); ok {
		return v, nil
	}
	return 0, errf(line, "unresolved identifier %q", tok)
}

func regIndex(line int, tok string) (int, *Error) {
	if len(tok) != 1 {
		return 0, errf(line, "invalid register operand %q", tok)
	}
	idx, ok := isa.RegisterIndex(tok[0])
	if !ok || !isa.IsValidRegister(idx) {
		return 0, errf(line, "register %q out of range A..H", tok)
	}
	return idx, nil
}

// consumeOperand pulls the next token(s) off toks per kind k and appends
// the encoded bytes to out. It returns the remaining tokens.
func consumeOperand(labels map[string]uint16, line int, k operandKind, toks []string, out []byte) ([]string, []byte, *Error) {
	switch k {
	case kindReg:
		if len(toks) < 1 {
			return nil, nil, errf(line, "missing register operand")
		}
		idx, err := regIndex(line, toks[0])
		if err != nil {
			return nil, nil, err
		}
		return toks[1:], append(out, byte(idx)), nil

	case kindImm8, kindPort:
		if len(toks) < 1 {
			return nil, nil, errf(line, "missing operand")
		}
		v, err := resolve(labels, line, toks[0])
		if err != nil {
			return nil, nil, err
		}
		if v > 0xFF || v < -128 {
			return nil, nil, errf(line, "operand %q out of byte range", toks[0])
		}
		return toks[1:], append(out, byte(v)), nil

	case kindImm16, kindAddr16:
		if len(toks) < 1 {
			return nil, nil, errf(line, "missing operand")
		}
		v, err := resolve(labels, line, toks[0])
		if err != nil {
			return nil, nil, err
		}
		if v < 0 || v > 0xFFFF {
			return nil, nil, errf(line, "operand %q out of 16-bit range", toks[0])
		}
		return toks[1:], append(out, byte(v), byte(v>>8)), nil

	case kindRegPair:
		if len(toks) < 1 {
			return nil, nil, errf(line, "missing register-pair operand")
		}
		if len(toks[0]) == 2 {
			hi, okHi := isa.RegisterIndex(toks[0][0])
			lo, okLo := isa.RegisterIndex(toks[0][1])
			if okHi && okLo && isa.IsValidRegister(hi) && isa.IsValidRegister(lo) {
				return toks[1:], append(out, byte(hi), byte(lo)), nil
			}
		}
		if len(toks) < 2 {
			return nil, nil, errf(line, "missing register-pair operand")
		}
		hi, err := regIndex(line, toks[0])
		if err != nil {
			return nil, nil, err
		}
		lo, err := regIndex(line, toks[1])
		if err != nil {
			return nil, nil, err
		}
		return toks[2:], append(out, byte(hi), byte(lo)), nil
	}
	return toks, out, nil
}
