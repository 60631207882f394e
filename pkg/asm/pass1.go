package asm

import (
	"strings"

	"github.com/vm8/toolkit/pkg/isa"
)

type stmtKind int

const (
	stmtInstr stmtKind = iota
	stmtDirective
)

// statement is the parsed, length-known form of one source statement.
// Pass 1 builds these once; pass 2 re-walks them to emit bytes, so nothing
// is re-parsed between passes.
type statement struct {
	line        int
	addr        uint16
	kind        stmtKind
	op          isa.OpCode
	operandToks []string
	dirToks     []directiveToken
	length      int
}

// pass1 walks the source, builds the label table, and computes the address
// and length of every statement. A label appearing twice, or an unknown
// mnemonic, is a fatal static error.
func pass1(source string) ([]statement, map[string]uint16, *Error) {
	labels := make(map[string]uint16)
	var stmts []statement
	var addr uint32

	for lineNo, raw := range strings.Split(source, "\n") {
		line := lineNo + 1
		text := stripComment(raw)
		labelNames, rest := splitLabels(text)
		for _, name := range labelNames {
			if _, dup := labels[name]; dup {
				return nil, nil, errf(line, "duplicate label %q", name)
			}
			if addr > 0xFFFF {
				return nil, nil, errf(line, "label %q address exceeds memory", name)
			}
			labels[name] = uint16(addr)
		}
		if rest == "" {
			continue
		}

		if strings.HasPrefix(rest, "$") {
			toks, err := parseDirective(line, strings.TrimSpace(rest[1:]))
			if err != nil {
				return nil, nil, err
			}
			length := 0
			for _, t := range toks {
				length += t.width()
			}
			stmts = append(stmts, statement{
				line: line, addr: uint16(addr), kind: stmtDirective,
				dirToks: toks, length: length,
			})
			addr += uint32(length)
			continue
		}

		fields := strings.Fields(rest)
		mnemonic := strings.ToUpper(fields[0])
		op, ok := isa.Lookup(mnemonic)
		if !ok {
			return nil, nil, errf(line, "unknown mnemonic %q", fields[0])
		}
		operandText := strings.TrimSpace(rest[len(fields[0]):])
		stmts = append(stmts, statement{
			line: line, addr: uint16(addr), kind: stmtInstr,
			op: op, operandToks: splitOperands(operandText),
			length: isa.Length(op),
		})
		addr += uint32(isa.Length(op))
	}

	if addr > 0x10000 {
		return nil, nil, errf(0, "program of %d bytes exceeds memory size", addr)
	}
	return stmts, labels, nil
}
