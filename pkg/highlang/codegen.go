package highlang

import (
	"fmt"
	"strings"

	"github.com/vm8/toolkit/pkg/charmap"
	"github.com/vm8/toolkit/pkg/isa"
)

// funcSig is a function's calling shape, resolved once before any call site
// is generated so forward and recursive call sites resolve without a fixup
// pass. Parameters, locals and the saved return address live in static
// per-function storage, so a recursive call overwrites the caller's copies
// and does not return correctly.
type funcSig struct {
	Params  []Param
	RetType varType
}

// dataVar is one trailing-segment storage slot, emitted after every
// statement has been lowered.
type dataVar struct {
	Label string
	Type  varType
}

// codegen lowers a parsed Program to assembly text consumable by pkg/asm.
// Registers A-F are scratch; G and H are reserved for a function's saved
// return address (Design Notes: the original's "last two registers" for the
// return slot map onto the ISA's actual last two real registers).
type codegen struct {
	sb       strings.Builder
	global   *scope
	cur      *scope
	curFunc  string
	funcSigs map[string]funcSig
	data     []dataVar
	labelN   int
}

// Compile lexes, parses and lowers source to assembly text ready for
// pkg/asm.Assemble.
func Compile(source string) (string, error) {
	prog, err := parse(source)
	if err != nil {
		return "", err
	}
	g := &codegen{global: newScope(nil), funcSigs: make(map[string]funcSig)}
	g.cur = g.global
	if err := g.generate(prog); err != nil {
		return "", err
	}
	return g.sb.String(), nil
}

func (g *codegen) emit(format string, args ...any) {
	fmt.Fprintf(&g.sb, format+"\n", args...)
}

func (g *codegen) label(name string) {
	fmt.Fprintf(&g.sb, "%s:\n", name)
}

func (g *codegen) newLabel(prefix string) string {
	g.labelN++
	return fmt.Sprintf("__%s%d", prefix, g.labelN)
}

func (g *codegen) addData(label string, t varType) {
	g.data = append(g.data, dataVar{Label: label, Type: t})
}

func (g *codegen) generate(prog *Program) *Error {
	for _, gl := range prog.Globals {
		if !g.global.define(gl.Name, varInfo{Label: gl.Name, Type: gl.Type}) {
			return errAt(gl.Pos, "semantic", "global %q redeclared", gl.Name)
		}
		g.addData(gl.Name, gl.Type)
	}

	if err := g.precomputeSignatures(prog.Funcs); err != nil {
		return err
	}

	for _, stmt := range prog.Entry {
		if err := g.genStmt(stmt); err != nil {
			return err
		}
	}
	g.emit("HALT")

	for _, fn := range prog.Funcs {
		if err := g.genFunc(fn); err != nil {
			return err
		}
	}

	for _, d := range g.data {
		g.emitData(d)
	}
	return nil
}

func (g *codegen) emitData(d dataVar) {
	if d.Type == typeU16 {
		g.emit("%s_lo: $ 0", d.Label)
		g.emit("%s_hi: $ 0", d.Label)
		return
	}
	g.emit("%s: $ 0", d.Label)
}

// precomputeSignatures resolves every function's parameter list and return
// type in declaration order, before any call site is lowered. A function
// whose own return expression calls a later-declared function is rejected;
// every other forward/recursive call works because call sites only need the
// signature table, which is complete before any body is generated.
func (g *codegen) precomputeSignatures(funcs []*FuncDef) *Error {
	for _, fn := range funcs {
		if _, dup := g.funcSigs[fn.Name]; dup {
			return errAt(fn.Pos, "semantic", "function %q redeclared", fn.Name)
		}
		sc := newScope(g.global)
		for _, p := range fn.Params {
			sc.define(p.Name, varInfo{Label: fn.Name + "__" + p.Name, Type: p.Type})
		}
		for _, l := range fn.Locals {
			sc.define(l.Name, varInfo{Label: fn.Name + "__" + l.Name, Type: l.Type})
		}
		if fn.ReturnStmt == nil {
			return errAt(fn.Pos, "semantic", "function %q has no return statement", fn.Name)
		}
		rt, err := g.inferOperandType(sc, fn.ReturnStmt.Value)
		if err != nil {
			return err
		}
		fn.RetType = rt
		g.funcSigs[fn.Name] = funcSig{Params: fn.Params, RetType: rt}
	}
	return nil
}

func (g *codegen) inferOperandType(sc *scope, op Operand) (varType, *Error) {
	switch v := op.(type) {
	case *NumberOperand:
		if v.Value < 0 || v.Value > 0xFFFF {
			return 0, errAt(v.Pos, "semantic", "numeric literal %d out of range", v.Value)
		}
		if v.Value > 0xFF {
			return typeU16, nil
		}
		return typeU8, nil
	case *CharOperand:
		return typeU8, nil
	case *IdentOperand:
		info, ok := sc.lookup(v.Name)
		if !ok {
			return 0, errAt(v.Pos, "semantic", "undeclared variable %q", v.Name)
		}
		return info.Type, nil
	case *RegOperand:
		return typeU8, nil
	case *MemOperand:
		return typeU8, nil
	case *InOperand:
		return typeU8, nil
	case *CallOperand:
		sig, ok := g.funcSigs[v.Name]
		if !ok {
			return 0, errAt(v.Pos, "semantic", "call to undeclared function %q (forward calls from a return expression must name an earlier function)", v.Name)
		}
		return sig.RetType, nil
	}
	return 0, errAt(SourcePos{}, "semantic", "unrecognized operand")
}

func (g *codegen) genFunc(fn *FuncDef) *Error {
	g.curFunc = fn.Name
	g.cur = newScope(g.global)
	g.label(fn.Name)

	// G:H only carries the return address from the caller to this point;
	// it is spilled to a per-function memory slot immediately so a CALL
	// anywhere in the body (which pops its own callee's return address
	// into G:H) can't clobber it before RET reloads and pushes it back.
	retSlot := fn.Name + "__retaddr"
	g.addData(retSlot, typeU16)
	g.emit("POP16 GH")
	g.emit("STM %s_hi, G", retSlot)
	g.emit("STM %s_lo, H", retSlot)

	for _, param := range fn.Params {
		label := fn.Name + "__" + param.Name
		g.cur.define(param.Name, varInfo{Label: label, Type: param.Type})
		g.addData(label, param.Type)
		if param.Type == typeU16 {
			g.emit("POP16 AB")
			g.emit("STM %s_hi, A", label)
			g.emit("STM %s_lo, B", label)
		} else {
			g.emit("POP A")
			g.emit("STM %s, A", label)
		}
	}

	for _, stmt := range fn.Body {
		if err := g.genStmt(stmt); err != nil {
			return err
		}
	}

	if fn.RetType == typeU16 {
		if err := g.genOperand16(fn.ReturnStmt.Value, 'A', 'B'); err != nil {
			return err
		}
		g.emit("PUSH16 AB")
	} else {
		if err := g.genOperand(fn.ReturnStmt.Value, 'A'); err != nil {
			return err
		}
		g.emit("PUSH A")
	}
	g.emit("LDM G, %s_hi", retSlot)
	g.emit("LDM H, %s_lo", retSlot)
	g.emit("PUSH16 GH")
	g.emit("RET")

	g.cur = g.global
	g.curFunc = ""
	return nil
}

func (g *codegen) genStmt(s Stmt) *Error {
	switch v := s.(type) {
	case *LetStmt:
		label := v.Name
		if g.curFunc != "" {
			label = g.curFunc + "__" + v.Name
		}
		if !g.cur.define(v.Name, varInfo{Label: label, Type: v.Type}) {
			return errAt(v.Pos, "semantic", "variable %q redeclared", v.Name)
		}
		g.addData(label, v.Type)
		return nil

	case *AssignStmt:
		return g.genAssign(v)

	case *IfStmt:
		return g.genIf(v)

	case *WhileStmt:
		return g.genWhile(v)

	case *OutStmt:
		port, err := portLiteral(v.Port)
		if err != nil {
			return err
		}
		if err := g.genOperand(v.Value, 'A'); err != nil {
			return err
		}
		g.emit("OUT %d, A", port)
		return nil

	case *HaltStmt:
		g.emit("HALT")
		return nil

	case *ReturnStmt:
		return errAt(v.Pos, "semantic", "return is only valid as the final statement of a function body")
	}
	return errAt(SourcePos{}, "semantic", "unrecognized statement")
}

func portLiteral(op Operand) (int64, *Error) {
	n, ok := op.(*NumberOperand)
	if !ok {
		return 0, errAt(operandPos(op), "semantic", "port must be a constant literal")
	}
	if n.Value < 0 || n.Value > 0xFF {
		return 0, errAt(n.Pos, "semantic", "port %d out of range", n.Value)
	}
	return n.Value, nil
}

func (g *codegen) genIf(v *IfStmt) *Error {
	elseLbl := g.newLabel("else")
	if err := g.genCond(v.Cond, elseLbl); err != nil {
		return err
	}
	for _, s := range v.Then {
		if err := g.genStmt(s); err != nil {
			return err
		}
	}
	if len(v.Else) == 0 {
		g.label(elseLbl)
		return nil
	}
	endLbl := g.newLabel("endif")
	g.emit("JMP %s", endLbl)
	g.label(elseLbl)
	for _, s := range v.Else {
		if err := g.genStmt(s); err != nil {
			return err
		}
	}
	g.label(endLbl)
	return nil
}

func (g *codegen) genWhile(v *WhileStmt) *Error {
	startLbl := g.newLabel("wstart")
	endLbl := g.newLabel("wend")
	g.label(startLbl)
	if err := g.genCond(v.Cond, endLbl); err != nil {
		return err
	}
	for _, s := range v.Body {
		if err := g.genStmt(s); err != nil {
			return err
		}
	}
	g.emit("JMP %s", startLbl)
	g.label(endLbl)
	return nil
}

// genCond lowers a comparison so that control falls through when it holds
// and jumps to falseLabel when it does not. Operand types are compared by
// width, not by tag, since u8 and char are interchangeable 1-byte storage
// types at the comparison site.
func (g *codegen) genCond(c *Cond, falseLabel string) *Error {
	lt, err := g.inferOperandType(g.cur, c.Left)
	if err != nil {
		return err
	}
	rt, err := g.inferOperandType(g.cur, c.Right)
	if err != nil {
		return err
	}
	if lt.width() != rt.width() {
		return errAt(c.Pos, "semantic", "comparison operand width mismatch")
	}

	// A call on the right clobbers the scratch registers, so the already
	// loaded left operand is parked on the stack across it.
	_, rightCalls := c.Right.(*CallOperand)

	if lt.width() == 2 {
		if err := g.genOperand16(c.Left, 'A', 'C'); err != nil {
			return err
		}
		if rightCalls {
			g.emit("PUSH16 AC")
		}
		if err := g.genOperand16(c.Right, 'B', 'D'); err != nil {
			return err
		}
		if rightCalls {
			g.emit("POP16 AC")
		}
		g.genCond16(c.Op, falseLabel)
		return nil
	}

	if err := g.genOperand(c.Left, 'A'); err != nil {
		return err
	}
	if rightCalls {
		g.emit("PUSH A")
	}
	if err := g.genOperand(c.Right, 'B'); err != nil {
		return err
	}
	if rightCalls {
		g.emit("POP A")
	}
	g.genRelFalseJump('A', 'B', c.Op, falseLabel)
	return nil
}

// genRelFalseJump assumes a and b are already loaded, emits CMP a,b and
// jumps to falseLabel exactly when "a op b" does not hold.
func (g *codegen) genRelFalseJump(a, b byte, op, falseLabel string) {
	g.emit("CMP %c, %c", a, b)
	switch op {
	case "==":
		g.emit("JNZ %s", falseLabel)
	case "!=":
		g.emit("JZ %s", falseLabel)
	case "<":
		g.emit("JNC %s", falseLabel)
	case ">=":
		g.emit("JC %s", falseLabel)
	case ">":
		g.emit("JC %s", falseLabel)
		g.emit("JZ %s", falseLabel)
	case "<=":
		t := g.newLabel("le_true")
		g.emit("JC %s", t)
		g.emit("JZ %s", t)
		g.emit("JMP %s", falseLabel)
		g.label(t)
	}
}

// genCond16 assumes A:C hold the left operand (hi,lo) and B:D hold the
// right operand (hi,lo). HI decides the outcome unless it's tied, in which
// case LO decides using the same relational recipe.
func (g *codegen) genCond16(op, falseLabel string) {
	contLbl := g.newLabel("cmp16_cont")
	eqLbl := g.newLabel("cmp16_eq")
	g.emit("CMP A, B")
	g.emit("JZ %s", eqLbl)
	switch op {
	case "==":
		g.emit("JMP %s", falseLabel)
	case "!=":
		g.emit("JMP %s", contLbl)
	case "<", "<=":
		g.emit("JC %s", contLbl)
		g.emit("JMP %s", falseLabel)
	case ">", ">=":
		g.emit("JC %s", falseLabel)
		g.emit("JMP %s", contLbl)
	}
	g.label(eqLbl)
	g.genRelFalseJump('C', 'D', op, falseLabel)
	g.label(contLbl)
}

func (g *codegen) targetType(tgt *Target) (varType, *Error) {
	switch tgt.Kind {
	case "var":
		info, ok := g.cur.lookup(tgt.Name)
		if !ok {
			return 0, errAt(tgt.Pos, "semantic", "undeclared variable %q", tgt.Name)
		}
		return info.Type, nil
	case "reg":
		idx, ok := isa.RegisterIndex(tgt.Reg)
		if !ok || !isa.IsValidRegister(idx) {
			return 0, errAt(tgt.Pos, "semantic", "invalid register name %q", string(tgt.Reg))
		}
		return typeU8, nil
	case "mem":
		if tgt.Addr < 0 || tgt.Addr > 0xFFFF {
			return 0, errAt(tgt.Pos, "semantic", "memory address %d out of range", tgt.Addr)
		}
		return typeU8, nil
	}
	return 0, errAt(tgt.Pos, "semantic", "unrecognized assignment target")
}

func (g *codegen) loadTarget8(tgt *Target, dest byte) {
	switch tgt.Kind {
	case "var":
		info, _ := g.cur.lookup(tgt.Name)
		g.emit("LDM %c, %s", dest, info.Label)
	case "reg":
		if dest != tgt.Reg {
			g.emit("MOV %c, %c", dest, tgt.Reg)
		}
	case "mem":
		g.emit("LDM %c, %d", dest, tgt.Addr)
	}
}

func (g *codegen) storeTarget8(tgt *Target, src byte) {
	switch tgt.Kind {
	case "var":
		info, _ := g.cur.lookup(tgt.Name)
		g.emit("STM %s, %c", info.Label, src)
	case "reg":
		if src != tgt.Reg {
			g.emit("MOV %c, %c", tgt.Reg, src)
		}
	case "mem":
		g.emit("STM %d, %c", tgt.Addr, src)
	}
}

func (g *codegen) loadTargetU16(tgt *Target, hi, lo byte) {
	info, _ := g.cur.lookup(tgt.Name)
	g.emit("LDM %c, %s_hi", hi, info.Label)
	g.emit("LDM %c, %s_lo", lo, info.Label)
}

func (g *codegen) storeTargetU16(tgt *Target, hi, lo byte) {
	info, _ := g.cur.lookup(tgt.Name)
	g.emit("STM %s_hi, %c", info.Label, hi)
	g.emit("STM %s_lo, %c", info.Label, lo)
}

func (g *codegen) genAssign(a *AssignStmt) *Error {
	tt, err := g.targetType(a.Target)
	if err != nil {
		return err
	}

	switch a.Op {
	case "++", "--":
		if tt == typeU16 {
			return errAt(a.Pos, "semantic", "++/-- is not supported on u16 targets")
		}
		g.loadTarget8(a.Target, 'A')
		if a.Op == "++" {
			g.emit("INC A")
		} else {
			g.emit("DEC A")
		}
		g.storeTarget8(a.Target, 'A')
		return nil

	case "=":
		if a.Not {
			if tt == typeU16 {
				return errAt(a.Pos, "semantic", "\"not\" is only supported for u8/char targets")
			}
			if err := g.genOperand(a.Value, 'A'); err != nil {
				return err
			}
			g.emit("NOT A")
			g.storeTarget8(a.Target, 'A')
			return nil
		}
		if tt == typeU16 {
			if err := g.genOperand16(a.Value, 'A', 'B'); err != nil {
				return err
			}
			g.storeTargetU16(a.Target, 'A', 'B')
			return nil
		}
		if err := g.genOperand(a.Value, 'A'); err != nil {
			return err
		}
		g.storeTarget8(a.Target, 'A')
		return nil

	case "+=", "-=", "&=", "|=", "^=":
		mnem := map[string]string{"+=": "ADD", "-=": "SUB", "&=": "AND", "|=": "OR", "^=": "XOR"}[a.Op]
		if tt == typeU16 {
			if err := g.genOperand16(a.Value, 'C', 'D'); err != nil {
				return err
			}
			g.loadTargetU16(a.Target, 'A', 'B')
			switch a.Op {
			case "+=":
				g.emit("ADD B, D")
				g.emit("ADC A, C")
			case "-=":
				g.emit("SUB B, D")
				g.emit("SBC A, C")
			default:
				g.emit("%s A, C", mnem)
				g.emit("%s B, D", mnem)
			}
			g.storeTargetU16(a.Target, 'A', 'B')
			return nil
		}
		if err := g.genOperand(a.Value, 'B'); err != nil {
			return err
		}
		g.loadTarget8(a.Target, 'A')
		g.emit("%s A, B", mnem)
		g.storeTarget8(a.Target, 'A')
		return nil

	case "<<=", ">>=":
		if tt == typeU16 {
			return errAt(a.Pos, "semantic", "shift is not supported on u16 targets")
		}
		n, ok := a.Value.(*NumberOperand)
		if !ok {
			return errAt(a.Pos, "semantic", "shift amount must be a constant literal")
		}
		if n.Value < 0 || n.Value > 8 {
			return errAt(n.Pos, "semantic", "shift amount %d out of range", n.Value)
		}
		g.loadTarget8(a.Target, 'A')
		mnem := "SHL"
		if a.Op == ">>=" {
			mnem = "SHR"
		}
		for i := int64(0); i < n.Value; i++ {
			g.emit("%s A", mnem)
		}
		g.storeTarget8(a.Target, 'A')
		return nil
	}
	return errAt(a.Pos, "semantic", "unsupported assignment operator %q", a.Op)
}

// genOperand loads an 8-bit operand's value into dest.
func (g *codegen) genOperand(op Operand, dest byte) *Error {
	switch v := op.(type) {
	case *NumberOperand:
		if v.Value < 0 || v.Value > 0xFF {
			return errAt(v.Pos, "semantic", "value %d does not fit an 8-bit operand", v.Value)
		}
		g.emit("LDI %c, %d", dest, v.Value)

	case *CharOperand:
		code, ok := charmap.ByteOf(v.Glyph)
		if !ok {
			return errAt(v.Pos, "semantic", "character %q is not in the glyph table", v.Glyph)
		}
		g.emit("LDI %c, %d", dest, code)

	case *IdentOperand:
		info, ok := g.cur.lookup(v.Name)
		if !ok {
			return errAt(v.Pos, "semantic", "undeclared variable %q", v.Name)
		}
		if info.Type == typeU16 {
			return errAt(v.Pos, "semantic", "%q is u16, expected an 8-bit operand", v.Name)
		}
		g.emit("LDM %c, %s", dest, info.Label)

	case *RegOperand:
		if dest != v.Reg {
			g.emit("MOV %c, %c", dest, v.Reg)
		}

	case *MemOperand:
		if v.Addr < 0 || v.Addr > 0xFFFF {
			return errAt(v.Pos, "semantic", "memory address %d out of range", v.Addr)
		}
		g.emit("LDM %c, %d", dest, v.Addr)

	case *InOperand:
		port, err := portLiteral(v.Port)
		if err != nil {
			return err
		}
		g.emit("IN %c, %d", dest, port)

	case *CallOperand:
		rt, err := g.genCall(v)
		if err != nil {
			return err
		}
		if rt != typeU8 {
			return errAt(v.Pos, "semantic", "function %q returns u16, expected an 8-bit value", v.Name)
		}
		if dest != 'A' {
			g.emit("MOV %c, A", dest)
		}

	default:
		return errAt(SourcePos{}, "semantic", "unrecognized operand")
	}
	return nil
}

// genOperand16 loads a 16-bit operand's value into destHi:destLo.
func (g *codegen) genOperand16(op Operand, destHi, destLo byte) *Error {
	switch v := op.(type) {
	case *NumberOperand:
		if v.Value < 0 || v.Value > 0xFFFF {
			return errAt(v.Pos, "semantic", "value %d does not fit a 16-bit operand", v.Value)
		}
		g.emit("LDI16 %c%c, %d", destHi, destLo, v.Value)

	case *IdentOperand:
		info, ok := g.cur.lookup(v.Name)
		if !ok {
			return errAt(v.Pos, "semantic", "undeclared variable %q", v.Name)
		}
		if info.Type != typeU16 {
			return errAt(v.Pos, "semantic", "%q is not u16", v.Name)
		}
		g.emit("LDM %c, %s_hi", destHi, info.Label)
		g.emit("LDM %c, %s_lo", destLo, info.Label)

	case *CallOperand:
		rt, err := g.genCall(v)
		if err != nil {
			return err
		}
		if rt != typeU16 {
			return errAt(v.Pos, "semantic", "function %q does not return u16", v.Name)
		}
		// Copy LO out of B before HI lands anywhere, so destHi == 'B'
		// (as in the B:D right-hand side of a comparison) is safe.
		if destLo != 'B' {
			g.emit("MOV %c, B", destLo)
		}
		if destHi != 'A' {
			g.emit("MOV %c, A", destHi)
		}

	default:
		return errAt(operandPos(op), "semantic", "expected a 16-bit operand")
	}
	return nil
}

// genCall lowers a call expression: push arguments right-to-left, CALL,
// then pop the return value into A (u8) or A:B (u16). It returns the
// callee's return type (inferred from its return expression) so callers
// can type-check the result.
func (g *codegen) genCall(c *CallOperand) (varType, *Error) {
	sig, ok := g.funcSigs[c.Name]
	if !ok {
		return 0, errAt(c.Pos, "semantic", "call to undeclared function %q", c.Name)
	}
	if len(c.Args) != len(sig.Params) {
		return 0, errAt(c.Pos, "semantic", "function %q expects %d argument(s), got %d", c.Name, len(sig.Params), len(c.Args))
	}
	for i := len(c.Args) - 1; i >= 0; i-- {
		arg := c.Args[i]
		if sig.Params[i].Type == typeU16 {
			if err := g.genOperand16(arg, 'A', 'B'); err != nil {
				return 0, err
			}
			g.emit("PUSH16 AB")
		} else {
			if err := g.genOperand(arg, 'A'); err != nil {
				return 0, err
			}
			g.emit("PUSH A")
		}
	}
	g.emit("CALL %s", c.Name)
	if sig.RetType == typeU16 {
		g.emit("POP16 AB")
	} else {
		g.emit("POP A")
	}
	return sig.RetType, nil
}
