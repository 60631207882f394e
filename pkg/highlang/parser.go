package highlang

import (
	"strconv"
	"strings"

	"github.com/vm8/toolkit/pkg/isa"
)

type parser struct {
	toks []token
	pos  int
}

func parse(src string) (*Program, *Error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseProgram()
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) atEOF() bool { return p.cur().kind == tEOF }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expectPunct(lit string) (token, *Error) {
	t := p.cur()
	if t.kind != tPunct || t.lit != lit {
		return token{}, errAt(t.pos, "syntactic", "expected %q, saw %q", lit, t.lit)
	}
	return p.advance(), nil
}

func (p *parser) expectKeyword(lit string) (token, *Error) {
	t := p.cur()
	if t.kind != tKeyword || t.lit != lit {
		return token{}, errAt(t.pos, "syntactic", "expected %q, saw %q", lit, t.lit)
	}
	return p.advance(), nil
}

func (p *parser) expectIdent() (token, *Error) {
	t := p.cur()
	if t.kind != tIdent {
		return token{}, errAt(t.pos, "syntactic", "expected identifier, saw %q", t.lit)
	}
	return p.advance(), nil
}

func (p *parser) is(kind tokenKind, lit string) bool {
	t := p.cur()
	return t.kind == kind && t.lit == lit
}

func (p *parser) parseProgram() (*Program, *Error) {
	prog := &Program{}
	for !p.atEOF() {
		if p.is(tKeyword, "func") {
			fn, err := p.parseFuncDef()
			if err != nil {
				return nil, err
			}
			prog.Funcs = append(prog.Funcs, fn)
			continue
		}
		if p.is(tKeyword, "let:") {
			let, err := p.parseLet()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct(";"); err != nil {
				return nil, err
			}
			prog.Globals = append(prog.Globals, *let)
			continue
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		prog.Entry = append(prog.Entry, stmt)
	}
	return prog, nil
}

func (p *parser) parseFuncDef() (*FuncDef, *Error) {
	pos := p.cur().pos
	if _, err := p.expectKeyword("func"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var params []Param
	for !p.is(tPunct, ")") {
		if len(params) > 0 {
			if _, err := p.expectPunct(","); err != nil {
				return nil, err
			}
		}
		pname, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		tTok := p.cur()
		if tTok.kind != tType {
			return nil, errAt(tTok.pos, "syntactic", "expected type, saw %q", tTok.lit)
		}
		p.advance()
		vt, _ := parseVarType(tTok.lit)
		params = append(params, Param{Name: pname.lit, Type: vt})
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}

	fn := &FuncDef{Pos: pos, Name: name.lit, Params: params}
	for !p.is(tKeyword, "return") {
		if p.atEOF() {
			return nil, errAt(p.cur().pos, "syntactic", "expected \"return\" before end of input")
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if let, ok := stmt.(*LetStmt); ok {
			fn.Locals = append(fn.Locals, *let)
		}
		fn.Body = append(fn.Body, stmt)
	}
	retPos := p.cur().pos
	p.advance() // "return"
	val, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	fn.ReturnStmt = &ReturnStmt{Pos: retPos, Value: val}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return fn, nil
}

func (p *parser) parseBlock() ([]Stmt, *Error) {
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for !p.is(tPunct, "}") {
		if p.atEOF() {
			return nil, errAt(p.cur().pos, "syntactic", "expected \"}\" before end of input")
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	p.advance() // "}"
	return stmts, nil
}

func (p *parser) parseStmt() (Stmt, *Error) {
	t := p.cur()
	switch {
	case t.kind == tKeyword && t.lit == "let:":
		let, err := p.parseLet()
		if err != nil {
			return nil, err
		}
		_, err = p.expectPunct(";")
		return let, err

	case t.kind == tKeyword && t.lit == "if":
		return p.parseIf()

	case t.kind == tKeyword && t.lit == "while":
		return p.parseWhile()

	case t.kind == tKeyword && t.lit == "out":
		return p.parseOut()

	case t.kind == tKeyword && t.lit == "halt":
		p.advance()
		_, err := p.expectPunct(";")
		return &HaltStmt{Pos: t.pos}, err

	default:
		return p.parseAssignment()
	}
}

func (p *parser) parseLet() (*LetStmt, *Error) {
	pos := p.cur().pos
	p.advance() // "let:"
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if eq := p.cur(); eq.kind != tOp || eq.lit != "=" {
		return nil, errAt(eq.pos, "syntactic", "expected %q, saw %q", "=", eq.lit)
	}
	p.advance()
	tTok := p.cur()
	if tTok.kind != tType {
		return nil, errAt(tTok.pos, "syntactic", "expected type, saw %q", tTok.lit)
	}
	p.advance()
	vt, _ := parseVarType(tTok.lit)
	return &LetStmt{Pos: pos, Name: name.lit, Type: vt}, nil
}

func (p *parser) parseIf() (Stmt, *Error) {
	pos := p.cur().pos
	p.advance() // "if"
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseStmts []Stmt
	if p.is(tKeyword, "else") {
		p.advance()
		elseStmts, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return &IfStmt{Pos: pos, Cond: cond, Then: then, Else: elseStmts}, nil
}

func (p *parser) parseWhile() (Stmt, *Error) {
	pos := p.cur().pos
	p.advance() // "while"
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Pos: pos, Cond: cond, Body: body}, nil
}

func (p *parser) parseOut() (Stmt, *Error) {
	pos := p.cur().pos
	p.advance() // "out"
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	port, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(","); err != nil {
		return nil, err
	}
	val, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	_, err = p.expectPunct(";")
	return &OutStmt{Pos: pos, Port: port, Value: val}, err
}

var relops = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *parser) parseCond() (*Cond, *Error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	t := p.cur()
	if t.kind != tOp || !relops[t.lit] {
		return nil, errAt(t.pos, "syntactic", "expected comparison operator, saw %q", t.lit)
	}
	p.advance()
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return &Cond{Pos: operandPos(left), Left: left, Right: right, Op: t.lit}, nil
}

// operandPos extracts the source position carried by every Operand variant.
func operandPos(o Operand) SourcePos {
	switch v := o.(type) {
	case *NumberOperand:
		return v.Pos
	case *CharOperand:
		return v.Pos
	case *IdentOperand:
		return v.Pos
	case *RegOperand:
		return v.Pos
	case *MemOperand:
		return v.Pos
	case *InOperand:
		return v.Pos
	case *CallOperand:
		return v.Pos
	}
	return SourcePos{}
}

// parseAssignment handles every "assignment-like" statement form.
func (p *parser) parseAssignment() (Stmt, *Error) {
	target, err := p.parseTarget()
	if err != nil {
		return nil, err
	}
	t := p.cur()

	if t.kind == tOp && (t.lit == "++" || t.lit == "--") {
		p.advance()
		_, err := p.expectPunct(";")
		return &AssignStmt{Pos: target.Pos, Target: target, Op: t.lit}, err
	}

	if t.kind != tOp {
		return nil, errAt(t.pos, "syntactic", "expected assignment operator, saw %q", t.lit)
	}

	switch t.lit {
	case "=":
		p.advance()
		not := false
		if p.is(tKeyword, "not") {
			not = true
			p.advance()
		}
		val, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		return &AssignStmt{Pos: target.Pos, Target: target, Op: "=", Not: not, Value: val}, nil

	case "+=", "-=", "&=", "|=", "^=", "<<=", ">>=":
		p.advance()
		val, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		return &AssignStmt{Pos: target.Pos, Target: target, Op: t.lit, Value: val}, nil
	}
	return nil, errAt(t.pos, "syntactic", "unexpected operator %q", t.lit)
}

func (p *parser) parseTarget() (*Target, *Error) {
	pos := p.cur().pos
	if p.is(tKeyword, "reg") {
		p.advance()
		if _, err := p.expectPunct("["); err != nil {
			return nil, err
		}
		letterTok, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		if len(letterTok.lit) != 1 {
			return nil, errAt(letterTok.pos, "semantic", "invalid register name %q", letterTok.lit)
		}
		idx, ok := isa.RegisterIndex(letterTok.lit[0])
		if !ok || !isa.IsValidRegister(idx) {
			return nil, errAt(letterTok.pos, "semantic", "invalid register name %q", letterTok.lit)
		}
		return &Target{Pos: pos, Kind: "reg", Reg: letterTok.lit[0]}, nil
	}
	if p.is(tKeyword, "mem") {
		p.advance()
		if _, err := p.expectPunct("["); err != nil {
			return nil, err
		}
		addr, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		return &Target{Pos: pos, Kind: "mem", Addr: addr}, nil
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return &Target{Pos: pos, Kind: "var", Name: name.lit}, nil
}

func (p *parser) parseIntLiteral() (int64, *Error) {
	t := p.cur()
	if t.kind != tNumber {
		return 0, errAt(t.pos, "syntactic", "expected number, saw %q", t.lit)
	}
	p.advance()
	return parseIntLit(t.lit)
}

func parseIntLit(lit string) (int64, *Error) {
	if strings.HasPrefix(lit, "0b") || strings.HasPrefix(lit, "0B") {
		v, err := strconv.ParseInt(lit[2:], 2, 64)
		if err != nil {
			return 0, errAt(SourcePos{}, "lexical", "invalid binary literal %q", lit)
		}
		return v, nil
	}
	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return 0, errAt(SourcePos{}, "lexical", "invalid number literal %q", lit)
	}
	return v, nil
}

func (p *parser) parseOperand() (Operand, *Error) {
	t := p.cur()

	switch {
	case t.kind == tNumber:
		p.advance()
		v, err := parseIntLit(t.lit)
		if err != nil {
			err.Pos = t.pos
			return nil, err
		}
		return &NumberOperand{Pos: t.pos, Value: v}, nil

	case t.kind == tCharLit:
		p.advance()
		return &CharOperand{Pos: t.pos, Glyph: t.lit}, nil

	case t.kind == tKeyword && t.lit == "in":
		p.advance()
		if _, err := p.expectPunct("("); err != nil {
			return nil, err
		}
		port, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return &InOperand{Pos: t.pos, Port: port}, nil

	case t.kind == tKeyword && t.lit == "call":
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("("); err != nil {
			return nil, err
		}
		var args []Operand
		for !p.is(tPunct, ")") {
			if len(args) > 0 {
				if _, err := p.expectPunct(","); err != nil {
					return nil, err
				}
			}
			arg, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		p.advance() // ")"
		return &CallOperand{Pos: t.pos, Name: name.lit, Args: args}, nil

	case t.kind == tKeyword && t.lit == "reg":
		p.advance()
		if _, err := p.expectPunct("["); err != nil {
			return nil, err
		}
		letterTok, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		if len(letterTok.lit) != 1 {
			return nil, errAt(letterTok.pos, "semantic", "invalid register name %q", letterTok.lit)
		}
		idx, ok := isa.RegisterIndex(letterTok.lit[0])
		if !ok || !isa.IsValidRegister(idx) {
			return nil, errAt(letterTok.pos, "semantic", "invalid register name %q", letterTok.lit)
		}
		return &RegOperand{Pos: t.pos, Reg: letterTok.lit[0]}, nil

	case t.kind == tKeyword && t.lit == "mem":
		p.advance()
		if _, err := p.expectPunct("["); err != nil {
			return nil, err
		}
		addr, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("]"); err != nil {
			return nil, err
		}
		return &MemOperand{Pos: t.pos, Addr: addr}, nil

	case t.kind == tIdent:
		p.advance()
		return &IdentOperand{Pos: t.pos, Name: t.lit}, nil
	}

	return nil, errAt(t.pos, "syntactic", "expected operand, saw %q", t.lit)
}
