package highlang

type tokenKind int

const (
	tEOF tokenKind = iota
	tIdent
	tNumber
	tCharLit
	tKeyword
	tType
	tOp
	tPunct
)

// token is one lexical unit, tagged with the position of its first rune.
type token struct {
	kind tokenKind
	lit  string
	pos  SourcePos
}

var keywords = map[string]bool{
	"let:": true, "if": true, "else": true, "while": true, "reg": true,
	"mem": true, "not": true, "in": true, "out": true, "func": true,
	"return": true, "call": true, "halt": true,
}

var typeTokens = map[string]bool{"u8": true, "u16": true, "char": true}

// multiCharOps is tried longest-first so "==" is never split into "=","=".
var multiCharOps = []string{
	"++", "--", "+=", "-=", "&=", "|=", "^=", "<<=", ">>=",
	"==", "!=", "<=", ">=", "<<", ">>",
}

var singleCharOps = "=<>"
