package asm

import "fmt"

// Error is a fatal assembler error, annotated with the source line it came
// from: every static-stage error aborts assembly with a line-numbered
// message rather than a partial result. No column is recorded.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("asm:%d: %s", e.Line, e.Msg)
}

func errf(line int, format string, args ...any) *Error {
	return &Error{Line: line, Msg: fmt.Sprintf(format, args...)}
}
