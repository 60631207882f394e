package asm

// pass2 re-walks the statements produced by pass1 and emits the final byte
// image, now that every label's address is known.
func pass2(stmts []statement, labels map[string]uint16) ([]byte, *Error) {
	var out []byte

	for _, st := range stmts {
		if int(st.addr) != len(out) {
			return nil, errf(st.line, "internal error: address drift at 0x%04X", st.addr)
		}

		if st.kind == stmtDirective {
			for _, t := range st.dirToks {
				b, err := t.encode(labels, st.line)
				if err != nil {
					return nil, err
				}
				out = append(out, b...)
			}
			continue
		}

		opByte := byte(st.op)
		buf := make([]byte, 0, st.length)
		buf = append(buf, opByte)

		toks := st.operandToks
		var err *Error
		for _, k := range schema[st.op] {
			toks, buf, err = consumeOperand(labels, st.line, k, toks, buf)
			if err != nil {
				return nil, err
			}
		}
		if len(toks) != 0 {
			return nil, errf(st.line, "too many operands")
		}
		if len(buf) != st.length {
			return nil, errf(st.line, "internal error: encoded length %d, want %d", len(buf), st.length)
		}
		out = append(out, buf...)
	}
	return out, nil
}
