// Package charmap defines the bijection between byte codes and the glyphs
// the text-buffer console peripheral renders them as. Character literals in
// the HighLang compiler (pkg/highlang) and the console's rendering of the
// VM text buffer (pkg/console) both consume this table, so it lives in its
// own package rather than in either.
package charmap

// Table maps a byte code to the glyph the console renders for it. Code 0 is
// the empty string (a cleared cell); every other entry is the CHAR_MAP dict
// from original_source/main.py shifted up by one slot to make room for it,
// so code 1 is CHAR_MAP[0] (space), code 2 is CHAR_MAP[1] (":"), and so on
// through code 85 (CHAR_MAP[84], "}").
var Table [256]string

// reverse is the partial inverse of Table: glyphs that never appear in
// Table are simply absent, and ByteOf reports that via its bool return.
var reverse map[string]byte

func init() {
	Table[0] = ""
	Table[1] = " "

	glyphs := []string{
		// leading punctuation
		":", "!", "?", "*", "-", "+", "/", ",", ".",

		// Latin letters A-Z
		"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
		"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",

		// Cyrillic letters present in the reference console font
		"Б", "Г", "Д", "Ж", "З", "И", "Л", "П", "Ф", "Ц", "Ч", "Ш", "Щ",
		"Ъ", "Ы", "Ь", "Э", "Ю", "Я",

		// digits
		"0", "1", "2", "3", "4", "5", "6", "7", "8", "9",

		// trailing punctuation and symbols
		"=", "(", ")", "_", "&", "@", "%", "$", "~", "|", "<", ">", ";",
		"✡", "^", "#", "[", "]", "{", "}",
	}

	code := byte(2)
	for _, g := range glyphs {
		Table[code] = g
		code++
	}

	reverse = make(map[string]byte, len(glyphs)+2)
	for i := 0; i < 256; i++ {
		g := Table[i]
		if g == "" && i != 0 {
			continue
		}
		if _, exists := reverse[g]; !exists {
			reverse[g] = byte(i)
		}
	}
}

// Glyph returns the display glyph for a byte code. Codes beyond the
// populated table render as the empty string, matching an uninitialized
// memory cell.
func Glyph(code byte) string {
	return Table[code]
}

// ByteOf returns the byte code for a glyph and reports whether the glyph is
// legal — i.e. whether it appears anywhere in Table. HighLang character
// literals that fail this check are a compile-time "unknown character
// literal" error.
func ByteOf(glyph string) (byte, bool) {
	code, ok := reverse[glyph]
	return code, ok
}

// Render renders a 16-byte text-buffer snapshot as a single string, one
// glyph per byte, in address order. This is the shared formatting used by
// both pkg/console's live terminal peripheral and any trace/report output.
func Render(buf [16]byte) string {
	var out [16]string
	for i, b := range buf {
		out[i] = Glyph(b)
	}
	s := ""
	for _, g := range out {
		s += g
	}
	return s
}
