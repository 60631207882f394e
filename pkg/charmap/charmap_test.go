package charmap

import "testing"

// TestZeroAndSpace verifies the two pinned glyph codes: 0 is the null
// glyph and 1 is space.
func TestZeroAndSpace(t *testing.T) {
	if g := Glyph(0); g != "" {
		t.Errorf("Glyph(0) = %q, want empty string", g)
	}
	if g := Glyph(1); g != " " {
		t.Errorf("Glyph(1) = %q, want single space", g)
	}
}

// TestByte65IsNine pins the shifted CHAR_MAP's last digit: code 65 renders
// as "9".
func TestByte65IsNine(t *testing.T) {
	if g := Glyph(65); g != "9" {
		t.Errorf("Glyph(65) = %q, want \"9\"", g)
	}
}

// TestRoundTrip verifies every populated entry survives Glyph -> ByteOf.
func TestRoundTrip(t *testing.T) {
	for code := 2; code < 256; code++ {
		g := Table[code]
		if g == "" {
			continue
		}
		got, ok := ByteOf(g)
		if !ok {
			t.Errorf("ByteOf(%q) not found, but Table[%d] = %q", g, code, g)
			continue
		}
		if Glyph(got) != g {
			t.Errorf("round trip broke for code %d (%q): ByteOf gave %d", code, g, got)
		}
	}
}

// TestUnknownGlyphRejected verifies glyphs absent from the table are illegal.
func TestUnknownGlyphRejected(t *testing.T) {
	if _, ok := ByteOf(""); ok {
		t.Error("unexpected glyph accepted by ByteOf")
	}
}

func TestRender(t *testing.T) {
	var buf [16]byte
	buf[0] = 2 // first punctuation glyph
	buf[1] = 1 // space
	out := Render(buf)
	want := Glyph(2) + " "
	if out[:len(want)] != want {
		t.Errorf("Render prefix = %q, want %q", out[:len(want)], want)
	}
}
