package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// EncodeImage renders bytes as the persisted byte image text format: one
// literal byte per `0b########` entry, comma-separated, enclosed in
// brackets — meant for pasting into another tool, not for density.
func EncodeImage(bytes []byte) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, b := range bytes {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "0b%08b", b)
	}
	sb.WriteByte(']')
	return sb.String()
}

// DecodeImage parses the persisted byte image text format back to bytes.
// Equivalent raw binary is also an acceptable image source; callers that
// can't tell which they have should try DecodeImage first and fall back
// to treating the input as raw bytes on error.
func DecodeImage(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "[")
	text = strings.TrimSuffix(text, "]")
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	fields := strings.Split(text, ",")
	out := make([]byte, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		f = strings.TrimPrefix(f, "0b")
		f = strings.TrimPrefix(f, "0B")
		v, err := strconv.ParseUint(f, 2, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid byte literal %q: %w", f, err)
		}
		out = append(out, byte(v))
	}
	return out, nil
}
