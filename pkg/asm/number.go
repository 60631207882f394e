package asm

import (
	"strconv"
	"strings"
)

// parseNumber accepts five numeric literal forms: 0xNN, NNh, 0bNN, NNb,
// and decimal, each with an optional leading sign.
func parseNumber(tok string) (int64, bool) {
	s := tok
	neg := false
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if s == "" {
		return 0, false
	}

	var v int64
	var err error
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		v, err = strconv.ParseInt(s[2:], 16, 64)
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		v, err = strconv.ParseInt(s[2:], 2, 64)
	case strings.HasSuffix(strings.ToLower(s), "h") && isHexBody(s[:len(s)-1]):
		v, err = strconv.ParseInt(s[:len(s)-1], 16, 64)
	case strings.HasSuffix(strings.ToLower(s), "b") && isBinBody(s[:len(s)-1]):
		v, err = strconv.ParseInt(s[:len(s)-1], 2, 64)
	default:
		v, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

func isHexBody(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

func isBinBody(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c != '0' && c != '1' {
			return false
		}
	}
	return true
}
