package console

import (
	"strings"
	"testing"
)

func TestPollKeyEmpty(t *testing.T) {
	h := NewHost(&strings.Builder{})
	if _, ok := h.PollKey(); ok {
		t.Error("expected no pending key on a fresh host")
	}
}

func TestPollKeyDrainsQueue(t *testing.T) {
	h := NewHost(&strings.Builder{})
	h.keys <- 7
	h.keys <- 9
	k, ok := h.PollKey()
	if !ok || k != 7 {
		t.Fatalf("got (%d,%v), want (7,true)", k, ok)
	}
	k, ok = h.PollKey()
	if !ok || k != 9 {
		t.Fatalf("got (%d,%v), want (9,true)", k, ok)
	}
	if _, ok := h.PollKey(); ok {
		t.Error("expected queue to be drained")
	}
}

func TestRenderText(t *testing.T) {
	var sb strings.Builder
	h := NewHost(&sb)
	var buf [16]byte
	buf[0] = 2 // ':' in pkg/charmap's table
	h.RenderText(buf)
	got := sb.String()
	if !strings.HasPrefix(got, "\r") {
		t.Errorf("expected output to start with carriage return, got %q", got)
	}
	if !strings.Contains(got, ":") {
		t.Errorf("expected rendered glyph in output, got %q", got)
	}
}
