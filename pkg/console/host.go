// Package console hosts the keyboard/text-buffer peripheral as an opaque
// I/O device: a goroutine reads raw stdin (golang.org/x/term raw mode
// plus a non-blocking read loop), translates bytes through pkg/charmap,
// and queues them for the VM's single-threaded step loop to drain —
// keeping the port mailbox free of concurrent writers instead of sharing
// it directly with the reader goroutine.
package console

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/term"

	"github.com/vm8/toolkit/pkg/charmap"
)

// Host reads raw keystrokes from stdin and renders the VM's text buffer to
// an output writer. Start/Stop/the read loop are platform-specific,
// split across host_unix.go and host_windows.go.
type Host struct {
	out      io.Writer
	fd       int
	stopCh   chan struct{}
	done     chan struct{}
	stopped  sync.Once
	oldState *term.State
	keys     chan byte
}

// NewHost creates a host that writes rendered output to out.
func NewHost(out io.Writer) *Host {
	return &Host{
		out:    out,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
		keys:   make(chan byte, 256),
	}
}

func (h *Host) queueByte(b byte) {
	if b == '\r' {
		b = '\n'
	}
	if b == 0x7F {
		b = 0x08
	}
	if code, ok := charmap.ByteOf(string(rune(b))); ok {
		select {
		case h.keys <- code:
		default: // queue full, drop the key rather than block the reader
		}
	}
}

// PollKey drains one queued key code, if any are pending. The caller feeds
// it into the VM's input port between Step calls.
func (h *Host) PollKey() (byte, bool) {
	select {
	case k := <-h.keys:
		return k, true
	default:
		return 0, false
	}
}

// RenderText writes the text buffer to the output writer as glyphs,
// returning the cursor to the start of the line first.
func (h *Host) RenderText(buf [16]byte) {
	fmt.Fprintf(h.out, "\r%s", charmap.Render(buf))
}
