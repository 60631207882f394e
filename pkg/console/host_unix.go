//go:build !windows

package console

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/term"
)

// Start puts stdin into raw, non-blocking mode and begins queuing keys.
// Bytes that do not resolve to a known glyph via pkg/charmap are dropped.
func (h *Host) Start() error {
	h.fd = int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		close(h.done)
		return fmt.Errorf("console: failed to set raw mode: %w", err)
	}
	h.oldState = oldState

	if err := syscall.SetNonblock(h.fd, true); err != nil {
		_ = term.Restore(h.fd, h.oldState)
		h.oldState = nil
		close(h.done)
		return fmt.Errorf("console: failed to set nonblocking stdin: %w", err)
	}

	go h.readLoop()
	return nil
}

func (h *Host) readLoop() {
	defer close(h.done)
	buf := make([]byte, 1)
	for {
		select {
		case <-h.stopCh:
			return
		default:
		}

		n, err := syscall.Read(h.fd, buf)
		if n > 0 {
			h.queueByte(buf[0])
			continue
		}
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || n == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil {
			return
		}
	}
}

// Stop restores stdin to its original blocking, cooked state.
func (h *Host) Stop() {
	h.stopped.Do(func() { close(h.stopCh) })
	<-h.done
	if h.oldState != nil {
		_ = syscall.SetNonblock(h.fd, false)
		_ = term.Restore(h.fd, h.oldState)
		h.oldState = nil
	}
}
