//go:build windows

package console

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"
)

// Start puts stdin into raw mode and begins queuing keys. Windows has no
// SetNonblock, so the read loop blocks on os.Stdin.Read instead.
func (h *Host) Start() error {
	h.fd = int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		close(h.done)
		return fmt.Errorf("console: failed to set raw mode: %w", err)
	}
	h.oldState = oldState

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

		n, err := os.Stdin.Read(buf)
		if n > 0 {
			h.queueByte(buf[0])
		}
		if err != nil {
			return
		}
		if n == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
}

// Stop restores the terminal to its original state.
func (h *Host) Stop() {
	h.stopped.Do(func() { close(h.stopCh) })
	<-h.done
	if h.oldState != nil {
		_ = term.Restore(h.fd, h.oldState)
		h.oldState = nil
	}
}
