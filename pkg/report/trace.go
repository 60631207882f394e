package report

import (
	"encoding/gob"
	"os"

	"github.com/vm8/toolkit/pkg/isa"
	"github.com/vm8/toolkit/pkg/vm"
)

// Step snapshots machine state after one executed instruction.
type Step struct {
	PC   uint16
	SP   uint16
	Regs [isa.RegisterCount]uint8
	Z    bool
	C    bool
}

// Trace is a recorded execution history, persisted the same way the
// teacher persists a search Checkpoint: encoding/gob to a file.
type Trace struct {
	Steps  []Step
	Halted bool
	Err    string
}

// Recorder returns an onRetire callback for vm.State.Run that appends one
// Step per executed instruction and stops after max steps (0 means
// unbounded), guarding against a runaway program filling memory.
func (t *Trace) Recorder(max int) func(*vm.State) bool {
	return func(s *vm.State) bool {
		t.Steps = append(t.Steps, Step{PC: s.PC, SP: s.SP, Regs: s.Regs, Z: s.Z, C: s.C})
		if max > 0 && len(t.Steps) >= max {
			return false
		}
		return true
	}
}

// SaveTrace writes a trace to path.
func SaveTrace(path string, tr *Trace) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(tr)
}

// LoadTrace reads a trace previously written by SaveTrace.
func LoadTrace(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var tr Trace
	if err := gob.NewDecoder(f).Decode(&tr); err != nil {
		return nil, err
	}
	return &tr, nil
}
