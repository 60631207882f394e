package report

import (
	"path/filepath"
	"testing"

	"github.com/vm8/toolkit/pkg/isa"
	"github.com/vm8/toolkit/pkg/vm"
)

func TestDiagnosticsSortOrder(t *testing.T) {
	d := NewDiagnostics()
	d.Add(Diagnostic{File: "b.asm", Line: 1, Severity: "error", Message: "x"})
	d.Add(Diagnostic{File: "a.asm", Line: 5, Severity: "warning", Message: "y"})
	d.Add(Diagnostic{File: "a.asm", Line: 2, Severity: "error", Message: "z"})
	all := d.All()
	if all[0].File != "a.asm" || all[0].Line != 2 {
		t.Errorf("first = %+v, want a.asm:2", all[0])
	}
	if all[2].File != "b.asm" {
		t.Errorf("last = %+v, want b.asm", all[2])
	}
	if !d.HasErrors() {
		t.Error("expected HasErrors true")
	}
}

func TestTraceRecorderAndRoundTrip(t *testing.T) {
	image := []byte{
		byte(isa.LDI), 0, 3,
		byte(isa.DEC), 0,
		byte(isa.JNZ), 3, 0,
		byte(isa.HALT),
	}
	s := vm.New(image)
	tr := &Trace{}
	if err := s.Run(tr.Recorder(0)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(tr.Steps) == 0 {
		t.Fatal("expected recorded steps")
	}
	last := tr.Steps[len(tr.Steps)-1]
	if last.PC != 8 {
		t.Errorf("last recorded PC = %d, want 8", last.PC)
	}

	path := filepath.Join(t.TempDir(), "trace.gob")
	if err := SaveTrace(path, tr); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadTrace(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Steps) != len(tr.Steps) {
		t.Errorf("loaded %d steps, want %d", len(loaded.Steps), len(tr.Steps))
	}
}

func TestTraceRecorderMaxStepsStopsEarly(t *testing.T) {
	image := []byte{
		byte(isa.LDI), 0, 200,
		byte(isa.DEC), 0,
		byte(isa.JNZ), 3, 0,
		byte(isa.HALT),
	}
	s := vm.New(image)
	tr := &Trace{}
	if err := s.Run(tr.Recorder(5)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(tr.Steps) != 5 {
		t.Errorf("got %d steps, want 5 (bounded)", len(tr.Steps))
	}
	if s.Regs[0] == 0 {
		t.Error("expected execution to have stopped early, before A reached 0")
	}
}
