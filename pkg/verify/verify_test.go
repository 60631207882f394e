package verify

import (
	"testing"

	"github.com/vm8/toolkit/pkg/isa"
)

func TestFlagSweepTasksAllPass(t *testing.T) {
	pool := NewWorkerPool(4)
	var tasks []Task
	tasks = append(tasks, FlagSweepTasks(isa.ADD)...)
	tasks = append(tasks, UnarySweepTasks(isa.SHL)...)
	diags := pool.RunTasks(tasks, false)
	if diags.HasErrors() {
		for _, d := range diags.All() {
			t.Errorf("%s: %s", d.File, d.Message)
		}
	}
	checked, failed := pool.Stats()
	if checked != int64(len(tasks)) {
		t.Errorf("checked = %d, want %d", checked, len(tasks))
	}
	if failed != 0 {
		t.Errorf("failed = %d, want 0", failed)
	}
}

func TestStackAndCallTasksPass(t *testing.T) {
	pool := NewWorkerPool(2)
	diags := pool.RunTasks([]Task{StackRoundTripTask(), CallReturnRoundTripTask(), CharRoundTripTask()}, false)
	if diags.HasErrors() {
		for _, d := range diags.All() {
			t.Errorf("%s: %s", d.File, d.Message)
		}
	}
}

func TestLabelIdempotenceTaskPasses(t *testing.T) {
	task := LabelIdempotenceTask([]string{"LDI A, 1\nL: INC A\nJMP L\nHALT\n"})
	if err := task.Run(); err != nil {
		t.Errorf("unexpected failure: %v", err)
	}
}

func TestAllPropertiesRun(t *testing.T) {
	pool := NewWorkerPool(0)
	diags := pool.RunTasks(AllProperties(), false)
	if diags.HasErrors() {
		for _, d := range diags.All()[:min(5, diags.Len())] {
			t.Errorf("%s: %s", d.File, d.Message)
		}
	}
}
