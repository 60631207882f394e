// Command vm8 drives the HighLang-to-assembly-to-bytes-to-VM toolchain:
// compile HighLang source, assemble assembly text, run a program on the
// VM (optionally interactively against a real terminal), and convert
// between raw binary and the persisted byte-image text format.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vm8/toolkit/pkg/asm"
	"github.com/vm8/toolkit/pkg/console"
	"github.com/vm8/toolkit/pkg/highlang"
	"github.com/vm8/toolkit/pkg/report"
	"github.com/vm8/toolkit/pkg/verify"
	"github.com/vm8/toolkit/pkg/vm"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vm8",
		Short: "HighLang/assembler/VM toolkit for the 8-bit register machine",
	}

	rootCmd.AddCommand(
		newCompileCmd(),
		newAssembleCmd(),
		newRunCmd(),
		newPackCmd(),
		newUnpackCmd(),
		newVerifyCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newCompileCmd exposes a CLI surface with two positional arguments,
// exit 0 on success, a single-line diagnostic on stderr otherwise.
func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <source.hl> <output.asm>",
		Short: "Compile HighLang source to assembly text",
		Args:  cobra.ExactArgs(2),
		// main prints the error once; cobra's own "Error:" line and usage
		// text are suppressed so the diagnostic stays on one line.
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			asmText, err := highlang.Compile(string(src))
			if err != nil {
				return err
			}
			return os.WriteFile(args[1], []byte(asmText), 0o644)
		},
	}
}

func newAssembleCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "assemble <input.asm> <output>",
		Short: "Assemble assembly text to a byte image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res, err := asm.Assemble(string(src))
			if err != nil {
				return err
			}
			switch format {
			case "raw":
				return os.WriteFile(args[1], res.Bytes, 0o644)
			case "text":
				return os.WriteFile(args[1], []byte(vm.EncodeImage(res.Bytes)), 0o644)
			default:
				return fmt.Errorf("unknown --format %q: use raw or text", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "raw", "Output format: raw or text")
	return cmd
}

func newRunCmd() *cobra.Command {
	var interactive bool
	var traceOut string
	var maxSteps int
	var stepDelay time.Duration

	cmd := &cobra.Command{
		Use:   "run <program>",
		Short: "Execute a program (.hl, .asm, or byte image) on the VM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := loadImage(args[0])
			if err != nil {
				return err
			}
			state := vm.New(image)

			var trace *report.Trace
			var onRetire func(*vm.State) bool
			if traceOut != "" {
				trace = &report.Trace{}
				onRetire = trace.Recorder(maxSteps)
			}

			var rerr error
			if interactive {
				rerr = runInteractive(state, stepDelay, onRetire)
			} else if err := state.Run(onRetire); err != nil {
				rerr = err
			}

			if trace != nil {
				if rerr != nil {
					trace.Err = rerr.Error()
				}
				if err := report.SaveTrace(traceOut, trace); err != nil {
					return err
				}
			}
			if rerr != nil {
				return rerr
			}

			fmt.Printf("PC=%#04x SP=%#04x Z=%v C=%v\n", state.PC, state.SP, state.Z, state.C)
			for i, r := range state.Regs {
				fmt.Printf("  %c=%#02x", 'A'+i, r)
			}
			fmt.Println()
			return nil
		},
	}
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Drive a real terminal as the console peripheral")
	cmd.Flags().StringVar(&traceOut, "trace-out", "", "Record a step trace to this file")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 1_000_000, "Cap on recorded trace steps (0 = unbounded)")
	cmd.Flags().DurationVar(&stepDelay, "step-delay", 2*time.Millisecond, "Pacing delay between steps in --interactive mode")
	return cmd
}

// runInteractive puts the terminal in raw mode, feeds keystrokes into port
// 0, and renders the text buffer after every retired instruction. The
// per-step delay belongs entirely to this driver; the console's
// suspension interval is outside the ISA contract.
func runInteractive(state *vm.State, delay time.Duration, onRetire func(*vm.State) bool) error {
	host := console.NewHost(os.Stdout)
	if err := host.Start(); err != nil {
		return fmt.Errorf("starting console: %w", err)
	}
	defer host.Stop()

	rerr := state.Run(func(s *vm.State) bool {
		if key, ok := host.PollKey(); ok {
			s.Port[0] = key
		}
		host.RenderText(s.TextBuffer())
		time.Sleep(delay)
		if onRetire != nil {
			return onRetire(s)
		}
		return true
	})
	if rerr != nil {
		return rerr
	}
	return nil
}

// loadImage resolves a program path to bytes by extension: .hl compiles
// then assembles, .asm assembles, anything else is treated as a byte
// image (bracketed text form first, raw binary as a fallback).
func loadImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hl":
		asmText, err := highlang.Compile(string(data))
		if err != nil {
			return nil, err
		}
		res, err := asm.Assemble(asmText)
		if err != nil {
			return nil, err
		}
		return res.Bytes, nil
	case ".asm":
		res, err := asm.Assemble(string(data))
		if err != nil {
			return nil, err
		}
		return res.Bytes, nil
	default:
		if bytes, err := vm.DecodeImage(string(data)); err == nil {
			return bytes, nil
		}
		return data, nil
	}
}

func newPackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pack <raw-binary> <text-image>",
		Short: "Convert a raw binary image to the persisted byte-image text format",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return os.WriteFile(args[1], []byte(vm.EncodeImage(data)), 0o644)
		},
	}
}

func newUnpackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unpack <text-image> <raw-binary>",
		Short: "Convert a persisted byte-image text file to raw binary",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			bytes, err := vm.DecodeImage(string(data))
			if err != nil {
				return err
			}
			return os.WriteFile(args[1], bytes, 0o644)
		},
	}
}

func newVerifyCmd() *cobra.Command {
	var numWorkers int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run the built-in property checks against the VM, assembler and charmap",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool := verify.NewWorkerPool(numWorkers)
			diags := pool.RunTasks(verify.AllProperties(), verbose)
			checked, failed := pool.Stats()
			fmt.Printf("%d checks run, %d failed\n", checked, failed)
			for _, d := range diags.All() {
				fmt.Printf("  FAIL %s\n", d.Message)
			}
			if diags.HasErrors() {
				return fmt.Errorf("%d propert%s failed", diags.Len(), plural(diags.Len()))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&numWorkers, "workers", 0, "Number of workers (0 = NumCPU)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print progress while checks run")
	return cmd
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
