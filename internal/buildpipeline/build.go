// Package buildpipeline orchestrates compiling a program and running it on
// the VM, reporting progress to an optional sink.
package buildpipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"blaise/internal/module"
	"blaise/internal/vm"
)

// BuildRequest configures a build: compile and persist every unit, then
// link them once to catch inconsistent units before they are run.
type BuildRequest struct {
	CompileRequest
}

// BuildResult captures build artefacts and timings.
type BuildResult struct {
	CompileResult
	Units []*module.Unit // initialization order
}

// Build compiles the target into persisted units in req.CacheDir.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	var result BuildResult
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	if req.CacheDir == "" {
		return result, fmt.Errorf("build needs a unit cache directory")
	}
	compiled, err := Compile(ctx, &req.CompileRequest)
	result.CompileResult = compiled
	if err != nil {
		return result, err
	}
	result.Units = compiled.Driver.Units

	linkStart := time.Now()
	emitStage(req.Progress, StageLink, StatusWorking, nil, 0)
	if _, err := vm.New(result.Units, vm.Options{Natives: req.Natives, Files: compiled.Driver.Files}); err != nil {
		emitStage(req.Progress, StageLink, StatusError, err, 0)
		return result, err
	}
	result.Timings.Set(StageLink, time.Since(linkStart))
	emitStage(req.Progress, StageLink, StatusDone, nil, result.Timings.Duration(StageLink))
	return result, nil
}

// RunRequest configures compiling and running a program.
type RunRequest struct {
	CompileRequest
	Out        io.Writer // os.Stdout when nil
	In         io.Reader // os.Stdin when nil
	HeapBudget int
	MaxFrames  int
	VMTrace    io.Writer // per-instruction trace; nil disables it
}

// RunResult is the outcome of a run. Fault is set when the program
// stopped on a runtime error.
type RunResult struct {
	CompileResult
	ExitCode int
	Fault    *vm.VMError
	Heap     vm.HeapStats
}

// Run compiles the target and executes it. Compilation failures come back
// as the error; a runtime fault comes back in RunResult.Fault with exit
// code 1.
func Run(ctx context.Context, req *RunRequest) (RunResult, error) {
	var result RunResult
	if req == nil {
		return result, fmt.Errorf("missing run request")
	}
	compiled, err := Compile(ctx, &req.CompileRequest)
	result.CompileResult = compiled
	if err != nil {
		return result, err
	}
	if err := ValidateEntrypoint(compiled.Driver); err != nil {
		emitStage(req.Progress, StageLink, StatusError, err, 0)
		return result, err
	}

	out, in := req.Out, req.In
	if out == nil {
		out = os.Stdout
	}
	if in == nil {
		in = os.Stdin
	}
	opts := vm.Options{
		Natives:    req.Natives,
		Out:        out,
		In:         in,
		HeapBudget: req.HeapBudget,
		MaxFrames:  req.MaxFrames,
		Files:      compiled.Driver.Files,
	}
	if req.VMTrace != nil {
		opts.Trace = vm.NewTracer(req.VMTrace, compiled.Driver.Files)
	}

	linkStart := time.Now()
	emitStage(req.Progress, StageLink, StatusWorking, nil, 0)
	machine, err := vm.New(compiled.Driver.Units, opts)
	if err != nil {
		emitStage(req.Progress, StageLink, StatusError, err, 0)
		return result, err
	}
	result.Timings.Set(StageLink, time.Since(linkStart))
	emitStage(req.Progress, StageLink, StatusDone, nil, result.Timings.Duration(StageLink))

	runStart := time.Now()
	emitStage(req.Progress, StageRun, StatusWorking, nil, 0)
	fault := machine.Run(ctx)
	result.Timings.Set(StageRun, time.Since(runStart))
	result.Heap = machine.Heap.Stats()
	result.ExitCode = machine.ExitCode
	if fault != nil {
		result.Fault = fault
		result.ExitCode = 1
		emitStage(req.Progress, StageRun, StatusError, fault, result.Timings.Duration(StageRun))
		return result, nil
	}
	emitStage(req.Progress, StageRun, StatusDone, nil, result.Timings.Duration(StageRun))
	return result, nil
}
