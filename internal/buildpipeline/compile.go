package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"blaise/internal/driver"
	"blaise/internal/native"
	"blaise/internal/observ"
)

// ErrDiagnostics is returned when compilation reported errors. The
// diagnostics themselves are in CompileResult.Driver.Bag.
var ErrDiagnostics = errors.New("diagnostics reported errors")

// CompileRequest configures the shared compilation pipeline.
type CompileRequest struct {
	TargetPath     string
	BaseDir        string // progress file names are relative to it
	Search         []string
	CacheDir       string
	Jobs           int
	MaxDiagnostics int
	Natives        *native.Registry
	Progress       ProgressSink
}

// CompileResult captures compilation artefacts and stage timings.
type CompileResult struct {
	Driver  *driver.Result
	Timings Timings
}

// Compile parses, binds and lowers the target and every unit it uses.
func Compile(ctx context.Context, req *CompileRequest) (CompileResult, error) {
	var result CompileResult
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing compile request")
	}
	if req.TargetPath == "" {
		return result, fmt.Errorf("missing target path")
	}

	obs := &unitObserver{
		sink:  req.Progress,
		files: newProgressFiles(req.BaseDir, req.Progress),
	}
	res, err := driver.Compile(ctx, req.TargetPath, driver.Options{
		Search:         req.Search,
		CacheDir:       req.CacheDir,
		Jobs:           req.Jobs,
		MaxDiagnostics: req.MaxDiagnostics,
		Natives:        req.Natives,
		Phase:          obs.OnPhase,
		Unit:           obs.OnUnit,
	})
	result.Driver = res
	if err != nil {
		emitStage(req.Progress, StageParse, StatusError, err, 0)
		return result, err
	}
	result.Timings = obs.timings()
	recordPhaseTimings(&result, res.Timer.Report())

	if res.Bag.HasErrors() {
		emitStage(req.Progress, StageBind, StatusError, ErrDiagnostics, 0)
		return result, ErrDiagnostics
	}
	return result, nil
}

// unitObserver turns driver callbacks into progress events and sums
// per-unit step durations into stage timings.
type unitObserver struct {
	sink  ProgressSink
	files *progressFiles

	mu     sync.Mutex
	stages Timings
}

// OnPhase forwards compiler phase boundaries as pipeline-wide events.
func (o *unitObserver) OnPhase(ev driver.PhaseEvent) {
	if o.sink == nil || ev.Name != "parse" {
		return
	}
	if ev.Status == driver.PhaseStart {
		emitStage(o.sink, StageParse, StatusWorking, nil, 0)
		return
	}
	emitStage(o.sink, StageParse, StatusDone, nil, ev.Elapsed)
}

// OnUnit is called from compile goroutines.
func (o *unitObserver) OnUnit(ev driver.UnitEvent) {
	stage := stageOf(ev.Step)
	if ev.Done {
		o.mu.Lock()
		o.stages.Set(stage, o.stages.Duration(stage)+ev.Elapsed)
		o.mu.Unlock()
	}
	if o.sink == nil {
		return
	}
	name := o.files.see(ev.Path)
	status := StatusWorking
	switch {
	case ev.Done && ev.Err != nil:
		status = StatusError
	case ev.Done && (ev.Step == driver.StepLoad || ev.Step == driver.StepPersist):
		status = StatusDone
	case ev.Done:
		// More steps follow a finished parse, bind or lower.
		return
	}
	o.sink.OnEvent(Event{File: name, Stage: stage, Status: status, Err: ev.Err, Elapsed: ev.Elapsed})
}

func (o *unitObserver) timings() Timings {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out Timings
	for stage, d := range o.stages.stages {
		out.Set(stage, d)
	}
	return out
}

func stageOf(step driver.Step) Stage {
	switch step {
	case driver.StepParse:
		return StageParse
	case driver.StepBind:
		return StageBind
	case driver.StepLower:
		return StageLower
	case driver.StepLoad:
		return StageLoad
	default:
		return StagePersist
	}
}

func recordPhaseTimings(result *CompileResult, report observ.Report) {
	for _, phase := range report.Phases {
		if phase.Name == "parse" {
			result.Timings.Set(StageParse, durationFromMillis(phase.DurationMS))
		}
	}
}

func durationFromMillis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func emitStage(sink ProgressSink, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}
