package buildpipeline

import "time"

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageParse is the parsing stage.
	StageParse Stage = "parse"
	// StageBind is name resolution and type checking.
	StageBind Stage = "bind"
	// StageLower is bytecode generation.
	StageLower Stage = "lower"
	// StageLoad is reuse of a fresh persisted unit.
	StageLoad Stage = "load"
	// StagePersist writes compiled units.
	StagePersist Stage = "persist"
	// StageLink resolves units against each other in the VM.
	StageLink Stage = "link"
	// StageRun is the run stage.
	StageRun Stage = "run"
)

// Status is the state of a file or of the whole pipeline within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for one file, or for the whole pipeline when
// File is empty.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Compile calls it from several
// goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings holds per-stage durations. The zero value is ready to use.
type Timings struct {
	stages map[Stage]time.Duration
}

// Set records dur for stage, replacing an earlier value.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
	t.stages[stage] = dur
}

// Has reports whether stage was timed.
func (t Timings) Has(stage Stage) bool {
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the time recorded for stage, zero if none.
func (t Timings) Duration(stage Stage) time.Duration { return t.stages[stage] }

// Sum adds up the given stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
