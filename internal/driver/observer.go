package driver

import "time"

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	PhaseStart PhaseStatus = iota
	PhaseEnd
)

// PhaseEvent describes a timing phase boundary.
type PhaseEvent struct {
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
}

// PhaseObserver receives phase events emitted during Compile.
type PhaseObserver func(PhaseEvent)

// Step names the per-unit work reported to a UnitObserver.
type Step string

const (
	StepParse   Step = "parse"
	StepBind    Step = "bind"
	StepLower   Step = "lower"
	StepLoad    Step = "load" // fresh persisted unit reused
	StepPersist Step = "persist"
)

// UnitEvent reports progress of one unit. Done is false when the step
// starts.
type UnitEvent struct {
	Path    string
	Name    string
	Step    Step
	Done    bool
	Err     error
	Elapsed time.Duration
}

// UnitObserver receives unit events. It is called from compile goroutines
// and must be safe for concurrent use.
type UnitObserver func(UnitEvent)
