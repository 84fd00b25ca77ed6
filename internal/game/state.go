package game

import "errors"

// ErrInvalidTransition is returned by Start while a run is already in progress.
var ErrInvalidTransition = errors.New("invalid run state transition")

// State is the run lifecycle: NotStarted → Running → Faulted → Running.
type State uint8

const (
	NotStarted State = iota
	Running
	Faulted
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Faulted:
		return "faulted"
	}
	return "unknown"
}

// RunState is the per-run bookkeeping. Only the Controller writes it.
type RunState struct {
	State       State
	AdvanceRate float64
	Score       float64
	Distance    float64 // world units advanced since Start
	Ticks       uint64
	Faulted     bool
	Attempt     int // number of Start calls so far
}

// RunStarted is emitted by Start.
type RunStarted struct {
	Attempt int
	Seed    int64
}

// StateChanged is emitted on every transition. Input and rendering
// collaborators subscribe to it to enable or disable themselves.
type StateChanged struct {
	From, To State
}

// RunEnded is emitted when a running run faults.
type RunEnded struct {
	Attempt    int
	FinalScore int64
	Distance   float64
	Ticks      uint64
	Seed       int64
}
