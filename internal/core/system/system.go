package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseEvents  Phase = iota // 0: deliver last tick's events
	PhaseInput                // 1: avatar / collaborator input
	PhaseStream               // 2: advance → retire → extend
	PhaseScore                // 3: score accumulation
	PhasePhysics              // 4: collision checks against the fresh layout
	PhasePersist              // 5: hand finished runs to the recorder
)

func (p Phase) String() string {
	switch p {
	case PhaseEvents:
		return "events"
	case PhaseInput:
		return "input"
	case PhaseStream:
		return "stream"
	case PhaseScore:
		return "score"
	case PhasePhysics:
		return "physics"
	case PhasePersist:
		return "persist"
	}
	return "unknown"
}

// System is the interface every tick participant implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
