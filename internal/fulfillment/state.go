package fulfillment

import "fmt"

// State is a pipeline stage.
type State int

const (
	Idle State = iota
	Downloading
	Extracting
	Elevating
	Running
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Downloading:
		return "downloading"
	case Extracting:
		return "extracting"
	case Elevating:
		return "elevating"
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition can follow.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// validNext lists the forward transitions; Failed is reachable from every
// non-idle, non-terminal state.
var validNext = map[State]State{
	Idle:        Downloading,
	Downloading: Extracting,
	Extracting:  Elevating,
	Elevating:   Running,
	Running:     Done,
}

func canTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == Failed {
		return from != Idle
	}
	return validNext[from] == to
}
