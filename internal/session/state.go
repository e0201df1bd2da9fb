package session

// State identifies where a read-aloud session is in its lifecycle.
type State int

const (
	// StateIdle means no session is live.
	StateIdle State = iota
	// StateStarting means a trigger fired and the pipeline is being built.
	StateStarting
	// StatePlaying means audio frames are flowing to the player.
	StatePlaying
	// StateStopping means teardown is in progress.
	StateStopping
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StatePlaying:
		return "playing"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// transitions lists the legal next states for each state. Starting and
// Playing may fall straight back to Idle for the nothing-to-read and
// failed-start paths.
var transitions = map[State][]State{
	StateIdle:     {StateStarting},
	StateStarting: {StatePlaying, StateStopping, StateIdle},
	StatePlaying:  {StateStopping, StateIdle},
	StateStopping: {StateIdle},
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
