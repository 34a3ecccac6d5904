package poller

// State is a poll loop state.
type State int

const (
	Idle State = iota
	Collecting
	Persisting
	Rendering
	Sleeping
	Terminal
)

var stateNames = [...]string{
	Idle:       "idle",
	Collecting: "collecting",
	Persisting: "persisting",
	Rendering:  "rendering",
	Sleeping:   "sleeping",
	Terminal:   "terminal",
}

func (s State) String() string {
	if s < Idle || s > Terminal {
		return "unknown"
	}
	return stateNames[s]
}

// States returns every state in transition order.
func States() []State {
	return []State{Idle, Collecting, Persisting, Rendering, Sleeping, Terminal}
}
