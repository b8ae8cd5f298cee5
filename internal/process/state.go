package process

// State is the lifecycle state of a Handle.
type State int

// Handle lifecycle states. A handle moves strictly forward through them;
// a terminated handle still passes through Finished and Synced.
const (
	StateCreated State = iota
	StateStarted
	StateFinished
	StateSynced
)

var stateNames = [...]string{
	StateCreated:  "created",
	StateStarted:  "started",
	StateFinished: "finished",
	StateSynced:   "synced",
}

// String returns the lower-case state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
