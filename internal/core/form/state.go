package form

// State is the lifecycle state of a form session.
type State int

const (
	// StateSeeded means the buffer holds the initial record and was not edited.
	StateSeeded State = iota
	// StateEditing means at least one change was applied since the last submit.
	StateEditing
	// StateValidating is held while a submit runs the rules.
	StateValidating
	// StateRejected means the last submit failed; errors are attached.
	StateRejected
	// StateAccepted is terminal: the finalized record was handed off.
	StateAccepted
	// StateClosed is terminal: the session was discarded without output.
	StateClosed
)

var stateNames = map[State]string{
	StateSeeded:     "seeded",
	StateEditing:    "editing",
	StateValidating: "validating",
	StateRejected:   "rejected",
	StateAccepted:   "accepted",
	StateClosed:     "closed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal reports whether no further changes are possible.
func (s State) IsTerminal() bool {
	return s == StateAccepted || s == StateClosed
}
