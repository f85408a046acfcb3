package workflow

// State is a step in the lifecycle of a single validation run
type State string

const (
	StateNotStarted       State = "NOT_STARTED"
	StateInProgress       State = "IN_PROGRESS"
	StateCompleted        State = "COMPLETED"
	StateNeedsHumanReview State = "NEEDS_HUMAN_REVIEW"
	StateError            State = "ERROR"
)

var validStates = map[State]bool{
	StateNotStarted:       true,
	StateInProgress:       true,
	StateCompleted:        true,
	StateNeedsHumanReview: true,
	StateError:            true,
}

var terminalStates = map[State]bool{
	StateCompleted:        true,
	StateNeedsHumanReview: true,
	StateError:            true,
}

// IsTerminal returns true if no further transitions are allowed from the state
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}
