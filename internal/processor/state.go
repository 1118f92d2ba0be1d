package processor

import "fmt"

// State is a pipeline stage.
type State string

const (
	StateIdle         State = "idle"
	StateSampling     State = "sampling"
	StateTranscribing State = "transcribing"
	StateAnalyzing    State = "analyzing"
	StateParsing      State = "parsing"
	StateCorrelating  State = "correlating"
	StateAssembling   State = "assembling"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// IsTerminal reports whether the run has finished.
func IsTerminal(s State) bool {
	return s == StateDone || s == StateFailed
}

var next = map[State]State{
	StateIdle:         StateSampling,
	StateSampling:     StateTranscribing,
	StateTranscribing: StateAnalyzing,
	StateAnalyzing:    StateParsing,
	StateParsing:      StateCorrelating,
	StateCorrelating:  StateAssembling,
	StateAssembling:   StateDone,
}

// machine tracks the state of a single run.
type machine struct {
	state State
	trace []State
}

func newMachine() *machine {
	return &machine{state: StateIdle, trace: []State{StateIdle}}
}

// Transition moves from -> to. The caller supplies the expected current state
// so out-of-order calls surface as errors.
func (m *machine) Transition(from, to State) error {
	if m.state != from {
		return fmt.Errorf("invalid transition: expected %s, got %s", from, m.state)
	}
	if !isAllowedTransition(from, to) {
		return fmt.Errorf("disallowed transition: %s -> %s", from, to)
	}
	m.state = to
	m.trace = append(m.trace, to)
	return nil
}

// fail moves the run to Failed from whatever non-terminal state it is in.
func (m *machine) fail() State {
	from := m.state
	if !IsTerminal(from) {
		m.state = StateFailed
		m.trace = append(m.trace, StateFailed)
	}
	return from
}

func isAllowedTransition(from, to State) bool {
	if IsTerminal(from) {
		return false
	}
	if to == StateFailed {
		return true
	}
	// a retried analysis re-enters its own state
	if from == StateAnalyzing && to == StateAnalyzing {
		return true
	}
	return next[from] == to
}
