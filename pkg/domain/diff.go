package domain

// StateDiff represents the changes between two states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	// Step is set when the wizard step changed.
	Step *Step `json:"step,omitempty"`

	// Reset is true when the transcript was replaced (clear) rather than appended to.
	// Appended then holds the whole new transcript.
	Reset bool `json:"reset,omitempty"`

	// Appended contains the entries added since the old state.
	Appended []Entry `json:"appended,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{SessionID: newState.SessionID}

	if oldState == nil || oldState.Step() != newState.Step() {
		step := newState.Step()
		diff.Step = &step
	}

	switch {
	case oldState == nil:
		diff.Appended = newState.Transcript
	case isPrefix(oldState.Transcript, newState.Transcript):
		if len(newState.Transcript) > len(oldState.Transcript) {
			diff.Appended = newState.Transcript[len(oldState.Transcript):]
		}
	default:
		diff.Reset = true
		diff.Appended = newState.Transcript
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Step == nil && !d.Reset && len(d.Appended) == 0
}

func isPrefix(prefix, full []Entry) bool {
	if len(prefix) > len(full) {
		return false
	}
	for i := range prefix {
		if prefix[i] != full[i] {
			return false
		}
	}
	return true
}
