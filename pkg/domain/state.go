package domain

import "encoding/json"

// State represents the current snapshot of a quest session.
// The interpreter never mutates a State in place: it returns a new one.
type State struct {
	// SessionID identifies the session for stores and streams.
	SessionID string

	// Stage is the current wizard stage. A nil Stage is treated as Idle.
	Stage Stage

	// ProjectDir is the directory forwarded to the backend.
	ProjectDir string

	// Transcript is the ordered display log. Insertion order is display order.
	Transcript []Entry
}

// NewState creates a clean idle state, optionally seeded with entries.
func NewState(sessionID string, seed ...Entry) *State {
	transcript := make([]Entry, 0, len(seed))
	transcript = append(transcript, seed...)
	return &State{
		SessionID:  sessionID,
		Stage:      Idle{},
		Transcript: transcript,
	}
}

// Step returns the numeric wizard step.
func (s *State) Step() Step {
	if s == nil || s.Stage == nil {
		return StepIdle
	}
	return s.Stage.Step()
}

// PendingCommitType returns the class chosen at step 1, if any.
func (s *State) PendingCommitType() (CommitType, bool) {
	if s == nil {
		return "", false
	}
	if am, ok := s.Stage.(AwaitingMessage); ok {
		return am.CommitType, true
	}
	return "", false
}

// Snapshot returns a copy that shares no mutable memory with s.
func (s *State) Snapshot() *State {
	if s == nil {
		return nil
	}
	next := *s
	if next.Stage == nil {
		next.Stage = Idle{}
	}
	next.Transcript = make([]Entry, len(s.Transcript))
	copy(next.Transcript, s.Transcript)
	return &next
}

// Append returns a copy of s with entries added to the transcript.
func (s *State) Append(entries ...Entry) *State {
	next := s.Snapshot()
	next.Transcript = append(next.Transcript, entries...)
	return next
}

type stateJSON struct {
	SessionID         string  `json:"session_id"`
	Step              Step    `json:"step"`
	PendingCommitType string  `json:"pending_commit_type,omitempty"`
	ProjectDir        string  `json:"project_dir,omitempty"`
	Transcript        []Entry `json:"transcript"`
}

// MarshalJSON flattens the stage into step + pending_commit_type.
func (s State) MarshalJSON() ([]byte, error) {
	pending, _ := s.PendingCommitType()
	transcript := s.Transcript
	if transcript == nil {
		transcript = []Entry{}
	}
	return json.Marshal(stateJSON{
		SessionID:         s.SessionID,
		Step:              s.Step(),
		PendingCommitType: string(pending),
		ProjectDir:        s.ProjectDir,
		Transcript:        transcript,
	})
}

// UnmarshalJSON rebuilds the stage from its flattened form.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw stateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.SessionID = raw.SessionID
	s.Stage = StageFrom(raw.Step, raw.PendingCommitType)
	s.ProjectDir = raw.ProjectDir
	s.Transcript = raw.Transcript
	if s.Transcript == nil {
		s.Transcript = []Entry{}
	}
	return nil
}
