package domain

// Step is the numeric wizard position exposed to hosts and persistence.
type Step int

const (
	StepIdle            Step = 0
	StepAwaitingClass   Step = 1
	StepAwaitingMessage Step = 2
)

// String returns the step name used in logs and metric labels.
func (s Step) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepAwaitingClass:
		return "awaiting_class"
	case StepAwaitingMessage:
		return "awaiting_message"
	}
	return "unknown"
}

// Stage is a wizard stage. Each implementation carries only the data valid
// for that stage, so a commit type cannot be recorded before a class is chosen.
type Stage interface {
	Step() Step
	isStage()
}

// Idle waits for a top-level command (setup, generate).
type Idle struct{}

// AwaitingClass waits for the user to pick feat, fix or chore.
type AwaitingClass struct{}

// AwaitingMessage waits for the free-form commit message.
type AwaitingMessage struct {
	CommitType CommitType
}

func (Idle) Step() Step            { return StepIdle }
func (AwaitingClass) Step() Step   { return StepAwaitingClass }
func (AwaitingMessage) Step() Step { return StepAwaitingMessage }

func (Idle) isStage()            {}
func (AwaitingClass) isStage()   {}
func (AwaitingMessage) isStage() {}

// StageFrom rebuilds a stage from its persisted form.
// Unknown steps, or step 2 without a valid commit type, collapse to Idle.
func StageFrom(step Step, pending string) Stage {
	switch step {
	case StepAwaitingClass:
		return AwaitingClass{}
	case StepAwaitingMessage:
		if ct, ok := ParseCommitType(pending); ok {
			return AwaitingMessage{CommitType: ct}
		}
	}
	return Idle{}
}
