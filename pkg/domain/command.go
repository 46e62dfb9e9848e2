package domain

import "strings"

// Command is the typed interpretation of one line of input.
type Command interface {
	isCommand()
}

// Generate starts the class-selection wizard. It never carries a type or
// message under the wizard grammar; the fields are filled by later stages.
type Generate struct {
	Type    CommitType
	Message string
}

// Setup asks the backend to configure the project directory.
type Setup struct {
	Dir string
}

// Help lists the available commands.
type Help struct{}

// Clear resets the transcript and the wizard.
type Clear struct{}

// Unknown is input that matches nothing valid at the idle stage.
type Unknown struct {
	Raw string
}

// WizardAnswer is input given while the wizard waits for a class or message.
type WizardAnswer struct {
	Raw string
}

func (Generate) isCommand()     {}
func (Setup) isCommand()        {}
func (Help) isCommand()         {}
func (Clear) isCommand()        {}
func (Unknown) isCommand()      {}
func (WizardAnswer) isCommand() {}

// Reserved keywords, matched case-insensitively.
const (
	KeywordClear    = "clear"
	KeywordHelp     = "help"
	KeywordSetup    = "setup"
	KeywordGenerate = "generate"
)

// ParseCommand interprets trimmed, non-empty input against the current stage.
// clear and help are recognised at every stage; setup and generate only when idle.
func ParseCommand(raw string, stage Stage) Command {
	keyword := strings.ToLower(raw)
	switch keyword {
	case KeywordClear:
		return Clear{}
	case KeywordHelp:
		return Help{}
	}

	if stage == nil || stage.Step() == StepIdle {
		switch keyword {
		case KeywordSetup:
			return Setup{}
		case KeywordGenerate:
			return Generate{}
		}
		return Unknown{Raw: raw}
	}

	return WizardAnswer{Raw: raw}
}
