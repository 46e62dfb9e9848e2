package interpreter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/commitquest/pkg/domain"
)

// WelcomeText is the canonical first entry of a fresh or cleared session.
const WelcomeText = `Welcome to Commit Message Quest!

Available commands:
- setup: Start the project setup process
- generate: Begin your quest to generate a commit message
- clear: Clear the messages
- help: Show available commands

Choose your path and embark on your coding adventure!`

// HelpText is appended verbatim by the help command at any step.
const HelpText = `Commands:
- generate: Begin your quest to generate a commit message.
- setup: Configure project settings.
- clear: Clear the messages and restart the quest.
- help: Show available commands.`

func classPrompt() string {
	var b strings.Builder
	b.WriteString("Choose your class:")
	for _, c := range domain.CommitClasses {
		fmt.Fprintf(&b, "\n[%s] %s - %s", c, c.ClassName(), c.Description())
	}
	return b.String()
}

func messagePrompt(ct domain.CommitType) string {
	return fmt.Sprintf("You walk the path of the %s (%s). Enter your commit message:", ct.ClassName(), ct)
}

func unknownCommand(raw string) string {
	return fmt.Sprintf("Unknown command: %s. Type 'help' to see available commands.", raw)
}

func invalidClass(raw string) string {
	names := make([]string, len(domain.CommitClasses))
	for i, c := range domain.CommitClasses {
		names[i] = string(c)
	}
	last := len(names) - 1
	choices := strings.Join(names[:last], ", ") + ", or " + names[last]
	return fmt.Sprintf("Invalid class %q! Please choose %s.", raw, choices)
}

// FormatResult renders a generation result for the transcript.
func FormatResult(res domain.GenerationResult) string {
	text := fmt.Sprintf("Generated Commit Message: %s\nYou gained %d experience and slayed %d enemies.",
		res.CommitMessage, res.Experience, res.EnemiesSlain)
	if res.AutoCommitResponse != "" {
		text += "\n" + res.AutoCommitResponse
	}
	return text
}

// FormatSetup renders a setup result followed by the class prompt.
func FormatSetup(res domain.SetupResult) string {
	text := "Setup completed: " + res.Message
	if len(res.Config) > 0 {
		if cfg, err := json.MarshalIndent(res.Config, "", "  "); err == nil {
			text += "\nConfiguration: " + string(cfg)
		}
	}
	return text + "\n\n" + classPrompt()
}

// FormatFailure renders a backend failure for the transcript.
func FormatFailure(err error) string {
	return "Error encountered: " + err.Error()
}
