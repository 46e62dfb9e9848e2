/*
Package commitquest is a chat-style command interpreter that walks a user
through a short quest to obtain an AI-generated commit message.

The engine owns the conversation: it parses free-text input into a typed
command, tracks the class-selection wizard, calls the external generation
backend and records everything in an ordered transcript. It holds no session
data itself. Every call takes a state and returns the next one, so hosts
(REPL, chat UI, HTTP server, MCP server) decide how sessions are stored and
serialised.

# Commands

  - generate: start the wizard (choose a class, then type the message)
  - setup: ask the backend to configure the project, then choose a class
  - help: list the commands, at any step
  - clear: reset the transcript and the wizard, at any step

# Wizard

	step 0 (idle)             generate / setup
	step 1 (awaiting class)   feat | fix | chore
	step 2 (awaiting message) free text, sent to the backend

A successful or failed backend call always returns the wizard to step 0.

# Usage

	backend := remote.New("http://localhost:5000")
	eng := commitquest.New(commitquest.WithBackend(backend))

	state := eng.Start("session-1")
	for _, line := range []string{"generate", "feat", "add login"} {
		var err error
		state, err = eng.Submit(ctx, state, line)
		if err != nil {
			return err // ctx ended while the backend was busy
		}
	}
	for _, entry := range state.Transcript {
		fmt.Printf("[%s] %s\n", entry.Kind, entry.Text)
	}

Backends live under pkg/adapters (remote HTTP, local process, LLM).
Stores for hosted sessions implement ports.StateStore.
*/
package commitquest
