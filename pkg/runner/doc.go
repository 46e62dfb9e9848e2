/*
Package runner implements the line-oriented host loop for a quest session.

It is the bridge between the engine and a terminal or pipe. The runner reads
one line at a time through a pluggable handler, hands it to the engine via a
session.Manager (so resumed sessions persist), and prints the entries each
submission appends.

# Key Components

  - Runner: the read, submit, print loop.
  - IOHandler: decouples how lines are read and entries are shown.
  - TextHandler: interactive terminal usage.
  - JSONHandler: newline-delimited JSON for scripts and other programs.

# Usage

	r := runner.NewRunner(engine,
		runner.WithSessionID("user-1"),
		runner.WithStore(file.New("")),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}

Typing exit or quit ends the loop with a farewell line. EOF and interrupts end
it quietly.
*/
package runner
