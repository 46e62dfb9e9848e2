package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/commitquest/internal/config"
	"github.com/aretw0/commitquest/internal/presentation/chat"
	"github.com/aretw0/commitquest/internal/presentation/tui"
	"github.com/aretw0/commitquest/pkg/observability"
	"github.com/aretw0/commitquest/pkg/runner"
	"github.com/aretw0/commitquest/pkg/session"
)

// RunOptions contains all the configuration for the run and chat commands.
type RunOptions struct {
	Config    *config.Config
	SessionID string
	JSON      bool
	Fresh     bool
	Debug     bool
	Quiet     bool

	// Stdin and Stdout default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
}

func (o *RunOptions) streams() (io.Reader, io.Writer) {
	in, out := o.Stdin, o.Stdout
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return in, out
}

// RunSession runs the line REPL until the user leaves.
func RunSession(ctx context.Context, opts RunOptions) error {
	logger := createLogger(opts.Debug)
	in, out := opts.streams()

	engine, err := NewEngine(opts.Config, logger, observability.LogHooks(logger))
	if err != nil {
		return err
	}

	persistence, err := NewPersistence(opts.Config)
	if err != nil {
		return err
	}
	defer persistence.Close()

	if opts.Fresh && opts.SessionID != "" {
		if err := persistence.Store.Delete(ctx, opts.SessionID); err != nil {
			return fmt.Errorf("failed to reset session %s: %w", opts.SessionID, err)
		}
	}

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(in, out)
	} else {
		textOpts := []runner.TextHandlerOption{runner.WithEcho(!isTerminal(in))}
		if isTerminal(out) {
			renderer := tui.NewRenderer(out,
				tui.WithMarkdown(true),
				tui.WithWordWrap(tui.TerminalWidth(os.Stdout, 80)),
			)
			textOpts = append(textOpts, runner.WithTextHandlerRenderer(renderer.Render))
		}
		handler = runner.NewTextHandler(in, out, textOpts...)
	}

	r := runner.NewRunner(engine,
		runner.WithLogger(logger),
		runner.WithStore(persistence.Store),
		runner.WithSessionID(opts.SessionID),
		runner.WithInputHandler(handler),
	)

	if !opts.JSON && !opts.Quiet {
		if isTerminal(out) {
			tui.PrintBanner(out)
		}
		if opts.SessionID != "" {
			printSystemMessage(out, "Session '%s' active.", r.SessionID)
		}
	}

	return handleExecutionError(r.Run(ctx))
}

// RunChat opens the full-screen chat.
func RunChat(ctx context.Context, opts RunOptions) error {
	logger := createLogger(opts.Debug)

	engine, err := NewEngine(opts.Config, logger, observability.LogHooks(logger))
	if err != nil {
		return err
	}

	persistence, err := NewPersistence(opts.Config)
	if err != nil {
		return err
	}
	defer persistence.Close()

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = "chat"
	}
	if opts.Fresh {
		if err := persistence.Store.Delete(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to reset session %s: %w", sessionID, err)
		}
	}

	manager := session.NewManager(persistence.Store, engine,
		append(persistence.ManagerOptions(), session.WithLogger(logger))...)
	return handleExecutionError(chat.Run(ctx, manager, sessionID))
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && tui.IsTerminal(f)
}
