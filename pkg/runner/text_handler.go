package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/commitquest/pkg/domain"
)

// Prompt is printed before every read in text mode.
const Prompt = "> "

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Writer   io.Writer
	Renderer ContentRenderer

	// Echo prints user entries as they are appended.
	// A terminal already shows what was typed, so this is off by default.
	Echo bool

	pump *linePump
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithEcho prints user entries, useful when input is piped.
func WithEcho(enabled bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.Echo = enabled
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Writer: w,
		pump:   newLinePump(r),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) Output(ctx context.Context, entries []domain.Entry, reset bool) error {
	if reset {
		fmt.Fprintln(h.Writer)
	}
	for _, e := range entries {
		// On a full redraw the user lines are not on screen yet.
		if e.Kind == domain.EntryUser && !h.Echo && !reset {
			continue
		}
		output := h.format(e)
		if h.Renderer != nil {
			if rendered, err := h.Renderer(e); err == nil {
				output = rendered
			}
		}
		if _, err := fmt.Fprintln(h.Writer, strings.TrimRight(output, "\n")); err != nil {
			return err
		}
	}
	return nil
}

func (h *TextHandler) format(e domain.Entry) string {
	if e.Kind == domain.EntryUser {
		return Prompt + e.Text
	}
	return e.Text
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	for {
		// Only show prompt if context is not yet done
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		fmt.Fprint(h.Writer, Prompt)

		text, err := h.pump.next(ctx)
		if err != nil {
			return "", err
		}

		clean, err := SanitizeInput(text)
		if err != nil {
			fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
			continue
		}
		return clean, nil
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintln(h.Writer, msg)
	return err
}
