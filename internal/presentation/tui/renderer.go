package tui

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/commitquest/pkg/domain"
)

// Renderer styles transcript entries for a terminal.
type Renderer struct {
	out *termenv.Output
	md  *glamour.TermRenderer
}

// Option configures a Renderer.
type Option func(*rendererConfig)

type rendererConfig struct {
	markdown bool
	width    int
	profile  *termenv.Profile
}

// WithMarkdown renders system entries through glamour.
func WithMarkdown(enabled bool) Option {
	return func(c *rendererConfig) {
		c.markdown = enabled
	}
}

// WithWordWrap sets the markdown wrap width.
func WithWordWrap(width int) Option {
	return func(c *rendererConfig) {
		c.width = width
	}
}

// WithProfile forces a colour profile instead of detecting it from the writer.
func WithProfile(p termenv.Profile) Option {
	return func(c *rendererConfig) {
		c.profile = &p
	}
}

// NewRenderer returns a Renderer writing escape codes suited to w.
func NewRenderer(w io.Writer, opts ...Option) *Renderer {
	cfg := rendererConfig{width: 80}
	for _, opt := range opts {
		opt(&cfg)
	}

	var outOpts []termenv.OutputOption
	if cfg.profile != nil {
		outOpts = append(outOpts, termenv.WithProfile(*cfg.profile))
	}
	r := &Renderer{out: termenv.NewOutput(w, outOpts...)}

	if cfg.markdown {
		// Without a renderer the plain styling is used.
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(cfg.width),
		)
		if err == nil {
			r.md = md
		}
	}
	return r
}

// Render formats one entry. Its signature matches runner.ContentRenderer.
func (r *Renderer) Render(e domain.Entry) (string, error) {
	switch e.Kind {
	case domain.EntryUser:
		return r.out.String("> " + e.Text).Faint().String(), nil
	case domain.EntryError:
		return r.out.String(e.Text).Foreground(r.out.Color("#ef4444")).String(), nil
	}

	if r.md == nil {
		return e.Text, nil
	}
	rendered, err := r.md.Render(hardBreaks(e.Text))
	if err != nil {
		return e.Text, err
	}
	return strings.Trim(rendered, "\n"), nil
}

// hardBreaks keeps single newlines as line breaks in markdown.
func hardBreaks(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines[:len(lines)-1] {
		if strings.TrimSpace(line) != "" && strings.TrimSpace(lines[i+1]) != "" {
			lines[i] = line + "  "
		}
	}
	return strings.Join(lines, "\n")
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of f, or fallback when it is not a terminal.
func TerminalWidth(f *os.File, fallback int) int {
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		return w
	}
	return fallback
}
