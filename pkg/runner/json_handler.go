package runner

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/commitquest/pkg/domain"
)

// Event types written by JSONHandler, one JSON object per line.
const (
	EventEntry  = "entry"
	EventReset  = "reset"
	EventSystem = "system"
	EventError  = "error"
)

// Event is one line of NDJSON output.
type Event struct {
	Type  string        `json:"type"`
	Entry *domain.Entry `json:"entry,omitempty"`
	Text  string        `json:"text,omitempty"`
}

// inputLine is the structured form accepted on input.
type inputLine struct {
	Input string `json:"input"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
type JSONHandler struct {
	Writer  io.Writer
	Encoder *json.Encoder

	pump *linePump
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Writer:  w,
		Encoder: json.NewEncoder(w),
		pump:    newLinePump(r),
	}
}

func (h *JSONHandler) Output(ctx context.Context, entries []domain.Entry, reset bool) error {
	if reset {
		if err := h.Encoder.Encode(Event{Type: EventReset}); err != nil {
			return err
		}
	}
	for i := range entries {
		if err := h.Encoder.Encode(Event{Type: EventEntry, Entry: &entries[i]}); err != nil {
			return err
		}
	}
	return nil
}

// Input accepts a JSON string ("fix"), an object ({"input": "fix"}), or raw text.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	for {
		text, err := h.pump.next(ctx)
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)

		var val string
		var obj inputLine
		switch {
		case json.Unmarshal([]byte(text), &val) == nil:
			text = val
		case json.Unmarshal([]byte(text), &obj) == nil:
			text = obj.Input
		}

		clean, err := SanitizeInput(text)
		if err != nil {
			if encErr := h.Encoder.Encode(Event{Type: EventError, Text: err.Error()}); encErr != nil {
				return "", encErr
			}
			continue
		}
		return clean, nil
	}
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(Event{Type: EventSystem, Text: msg})
}
