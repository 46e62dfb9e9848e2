package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/commitquest/pkg/domain"
)

// Overlay contains session data to highlight on the graph.
type Overlay struct {
	Current domain.Step
	// Class is the commit class chosen at awaiting_class, if any.
	Class domain.CommitType
}

// OverlayFor builds the overlay of a live session.
func OverlayFor(state *domain.State) *Overlay {
	o := &Overlay{Current: state.Step()}
	if ct, ok := state.PendingCommitType(); ok {
		o.Class = ct
	}
	return o
}

type edge struct {
	from, to string
	label    string
	dotted   bool
}

// GenerateMermaid produces a Mermaid flowchart of the quest wizard.
// It applies semantic styling:
// - Idle: ((Circle))
// - Steps waiting for input: [/Parallelogram/]
// - Backend calls: [[Subroutine]]
// Keywords accepted at any step are drawn as dotted edges.
func GenerateMermaid(overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	idle := nodeID(domain.StepIdle)
	class := nodeID(domain.StepAwaitingClass)
	message := nodeID(domain.StepAwaitingMessage)

	fmt.Fprintf(&sb, "    %s((\"%s\"))\n", idle, domain.StepIdle)
	fmt.Fprintf(&sb, "    %s[/\"%s\"/]\n", class, domain.StepAwaitingClass)
	fmt.Fprintf(&sb, "    %s[/\"%s\"/]\n", message, domain.StepAwaitingMessage)
	sb.WriteString("    setup_call[[\"setup\"]]\n")
	sb.WriteString("    generate_call[[\"generate\"]]\n")

	classes := make([]string, len(domain.CommitClasses))
	for i, c := range domain.CommitClasses {
		classes[i] = string(c)
	}

	edges := []edge{
		{from: idle, to: class, label: domain.KeywordGenerate},
		{from: idle, to: "setup_call", label: domain.KeywordSetup},
		{from: "setup_call", to: class, label: "ok"},
		{from: "setup_call", to: idle, label: "failed"},
		{from: class, to: message, label: strings.Join(classes, " | ")},
		{from: message, to: "generate_call", label: "message"},
		{from: "generate_call", to: idle},
		{from: class, to: idle, label: domain.KeywordClear, dotted: true},
		{from: message, to: idle, label: domain.KeywordClear, dotted: true},
	}
	for _, e := range edges {
		sb.WriteString(e.render())
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s current;\n", nodeID(overlay.Current))
		if overlay.Class != "" {
			fmt.Fprintf(&sb, "    %%%% class: %s (%s)\n", overlay.Class, overlay.Class.ClassName())
		}
	}

	return sb.String()
}

func (e edge) render() string {
	switch {
	case e.label == "" && e.dotted:
		return fmt.Sprintf("    %s -.-> %s\n", e.from, e.to)
	case e.label == "":
		return fmt.Sprintf("    %s --> %s\n", e.from, e.to)
	case e.dotted:
		return fmt.Sprintf("    %s -. \"%s\" .-> %s\n", e.from, sanitizeLabel(e.label), e.to)
	}
	return fmt.Sprintf("    %s -- \"%s\" --> %s\n", e.from, sanitizeLabel(e.label), e.to)
}

func nodeID(step domain.Step) string {
	return sanitizeMermaidID(step.String())
}

func sanitizeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
