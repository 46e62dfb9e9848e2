package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/aretw0/commitquest/internal/config"
	"github.com/aretw0/commitquest/internal/presentation/graph"
)

// ListSessions prints the IDs held by the configured store.
func ListSessions(ctx context.Context, cfg *config.Config, w io.Writer) error {
	p, err := NewPersistence(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	ids, err := p.Store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No active sessions found.")
		if cfg.Store.Kind == config.StoreMemory {
			fmt.Fprintln(w, "(the memory store does not outlive the process; try --store file)")
		}
		return nil
	}

	sort.Strings(ids)
	fmt.Fprintln(w, "Active Sessions:")
	for _, id := range ids {
		fmt.Fprintln(w, "- "+id)
	}
	return nil
}

// ShowSession prints the stored state of sessionID as indented JSON.
func ShowSession(ctx context.Context, cfg *config.Config, sessionID string, w io.Writer) error {
	p, err := NewPersistence(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	state, err := p.Store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session '%s': %w", sessionID, err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// DeleteSessions removes every session in ids, reporting each one.
func DeleteSessions(ctx context.Context, cfg *config.Config, ids []string, w io.Writer) error {
	p, err := NewPersistence(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	var errs []error
	for _, id := range ids {
		if err := p.Store.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove '%s': %w", id, err))
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}

// PrintGraph writes the wizard as a Mermaid diagram.
// With a sessionID, the session's current step is highlighted.
func PrintGraph(ctx context.Context, cfg *config.Config, sessionID string, w io.Writer) error {
	if sessionID == "" {
		fmt.Fprint(w, graph.GenerateMermaid(nil))
		return nil
	}

	p, err := NewPersistence(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	state, err := p.Store.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session '%s': %w", sessionID, err)
	}
	fmt.Fprint(w, graph.GenerateMermaid(graph.OverlayFor(state)))
	return nil
}
