package llm

import (
	"bufio"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotGitRepo is returned when the project directory is not inside a git work tree.
var ErrNotGitRepo = errors.New("not a git repository")

// gitTimeout bounds each git invocation when ctx carries no deadline.
const gitTimeout = 10 * time.Second

// maxKeywords caps the words kept from the added lines of one file.
const maxKeywords = 20

// GeneralUpdates is the summary used when there is nothing to describe.
const GeneralUpdates = "general updates"

var (
	frontendExts = map[string]bool{".js": true, ".jsx": true, ".ts": true, ".tsx": true, ".css": true, ".html": true}
	backendExts  = map[string]bool{".py": true, ".go": true, ".rb": true, ".php": true}
)

// Change is one file with unstaged modifications.
type Change struct {
	File    string
	Summary string
}

// ReadChanges summarizes the unstaged changes of tracked files under dir.
func ReadChanges(ctx context.Context, dir string) ([]Change, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gitTimeout)
		defer cancel()
	}
	if dir == "" {
		dir = "."
	}

	if _, err := git(ctx, dir, "rev-parse", "--is-inside-work-tree"); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrNotGitRepo
	}

	names, err := git(ctx, dir, "diff", "--no-color", "--name-only", "--relative")
	if err != nil {
		return nil, err
	}

	var changes []Change
	for _, file := range strings.Split(strings.TrimSpace(names), "\n") {
		if file == "" {
			continue
		}
		diff, err := git(ctx, dir, "diff", "--no-color", "--", file)
		if err != nil {
			return nil, err
		}
		changes = append(changes, Change{File: file, Summary: SummarizeDiff(file, diff)})
	}
	return changes, nil
}

// SummarizeDiff describes a file diff by its area and the words it adds.
func SummarizeDiff(file, diff string) string {
	var summary string
	ext := strings.ToLower(filepath.Ext(file))
	switch {
	case frontendExts[ext]:
		summary = "frontend changes "
	case backendExts[ext]:
		summary = "backend updates "
	}

	seen := make(map[string]bool)
	var keywords []string
	scanner := bufio.NewScanner(strings.NewReader(diff))
	for scanner.Scan() && len(keywords) < maxKeywords {
		line := scanner.Text()
		if !strings.HasPrefix(line, "+") || strings.HasPrefix(line, "+++") {
			continue
		}
		for _, word := range strings.Fields(line[1:]) {
			if seen[word] || len(keywords) == maxKeywords {
				continue
			}
			seen[word] = true
			keywords = append(keywords, word)
		}
	}

	if len(keywords) == 0 {
		return summary + GeneralUpdates
	}
	return summary + strings.Join(keywords, " | ")
}

// describe joins the summaries for the prompt.
func describe(changes []Change) string {
	if len(changes) == 0 {
		return GeneralUpdates
	}
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, c.File+": "+c.Summary)
	}
	return strings.Join(parts, "; ")
}

func git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		return "", err
	}
	return string(out), nil
}
