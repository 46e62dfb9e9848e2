// Package llm generates commit messages locally through an OpenAI-compatible
// chat completion API, replacing the external Python service.
package llm

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/aretw0/commitquest/pkg/domain"
)

// Profile describes the developer and project, used for prompts and boosts.
type Profile struct {
	Language       string
	Framework      string
	Specialization string
}

// Config configures the backend.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Profile is used until setup saves one into the project directory.
	Profile Profile
}

// Backend implements ports.Backend with go-openai.
type Backend struct {
	client *openai.Client
	config Config
}

// New creates an LLM backend.
func New(config Config) *Backend {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	return &Backend{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// GenerateCommitMessage reads the unstaged changes of req.ProjectDir and
// scores them. A typed message becomes "<type>: <message>"; only an empty
// one is sent to the model together with the diff summary.
func (b *Backend) GenerateCommitMessage(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	profile, err := b.profile(req.ProjectDir)
	if err != nil {
		return domain.GenerationResult{}, &domain.TransportError{Op: "generate", Detail: "could not read project profile", Cause: err}
	}

	changes, err := ReadChanges(ctx, req.ProjectDir)
	switch {
	case errors.Is(err, ErrNotGitRepo):
		changes = nil
	case err != nil && ctx.Err() != nil:
		return domain.GenerationResult{}, ctx.Err()
	case err != nil:
		return domain.GenerationResult{}, &domain.TransportError{Op: "generate", Detail: "could not read git changes", Cause: err}
	}

	boost := SpecializationBoost(profile, req.CommitType)
	res := domain.GenerationResult{
		Experience:   boost.Points,
		EnemiesSlain: len(changes),
	}
	for _, c := range changes {
		res.Experience += len(c.Summary)
	}

	msg := strings.TrimSpace(req.CustomMessage)
	if msg != "" {
		res.CommitMessage = fmt.Sprintf("%s: %s", req.CommitType, msg)
		return res, nil
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt(profile, req.CommitType, describe(changes))},
		},
		MaxTokens:   60,
		Temperature: 0.2,
	})
	if err != nil {
		return domain.GenerationResult{}, transportError("generate", err)
	}
	if len(resp.Choices) == 0 {
		return domain.GenerationResult{}, &domain.TransportError{Op: "generate", Detail: "no response from model"}
	}

	res.CommitMessage = normalize(req.CommitType, resp.Choices[0].Message.Content)
	if res.CommitMessage == "" {
		return domain.GenerationResult{}, &domain.TransportError{Op: "generate", Detail: "model returned an empty message"}
	}
	return res, nil
}

// Setup saves the configured profile into the project directory.
// An existing profile is kept unless req.CreateConfig is "true".
func (b *Backend) Setup(ctx context.Context, req domain.SetupRequest) (domain.SetupResult, error) {
	dir := projectDir(req.ProjectDir)

	p, ok, err := LoadProfile(dir)
	if err != nil {
		return domain.SetupResult{}, &domain.TransportError{Op: "setup", Detail: "could not read project profile", Cause: err}
	}
	message := fmt.Sprintf("Configuration loaded from %s", filepath.Join(dir, ProfileFile))
	if !ok || req.CreateConfig == "true" {
		p = b.config.Profile
		path, err := SaveProfile(dir, p)
		if err != nil {
			return domain.SetupResult{}, &domain.TransportError{Op: "setup", Detail: "could not save project profile", Cause: err}
		}
		message = fmt.Sprintf("Configuration saved to %s", path)
	}

	return domain.SetupResult{
		Message: message,
		Config: map[string]any{
			"language":       orUnknown(p.Language),
			"framework":      orUnknown(p.Framework),
			"specialization": orDefault(p.Specialization, "Generalist"),
			"model":          b.config.Model,
		},
	}, nil
}

// profile prefers the one saved in dir by setup.
func (b *Backend) profile(dir string) (Profile, error) {
	p, ok, err := LoadProfile(projectDir(dir))
	if err != nil || !ok {
		return b.config.Profile, err
	}
	return p, nil
}

func projectDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

const systemPrompt = "You write git commit messages in the Conventional Commits format. " +
	"Answer with a single line: <type>: <summary>. No quotes, no explanation."

func prompt(p Profile, ct domain.CommitType, summary string) string {
	return fmt.Sprintf("Generate a %s commit message for a %s %s project: %s",
		ct, orUnknown(p.Language), orUnknown(p.Framework), summary)
}

// normalize keeps the first line and makes sure it carries the type prefix.
func normalize(ct domain.CommitType, content string) string {
	line := strings.TrimSpace(content)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	line = strings.Trim(line, "`\"'")
	if line == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(line), string(ct)) {
		line = fmt.Sprintf("%s: %s", ct, line)
	}
	return line
}

func transportError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.TransportError{Op: op, Status: apiErr.HTTPStatusCode, Detail: apiErr.Message, Cause: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &domain.TransportError{Op: op, Status: reqErr.HTTPStatusCode, Cause: err}
	}
	return &domain.TransportError{Op: op, Cause: err}
}

func orUnknown(s string) string {
	return orDefault(s, "Unknown")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
