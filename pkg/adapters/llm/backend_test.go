package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/commitquest/pkg/adapters/llm"
	"github.com/aretw0/commitquest/pkg/domain"
)

// fakeOpenAI answers chat completions with content and records the last prompt.
func fakeOpenAI(t *testing.T, status int, content string, prompt *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if prompt != nil && len(req.Messages) > 0 {
			*prompt = req.Messages[len(req.Messages)-1].Content
		}

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newRepo commits main.go and app.js in a temporary repository and then
// leaves one unstaged line in each.
func newRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", append([]string{"-c", "user.name=quest", "-c", "user.email=quest@example.com"}, args...)...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	write := func(name, content string) {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	run("init", "-q")
	write("main.go", "package main\n")
	write("app.js", "let a = 1;\n")
	run("add", ".")
	run("commit", "-q", "-m", "init")

	write("main.go", "package main\n\nfunc answer() int { return 42 }\n")
	write("app.js", "let a = 1;\nlet b = 2;\n")
	return dir
}

func TestReadChanges(t *testing.T) {
	dir := newRepo(t)

	changes, err := llm.ReadChanges(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []llm.Change{
		{File: "app.js", Summary: "frontend changes let | b | = | 2;"},
		{File: "main.go", Summary: "backend updates func | answer() | int | { | return | 42 | }"},
	}, changes)
}

func TestReadChanges_NotARepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	_, err := llm.ReadChanges(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, llm.ErrNotGitRepo)
}

func TestSummarizeDiff(t *testing.T) {
	diff := "--- a/x.py\n+++ b/x.py\n@@ -1 +1,2 @@\n-old line\n+new line\n+new words\n"
	assert.Equal(t, "backend updates new | line | words", llm.SummarizeDiff("x.py", diff))
	assert.Equal(t, "general updates", llm.SummarizeDiff("README.md", "-removed only\n"))
	assert.Equal(t, "frontend changes general updates", llm.SummarizeDiff("style.css", ""))
}

func TestBackend_GenerateFromDiff(t *testing.T) {
	dir := newRepo(t)
	var prompt string
	srv := fakeOpenAI(t, http.StatusOK, "\"feat: add answer helper\"\nextra", &prompt)

	b := llm.New(llm.Config{
		APIKey:  "test",
		BaseURL: srv.URL + "/v1",
		Model:   "gpt-4o-mini",
		Profile: llm.Profile{Language: "Python", Framework: "Flask", Specialization: "Machine Learning"},
	})
	res, err := b.GenerateCommitMessage(context.Background(), domain.GenerationRequest{
		CommitType: domain.CommitFeat,
		ProjectDir: dir,
	})
	require.NoError(t, err)

	changes, err := llm.ReadChanges(context.Background(), dir)
	require.NoError(t, err)
	experience := 20
	for _, c := range changes {
		experience += len(c.Summary)
	}

	assert.Equal(t, "feat: add answer helper", res.CommitMessage)
	assert.Equal(t, experience, res.Experience)
	assert.Equal(t, 2, res.EnemiesSlain)
	assert.Contains(t, prompt, "Generate a feat commit message for a Python Flask project")
	assert.Contains(t, prompt, "main.go: backend updates")
	assert.Contains(t, prompt, "answer()")
}

func TestBackend_TypedMessageSkipsModel(t *testing.T) {
	// Nothing listens on the base URL; a model call would fail.
	b := llm.New(llm.Config{Model: "m", BaseURL: "http://127.0.0.1:1/v1"})

	res, err := b.GenerateCommitMessage(context.Background(), domain.GenerationRequest{
		CommitType:    domain.CommitFeat,
		CustomMessage: "  add login ",
		ProjectDir:    t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, "feat: add login", res.CommitMessage)
	assert.Equal(t, 0, res.Experience)
	assert.Equal(t, 0, res.EnemiesSlain)
}

func TestBackend_TypedMessageCountsChanges(t *testing.T) {
	dir := newRepo(t)
	b := llm.New(llm.Config{Model: "m", BaseURL: "http://127.0.0.1:1/v1", Profile: llm.Profile{Language: "Go", Specialization: "Backend"}})

	res, err := b.GenerateCommitMessage(context.Background(), domain.GenerationRequest{CommitType: domain.CommitFix, CustomMessage: "nil map", ProjectDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "fix: nil map", res.CommitMessage)
	assert.Equal(t, 2, res.EnemiesSlain)
	assert.Greater(t, res.Experience, 25)
}

func TestBackend_AddsMissingPrefix(t *testing.T) {
	srv := fakeOpenAI(t, http.StatusOK, "bump dependencies", nil)
	b := llm.New(llm.Config{APIKey: "test", BaseURL: srv.URL + "/v1", Model: "m"})

	res, err := b.GenerateCommitMessage(context.Background(), domain.GenerationRequest{CommitType: domain.CommitChore, ProjectDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "chore: bump dependencies", res.CommitMessage)
}

func TestBackend_APIError(t *testing.T) {
	srv := fakeOpenAI(t, http.StatusTooManyRequests, "", nil)
	b := llm.New(llm.Config{APIKey: "test", BaseURL: srv.URL + "/v1", Model: "m"})

	_, err := b.GenerateCommitMessage(context.Background(), domain.GenerationRequest{CommitType: domain.CommitFeat, ProjectDir: t.TempDir()})
	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusTooManyRequests, te.Status)
	assert.Contains(t, te.Error(), "rate limited")
}

func TestBackend_SetupSavesProfile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "project")
	b := llm.New(llm.Config{Model: "m", Profile: llm.Profile{Language: "Go", Specialization: "Backend"}})

	res, err := b.Setup(context.Background(), domain.SetupRequest{ProjectDir: dir, CreateConfig: "true"})
	require.NoError(t, err)
	assert.Equal(t, "Configuration saved to "+filepath.Join(dir, llm.ProfileFile), res.Message)
	assert.Equal(t, "Go", res.Config["language"])
	assert.Equal(t, "Unknown", res.Config["framework"])
	assert.Equal(t, "Backend", res.Config["specialization"])

	saved, ok, err := llm.LoadProfile(dir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, llm.Profile{Language: "Go", Specialization: "Backend"}, saved)

	// A backend without a configured profile scores with the saved one.
	other := llm.New(llm.Config{Model: "m"})
	gen, err := other.GenerateCommitMessage(context.Background(), domain.GenerationRequest{CommitType: domain.CommitFix, CustomMessage: "x", ProjectDir: dir})
	require.NoError(t, err)
	assert.Equal(t, 25, gen.Experience)
}

func TestBackend_SetupKeepsExistingProfile(t *testing.T) {
	dir := t.TempDir()
	_, err := llm.SaveProfile(dir, llm.Profile{Language: "Rust"})
	require.NoError(t, err)

	b := llm.New(llm.Config{Model: "m", Profile: llm.Profile{Language: "Go"}})
	res, err := b.Setup(context.Background(), domain.SetupRequest{ProjectDir: dir})
	require.NoError(t, err)
	assert.Contains(t, res.Message, "Configuration loaded from")
	assert.Equal(t, "Rust", res.Config["language"])
	assert.Equal(t, "Generalist", res.Config["specialization"])

	res, err = b.Setup(context.Background(), domain.SetupRequest{ProjectDir: dir, CreateConfig: "true"})
	require.NoError(t, err)
	assert.Equal(t, "Go", res.Config["language"])
}

func TestSpecializationBoost(t *testing.T) {
	tests := []struct {
		profile llm.Profile
		ct      domain.CommitType
		points  int
	}{
		{llm.Profile{Language: "Go", Specialization: "Backend"}, domain.CommitFix, 25},
		{llm.Profile{Language: "Go", Specialization: "Backend"}, domain.CommitFeat, 0},
		{llm.Profile{Language: "JavaScript", Specialization: "Front-end"}, domain.CommitChore, 15},
		{llm.Profile{Specialization: "Full-stack"}, domain.CommitFix, 10},
		{llm.Profile{Language: "Elixir", Specialization: "Full-stack"}, domain.CommitFix, 0},
		{llm.Profile{Language: "Python", Specialization: "Full-stack"}, domain.CommitFeat, 0},
		{llm.Profile{}, domain.CommitFeat, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.points, llm.SpecializationBoost(tt.profile, tt.ct).Points, "%+v %s", tt.profile, tt.ct)
	}
}
