// Package process runs a local generator program (for example the Python
// commit_cli) once per call and reads its answer from stdout.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/commitquest/pkg/domain"
)

// EnvPrefix prefixes the request fields exported to the child's environment.
const EnvPrefix = "QUEST_ARG_"

// gracePeriod is how long a cancelled child may take to exit after the interrupt.
const gracePeriod = 2 * time.Second

// Runner implements ports.Backend by executing a command.
//
// Generation runs: <command> <args...> --generate --type=<t> --message=<m>
// Setup runs:      <command> <args...> --setup --project-dir=<dir>
//
// Request fields are also exported as QUEST_ARG_* variables. A JSON object on
// stdout is decoded into the result; any other output is taken as the commit
// message (or setup message). A non-zero exit is a transport failure.
type Runner struct {
	command string
	args    []string
	env     map[string]string
	baseDir string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithArgs sets arguments placed before the quest flags (e.g. the script path).
func WithArgs(args ...string) RunnerOption {
	return func(r *Runner) {
		r.args = args
	}
}

// WithEnv adds extra environment variables for the child.
func WithEnv(env map[string]string) RunnerOption {
	return func(r *Runner) {
		r.env = env
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a process backend for command.
func NewRunner(command string, opts ...RunnerOption) *Runner {
	r := &Runner{command: command}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GenerateCommitMessage runs the generator in --generate mode.
func (r *Runner) GenerateCommitMessage(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	flags := []string{
		"--generate",
		"--type=" + string(req.CommitType),
		"--message=" + req.CustomMessage,
	}
	env := map[string]string{
		"TYPE":        string(req.CommitType),
		"MESSAGE":     req.CustomMessage,
		"PROJECT_DIR": req.ProjectDir,
		"AUTO_COMMIT": strconv.FormatBool(req.AutoCommit),
	}

	out, err := r.run(ctx, "generate", req.ProjectDir, flags, env)
	if err != nil {
		return domain.GenerationResult{}, err
	}

	var res domain.GenerationResult
	if obj, ok := asObject(out); ok {
		if err := decode(obj, &res); err != nil {
			return domain.GenerationResult{}, &domain.TransportError{Op: "generate", Cause: err}
		}
	} else {
		res.CommitMessage = out
	}
	if res.CommitMessage == "" {
		return domain.GenerationResult{}, &domain.TransportError{Op: "generate", Detail: "generator produced no commit message"}
	}
	return res, nil
}

// Setup runs the generator in --setup mode.
func (r *Runner) Setup(ctx context.Context, req domain.SetupRequest) (domain.SetupResult, error) {
	flags := []string{"--setup", "--project-dir=" + req.ProjectDir}
	env := map[string]string{
		"PROJECT_DIR":   req.ProjectDir,
		"CREATE_CONFIG": req.CreateConfig,
	}

	out, err := r.run(ctx, "setup", req.ProjectDir, flags, env)
	if err != nil {
		return domain.SetupResult{}, err
	}

	var res domain.SetupResult
	if obj, ok := asObject(out); ok {
		if err := decode(obj, &res); err != nil {
			return domain.SetupResult{}, &domain.TransportError{Op: "setup", Cause: err}
		}
		if res.Message == "" && res.Config == nil {
			// a bare configuration object
			res.Config = obj
		}
	} else {
		res.Message = out
	}
	if res.Message == "" {
		res.Message = "configuration saved"
	}
	return res, nil
}

func (r *Runner) run(ctx context.Context, op, projectDir string, flags []string, fields map[string]string) (string, error) {
	if r.command == "" {
		return "", domain.NewConfigurationError("backend.command", "no generator command configured")
	}

	args := append(append([]string{}, r.args...), flags...)
	cmd := exec.CommandContext(ctx, r.command, args...)
	cmd.Dir = r.baseDir
	if cmd.Dir == "" {
		cmd.Dir = projectDir
	}
	if runtime.GOOS != "windows" {
		cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	}
	cmd.WaitDelay = gracePeriod

	env := cmd.Environ()
	for k, v := range r.env {
		env = append(env, k+"="+v)
	}
	for k, v := range fields {
		env = append(env, EnvPrefix+k+"="+v)
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", &domain.TransportError{Op: op, Cause: ctx.Err()}
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail := strings.TrimSpace(stderr.String())
			if detail == "" {
				detail = err.Error()
			}
			return "", &domain.TransportError{Op: op, Status: exitErr.ExitCode(), Detail: detail, Cause: err}
		}
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return "", &domain.ConfigurationError{Field: "backend.command", Cause: err}
		}
		return "", &domain.TransportError{Op: op, Cause: fmt.Errorf("execution failed: %w", err)}
	}

	return strings.TrimSpace(stdout.String()), nil
}

func asObject(out string) (map[string]any, bool) {
	if !strings.HasPrefix(out, "{") || !strings.HasSuffix(out, "}") {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(out), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// decode maps a loosely typed object onto a result struct.
// Weak typing accepts "10" for an int, which scripting backends often emit.
func decode(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("unexpected generator output: %w", err)
	}
	return nil
}
