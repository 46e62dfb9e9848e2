package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/commitquest"
	"github.com/aretw0/commitquest/internal/interpreter"
	"github.com/aretw0/commitquest/internal/logging"
	"github.com/aretw0/commitquest/pkg/domain"
	"github.com/aretw0/commitquest/pkg/runner"
	"github.com/aretw0/commitquest/pkg/session"
)

// HelpURI is the resource holding the command reference.
const HelpURI = "quest://help"

// SubmitArgs are the arguments of the submit tool.
type SubmitArgs struct {
	SessionID string `json:"session_id"`
	Input     string `json:"input"`
}

// TranscriptArgs are the arguments of the transcript tool.
type TranscriptArgs struct {
	SessionID string `json:"session_id"`
}

// QuestResponse is the structured result shared by both tools.
type QuestResponse struct {
	SessionID string         `json:"session_id" jsonschema_description:"The session the response belongs to"`
	Step      string         `json:"step" jsonschema_description:"Wizard step: idle, awaiting_class or awaiting_message"`
	Appended  []domain.Entry `json:"appended,omitempty" jsonschema_description:"Entries added by this submission"`
	Reset     bool           `json:"reset,omitempty" jsonschema_description:"True when the transcript was cleared"`
	State     *domain.State  `json:"state" jsonschema_description:"The full session state"`
}

// Server exposes quest sessions as MCP tools.
type Server struct {
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		sessions:  sessions,
		logger:    logger,
		mcpServer: server.NewMCPServer("commitquest-mcp", strings.TrimSpace(commitquest.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx ends.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	submitTool := mcp.NewTool("submit",
		mcp.WithDescription("Submit one line to a Commit Message Quest session. "+
			"At idle use 'generate' or 'setup'; then answer with a class (feat, fix, chore) and a message. "+
			"'help' and 'clear' work at any step. Unknown sessions are started first."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to submit to")),
		mcp.WithString("input", mcp.Required(), mcp.Description("The line the user typed")),
		mcp.WithOutputSchema[QuestResponse](),
	)
	s.mcpServer.AddTool(submitTool, mcp.NewStructuredToolHandler(s.handleSubmit))

	transcriptTool := mcp.NewTool("transcript",
		mcp.WithDescription("Read the transcript and wizard step of a session, starting it if needed."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to read")),
		mcp.WithOutputSchema[QuestResponse](),
	)
	s.mcpServer.AddTool(transcriptTool, mcp.NewStructuredToolHandler(s.handleTranscript))
}

func (s *Server) handleSubmit(ctx context.Context, request mcp.CallToolRequest, args SubmitArgs) (QuestResponse, error) {
	if args.SessionID == "" {
		return QuestResponse{}, errors.New("session_id is required")
	}

	clean, err := runner.SanitizeInput(args.Input)
	if err != nil {
		s.logger.Warn("MCP submit: input rejected", "session_id", args.SessionID, "err", err, "size", len(args.Input))
		return QuestResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	state, diff, err := s.sessions.Submit(ctx, args.SessionID, clean)
	if err != nil {
		return QuestResponse{}, fmt.Errorf("submit failed: %w", err)
	}

	resp := newResponse(state)
	if diff != nil {
		resp.Appended = diff.Appended
		resp.Reset = diff.Reset
	}
	return resp, nil
}

func (s *Server) handleTranscript(ctx context.Context, request mcp.CallToolRequest, args TranscriptArgs) (QuestResponse, error) {
	if args.SessionID == "" {
		return QuestResponse{}, errors.New("session_id is required")
	}
	state, err := s.sessions.LoadOrStart(ctx, args.SessionID)
	if err != nil {
		return QuestResponse{}, fmt.Errorf("load failed: %w", err)
	}
	return newResponse(state), nil
}

func newResponse(state *domain.State) QuestResponse {
	return QuestResponse{
		SessionID: state.SessionID,
		Step:      state.Step().String(),
		State:     state,
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(HelpURI, "Commit Message Quest commands",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      HelpURI,
				MIMEType: "text/plain",
				Text:     interpreter.HelpText,
			},
		}, nil
	})
}
