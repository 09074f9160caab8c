package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/presence"
	"github.com/aretw0/presence/internal/logging"
	"github.com/aretw0/presence/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const treeURI = "presence://tree"

// Controller is the part of presence.Presence exposed to MCP clients.
type Controller interface {
	Status() []presence.Status
	Snapshot() *domain.NodeSnapshot
	Enter(ctx context.Context, key string) error
	Exit(ctx context.Context, key string) error
}

// CoordinatorInfo is one coordinator of the flattened hierarchy.
// Ancestor links it to its parent entry.
type CoordinatorInfo struct {
	Key       string `json:"key" jsonschema_description:"Coordinator key"`
	Container string `json:"container" jsonschema_description:"Id of the container node"`
	Phase     string `json:"phase" jsonschema_description:"idle, entering, entered, exiting or exited"`
	Observe   bool   `json:"observe" jsonschema_description:"Whether child list mutations are observed"`
	Ancestor  string `json:"ancestor,omitempty" jsonschema_description:"Key of the nearest ancestor coordinator"`
}

// CycleResponse reports an imperative enter or exit.
type CycleResponse struct {
	PresenceKey  string            `json:"presence_key" jsonschema_description:"The coordinator that ran the cycle"`
	Phase        domain.Phase      `json:"phase" jsonschema_description:"enter or exit"`
	Coordinators []CoordinatorInfo `json:"coordinators" jsonschema_description:"Coordinator status after the cycle, ancestors first"`
}

// StatusResponse lists the coordinator hierarchy.
type StatusResponse struct {
	Coordinators []CoordinatorInfo `json:"coordinators" jsonschema_description:"Every coordinator, ancestors first"`
}

// flatten walks the status trees depth first.
func flatten(roots []presence.Status) []CoordinatorInfo {
	out := []CoordinatorInfo{}
	var walk func(st presence.Status)
	walk = func(st presence.Status) {
		out = append(out, CoordinatorInfo{
			Key:       st.Key,
			Container: st.Container,
			Phase:     st.Phase,
			Observe:   st.Observe,
			Ancestor:  st.Ancestor,
		})
		for _, d := range st.Descendants {
			walk(d)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}

// Server exposes a coordinator tree as an MCP server.
type Server struct {
	ctrl      Controller
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(ctrl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		ctrl:      ctrl,
		logger:    logger,
		mcpServer: server.NewMCPServer("presence-mcp", strings.TrimSpace(presence.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("inspect_tree",
		mcp.WithDescription("Get the document tree with node states, markers and stagger indexes."),
	), s.handleInspectTree)

	s.mcpServer.AddTool(mcp.NewTool("list_coordinators",
		mcp.WithDescription("List the coordinator hierarchy with phases and observation flags."),
		mcp.WithOutputSchema[StatusResponse](),
	), mcp.NewStructuredToolHandler(s.handleListCoordinators))

	s.mcpServer.AddTool(mcp.NewTool("enter",
		mcp.WithDescription("Run the imperative enter of a coordinator and wait for it to finish."),
		mcp.WithString("presence_key", mcp.Required(), mcp.Description("Coordinator key")),
		mcp.WithOutputSchema[CycleResponse](),
	), mcp.NewStructuredToolHandler(s.handleEnter))

	s.mcpServer.AddTool(mcp.NewTool("exit",
		mcp.WithDescription("Run the imperative exit of a coordinator, hiding its children, and wait for exitComplete."),
		mcp.WithString("presence_key", mcp.Required(), mcp.Description("Coordinator key")),
		mcp.WithOutputSchema[CycleResponse](),
	), mcp.NewStructuredToolHandler(s.handleExit))
}

func (s *Server) handleInspectTree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(s.ctrl.Snapshot())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleListCoordinators(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StatusResponse, error) {
	return StatusResponse{Coordinators: flatten(s.ctrl.Status())}, nil
}

func (s *Server) handleEnter(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CycleResponse, error) {
	return s.cycle(ctx, args, domain.PhaseEnter, s.ctrl.Enter)
}

func (s *Server) handleExit(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CycleResponse, error) {
	return s.cycle(ctx, args, domain.PhaseExit, s.ctrl.Exit)
}

func (s *Server) cycle(ctx context.Context, args map[string]interface{}, phase domain.Phase, run func(context.Context, string) error) (CycleResponse, error) {
	key, _ := args["presence_key"].(string)
	if key == "" {
		return CycleResponse{}, fmt.Errorf("presence_key is required")
	}
	if err := run(ctx, key); err != nil {
		s.logger.Warn("MCP: imperative transition failed", "phase", phase, "presence_key", key, "error", err)
		return CycleResponse{}, fmt.Errorf("%s failed: %w", phase, err)
	}
	return CycleResponse{
		PresenceKey:  key,
		Phase:        phase,
		Coordinators: flatten(s.ctrl.Status()),
	}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(treeURI, "Current Document Tree",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.ctrl.Snapshot())
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot tree: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      treeURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
