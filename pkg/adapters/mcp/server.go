// Package mcp exposes the pivot navigator to agents as an MCP server.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/lightpivot/internal/logging"
	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/ports"
)

const (
	modelURI = "lightpivot://model"
	stateURI = "lightpivot://state"
)

// StepResult is the structured output of navigation tools.
type StepResult struct {
	Outcome string          `json:"outcome" jsonschema_description:"How the step ended: committed, rolled_back, invalid, superseded or rejected"`
	State   domain.Snapshot `json:"state" jsonschema_description:"Navigation state after the step"`
}

type drillDownArgs struct {
	Filter string `json:"filter"`
}

type drillThroughArgs struct {
	Filters []string `json:"filters"`
}

type queryArgs struct {
	Query string `json:"query"`
}

type rowCountArgs struct {
	RowCount int `json:"row_count"`
}

type noArgs struct{}

// Server wraps a Navigator and exposes it as an MCP server.
type Server struct {
	nav       ports.Navigator
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an MCP server for nav.
func NewServer(nav ports.Navigator, version string, opts ...Option) *Server {
	s := &Server{
		nav:       nav,
		mcpServer: server.NewMCPServer("lightpivot-mcp", version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
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
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("drill_down",
		mcp.WithDescription("Drill into a member: open a narrower child level of the pivot table. The level is kept only if the server returns usable data."),
		mcp.WithString("filter", mcp.Required(), mcp.Description("MDX member to drill into, e.g. [Date].[H1].[Year].&[2020]")),
		mcp.WithOutputSchema[StepResult](),
	), mcp.NewStructuredToolHandler(s.handleDrillDown))

	s.mcpServer.AddTool(mcp.NewTool("drill_through",
		mcp.WithDescription("Open the record listing behind a cell."),
		mcp.WithArray("filters", mcp.Required(), mcp.Description("MDX filters identifying the cell"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithOutputSchema[StepResult](),
	), mcp.NewStructuredToolHandler(s.handleDrillThrough))

	s.mcpServer.AddTool(mcp.NewTool("back",
		mcp.WithDescription("Close the current level and return to the previous one."),
		mcp.WithOutputSchema[StepResult](),
	), mcp.NewStructuredToolHandler(s.handleBack))

	s.mcpServer.AddTool(mcp.NewTool("refresh",
		mcp.WithDescription("Refetch the current level with the default filters."),
		mcp.WithOutputSchema[StepResult](),
	), mcp.NewStructuredToolHandler(s.handleRefresh))

	s.mcpServer.AddTool(mcp.NewTool("change_base_query",
		mcp.WithDescription("Return to the root level, replace its MDX query and refresh."),
		mcp.WithString("query", mcp.Required(), mcp.Description("New MDX query")),
		mcp.WithOutputSchema[StepResult](),
	), mcp.NewStructuredToolHandler(s.handleChangeBaseQuery))

	s.mcpServer.AddTool(mcp.NewTool("set_row_count",
		mcp.WithDescription("Cap the number of rows returned by every level. Zero removes the cap."),
		mcp.WithNumber("row_count", mcp.Required(), mcp.Description("Maximum number of rows")),
		mcp.WithOutputSchema[StepResult](),
	), mcp.NewStructuredToolHandler(s.handleSetRowCount))

	s.mcpServer.AddTool(mcp.NewTool("effective_query",
		mcp.WithDescription("Get the MDX query of the current level with its filters and row cap applied."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(s.nav.EffectiveQuery()), nil
	})
}

func (s *Server) step(outcome domain.Outcome) StepResult {
	return StepResult{Outcome: outcome.String(), State: s.nav.Snapshot()}
}

func (s *Server) handleDrillDown(ctx context.Context, request mcp.CallToolRequest, args drillDownArgs) (StepResult, error) {
	if args.Filter == "" {
		return StepResult{}, errors.New("filter is required")
	}
	return s.step(s.nav.TryDrillDown(ctx, args.Filter)), nil
}

func (s *Server) handleDrillThrough(ctx context.Context, request mcp.CallToolRequest, args drillThroughArgs) (StepResult, error) {
	return s.step(s.nav.TryDrillThrough(ctx, args.Filters)), nil
}

func (s *Server) handleBack(ctx context.Context, request mcp.CallToolRequest, _ noArgs) (StepResult, error) {
	return s.step(s.nav.Back()), nil
}

func (s *Server) handleRefresh(ctx context.Context, request mcp.CallToolRequest, _ noArgs) (StepResult, error) {
	return s.step(s.nav.Refresh(ctx)), nil
}

func (s *Server) handleChangeBaseQuery(ctx context.Context, request mcp.CallToolRequest, args queryArgs) (StepResult, error) {
	if args.Query == "" {
		return StepResult{}, errors.New("query is required")
	}
	return s.step(s.nav.ChangeBaseQuery(ctx, args.Query)), nil
}

func (s *Server) handleSetRowCount(ctx context.Context, request mcp.CallToolRequest, args rowCountArgs) (StepResult, error) {
	s.nav.SetRowCount(args.RowCount)
	return s.step(domain.OutcomeCommitted), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(modelURI, "Displayed result",
		mcp.WithResourceDescription("The result currently displayed by the pivot table"),
		mcp.WithMIMEType("application/json"),
	), s.readModel)

	s.mcpServer.AddResource(mcp.NewResource(stateURI, "Navigation state",
		mcp.WithMIMEType("application/json"),
	), s.readState)
}

func (s *Server) readModel(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	model := s.nav.Model()
	if model == nil {
		return nil, errors.New("no data loaded")
	}
	return jsonContents(modelURI, model)
}

func (s *Server) readState(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(stateURI, s.nav.Snapshot())
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
