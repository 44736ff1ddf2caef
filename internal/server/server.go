// Package server wraps the MCP SDK server. It records tool metadata at
// registration time so tools can be filtered at runtime, carries the logger
// and metrics shared by tool handlers, and instruments every tool call.
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// BoolPtr returns a pointer to a bool value. Useful for MCP ToolAnnotations
// fields like DestructiveHint and OpenWorldHint which are *bool.
func BoolPtr(v bool) *bool { return &v }

// ToolInfo describes a registered tool for filtering purposes.
type ToolInfo struct {
	Name     string
	ReadOnly bool
}

// Server wraps an mcp.Server to capture tool metadata at registration time.
// Use AddTool to register tools; it records each tool's name and read-only
// status automatically. After all tools are registered, call ApplyFilter to
// remove tools that don't match the desired filter.
type Server struct {
	*mcp.Server
	tools   []ToolInfo
	logger  *slog.Logger
	metrics *Metrics
}

// NewServer creates a new Server wrapper around an mcp.Server.
func NewServer(impl *mcp.Implementation, opts *mcp.ServerOptions) *Server {
	s := &Server{
		Server: mcp.NewServer(impl, opts),
		logger: slog.Default(),
	}
	s.AddReceivingMiddleware(s.instrument)
	return s
}

// SetLogger sets the logger used by the server and its tools.
func (s *Server) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// SetMetrics enables tool call metrics.
func (s *Server) SetMetrics(m *Metrics) {
	s.metrics = m
}

// Tools returns the metadata for all registered tools.
func (s *Server) Tools() []ToolInfo {
	return s.tools
}

// AddTool registers a typed tool on the server and records its metadata.
// This is a free generic function because Go does not allow generic methods
// on types, the same pattern the MCP SDK uses for mcp.AddTool.
func AddTool[In, Out any](s *Server, t *mcp.Tool, h mcp.ToolHandlerFor[In, Out]) {
	s.tools = append(s.tools, ToolInfo{
		Name:     t.Name,
		ReadOnly: t.Annotations != nil && t.Annotations.ReadOnlyHint,
	})
	mcp.AddTool(s.Server, t, h)
}

// ToolFilter configures which tools are exposed by an MCP server.
type ToolFilter struct {
	// ReadOnly limits the server to read-only tools.
	ReadOnly bool
	// Enable is a whitelist of tool names to expose. Mutually exclusive with Disable.
	Enable []string
	// Disable is a blacklist of tool names to hide. Mutually exclusive with Enable.
	Disable []string
}

// ApplyFilter removes tools from the server based on the filter configuration.
// Returns an error if the filter is invalid (enable and disable both set,
// or referencing unknown tool names).
func (s *Server) ApplyFilter(filter ToolFilter) error {
	if len(filter.Enable) > 0 && len(filter.Disable) > 0 {
		return fmt.Errorf("--enable and --disable are mutually exclusive")
	}

	// Tools still eligible after the read-only cut.
	eligible := make(map[string]bool, len(s.tools))
	known := make(map[string]bool, len(s.tools))
	var remove []string
	for _, t := range s.tools {
		known[t.Name] = true
		if filter.ReadOnly && !t.ReadOnly {
			remove = append(remove, t.Name)
			continue
		}
		eligible[t.Name] = true
	}

	check := func(names []string) error {
		for _, name := range names {
			if eligible[name] {
				continue
			}
			if known[name] {
				return fmt.Errorf("tool %q is not a read-only tool", name)
			}
			return fmt.Errorf("unknown tool %q", name)
		}
		return nil
	}

	switch {
	case len(filter.Enable) > 0:
		if err := check(filter.Enable); err != nil {
			return err
		}
		enabled := make(map[string]bool, len(filter.Enable))
		for _, name := range filter.Enable {
			enabled[name] = true
		}
		for _, t := range s.tools {
			if eligible[t.Name] && !enabled[t.Name] {
				remove = append(remove, t.Name)
			}
		}
	case len(filter.Disable) > 0:
		if err := check(filter.Disable); err != nil {
			return err
		}
		remove = append(remove, filter.Disable...)
	}

	if len(remove) > 0 {
		s.RemoveTools(remove...)
		s.logger.Debug("tools filtered out", slog.Any("tools", remove))
	}
	return nil
}

// --- hello_world ---

type helloWorldInput struct {
	Name string `json:"name" jsonschema:"Name to greet"`
}

// RegisterHelloWorldTool registers the hello_world smoke-test tool. It
// needs no credentials, so it answers even before login has been run.
func RegisterHelloWorldTool(s *Server) {
	AddTool(s, &mcp.Tool{
		Name:        "hello_world",
		Description: "Smoke test: greets the given name. Does not touch Gmail.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint: true,
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input helloWorldInput) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Hello, %s!", input.Name)},
			},
		}, nil, nil
	})
}
