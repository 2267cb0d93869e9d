package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/aoiforge/internal/domain/class"
)

// ToolMetrics counts tool calls.
type ToolMetrics interface {
	ToolCalled(tool string, failed bool)
}

// Config contains server configuration.
type Config struct {
	Consoles Consoles
	// Registry is published as the classes resource.
	Registry *class.Registry
	Metrics  ToolMetrics
	Logger   *slog.Logger
	Version  string
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "aoiforge",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)
	if cfg.Registry != nil {
		registerClassResource(server, cfg.Registry)
	}

	server.AddReceivingMiddleware(sessionMiddleware(), trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, NewHandler(cfg.Consoles), cfg.Metrics)

	return server
}

func registerTools(server *sdkmcp.Server, handler *Handler, metrics ToolMetrics) {
	for _, def := range buildToolCatalog() {
		def := def
		tool := &sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}
		if def.ReadOnly {
			tool.Annotations = &sdkmcp.ToolAnnotations{ReadOnlyHint: true}
		}
		server.AddTool(tool, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := handler.Handle(ctx, sessionFor(ctx, req), def.Name, args)
			if metrics != nil {
				metrics.ToolCalled(def.Name, err != nil)
			}
			if err != nil {
				return errorResult(err), nil
			}
			return textResult(result)
		})
	}
}

// sessionFor picks the console key: explicit session id first, then the
// transport session.
func sessionFor(ctx context.Context, req *sdkmcp.CallToolRequest) string {
	if sid := getSessionID(ctx); sid != "" {
		return sid
	}
	if req != nil && req.Session != nil {
		return req.Session.ID()
	}
	return ""
}

func textResult(v any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(err), nil
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}

func errorResult(err error) *sdkmcp.CallToolResult {
	apiErr := MapError(err)
	if apiErr == nil {
		apiErr = &APIError{Code: "INTERNAL", Message: err.Error()}
	}
	data, _ := json.Marshal(apiErr)
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}
