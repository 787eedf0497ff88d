// Package mcp exposes the tool registry as a Model Context Protocol server,
// so any MCP client can load skills and run commands the same way the
// built-in agent does.
package mcp

import (
	"context"
	"encoding/json"
	"io"

	"github.com/jingkaihe/skillrunner/pkg/logger"
	"github.com/jingkaihe/skillrunner/pkg/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "skillrunner"

// NewServer creates an MCP server with one MCP tool per registry tool.
func NewServer(registry *tools.Registry, version string) (*server.MCPServer, error) {
	srv := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(false),
	)

	for _, tool := range registry.Tools() {
		schema, err := json.Marshal(tool.GenerateSchema())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal schema for tool %s", tool.Name())
		}

		name := tool.Name()
		srv.AddTool(
			mcp.NewToolWithRawSchema(name, tool.Description(), schema),
			func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return callTool(ctx, registry, name, req)
			},
		)
	}

	return srv, nil
}

func callTool(ctx context.Context, registry *tools.Registry, name string, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parameters := "{}"
	if req.Params.Arguments != nil {
		b, err := json.Marshal(req.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
		}
		parameters = string(b)
	}

	logger.G(ctx).WithField("tool", name).WithField("parameters", parameters).Info("mcp tool call")

	result := registry.RunTool(ctx, name, parameters)
	if result.IsError() {
		return mcp.NewToolResultError(result.AssistantFacing()), nil
	}
	return mcp.NewToolResultText(result.AssistantFacing()), nil
}

// ServeStdio serves srv over in and out until ctx is done or in is closed.
func ServeStdio(ctx context.Context, srv *server.MCPServer, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(srv)
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return errors.Wrap(err, "mcp stdio server failed")
	}
	return nil
}
