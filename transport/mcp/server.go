package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/editorbridge/bridge/codec"
	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
)

const serverName = "Editor Bridge"

const instructions = `Editor Bridge - MCP Interface

Every tool maps to one editor command. Tool names are command names with
the dot replaced by an underscore: asset_list runs asset.list.

Start with editor_status to see the project, the open map and whether
Play-In-Editor is running, then editor_list_commands for the full catalog.

Actor commands accept world=auto|editor|pie. auto targets the PIE world
while it runs and the editor world otherwise.

Failed tools return "<Kind>: <message>" where Kind is one of
UnknownCommand, InvalidArgument, HandlerError or Timeout, followed by any
structured detail as JSON.`

// Caller runs one bridge command. *dispatch.Dispatcher and *HTTPCaller
// satisfy it.
type Caller interface {
	Call(ctx context.Context, command string, args map[string]any) (*codec.Response, error)
}

// Server exposes every catalog command as an MCP tool.
type Server struct {
	caller    Caller
	mcpServer *server.MCPServer
	tools     map[string]string
}

// NewServer registers one tool per catalog entry.
func NewServer(caller Caller, catalog []registry.Info, version string) *Server {
	s := &Server{
		caller: caller,
		mcpServer: server.NewMCPServer(
			serverName,
			version,
			server.WithToolCapabilities(true),
			server.WithInstructions(instructions),
		),
		tools: make(map[string]string, len(catalog)),
	}

	sorted := append([]registry.Info(nil), catalog...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, info := range sorted {
		tool := Tool(info)
		s.tools[tool.Name] = info.Name
		s.mcpServer.AddTool(tool, s.handler(info.Name))
	}
	return s
}

// MCPServer returns the underlying server for stdio serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// HandleMessage answers one JSON-RPC message. The /mcp endpoint uses it.
func (s *Server) HandleMessage(ctx context.Context, raw json.RawMessage) mcp.JSONRPCMessage {
	return s.mcpServer.HandleMessage(ctx, raw)
}

// ServeMCP answers a JSON-RPC body posted over HTTP. Notifications yield a
// nil response.
func (s *Server) ServeMCP(ctx context.Context, body []byte) (any, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("invalid JSON-RPC body")
	}
	msg := s.mcpServer.HandleMessage(ctx, body)
	if msg == nil {
		return nil, nil
	}
	return msg, nil
}

// Tools maps tool names to command names.
func (s *Server) Tools() map[string]string {
	out := make(map[string]string, len(s.tools))
	for k, v := range s.tools {
		out[k] = v
	}
	return out
}

// ToolName is the MCP tool name of a command.
func ToolName(command string) string {
	return strings.ReplaceAll(command, ".", "_")
}

// Tool builds the tool definition of a catalog entry.
func Tool(info registry.Info) mcp.Tool {
	props := make(map[string]any, len(info.Params))
	var required []string
	for _, p := range info.Params {
		props[p.Name] = schema(p)
		if p.Required {
			required = append(required, p.Name)
		}
	}

	desc := info.Description
	if info.Affinity == registry.HostThread {
		desc += " (runs on the editor thread)"
	}
	return mcp.Tool{
		Name:        ToolName(info.Name),
		Description: desc,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   required,
		},
	}
}

func schema(p registry.Param) map[string]any {
	out := map[string]any{}
	if p.Description != "" {
		out["description"] = p.Description
	}
	switch p.Type {
	case registry.TypeVector:
		out["type"] = "array"
		out["items"] = map[string]any{"type": "number"}
		out["minItems"] = 3
		out["maxItems"] = 3
	case registry.TypeAny:
		// Unconstrained.
	default:
		out["type"] = string(p.Type)
	}
	if len(p.Enum) > 0 {
		out["enum"] = p.Enum
	}
	return out
}

func (s *Server) handler(command string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := request.Params.Arguments.(map[string]any)
		resp, err := s.caller.Call(ctx, command, args)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("bridge unavailable: %v", err)), nil
		}
		return toolResult(resp), nil
	}
}

func toolResult(resp *codec.Response) *mcp.CallToolResult {
	if f := resp.Failure(); f != nil {
		text := fmt.Sprintf("%s: %s", f.Kind, f.Message)
		if len(f.Detail) > 0 {
			if detail, err := json.MarshalIndent(f.Detail, "", "  "); err == nil {
				text += "\n" + string(detail)
			}
		}
		return mcp.NewToolResultError(text)
	}

	var pretty any
	if err := json.Unmarshal(resp.Result, &pretty); err != nil {
		return mcp.NewToolResultText(string(resp.Result))
	}
	data, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return mcp.NewToolResultText(string(resp.Result))
	}
	return mcp.NewToolResultText(string(data))
}
