// Package mcp exposes the bridge's command catalog as Model Context Protocol
// tools.
//
// One tool is generated per registered command. The tool name is the
// command name with "." replaced by "_", and the input schema comes from
// the command's parameters. Tool calls go through a Caller:
//   - a *dispatch.Dispatcher when the MCP server runs inside the bridge
//   - an *HTTPCaller when it proxies to a bridge that is already listening
//
// Successful results are returned as indented JSON text. Failures become
// tool errors of the form "<Kind>: <message>" plus any detail.
//
// Usage:
//
//	s := mcp.NewServer(dispatcher, registry.List(), version)
//	if err := server.ServeStdio(s.MCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
