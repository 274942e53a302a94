// Package api provides the HTTP transport listener for the editor bridge.
//
// Endpoints:
//
// Commands:
//   - POST /api/command - Dispatch a request document
//   - POST /api/commands/{name} - Dispatch name with the body as arguments
//   - GET /api/commands - Command catalog, optionally ?domain=<name>
//
// Bridge state:
//   - GET|POST /api/status - Identity, domains, queue depth, PIE state, uptime
//   - GET /api/domains - Enabled domains with command counts
//
// Streams:
//   - GET /ws?topic=<domain|*> - WebSocket stream of dispatch events
//   - POST /mcp - MCP JSON-RPC over HTTP
//
// Request/Response Format:
//
// Command endpoints always answer 200 with a response document, including
// for failures:
//
//	{"id": 1, "result": {...}}
//	{"id": 1, "error": {"kind": "InvalidArgument", "message": "...", "detail": {"field": "asset_path"}}}
//
// Bodies over 8 MiB, or bodies that cannot be read, are answered with a
// MalformedPayload document whose id is null. For POST /api/commands/{name}
// the id is taken from the X-Correlation-ID header, or generated, and echoed
// in the same header.
//
// Usage:
//
//	srv := api.NewServer(api.Options{
//		Dispatcher: dispatcher,
//		Catalog:    reg,
//		Stats:      bridge,
//		Host:       h,
//		Hub:        hub,
//		MCP:        mcpServer,
//	})
//	http.ListenAndServe("127.0.0.1:8090", srv)
//
// Error Handling:
//
// Non-command endpoints return errors as JSON with an HTTP status code:
//
//	{
//	  "error": "error message"
//	}
package api
