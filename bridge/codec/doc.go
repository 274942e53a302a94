// Package codec converts between the bridge's wire documents and internal
// Request and Result values.
//
// Request document:
//
//	{"command": "asset.list", "arguments": {"path": "/Game"}, "id": 1}
//
// Response documents:
//
//	{"id": 1, "result": {...}}
//	{"id": 1, "error": {"kind": "UnknownCommand", "message": "...", "detail": {...}}}
//
// The id is echoed exactly as the client wrote it. Decoding and encoding are
// pure transforms with no side effects.
package codec
