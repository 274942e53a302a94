package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/mcp-training/editorbridge/bridge/codec"
	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
)

// HTTPCaller proxies commands to a running bridge's HTTP listener.
type HTTPCaller struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPCaller creates a caller for the bridge at baseURL, for example
// http://127.0.0.1:8090.
func NewHTTPCaller(baseURL string) *HTTPCaller {
	return &HTTPCaller{
		baseURL: baseURL,
		httpClient: &http.Client{
			// Longer than the bridge's maximum host-thread timeout.
			Timeout: 11 * time.Minute,
		},
	}
}

// Call posts a request document to /api/command.
func (c *HTTPCaller) Call(ctx context.Context, command string, args map[string]any) (*codec.Response, error) {
	payload, err := codec.EncodeRequest(command, args, codec.StringID(uuid.NewString()))
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, http.MethodPost, "/api/command", payload)
	if err != nil {
		return nil, err
	}
	return codec.DecodeResponse(body)
}

// Catalog fetches the command catalog from /api/commands.
func (c *HTTPCaller) Catalog(ctx context.Context) ([]registry.Info, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/commands", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Commands []registry.Info `json:"commands"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return out.Commands, nil
}

// Ping checks that a bridge answers /api/status.
func (c *HTTPCaller) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/api/status", nil)
	return err
}

func (c *HTTPCaller) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("bridge API error: %d %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}
