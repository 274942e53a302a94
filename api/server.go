package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wricardo/mcp-training/editorbridge/bridge/codec"
	"github.com/wricardo/mcp-training/editorbridge/bridge/executor"
	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/host"
	"github.com/wricardo/mcp-training/editorbridge/transport/websocket"
)

// MaxBodyBytes caps a request document.
const MaxBodyBytes = 8 << 20

// CorrelationHeader carries the request id for POST /api/commands/{name}.
const CorrelationHeader = "X-Correlation-ID"

// Dispatcher turns a request document into a response document.
// *dispatch.Dispatcher satisfies it.
type Dispatcher interface {
	Handle(ctx context.Context, raw []byte) []byte
}

// Catalog lists registered commands. *registry.Registry satisfies it.
type Catalog interface {
	List() []registry.Info
	Domains() []string
	Len() int
}

// StatsSource reports execution bridge counters. *executor.Bridge satisfies it.
type StatsSource interface {
	Stats() executor.Stats
}

// StatusSource reports host state. *host.Host satisfies it.
type StatusSource interface {
	Status() host.Status
}

// MCPHandler answers MCP JSON-RPC messages posted to /mcp.
type MCPHandler interface {
	ServeMCP(ctx context.Context, body []byte) (any, error)
}

// MCPHandlerFunc adapts a function to MCPHandler.
type MCPHandlerFunc func(ctx context.Context, body []byte) (any, error)

func (f MCPHandlerFunc) ServeMCP(ctx context.Context, body []byte) (any, error) {
	return f(ctx, body)
}

// Options wire a Server.
type Options struct {
	Name       string
	Version    string
	Addr       string
	Dispatcher Dispatcher
	Catalog    Catalog
	Stats      StatsSource
	Host       StatusSource
	Hub        *websocket.Hub
	MCP        MCPHandler
	Logger     *slog.Logger
}

// Server represents the HTTP transport listener
type Server struct {
	opts    Options
	router  *mux.Router
	logger  *slog.Logger
	started time.Time
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		opts:    opts,
		router:  mux.NewRouter(),
		logger:  logger.With("component", "api"),
		started: time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Commands
	api.HandleFunc("/command", s.handleCommand).Methods("POST")
	api.HandleFunc("/commands", s.handleListCommands).Methods("GET")
	api.HandleFunc("/commands/{name}", s.handleNamedCommand).Methods("POST")

	// Bridge state
	api.HandleFunc("/status", s.handleStatus).Methods("GET", "POST")
	api.HandleFunc("/domains", s.handleDomains).Methods("GET")

	// Streams
	if s.opts.Hub != nil {
		s.router.HandleFunc("/ws", s.handleWebSocket)
	}
	if s.opts.MCP != nil {
		s.router.HandleFunc("/mcp", s.handleMCP).Methods("POST")
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondDocument(w http.ResponseWriter, doc []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// readBody reads at most MaxBodyBytes. Oversized or unreadable bodies are
// reported as a MalformedPayload document.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, []byte) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err == nil {
		return body, nil
	}
	reason := "unreadable body: " + err.Error()
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		reason = "request body exceeds 8 MiB"
	}
	res := codec.Fail(codec.KindMalformedPayload, reason, nil)
	return nil, codec.Encode(res, codec.ID{})
}

// Command Handlers

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, failure := readBody(w, r)
	if failure != nil {
		respondDocument(w, failure)
		return
	}
	respondDocument(w, s.opts.Dispatcher.Handle(r.Context(), body))
}

func (s *Server) handleNamedCommand(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	id := codec.StringID(uuid.NewString())
	if header := strings.TrimSpace(r.Header.Get(CorrelationHeader)); header != "" {
		id = codec.StringID(header)
	}
	w.Header().Set(CorrelationHeader, id.String())

	body, failure := readBody(w, r)
	if failure != nil {
		respondDocument(w, failure)
		return
	}

	args := map[string]any{}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &args); err != nil {
			res := codec.Fail(codec.KindMalformedPayload, "arguments must be a JSON object: "+err.Error(), nil)
			respondDocument(w, codec.Encode(res, id))
			return
		}
	}

	doc, err := codec.EncodeRequest(name, args, id)
	if err != nil {
		res := codec.Fail(codec.KindMalformedPayload, err.Error(), nil)
		respondDocument(w, codec.Encode(res, id))
		return
	}
	respondDocument(w, s.opts.Dispatcher.Handle(r.Context(), doc))
}

func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	commands := s.opts.Catalog.List()

	if domain := r.URL.Query().Get("domain"); domain != "" {
		filtered := commands[:0]
		for _, c := range commands {
			if strings.EqualFold(c.Domain, domain) {
				filtered = append(filtered, c)
			}
		}
		commands = filtered
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"commands": commands,
		"count":    len(commands),
	})
}

func (s *Server) handleDomains(w http.ResponseWriter, r *http.Request) {
	counts := make(map[string]int)
	for _, c := range s.opts.Catalog.List() {
		counts[c.Domain]++
	}

	type domainInfo struct {
		Name     string `json:"name"`
		Commands int    `json:"commands"`
	}
	domains := make([]domainInfo, 0, len(counts))
	for _, name := range s.opts.Catalog.Domains() {
		domains = append(domains, domainInfo{Name: name, Commands: counts[name]})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"domains": domains,
		"count":   len(domains),
	})
}

// Status

type statusResponse struct {
	Name      string          `json:"name"`
	Version   string          `json:"version"`
	Addr      string          `json:"addr"`
	Domains   []string        `json:"domains"`
	Commands  int             `json:"command_count"`
	Bridge    *executor.Stats `json:"bridge,omitempty"`
	Host      *host.Status    `json:"host,omitempty"`
	PIEActive bool            `json:"pie_active"`
	Clients   int             `json:"ws_clients"`
	Uptime    string          `json:"uptime"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := statusResponse{
		Name:     s.opts.Name,
		Version:  s.opts.Version,
		Addr:     s.opts.Addr,
		Domains:  s.opts.Catalog.Domains(),
		Commands: s.opts.Catalog.Len(),
		Uptime:   time.Since(s.started).Round(time.Second).String(),
	}
	if s.opts.Stats != nil {
		stats := s.opts.Stats.Stats()
		status.Bridge = &stats
	}
	if s.opts.Host != nil {
		hs := s.opts.Host.Status()
		status.Host = &hs
		status.PIEActive = hs.PIEActive
	}
	if s.opts.Hub != nil {
		status.Clients = s.opts.Hub.Clients()
	}

	respondJSON(w, http.StatusOK, status)
}

// Streams

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.opts.Hub.ServeWS(w, r, r.URL.Query().Get("topic"))
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	response, err := s.opts.MCP.ServeMCP(r.Context(), body)
	if err != nil {
		s.logger.Error("mcp request failed", "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if response == nil {
		// Notifications have no response.
		w.WriteHeader(http.StatusAccepted)
		return
	}
	respondJSON(w, http.StatusOK, response)
}
