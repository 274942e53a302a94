package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wricardo/mcp-training/editorbridge/bridge/codec"
	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
)

const tracerName = "github.com/wricardo/mcp-training/editorbridge/bridge/dispatch"

// Catalog resolves and validates commands. *registry.Registry satisfies it.
type Catalog interface {
	Lookup(name string) (*registry.Descriptor, error)
	Validate(d *registry.Descriptor, args map[string]any) error
}

// Submitter executes a validated request. *executor.Bridge satisfies it.
type Submitter interface {
	Submit(ctx context.Context, req *codec.Request, d *registry.Descriptor) codec.Result
}

// Event summarises one handled request.
type Event struct {
	Command    string          `json:"command"`
	Domain     string          `json:"domain,omitempty"`
	ID         string          `json:"id"`
	OK         bool            `json:"ok"`
	Kind       codec.ErrorKind `json:"kind,omitempty"`
	Message    string          `json:"message,omitempty"`
	DurationMs float64         `json:"duration_ms"`
	At         time.Time       `json:"at"`
}

// Observer is notified after every handled request.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Options configure a Dispatcher.
type Options struct {
	Observer Observer
	Logger   *slog.Logger
	Tracer   trace.Tracer
}

// Dispatcher owns the request lifecycle. It keeps no per-request state and
// may be called from any number of goroutines.
type Dispatcher struct {
	catalog  Catalog
	bridge   Submitter
	observer Observer
	logger   *slog.Logger
	tracer   trace.Tracer
}

// New creates a dispatcher over catalog and bridge.
func New(catalog Catalog, bridge Submitter, opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &Dispatcher{
		catalog:  catalog,
		bridge:   bridge,
		observer: opts.Observer,
		logger:   logger.With("component", "dispatch"),
		tracer:   tracer,
	}
}

// Handle decodes raw, runs the command and returns the encoded response.
// Every decodable request gets a document carrying its id.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) []byte {
	start := time.Now()

	req, err := codec.Decode(raw)
	if err != nil {
		var decodeErr *codec.DecodeError
		if !errors.As(err, &decodeErr) {
			decodeErr = &codec.DecodeError{Reason: err.Error()}
		}
		res := decodeErr.Result()
		d.finish("", "", decodeErr.ID, res, start)
		return codec.Encode(res, decodeErr.ID)
	}

	ctx, span := d.tracer.Start(ctx, "dispatch "+req.Command,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("bridge.command", req.Command),
			attribute.String("bridge.request_id", req.ID.String()),
		))
	defer span.End()

	res, domain := d.run(ctx, req)
	if !res.OK() {
		span.SetAttributes(attribute.String("bridge.error_kind", string(res.Failure.Kind)))
		span.SetStatus(codes.Error, res.Failure.Message)
	}
	if domain != "" {
		span.SetAttributes(attribute.String("bridge.domain", domain))
	}

	d.finish(req.Command, domain, req.ID, res, start)
	return codec.Encode(res, req.ID)
}

func (d *Dispatcher) run(ctx context.Context, req *codec.Request) (codec.Result, string) {
	desc, err := d.catalog.Lookup(req.Command)
	if err != nil {
		return codec.Fail(codec.KindUnknownCommand,
			fmt.Sprintf("unknown command: %s", req.Command),
			map[string]any{"command": req.Command}), ""
	}

	if err := d.catalog.Validate(desc, req.Arguments); err != nil {
		var argErr *registry.ArgumentError
		if errors.As(err, &argErr) {
			return codec.Fail(codec.KindInvalidArgument, argErr.Error(),
				map[string]any{"field": argErr.Field, "reason": argErr.Reason}), desc.Domain
		}
		return codec.Fail(codec.KindInvalidArgument, err.Error(), nil), desc.Domain
	}

	return d.bridge.Submit(ctx, req, desc), desc.Domain
}

func (d *Dispatcher) finish(command, domain string, id codec.ID, res codec.Result, start time.Time) {
	elapsed := time.Since(start)

	ev := Event{
		Command:    command,
		Domain:     domain,
		ID:         id.String(),
		OK:         res.OK(),
		DurationMs: float64(elapsed.Microseconds()) / 1000,
		At:         start,
	}
	if !res.OK() {
		ev.Kind = res.Failure.Kind
		ev.Message = res.Failure.Message
	}

	if ev.OK {
		d.logger.Info("dispatch", "command", command, "id", ev.ID, "duration", elapsed)
	} else {
		d.logger.Warn("dispatch", "command", command, "id", ev.ID, "kind", ev.Kind, "message", ev.Message, "duration", elapsed)
	}

	if d.observer != nil {
		d.observer.Observe(ev)
	}
}

// Call runs command in-process through Handle using a generated id and
// returns the decoded response.
func (d *Dispatcher) Call(ctx context.Context, command string, args map[string]any) (*codec.Response, error) {
	raw, err := codec.EncodeRequest(command, args, codec.StringID(uuid.NewString()))
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return codec.DecodeResponse(d.Handle(ctx, raw))
}
