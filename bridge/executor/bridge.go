package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/mcp-training/editorbridge/bridge/codec"
	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
)

// DefaultTimeout bounds how long a submitter waits for the host thread.
const DefaultTimeout = 30 * time.Second

var ErrAlreadyRunning = errors.New("host thread already running")

// Options configure a Bridge.
type Options struct {
	// Timeout applies to host-thread commands without their own Timeout.
	Timeout time.Duration
	Logger  *slog.Logger
	// OnDiscard observes results produced for abandoned tickets.
	OnDiscard func(t *Ticket, r codec.Result)
}

// Stats is a snapshot of bridge counters.
type Stats struct {
	QueueDepth int    `json:"queue_depth"`
	Running    bool   `json:"running"`
	Submitted  uint64 `json:"submitted"`
	Completed  uint64 `json:"completed"`
	Abandoned  uint64 `json:"abandoned"`
	Skipped    uint64 `json:"skipped"`
	Discarded  uint64 `json:"discarded"`
}

// Bridge hands validated commands to the single host mutation goroutine.
//
// Producers are any number of Submit callers; the consumer is whichever
// goroutine runs Run or Drain. drainMu keeps consumption single-threaded even
// when an embedding host pumps Drain alongside Run.
type Bridge struct {
	timeout   time.Duration
	logger    *slog.Logger
	onDiscard func(*Ticket, codec.Result)

	mu      sync.Mutex
	queue   []*Ticket
	nextSeq uint64
	closed  bool
	wake    chan struct{}

	drainMu sync.Mutex
	running atomic.Bool

	submitted atomic.Uint64
	completed atomic.Uint64
	abandoned atomic.Uint64
	skipped   atomic.Uint64
	discarded atomic.Uint64
}

// New creates a bridge. Call Run (or pump Drain) to serve host-thread work.
func New(opts Options) *Bridge {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		timeout:   timeout,
		logger:    logger.With("component", "executor"),
		onDiscard: opts.OnDiscard,
		wake:      make(chan struct{}, 1),
	}
}

// Timeout returns the default host-thread timeout.
func (b *Bridge) Timeout() time.Duration {
	return b.timeout
}

// Submit runs req's handler according to d's affinity and returns its Result.
// Caller-thread handlers run immediately on this goroutine. Host-thread
// handlers are queued FIFO and awaited until they finish, the timeout
// elapses, or ctx ends.
func (b *Bridge) Submit(ctx context.Context, req *codec.Request, d *registry.Descriptor) codec.Result {
	if d.Affinity == registry.CallerThread {
		return b.invoke(ctx, d, req.Arguments)
	}

	t, err := b.enqueue(ctx, req, d)
	if err != nil {
		return codec.Fail(codec.KindTimeout, err.Error(), nil)
	}
	defer t.cancel()

	timeout := b.timeout
	if d.Timeout > 0 {
		timeout = d.Timeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-t.done:
		return t.result
	case <-timer.C:
		return b.giveUp(t, fmt.Sprintf("%s did not complete within %s", d.Name, timeout))
	case <-ctx.Done():
		return b.giveUp(t, fmt.Sprintf("%s cancelled while waiting: %v", d.Name, ctx.Err()))
	}
}

func (b *Bridge) enqueue(ctx context.Context, req *codec.Request, d *registry.Descriptor) (*Ticket, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.New("bridge closed")
	}

	b.nextSeq++
	t := &Ticket{
		ID:          uuid.NewString(),
		Seq:         b.nextSeq,
		Request:     req,
		Descriptor:  d,
		SubmittedAt: time.Now(),
		done:        make(chan struct{}),
	}
	t.ctx, t.cancel = context.WithCancel(context.WithValue(ctx, ticketKey{}, TicketInfo{ID: t.ID, Seq: t.Seq}))
	b.queue = append(b.queue, t)
	b.submitted.Add(1)

	select {
	case b.wake <- struct{}{}:
	default:
	}
	return t, nil
}

func (b *Bridge) giveUp(t *Ticket, message string) codec.Result {
	if !t.abandon() {
		// Completion won the race; deliver it.
		<-t.done
		return t.result
	}
	b.abandoned.Add(1)
	b.logger.Warn("ticket abandoned", "ticket", t.ID, "seq", t.Seq, "command", t.Descriptor.Name, "reason", message)
	return codec.Fail(codec.KindTimeout, message, map[string]any{"ticket": t.ID})
}

// Run serves the queue until ctx ends. It locks the goroutine to its OS
// thread so that host code with real thread affinity sees a stable thread.
func (b *Bridge) Run(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer b.running.Store(false)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	b.logger.Info("host thread started")
	for {
		b.Drain(0)
		select {
		case <-ctx.Done():
			b.logger.Info("host thread stopped")
			return ctx.Err()
		case <-b.wake:
		}
	}
}

// Drain executes up to max queued tickets (all of them when max <= 0) on the
// calling goroutine and returns how many were taken off the queue.
func (b *Bridge) Drain(max int) int {
	b.drainMu.Lock()
	defer b.drainMu.Unlock()

	n := 0
	for max <= 0 || n < max {
		t := b.pop()
		if t == nil {
			break
		}
		n++
		b.execute(t)
	}
	return n
}

func (b *Bridge) pop() *Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return nil
	}
	t := b.queue[0]
	b.queue[0] = nil
	b.queue = b.queue[1:]
	return t
}

func (b *Bridge) execute(t *Ticket) {
	if !t.start() {
		b.skipped.Add(1)
		b.logger.Debug("skipping abandoned ticket", "ticket", t.ID, "seq", t.Seq, "command", t.Descriptor.Name)
		return
	}

	result := b.invoke(t.ctx, t.Descriptor, t.Request.Arguments)
	if t.finish(result) {
		b.completed.Add(1)
		return
	}

	b.discarded.Add(1)
	b.logger.Warn("discarding late result", "ticket", t.ID, "seq", t.Seq, "command", t.Descriptor.Name,
		"ok", result.OK(), "elapsed", time.Since(t.SubmittedAt))
	if b.onDiscard != nil {
		b.onDiscard(t, result)
	}
}

// invoke calls the handler and converts errors and panics into failures.
func (b *Bridge) invoke(ctx context.Context, d *registry.Descriptor, args map[string]any) (res codec.Result) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked", "command", d.Name, "panic", r, "stack", string(debug.Stack()))
			res = codec.Fail(codec.KindHandlerError, fmt.Sprintf("%s panicked: %v", d.Name, r), nil)
		}
	}()

	if args == nil {
		args = map[string]any{}
	}
	v, err := d.Handler(ctx, registry.Args(args))
	if err != nil {
		return failureFor(err)
	}
	return codec.Success(v)
}

// failureFor maps a handler error to a HandlerError. InvalidArgument is
// reserved for schema validation, which runs before any handler; an
// argument rejected by the handler itself still names its field.
func failureFor(err error) codec.Result {
	var argErr *registry.ArgumentError
	if errors.As(err, &argErr) {
		return codec.Fail(codec.KindHandlerError, argErr.Error(), map[string]any{
			"field":  argErr.Field,
			"reason": argErr.Reason,
		})
	}
	var detailErr *DetailError
	if errors.As(err, &detailErr) {
		return codec.Fail(codec.KindHandlerError, err.Error(), detailErr.Detail)
	}
	return codec.Fail(codec.KindHandlerError, err.Error(), nil)
}

// Close stops accepting host-thread work and fails every queued ticket.
func (b *Bridge) Close() {
	b.mu.Lock()
	b.closed = true
	pending := b.queue
	b.queue = nil
	b.mu.Unlock()

	for _, t := range pending {
		if t.finish(codec.Fail(codec.KindTimeout, "bridge closed", nil)) {
			b.completed.Add(1)
		}
	}
	if len(pending) > 0 {
		b.logger.Info("bridge closed", "failed_pending", len(pending))
	}
}

// Stats returns current counters.
func (b *Bridge) Stats() Stats {
	b.mu.Lock()
	depth := len(b.queue)
	b.mu.Unlock()

	return Stats{
		QueueDepth: depth,
		Running:    b.running.Load(),
		Submitted:  b.submitted.Load(),
		Completed:  b.completed.Load(),
		Abandoned:  b.abandoned.Load(),
		Skipped:    b.skipped.Load(),
		Discarded:  b.discarded.Load(),
	}
}
