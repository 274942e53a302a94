package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/editorbridge/bridge/codec"
	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startBridge(t *testing.T, opts Options) *Bridge {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	b := New(opts)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return b
}

func request(command string) *codec.Request {
	return &codec.Request{Command: command, Arguments: map[string]any{}, ID: codec.StringID(command)}
}

func TestSubmit_CallerThreadRunsSynchronously(t *testing.T) {
	b := New(Options{Logger: quietLogger()})

	called := false
	d := &registry.Descriptor{
		Name:     "editor.status",
		Affinity: registry.CallerThread,
		Handler: func(ctx context.Context, args registry.Args) (any, error) {
			called = true
			if _, ok := TicketFromContext(ctx); ok {
				t.Error("Caller-thread handler should not run under a ticket")
			}
			return map[string]any{"ok": true}, nil
		},
	}

	// No host thread is running: caller-thread work must not need it.
	res := b.Submit(context.Background(), request("editor.status"), d)
	if !res.OK() {
		t.Fatalf("Expected success, got %v", res.Failure)
	}
	if !called {
		t.Error("Handler was not invoked")
	}
	if b.Stats().Submitted != 0 {
		t.Error("Caller-thread command should not be queued")
	}
}

func TestSubmit_HostThreadFIFO(t *testing.T) {
	b := startBridge(t, Options{Timeout: 5 * time.Second})

	var (
		order    []uint64
		inFlight atomic.Int32
		overlap  atomic.Bool
	)
	d := &registry.Descriptor{
		Name:     "asset.create",
		Affinity: registry.HostThread,
		Handler: func(ctx context.Context, args registry.Args) (any, error) {
			if inFlight.Add(1) > 1 {
				overlap.Store(true)
			}
			defer inFlight.Add(-1)

			info, ok := TicketFromContext(ctx)
			if !ok {
				return nil, errors.New("no ticket in context")
			}
			order = append(order, info.Seq)
			time.Sleep(100 * time.Microsecond)
			return info.Seq, nil
		},
	}

	const n = 64
	var wg sync.WaitGroup
	results := make([]codec.Result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = b.Submit(context.Background(), request("asset.create"), d)
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if !r.OK() {
			t.Fatalf("Submission %d failed: %v", i, r.Failure)
		}
	}
	if len(order) != n {
		t.Fatalf("Expected %d executions, got %d", n, len(order))
	}
	if !sort.SliceIsSorted(order, func(i, j int) bool { return order[i] < order[j] }) {
		t.Errorf("Expected submission indexes in FIFO order, got %v", order)
	}
	if overlap.Load() {
		t.Error("Host-thread handlers overlapped")
	}
}

func TestSubmit_TimeoutAndLateResultDiscarded(t *testing.T) {
	var discarded atomic.Int32
	b := startBridge(t, Options{
		Timeout: 5 * time.Second,
		OnDiscard: func(tk *Ticket, r codec.Result) {
			discarded.Add(1)
		},
	})

	release := make(chan struct{})
	stuck := &registry.Descriptor{
		Name:     "pcg.execute",
		Affinity: registry.HostThread,
		Timeout:  50 * time.Millisecond,
		Handler: func(ctx context.Context, args registry.Args) (any, error) {
			<-release
			return "late", nil
		},
	}
	quick := &registry.Descriptor{
		Name:     "asset.list",
		Affinity: registry.HostThread,
		Handler: func(ctx context.Context, args registry.Args) (any, error) {
			return "mine", nil
		},
	}

	start := time.Now()
	res := b.Submit(context.Background(), request("pcg.execute"), stuck)
	if res.Kind() != codec.KindTimeout {
		t.Fatalf("Expected Timeout, got %+v", res)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Timeout returned too early: %s", elapsed)
	}

	other := make(chan codec.Result, 1)
	go func() {
		other <- b.Submit(context.Background(), request("asset.list"), quick)
	}()

	close(release)

	select {
	case r := <-other:
		if !r.OK() || r.Value != "mine" {
			t.Errorf("Expected other request to receive its own result, got %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Other request did not complete")
	}

	if discarded.Load() != 1 {
		t.Errorf("Expected 1 discarded result, got %d", discarded.Load())
	}
	stats := b.Stats()
	if stats.Abandoned != 1 || stats.Discarded != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestSubmit_AbandonedBeforeStartIsSkipped(t *testing.T) {
	b := New(Options{Logger: quietLogger()})

	var calls atomic.Int32
	d := &registry.Descriptor{
		Name:     "level.save",
		Affinity: registry.HostThread,
		Timeout:  20 * time.Millisecond,
		Handler: func(ctx context.Context, args registry.Args) (any, error) {
			calls.Add(1)
			return nil, nil
		},
	}

	// Nothing consumes the queue yet.
	res := b.Submit(context.Background(), request("level.save"), d)
	if res.Kind() != codec.KindTimeout {
		t.Fatalf("Expected Timeout, got %+v", res)
	}

	if n := b.Drain(0); n != 1 {
		t.Errorf("Expected 1 ticket drained, got %d", n)
	}
	if calls.Load() != 0 {
		t.Error("Abandoned ticket's handler should not run")
	}
	if b.Stats().Skipped != 1 {
		t.Errorf("Expected 1 skipped ticket, got %d", b.Stats().Skipped)
	}
}

func TestSubmit_ContextCancelled(t *testing.T) {
	b := New(Options{Logger: quietLogger(), Timeout: time.Minute})
	d := &registry.Descriptor{
		Name:     "asset.list",
		Affinity: registry.HostThread,
		Handler:  func(ctx context.Context, args registry.Args) (any, error) { return nil, nil },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	res := b.Submit(ctx, request("asset.list"), d)
	if res.Kind() != codec.KindTimeout {
		t.Fatalf("Expected Timeout, got %+v", res)
	}
	if !strings.Contains(res.Failure.Message, "cancelled") {
		t.Errorf("Expected cancellation message, got %q", res.Failure.Message)
	}
}

func TestSubmit_HandlerFailures(t *testing.T) {
	b := startBridge(t, Options{})

	tests := []struct {
		name       string
		handler    registry.HandlerFunc
		wantKind   codec.ErrorKind
		wantDetail string
	}{
		{
			name:     "error",
			handler:  func(ctx context.Context, args registry.Args) (any, error) { return nil, errors.New("asset not found") },
			wantKind: codec.KindHandlerError,
		},
		{
			name: "panic",
			handler: func(ctx context.Context, args registry.Args) (any, error) {
				var m map[string]int
				m["boom"] = 1
				return nil, nil
			},
			wantKind: codec.KindHandlerError,
		},
		{
			name: "detail",
			handler: func(ctx context.Context, args registry.Args) (any, error) {
				return nil, WithDetail(errors.New("compile failed"), map[string]any{"errors": 2})
			},
			wantKind:   codec.KindHandlerError,
			wantDetail: "errors",
		},
		{
			name: "handler argument error",
			handler: func(ctx context.Context, args registry.Args) (any, error) {
				return nil, &registry.ArgumentError{Field: "vertices", Reason: "element 2: expected [x, y, z]"}
			},
			wantKind:   codec.KindHandlerError,
			wantDetail: "field",
		},
	}

	for _, affinity := range []registry.Affinity{registry.HostThread, registry.CallerThread} {
		for _, tt := range tests {
			t.Run(affinity.String()+"/"+tt.name, func(t *testing.T) {
				d := &registry.Descriptor{Name: "x." + tt.name, Affinity: affinity, Handler: tt.handler}
				res := b.Submit(context.Background(), request(d.Name), d)
				if res.Kind() != tt.wantKind {
					t.Fatalf("Expected %s, got %+v", tt.wantKind, res)
				}
				if tt.wantDetail != "" {
					if _, ok := res.Failure.Detail[tt.wantDetail]; !ok {
						t.Errorf("Expected detail key %q, got %v", tt.wantDetail, res.Failure.Detail)
					}
				}
			})
		}
	}

	// The host thread survives the panic.
	ok := &registry.Descriptor{
		Name:     "after",
		Affinity: registry.HostThread,
		Handler:  func(ctx context.Context, args registry.Args) (any, error) { return 1, nil },
	}
	if res := b.Submit(context.Background(), request("after"), ok); !res.OK() {
		t.Errorf("Expected host thread to keep serving, got %+v", res)
	}
}

func TestDrain_ExternalPump(t *testing.T) {
	b := New(Options{Logger: quietLogger()})
	d := &registry.Descriptor{
		Name:     "actor.spawn",
		Affinity: registry.HostThread,
		Handler:  func(ctx context.Context, args registry.Args) (any, error) { return "spawned", nil },
	}

	result := make(chan codec.Result, 1)
	go func() {
		result <- b.Submit(context.Background(), request("actor.spawn"), d)
	}()

	deadline := time.After(2 * time.Second)
	for {
		if b.Drain(1) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Ticket never arrived")
		case <-time.After(time.Millisecond):
		}
	}

	if r := <-result; r.Value != "spawned" {
		t.Errorf("Expected spawned, got %+v", r)
	}
}

func TestRun_OnlyOneConsumer(t *testing.T) {
	b := startBridge(t, Options{})

	deadline := time.Now().Add(time.Second)
	for !b.Stats().Running && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := b.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("Expected ErrAlreadyRunning, got %v", err)
	}
}

func TestClose_FailsPendingAndRejectsNew(t *testing.T) {
	b := New(Options{Logger: quietLogger(), Timeout: time.Minute})
	d := &registry.Descriptor{
		Name:     "level.load",
		Affinity: registry.HostThread,
		Handler:  func(ctx context.Context, args registry.Args) (any, error) { return nil, nil },
	}

	pending := make(chan codec.Result, 1)
	go func() {
		pending <- b.Submit(context.Background(), request("level.load"), d)
	}()

	deadline := time.Now().Add(time.Second)
	for b.Stats().QueueDepth == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	b.Close()

	select {
	case r := <-pending:
		if r.Kind() != codec.KindTimeout || r.Failure.Message != "bridge closed" {
			t.Errorf("Expected bridge closed Timeout, got %+v", r)
		}
	case <-time.After(time.Second):
		t.Fatal("Pending submission was not released by Close")
	}

	r := b.Submit(context.Background(), request("level.load"), d)
	if r.Kind() != codec.KindTimeout {
		t.Errorf("Expected Timeout after Close, got %+v", r)
	}
}
