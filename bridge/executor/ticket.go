package executor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/wricardo/mcp-training/editorbridge/bridge/codec"
	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
)

// ticket states
const (
	statePending int32 = iota
	stateRunning
	stateCompleted
	stateAbandoned
)

// Ticket is a host-thread command waiting for, or undergoing, execution.
type Ticket struct {
	ID          string
	Seq         uint64
	Request     *codec.Request
	Descriptor  *registry.Descriptor
	SubmittedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	result codec.Result
	state  atomic.Int32
}

// Abandoned reports whether the submitter stopped waiting for this ticket.
func (t *Ticket) Abandoned() bool {
	return t.state.Load() == stateAbandoned
}

// start moves a pending ticket to running. It fails when the ticket was
// abandoned while still queued.
func (t *Ticket) start() bool {
	return t.state.CompareAndSwap(statePending, stateRunning)
}

// finish records the result and wakes the submitter. It reports false when
// the ticket had been abandoned, in which case the result is dropped.
func (t *Ticket) finish(r codec.Result) bool {
	t.result = r
	if t.state.CompareAndSwap(stateRunning, stateCompleted) || t.state.CompareAndSwap(statePending, stateCompleted) {
		close(t.done)
		return true
	}
	return false
}

// abandon marks the ticket as no longer awaited. It reports false when the
// ticket had already completed.
func (t *Ticket) abandon() bool {
	if t.state.CompareAndSwap(statePending, stateAbandoned) || t.state.CompareAndSwap(stateRunning, stateAbandoned) {
		t.cancel()
		return true
	}
	return false
}

// TicketInfo identifies the ticket a host-thread handler is running under.
type TicketInfo struct {
	ID  string
	Seq uint64
}

type ticketKey struct{}

// TicketFromContext returns the ticket of the running host-thread handler.
// ok is false for caller-thread handlers.
func TicketFromContext(ctx context.Context) (TicketInfo, bool) {
	info, ok := ctx.Value(ticketKey{}).(TicketInfo)
	return info, ok
}
