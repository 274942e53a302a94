// Package executor runs registered commands with the thread affinity their
// descriptors declare.
//
// The editor this bridge drives allows its object graph to be mutated from
// exactly one thread. The executor models that thread as a single consumer
// goroutine draining a FIFO queue of tickets:
//
//   - CallerThread commands run synchronously on the submitting goroutine.
//   - HostThread commands are wrapped in a Ticket, queued in submission
//     order, and executed one at a time by Run (or by an embedding host
//     calling Drain from its own tick loop).
//
// Timeouts:
//
// A submitter waits at most the descriptor's Timeout (or the bridge
// default). On expiry it receives a Timeout failure and the ticket is marked
// abandoned. A ticket abandoned while still queued is skipped; one abandoned
// while running keeps running, and its result is discarded. The handler's
// context is cancelled on abandonment so cooperative handlers can stop early.
//
// Failures:
//
// Handler errors and panics become HandlerError results at the ticket
// boundary; the host goroutine keeps serving. A handler that only detects a
// bad argument while working may return *registry.ArgumentError, which maps
// to InvalidArgument. *DetailError forwards structured detail.
//
// Usage:
//
//	b := executor.New(executor.Options{Timeout: 30 * time.Second, Logger: logger})
//	go b.Run(ctx)
//
//	res := b.Submit(ctx, req, descriptor)
package executor
