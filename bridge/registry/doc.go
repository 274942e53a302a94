// Package registry holds the command table of the editor bridge.
//
// The registry implements:
//   - Unique command registration across all capability domains
//   - Atomic registration of whole domain modules
//   - Lookup by command name
//   - Argument validation against an ordered, typed parameter schema
//   - A handler-free catalog view for transports and tooling
//
// Core Types:
//
// Descriptor is a registered command: name, domain, parameter schema, thread
// affinity and handler. Affinity is an explicit field so that no handler has
// to know which goroutine it runs on; the executor package reads it and
// routes the call. Module groups the descriptors of one capability domain.
//
// Lifecycle:
//
// Domains register during startup from a single goroutine. Seal is called
// before any transport starts accepting requests. From then on the registry
// is immutable and is read concurrently without locks.
//
// Usage:
//
//	reg := registry.New()
//	if err := reg.RegisterModule(asset.New(h)); err != nil {
//		log.Fatal(err)
//	}
//	reg.Seal()
//
//	d, err := reg.Lookup("asset.info")
//	if err != nil {
//		// errors.Is(err, registry.ErrUnknownCommand)
//	}
//	if err := reg.Validate(d, args); err != nil {
//		// errors.Is(err, registry.ErrInvalidArgument), err.(*registry.ArgumentError).Field
//	}
//
// Parameter Types:
//
// string, number, integer, boolean, object, array, vector (exactly three
// numbers) and any. Numbers may arrive as json.Number or float64; an integer
// is any number without a fractional part.
package registry
