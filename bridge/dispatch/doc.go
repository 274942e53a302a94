// Package dispatch turns request documents into response documents.
//
// A Dispatcher decodes the payload, looks the command up in the catalog,
// validates the arguments against the descriptor and hands the request to
// the executor. Whatever happens, the caller gets back exactly one encoded
// response that carries the request id, or a null id when the payload was
// too broken to read one.
//
// Every handled request is logged, traced and reported to the optional
// Observer. The websocket hub subscribes this way to broadcast command
// activity.
//
//	d := dispatch.New(reg, bridge, dispatch.Options{Logger: logger, Observer: hub})
//	resp := d.Handle(ctx, payload)
package dispatch
