// Package websocket streams bridge activity to websocket subscribers.
//
// A Hub is registered as the dispatcher's Observer. After every handled
// request it publishes a "dispatch" message carrying the command, domain,
// id, outcome and duration. Clients connect to /ws and choose a topic with
// ?topic=<domain>; the default "*" receives everything.
//
// Message Protocol:
//
//	{"topic":"asset","event":"dispatch","data":{"command":"asset.list","id":"1","ok":true,...}}
//
// Inbound frames are read only to detect disconnects.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	d := dispatch.New(reg, bridge, dispatch.Options{Observer: hub})
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("topic"))
//	})
//
// Concurrency:
//
// The subscriber set belongs to the Run goroutine. Publishing never blocks
// the dispatcher; events are dropped when the hub falls behind, and a
// subscriber whose buffer is full is disconnected.
package websocket
