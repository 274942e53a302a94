// Package host provides the in-memory editor the bridge drives.
//
// The host stands in for the content-authoring editor. It implements:
//   - A project content registry with asset classes, dependencies and tags
//   - Typed payloads for Blueprints, materials, PCG graphs and Niagara systems
//   - An editor world and a Play-In-Editor world cloned from it
//   - Actor components for abilities, effects, procedural meshes and PCG
//   - Level snapshots persisted through a LevelStore
//   - A bounded output log
//
// Threading:
//
// Project and Worlds are not safe for concurrent use. Only handlers running
// on the bridge's host thread may touch them. Results that leave a handler
// must be detached copies (Describe, Info, AttributeList and friends return
// such copies). Log and Status are guarded and may be read from any
// goroutine.
//
// Usage:
//
//	h, err := host.New(host.DefaultSeed(), host.WithLevelStore(store))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	world, _ := h.Worlds.Resolve(host.WorldAuto)
//	actor, _ := world.Spawn("StaticMeshActor", "Floor", host.IdentityTransform())
//	h.Refresh()
//
// World selectors:
//
// Commands that act on actors accept "auto", "editor" or "pie". Auto picks
// the play world while a play session runs and the editor world otherwise.
// Stopping play discards everything changed during play.
package host
