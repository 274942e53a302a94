// Package kit holds the helpers shared by the capability domain packages:
// parameter builders, world and actor resolution and transform parsing.
package kit

import (
	"context"
	"errors"

	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/host"
)

// World is the optional world selector accepted by actor-facing commands.
var World = registry.Param{
	Name:        "world",
	Type:        registry.TypeString,
	Description: "World to act on: auto (PIE when running, else editor), editor or pie",
	Enum:        host.WorldSelectors,
}

func Required(name string, t registry.ParamType, description string) registry.Param {
	return registry.Param{Name: name, Type: t, Required: true, Description: description}
}

func Optional(name string, t registry.ParamType, description string) registry.Param {
	return registry.Param{Name: name, Type: t, Description: description}
}

// TransformParams are the optional location, rotation and scale vectors.
func TransformParams() []registry.Param {
	return []registry.Param{
		Optional("location", registry.TypeVector, "World location [x, y, z]"),
		Optional("rotation", registry.TypeVector, "Rotation [pitch, yaw, roll] in degrees"),
		Optional("scale", registry.TypeVector, "Scale [x, y, z]"),
	}
}

// OnHost wraps a host-thread handler so the host status is republished
// after every call, successful or not.
func OnHost(h *host.Host, fn registry.HandlerFunc) registry.HandlerFunc {
	return func(ctx context.Context, args registry.Args) (any, error) {
		defer h.Refresh()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return fn(ctx, args)
	}
}

// AssetPath reads and validates an asset path argument.
func AssetPath(args registry.Args, field string) (string, error) {
	p := host.NormalizeAssetPath(args.String(field))
	if err := host.ValidateAssetPath(p); err != nil {
		return "", &registry.ArgumentError{Field: field, Reason: err.Error()}
	}
	return p, nil
}

// ResolveWorld selects the world named by the "world" argument.
func ResolveWorld(h *host.Host, args registry.Args) (*host.World, error) {
	w, err := h.Worlds.Resolve(args.StringOr("world", host.WorldAuto))
	if errors.Is(err, host.ErrUnknownWorld) {
		return nil, &registry.ArgumentError{Field: "world", Reason: err.Error()}
	}
	return w, err
}

// ResolveActor finds the actor named by the "actor_path" argument in the
// selected world.
func ResolveActor(h *host.Host, args registry.Args) (*host.World, *host.Actor, error) {
	w, err := ResolveWorld(h, args)
	if err != nil {
		return nil, nil, err
	}
	a, err := w.Find(args.String("actor_path"))
	if err != nil {
		return nil, nil, err
	}
	return w, a, nil
}

// Transform overlays the location, rotation and scale arguments on base.
func Transform(args registry.Args, base host.Transform) host.Transform {
	if v, ok := args.Vector("location"); ok {
		base.Location = v
	}
	if v, ok := args.Vector("rotation"); ok {
		base.Rotation = v
	}
	if v, ok := args.Vector("scale"); ok {
		base.Scale = v
	}
	return base
}

// Summaries lists the path, name and class of each asset.
func Summaries(assets []*host.Asset) []map[string]any {
	out := make([]map[string]any, 0, len(assets))
	for _, a := range assets {
		out = append(out, map[string]any{
			"path":  a.Path,
			"name":  a.Name(),
			"class": a.Class,
		})
	}
	return out
}
