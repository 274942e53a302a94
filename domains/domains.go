// Package domains assembles the capability domain modules and registers the
// enabled ones.
package domains

import (
	"fmt"
	"slices"
	"strings"

	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/domains/actor"
	"github.com/wricardo/mcp-training/editorbridge/domains/asset"
	"github.com/wricardo/mcp-training/editorbridge/domains/blueprint"
	"github.com/wricardo/mcp-training/editorbridge/domains/editor"
	"github.com/wricardo/mcp-training/editorbridge/domains/gas"
	"github.com/wricardo/mcp-training/editorbridge/domains/level"
	"github.com/wricardo/mcp-training/editorbridge/domains/material"
	"github.com/wricardo/mcp-training/editorbridge/domains/mesh"
	"github.com/wricardo/mcp-training/editorbridge/domains/niagara"
	"github.com/wricardo/mcp-training/editorbridge/domains/pcg"
	"github.com/wricardo/mcp-training/editorbridge/host"
)

// Names lists every domain in registration order.
var Names = []string{
	asset.Domain,
	blueprint.Domain,
	pcg.Domain,
	gas.Domain,
	niagara.Domain,
	mesh.Domain,
	material.Domain,
	actor.Domain,
	level.Domain,
	editor.Domain,
}

// Known reports whether name is a domain.
func Known(name string) bool {
	return slices.Contains(Names, strings.ToLower(name))
}

// Options select and wire the modules.
type Options struct {
	Host     *host.Host
	Catalog  editor.Catalog
	Stats    editor.StatsSource
	Version  string
	Disabled []string
}

// Modules builds the enabled modules in registration order. Unknown names
// in Disabled are an error.
func Modules(opts Options) ([]registry.Module, error) {
	disabled := make(map[string]bool, len(opts.Disabled))
	for _, name := range opts.Disabled {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if !Known(name) {
			return nil, fmt.Errorf("unknown domain %q (known: %s)", name, strings.Join(Names, ", "))
		}
		disabled[name] = true
	}

	all := []registry.Module{
		asset.New(opts.Host),
		blueprint.New(opts.Host),
		pcg.New(opts.Host),
		gas.New(opts.Host),
		niagara.New(opts.Host),
		mesh.New(opts.Host),
		material.New(opts.Host),
		actor.New(opts.Host),
		level.New(opts.Host),
		editor.New(opts.Host, opts.Catalog, opts.Stats, opts.Version),
	}

	enabled := make([]registry.Module, 0, len(all))
	for _, m := range all {
		if !disabled[m.Domain()] {
			enabled = append(enabled, m)
		}
	}
	return enabled, nil
}

// Register adds the enabled modules to r and returns their domain names.
// r is not sealed; the caller seals it once registration is complete.
func Register(r *registry.Registry, opts Options) ([]string, error) {
	if opts.Catalog == nil {
		opts.Catalog = r
	}
	modules, err := Modules(opts)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(modules))
	for _, m := range modules {
		if err := r.RegisterModule(m); err != nil {
			return nil, err
		}
		names = append(names, m.Domain())
	}
	return names, nil
}
