// Package asset exposes the project content registry: listing, searching,
// dependency queries, asset creation and deletion, and DataTable rows.
package asset

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/wricardo/mcp-training/editorbridge/bridge/executor"
	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/domains/kit"
	"github.com/wricardo/mcp-training/editorbridge/host"
)

const Domain = "asset"

type Module struct {
	host *host.Host
}

func New(h *host.Host) *Module {
	return &Module{host: h}
}

func (m *Module) Domain() string { return Domain }

func (m *Module) Descriptors() []registry.Descriptor {
	h := m.host
	descriptors := []registry.Descriptor{
		{
			Name:        "asset.list",
			Description: "List assets under a content path",
			Params: []registry.Param{
				kit.Optional("path", registry.TypeString, "Content directory, default /Game"),
				kit.Optional("recursive", registry.TypeBoolean, "Include subdirectories, default true"),
				kit.Optional("class", registry.TypeString, "Only assets of this class"),
			},
			Handler: kit.OnHost(h, m.list),
		},
		{
			Name:        "asset.info",
			Description: "Describe one asset",
			Params:      []registry.Param{kit.Required("asset_path", registry.TypeString, "Asset path")},
			Handler:     kit.OnHost(h, m.info),
		},
		{
			Name:        "asset.search",
			Description: "Search assets by class, path and name",
			Params: []registry.Param{
				kit.Optional("class_filter", registry.TypeString, "Asset class"),
				kit.Optional("path_filter", registry.TypeString, "Content directory"),
				kit.Optional("name_filter", registry.TypeString, "Case-insensitive name substring"),
				kit.Optional("recursive_path", registry.TypeBoolean, "Search below path_filter, default true"),
			},
			Handler: kit.OnHost(h, m.search),
		},
		{
			Name:        "asset.dependencies",
			Description: "List the assets an asset depends on",
			Params:      []registry.Param{kit.Required("asset_path", registry.TypeString, "Asset path")},
			Handler:     kit.OnHost(h, m.dependencies),
		},
		{
			Name:        "asset.referencers",
			Description: "List the assets that depend on an asset",
			Params:      []registry.Param{kit.Required("asset_path", registry.TypeString, "Asset path")},
			Handler:     kit.OnHost(h, m.referencers),
		},
		{
			Name:        "asset.create",
			Description: "Create an asset of a class",
			Params: []registry.Param{
				kit.Required("asset_path", registry.TypeString, "Path of the new asset"),
				kit.Required("class", registry.TypeString, "Asset class, e.g. Material or Blueprint"),
				kit.Optional("dependencies", registry.TypeArray, "Paths of existing assets it depends on"),
			},
			Handler: kit.OnHost(h, m.create),
		},
		{
			Name:        "asset.delete",
			Description: "Delete an asset; referenced assets need force",
			Params: []registry.Param{
				kit.Required("asset_path", registry.TypeString, "Asset path"),
				kit.Optional("force", registry.TypeBoolean, "Delete even if referenced"),
			},
			Handler: kit.OnHost(h, m.delete),
		},
	}
	return append(descriptors, m.dataTableDescriptors()...)
}

func (m *Module) list(ctx context.Context, args registry.Args) (any, error) {
	dir := args.StringOr("path", "/Game")
	assets := m.host.Project.List(dir, args.Bool("recursive", true), args.String("class"))
	return map[string]any{
		"path":   dir,
		"assets": kit.Summaries(assets),
		"count":  len(assets),
	}, nil
}

func (m *Module) info(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.host.Project.Get(args.String("asset_path"))
	if err != nil {
		return nil, err
	}
	return Describe(m.host.Project, a)
}

// Describe is the detailed view shared by info and create.
func Describe(p *host.Project, a *host.Asset) (map[string]any, error) {
	refs, err := p.Referencers(a.Path)
	if err != nil {
		return nil, err
	}
	deps, err := p.Dependencies(a.Path)
	if err != nil {
		return nil, err
	}
	out := map[string]any{
		"path":         a.Path,
		"name":         a.Name(),
		"package_path": a.PackagePath(),
		"object_path":  a.ObjectPath(),
		"class":        a.Class,
		"dependencies": nonNil(deps),
		"referencers":  nonNil(refs),
		"tags":         nonNil(append([]string(nil), a.Tags...)),
	}
	if len(a.Properties) > 0 {
		props := make(map[string]any, len(a.Properties))
		for k, v := range a.Properties {
			props[k] = v
		}
		out["properties"] = props
	}
	return out, nil
}

func (m *Module) search(ctx context.Context, args registry.Args) (any, error) {
	assets := m.host.Project.Search(host.SearchFilter{
		Class:     args.String("class_filter"),
		Path:      args.String("path_filter"),
		Name:      args.String("name_filter"),
		Recursive: args.Bool("recursive_path", true),
	})
	return map[string]any{
		"assets": kit.Summaries(assets),
		"count":  len(assets),
	}, nil
}

func (m *Module) dependencies(ctx context.Context, args registry.Args) (any, error) {
	deps, err := m.host.Project.Dependencies(args.String("asset_path"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"asset_path": host.NormalizeAssetPath(args.String("asset_path")), "dependencies": nonNil(deps)}, nil
}

func (m *Module) referencers(ctx context.Context, args registry.Args) (any, error) {
	refs, err := m.host.Project.Referencers(args.String("asset_path"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"asset_path": host.NormalizeAssetPath(args.String("asset_path")), "referencers": nonNil(refs)}, nil
}

func (m *Module) create(ctx context.Context, args registry.Args) (any, error) {
	path, err := kit.AssetPath(args, "asset_path")
	if err != nil {
		return nil, err
	}
	deps := args.Strings("dependencies")
	for _, dep := range deps {
		if _, err := m.host.Project.Get(dep); err != nil {
			return nil, fmt.Errorf("dependency: %w", err)
		}
	}

	a := &host.Asset{Path: path, Class: args.String("class"), Dependencies: deps}
	if err := m.host.Project.Add(a); err != nil {
		return nil, err
	}
	m.host.Log.Add(host.CategoryAsset, host.VerbosityLog, "Created %s %s", a.Class, a.Path)
	return Describe(m.host.Project, a)
}

func (m *Module) delete(ctx context.Context, args registry.Args) (any, error) {
	path := host.NormalizeAssetPath(args.String("asset_path"))
	refs, err := m.host.Project.Delete(path, args.Bool("force", false))
	if errors.Is(err, host.ErrAssetReferenced) {
		return nil, executor.WithDetail(err, map[string]any{"referencers": refs})
	}
	if err != nil {
		return nil, err
	}

	sort.Strings(refs)
	m.host.Log.Add(host.CategoryAsset, host.VerbosityWarning, "Deleted %s", path)
	return map[string]any{
		"deleted":            path,
		"cleared_references": nonNil(refs),
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
