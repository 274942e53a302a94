package actor

import (
	"context"

	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/domains/kit"
)

// components reports the root scene component with its attached children,
// and the components that carry no transform.
func (m *Module) components(ctx context.Context, args registry.Args) (any, error) {
	w, a, err := kit.ResolveActor(m.host, args)
	if err != nil {
		return nil, err
	}

	var children []map[string]any
	if a.Niagara != nil {
		children = append(children, map[string]any{
			"name":    "NiagaraComponent",
			"class":   "NiagaraComponent",
			"visible": a.Niagara.Active,
			"asset":   a.Niagara.System,
		})
	}
	if a.Mesh != nil {
		children = append(children, map[string]any{
			"name":          "ProceduralMeshComponent",
			"class":         "ProceduralMeshComponent",
			"visible":       true,
			"section_count": len(a.Mesh.Sections),
		})
	}
	root := map[string]any{
		"name":    "DefaultSceneRoot",
		"class":   "SceneComponent",
		"visible": true,
	}
	if len(children) > 0 {
		root["children"] = children
	}
	if args.Bool("include_transforms", false) {
		root["transform"] = a.Transform
	}

	nonScene := []map[string]any{}
	if a.Abilities != nil {
		nonScene = append(nonScene, map[string]any{
			"name":          "AbilitySystemComponent",
			"class":         "AbilitySystemComponent",
			"is_active":     true,
			"ability_count": len(a.Abilities.Abilities),
		})
	}
	if a.PCG != nil {
		nonScene = append(nonScene, map[string]any{
			"name":      "PCGComponent",
			"class":     "PCGComponent",
			"is_active": a.PCG.Generated,
			"asset":     a.PCG.Graph,
		})
	}

	return map[string]any{
		"world":                w.Kind,
		"actor":                a.Label,
		"class":                a.Class,
		"path":                 a.Path,
		"components":           []map[string]any{root},
		"non_scene_components": nonScene,
		"total_components":     1 + len(children) + len(nonScene),
	}, nil
}
