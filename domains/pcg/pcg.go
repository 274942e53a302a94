// Package pcg edits procedural content generation graphs and runs them on
// actors.
package pcg

import (
	"context"
	"fmt"

	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/domains/kit"
	"github.com/wricardo/mcp-training/editorbridge/host"
)

const Domain = "pcg"

type Module struct {
	host *host.Host
}

func New(h *host.Host) *Module {
	return &Module{host: h}
}

func (m *Module) Domain() string { return Domain }

func (m *Module) Descriptors() []registry.Descriptor {
	h := m.host
	graphPath := kit.Required("graph_path", registry.TypeString, "PCG graph asset path")
	actorPath := kit.Required("actor_path", registry.TypeString, "Actor label or path")

	return []registry.Descriptor{
		{
			Name:        "pcg.create_graph",
			Description: "Create a PCG graph asset with Input and Output nodes",
			Params:      []registry.Param{graphPath},
			Handler:     kit.OnHost(h, m.createGraph),
		},
		{
			Name:        "pcg.get_graph_info",
			Description: "Show the nodes, edges and parameters of a graph",
			Params:      []registry.Param{graphPath},
			Handler:     kit.OnHost(h, m.graphInfo),
		},
		{
			Name:        "pcg.add_node",
			Description: "Add a node with a settings class",
			Params: []registry.Param{
				graphPath,
				kit.Required("settings_class", registry.TypeString, "Settings class, e.g. PCGSurfaceSamplerSettings"),
				kit.Optional("node_label", registry.TypeString, "Display label"),
			},
			Handler: kit.OnHost(h, m.addNode),
		},
		{
			Name:        "pcg.connect_nodes",
			Description: "Connect two nodes; cycles are rejected",
			Params: []registry.Param{
				graphPath,
				kit.Required("source_node", registry.TypeString, "Source node id"),
				kit.Required("target_node", registry.TypeString, "Target node id"),
				kit.Optional("source_pin", registry.TypeString, "Source pin, default Out"),
				kit.Optional("target_pin", registry.TypeString, "Target pin, default In"),
			},
			Handler: kit.OnHost(h, m.connect),
		},
		{
			Name:        "pcg.remove_node",
			Description: "Remove a node and its edges",
			Params: []registry.Param{
				graphPath,
				kit.Required("node_id", registry.TypeString, "Node id"),
			},
			Handler: kit.OnHost(h, m.removeNode),
		},
		{
			Name:        "pcg.set_parameter",
			Description: "Set a graph parameter",
			Params: []registry.Param{
				graphPath,
				kit.Required("parameter_name", registry.TypeString, "Parameter name"),
				kit.Required("value", registry.TypeAny, "Parameter value"),
			},
			Handler: kit.OnHost(h, m.setParameter),
		},
		{
			Name:        "pcg.attach",
			Description: "Attach a graph to an actor through a PCG component",
			Params:      []registry.Param{actorPath, graphPath, kit.World},
			Handler:     kit.OnHost(h, m.attach),
		},
		{
			Name:        "pcg.execute",
			Description: "Generate the actor's PCG graph",
			Params:      []registry.Param{actorPath, kit.World},
			Handler:     kit.OnHost(h, m.execute),
		},
		{
			Name:        "pcg.cleanup",
			Description: "Remove generated content from the actor",
			Params:      []registry.Param{actorPath, kit.World},
			Handler:     kit.OnHost(h, m.cleanup),
		},
	}
}

func (m *Module) graph(path string) (*host.Asset, error) {
	return m.host.Project.GetClass(path, host.ClassPCGGraph)
}

func (m *Module) createGraph(ctx context.Context, args registry.Args) (any, error) {
	path, err := kit.AssetPath(args, "graph_path")
	if err != nil {
		return nil, err
	}
	a := &host.Asset{Path: path, Class: host.ClassPCGGraph}
	if err := m.host.Project.Add(a); err != nil {
		return nil, err
	}
	return a.PCG.Describe(a.Path), nil
}

func (m *Module) graphInfo(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.graph(args.String("graph_path"))
	if err != nil {
		return nil, err
	}
	return a.PCG.Describe(a.Path), nil
}

func (m *Module) addNode(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.graph(args.String("graph_path"))
	if err != nil {
		return nil, err
	}
	return a.PCG.AddNode(args.String("settings_class"), args.String("node_label")), nil
}

func (m *Module) connect(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.graph(args.String("graph_path"))
	if err != nil {
		return nil, err
	}
	return a.PCG.Connect(host.PCGEdge{
		Source:    args.String("source_node"),
		SourcePin: args.String("source_pin"),
		Target:    args.String("target_node"),
		TargetPin: args.String("target_pin"),
	})
}

func (m *Module) removeNode(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.graph(args.String("graph_path"))
	if err != nil {
		return nil, err
	}
	id := args.String("node_id")
	if err := a.PCG.RemoveNode(id); err != nil {
		return nil, err
	}
	return map[string]any{"graph_path": a.Path, "removed": id}, nil
}

func (m *Module) setParameter(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.graph(args.String("graph_path"))
	if err != nil {
		return nil, err
	}
	name := args.String("parameter_name")
	a.PCG.Parameters[name] = args["value"]
	return map[string]any{"graph_path": a.Path, "parameter_name": name, "value": args["value"]}, nil
}

func (m *Module) attach(ctx context.Context, args registry.Args) (any, error) {
	_, actor, err := kit.ResolveActor(m.host, args)
	if err != nil {
		return nil, err
	}
	g, err := m.graph(args.String("graph_path"))
	if err != nil {
		return nil, err
	}
	actor.PCG = &host.PCGComponent{Graph: g.Path}
	return map[string]any{"actor_path": actor.Path, "graph_path": g.Path}, nil
}

func (m *Module) component(args registry.Args) (*host.Actor, *host.Asset, error) {
	_, actor, err := kit.ResolveActor(m.host, args)
	if err != nil {
		return nil, nil, err
	}
	if actor.PCG == nil {
		return nil, nil, fmt.Errorf("%w: %s has no PCG component", host.ErrNoComponent, actor.Label)
	}
	g, err := m.graph(actor.PCG.Graph)
	if err != nil {
		return nil, nil, err
	}
	return actor, g, nil
}

func (m *Module) execute(ctx context.Context, args registry.Args) (any, error) {
	actor, g, err := m.component(args)
	if err != nil {
		return nil, err
	}
	order := g.PCG.ExecutionOrder()
	c := actor.PCG
	c.Generated = true
	c.Generations++
	c.LastOrder = order
	return map[string]any{
		"actor_path":      actor.Path,
		"graph_path":      g.Path,
		"execution_order": append([]string(nil), order...),
		"generations":     c.Generations,
	}, nil
}

func (m *Module) cleanup(ctx context.Context, args registry.Args) (any, error) {
	actor, _, err := m.component(args)
	if err != nil {
		return nil, err
	}
	was := actor.PCG.Generated
	actor.PCG.Generated = false
	actor.PCG.LastOrder = nil
	return map[string]any{"actor_path": actor.Path, "cleaned": was}, nil
}
