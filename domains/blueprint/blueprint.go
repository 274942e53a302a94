// Package blueprint edits Blueprint assets: variables, functions, graph
// nodes, pin links and compilation.
package blueprint

import (
	"context"
	"fmt"

	"github.com/wricardo/mcp-training/editorbridge/bridge/executor"
	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/domains/kit"
	"github.com/wricardo/mcp-training/editorbridge/host"
)

const Domain = "blueprint"

type Module struct {
	host *host.Host
}

func New(h *host.Host) *Module {
	return &Module{host: h}
}

func (m *Module) Domain() string { return Domain }

func (m *Module) Descriptors() []registry.Descriptor {
	h := m.host
	bpPath := kit.Required("blueprint_path", registry.TypeString, "Blueprint asset path")
	graph := kit.Optional("graph_name", registry.TypeString, "Graph name, default EventGraph")
	linkParams := []registry.Param{
		bpPath,
		kit.Required("source_node", registry.TypeString, "Source node id"),
		kit.Required("source_pin", registry.TypeString, "Output pin on the source node"),
		kit.Required("target_node", registry.TypeString, "Target node id"),
		kit.Required("target_pin", registry.TypeString, "Input pin on the target node"),
		graph,
	}

	return []registry.Descriptor{
		{
			Name:        "blueprint.create",
			Description: "Create a Blueprint asset",
			Params: []registry.Param{
				bpPath,
				kit.Optional("parent_class", registry.TypeString, "Parent class, default Actor"),
			},
			Handler: kit.OnHost(h, m.create),
		},
		{
			Name:        "blueprint.inspect",
			Description: "Show variables, functions, graphs, nodes and links",
			Params:      []registry.Param{bpPath},
			Handler:     kit.OnHost(h, m.inspect),
		},
		{
			Name:        "blueprint.add_variable",
			Description: "Add a member variable",
			Params: []registry.Param{
				bpPath,
				kit.Required("variable_name", registry.TypeString, "Variable name"),
				kit.Required("variable_type", registry.TypeString, "bool, int, float, string, vector, ..."),
				kit.Optional("default_value", registry.TypeAny, "Default value"),
			},
			Handler: kit.OnHost(h, m.addVariable),
		},
		{
			Name:        "blueprint.remove_variable",
			Description: "Remove a member variable",
			Params: []registry.Param{
				bpPath,
				kit.Required("variable_name", registry.TypeString, "Variable name"),
			},
			Handler: kit.OnHost(h, m.removeVariable),
		},
		{
			Name:        "blueprint.add_function",
			Description: "Add a function graph",
			Params: []registry.Param{
				bpPath,
				kit.Required("function_name", registry.TypeString, "Function name"),
			},
			Handler: kit.OnHost(h, m.addFunction),
		},
		{
			Name:        "blueprint.add_node",
			Description: "Add a node to a graph",
			Params: []registry.Param{
				bpPath,
				kit.Required("node_class", registry.TypeString, "Node class, e.g. PrintString or Branch"),
				graph,
			},
			Handler: kit.OnHost(h, m.addNode),
		},
		{
			Name:        "blueprint.delete_node",
			Description: "Delete a node and its links",
			Params: []registry.Param{
				bpPath,
				kit.Required("node_id", registry.TypeString, "Node id"),
				graph,
			},
			Handler: kit.OnHost(h, m.deleteNode),
		},
		{
			Name:        "blueprint.connect_pins",
			Description: "Link an output pin to an input pin of the same kind",
			Params:      linkParams,
			Handler:     kit.OnHost(h, m.connect),
		},
		{
			Name:        "blueprint.disconnect_pins",
			Description: "Remove a pin link",
			Params:      linkParams,
			Handler:     kit.OnHost(h, m.disconnect),
		},
		{
			Name:        "blueprint.compile",
			Description: "Compile and report errors and warnings",
			Params:      []registry.Param{bpPath},
			Handler:     kit.OnHost(h, m.compile),
		},
	}
}

func (m *Module) blueprint(args registry.Args) (*host.Asset, error) {
	return m.host.Project.GetClass(args.String("blueprint_path"), host.ClassBlueprint)
}

func (m *Module) create(ctx context.Context, args registry.Args) (any, error) {
	path, err := kit.AssetPath(args, "blueprint_path")
	if err != nil {
		return nil, err
	}
	parent := args.StringOr("parent_class", host.DefaultParent)
	a := &host.Asset{
		Path:       path,
		Class:      host.ClassBlueprint,
		Properties: map[string]any{"parent_class": parent},
	}
	if err := m.host.Project.Add(a); err != nil {
		return nil, err
	}
	m.host.Log.Add(host.CategoryBlueprint, host.VerbosityLog, "Created Blueprint %s (parent %s)", path, parent)
	return a.Blueprint.Describe(a.Path), nil
}

func (m *Module) inspect(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.blueprint(args)
	if err != nil {
		return nil, err
	}
	return a.Blueprint.Describe(a.Path), nil
}

func (m *Module) addVariable(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.blueprint(args)
	if err != nil {
		return nil, err
	}
	name, typ := args.String("variable_name"), args.String("variable_type")
	if err := a.Blueprint.AddVariable(name, typ, args["default_value"]); err != nil {
		return nil, err
	}
	return map[string]any{"blueprint_path": a.Path, "variable_name": name, "variable_type": typ, "status": a.Blueprint.Status}, nil
}

func (m *Module) removeVariable(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.blueprint(args)
	if err != nil {
		return nil, err
	}
	name := args.String("variable_name")
	if err := a.Blueprint.RemoveVariable(name); err != nil {
		return nil, err
	}
	return map[string]any{"blueprint_path": a.Path, "removed": name}, nil
}

func (m *Module) addFunction(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.blueprint(args)
	if err != nil {
		return nil, err
	}
	g, err := a.Blueprint.AddFunction(args.String("function_name"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"blueprint_path": a.Path, "function_name": g.Name, "entry_node": g.Nodes[0].ID}, nil
}

func (m *Module) addNode(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.blueprint(args)
	if err != nil {
		return nil, err
	}
	n, err := a.Blueprint.AddNode(args.String("graph_name"), args.String("node_class"))
	if err != nil {
		return nil, err
	}
	return host.Node{ID: n.ID, Class: n.Class, Pins: append([]host.Pin(nil), n.Pins...)}, nil
}

func (m *Module) deleteNode(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.blueprint(args)
	if err != nil {
		return nil, err
	}
	id := args.String("node_id")
	if err := a.Blueprint.DeleteNode(args.String("graph_name"), id); err != nil {
		return nil, err
	}
	return map[string]any{"blueprint_path": a.Path, "deleted": id}, nil
}

func link(args registry.Args) host.Link {
	return host.Link{
		SourceNode: args.String("source_node"),
		SourcePin:  args.String("source_pin"),
		TargetNode: args.String("target_node"),
		TargetPin:  args.String("target_pin"),
	}
}

func (m *Module) connect(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.blueprint(args)
	if err != nil {
		return nil, err
	}
	l := link(args)
	if err := a.Blueprint.Connect(args.String("graph_name"), l); err != nil {
		return nil, err
	}
	return map[string]any{"blueprint_path": a.Path, "connected": l}, nil
}

func (m *Module) disconnect(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.blueprint(args)
	if err != nil {
		return nil, err
	}
	l := link(args)
	if err := a.Blueprint.Disconnect(args.String("graph_name"), l); err != nil {
		return nil, err
	}
	return map[string]any{"blueprint_path": a.Path, "disconnected": l}, nil
}

func (m *Module) compile(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.blueprint(args)
	if err != nil {
		return nil, err
	}
	report := a.Blueprint.Compile()
	if len(report.Errors) > 0 {
		m.host.Log.Add(host.CategoryBlueprint, host.VerbosityError, "Compile of %s failed with %d errors", a.Path, len(report.Errors))
		return nil, executor.WithDetail(
			fmt.Errorf("compile of %s failed with %d errors", a.Path, len(report.Errors)),
			map[string]any{"errors": report.Errors, "warnings": report.Warnings},
		)
	}
	m.host.Log.Add(host.CategoryBlueprint, host.VerbosityLog, "Compiled %s (%d warnings)", a.Path, len(report.Warnings))
	return map[string]any{"blueprint_path": a.Path, "status": report.Status, "warnings": report.Warnings}, nil
}
