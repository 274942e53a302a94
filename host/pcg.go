package host

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProtectedNode = errors.New("input and output nodes cannot be removed")
	ErrGraphCycle    = errors.New("connection would create a cycle")
)

const (
	pcgInputNode  = "Input"
	pcgOutputNode = "Output"
	defaultPCGPin = "Out"
	defaultPCGIn  = "In"
)

type PCGNode struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	SettingsClass string `json:"settings_class"`
}

type PCGEdge struct {
	Source    string `json:"source_node"`
	SourcePin string `json:"source_pin"`
	Target    string `json:"target_node"`
	TargetPin string `json:"target_pin"`
}

// PCGGraph is a procedural generation graph. Every graph has an Input and
// an Output node.
type PCGGraph struct {
	Nodes      []PCGNode
	Edges      []PCGEdge
	Parameters map[string]any
	nextNode   int
}

func NewPCGGraph() *PCGGraph {
	return &PCGGraph{
		Nodes: []PCGNode{
			{ID: pcgInputNode, Label: pcgInputNode, SettingsClass: "PCGGraphInputSettings"},
			{ID: pcgOutputNode, Label: pcgOutputNode, SettingsClass: "PCGGraphOutputSettings"},
		},
		Parameters: map[string]any{},
	}
}

func (g *PCGGraph) find(id string) (int, bool) {
	for i, n := range g.Nodes {
		if strings.EqualFold(n.ID, id) {
			return i, true
		}
	}
	return -1, false
}

// AddNode appends a node. The label defaults to the settings class.
func (g *PCGGraph) AddNode(settingsClass, label string) PCGNode {
	g.nextNode++
	if label == "" {
		label = strings.TrimSuffix(settingsClass, "Settings")
	}
	n := PCGNode{
		ID:            fmt.Sprintf("Node_%d", g.nextNode),
		Label:         label,
		SettingsClass: settingsClass,
	}
	g.Nodes = append(g.Nodes, n)
	return n
}

// RemoveNode deletes a node and its edges.
func (g *PCGGraph) RemoveNode(id string) error {
	i, ok := g.find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	id = g.Nodes[i].ID
	if id == pcgInputNode || id == pcgOutputNode {
		return fmt.Errorf("%w: %s", ErrProtectedNode, id)
	}
	g.Nodes = append(g.Nodes[:i], g.Nodes[i+1:]...)

	edges := g.Edges[:0]
	for _, e := range g.Edges {
		if e.Source != id && e.Target != id {
			edges = append(edges, e)
		}
	}
	g.Edges = edges
	return nil
}

// Connect adds an edge. Self loops, duplicates and cycles are rejected.
func (g *PCGGraph) Connect(e PCGEdge) (PCGEdge, error) {
	si, ok := g.find(e.Source)
	if !ok {
		return e, fmt.Errorf("%w: %s", ErrNodeNotFound, e.Source)
	}
	ti, ok := g.find(e.Target)
	if !ok {
		return e, fmt.Errorf("%w: %s", ErrNodeNotFound, e.Target)
	}
	e.Source, e.Target = g.Nodes[si].ID, g.Nodes[ti].ID
	if e.SourcePin == "" {
		e.SourcePin = defaultPCGPin
	}
	if e.TargetPin == "" {
		e.TargetPin = defaultPCGIn
	}

	switch {
	case e.Source == e.Target:
		return e, fmt.Errorf("%w: a node cannot connect to itself", ErrInvalidConnection)
	case e.Source == pcgOutputNode:
		return e, fmt.Errorf("%w: the Output node has no output pins", ErrInvalidConnection)
	case e.Target == pcgInputNode:
		return e, fmt.Errorf("%w: the Input node has no input pins", ErrInvalidConnection)
	}
	for _, existing := range g.Edges {
		if existing == e {
			return e, fmt.Errorf("%w: edge already exists", ErrInvalidConnection)
		}
	}
	if g.reaches(e.Target, e.Source) {
		return e, fmt.Errorf("%w: %s -> %s", ErrGraphCycle, e.Source, e.Target)
	}

	g.Edges = append(g.Edges, e)
	return e, nil
}

func (g *PCGGraph) reaches(from, to string) bool {
	seen := map[string]bool{}
	stack := []string{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == to {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		for _, e := range g.Edges {
			if e.Source == cur {
				stack = append(stack, e.Target)
			}
		}
	}
	return false
}

// ExecutionOrder returns node ids in dependency order.
func (g *PCGGraph) ExecutionOrder() []string {
	indegree := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		indegree[n.ID] = 0
	}
	for _, e := range g.Edges {
		indegree[e.Target]++
	}

	var ready, order []string
	for _, n := range g.Nodes {
		if indegree[n.ID] == 0 {
			ready = append(ready, n.ID)
		}
	}
	for len(ready) > 0 {
		cur := ready[0]
		ready = ready[1:]
		order = append(order, cur)
		for _, e := range g.Edges {
			if e.Source != cur {
				continue
			}
			indegree[e.Target]--
			if indegree[e.Target] == 0 {
				ready = append(ready, e.Target)
			}
		}
	}
	return order
}

// PCGGraphInfo is a detached copy of a graph.
type PCGGraphInfo struct {
	Path       string         `json:"path"`
	Nodes      []PCGNode      `json:"nodes"`
	Edges      []PCGEdge      `json:"edges"`
	Parameters map[string]any `json:"parameters"`
}

func (g *PCGGraph) Describe(path string) PCGGraphInfo {
	params := make(map[string]any, len(g.Parameters))
	for k, v := range g.Parameters {
		params[k] = v
	}
	return PCGGraphInfo{
		Path:       path,
		Nodes:      append([]PCGNode{}, g.Nodes...),
		Edges:      append([]PCGEdge{}, g.Edges...),
		Parameters: params,
	}
}

// PCGComponent binds a graph to an actor.
type PCGComponent struct {
	Graph       string   `json:"graph"`
	Generated   bool     `json:"generated"`
	Generations int      `json:"generations"`
	LastOrder   []string `json:"last_execution_order,omitempty"`
}
