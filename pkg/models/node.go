// Package models defines the automation graph produced from parsed workflow steps.
package models

// NodeRole tags what a node does in the generated chain.
type NodeRole string

const (
	RoleTrigger   NodeRole = "trigger"
	RoleAI        NodeRole = "ai"
	RoleTransform NodeRole = "transform"
	RoleHuman     NodeRole = "human"
	RoleApproval  NodeRole = "approval"
	RoleResponse  NodeRole = "response"
	RoleError     NodeRole = "error"
)

// Fixed boundary node identifiers.
const (
	TriggerNodeID  = "workflow_trigger"
	ResponseNodeID = "workflow_response"
	ErrorNodeID    = "error_handler"

	TriggerNodeName  = "Workflow Trigger"
	ResponseNodeName = "Workflow Response"
	ErrorNodeName    = "Error Handler"
)

// Position is the (x, y) layout coordinate of a node.
type Position [2]int

// X returns the horizontal coordinate.
func (p Position) X() int { return p[0] }

// Y returns the vertical coordinate.
func (p Position) Y() int { return p[1] }

// GraphNode is one unit of work in the generated automation graph.
type GraphNode struct {
	ID          string         `json:"id"                   validate:"required"`
	Name        string         `json:"name"                 validate:"required,min=1"`
	Type        string         `json:"type"                 validate:"required"`
	TypeVersion float64        `json:"typeVersion"`
	Position    Position       `json:"position"`
	Parameters  map[string]any `json:"parameters"`
	Role        NodeRole       `json:"role,omitempty"`
	Step        string         `json:"step,omitempty"` // Label of the step that produced the node
}

// Edge points at the target of a connection.
type Edge struct {
	Node string `json:"node"`
}

// Connections maps a source node id to its ordered targets (single output port).
type Connections map[string][]Edge

// Add appends a directed edge from source to target.
func (c Connections) Add(source, target string) {
	c[source] = append(c[source], Edge{Node: target})
}

// Next returns the first target of source, if any.
func (c Connections) Next(source string) (string, bool) {
	targets := c[source]
	if len(targets) == 0 {
		return "", false
	}

	return targets[0].Node, true
}

// GeneratedGraph is the whole-graph output of a generation call.
type GeneratedGraph struct {
	Name        string         `json:"name"`
	Nodes       []*GraphNode   `json:"nodes"`
	Connections Connections    `json:"connections"`
	Settings    map[string]any `json:"settings"`
	Tags        []string       `json:"tags"`
}

// NodeByID returns the node with the given id.
func (g *GeneratedGraph) NodeByID(id string) (*GraphNode, bool) {
	if g == nil {
		return nil, false
	}

	for _, node := range g.Nodes {
		if node != nil && node.ID == id {
			return node, true
		}
	}

	return nil, false
}

// NodeByName returns the first node with the given display name.
func (g *GeneratedGraph) NodeByName(name string) (*GraphNode, bool) {
	if g == nil {
		return nil, false
	}

	for _, node := range g.Nodes {
		if node != nil && node.Name == name {
			return node, true
		}
	}

	return nil, false
}

// NodesByRole returns the nodes carrying the given role, in node order.
func (g *GeneratedGraph) NodesByRole(role NodeRole) []*GraphNode {
	if g == nil {
		return nil
	}

	nodes := make([]*GraphNode, 0)

	for _, node := range g.Nodes {
		if node != nil && node.Role == role {
			nodes = append(nodes, node)
		}
	}

	return nodes
}

// Predecessors returns the ids of nodes with an edge into target.
func (g *GeneratedGraph) Predecessors(target string) []string {
	if g == nil {
		return nil
	}

	sources := make([]string, 0)

	for _, node := range g.Nodes {
		if node == nil {
			continue
		}

		for _, edge := range g.Connections[node.ID] {
			if edge.Node == target {
				sources = append(sources, node.ID)
			}
		}
	}

	return sources
}

// EdgeCount returns the total number of edges in the graph.
func (g *GeneratedGraph) EdgeCount() int {
	if g == nil {
		return 0
	}

	count := 0
	for _, targets := range g.Connections {
		count += len(targets)
	}

	return count
}
