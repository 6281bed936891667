// Package n8n converts generated graphs into the n8n workflow import format.
package n8n

import (
	"errors"
	"strconv"

	"github.com/dukex/flowgen/pkg/models"
)

// ErrNilGraph is returned when exporting a nil graph.
var ErrNilGraph = errors.New("graph cannot be nil")

// Node is a node in the n8n import format.
type Node struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	TypeVersion float64        `json:"typeVersion"`
	Position    [2]int         `json:"position"`
	Parameters  map[string]any `json:"parameters"`
}

// Target is one connection target.
type Target struct {
	Node  string `json:"node"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// Outputs maps an output kind ("main") to its ports, each port holding its targets.
type Outputs map[string][][]Target

// Workflow is the importable n8n workflow document.
type Workflow struct {
	Name        string             `json:"name"`
	Nodes       []Node             `json:"nodes"`
	Connections map[string]Outputs `json:"connections"`
	Settings    map[string]any     `json:"settings"`
	Tags        []string           `json:"tags,omitempty"`
	Active      bool               `json:"active"`
}

// Export converts g to the n8n import format. n8n keys connections by node
// name, so duplicate names are made unique by appending " 2", " 3", ...
func Export(g *models.GeneratedGraph) (*Workflow, error) {
	if g == nil {
		return nil, ErrNilGraph
	}

	names := uniqueNames(g.Nodes)

	workflow := &Workflow{
		Name:        g.Name,
		Nodes:       make([]Node, 0, len(g.Nodes)),
		Connections: make(map[string]Outputs),
		Settings:    g.Settings,
		Tags:        g.Tags,
	}

	if workflow.Settings == nil {
		workflow.Settings = map[string]any{}
	}

	for _, node := range g.Nodes {
		if node == nil {
			continue
		}

		params := node.Parameters
		if params == nil {
			params = map[string]any{}
		}

		workflow.Nodes = append(workflow.Nodes, Node{
			ID:          node.ID,
			Name:        names[node.ID],
			Type:        node.Type,
			TypeVersion: node.TypeVersion,
			Position:    node.Position,
			Parameters:  params,
		})
	}

	for _, node := range g.Nodes {
		if node == nil {
			continue
		}

		edges := g.Connections[node.ID]
		if len(edges) == 0 {
			continue
		}

		targets := make([]Target, 0, len(edges))

		for _, edge := range edges {
			name, ok := names[edge.Node]
			if !ok {
				continue
			}

			targets = append(targets, Target{Node: name, Type: "main", Index: 0})
		}

		if len(targets) > 0 {
			workflow.Connections[names[node.ID]] = Outputs{"main": {targets}}
		}
	}

	return workflow, nil
}

func uniqueNames(nodes []*models.GraphNode) map[string]string {
	names := make(map[string]string, len(nodes))
	used := make(map[string]int, len(nodes))

	for _, node := range nodes {
		if node == nil {
			continue
		}

		name := node.Name
		if used[name] > 0 {
			for n := used[name] + 1; ; n++ {
				candidate := name + " " + strconv.Itoa(n)
				if used[candidate] == 0 {
					used[name] = n
					name = candidate

					break
				}
			}
		}

		used[name]++
		names[node.ID] = name
	}

	return names
}
