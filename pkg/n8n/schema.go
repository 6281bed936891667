package n8n

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidWorkflow is returned when an export does not satisfy the import schema.
var ErrInvalidWorkflow = errors.New("workflow does not match n8n import schema")

var importSchema = map[string]any{
	"type":     "object",
	"required": []any{"name", "nodes", "connections"},
	"properties": map[string]any{
		"name": map[string]any{"type": "string", "minLength": 1},
		"nodes": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "name", "type", "typeVersion", "position", "parameters"},
				"properties": map[string]any{
					"id":          map[string]any{"type": "string", "minLength": 1},
					"name":        map[string]any{"type": "string", "minLength": 1},
					"type":        map[string]any{"type": "string", "minLength": 1},
					"typeVersion": map[string]any{"type": "number", "minimum": 1},
					"position": map[string]any{
						"type":     "array",
						"items":    map[string]any{"type": "number"},
						"minItems": 2,
						"maxItems": 2,
					},
					"parameters": map[string]any{"type": "object"},
				},
			},
		},
		"connections": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type":     "object",
				"required": []any{"main"},
				"properties": map[string]any{
					"main": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type":     "object",
								"required": []any{"node", "type", "index"},
								"properties": map[string]any{
									"node":  map[string]any{"type": "string", "minLength": 1},
									"type":  map[string]any{"type": "string"},
									"index": map[string]any{"type": "integer", "minimum": 0},
								},
							},
						},
					},
				},
			},
		},
		"settings": map[string]any{"type": "object"},
	},
}

// Validate checks w against the n8n import schema and that every connection
// references an existing node name.
func Validate(w *Workflow) error {
	if w == nil {
		return ErrNilGraph
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(importSchema), gojsonschema.NewGoLoader(w))
	if err != nil {
		return fmt.Errorf("failed to validate workflow: %w", err)
	}

	problems := make([]string, 0)
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}

	names := make(map[string]bool, len(w.Nodes))
	for _, node := range w.Nodes {
		if names[node.Name] {
			problems = append(problems, "duplicate node name: "+node.Name)
		}

		names[node.Name] = true
	}

	for source, outputs := range w.Connections {
		if !names[source] {
			problems = append(problems, "connection from unknown node: "+source)
		}

		for _, port := range outputs["main"] {
			for _, target := range port {
				if !names[target.Node] {
					problems = append(problems, "connection to unknown node: "+target.Node)
				}
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidWorkflow, strings.Join(problems, "; "))
	}

	return nil
}
