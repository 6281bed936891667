package render

import (
	"strconv"
	"strings"

	"github.com/dukex/flowgen/pkg/models"
)

// Display-name prefixes used by graphs that carry no roles.
var namePrefixes = []string{
	"AI Analysis: ",
	"Human Approval: ",
	"Process AI Response: ",
	"Notify Human: ",
}

// StepText reconstructs a numbered step list by walking the chain from the
// trigger. Each step contributes one line; support nodes such as transforms
// and approval gates are folded into their step. The result is lossy and
// never fails: a graph without a trigger yields an empty string.
func StepText(g *models.GeneratedGraph) string {
	lines := StepLines(g)
	if len(lines) == 0 {
		return ""
	}

	return strings.Join(lines, "\n")
}

// StepLines is StepText split into lines.
func StepLines(g *models.GeneratedGraph) []string {
	lines := make([]string, 0)

	start, ok := findTrigger(g)
	if !ok {
		return lines
	}

	visited := map[string]bool{start.ID: true}
	current := start.ID

	for {
		next, ok := g.Connections.Next(current)
		if !ok || visited[next] {
			return lines
		}

		visited[next] = true
		current = next

		node, ok := g.NodeByID(next)
		if !ok {
			continue
		}

		if line, ok := stepLine(node); ok {
			lines = append(lines, strconv.Itoa(len(lines)+1)+". "+line)
		}
	}
}

func findTrigger(g *models.GeneratedGraph) (*models.GraphNode, bool) {
	if g == nil {
		return nil, false
	}

	if triggers := g.NodesByRole(models.RoleTrigger); len(triggers) > 0 {
		return triggers[0], true
	}

	return g.NodeByName(models.TriggerNodeName)
}

func stepLine(node *models.GraphNode) (string, bool) {
	if node.Role == "" {
		return legacyStepLine(node)
	}

	label := node.Step
	if label == "" {
		label = cleanName(node.Name)
	}

	switch node.Role {
	case models.RoleAI:
		return label + " (AI)", true
	case models.RoleHuman:
		return label + " (Human)", true
	default:
		return "", false
	}
}

// legacyStepLine recovers a step from the display name alone.
func legacyStepLine(node *models.GraphNode) (string, bool) {
	name := cleanName(node.Name)
	if name == "" || strings.Contains(name, "Trigger") || strings.Contains(name, "Response") {
		return "", false
	}

	if strings.Contains(strings.ToLower(node.Name), "ai") {
		return name + " (AI)", true
	}

	return name + " (Human)", true
}

// cleanName strips the known prefixes and the trailing "(Platform)" suffix.
func cleanName(name string) string {
	for _, prefix := range namePrefixes {
		name = strings.TrimPrefix(name, prefix)
	}

	if open := strings.LastIndex(name, " ("); open >= 0 && strings.HasSuffix(name, ")") {
		name = name[:open]
	}

	return strings.TrimSpace(name)
}

func roleOf(node *models.GraphNode) models.NodeRole {
	if node.Role != "" {
		return node.Role
	}

	switch {
	case strings.Contains(node.Name, "ai"), strings.Contains(node.Name, "AI"):
		return models.RoleAI
	case strings.Contains(node.Name, "human"), strings.Contains(node.Name, "Human"):
		return models.RoleHuman
	default:
		return ""
	}
}
