// Package render turns generated automation graphs into diagram text and step text.
package render

import (
	"regexp"
	"slices"
	"strings"

	"github.com/dukex/flowgen/pkg/models"
)

var (
	unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9_]`)
	labelStripper = strings.NewReplacer("[", "", "]", "", "(", "", ")", "", "{", "", "}", "", `"`, "'")
)

const (
	classAI    = "aiNode"
	classHuman = "humanNode"
)

// Mermaid renders g as a left-to-right Mermaid flowchart. It never fails;
// a nil or empty graph yields only the header.
func Mermaid(g *models.GeneratedGraph) string {
	var sb strings.Builder

	sb.WriteString("graph LR\n")

	if g == nil {
		return sb.String()
	}

	usesClasses := false

	for _, node := range g.Nodes {
		if node == nil {
			continue
		}

		sb.WriteString("    ")
		sb.WriteString(sanitizeID(node.ID))
		sb.WriteString(`["`)
		sb.WriteString(sanitizeLabel(node.Name))
		sb.WriteString(`"]`)

		if class := styleClass(node); class != "" {
			sb.WriteString(":::")
			sb.WriteString(class)

			usesClasses = true
		}

		sb.WriteString("\n")
	}

	for _, source := range edgeSources(g) {
		for _, edge := range g.Connections[source] {
			sb.WriteString("    ")
			sb.WriteString(sanitizeID(source))
			sb.WriteString(" --> ")
			sb.WriteString(sanitizeID(edge.Node))
			sb.WriteString("\n")
		}
	}

	if usesClasses {
		sb.WriteString("    classDef " + classAI + " fill:#e3f2fd,stroke:#1e88e5\n")
		sb.WriteString("    classDef " + classHuman + " fill:#fff3e0,stroke:#fb8c00\n")
	}

	return sb.String()
}

// edgeSources lists connection sources in node order, then any unknown sources sorted.
func edgeSources(g *models.GeneratedGraph) []string {
	sources := make([]string, 0, len(g.Connections))
	seen := make(map[string]bool, len(g.Connections))

	for _, node := range g.Nodes {
		if node == nil || seen[node.ID] {
			continue
		}

		if _, ok := g.Connections[node.ID]; ok {
			sources = append(sources, node.ID)
			seen[node.ID] = true
		}
	}

	orphans := make([]string, 0)

	for source := range g.Connections {
		if !seen[source] {
			orphans = append(orphans, source)
		}
	}

	slices.Sort(orphans)

	return append(sources, orphans...)
}

func styleClass(node *models.GraphNode) string {
	switch roleOf(node) {
	case models.RoleAI, models.RoleTransform:
		return classAI
	case models.RoleHuman, models.RoleApproval:
		return classHuman
	default:
		return ""
	}
}

func sanitizeID(id string) string {
	clean := unsafeIDChars.ReplaceAllString(id, "_")
	if clean == "" {
		return "node"
	}

	return clean
}

func sanitizeLabel(label string) string {
	return strings.TrimSpace(labelStripper.Replace(label))
}
