package render_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dukex/flowgen/pkg/generator"
	"github.com/dukex/flowgen/pkg/models"
	"github.com/dukex/flowgen/pkg/render"
	"github.com/dukex/flowgen/pkg/steps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, text string, opts models.GenerationOptions) *models.GeneratedGraph {
	t.Helper()

	g := generator.New(generator.WithClock(func() time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}))

	graph, err := g.Generate(context.Background(), text, opts)
	require.NoError(t, err)

	return graph
}

func TestMermaid_GeneratedGraph(t *testing.T) {
	t.Parallel()

	graph := generate(t, "1. Review [draft] (Human)\n2. Classify (AI)", models.GenerationOptions{
		Platform: models.PlatformMS365,
		Approach: models.ApproachHybrid,
	})

	out := render.Mermaid(graph)
	lines := strings.Split(strings.TrimSpace(out), "\n")

	assert.Equal(t, "graph LR", lines[0])
	assert.Contains(t, out, `    workflow_trigger["Workflow Trigger"]`+"\n")
	assert.Contains(t, out, `    step1_notify["Notify Human: Review draft MS365"]:::humanNode`)
	assert.Contains(t, out, `    step1_approval["Human Approval: Review draft MS365"]:::humanNode`)
	assert.Contains(t, out, `    step2_ai["AI Analysis: Classify MS365"]:::aiNode`)
	assert.Contains(t, out, `    step2_transform["Process AI Response: Classify MS365"]:::aiNode`)
	assert.Contains(t, out, `    error_handler["Error Handler"]`+"\n")

	assert.Contains(t, out, "    workflow_trigger --> step1_notify\n")
	assert.Contains(t, out, "    step1_notify --> step1_approval\n")
	assert.Contains(t, out, "    step1_approval --> step2_ai\n")
	assert.Contains(t, out, "    step2_ai --> step2_transform\n")
	assert.Contains(t, out, "    step2_transform --> workflow_response\n")
	assert.NotContains(t, out, "error_handler -->")
	assert.NotContains(t, out, "--> error_handler")

	assert.Equal(t, 5, strings.Count(out, "-->"))
	assert.Contains(t, out, "classDef aiNode")
	assert.Contains(t, out, "classDef humanNode")
}

func TestMermaid_Degrades(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "graph LR\n", render.Mermaid(nil))
	assert.Equal(t, "graph LR\n", render.Mermaid(&models.GeneratedGraph{}))

	foreign := &models.GeneratedGraph{
		Nodes: []*models.GraphNode{
			nil,
			{ID: "start node!", Name: "Trigger"},
			{ID: "b", Name: "AI Summary"},
			{ID: "c", Name: "Ask human"},
		},
		Connections: models.Connections{
			"start node!": {{Node: "b"}},
			"b":           {{Node: "c"}},
			"ghost":       {{Node: "b"}},
		},
	}

	out := render.Mermaid(foreign)
	assert.Contains(t, out, `    start_node_["Trigger"]`+"\n")
	assert.Contains(t, out, `    b["AI Summary"]:::aiNode`)
	assert.Contains(t, out, `    c["Ask human"]:::humanNode`)
	assert.Contains(t, out, "    start_node_ --> b\n")
	assert.Contains(t, out, "    ghost --> b\n")
}

func TestStepText_PreservesStepCount(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"1. Review (Human)\n2. Classify (AI)",
		"Step 1: Intake\nStep 2: Call back (Human)\nStep 3: Log\nStep 4: Approve (Human)",
		"2. Only one (human)",
	}

	for _, approach := range []models.Approach{models.ApproachAutomated, models.ApproachHybrid, models.ApproachAssisted} {
		for _, input := range inputs {
			graph := generate(t, input, models.GenerationOptions{Approach: approach})

			lines := render.StepLines(graph)
			assert.Len(t, lines, len(steps.Parse(input)), input)
		}
	}
}

func TestStepText_Content(t *testing.T) {
	t.Parallel()

	graph := generate(t, "Step 1: Call customer (Human)\nStep 2: Summarize notes (AI)", models.GenerationOptions{
		Platform: models.PlatformGoogle,
		Approach: models.ApproachAssisted,
	})

	assert.Equal(t, "1. Call customer (Human)\n2. Summarize notes (AI)", render.StepText(graph))

	reparsed := steps.Parse(render.StepText(graph))
	require.Len(t, reparsed, 2)
	assert.Equal(t, models.ActorHuman, reparsed[0].Actor)
	assert.Equal(t, "Call customer", reparsed[0].Label)
	assert.Equal(t, models.ActorAI, reparsed[1].Actor)
}

func TestStepText_NoTrigger(t *testing.T) {
	t.Parallel()

	assert.Empty(t, render.StepText(nil))
	assert.Empty(t, render.StepText(&models.GeneratedGraph{
		Nodes: []*models.GraphNode{{ID: "a", Name: "AI Analysis: x"}},
	}))
}

func TestStepText_LegacyNames(t *testing.T) {
	t.Parallel()

	graph := &models.GeneratedGraph{
		Nodes: []*models.GraphNode{
			{ID: "t", Name: "Workflow Trigger"},
			{ID: "n", Name: "Notify Human: Sign contract (MS365)"},
			{ID: "a", Name: "AI Analysis: Draft email (MS365)"},
			{ID: "r", Name: "Workflow Response"},
		},
		Connections: models.Connections{
			"t": {{Node: "n"}},
			"n": {{Node: "a"}},
			"a": {{Node: "r"}},
		},
	}

	assert.Equal(t, "1. Sign contract (Human)\n2. Draft email (AI)", render.StepText(graph))
}

func TestStepText_CycleTerminates(t *testing.T) {
	t.Parallel()

	graph := &models.GeneratedGraph{
		Nodes: []*models.GraphNode{
			{ID: "t", Name: "Workflow Trigger", Role: models.RoleTrigger},
			{ID: "a", Name: "A", Role: models.RoleAI, Step: "Loop"},
		},
		Connections: models.Connections{
			"t": {{Node: "a"}},
			"a": {{Node: "t"}},
		},
	}

	assert.Equal(t, "1. Loop (AI)", render.StepText(graph))
}
