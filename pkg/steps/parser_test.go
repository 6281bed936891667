package steps_test

import (
	"testing"

	"github.com/dukex/flowgen/pkg/models"
	"github.com/dukex/flowgen/pkg/steps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ActorTags(t *testing.T) {
	t.Parallel()

	parsed := steps.Parse("Step 1: Call customer (Human)\nStep 2: Summarize notes (AI)")

	require.Len(t, parsed, 2)
	assert.Equal(t, models.WorkflowStep{ID: "step1", Label: "Call customer", Actor: models.ActorHuman, Index: 0}, parsed[0])
	assert.Equal(t, models.WorkflowStep{ID: "step2", Label: "Summarize notes", Actor: models.ActorAI, Index: 1}, parsed[1])
}

func TestParse_IgnoresUnmarkedLines(t *testing.T) {
	t.Parallel()

	parsed := steps.Parse("not a step\n\n3. Do thing")

	require.Len(t, parsed, 1)
	assert.Equal(t, models.WorkflowStep{ID: "step3", Label: "Do thing", Actor: models.ActorAI, Index: 2}, parsed[0])
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []models.WorkflowStep
	}{
		{
			name:     "empty input",
			input:    "",
			expected: []models.WorkflowStep{},
		},
		{
			name:     "only noise",
			input:    "hello\nworld\n- bullet",
			expected: []models.WorkflowStep{},
		},
		{
			name:  "separators",
			input: "1. Dot\n2) Paren\n3: Colon",
			expected: []models.WorkflowStep{
				{ID: "step1", Label: "Dot", Actor: models.ActorAI, Index: 0},
				{ID: "step2", Label: "Paren", Actor: models.ActorAI, Index: 1},
				{ID: "step3", Label: "Colon", Actor: models.ActorAI, Index: 2},
			},
		},
		{
			name:  "step keyword is case insensitive",
			input: "STEP 1: Upper\nstep 2. Lower\nStep3) Tight",
			expected: []models.WorkflowStep{
				{ID: "step1", Label: "Upper", Actor: models.ActorAI, Index: 0},
				{ID: "step2", Label: "Lower", Actor: models.ActorAI, Index: 1},
				{ID: "step3", Label: "Tight", Actor: models.ActorAI, Index: 2},
			},
		},
		{
			name:  "tag anywhere and case insensitive",
			input: "1. (HUMAN) Sign the contract\n2. Draft (Ai) reply",
			expected: []models.WorkflowStep{
				{ID: "step1", Label: "Sign the contract", Actor: models.ActorHuman, Index: 0},
				{ID: "step2", Label: "Draft  reply", Actor: models.ActorAI, Index: 1},
			},
		},
		{
			name:  "only first tag removed",
			input: "1. Check (human) twice (human)",
			expected: []models.WorkflowStep{
				{ID: "step1", Label: "Check  twice (human)", Actor: models.ActorHuman, Index: 0},
			},
		},
		{
			name:  "leftmost of mixed tags removed",
			input: "1) lead (ai) (human)\n2. (Human) call (AI)",
			expected: []models.WorkflowStep{
				{ID: "step1", Label: "lead  (human)", Actor: models.ActorHuman, Index: 0},
				{ID: "step2", Label: "call (AI)", Actor: models.ActorHuman, Index: 1},
			},
		},
		{
			name:     "empty label dropped",
			input:    "1. (Human)\n2.   ",
			expected: []models.WorkflowStep{},
		},
		{
			name:  "gapped numbering kept",
			input: "5. Five\n1. One\n3. Three",
			expected: []models.WorkflowStep{
				{ID: "step1", Label: "One", Actor: models.ActorAI, Index: 0},
				{ID: "step3", Label: "Three", Actor: models.ActorAI, Index: 2},
				{ID: "step5", Label: "Five", Actor: models.ActorAI, Index: 4},
			},
		},
		{
			name:  "windows line endings and indentation",
			input: "  1. First\r\n\r\n\t2. Second (human)  \r\n",
			expected: []models.WorkflowStep{
				{ID: "step1", Label: "First", Actor: models.ActorAI, Index: 0},
				{ID: "step2", Label: "Second", Actor: models.ActorHuman, Index: 1},
			},
		},
		{
			name:  "duplicates are kept in input order",
			input: "1. A\n1. B",
			expected: []models.WorkflowStep{
				{ID: "step1", Label: "A", Actor: models.ActorAI, Index: 0},
				{ID: "step1", Label: "B", Actor: models.ActorAI, Index: 0},
			},
		},
		{
			name:     "step zero ignored",
			input:    "0. Nothing",
			expected: []models.WorkflowStep{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, steps.Parse(tt.input))
		})
	}
}

func TestParse_IDMatchesIndex(t *testing.T) {
	t.Parallel()

	parsed := steps.Parse("Step 5: Foo\n2. Bar (Human)\n9) Baz")

	require.Len(t, parsed, 3)

	for i, step := range parsed {
		assert.Equal(t, models.StepID(step.Index), step.ID)

		if i > 0 {
			assert.Less(t, parsed[i-1].Index, step.Index)
		}
	}

	assert.Equal(t, 4, parsed[1].Index)
}

func TestDuplicates(t *testing.T) {
	t.Parallel()

	assert.Empty(t, steps.Duplicates(steps.Parse("1. A\n2. B")))
	assert.Equal(t, []int{0, 2}, steps.Duplicates(steps.Parse("3. C\n1. A\n1. B\n3. D\n2. E")))
}
