package models

import "strconv"

// Actor identifies who performs a workflow step.
type Actor string

const (
	ActorHuman Actor = "human"
	ActorAI    Actor = "ai"
)

// WorkflowStep is one parsed unit of a workflow description.
type WorkflowStep struct {
	ID    string `json:"id"    validate:"required"`
	Label string `json:"label" validate:"required,min=1"`
	Actor Actor  `json:"actor" validate:"required,oneof=human ai"`
	Index int    `json:"index" validate:"min=0"`
}

// StepID builds the identifier of the step at the given 0-based index.
func StepID(index int) string {
	return "step" + strconv.Itoa(index+1)
}

// IsHuman reports whether the step is performed by a person.
func (s WorkflowStep) IsHuman() bool {
	return s.Actor == ActorHuman
}
