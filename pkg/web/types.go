// Package web provides HTTP request and response types for the graph API.
package web

import "github.com/dukex/flowgen/pkg/models"

// ParseRequest represents the request body for splitting text into steps.
type ParseRequest struct {
	Explanation string `json:"explanation"`
}

// ParseResponse lists the parsed steps and any step numbers used more than once.
type ParseResponse struct {
	Steps      []models.WorkflowStep `json:"steps"`
	Duplicates []int                 `json:"duplicates,omitempty"`
}

// GenerateRequest represents the request body for generating a graph.
type GenerateRequest struct {
	Explanation string          `json:"explanation"`
	Platform    models.Platform `json:"platform,omitempty" validate:"omitempty,oneof=MS365 Google Assistant Custom Combo Prompt"`
	Approach    models.Approach `json:"approach,omitempty" validate:"omitempty,oneof=Automated Hybrid Assisted"`
	Persist     bool            `json:"persist"`
}

// Options returns the generation options carried by the request.
func (r GenerateRequest) Options() models.GenerationOptions {
	return models.GenerationOptions{
		Platform: r.Platform,
		Approach: r.Approach,
	}
}

// RenderRequest carries a graph to be rendered without storing it.
type RenderRequest struct {
	Graph *models.GeneratedGraph `json:"graph" validate:"required"`
}

// TextResponse wraps rendered text for JSON clients.
type TextResponse struct {
	Text string `json:"text"`
}
