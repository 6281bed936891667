// Package models defines the core domain models for text-to-automation-graph synthesis.
package models

import "time"

// Platform is the target automation environment embedded in node metadata.
type Platform string

const (
	PlatformMS365     Platform = "MS365"
	PlatformGoogle    Platform = "Google"
	PlatformAssistant Platform = "Assistant"
	PlatformCustom    Platform = "Custom"
	PlatformCombo     Platform = "Combo"
	PlatformPrompt    Platform = "Prompt"

	// PlatformGenericLabel is used in names and metadata when no platform is set.
	PlatformGenericLabel = "Generic"
)

// Approach is the degree of human involvement in a generated automation.
type Approach string

const (
	ApproachAutomated Approach = "Automated"
	ApproachHybrid    Approach = "Hybrid"
	ApproachAssisted  Approach = "Assisted"
)

// GenerationOptions configures a single generation call. Zero values fall back to defaults.
type GenerationOptions struct {
	Platform Platform `json:"platform,omitempty" yaml:"platform,omitempty" validate:"omitempty,oneof=MS365 Google Assistant Custom Combo Prompt"`
	Approach Approach `json:"approach,omitempty" yaml:"approach,omitempty" validate:"omitempty,oneof=Automated Hybrid Assisted"`
}

// PlatformLabel returns the platform name used in node names, or "Generic" when unset.
func (o GenerationOptions) PlatformLabel() string {
	if o.Platform == "" {
		return PlatformGenericLabel
	}

	return string(o.Platform)
}

// EffectiveApproach returns the approach, defaulting to Automated.
func (o GenerationOptions) EffectiveApproach() Approach {
	if o.Approach == "" {
		return ApproachAutomated
	}

	return o.Approach
}

// RequiresApproval reports whether human steps must be followed by an approval gate.
func (o GenerationOptions) RequiresApproval() bool {
	approach := o.EffectiveApproach()

	return approach == ApproachHybrid || approach == ApproachAssisted
}

// StoredGraph is a generated graph kept by the persistence layer.
type StoredGraph struct {
	ID          string            `json:"id"`
	Explanation string            `json:"explanation"`
	Options     GenerationOptions `json:"options"`
	Graph       *GeneratedGraph   `json:"graph"`
	CreatedAt   time.Time         `json:"created_at"`
}
