// Package config provides loading of generation presets from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/dukex/flowgen/pkg/models"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var ErrPresetNotFound = errors.New("preset not found")

// PresetFile is the structure of a presets YAML file. A file holding only
// top-level platform and approach keys is a single unnamed preset.
type PresetFile struct {
	Default  string          `yaml:"default"`
	Platform models.Platform `yaml:"platform" validate:"omitempty,oneof=MS365 Google Assistant Custom Combo Prompt"`
	Approach models.Approach `yaml:"approach" validate:"omitempty,oneof=Automated Hybrid Assisted"`
	Presets  []Preset        `yaml:"presets"  validate:"dive"`
}

// Preset is a named set of generation options.
type Preset struct {
	Name    string                   `yaml:"name" validate:"required"`
	Options models.GenerationOptions `yaml:",inline"`
}

// LoadPresets reads and validates a presets file.
func LoadPresets(filepath string) (*PresetFile, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file %s: %w", filepath, err)
	}

	var file PresetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML presets: %w", err)
	}

	if err := ValidatePresets(&file); err != nil {
		return nil, err
	}

	return &file, nil
}

// ValidatePresets checks option values and that preset names are unique.
func ValidatePresets(file *PresetFile) error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(file); err != nil {
		return fmt.Errorf("invalid presets: %w", err)
	}

	seen := make(map[string]bool, len(file.Presets))

	for i, preset := range file.Presets {
		if seen[preset.Name] {
			return fmt.Errorf("presets[%d]: duplicate preset name '%s'", i, preset.Name)
		}

		seen[preset.Name] = true
	}

	if file.Default != "" && !seen[file.Default] {
		return fmt.Errorf("default preset '%s': %w", file.Default, ErrPresetNotFound)
	}

	return nil
}

// Options resolves the options for name. An empty name selects the default
// preset, or the top-level platform and approach when there is none.
func (f *PresetFile) Options(name string) (models.GenerationOptions, error) {
	if name == "" {
		name = f.Default
	}

	if name == "" {
		return models.GenerationOptions{Platform: f.Platform, Approach: f.Approach}, nil
	}

	for _, preset := range f.Presets {
		if preset.Name == name {
			return preset.Options, nil
		}
	}

	return models.GenerationOptions{}, fmt.Errorf("'%s': %w", name, ErrPresetNotFound)
}
