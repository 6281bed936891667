package cmd

import (
	"log/slog"

	"github.com/dukex/flowgen/pkg/generator"
	"github.com/dukex/flowgen/pkg/templates"
)

// NewGenerator builds a generator over the built-in template catalog.
func NewGenerator(logger *slog.Logger) *generator.Generator {
	return generator.New(
		generator.WithCatalog(templates.NewCatalog()),
		generator.WithLogger(logger),
	)
}
