package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/dukex/flowgen/pkg/cmd"
	"github.com/dukex/flowgen/pkg/config"
	"github.com/dukex/flowgen/pkg/log"
	"github.com/dukex/flowgen/pkg/models"
	"github.com/dukex/flowgen/pkg/render"
	"github.com/dukex/flowgen/pkg/services"
	"github.com/dukex/flowgen/pkg/steps"
	cli "github.com/urfave/cli/v3"
)

var generateFormats = []string{"json", "yaml", "mermaid", "steps", "n8n"}

func validateChoice(name string, choices []string) func(string) error {
	return func(value string) error {
		if !slices.Contains(choices, value) {
			return fmt.Errorf("invalid %s %q, expected one of %v", name, value, choices)
		}

		return nil
	}
}

func NewParseCommand() *cli.Command {
	return &cli.Command{
		Name:    "parse",
		Aliases: []string{"p"},
		Usage:   "Split a workflow description into numbered steps",
		Flags: []cli.Flag{
			inputFlag,
			outputFlag,
			&cli.StringFlag{
				Name:      "format",
				Aliases:   []string{"f"},
				Usage:     "Output format (json, yaml)",
				Value:     "json",
				Validator: validateChoice("format", []string{"json", "yaml"}),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			text, err := readInput(command)
			if err != nil {
				return err
			}

			parsed := steps.Parse(string(text))

			var out []byte
			if command.String("format") == "yaml" {
				out, err = encodeYAML(parsed)
			} else {
				out, err = encodeJSON(parsed)
			}

			if err != nil {
				return fmt.Errorf("failed to encode steps: %w", err)
			}

			return writeOutput(command, out)
		},
	}
}

func NewGenerateCommand() *cli.Command {
	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"g"},
		Usage:   "Generate an automation graph from a workflow description",
		Flags: []cli.Flag{
			inputFlag,
			outputFlag,
			&cli.StringFlag{
				Name:  "platform",
				Usage: "Target platform (MS365, Google, Assistant, Custom, Combo, Prompt)",
			},
			&cli.StringFlag{
				Name:  "approach",
				Usage: "Automation approach (Automated, Hybrid, Assisted)",
			},
			&cli.StringFlag{
				Name:  "options",
				Usage: "YAML presets file; --platform and --approach take precedence",
			},
			&cli.StringFlag{
				Name:  "preset",
				Usage: "Named preset to use from the --options file",
			},
			&cli.StringFlag{
				Name:      "format",
				Aliases:   []string{"f"},
				Usage:     "Output format (json, yaml, mermaid, steps, n8n)",
				Value:     "json",
				Validator: validateChoice("format", generateFormats),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Also store the generated graph in this persistence URL",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			opts, err := generationOptions(command)
			if err != nil {
				return err
			}

			text, err := readInput(command)
			if err != nil {
				return err
			}

			result, err := generate(ctx, command.String("database-url"), string(text), opts)
			if err != nil {
				return err
			}

			if result.ID != "" {
				reportStored(command, result.ID)
			}

			out, err := formatResult(command.String("format"), result)
			if err != nil {
				return err
			}

			return writeOutput(command, out)
		},
	}
}

func NewRenderCommand() *cli.Command {
	return &cli.Command{
		Name:    "render",
		Aliases: []string{"r"},
		Usage:   "Render a graph JSON document as Mermaid or step text",
		Flags: []cli.Flag{
			inputFlag,
			outputFlag,
			&cli.StringFlag{
				Name:      "to",
				Usage:     "Render target (mermaid, steps)",
				Value:     "mermaid",
				Validator: validateChoice("target", []string{"mermaid", "steps"}),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			data, err := readInput(command)
			if err != nil {
				return err
			}

			graph, err := decodeGraph(data)
			if err != nil {
				return err
			}

			if command.String("to") == "steps" {
				return writeOutput(command, withNewline(render.StepText(graph)))
			}

			return writeOutput(command, withNewline(render.Mermaid(graph)))
		},
	}
}

// generationOptions merges the --options preset with the explicit flags.
func generationOptions(command *cli.Command) (models.GenerationOptions, error) {
	opts := models.GenerationOptions{}

	if path := command.String("options"); path != "" {
		presets, err := config.LoadPresets(path)
		if err != nil {
			return opts, err
		}

		opts, err = presets.Options(command.String("preset"))
		if err != nil {
			return opts, err
		}
	}

	if platform := command.String("platform"); platform != "" {
		opts.Platform = models.Platform(platform)
	}

	if approach := command.String("approach"); approach != "" {
		opts.Approach = models.Approach(approach)
	}

	return opts, nil
}

func generate(ctx context.Context, databaseURL, text string, opts models.GenerationOptions) (*services.GenerateResult, error) {
	logger := log.WithModule("cli")

	persistence, err := cmd.NewPersistence(ctx, logger, databaseURL)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := persistence.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	graphService := services.NewGraphs(cmd.NewGenerator(logger), persistence, services.WithLogger(logger))

	return graphService.Generate(ctx, services.GenerateRequest{
		Explanation: text,
		Options:     opts,
		Persist:     databaseURL != "",
	})
}

func formatResult(format string, result *services.GenerateResult) ([]byte, error) {
	switch format {
	case "yaml":
		return encodeYAML(result.Graph)
	case "mermaid":
		return withNewline(render.Mermaid(result.Graph)), nil
	case "steps":
		return withNewline(render.StepText(result.Graph)), nil
	case "n8n":
		workflow, err := services.ExportGraph(result.Graph)
		if err != nil {
			return nil, err
		}

		return encodeJSON(workflow)
	default:
		return encodeJSON(result.Graph)
	}
}
