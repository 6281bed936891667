package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dukex/flowgen/pkg/models"
	cli "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

var errNoNodes = errors.New("failed to decode graph: no nodes found")

var inputFlag = &cli.StringFlag{
	Name:    "input",
	Aliases: []string{"i"},
	Usage:   "Read from this file instead of stdin",
}

var outputFlag = &cli.StringFlag{
	Name:    "output",
	Aliases: []string{"o"},
	Usage:   "Write to this file instead of stdout",
}

// readInput returns the --input file contents, or stdin when the flag is empty.
func readInput(command *cli.Command) ([]byte, error) {
	path := command.String("input")
	if path == "" {
		reader := command.Root().Reader
		if reader == nil {
			reader = os.Stdin
		}

		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	return data, nil
}

// writeOutput writes data to the --output file, or stdout when the flag is empty.
func writeOutput(command *cli.Command, data []byte) error {
	path := command.String("output")
	if path == "" {
		writer := command.Root().Writer
		if writer == nil {
			writer = os.Stdout
		}

		_, err := writer.Write(data)

		return err
	}

	err := os.WriteFile(path, data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

// reportStored tells the user where a persisted graph went without touching stdout.
func reportStored(command *cli.Command, id string) {
	writer := command.Root().ErrWriter
	if writer == nil {
		writer = os.Stderr
	}

	fmt.Fprintf(writer, "stored graph %s\n", id)
}

func encodeJSON(value any) ([]byte, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, err
	}

	return append(data, '\n'), nil
}

// encodeYAML goes through JSON first so yaml keys follow the json tags.
func encodeYAML(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, err
	}

	return yaml.Marshal(generic)
}

func withNewline(text string) []byte {
	if text == "" || text[len(text)-1] == '\n' {
		return []byte(text)
	}

	return []byte(text + "\n")
}

// decodeGraph accepts a bare graph JSON or any JSON document holding one under "graph".
func decodeGraph(data []byte) (*models.GeneratedGraph, error) {
	var wrapped struct {
		Graph *models.GeneratedGraph `json:"graph"`
	}

	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Graph != nil && len(wrapped.Graph.Nodes) > 0 {
		return wrapped.Graph, nil
	}

	var graph models.GeneratedGraph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}

	if len(graph.Nodes) == 0 {
		return nil, errNoNodes
	}

	return &graph, nil
}
