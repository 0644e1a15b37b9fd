package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	outputYAML = "yaml"
	outputJSON = "json"
)

func validateOutput(format string) error {
	switch format {
	case outputYAML, outputJSON:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want yaml or json)", format)
}

// print writes v in the selected format. Field names follow the JSON tags.
func (a *app) print(w io.Writer, v any) error {
	if a.output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	out, err := toYAML(v)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// toYAML renders v through its JSON form, keeping field order and JSON names.
func toYAML(v any) ([]byte, error) {
	raw, ok := v.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode output: %w", err)
		}
		raw = b
	}

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("failed to convert output: %w", err)
	}
	blockStyle(&node)

	out, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	return out, nil
}

// blockStyle drops the flow and quoting styles JSON input parses with.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
