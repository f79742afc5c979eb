package progression

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed nodes.yaml
var defaultTable []byte

type table struct {
	Nodes []*Node `yaml:"nodes"`
}

// ParseNodes decodes a YAML wish table.
func ParseNodes(data []byte) ([]*Node, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("progression: parse table: %w", err)
	}
	return t.Nodes, nil
}

// LoadGraph parses and validates a YAML wish table.
func LoadGraph(data []byte) (*Graph, error) {
	nodes, err := ParseNodes(data)
	if err != nil {
		return nil, err
	}
	return NewGraph(nodes)
}

// LoadGraphFile loads the table at path, or the embedded default when path
// is empty.
func LoadGraphFile(path string) (*Graph, error) {
	if path == "" {
		return DefaultGraph()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("progression: read %s: %w", path, err)
	}
	return LoadGraph(data)
}

// DefaultGraph returns the embedded wish table.
func DefaultGraph() (*Graph, error) {
	return LoadGraph(defaultTable)
}
