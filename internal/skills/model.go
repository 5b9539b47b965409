// Package skills recognises skill mentions in free text with a phrase based
// entity model.
package skills

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

//go:embed default_model.yaml
var defaultModel []byte

// Model is a trained entity ruler: labelled phrase patterns.
type Model struct {
	Name     string   `yaml:"name"`
	Version  int      `yaml:"version"`
	Entities []Entity `yaml:"entities"`
}

type Entity struct {
	Label    string   `yaml:"label"`
	Patterns []string `yaml:"patterns"`
}

// ParseModel decodes a YAML model and checks it has at least one skill
// pattern.
func ParseModel(data []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode skill model: %w", err)
	}

	skillPatterns := 0
	for _, e := range m.Entities {
		if isSkillLabel(e.Label) {
			skillPatterns += len(e.Patterns)
		}
	}
	if skillPatterns == 0 {
		return nil, errors.New("skill model has no SKILL patterns")
	}

	return &m, nil
}

// LoadModel reads a model file. An empty path loads the embedded model.
func LoadModel(path string) (*Model, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return ParseModel(defaultModel)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skill model %s: %w", path, err)
	}
	return ParseModel(data)
}

func isSkillLabel(label string) bool {
	return strings.Contains(strings.ToUpper(label), "SKILL")
}
