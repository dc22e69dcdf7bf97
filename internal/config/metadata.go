package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Metadata is the part of action.yml that describes inputs
type Metadata struct {
	Name   string           `yaml:"name"`
	Inputs map[string]Input `yaml:"inputs"`
}

// Input is a single action.yml input declaration
type Input struct {
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
	Default     string `yaml:"default"`
}

// LoadMetadata reads action.yml
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Defaults returns input name -> default value for inputs that declare one
func (m *Metadata) Defaults() map[string]string {
	defaults := make(map[string]string, len(m.Inputs))
	for name, in := range m.Inputs {
		if in.Default != "" {
			defaults[name] = in.Default
		}
	}
	return defaults
}
