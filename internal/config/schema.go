package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schema declares author-defined condition types on top of the
// engine's built-in set. Each one maps onto a runtime-context field,
// so new vocabulary ("faction_present", "weather") works without a
// code change; anything not declared here fails closed at match time.
type Schema struct {
	Version        int                `yaml:"version"`
	ConditionTypes []ConditionTypeDef `yaml:"condition_types"`

	index map[string]*ConditionTypeDef
}

type ConditionTypeDef struct {
	Name        string `yaml:"name"`
	Field       string `yaml:"field"`
	Description string `yaml:"description"`
}

var builtinConditionTypes = map[string]struct{}{
	"location":             {},
	"character_present":    {},
	"event":                {},
	"item_owned":           {},
	"relationship":         {},
	"reputation_threshold": {},
	"secret_known":         {},
	"role":                 {},
}

var contextFields = map[string]struct{}{
	"location":           {},
	"present_characters": {},
	"current_events":     {},
	"owned_items":        {},
	"secrets_known":      {},
	"role":               {},
}

func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	var schema Schema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	if err := validateSchema(&schema); err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	schema.index = make(map[string]*ConditionTypeDef)
	for i := range schema.ConditionTypes {
		def := &schema.ConditionTypes[i]
		schema.index[strings.ToLower(def.Name)] = def
	}

	return &schema, nil
}

func validateSchema(s *Schema) error {
	if s.Version != 1 {
		return fmt.Errorf("unsupported version: %d", s.Version)
	}

	names := make(map[string]struct{})
	for i, def := range s.ConditionTypes {
		name := strings.ToLower(strings.TrimSpace(def.Name))
		if name == "" {
			return fmt.Errorf("condition type %d name is required", i)
		}
		if _, builtin := builtinConditionTypes[name]; builtin {
			return fmt.Errorf("condition type %s shadows a built-in type", def.Name)
		}
		if _, exists := names[name]; exists {
			return fmt.Errorf("duplicate condition type name: %s", def.Name)
		}
		names[name] = struct{}{}

		if _, ok := contextFields[def.Field]; !ok {
			return fmt.Errorf("condition type %s references unknown context field: %s", def.Name, def.Field)
		}
	}

	return nil
}

func (s *Schema) ConditionTypeByName(name string) (*ConditionTypeDef, bool) {
	if s == nil {
		return nil, false
	}
	def, ok := s.index[strings.ToLower(name)]
	return def, ok
}

// Aliases returns the name-to-field mapping the engine consumes.
func (s *Schema) Aliases() map[string]string {
	if s == nil {
		return nil
	}
	aliases := make(map[string]string, len(s.ConditionTypes))
	for _, def := range s.ConditionTypes {
		aliases[strings.ToLower(def.Name)] = def.Field
	}
	return aliases
}
