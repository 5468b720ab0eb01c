// Package profile reads agent profile files. A profile that fails to read,
// parse, or validate skips that one agent only; startup continues with the
// rest of the fleet.
package profile

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kaptinlin/jsonschema"
	"gopkg.in/yaml.v3"

	"fleetd/internal/domain"
)

// profileSchema constrains profile files: name is required, everything
// else optional.
const profileSchema = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name":            {"type": "string", "minLength": 1},
		"load_memory":     {"type": "boolean"},
		"initial_message": {"type": "string"},
		"task": {
			"type": "object",
			"properties": {
				"path": {"type": "string"},
				"id":   {"type": "string"}
			}
		}
	},
	"additionalProperties": false
}`

// Source loads YAML profiles validated against the profile schema.
type Source struct {
	schema *jsonschema.Schema
	logger *slog.Logger
}

var _ domain.ProfileSource = (*Source)(nil)

// NewSource compiles the profile schema.
func NewSource(logger *slog.Logger) (*Source, error) {
	schema, err := jsonschema.NewCompiler().Compile([]byte(profileSchema))
	if err != nil {
		return nil, fmt.Errorf("compile profile schema: %w", err)
	}
	return &Source{schema: schema, logger: logger}, nil
}

// Load reads and validates one profile file.
func (s *Source) Load(path string) (*domain.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapOp("read profile", err)
	}

	// Decode twice: once loosely for schema validation, once into the
	// typed profile.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, domain.WrapOp("parse profile", err)
	}
	if result := s.schema.Validate(raw); !result.IsValid() {
		return nil, domain.NewError("validate profile", domain.ErrInvalidInput, fmt.Sprintf("%s", result.Error()))
	}

	var p domain.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, domain.WrapOp("decode profile", err)
	}

	s.logger.Debug("profile loaded", "path", path, "agent", p.Name)
	return &p, nil
}
