// Package sequence manages authored outreach sequence definitions: YAML
// loading, validation, versioned registration, and the built-in defaults
// the pathway selector refers to by name.
package sequence

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leadforge/leadforge/internal/database"
	"github.com/leadforge/leadforge/internal/types"
)

// StepFile is one step of a sequence definition file.
type StepFile struct {
	Order     int    `yaml:"order"`
	Delay     string `yaml:"delay"`
	Condition string `yaml:"condition,omitempty"`
	Template  string `yaml:"template"`
	Channel   string `yaml:"channel,omitempty"`
}

// DefinitionFile is the on-disk YAML form of a sequence definition.
type DefinitionFile struct {
	Name    string     `yaml:"name"`
	Version int        `yaml:"version,omitempty"`
	Steps   []StepFile `yaml:"steps"`
}

// LoadDefinitionFile parses and validates a sequence definition from a
// YAML file.
func LoadDefinitionFile(path string) (*database.SequenceDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.SEQUENCE_INVALID, "failed to read sequence file", err)
	}
	return ParseDefinition(data)
}

// ParseDefinition parses and validates a sequence definition from YAML
// bytes.
func ParseDefinition(data []byte) (*database.SequenceDefinition, error) {
	var file DefinitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, types.WrapError(types.SEQUENCE_INVALID, "failed to parse sequence YAML", err)
	}
	return file.ToDefinition()
}

// ToDefinition converts the file form to a storable definition,
// validating step ordering, delays, and condition types.
func (f *DefinitionFile) ToDefinition() (*database.SequenceDefinition, error) {
	if f.Name == "" {
		return nil, types.NewError(types.SEQUENCE_INVALID, "sequence name is required")
	}
	if len(f.Steps) == 0 {
		return nil, types.NewError(types.SEQUENCE_INVALID, "sequence "+f.Name+" has no steps")
	}

	def := &database.SequenceDefinition{
		Name:    f.Name,
		Version: f.Version,
		Active:  true,
	}

	seen := make(map[int]bool, len(f.Steps))
	for _, s := range f.Steps {
		if s.Order <= 0 {
			return nil, types.NewError(types.SEQUENCE_INVALID,
				fmt.Sprintf("sequence %s: step order must be positive, got %d", f.Name, s.Order))
		}
		if seen[s.Order] {
			return nil, types.NewError(types.SEQUENCE_INVALID,
				fmt.Sprintf("sequence %s: duplicate step order %d", f.Name, s.Order))
		}
		seen[s.Order] = true

		if s.Template == "" {
			return nil, types.NewError(types.SEQUENCE_INVALID,
				fmt.Sprintf("sequence %s: step %d has no template", f.Name, s.Order))
		}

		delay, err := parseDelay(s.Delay)
		if err != nil {
			return nil, types.WrapError(types.SEQUENCE_INVALID,
				fmt.Sprintf("sequence %s: step %d has invalid delay", f.Name, s.Order), err)
		}

		condition := database.ConditionType(s.Condition)
		if condition == "" {
			condition = database.ConditionAlways
		}
		if !database.ValidConditionType(condition) {
			return nil, types.NewError(types.SEQUENCE_INVALID,
				fmt.Sprintf("sequence %s: step %d has unknown condition %q", f.Name, s.Order, s.Condition))
		}

		def.Steps = append(def.Steps, database.SequenceStep{
			StepOrder:       s.Order,
			Delay:           delay,
			ConditionType:   condition,
			TemplateKey:     s.Template,
			ChannelOverride: s.Channel,
		})
	}

	// Step orders must form 1..N so the materializer can trust the gaps
	// are intentional delays, not missing steps.
	for i := 1; i <= len(def.Steps); i++ {
		if !seen[i] {
			return nil, types.NewError(types.SEQUENCE_INVALID,
				fmt.Sprintf("sequence %s: step orders must be contiguous from 1, missing %d", f.Name, i))
		}
	}

	return def, nil
}

// parseDelay accepts Go duration strings plus a day suffix, since
// sequence authors think in days.
func parseDelay(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	if n := len(s); n > 1 && s[n-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s[:n-1], "%d", &days); err == nil && days >= 0 {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("delay must not be negative: %s", s)
	}
	return d, nil
}
