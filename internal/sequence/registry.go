package sequence

import (
	"context"
	"log/slog"

	"github.com/leadforge/leadforge/internal/database"
	"github.com/leadforge/leadforge/internal/types"
)

// Registry is the authoring surface over stored sequence definitions and
// templates. Registering a new version of a name deactivates the prior
// active versions so GetActiveByName resolution stays unambiguous.
type Registry struct {
	sequences database.SequenceDAO
	templates database.TemplateDAO
	logger    *slog.Logger
}

// NewRegistry creates a Registry.
func NewRegistry(sequences database.SequenceDAO, templates database.TemplateDAO, logger *slog.Logger) *Registry {
	return &Registry{sequences: sequences, templates: templates, logger: logger}
}

// Register stores def as the next active version of its name for the
// user. Prior active versions are deactivated but kept readable for
// executions already materialized against them.
func (r *Registry) Register(ctx context.Context, userID types.ID, def *database.SequenceDefinition) (*database.SequenceDefinition, error) {
	def.UserID = userID
	def.Active = true

	existing, err := r.sequences.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	maxVersion := 0
	var toDeactivate []types.ID
	for _, d := range existing {
		if d.Name != def.Name {
			continue
		}
		if d.Version > maxVersion {
			maxVersion = d.Version
		}
		if d.Active {
			toDeactivate = append(toDeactivate, d.ID)
		}
	}
	if def.Version <= maxVersion {
		def.Version = maxVersion + 1
	}

	if err := r.sequences.Create(ctx, def); err != nil {
		return nil, err
	}

	for _, id := range toDeactivate {
		if err := r.sequences.Deactivate(ctx, id); err != nil {
			return nil, err
		}
	}

	r.logger.Info("sequence registered",
		"user_id", userID, "name", def.Name, "version", def.Version, "steps", len(def.Steps))
	return def, nil
}

// RegisterFile loads a YAML definition file and registers it.
func (r *Registry) RegisterFile(ctx context.Context, userID types.ID, path string) (*database.SequenceDefinition, error) {
	def, err := LoadDefinitionFile(path)
	if err != nil {
		return nil, err
	}
	return r.Register(ctx, userID, def)
}

// Resolve returns the active definition for a sequence name.
func (r *Registry) Resolve(ctx context.Context, userID types.ID, name string) (*database.SequenceDefinition, error) {
	return r.sequences.GetActiveByName(ctx, userID, name)
}

// List returns all definitions for a user.
func (r *Registry) List(ctx context.Context, userID types.ID) ([]*database.SequenceDefinition, error) {
	return r.sequences.ListByUser(ctx, userID)
}
