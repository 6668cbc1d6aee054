package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/leadforge/leadforge/internal/types"
)

// ConditionType is the named predicate gating whether a step actually sends.
type ConditionType string

const (
	ConditionAlways    ConditionType = "always"
	ConditionNoReply   ConditionType = "no_reply"
	ConditionNoMeeting ConditionType = "no_meeting"
	ConditionNoSale    ConditionType = "no_sale"
	ConditionNoOpen    ConditionType = "no_open"
)

// ValidConditionType reports whether c is a known condition type.
func ValidConditionType(c ConditionType) bool {
	switch c {
	case ConditionAlways, ConditionNoReply, ConditionNoMeeting, ConditionNoSale, ConditionNoOpen:
		return true
	}
	return false
}

// SequenceStep is one authored step of a sequence definition.
type SequenceStep struct {
	ID              types.ID      `json:"id"`
	SequenceID      types.ID      `json:"sequence_id"`
	StepOrder       int           `json:"step_order"`
	Delay           time.Duration `json:"delay"`
	ConditionType   ConditionType `json:"condition_type"`
	TemplateKey     string        `json:"template_key"`
	ChannelOverride string        `json:"channel_override,omitempty"`
}

// SequenceDefinition is a versioned, named outreach sequence owned by
// configuration. Mutating a definition never changes already-materialized
// executions: the materializer copies the step fields it needs.
type SequenceDefinition struct {
	ID        types.ID       `json:"id"`
	UserID    types.ID       `json:"user_id"`
	Name      string         `json:"name"`
	Version   int            `json:"version"`
	Active    bool           `json:"active"`
	Steps     []SequenceStep `json:"steps"`
	CreatedAt time.Time      `json:"created_at"`
}

// SequenceDAO provides database operations for sequence definitions.
type SequenceDAO interface {
	// Create inserts a definition with its steps in one transaction
	Create(ctx context.Context, def *SequenceDefinition) error

	// GetByID retrieves a definition with its steps
	GetByID(ctx context.Context, id types.ID) (*SequenceDefinition, error)

	// GetActiveByName retrieves the highest active version of a named
	// sequence for a user
	GetActiveByName(ctx context.Context, userID types.ID, name string) (*SequenceDefinition, error)

	// ListByUser returns all definitions for a user, steps included
	ListByUser(ctx context.Context, userID types.ID) ([]*SequenceDefinition, error)

	// Deactivate marks a definition inactive; it stays readable for
	// in-flight executions
	Deactivate(ctx context.Context, id types.ID) error
}

type sequenceDAO struct {
	db *DB
}

// NewSequenceDAO creates a new sequence DAO
func NewSequenceDAO(db *DB) SequenceDAO {
	return &sequenceDAO{db: db}
}

func (d *sequenceDAO) Create(ctx context.Context, def *SequenceDefinition) error {
	if def.ID == "" {
		def.ID = types.NewID()
	}
	if def.Version <= 0 {
		def.Version = 1
	}
	for i := range def.Steps {
		if def.Steps[i].ID == "" {
			def.Steps[i].ID = types.NewID()
		}
		def.Steps[i].SequenceID = def.ID
		if def.Steps[i].ConditionType == "" {
			def.Steps[i].ConditionType = ConditionAlways
		}
		if !ValidConditionType(def.Steps[i].ConditionType) {
			return types.NewError(types.SEQUENCE_INVALID,
				"unknown condition type: "+string(def.Steps[i].ConditionType))
		}
	}

	return d.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sequence_definitions (id, user_id, name, version, active, created_at)
			VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		`, def.ID, def.UserID, def.Name, def.Version, boolToInt(def.Active))
		if err != nil {
			return types.WrapError(types.DB_QUERY_FAILED, "failed to create sequence definition", err)
		}

		for _, step := range def.Steps {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO sequence_steps (
					id, sequence_id, step_order, delay_seconds,
					condition_type, template_key, channel_override
				) VALUES (?, ?, ?, ?, ?, ?, ?)
			`, step.ID, step.SequenceID, step.StepOrder, int(step.Delay.Seconds()),
				step.ConditionType, step.TemplateKey, step.ChannelOverride)
			if err != nil {
				return types.WrapError(types.DB_QUERY_FAILED, "failed to create sequence step", err)
			}
		}
		return nil
	})
}

func (d *sequenceDAO) GetByID(ctx context.Context, id types.ID) (*SequenceDefinition, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, version, active, created_at
		FROM sequence_definitions WHERE id = ?
	`, id)

	def, err := scanSequenceDefinition(row)
	if err == sql.ErrNoRows {
		return nil, types.NewError(types.SEQUENCE_NOT_FOUND, "sequence not found: "+id.String())
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get sequence", err)
	}

	if err := d.loadSteps(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

func (d *sequenceDAO) GetActiveByName(ctx context.Context, userID types.ID, name string) (*SequenceDefinition, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, version, active, created_at
		FROM sequence_definitions
		WHERE user_id = ? AND name = ? AND active = 1
		ORDER BY version DESC
		LIMIT 1
	`, userID, name)

	def, err := scanSequenceDefinition(row)
	if err == sql.ErrNoRows {
		return nil, types.NewError(types.SEQUENCE_NOT_FOUND,
			"no active sequence named "+name+" for user "+userID.String())
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get sequence", err)
	}

	if err := d.loadSteps(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

func (d *sequenceDAO) ListByUser(ctx context.Context, userID types.ID) ([]*SequenceDefinition, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, user_id, name, version, active, created_at
		FROM sequence_definitions
		WHERE user_id = ?
		ORDER BY name, version
	`, userID)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list sequences", err)
	}
	defer rows.Close()

	var defs []*SequenceDefinition
	for rows.Next() {
		def, err := scanSequenceDefinition(rows)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan sequence row", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, def := range defs {
		if err := d.loadSteps(ctx, def); err != nil {
			return nil, err
		}
	}
	return defs, nil
}

func (d *sequenceDAO) Deactivate(ctx context.Context, id types.ID) error {
	result, err := d.db.ExecContext(ctx,
		"UPDATE sequence_definitions SET active = 0 WHERE id = ?", id)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to deactivate sequence", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to check deactivate result", err)
	}
	if affected == 0 {
		return types.NewError(types.SEQUENCE_NOT_FOUND, "sequence not found: "+id.String())
	}
	return nil
}

func (d *sequenceDAO) loadSteps(ctx context.Context, def *SequenceDefinition) error {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, sequence_id, step_order, delay_seconds,
			condition_type, template_key, channel_override
		FROM sequence_steps
		WHERE sequence_id = ?
		ORDER BY step_order
	`, def.ID)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to load sequence steps", err)
	}
	defer rows.Close()

	def.Steps = nil
	for rows.Next() {
		var step SequenceStep
		var delaySeconds int64
		err := rows.Scan(
			&step.ID, &step.SequenceID, &step.StepOrder, &delaySeconds,
			&step.ConditionType, &step.TemplateKey, &step.ChannelOverride,
		)
		if err != nil {
			return types.WrapError(types.DB_QUERY_FAILED, "failed to scan step row", err)
		}
		step.Delay = time.Duration(delaySeconds) * time.Second
		def.Steps = append(def.Steps, step)
	}
	return rows.Err()
}

func scanSequenceDefinition(row rowScanner) (*SequenceDefinition, error) {
	var def SequenceDefinition
	var active int
	err := row.Scan(&def.ID, &def.UserID, &def.Name, &def.Version, &active, &def.CreatedAt)
	if err != nil {
		return nil, err
	}
	def.Active = active == 1
	return &def, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
