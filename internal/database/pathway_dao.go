package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/leadforge/leadforge/internal/types"
)

// PathwayStep is one time-phased step of a nurture plan, stored as JSON
// inside the pathway row.
type PathwayStep struct {
	Day    int    `json:"day"`
	Action string `json:"action"`
}

// NurturePathway is the one active outreach plan for a prospect.
// It is replaced wholesale whenever the selector reruns.
type NurturePathway struct {
	ID             types.ID      `json:"id"`
	ProspectID     types.ID      `json:"prospect_id"`
	UserID         types.ID      `json:"user_id"`
	SequenceKey    string        `json:"sequence_key"`
	Temperature    Temperature   `json:"temperature"`
	CompositeScore int           `json:"composite_score"`
	Steps          []PathwayStep `json:"steps"`
	NextAction     string        `json:"next_action"`
	NextActionDue  time.Time     `json:"next_action_due"`
	SendWindow     string        `json:"send_window,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// PathwayDAO provides database operations for nurture pathways.
type PathwayDAO interface {
	// Upsert creates the pathway for a prospect or replaces the existing one
	Upsert(ctx context.Context, p *NurturePathway) error

	// GetByProspect retrieves the current pathway for a prospect
	GetByProspect(ctx context.Context, prospectID types.ID) (*NurturePathway, error)

	// Delete removes the pathway for a prospect
	Delete(ctx context.Context, prospectID types.ID) error
}

type pathwayDAO struct {
	db *DB
}

// NewPathwayDAO creates a new pathway DAO
func NewPathwayDAO(db *DB) PathwayDAO {
	return &pathwayDAO{db: db}
}

func (d *pathwayDAO) Upsert(ctx context.Context, p *NurturePathway) error {
	if p.ID == "" {
		p.ID = types.NewID()
	}

	stepsJSON, err := json.Marshal(p.Steps)
	if err != nil {
		return types.WrapError(types.PATHWAY_PERSIST_FAILED, "failed to marshal pathway steps", err)
	}

	// Replace-on-recompute: one current pathway per prospect. The UNIQUE
	// constraint on prospect_id drives the conflict clause.
	query := `
		INSERT INTO nurture_pathways (
			id, prospect_id, user_id, sequence_key, temperature,
			composite_score, steps, next_action, next_action_due,
			send_window, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(prospect_id) DO UPDATE SET
			sequence_key = excluded.sequence_key,
			temperature = excluded.temperature,
			composite_score = excluded.composite_score,
			steps = excluded.steps,
			next_action = excluded.next_action,
			next_action_due = excluded.next_action_due,
			send_window = excluded.send_window,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err = d.db.ExecContext(ctx, query,
		p.ID, p.ProspectID, p.UserID, p.SequenceKey, p.Temperature,
		p.CompositeScore, string(stepsJSON), p.NextAction, p.NextActionDue,
		p.SendWindow,
	)
	if err != nil {
		return types.WrapError(types.PATHWAY_PERSIST_FAILED, "failed to upsert pathway", err)
	}
	return nil
}

func (d *pathwayDAO) GetByProspect(ctx context.Context, prospectID types.ID) (*NurturePathway, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, prospect_id, user_id, sequence_key, temperature,
			composite_score, steps, next_action, next_action_due,
			send_window, created_at, updated_at
		FROM nurture_pathways
		WHERE prospect_id = ?
	`, prospectID)

	var p NurturePathway
	var stepsJSON string
	err := row.Scan(
		&p.ID, &p.ProspectID, &p.UserID, &p.SequenceKey, &p.Temperature,
		&p.CompositeScore, &stepsJSON, &p.NextAction, &p.NextActionDue,
		&p.SendWindow, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, types.NewError(types.DB_QUERY_FAILED, "no pathway for prospect "+prospectID.String())
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get pathway", err)
	}

	if stepsJSON != "" {
		if err := json.Unmarshal([]byte(stepsJSON), &p.Steps); err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to unmarshal pathway steps", err)
		}
	}
	return &p, nil
}

func (d *pathwayDAO) Delete(ctx context.Context, prospectID types.ID) error {
	_, err := d.db.ExecContext(ctx, "DELETE FROM nurture_pathways WHERE prospect_id = ?", prospectID)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to delete pathway", err)
	}
	return nil
}
