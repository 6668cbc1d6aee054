package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/leadforge/leadforge/internal/types"
)

// ScoreSnapshot is an immutable, append-only scoring record. The newest
// snapshot per prospect is authoritative for downstream decisions.
type ScoreSnapshot struct {
	ID               types.ID        `json:"id"`
	ProspectID       types.ID        `json:"prospect_id"`
	UserID           types.ID        `json:"user_id"`
	IntentScore      int             `json:"intent_score"`
	FinancialScore   int             `json:"financial_score"`
	EngagementScore  int             `json:"engagement_score"`
	PersonalityScore int             `json:"personality_score"`
	VouchScore       int             `json:"vouch_score"`
	CompositeScore   int             `json:"composite_score"`
	Breakdown        json.RawMessage `json:"breakdown,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// SnapshotDAO provides database operations for score snapshots.
// Snapshots are append-only: there is no update or delete.
type SnapshotDAO interface {
	// Create appends a new snapshot
	Create(ctx context.Context, s *ScoreSnapshot) error

	// Latest returns the most recent snapshot for a prospect
	Latest(ctx context.Context, prospectID types.ID) (*ScoreSnapshot, error)

	// History returns snapshots for a prospect, newest first
	History(ctx context.Context, prospectID types.ID, limit int) ([]*ScoreSnapshot, error)
}

type snapshotDAO struct {
	db *DB
}

// NewSnapshotDAO creates a new snapshot DAO
func NewSnapshotDAO(db *DB) SnapshotDAO {
	return &snapshotDAO{db: db}
}

func (d *snapshotDAO) Create(ctx context.Context, s *ScoreSnapshot) error {
	if s.ID == "" {
		s.ID = types.NewID()
	}

	breakdown := "{}"
	if len(s.Breakdown) > 0 {
		breakdown = string(s.Breakdown)
	}

	query := `
		INSERT INTO score_snapshots (
			id, prospect_id, user_id, intent_score, financial_score,
			engagement_score, personality_score, vouch_score,
			composite_score, breakdown, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`

	_, err := d.db.ExecContext(ctx, query,
		s.ID, s.ProspectID, s.UserID, s.IntentScore, s.FinancialScore,
		s.EngagementScore, s.PersonalityScore, s.VouchScore,
		s.CompositeScore, breakdown,
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to create score snapshot", err)
	}
	return nil
}

func (d *snapshotDAO) Latest(ctx context.Context, prospectID types.ID) (*ScoreSnapshot, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, prospect_id, user_id, intent_score, financial_score,
			engagement_score, personality_score, vouch_score,
			composite_score, breakdown, created_at
		FROM score_snapshots
		WHERE prospect_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, prospectID)

	s, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, types.NewError(types.DB_QUERY_FAILED, "no snapshot for prospect "+prospectID.String())
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get latest snapshot", err)
	}
	return s, nil
}

func (d *snapshotDAO) History(ctx context.Context, prospectID types.ID, limit int) ([]*ScoreSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, prospect_id, user_id, intent_score, financial_score,
			engagement_score, personality_score, vouch_score,
			composite_score, breakdown, created_at
		FROM score_snapshots
		WHERE prospect_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, prospectID, limit)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list snapshots", err)
	}
	defer rows.Close()

	var snapshots []*ScoreSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan snapshot row", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

func scanSnapshot(row rowScanner) (*ScoreSnapshot, error) {
	var s ScoreSnapshot
	var breakdown string
	err := row.Scan(
		&s.ID, &s.ProspectID, &s.UserID, &s.IntentScore, &s.FinancialScore,
		&s.EngagementScore, &s.PersonalityScore, &s.VouchScore,
		&s.CompositeScore, &breakdown, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if breakdown != "" {
		s.Breakdown = json.RawMessage(breakdown)
	}
	return &s, nil
}
