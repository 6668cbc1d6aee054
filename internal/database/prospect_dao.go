package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/leadforge/leadforge/internal/types"
)

// Temperature is the coarse readiness classification of a prospect.
// It is supplied by the CRM side; the engine only reads it.
type Temperature string

const (
	TemperatureCold Temperature = "cold"
	TemperatureWarm Temperature = "warm"
	TemperatureHot  Temperature = "hot"
)

// ReferralQuality grades the referral source of a prospect.
type ReferralQuality string

const (
	ReferralHot  ReferralQuality = "hot"
	ReferralWarm ReferralQuality = "warm"
	ReferralCold ReferralQuality = "cold"
)

// Prospect is the signal bundle the engine reads for scoring plus the
// contact fields the dispatcher needs. Signal fields are written by the
// CRM ingest path; the engine never mutates them.
type Prospect struct {
	ID                   types.ID    `json:"id"`
	UserID               types.ID    `json:"user_id"`
	FirstName            string      `json:"first_name"`
	MessengerHandle      string      `json:"messenger_handle,omitempty"`
	Phone                string      `json:"phone,omitempty"`
	Email                string      `json:"email,omitempty"`
	Bio                  string      `json:"bio,omitempty"`
	Posts                string      `json:"posts,omitempty"`
	CommentsText         string      `json:"comments_text,omitempty"`
	RecentActivity       string      `json:"recent_activity,omitempty"`
	Employment           string      `json:"employment,omitempty"`
	PersonalityType      string      `json:"personality_type,omitempty"`
	ReferralSource       string      `json:"referral_source,omitempty"`
	ReferralQuality      ReferralQuality `json:"referral_quality,omitempty"`
	ResponseSpeedSeconds int         `json:"response_speed_seconds"`
	CommentCount         int         `json:"comment_count"`
	LikeCount            int         `json:"like_count"`
	ShareCount           int         `json:"share_count"`
	Temperature          Temperature `json:"temperature"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// ProspectDAO provides database operations for prospects
type ProspectDAO interface {
	// Create inserts a new prospect
	Create(ctx context.Context, p *Prospect) error

	// GetByID retrieves a prospect by ID
	GetByID(ctx context.Context, id types.ID) (*Prospect, error)

	// ListByUser returns all prospects owned by a user
	ListByUser(ctx context.Context, userID types.ID) ([]*Prospect, error)

	// Update updates a prospect's fields
	Update(ctx context.Context, p *Prospect) error

	// Delete deletes a prospect and, via foreign keys, its engine records
	Delete(ctx context.Context, id types.ID) error
}

type prospectDAO struct {
	db *DB
}

// NewProspectDAO creates a new prospect DAO
func NewProspectDAO(db *DB) ProspectDAO {
	return &prospectDAO{db: db}
}

const prospectColumns = `
	id, user_id, first_name, messenger_handle, phone, email,
	bio, posts, comments_text, recent_activity, employment,
	personality_type, referral_source, referral_quality,
	response_speed_seconds, comment_count, like_count, share_count,
	temperature, created_at, updated_at`

func (d *prospectDAO) Create(ctx context.Context, p *Prospect) error {
	if p.ID == "" {
		p.ID = types.NewID()
	}
	if p.Temperature == "" {
		p.Temperature = TemperatureCold
	}

	query := `
		INSERT INTO prospects (
			id, user_id, first_name, messenger_handle, phone, email,
			bio, posts, comments_text, recent_activity, employment,
			personality_type, referral_source, referral_quality,
			response_speed_seconds, comment_count, like_count, share_count,
			temperature, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`

	_, err := d.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.FirstName, p.MessengerHandle, p.Phone, p.Email,
		p.Bio, p.Posts, p.CommentsText, p.RecentActivity, p.Employment,
		p.PersonalityType, p.ReferralSource, p.ReferralQuality,
		p.ResponseSpeedSeconds, p.CommentCount, p.LikeCount, p.ShareCount,
		p.Temperature,
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to create prospect", err)
	}
	return nil
}

func (d *prospectDAO) GetByID(ctx context.Context, id types.ID) (*Prospect, error) {
	row := d.db.QueryRowContext(ctx,
		"SELECT"+prospectColumns+" FROM prospects WHERE id = ?", id)

	p, err := scanProspect(row)
	if err == sql.ErrNoRows {
		return nil, types.NewError(types.PROSPECT_NOT_FOUND, "prospect not found: "+id.String())
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get prospect", err)
	}
	return p, nil
}

func (d *prospectDAO) ListByUser(ctx context.Context, userID types.ID) ([]*Prospect, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT"+prospectColumns+" FROM prospects WHERE user_id = ? ORDER BY created_at", userID)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list prospects", err)
	}
	defer rows.Close()

	var prospects []*Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan prospect row", err)
		}
		prospects = append(prospects, p)
	}
	return prospects, rows.Err()
}

func (d *prospectDAO) Update(ctx context.Context, p *Prospect) error {
	query := `
		UPDATE prospects SET
			first_name = ?, messenger_handle = ?, phone = ?, email = ?,
			bio = ?, posts = ?, comments_text = ?, recent_activity = ?,
			employment = ?, personality_type = ?, referral_source = ?,
			referral_quality = ?, response_speed_seconds = ?, comment_count = ?,
			like_count = ?, share_count = ?, temperature = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := d.db.ExecContext(ctx, query,
		p.FirstName, p.MessengerHandle, p.Phone, p.Email,
		p.Bio, p.Posts, p.CommentsText, p.RecentActivity,
		p.Employment, p.PersonalityType, p.ReferralSource,
		p.ReferralQuality, p.ResponseSpeedSeconds, p.CommentCount,
		p.LikeCount, p.ShareCount, p.Temperature,
		p.ID,
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to update prospect", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to check update result", err)
	}
	if affected == 0 {
		return types.NewError(types.PROSPECT_NOT_FOUND, "prospect not found: "+p.ID.String())
	}
	return nil
}

func (d *prospectDAO) Delete(ctx context.Context, id types.ID) error {
	_, err := d.db.ExecContext(ctx, "DELETE FROM prospects WHERE id = ?", id)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to delete prospect", err)
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProspect(row rowScanner) (*Prospect, error) {
	var p Prospect
	err := row.Scan(
		&p.ID, &p.UserID, &p.FirstName, &p.MessengerHandle, &p.Phone, &p.Email,
		&p.Bio, &p.Posts, &p.CommentsText, &p.RecentActivity, &p.Employment,
		&p.PersonalityType, &p.ReferralSource, &p.ReferralQuality,
		&p.ResponseSpeedSeconds, &p.CommentCount, &p.LikeCount, &p.ShareCount,
		&p.Temperature, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
