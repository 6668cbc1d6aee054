package database

import (
	"context"
	"time"

	"github.com/leadforge/leadforge/internal/types"
)

// EngagementEventType names an externally-reported prospect milestone.
type EngagementEventType string

const (
	EngagementSequenceStarted EngagementEventType = "sequence_started"
	EngagementReplyReceived   EngagementEventType = "reply_received"
	EngagementMeetingBooked   EngagementEventType = "meeting_booked"
	EngagementDealClosed      EngagementEventType = "deal_closed"
	EngagementMessageOpened   EngagementEventType = "message_opened"
)

// ValidEngagementEventType reports whether t is a known event type.
func ValidEngagementEventType(t EngagementEventType) bool {
	switch t {
	case EngagementSequenceStarted, EngagementReplyReceived,
		EngagementMeetingBooked, EngagementDealClosed, EngagementMessageOpened:
		return true
	}
	return false
}

// EngagementEvent is one append-only row in the engagement log. Status
// flags are a projection over these events, so a flag that became true
// can never flip back to false.
type EngagementEvent struct {
	ID         types.ID            `json:"id"`
	ProspectID types.ID            `json:"prospect_id"`
	EventType  EngagementEventType `json:"event_type"`
	Source     string              `json:"source,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

// EngagementDAO provides database operations for the engagement event log.
// The log is append-only: there is no update or delete.
type EngagementDAO interface {
	// Append adds an event to the log
	Append(ctx context.Context, event *EngagementEvent) error

	// ListByProspect returns all events for a prospect in arrival order
	ListByProspect(ctx context.Context, prospectID types.ID) ([]*EngagementEvent, error)

	// HasEvents reports whether any event exists for a prospect
	HasEvents(ctx context.Context, prospectID types.ID) (bool, error)
}

type engagementDAO struct {
	db *DB
}

// NewEngagementDAO creates a new engagement DAO
func NewEngagementDAO(db *DB) EngagementDAO {
	return &engagementDAO{db: db}
}

func (d *engagementDAO) Append(ctx context.Context, event *EngagementEvent) error {
	if event.ID == "" {
		event.ID = types.NewID()
	}
	if !ValidEngagementEventType(event.EventType) {
		return types.NewError(types.DB_QUERY_FAILED,
			"unknown engagement event type: "+string(event.EventType))
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO engagement_events (id, prospect_id, event_type, source, created_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, event.ID, event.ProspectID, event.EventType, event.Source)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to append engagement event", err)
	}
	return nil
}

func (d *engagementDAO) ListByProspect(ctx context.Context, prospectID types.ID) ([]*EngagementEvent, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, prospect_id, event_type, source, created_at
		FROM engagement_events
		WHERE prospect_id = ?
		ORDER BY created_at, id
	`, prospectID)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list engagement events", err)
	}
	defer rows.Close()

	var events []*EngagementEvent
	for rows.Next() {
		var e EngagementEvent
		if err := rows.Scan(&e.ID, &e.ProspectID, &e.EventType, &e.Source, &e.CreatedAt); err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan event row", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (d *engagementDAO) HasEvents(ctx context.Context, prospectID types.ID) (bool, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM engagement_events WHERE prospect_id = ?", prospectID).Scan(&count)
	if err != nil {
		return false, types.WrapError(types.DB_QUERY_FAILED, "failed to count engagement events", err)
	}
	return count > 0, nil
}
