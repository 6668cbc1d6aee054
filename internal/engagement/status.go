// Package engagement maintains per-prospect engagement state as a
// projection over the append-only event log. External systems report
// milestones through the Recorder; step conditions read the projection.
package engagement

import (
	"context"
	"log/slog"
	"time"

	"github.com/leadforge/leadforge/internal/database"
	"github.com/leadforge/leadforge/internal/types"
)

// Status is the folded view of a prospect's engagement log. Each flag is
// monotonic: events only ever set flags, never clear them.
type Status struct {
	ProspectID      types.ID   `json:"prospect_id"`
	SequenceStarted bool       `json:"sequence_started"`
	Replied         bool       `json:"replied"`
	MeetingBooked   bool       `json:"meeting_booked"`
	DealClosed      bool       `json:"deal_closed"`
	MessageOpened   bool       `json:"message_opened"`
	LastEventAt     *time.Time `json:"last_event_at,omitempty"`
	EventCount      int        `json:"event_count"`
}

// Project folds an event list into a Status.
func Project(prospectID types.ID, events []*database.EngagementEvent) Status {
	status := Status{ProspectID: prospectID}
	for _, e := range events {
		switch e.EventType {
		case database.EngagementSequenceStarted:
			status.SequenceStarted = true
		case database.EngagementReplyReceived:
			status.Replied = true
		case database.EngagementMeetingBooked:
			status.MeetingBooked = true
		case database.EngagementDealClosed:
			status.DealClosed = true
		case database.EngagementMessageOpened:
			status.MessageOpened = true
		}
		status.EventCount++
		t := e.CreatedAt
		status.LastEventAt = &t
	}
	return status
}

// Tracker reads and appends engagement state.
type Tracker struct {
	events database.EngagementDAO
	logger *slog.Logger
}

// NewTracker creates a Tracker.
func NewTracker(events database.EngagementDAO, logger *slog.Logger) *Tracker {
	return &Tracker{events: events, logger: logger}
}

// StatusFor recomputes the projection from the log. A prospect with no
// events gets the zero status, which is a valid "nothing happened yet"
// answer, not an error.
func (t *Tracker) StatusFor(ctx context.Context, prospectID types.ID) (Status, error) {
	events, err := t.events.ListByProspect(ctx, prospectID)
	if err != nil {
		return Status{}, err
	}
	return Project(prospectID, events), nil
}

// Record appends a milestone reported by an external channel system.
func (t *Tracker) Record(ctx context.Context, prospectID types.ID, eventType database.EngagementEventType, source string) error {
	if !database.ValidEngagementEventType(eventType) {
		return types.NewError(types.DB_QUERY_FAILED,
			"unknown engagement event type: "+string(eventType))
	}

	err := t.events.Append(ctx, &database.EngagementEvent{
		ProspectID: prospectID,
		EventType:  eventType,
		Source:     source,
	})
	if err != nil {
		return err
	}

	t.logger.Debug("engagement event recorded",
		"prospect_id", prospectID, "event", eventType, "source", source)
	return nil
}
