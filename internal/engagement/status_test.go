package engagement

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadforge/leadforge/internal/database"
	"github.com/leadforge/leadforge/internal/observability"
	"github.com/leadforge/leadforge/internal/types"
)

func TestProjectEmptyLog(t *testing.T) {
	prospectID := types.NewID()
	status := Project(prospectID, nil)

	assert.Equal(t, prospectID, status.ProspectID)
	assert.False(t, status.SequenceStarted)
	assert.False(t, status.Replied)
	assert.False(t, status.MeetingBooked)
	assert.False(t, status.DealClosed)
	assert.False(t, status.MessageOpened)
	assert.Nil(t, status.LastEventAt)
	assert.Zero(t, status.EventCount)
}

func TestProjectFoldsFlags(t *testing.T) {
	prospectID := types.NewID()
	base := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	events := []*database.EngagementEvent{
		{EventType: database.EngagementSequenceStarted, CreatedAt: base},
		{EventType: database.EngagementMessageOpened, CreatedAt: base.Add(time.Hour)},
		{EventType: database.EngagementReplyReceived, CreatedAt: base.Add(2 * time.Hour)},
		// duplicate events are harmless, flags stay set
		{EventType: database.EngagementReplyReceived, CreatedAt: base.Add(3 * time.Hour)},
	}

	status := Project(prospectID, events)
	assert.True(t, status.SequenceStarted)
	assert.True(t, status.MessageOpened)
	assert.True(t, status.Replied)
	assert.False(t, status.MeetingBooked)
	assert.False(t, status.DealClosed)
	assert.Equal(t, 4, status.EventCount)
	require.NotNil(t, status.LastEventAt)
	assert.Equal(t, base.Add(3*time.Hour), *status.LastEventAt)
}

func setupTracker(t *testing.T) (*Tracker, types.ID) {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "engagement_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrator(db).Migrate(context.Background()))

	prospects := database.NewProspectDAO(db)
	prospect := &database.Prospect{
		UserID:    types.NewID(),
		FirstName: "Ana",
	}
	require.NoError(t, prospects.Create(context.Background(), prospect))

	return NewTracker(database.NewEngagementDAO(db), observability.Discard()), prospect.ID
}

func TestTrackerRecordAndStatus(t *testing.T) {
	tracker, prospectID := setupTracker(t)
	ctx := context.Background()

	status, err := tracker.StatusFor(ctx, prospectID)
	require.NoError(t, err)
	assert.False(t, status.Replied)

	require.NoError(t, tracker.Record(ctx, prospectID, database.EngagementReplyReceived, "messenger_webhook"))
	require.NoError(t, tracker.Record(ctx, prospectID, database.EngagementMeetingBooked, "calendar"))

	status, err = tracker.StatusFor(ctx, prospectID)
	require.NoError(t, err)
	assert.True(t, status.Replied)
	assert.True(t, status.MeetingBooked)
	assert.False(t, status.DealClosed)
	assert.Equal(t, 2, status.EventCount)
}

func TestTrackerRejectsUnknownEvent(t *testing.T) {
	tracker, prospectID := setupTracker(t)

	err := tracker.Record(context.Background(), prospectID, "ghosted", "manual")
	require.Error(t, err)
}
