package channel

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadforge/leadforge/internal/config"
	"github.com/leadforge/leadforge/internal/database"
	"github.com/leadforge/leadforge/internal/observability"
	"github.com/leadforge/leadforge/internal/types"
)

func TestResolveContact(t *testing.T) {
	p := &database.Prospect{
		ID:              types.NewID(),
		MessengerHandle: "maria.cruz",
		Phone:           "+639171234567",
	}

	contact, err := ResolveContact(p, ChannelMessenger)
	require.NoError(t, err)
	assert.Equal(t, "maria.cruz", contact)

	contact, err = ResolveContact(p, ChannelSMS)
	require.NoError(t, err)
	assert.Equal(t, "+639171234567", contact)

	_, err = ResolveContact(p, ChannelEmail)
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.CONTACT_MISSING))

	_, err = ResolveContact(p, "carrier_pigeon")
	require.Error(t, err)
}

func setupOutbox(t *testing.T, dispatch config.DispatchConfig) (*OutboxSender, database.OutboxDAO, *database.Prospect) {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "channel_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewMigrator(db).Migrate(context.Background()))

	prospect := &database.Prospect{
		UserID:          types.NewID(),
		FirstName:       "Maria",
		MessengerHandle: "maria.cruz",
	}
	require.NoError(t, database.NewProspectDAO(db).Create(context.Background(), prospect))

	outbox := database.NewOutboxDAO(db)
	return NewOutboxSender(outbox, dispatch, observability.Discard()), outbox, prospect
}

func TestOutboxSenderRecordsDelivery(t *testing.T) {
	sender, outbox, prospect := setupOutbox(t, config.DispatchConfig{})
	ctx := context.Background()

	receipt, err := sender.Send(ctx, Message{
		ExecutionID: types.NewID(),
		ProspectID:  prospect.ID,
		Channel:     ChannelMessenger,
		Recipient:   "maria.cruz",
		Body:        "Hi Maria!",
	})
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, ChannelMessenger, receipt.Channel)
	assert.False(t, receipt.SentAt.IsZero())

	deliveries, err := outbox.ListByProspect(ctx, prospect.ID)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.Equal(t, "Hi Maria!", deliveries[0].Body)
	assert.Equal(t, "maria.cruz", deliveries[0].Recipient)
	assert.Equal(t, receipt.DeliveryID, deliveries[0].ID)
}

func TestOutboxSenderRejectsDisabledChannel(t *testing.T) {
	sender, _, prospect := setupOutbox(t, config.DispatchConfig{
		DisabledChannels: []string{ChannelSMS},
	})

	_, err := sender.Send(context.Background(), Message{
		ProspectID: prospect.ID,
		Channel:    ChannelSMS,
		Recipient:  "+639171234567",
		Body:       "hello",
	})
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.CHANNEL_DISABLED))
}

func TestOutboxSenderRejectsUnknownChannelAndEmptyRecipient(t *testing.T) {
	sender, _, prospect := setupOutbox(t, config.DispatchConfig{})

	_, err := sender.Send(context.Background(), Message{
		ProspectID: prospect.ID,
		Channel:    "fax",
		Recipient:  "x",
	})
	assert.True(t, types.HasCode(err, types.CHANNEL_DISABLED))

	_, err = sender.Send(context.Background(), Message{
		ProspectID: prospect.ID,
		Channel:    ChannelMessenger,
	})
	assert.True(t, types.HasCode(err, types.CONTACT_MISSING))
}

func TestOutboxSenderRateLimitHonorsContext(t *testing.T) {
	sender, _, prospect := setupOutbox(t, config.DispatchConfig{
		RatePerSecond: 0.001,
		Burst:         1,
	})
	ctx := context.Background()

	// first send consumes the burst token
	_, err := sender.Send(ctx, Message{
		ProspectID: prospect.ID,
		Channel:    ChannelMessenger,
		Recipient:  "maria.cruz",
		Body:       "first",
	})
	require.NoError(t, err)

	shortCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	_, err = sender.Send(shortCtx, Message{
		ProspectID: prospect.ID,
		Channel:    ChannelMessenger,
		Recipient:  "maria.cruz",
		Body:       "second",
	})
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.DELIVERY_FAILED))
	assert.True(t, types.IsRetryable(err))
}
