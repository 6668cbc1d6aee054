package channel

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/leadforge/leadforge/internal/config"
	"github.com/leadforge/leadforge/internal/database"
	"github.com/leadforge/leadforge/internal/types"
)

// OutboxSender is the default Sender. It rate-limits outbound traffic
// and records each accepted message in the outbox table instead of
// hitting a real messaging network.
type OutboxSender struct {
	outbox   database.OutboxDAO
	dispatch config.DispatchConfig
	limiter  *rate.Limiter
	logger   *slog.Logger
	now      func() time.Time
}

// NewOutboxSender creates an OutboxSender from dispatch configuration.
// A non-positive rate disables limiting.
func NewOutboxSender(outbox database.OutboxDAO, dispatch config.DispatchConfig, logger *slog.Logger) *OutboxSender {
	limit := rate.Inf
	burst := dispatch.Burst
	if dispatch.RatePerSecond > 0 {
		limit = rate.Limit(dispatch.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
	}

	return &OutboxSender{
		outbox:   outbox,
		dispatch: dispatch,
		limiter:  rate.NewLimiter(limit, burst),
		logger:   logger,
		now:      time.Now,
	}
}

// Send validates the channel, waits for rate-limit headroom, and records
// the delivery. The context deadline bounds the wait.
func (s *OutboxSender) Send(ctx context.Context, msg Message) (*Receipt, error) {
	if !ValidChannel(msg.Channel) {
		return nil, types.NewError(types.CHANNEL_DISABLED, "unknown channel: "+msg.Channel)
	}
	if s.dispatch.ChannelDisabled(msg.Channel) {
		return nil, types.NewError(types.CHANNEL_DISABLED, "channel disabled: "+msg.Channel)
	}
	if msg.Recipient == "" {
		return nil, types.NewError(types.CONTACT_MISSING, "message has no recipient")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, types.NewRetryableError(types.DELIVERY_FAILED, "rate limit wait aborted: "+err.Error())
	}

	delivery := &database.OutboxDelivery{
		ExecutionID: msg.ExecutionID,
		ProspectID:  msg.ProspectID,
		Channel:     msg.Channel,
		Recipient:   msg.Recipient,
		Body:        msg.Body,
	}
	if err := s.outbox.Record(ctx, delivery); err != nil {
		return nil, types.WrapError(types.DELIVERY_FAILED, "failed to record delivery", err)
	}

	s.logger.Debug("message dispatched",
		"channel", msg.Channel, "prospect_id", msg.ProspectID, "execution_id", msg.ExecutionID)

	return &Receipt{
		DeliveryID: delivery.ID,
		Channel:    msg.Channel,
		SentAt:     s.now().UTC(),
	}, nil
}
