// Package channel is the outbound dispatch boundary. The engine hands a
// rendered message and a channel name to a Sender and records the
// outcome; actual network delivery belongs to external transports.
package channel

import (
	"context"
	"time"

	"github.com/leadforge/leadforge/internal/database"
	"github.com/leadforge/leadforge/internal/types"
)

// Supported channel names.
const (
	ChannelMessenger = "messenger"
	ChannelSMS       = "sms"
	ChannelEmail     = "email"
)

// ValidChannel reports whether name is a supported channel.
func ValidChannel(name string) bool {
	switch name {
	case ChannelMessenger, ChannelSMS, ChannelEmail:
		return true
	}
	return false
}

// Message is one outbound message ready for dispatch.
type Message struct {
	ExecutionID types.ID
	ProspectID  types.ID
	Channel     string
	Recipient   string
	Body        string
}

// Receipt acknowledges an accepted dispatch.
type Receipt struct {
	DeliveryID types.ID
	Channel    string
	SentAt     time.Time
}

// Sender dispatches an outbound message on its channel.
type Sender interface {
	Send(ctx context.Context, msg Message) (*Receipt, error)
}

// ResolveContact picks the prospect contact field matching the channel.
func ResolveContact(p *database.Prospect, channelName string) (string, error) {
	var contact string
	switch channelName {
	case ChannelMessenger:
		contact = p.MessengerHandle
	case ChannelSMS:
		contact = p.Phone
	case ChannelEmail:
		contact = p.Email
	default:
		return "", types.NewError(types.CHANNEL_DISABLED, "unknown channel: "+channelName)
	}

	if contact == "" {
		return "", types.NewError(types.CONTACT_MISSING,
			"prospect "+p.ID.String()+" has no "+channelName+" contact")
	}
	return contact, nil
}
