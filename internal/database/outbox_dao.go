package database

import (
	"context"
	"time"

	"github.com/leadforge/leadforge/internal/types"
)

// OutboxDelivery is one recorded outbound message. The outbox stands in
// for the external messaging-network transports.
type OutboxDelivery struct {
	ID          types.ID  `json:"id"`
	ExecutionID types.ID  `json:"execution_id"`
	ProspectID  types.ID  `json:"prospect_id"`
	Channel     string    `json:"channel"`
	Recipient   string    `json:"recipient"`
	Body        string    `json:"body"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// OutboxDAO records outbound deliveries.
type OutboxDAO interface {
	// Record appends a delivery
	Record(ctx context.Context, delivery *OutboxDelivery) error

	// ListByProspect returns deliveries for a prospect, oldest first
	ListByProspect(ctx context.Context, prospectID types.ID) ([]*OutboxDelivery, error)
}

type outboxDAO struct {
	db *DB
}

// NewOutboxDAO creates a new outbox DAO
func NewOutboxDAO(db *DB) OutboxDAO {
	return &outboxDAO{db: db}
}

func (d *outboxDAO) Record(ctx context.Context, delivery *OutboxDelivery) error {
	if delivery.ID == "" {
		delivery.ID = types.NewID()
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO outbox_deliveries (id, execution_id, prospect_id, channel, recipient, body, delivered_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, delivery.ID, delivery.ExecutionID, delivery.ProspectID,
		delivery.Channel, delivery.Recipient, delivery.Body)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to record delivery", err)
	}
	return nil
}

func (d *outboxDAO) ListByProspect(ctx context.Context, prospectID types.ID) ([]*OutboxDelivery, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, execution_id, prospect_id, channel, recipient, body, delivered_at
		FROM outbox_deliveries
		WHERE prospect_id = ?
		ORDER BY delivered_at, id
	`, prospectID)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list deliveries", err)
	}
	defer rows.Close()

	var deliveries []*OutboxDelivery
	for rows.Next() {
		var dl OutboxDelivery
		err := rows.Scan(&dl.ID, &dl.ExecutionID, &dl.ProspectID,
			&dl.Channel, &dl.Recipient, &dl.Body, &dl.DeliveredAt)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan delivery row", err)
		}
		deliveries = append(deliveries, &dl)
	}
	return deliveries, rows.Err()
}
