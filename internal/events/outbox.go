package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/order"
)

// Record is one row of the outbox table.
type Record struct {
	ID        int64
	EventID   string
	Topic     string
	Key       string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// Outbox stores events in the same transaction as the state change that
// produced them. A separate relay process publishes them.
type Outbox struct{}

func (Outbox) Insert(ctx context.Context, tx pgx.Tx, eventID, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}
	_, err = tx.Exec(ctx, `INSERT INTO outbox (event_id, topic, key, payload) VALUES ($1, $2, $3, $4)`,
		eventID, topic, key, data)
	if err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return nil
}

// FetchPending locks up to limit unsent rows. Concurrent relays skip rows
// another relay holds.
func (Outbox) FetchPending(ctx context.Context, tx pgx.Tx, limit int) ([]Record, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, event_id, topic, key, payload, created_at
		FROM outbox
		WHERE sent_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch pending outbox: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Topic, &rec.Key, &rec.Payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (Outbox) MarkSent(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `UPDATE outbox SET sent_at = now() WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	return nil
}

// OrderPlacedRecorder writes OrderPlaced events to the outbox during checkout.
type OrderPlacedRecorder struct {
	outbox   Outbox
	topic    string
	producer string
}

func NewOrderPlacedRecorder(topic, producer string) *OrderPlacedRecorder {
	return &OrderPlacedRecorder{topic: topic, producer: producer}
}

func (r *OrderPlacedRecorder) RecordOrderPlaced(ctx context.Context, tx pgx.Tx, o order.Order, meta EnvelopeMetadata) error {
	env := BuildOrderPlacedEnvelope(o, r.producer, meta)
	return r.outbox.Insert(ctx, tx, env.EventID, r.topic, env.PartitionKey, env)
}
