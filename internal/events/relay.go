package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/db"
)

// Relay moves outbox rows to a broker. Delivery is at least once: a crash
// between publish and commit republishes the batch.
type Relay struct {
	pool      db.Beginner
	outbox    Outbox
	publisher Publisher
	batchSize int
	logger    zerolog.Logger
}

func NewRelay(pool db.Beginner, publisher Publisher, batchSize int, logger zerolog.Logger) *Relay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Relay{pool: pool, publisher: publisher, batchSize: batchSize, logger: logger}
}

// RunOnce publishes one batch and returns how many rows were marked sent.
// Rows after the first failed publish stay pending for the next round.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	var sent []int64
	var publishErr error

	err := db.InTx(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		pending, err := r.outbox.FetchPending(ctx, tx, r.batchSize)
		if err != nil {
			return err
		}
		for _, rec := range pending {
			if err := r.publisher.Publish(ctx, rec.Topic, rec.Key, rec.Payload); err != nil {
				publishErr = fmt.Errorf("publish outbox %d: %w", rec.ID, err)
				break
			}
			sent = append(sent, rec.ID)
		}
		return r.outbox.MarkSent(ctx, tx, sent)
	})
	if err != nil {
		return 0, err
	}
	return len(sent), publishErr
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := r.RunOnce(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			r.logger.Error().Err(err).Int("sent", n).Msg("outbox relay round failed")
		case n > 0:
			r.logger.Info().Int("sent", n).Msg("outbox relay published events")
		}

		// Drain a backlog without waiting for the next tick.
		if err == nil && n == r.batchSize {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
