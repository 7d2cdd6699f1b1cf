package integration

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/testutil"
)

const orderPlacedTopic = "order.placed.v1"

func TestOutbox_CheckoutRelayedToRabbitMQ(t *testing.T) {
	pool, _ := testutil.StartPostgres(t)
	conn := testutil.StartRabbitMQ(t)
	e := wire(pool, checkout.WithEvents(events.NewOrderPlacedRecorder(orderPlacedTopic, "marketplace-service")))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	seedScenario(ctx, t, pool)

	publisher, err := events.NewAMQPPublisher(conn)
	require.NoError(t, err)
	defer publisher.Close()

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, orderPlacedTopic, events.EventsExchange, false, nil))
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	res, err := e.checkout.Checkout(ctx, checkout.Request{
		UserID: 7, PaymentMethod: "cod", Address: "123 Main St", Phone: "555-1234", CorrelationID: "cid-42",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count(ctx, t, pool, `SELECT count(*) FROM outbox WHERE sent_at IS NULL`))

	relay := events.NewRelay(pool, publisher, 10, zerolog.Nop())
	sent, err := relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Zero(t, count(ctx, t, pool, `SELECT count(*) FROM outbox WHERE sent_at IS NULL`))

	select {
	case d := <-deliveries:
		var env events.OrderPlacedEnvelope
		require.NoError(t, json.Unmarshal(d.Body, &env))
		require.NoError(t, env.Validate(events.OrderPlacedEventName, events.OrderPlacedEventVersion))
		assert.Equal(t, res.OrderID, env.Payload.OrderID)
		assert.Equal(t, "cid-42", env.CorrelationID)
		assert.Equal(t, "25.50", env.Payload.TotalPrice.StringFixed(2))
		assert.Len(t, env.Payload.Items, 2)
	case <-ctx.Done():
		t.Fatal("timed out waiting for OrderPlaced")
	}
}

// failingClear fails the last write of checkout, after the outbox row.
type failingClear struct {
	*cart.PostgresRepository
}

func (failingClear) Clear(context.Context, pgx.Tx, int64, []int64) (int64, error) {
	return 0, errors.New("injected clear failure")
}

func TestOutbox_RolledBackCheckoutRecordsNothing(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	seedScenario(ctx, t, e.pool)

	svc := checkout.NewService(e.pool, failingClear{e.carts}, e.orders, zerolog.Nop(),
		checkout.WithEvents(events.NewOrderPlacedRecorder(orderPlacedTopic, "marketplace-service")))
	_, err := svc.Checkout(ctx, scenarioRequest())
	require.ErrorIs(t, err, apperr.ErrCheckoutFailed)

	assert.Zero(t, count(ctx, t, e.pool, `SELECT count(*) FROM outbox`))
	assert.Zero(t, count(ctx, t, e.pool, `SELECT count(*) FROM orders`))
}
