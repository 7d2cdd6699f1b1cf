package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(logging.Options{
		Service: cfg.ServiceName + "-outbox-relay",
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("outbox relay stopped")
	}
	logger.Info().Msg("shutdown complete")
}

func run(cfg config.Config, logger zerolog.Logger) error {
	if err := cfg.ValidateRelay(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN, db.PoolOptions{MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()

	publisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	logger.Info().
		Str("broker", cfg.EventsBroker).
		Dur("interval", cfg.RelayInterval).
		Int("batch", cfg.RelayBatchSize).
		Msg("outbox relay started")

	return events.NewRelay(pool, publisher, cfg.RelayBatchSize, logger).Run(ctx, cfg.RelayInterval)
}

func newPublisher(cfg config.Config) (events.Publisher, error) {
	switch cfg.EventsBroker {
	case "kafka":
		return events.NewKafkaPublisher(cfg.KafkaBrokers), nil
	default:
		conn, err := amqp.DialConfig(cfg.RabbitURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
		if err != nil {
			return nil, fmt.Errorf("dial rabbitmq: %w", err)
		}
		pub, err := events.NewAMQPPublisher(conn)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return &connPublisher{AMQPPublisher: pub, conn: conn}, nil
	}
}

// connPublisher closes the connection it owns together with the channel.
type connPublisher struct {
	*events.AMQPPublisher
	conn *amqp.Connection
}

func (p *connPublisher) Close() error {
	_ = p.AMQPPublisher.Close()
	return p.conn.Close()
}
