// Command replay moves dead-lettered messages back onto the main exchange so
// the worker retries them. Intended for operator use after the underlying
// fault (broken source object, missing ledger record, ffmpeg regression) has
// been fixed.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bad-Al-code/video-proccessing-service/internal/config"
	"github.com/bad-Al-code/video-proccessing-service/internal/infrastructure/queue"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		limit  = flag.Int("limit", 0, "maximum number of messages to replay (0 = drain the queue)")
		dryRun = flag.Bool("dry-run", false, "inspect messages without republishing")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	queueCfg := queue.DefaultClientConfig(cfg.RabbitMQ.URL())

	conn, err := amqp.Dial(queueCfg.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	replayed := 0
	var lastInspected uint64
	for *limit == 0 || replayed < *limit {
		delivery, ok, err := ch.Get(queueCfg.DeadLetterQueue, false)
		if err != nil {
			return fmt.Errorf("failed to read from %s: %w", queueCfg.DeadLetterQueue, err)
		}
		if !ok {
			break
		}

		logger.Info("dead-lettered message",
			slog.String("routing_key", delivery.RoutingKey),
			slog.Int("body_bytes", len(delivery.Body)),
		)

		if *dryRun {
			// Leave the message unacked so the next Get advances; everything
			// inspected is returned to the queue in one nack after the loop.
			lastInspected = delivery.DeliveryTag
			replayed++
			continue
		}

		err = ch.Publish(
			queueCfg.Exchange,
			queueCfg.ConsumeKey,
			false,
			false,
			amqp.Publishing{
				ContentType:  delivery.ContentType,
				Body:         delivery.Body,
				DeliveryMode: amqp.Persistent,
			},
		)
		if err != nil {
			// Keep the message on the dead-letter queue rather than lose it.
			if nackErr := delivery.Nack(false, true); nackErr != nil {
				return fmt.Errorf("failed to republish (%v) and requeue: %w", err, nackErr)
			}
			return fmt.Errorf("failed to republish message: %w", err)
		}

		if err := delivery.Ack(false); err != nil {
			return fmt.Errorf("failed to ack replayed message: %w", err)
		}
		replayed++
	}

	if *dryRun {
		if lastInspected > 0 {
			if err := ch.Nack(lastInspected, true, true); err != nil {
				return fmt.Errorf("failed to return messages to %s: %w", queueCfg.DeadLetterQueue, err)
			}
		}
		logger.Info("dry run complete", slog.Int("inspected", replayed))
		return nil
	}
	logger.Info("replay complete", slog.Int("replayed", replayed))
	return nil
}
