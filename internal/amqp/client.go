// Package amqp publishes and consumes ledger events over RabbitMQ.
// Publishing is best-effort: callers log and continue when the broker is
// down, so a broker outage never fails an API request.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishTransactionCreated publishes a transaction.created event.
func (c *Client) PublishTransactionCreated(ctx context.Context, id int64) error {
	env, err := NewTransactionCreated(id)
	if err != nil {
		return err
	}
	return c.publish(ctx, env)
}

// PublishUploadProcessed publishes an upload.processed event.
func (c *Client) PublishUploadProcessed(ctx context.Context, uploadID int64, sourceApp string, extracted, duplicates int) error {
	env, err := NewUploadProcessed(UploadProcessedPayload{
		UploadID:   uploadID,
		SourceApp:  sourceApp,
		Extracted:  extracted,
		Duplicates: duplicates,
	})
	if err != nil {
		return err
	}
	return c.publish(ctx, env)
}

func (c *Client) publish(ctx context.Context, env *Envelope) error {
	body, err := env.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", env.Type, err)
	}

	slog.InfoContext(ctx, "Published event",
		"type", env.Type,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// Handlers dispatches consumed envelopes by message type. Nil handlers
// acknowledge and skip their message kind.
type Handlers struct {
	OnTransactionCreated func(ctx context.Context, p TransactionCreatedPayload) error
	OnUploadProcessed    func(ctx context.Context, p UploadProcessedPayload) error
}

// Consume processes messages until the context is cancelled. Messages that
// fail to decode are rejected without requeue; handler failures are
// requeued.
func (c *Client) Consume(ctx context.Context, handlers Handlers) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming ledger events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping event consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			env, err := EnvelopeFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal event", "error", err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			if err := c.dispatch(ctx, env, handlers); err != nil {
				slog.ErrorContext(ctx, "Failed to handle event",
					"error", err, "type", env.Type)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, env *Envelope, handlers Handlers) error {
	switch env.Type {
	case TypeTransactionCreated:
		if handlers.OnTransactionCreated == nil {
			return nil
		}
		p, err := env.TransactionCreated()
		if err != nil {
			return err
		}
		return handlers.OnTransactionCreated(ctx, p)
	case TypeUploadProcessed:
		if handlers.OnUploadProcessed == nil {
			return nil
		}
		p, err := env.UploadProcessed()
		if err != nil {
			return err
		}
		return handlers.OnUploadProcessed(ctx, p)
	default:
		slog.WarnContext(ctx, "Unknown event type, skipping", "type", env.Type)
		return nil
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
