package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/streadway/amqp"

	"github.com/KhanhRomVN/saleso-order-service/internal/apperrors"
)

// replyQueue is RabbitMQ's pseudo-queue for direct reply-to. Consuming from it
// is scoped to the channel that consumes, so each pooled channel gets an
// isolated reply destination.
const replyQueue = "amq.rabbitmq.reply-to"

const defaultPoolSize = 8

// Config holds RabbitMQ connection details.
type Config struct {
	URL      string
	PoolSize int
}

// amqpChannel is the slice of *amqp.Channel the pooled call path touches.
// The pool holds this interface so its bookkeeping stays testable without a
// live broker.
type amqpChannel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Cancel(consumer string, noWait bool) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Close() error
}

// Client is a request/reply and fire-and-forget publisher over one long-lived
// connection and a fixed pool of channels. A channel is checked out per call
// and returned on every exit path; a channel suspected broken is closed and
// its pool slot replaced lazily.
type Client struct {
	conn *amqp.Connection
	pool chan amqpChannel
	open func() (amqpChannel, error)
	log  *slog.Logger
}

// New dials the broker and opens the channel pool.
func New(cfg Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	size := cfg.PoolSize
	if size <= 0 {
		size = defaultPoolSize
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, apperrors.Transport(fmt.Errorf("dial %s: %w", cfg.URL, err))
	}

	open := func() (amqpChannel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return ch, nil
	}

	pool := make(chan amqpChannel, size)
	for i := 0; i < size; i++ {
		ch, err := open()
		if err != nil {
			conn.Close()
			return nil, apperrors.Transport(fmt.Errorf("open channel: %w", err))
		}
		pool <- ch
	}

	log.Info("rabbitmq client connected", "url", cfg.URL, "pool_size", size)
	return &Client{conn: conn, pool: pool, open: open, log: log}, nil
}

// Close drains the pool and closes the connection, aggregating errors.
func (c *Client) Close() error {
	var errs []error
	for i := 0; i < cap(c.pool); i++ {
		select {
		case ch := <-c.pool:
			if ch != nil {
				if err := ch.Close(); err != nil {
					errs = append(errs, fmt.Errorf("close channel: %w", err))
				}
			}
		default:
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("rabbitmq close: %v", errs)
	}
	return nil
}

// get checks a channel out of the pool, opening a replacement for slots whose
// channel was previously discarded.
func (c *Client) get(ctx context.Context) (amqpChannel, error) {
	select {
	case ch := <-c.pool:
		if ch != nil {
			return ch, nil
		}
		nch, err := c.open()
		if err != nil {
			c.pool <- nil
			return nil, apperrors.Transport(fmt.Errorf("reopen channel: %w", err))
		}
		return nch, nil
	case <-ctx.Done():
		return nil, waitErr(ctx, "channel pool")
	}
}

func (c *Client) put(ch amqpChannel) { c.pool <- ch }

// discard closes a broken channel and leaves a nil slot so the pool size stays
// constant; get reopens the slot on demand.
func (c *Client) discard(ch amqpChannel) {
	if ch != nil {
		_ = ch.Close()
	}
	c.pool <- nil
}

// Call publishes req to queue and blocks until the correlated reply arrives,
// the context deadline passes, or the transport fails. The reply payload is
// decoded into reply when reply is non-nil.
func (c *Client) Call(ctx context.Context, queue string, req, reply any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return apperrors.InvalidInput("marshal request for %s: %v", queue, err)
	}

	ch, err := c.get(ctx)
	if err != nil {
		return err
	}

	corrID := uuid.NewString()
	consumerTag := uuid.NewString()

	// Direct reply-to requires the consumer to exist before publishing, in
	// no-ack mode, on the same channel.
	deliveries, err := ch.Consume(replyQueue, consumerTag, true, false, false, false, nil)
	if err != nil {
		c.discard(ch)
		return apperrors.Transport(fmt.Errorf("consume reply for %s: %w", queue, err))
	}

	err = ch.Publish("", queue, false, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: corrID,
		ReplyTo:       replyQueue,
		Timestamp:     time.Now(),
		Body:          body,
	})
	if err != nil {
		c.discard(ch)
		return apperrors.Transport(fmt.Errorf("publish to %s: %w", queue, err))
	}

	for {
		select {
		case <-ctx.Done():
			c.release(ch, consumerTag)
			return waitErr(ctx, queue)
		case d, ok := <-deliveries:
			if !ok {
				c.discard(ch)
				return apperrors.Transport(fmt.Errorf("reply stream for %s closed", queue))
			}
			if d.CorrelationId != corrID {
				// Stale reply from an earlier timed-out call on this channel.
				c.log.Debug("dropping uncorrelated reply", "queue", queue,
					"correlation_id", d.CorrelationId)
				continue
			}
			c.release(ch, consumerTag)
			return decodeReply(queue, d.Body, reply)
		}
	}
}

// release cancels the per-call consumer and returns the channel to the pool.
func (c *Client) release(ch amqpChannel, consumerTag string) {
	if err := ch.Cancel(consumerTag, false); err != nil {
		c.discard(ch)
		return
	}
	c.put(ch)
}

// Notify publishes payload to a durable queue without expecting a reply. Used
// for analytics and notification side effects.
func (c *Client) Notify(ctx context.Context, queue string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.InvalidInput("marshal payload for %s: %v", queue, err)
	}

	ch, err := c.get(ctx)
	if err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		c.discard(ch)
		return apperrors.Transport(fmt.Errorf("declare %s: %w", queue, err))
	}

	err = ch.Publish("", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		c.discard(ch)
		return apperrors.Transport(fmt.Errorf("publish to %s: %w", queue, err))
	}

	c.put(ch)
	return nil
}

// waitErr maps a done context to the taxonomy: deadline expiry is a timeout,
// caller cancellation propagates as-is.
func waitErr(ctx context.Context, queue string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.Timeout(queue)
	}
	return ctx.Err()
}

// remoteEnvelope is the error convention sibling services reply with.
type remoteEnvelope struct {
	Error string `json:"error"`
}

// decodeReply surfaces a remote-side error field, otherwise unmarshals the
// reply body into out.
func decodeReply(queue string, body []byte, out any) error {
	var env remoteEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return apperrors.Remote(queue, env.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.Remote(queue, fmt.Sprintf("malformed reply: %v", err))
	}
	return nil
}
