package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/streadway/amqp"

	"github.com/KhanhRomVN/saleso-order-service/internal/apperrors"
)

// Handler produces the reply body for one inbound RPC request.
type Handler func(ctx context.Context, body []byte) ([]byte, error)

// ServeRPC consumes queue and answers each request on its reply destination,
// echoing the correlation id. It holds one dedicated channel outside the pool
// for the lifetime of ctx and acks only after a successful reply; failed
// requests are nacked for redelivery.
func (c *Client) ServeRPC(ctx context.Context, queue string, handler Handler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return apperrors.Transport(fmt.Errorf("open consumer channel: %w", err))
	}

	if _, err := ch.QueueDeclare(queue, false, false, false, false, nil); err != nil {
		ch.Close()
		return apperrors.Transport(fmt.Errorf("declare %s: %w", queue, err))
	}

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return apperrors.Transport(fmt.Errorf("consume %s: %w", queue, err))
	}

	go func() {
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				c.handleRequest(ctx, ch, queue, d, handler)
			}
		}
	}()

	c.log.Info("serving rpc queue", "queue", queue)
	return nil
}

func (c *Client) handleRequest(ctx context.Context, ch *amqp.Channel, queue string, d amqp.Delivery, handler Handler) {
	reply, err := handler(ctx, d.Body)
	if err != nil {
		c.log.Error("rpc handler failed", "queue", queue, "error", err)
		_ = d.Nack(false, true)
		return
	}

	if d.ReplyTo != "" {
		err = ch.Publish("", d.ReplyTo, false, false, amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: d.CorrelationId,
			Body:          reply,
		})
		if err != nil {
			c.log.Error("rpc reply publish failed", "queue", queue, "error", err)
			_ = d.Nack(false, true)
			return
		}
	}

	_ = d.Ack(false)
}
