// Package consumers hosts the broker queues this service answers for its
// siblings.
package consumers

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/KhanhRomVN/saleso-order-service/internal/producers"
	"github.com/KhanhRomVN/saleso-order-service/internal/repositories"
	"github.com/KhanhRomVN/saleso-order-service/pkg/rabbitmq"
)

// RPCServer exposes the consume side of the broker client.
type RPCServer interface {
	ServeRPC(ctx context.Context, queue string, handler rabbitmq.Handler) error
}

// AnalyticsConsumer answers the analytics service's top-customers ranking
// requests from local order data.
type AnalyticsConsumer struct {
	orders repositories.OrderRepository
	broker RPCServer
}

// NewAnalyticsConsumer wires the consumer.
func NewAnalyticsConsumer(orders repositories.OrderRepository, broker RPCServer) *AnalyticsConsumer {
	return &AnalyticsConsumer{orders: orders, broker: broker}
}

// Start begins serving until ctx is cancelled. The request body is the bare
// seller id; the reply is the JSON ranking.
func (c *AnalyticsConsumer) Start(ctx context.Context) error {
	return c.broker.ServeRPC(ctx, producers.TopCustomersAnalyticQueue, func(ctx context.Context, body []byte) ([]byte, error) {
		sellerID := strings.TrimSpace(string(body))
		rows, err := c.orders.TopCustomers(ctx, sellerID, 5)
		if err != nil {
			return nil, err
		}
		return json.Marshal(rows)
	})
}
