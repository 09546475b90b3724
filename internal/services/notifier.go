package services

import (
	"context"
	"log/slog"

	"github.com/KhanhRomVN/saleso-order-service/internal/models"
	"github.com/KhanhRomVN/saleso-order-service/internal/producers"
)

// notifier sends preference-gated notifications. Failures are logged and
// swallowed: a notification outage must never surface to the caller.
type notifier struct {
	gateway producers.Gateway
	log     *slog.Logger
}

// send fetches the recipient's notification preference and, if allowed says
// yes for it, publishes the notification.
func (n *notifier) send(ctx context.Context, recipientID string, allowed func(models.NotificationPreference) bool, title, content string) {
	pref, err := n.gateway.GetNotificationPreference(ctx, recipientID)
	if err != nil {
		n.log.Warn("fetch notification preference failed",
			"recipient_id", recipientID, "error", err)
		return
	}
	if !allowed(*pref) {
		return
	}

	err = n.gateway.CreateNotification(ctx, models.Notification{
		Title:            title,
		Content:          content,
		NotificationType: "order_notification",
		TargetType:       "individual",
		TargetIDs:        []string{recipientID},
		CanDelete:        false,
		CanMarkAsRead:    true,
		IsRead:           false,
	})
	if err != nil {
		n.log.Warn("create notification failed",
			"recipient_id", recipientID, "title", title, "error", err)
	}
}

// analytic publishes a fire-and-forget product analytic update, logging on
// failure.
func (n *notifier) analytic(ctx context.Context, productID, key string, value float64) {
	if err := n.gateway.UpdateProductAnalytic(ctx, productID, key, value); err != nil {
		n.log.Warn("product analytic update failed",
			"product_id", productID, "key", key, "error", err)
	}
}
