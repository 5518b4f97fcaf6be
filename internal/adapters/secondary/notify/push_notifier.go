package notify

import (
	"context"
	"log/slog"

	"github.com/quickbite/order-hub/internal/core/ports"
)

// MockPushNotifier is a secondary adapter that stands in for the mobile push
// gateway. It implements the ports.Notifier interface.
//
// The real platform delivers through FCM/APNs; the hub only needs the
// out-of-band channel for customers with no open socket, so a logging stand-in
// keeps local development and tests self-contained.
type MockPushNotifier struct {
	logger *slog.Logger
}

// NewMockPushNotifier creates a new mock notifier.
func NewMockPushNotifier(logger *slog.Logger) ports.Notifier {
	return &MockPushNotifier{
		logger: logger.With("component", "push_notifier"),
	}
}

// Notify logs the push instead of calling a gateway.
func (n *MockPushNotifier) Notify(ctx context.Context, params ports.NotificationParams) {
	n.logger.Info("mock push sent",
		"user_id", params.RecipientUserID,
		"order_id", params.OrderID,
		"message", params.Message,
	)
}
