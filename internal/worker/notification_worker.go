// Package worker attaches background consumers to the event dispatcher.
package worker

import (
	"go.uber.org/zap"

	"github.com/helpdesk/it-helpdesk/internal/events"
	"github.com/helpdesk/it-helpdesk/internal/service"
)

// StartNotificationWorker subscribes the email handlers. Delivery runs inside
// Publish, so a ticket or account request returns after its emails were attempted.
func StartNotificationWorker(dispatcher events.Dispatcher, notifications *service.NotificationService, logger *zap.Logger) {
	if notifications == nil {
		logger.Warn("notification service missing; emails disabled")
		return
	}
	notifications.RegisterHandlers(dispatcher)
	logger.Debug("notification handlers subscribed")
}
