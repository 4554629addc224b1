package worker

import (
	"github.com/fixit/helpdesk-service/internal/service"
)

// StartNotificationWorker registers notification handlers on the
// dispatcher the incident service publishes to.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
