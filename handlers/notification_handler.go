package handlers

import (
	"net/http"

	"github.com/caliper-tracking/caliper-tracking-backend/types"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService NotificationServiceInterface
}

func NewNotificationHandler(notificationService NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// SendNotificationHandler mails a notification. Delivery failures are not
// HTTP errors: the body reports sent=false and the cause is in the logs.
// @Summary Send a notification email
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body types.SendNotificationRequest true "Notification content and recipients"
// @Success 200 {object} types.SendNotificationResponse "Sent synchronously"
// @Success 202 {object} types.SendNotificationResponse "Queued when async is set"
// @Failure 400 {object} middleware.ErrorResponse "Invalid request"
// @Router /notifications [post]
// @Security BearerAuth
func (h *NotificationHandler) SendNotificationHandler(c *gin.Context) {
	var req types.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	if req.Async {
		queued := h.notificationService.SendNotificationAsync(req.NotificationData, req.Subject, req.FromEmail, req.DestEmails)
		c.JSON(http.StatusAccepted, types.SendNotificationResponse{Queued: queued})
		return
	}

	sent := h.notificationService.SendNotification(c.Request.Context(), req.NotificationData, req.Subject, req.FromEmail, req.DestEmails)
	c.JSON(http.StatusOK, types.SendNotificationResponse{Sent: sent})
}
