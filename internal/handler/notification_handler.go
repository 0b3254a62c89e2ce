package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hadirq/ledger-api/internal/dto"
	"github.com/hadirq/ledger-api/internal/service"
	appErrors "github.com/hadirq/ledger-api/pkg/errors"
	"github.com/hadirq/ledger-api/pkg/response"
)

// NotificationHandler exposes the notification admin endpoints.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs handler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// TestSend godoc
// @Summary Send a test notification for one student
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body dto.TestSendRequest true "Test payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications/test [post]
func (h *NotificationHandler) TestSend(c *gin.Context) {
	var req dto.TestSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	if !h.notifications.Enabled() {
		response.Error(c, appErrors.Clone(appErrors.ErrConflict, "notifications are disabled"))
		return
	}
	if err := h.notifications.TestSend(c.Request.Context(), req.NIS, req.Name); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "test notification failed"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"sent": true}, nil)
}

// Flush godoc
// @Summary Flush the pending notification queue now
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /notifications/flush [post]
func (h *NotificationHandler) Flush(c *gin.Context) {
	h.notifications.Flush(c.Request.Context())
	response.JSON(c, http.StatusOK, gin.H{"flushed": true}, nil)
}
