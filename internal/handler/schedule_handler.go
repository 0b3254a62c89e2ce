package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hadirq/ledger-api/internal/models"
	"github.com/hadirq/ledger-api/internal/service"
	appErrors "github.com/hadirq/ledger-api/pkg/errors"
	"github.com/hadirq/ledger-api/pkg/response"
)

// ScheduleHandler exposes the weekly schedule endpoints.
type ScheduleHandler struct {
	schedule *service.ScheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(schedule *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedule: schedule}
}

// Week godoc
// @Summary Get the weekly attendance schedule
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) Week(c *gin.Context) {
	week, err := h.schedule.Week(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week, nil)
}

// Today godoc
// @Summary Get today's resolved schedule
// @Tags Schedule
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule/today [get]
func (h *ScheduleHandler) Today(c *gin.Context) {
	day, err := h.schedule.Today(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day, nil)
}

// Save godoc
// @Summary Replace the weekly attendance schedule
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body models.WeekSchedule true "Week schedule"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /schedule [put]
func (h *ScheduleHandler) Save(c *gin.Context) {
	var week models.WeekSchedule
	if err := c.ShouldBindJSON(&week); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	if err := h.schedule.Save(c.Request.Context(), week); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"saved": true}, nil)
}
