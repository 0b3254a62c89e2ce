package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hadirq/ledger-api/internal/dto"
	"github.com/hadirq/ledger-api/internal/service"
	appErrors "github.com/hadirq/ledger-api/pkg/errors"
	"github.com/hadirq/ledger-api/pkg/response"
)

// AttendanceHandler exposes the scan endpoint and the daily views.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	reports    *service.ReportService
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(attendance *service.AttendanceService, reports *service.ReportService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, reports: reports}
}

// Scan godoc
// @Summary Record an attendance scan or manual entry
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.ScanRequest true "Scan payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/scan [post]
func (h *AttendanceHandler) Scan(c *gin.Context) {
	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	result, err := h.attendance.RecordEvent(c.Request.Context(), service.RecordEventRequest{
		NIS:    req.NIS,
		Status: req.Status,
		Note:   req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Today godoc
// @Summary List today's attendance rows
// @Tags Attendance
// @Produce json
// @Param kelas query string false "Cohort filter"
// @Success 200 {object} response.Envelope
// @Router /attendance/today [get]
func (h *AttendanceHandler) Today(c *gin.Context) {
	rows, err := h.reports.TodayList(c.Request.Context(), c.Query("kelas"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, map[string]interface{}{"count": len(rows)})
}

// Absent godoc
// @Summary List students with no record today
// @Tags Attendance
// @Produce json
// @Param kelas query string false "Cohort filter"
// @Success 200 {object} response.Envelope
// @Router /attendance/absent [get]
func (h *AttendanceHandler) Absent(c *gin.Context) {
	students, err := h.reports.AbsentToday(c.Request.Context(), c.Query("kelas"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, map[string]interface{}{"count": len(students)})
}
