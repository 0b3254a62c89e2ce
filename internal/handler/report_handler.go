package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hadirq/ledger-api/internal/dto"
	"github.com/hadirq/ledger-api/internal/service"
	appErrors "github.com/hadirq/ledger-api/pkg/errors"
	"github.com/hadirq/ledger-api/pkg/response"
)

// ReportHandler exposes the recap endpoint.
type ReportHandler struct {
	reports *service.ReportService
	loc     *time.Location
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReportHandler{reports: reports, loc: loc}
}

// Recap godoc
// @Summary Per-student attendance recap over a date range
// @Tags Reports
// @Produce json
// @Param from query string true "Range start (yyyy-mm-dd)"
// @Param to query string true "Range end (yyyy-mm-dd)"
// @Param kelas query string false "Cohort filter"
// @Param nama query string false "Name substring filter"
// @Param nis query string false "Student filter"
// @Param records query bool false "Include per-day records"
// @Success 200 {object} response.Envelope
// @Router /reports/recap [get]
func (h *ReportHandler) Recap(c *gin.Context) {
	var query dto.RecapQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	filter, err := query.Filter(h.loc)
	if err != nil {
		response.Error(c, err)
		return
	}

	recap, err := h.reports.Recap(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, recap, nil)
}
