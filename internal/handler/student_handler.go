package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hadirq/ledger-api/internal/models"
	"github.com/hadirq/ledger-api/internal/service"
	appErrors "github.com/hadirq/ledger-api/pkg/errors"
	"github.com/hadirq/ledger-api/pkg/response"
)

// StudentHandler exposes roster management endpoints.
type StudentHandler struct {
	roster *service.RosterService
}

// NewStudentHandler constructs handler.
func NewStudentHandler(roster *service.RosterService) *StudentHandler {
	return &StudentHandler{roster: roster}
}

// List godoc
// @Summary List registered students
// @Tags Students
// @Produce json
// @Param kelas query string false "Cohort filter"
// @Param nama query string false "Name substring filter"
// @Param nis query string false "NIS filter"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := models.StudentFilter{
		Cohort: c.Query("kelas"),
		Name:   c.Query("nama"),
		NIS:    c.Query("nis"),
	}
	students, err := h.roster.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, map[string]interface{}{"count": len(students)})
}

// Cohorts godoc
// @Summary List distinct cohorts
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/cohorts [get]
func (h *StudentHandler) Cohorts(c *gin.Context) {
	cohorts, err := h.roster.Cohorts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cohorts, nil)
}

// Create godoc
// @Summary Register a student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	student, err := h.roster.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update a student
// @Tags Students
// @Accept json
// @Produce json
// @Param nis path string true "Student NIS"
// @Param payload body service.UpdateStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{nis} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	student, err := h.roster.Update(c.Request.Context(), c.Param("nis"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}
