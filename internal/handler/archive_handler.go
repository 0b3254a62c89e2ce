package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hadirq/ledger-api/internal/service"
	"github.com/hadirq/ledger-api/pkg/response"
)

// ArchiveHandler exposes the monthly roll-over admin endpoints.
type ArchiveHandler struct {
	archive *service.ArchiveService
}

// NewArchiveHandler constructs handler.
func NewArchiveHandler(archive *service.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{archive: archive}
}

// Run godoc
// @Summary Trigger an archival pass
// @Tags Archive
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /archive/run [post]
func (h *ArchiveHandler) Run(c *gin.Context) {
	result, err := h.archive.Run(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Status godoc
// @Summary Report archival state and existing partitions
// @Tags Archive
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /archive/status [get]
func (h *ArchiveHandler) Status(c *gin.Context) {
	status, partitions, err := h.archive.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"status":     status,
		"partitions": partitions,
	}, nil)
}
