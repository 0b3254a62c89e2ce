package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hadirq/ledger-api/internal/dto"
	"github.com/hadirq/ledger-api/internal/service"
	appErrors "github.com/hadirq/ledger-api/pkg/errors"
	"github.com/hadirq/ledger-api/pkg/response"
)

// AuthHandler exposes the operator token endpoint.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Token godoc
// @Summary Exchange the operator access key for a token
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.TokenRequest true "Access key"
// @Success 200 {object} response.Envelope
// @Router /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	token, expiresAt, err := h.auth.IssueToken(req.AccessKey, req.Operator)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.TokenResponse{Token: token, ExpiresAt: expiresAt}, nil)
}
