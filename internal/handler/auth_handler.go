package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sed-diario-api/internal/dto"
	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
	"github.com/noah-isme/sed-diario-api/pkg/response"
)

type tokenIssuer interface {
	IssueToken(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service tokenIssuer
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc tokenIssuer) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Token godoc
// @Summary Issue access token
// @Description Exchanges a registered phone number and the shared API key for a bearer token
// @Tags Autenticação
// @Accept json
// @Produce json
// @Param payload body dto.TokenRequest true "Token payload"
// @Success 200 {object} dto.TokenResponse
// @Failure 401 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 500 {object} response.ErrorBody
// @Router /token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err))
		return
	}

	res, err := h.service.IssueToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}

func invalidBody(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Corpo da requisição inválido.")
}
