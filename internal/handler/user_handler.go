package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sed-diario-api/internal/dto"
	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/pkg/response"
)

type userCreator interface {
	Create(ctx context.Context, req dto.CreateUsuarioRequest) (*models.Usuario, error)
}

// UserHandler registers chat-bot users.
type UserHandler struct {
	service userCreator
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(svc userCreator) *UserHandler {
	return &UserHandler{service: svc}
}

// Create godoc
// @Summary Create user
// @Description Binds a phone number to a portal login. Requires the admin key.
// @Tags Usuários
// @Accept json
// @Produce json
// @Param payload body dto.CreateUsuarioRequest true "User payload"
// @Success 200 {object} response.Status
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /usuarios [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUsuarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err))
		return
	}

	if _, err := h.service.Create(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Usuário criado com sucesso.")
}
