package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sed-diario-api/internal/dto"
	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
	"github.com/noah-isme/sed-diario-api/pkg/response"
)

type rosterService interface {
	ListClasses(ctx context.Context, login string, req dto.TurmasRequest) ([]string, error)
	ListStudents(ctx context.Context, login string, req dto.AlunosRequest) ([]string, error)
}

// ClassHandler reads classes and students from the portal.
type ClassHandler struct {
	service rosterService
}

// NewClassHandler constructs a ClassHandler.
func NewClassHandler(svc rosterService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// Turmas godoc
// @Summary List classes
// @Description Logs into the portal and lists the teacher's classes in portal order
// @Tags Portal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.TurmasRequest true "Portal password"
// @Success 200 {object} dto.TurmasResponse
// @Failure 401 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /turmas [post]
func (h *ClassHandler) Turmas(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.TurmasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err))
		return
	}

	turmas, err := h.service.ListClasses(c.Request.Context(), claims.Login, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.TurmasResponse{Sucesso: true, Turmas: turmas})
}

// Alunos godoc
// @Summary List students
// @Description Lists the students of the class at the given 1-based position
// @Tags Portal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.AlunosRequest true "Portal password and class index"
// @Success 200 {object} dto.AlunosResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Router /alunos [post]
func (h *ClassHandler) Alunos(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.AlunosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err))
		return
	}

	alunos, err := h.service.ListStudents(c.Request.Context(), claims.Login, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.AlunosResponse{Sucesso: true, Alunos: alunos})
}
