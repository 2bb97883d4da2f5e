package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sed-diario-api/internal/dto"
	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
	"github.com/noah-isme/sed-diario-api/pkg/response"
)

type attendanceService interface {
	Mark(ctx context.Context, login string, req dto.FrequenciaRequest) error
}

// AttendanceHandler marks absences on the portal.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs an AttendanceHandler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Frequencia godoc
// @Summary Mark attendance
// @Description Marks the listed students as absent on the given date. alunosComFalta is a JSON array of 1-based positions.
// @Tags Portal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.FrequenciaRequest true "Attendance payload"
// @Success 200 {object} response.Status
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /frequencia [post]
func (h *AttendanceHandler) Frequencia(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.FrequenciaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err))
		return
	}

	if err := h.service.Mark(c.Request.Context(), claims.Login, req); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Frequencia marcada com sucesso!")
}
