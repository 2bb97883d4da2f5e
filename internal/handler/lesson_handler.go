package handler

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sed-diario-api/internal/dto"
	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/internal/service"
	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
	"github.com/noah-isme/sed-diario-api/pkg/response"
)

type lessonService interface {
	Register(ctx context.Context, login string, req dto.AulasRequest) (*models.Report, error)
	CreateRun(ctx context.Context, claims *models.JWTClaims, req dto.AulasRequest) (*models.RegistrationRun, error)
	GetRun(ctx context.Context, userID, id string) (*models.RegistrationRun, error)
	CancelRun(ctx context.Context, userID, id string) (*models.RegistrationRun, error)
	ExportRun(ctx context.Context, userID, id string, format models.ExportFormat) (*service.ExportResult, error)
	ResolveDownload(ctx context.Context, token string) (*service.RunDownload, error)
}

// LessonHandler registers lessons from a lesson plan, inline or as runs.
type LessonHandler struct {
	service lessonService
}

// NewLessonHandler constructs a LessonHandler.
func NewLessonHandler(svc lessonService) *LessonHandler {
	return &LessonHandler{service: svc}
}

// Aulas godoc
// @Summary Register lessons
// @Description Reads the lesson plan, matches it against the class subjects and registers every lesson on the portal. Blocks until done.
// @Tags Aulas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.AulasRequest true "Lesson plan payload"
// @Success 200 {object} dto.AulasResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /aulas [post]
func (h *LessonHandler) Aulas(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.AulasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err))
		return
	}

	report, err := h.service.Register(c.Request.Context(), claims.Login, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	message := report.Message
	if message == "" {
		message = "Registro de aulas concluído com sucesso!"
	}
	response.JSON(c, http.StatusOK, dto.AulasResponse{
		Sucesso:   true,
		Mensagem:  message,
		Relatorio: report,
	})
}

// CreateRun godoc
// @Summary Queue a registration run
// @Description Same input as /aulas but returns immediately with a run to poll
// @Tags Aulas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.AulasRequest true "Lesson plan payload"
// @Success 202 {object} dto.RunResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 503 {object} response.ErrorBody
// @Router /aulas/execucoes [post]
func (h *LessonHandler) CreateRun(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.AulasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidBody(err))
		return
	}

	run, err := h.service.CreateRun(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Accepted(c, dto.RunResponse{Sucesso: true, Mensagem: "Execução enfileirada.", Execucao: run})
}

// GetRun godoc
// @Summary Get run
// @Tags Aulas
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Success 200 {object} dto.RunResponse
// @Failure 404 {object} response.ErrorBody
// @Router /aulas/execucoes/{id} [get]
func (h *LessonHandler) GetRun(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	run, err := h.service.GetRun(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.RunResponse{Sucesso: true, Execucao: run})
}

// CancelRun godoc
// @Summary Cancel run
// @Description Cancels a queued run, or asks a running one to stop before its next lesson
// @Tags Aulas
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Success 202 {object} dto.RunResponse
// @Failure 404 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /aulas/execucoes/{id} [delete]
func (h *LessonHandler) CancelRun(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	run, err := h.service.CancelRun(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Accepted(c, dto.RunResponse{Sucesso: true, Mensagem: "Cancelamento solicitado.", Execucao: run})
}

// ExportRun godoc
// @Summary Export run report
// @Description Renders the report of a finished run and returns a signed download link
// @Tags Aulas
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Param formato query string false "csv or pdf" default(csv)
// @Success 200 {object} dto.RunExportResponse
// @Failure 400 {object} response.ErrorBody
// @Failure 409 {object} response.ErrorBody
// @Router /aulas/execucoes/{id}/exportar [get]
func (h *LessonHandler) ExportRun(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format := models.ExportFormat(strings.ToLower(c.DefaultQuery("formato", string(models.ExportFormatCSV))))

	result, err := h.service.ExportRun(c.Request.Context(), claims.UserID, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.RunExportResponse{
		Sucesso:  true,
		URL:      result.URL,
		Formato:  string(result.Format),
		ExpiraEm: result.ExpiresAt,
	})
}

// Download godoc
// @Summary Download exported report
// @Tags Aulas
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.ErrorBody
// @Router /exportacoes/{token} [get]
func (h *LessonHandler) Download(c *gin.Context) {
	download, err := h.service.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Erro ao ler arquivo."))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentType(download.Filename), download.File, nil)
}

func contentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
