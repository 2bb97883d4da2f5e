package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sed-diario-api/internal/dto"
	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/internal/registration"
	"github.com/noah-isme/sed-diario-api/internal/repository"
	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
	"github.com/noah-isme/sed-diario-api/pkg/jobs"
)

const (
	runJobType      = "registration"
	runCachePrefix  = "run:"
	runCacheTTL     = time.Hour
	recoverBatch    = 50
	interruptedText = "Execução interrompida por reinício do servidor."
)

type registrationRunner interface {
	Run(ctx context.Context, req registration.Request) (models.Report, error)
}

type runStore interface {
	Create(ctx context.Context, run *models.RegistrationRun) error
	GetByID(ctx context.Context, id string) (*models.RegistrationRun, error)
	Update(ctx context.Context, id string, params repository.UpdateRunParams) error
	ListByStatus(ctx context.Context, status models.RunStatus, limit int) ([]models.RegistrationRun, error)
	MarkInterrupted(ctx context.Context, message string, at time.Time) (int64, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
	Cancel(id string) error
}

type runRecorder interface {
	RunFinished(status models.RunStatus, elapsed time.Duration)
}

type runExporter interface {
	Generate(run *models.RegistrationRun, format models.ExportFormat) (*ExportResult, error)
}

// RunDownload is a resolved export file.
type RunDownload struct {
	File      *os.File
	Filename  string
	ExpiresAt time.Time
}

// LessonServiceConfig governs async runs and export cleanup.
type LessonServiceConfig struct {
	CleanupInterval time.Duration
}

// LessonService registers lesson plans, synchronously or as queued runs.
type LessonService struct {
	runner    registrationRunner
	guard     accountGuard
	runs      runStore
	queue     jobDispatcher
	sealer    *CredentialSealer
	cache     *CacheService
	exporter  *ExportService
	recorder  runRecorder
	validator *validator.Validate
	logger    *zap.Logger
	cfg       LessonServiceConfig
	now       func() time.Time
}

// LessonServiceDeps groups the collaborators of LessonService. Only Runner
// is required; the run fields enable the asynchronous API.
type LessonServiceDeps struct {
	Runner    registrationRunner
	Locks     accountLocker
	Runs      runStore
	Queue     jobDispatcher
	Sealer    *CredentialSealer
	Cache     *CacheService
	Exporter  *ExportService
	Recorder  runRecorder
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewLessonService constructs the service.
func NewLessonService(deps LessonServiceDeps, cfg LessonServiceConfig) *LessonService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Validator == nil {
		deps.Validator = dto.NewValidator()
	}
	return &LessonService{
		runner:    deps.Runner,
		guard:     accountGuard{locks: deps.Locks, logger: deps.Logger},
		runs:      deps.Runs,
		queue:     deps.Queue,
		sealer:    deps.Sealer,
		cache:     deps.Cache,
		exporter:  deps.Exporter,
		recorder:  deps.Recorder,
		validator: deps.Validator,
		logger:    deps.Logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Register runs the whole workflow inside the request and returns its report.
func (s *LessonService) Register(ctx context.Context, login string, req dto.AulasRequest) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Senha, link do cronograma e bimestre obrigatórios.")
	}
	var report models.Report
	err := s.guard.hold(ctx, login, func() error {
		started := s.now()
		var err error
		report, err = s.runner.Run(ctx, registration.Request{
			Credentials:   models.Credentials{Login: login, Password: req.Senha},
			Bimestre:      req.Bimestre,
			LessonPlanURL: req.LinkCronograma,
		})
		s.record(err, started)
		return err
	})
	if err != nil {
		return nil, workflowFailure(err)
	}
	return &report, nil
}

// AsyncEnabled reports whether queued runs are wired.
func (s *LessonService) AsyncEnabled() bool {
	return s.runs != nil && s.queue != nil && s.sealer != nil
}

// CreateRun persists a queued run and hands it to the worker queue.
func (s *LessonService) CreateRun(ctx context.Context, claims *models.JWTClaims, req dto.AulasRequest) (*models.RegistrationRun, error) {
	if !s.AsyncEnabled() {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "Execuções assíncronas desabilitadas.")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Senha, link do cronograma e bimestre obrigatórios.")
	}
	sealed, err := s.sealer.Seal(req.Senha)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Erro ao criar execução.")
	}
	run := &models.RegistrationRun{
		UserID:        claims.UserID,
		Login:         claims.Login,
		Bimestre:      req.Bimestre,
		LessonPlanURL: req.LinkCronograma,
		Status:        models.RunStatusQueued,
		Credential:    sealed,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Erro ao criar execução.")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: run.ID, Type: runJobType}); err != nil {
		failed := models.RunStatusFailed
		msg := "Fila de execuções indisponível."
		now := s.now().UTC()
		if updateErr := s.runs.Update(ctx, run.ID, repository.UpdateRunParams{
			Status:          &failed,
			ErrorMessage:    &msg,
			FinishedAt:      &now,
			ClearCredential: true,
		}); updateErr != nil {
			s.logger.Warn("failed to mark run failed", zap.String("run_id", run.ID), zap.Error(updateErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, msg)
	}
	s.logger.Info("registration run queued", zap.String("run_id", run.ID), zap.String("login", run.Login))
	run.Credential = nil
	return run, nil
}

// GetRun returns a run owned by userID. Finished runs are served from cache.
func (s *LessonService) GetRun(ctx context.Context, userID, id string) (*models.RegistrationRun, error) {
	var cached models.RegistrationRun
	if s.cache.Get(ctx, runCachePrefix+id, &cached) && cached.UserID == userID {
		return &cached, nil
	}
	run, err := s.loadRun(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if run.Status.Done() {
		s.cache.Set(ctx, runCachePrefix+id, run, runCacheTTL)
	}
	return run, nil
}

// CancelRun stops a queued or running run. The engine notices between lessons.
func (s *LessonService) CancelRun(ctx context.Context, userID, id string) (*models.RegistrationRun, error) {
	if !s.AsyncEnabled() {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "Execuções assíncronas desabilitadas.")
	}
	run, err := s.loadRun(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if run.Status.Done() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Execução já finalizada.")
	}
	if err := s.queue.Cancel(id); err != nil && !errors.Is(err, jobs.ErrUnknownJob) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Erro ao cancelar execução.")
	}
	if run.Status == models.RunStatusQueued {
		// A queued job never reaches the worker once cancelled.
		queued, status := models.RunStatusQueued, models.RunStatusCancelled
		msg := "Execução cancelada."
		now := s.now().UTC()
		err := s.runs.Update(ctx, id, repository.UpdateRunParams{
			From:            &queued,
			Status:          &status,
			ErrorMessage:    &msg,
			FinishedAt:      &now,
			ClearCredential: true,
		})
		if errors.Is(err, repository.ErrRunStateChanged) {
			// The worker claimed it first; the queue cancel above reaches it.
			current, getErr := s.runs.GetByID(ctx, id)
			if getErr != nil {
				return nil, appErrors.Wrap(getErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Erro ao cancelar execução.")
			}
			current.Credential = nil
			return current, nil
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Erro ao cancelar execução.")
		}
		run.Status = status
		run.ErrorMessage = &msg
		run.FinishedAt = &now
	}
	s.logger.Info("registration run cancel requested", zap.String("run_id", id), zap.String("status", string(run.Status)))
	return run, nil
}

// ExportRun renders the report of a finished run and returns a signed link.
func (s *LessonService) ExportRun(ctx context.Context, userID, id string, format models.ExportFormat) (*ExportResult, error) {
	if s.exporter == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "Exportação indisponível.")
	}
	if format != models.ExportFormatCSV && format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Formato inválido, use csv ou pdf.")
	}
	run, err := s.GetRun(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if run.Status != models.RunStatusFinished || run.Report == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Relatório ainda não disponível.")
	}
	result, err := s.exporter.Generate(run, format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Erro ao exportar relatório.")
	}
	return result, nil
}

// ResolveDownload validates a signed token and opens the export file.
func (s *LessonService) ResolveDownload(ctx context.Context, token string) (*RunDownload, error) {
	if s.exporter == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "Exportação indisponível.")
	}
	grant, err := s.exporter.ParseToken(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "Link de download inválido ou expirado.")
	}
	file, err := s.exporter.Open(grant.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "Arquivo não encontrado.")
	}
	return &RunDownload{File: file, Filename: filepath.Base(grant.Path), ExpiresAt: grant.ExpiresAt}, nil
}

// Recover fails runs interrupted by a previous process and re-enqueues the
// ones still queued.
func (s *LessonService) Recover(ctx context.Context) {
	if !s.AsyncEnabled() {
		return
	}
	n, err := s.runs.MarkInterrupted(ctx, interruptedText, s.now().UTC())
	if err != nil {
		s.logger.Warn("failed to mark interrupted runs", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("interrupted runs marked failed", zap.Int64("count", n))
	}

	pending, err := s.runs.ListByStatus(ctx, models.RunStatusQueued, recoverBatch)
	if err != nil {
		s.logger.Warn("failed to recover queued runs", zap.Error(err))
		return
	}
	for _, run := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: run.ID, Type: runJobType}); err != nil {
			s.logger.Warn("failed to requeue run", zap.String("run_id", run.ID), zap.Error(err))
		}
	}
}

// StartCleanup periodically purges expired export files.
func (s *LessonService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 || s.exporter == nil {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.exporter.Cleanup()
				if err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
					continue
				}
				if len(removed) > 0 {
					s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
				}
			}
		}
	}()
}

func (s *LessonService) loadRun(ctx context.Context, userID, id string) (*models.RegistrationRun, error) {
	if s.runs == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "Execuções assíncronas desabilitadas.")
	}
	run, err := s.runs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Execução não encontrada.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Erro ao buscar execução.")
	}
	if run.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "Execução não encontrada.")
	}
	run.Credential = nil
	return run, nil
}

func (s *LessonService) record(err error, started time.Time) {
	if s.recorder == nil {
		return
	}
	status := models.RunStatusFinished
	switch {
	case errors.Is(err, registration.ErrCancelled):
		status = models.RunStatusCancelled
	case err != nil:
		status = models.RunStatusFailed
	}
	s.recorder.RunFinished(status, s.now().Sub(started))
}

// workflowFailure maps a workflow error onto the HTTP contract: lesson plan
// problems and portal problems are both business failures (404).
func workflowFailure(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	var stageErr *registration.StageError
	if errors.As(err, &stageErr) && stageErr.Stage == registration.StageLessonPlan {
		return appErrors.Wrap(err, appErrors.ErrLessonPlan.Code, appErrors.ErrLessonPlan.Status, sentence(err.Error()))
	}
	return portalFailure(err)
}
