package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/internal/registration"
	"github.com/noah-isme/sed-diario-api/internal/repository"
	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
	"github.com/noah-isme/sed-diario-api/pkg/jobs"
)

const finalizeTimeout = 10 * time.Second

// RunWorker bridges queue jobs to the registration workflow.
type RunWorker struct {
	runs     runStore
	runner   registrationRunner
	sealer   *CredentialSealer
	guard    accountGuard
	recorder runRecorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewRunWorker constructs a worker. locks and recorder may be nil.
func NewRunWorker(runs runStore, runner registrationRunner, sealer *CredentialSealer, locks accountLocker, recorder runRecorder, logger *zap.Logger) *RunWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunWorker{
		runs:     runs,
		runner:   runner,
		sealer:   sealer,
		guard:    accountGuard{locks: locks, logger: logger},
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Handle processes one queued run. It always leaves the run in a final
// state unless the run was no longer queued when picked up.
func (w *RunWorker) Handle(ctx context.Context, job jobs.Job) error {
	log := w.logger.With(zap.String("run_id", job.ID))
	run, err := w.runs.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if run.Status != models.RunStatusQueued {
		log.Info("run no longer queued, skipping", zap.String("status", string(run.Status)))
		return nil
	}

	password, openErr := w.sealer.Open(run.Credential)
	started := w.now().UTC()
	queued, processing := models.RunStatusQueued, models.RunStatusProcessing
	if err := w.runs.Update(ctx, run.ID, repository.UpdateRunParams{
		From:            &queued,
		Status:          &processing,
		StartedAt:       &started,
		ClearCredential: true,
	}); err != nil {
		if errors.Is(err, repository.ErrRunStateChanged) {
			log.Info("run left queue before start, skipping")
			return nil
		}
		return err
	}
	if openErr != nil {
		w.finish(run.ID, models.RunStatusFailed, nil, "Credencial da execução ilegível.", started)
		return openErr
	}

	log.Info("registration run started", zap.String("login", run.Login))
	var report models.Report
	err = w.guard.hold(ctx, run.Login, func() error {
		var err error
		report, err = w.runner.Run(ctx, registration.Request{
			Credentials:   models.Credentials{Login: run.Login, Password: password},
			Bimestre:      run.Bimestre,
			LessonPlanURL: run.LessonPlanURL,
		})
		return err
	})

	switch {
	case err == nil:
		w.finish(run.ID, models.RunStatusFinished, &report, "", started)
	case errors.Is(err, registration.ErrCancelled) || ctx.Err() != nil:
		w.finish(run.ID, models.RunStatusCancelled, nil, "Execução cancelada.", started)
	default:
		w.finish(run.ID, models.RunStatusFailed, nil, appErrors.FromError(workflowFailure(err)).Message, started)
	}
	return err
}

// finish persists the final state on a fresh context: the job context is
// already cancelled when the run was cancelled.
func (w *RunWorker) finish(id string, status models.RunStatus, report *models.Report, message string, started time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	now := w.now().UTC()
	processing := models.RunStatusProcessing
	params := repository.UpdateRunParams{From: &processing, Status: &status, FinishedAt: &now}
	if report != nil {
		params.Report = &models.RunReport{Report: *report}
	}
	if message != "" {
		params.ErrorMessage = &message
	}
	if err := w.runs.Update(ctx, id, params); err != nil {
		w.logger.Error("failed to finalize run", zap.String("run_id", id), zap.String("status", string(status)), zap.Error(err))
	}
	if w.recorder != nil {
		w.recorder.RunFinished(status, now.Sub(started))
	}
	w.logger.Info("registration run finished", zap.String("run_id", id), zap.String("status", string(status)))
}
