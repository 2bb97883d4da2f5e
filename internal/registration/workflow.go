package registration

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/internal/portal"
)

// Stage names the workflow step a failure came from.
type Stage string

const (
	StageSession      Stage = "session"
	StageDiscovery    Stage = "discovery"
	StageLessonPlan   Stage = "lesson_plan"
	StageRegistration Stage = "registration"
)

// StageError is a run-fatal failure. Its text is the cause chain shown to
// the user.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// SessionOpener opens an authenticated portal session on entryURL.
type SessionOpener interface {
	Open(ctx context.Context, creds models.Credentials, entryURL string) (*portal.Session, error)
}

// PlanResolver turns a lesson plan link into lessons.
type PlanResolver interface {
	Resolve(ctx context.Context, catalog models.SubjectCatalog, ref string) ([]models.Lesson, error)
}

// Request is one registration run.
type Request struct {
	Credentials   models.Credentials
	Bimestre      string
	LessonPlanURL string
}

// Workflow runs session, discovery, plan resolution and registration for
// one request on a single browser session.
type Workflow struct {
	sessions   SessionOpener
	discoverer *Discoverer
	resolver   PlanResolver
	engine     *Engine
	listURL    string
	logger     *zap.Logger
}

// NewWorkflow wires the registration pipeline.
func NewWorkflow(sessions SessionOpener, discoverer *Discoverer, resolver PlanResolver, engine *Engine, listURL string, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{
		sessions:   sessions,
		discoverer: discoverer,
		resolver:   resolver,
		engine:     engine,
		listURL:    listURL,
		logger:     logger,
	}
}

// Run executes the request and returns its report. Any error is a
// *StageError; the browser session is closed on every path.
func (w *Workflow) Run(ctx context.Context, req Request) (models.Report, error) {
	log := w.logger.With(zap.String("login", req.Credentials.Login), zap.String("bimestre", req.Bimestre))
	started := time.Now()

	session, err := w.sessions.Open(ctx, req.Credentials, w.listURL)
	if err != nil {
		return models.Report{}, &StageError{Stage: StageSession, Err: err}
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("failed to close portal session", zap.Error(err))
		}
	}()

	catalog, err := w.discoverer.Discover(ctx, session, req.Bimestre)
	if err != nil {
		return models.Report{}, &StageError{Stage: StageDiscovery, Err: err}
	}
	if len(catalog) == 0 {
		return models.Report{}, &StageError{Stage: StageDiscovery, Err: ErrNoSubjects}
	}
	log.Info("subjects discovered", zap.Strings("subjects", catalog.Names()))

	lessons, err := w.resolver.Resolve(ctx, catalog, req.LessonPlanURL)
	if err != nil {
		return models.Report{}, &StageError{Stage: StageLessonPlan, Err: err}
	}

	outcomes, err := w.engine.RegisterAll(ctx, session, catalog, lessons, req.Bimestre)
	if err != nil {
		log.Error("registration aborted", zap.Int("finished", len(outcomes)), zap.Int("lessons", len(lessons)), zap.Error(err))
		return models.Report{}, &StageError{Stage: StageRegistration, Err: err}
	}

	report := Summarize(outcomes)
	log.Info("registration finished",
		zap.Int("succeeded", report.Successes),
		zap.Int("failed", report.Failures),
		zap.Duration("elapsed", time.Since(started)))
	return report, nil
}
