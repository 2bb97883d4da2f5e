package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sed-diario-api/internal/dto"
	"github.com/noah-isme/sed-diario-api/internal/lessonplan"
	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/internal/registration"
	"github.com/noah-isme/sed-diario-api/internal/repository"
	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
	"github.com/noah-isme/sed-diario-api/pkg/jobs"
)

type runnerStub struct {
	report models.Report
	err    error
	req    registration.Request
	calls  int
}

func (m *runnerStub) Run(ctx context.Context, req registration.Request) (models.Report, error) {
	m.calls++
	m.req = req
	return m.report, m.err
}

type runStoreStub struct {
	runs        map[string]*models.RegistrationRun
	updates     []repository.UpdateRunParams
	createErr   error
	interrupted int64
	seq         int
	// afterGet mutates the stored run once it has been read.
	afterGet func(run *models.RegistrationRun)
}

func newRunStoreStub(runs ...*models.RegistrationRun) *runStoreStub {
	m := &runStoreStub{runs: make(map[string]*models.RegistrationRun)}
	for _, r := range runs {
		m.runs[r.ID] = r
	}
	return m
}

func (m *runStoreStub) Create(ctx context.Context, run *models.RegistrationRun) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	run.ID = fmt.Sprintf("run-%d", m.seq)
	stored := *run
	m.runs[run.ID] = &stored
	return nil
}

func (m *runStoreStub) GetByID(ctx context.Context, id string) (*models.RegistrationRun, error) {
	run, ok := m.runs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	stored := *run
	if m.afterGet != nil {
		m.afterGet(run)
		m.afterGet = nil
	}
	return &stored, nil
}

func (m *runStoreStub) Update(ctx context.Context, id string, params repository.UpdateRunParams) error {
	m.updates = append(m.updates, params)
	run, ok := m.runs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.From != nil && run.Status != *params.From {
		return repository.ErrRunStateChanged
	}
	if params.Status != nil {
		run.Status = *params.Status
	}
	if params.Report != nil {
		run.Report = params.Report
	}
	if params.ErrorMessage != nil {
		run.ErrorMessage = params.ErrorMessage
	}
	if params.StartedAt != nil {
		run.StartedAt = params.StartedAt
	}
	if params.FinishedAt != nil {
		run.FinishedAt = params.FinishedAt
	}
	if params.ClearCredential {
		run.Credential = nil
	}
	return nil
}

func (m *runStoreStub) ListByStatus(ctx context.Context, status models.RunStatus, limit int) ([]models.RegistrationRun, error) {
	var out []models.RegistrationRun
	for _, r := range m.runs {
		if r.Status == status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *runStoreStub) MarkInterrupted(ctx context.Context, message string, at time.Time) (int64, error) {
	for _, r := range m.runs {
		if r.Status == models.RunStatusProcessing {
			r.Status = models.RunStatusFailed
			r.ErrorMessage = &message
			m.interrupted++
		}
	}
	return m.interrupted, nil
}

type queueStub struct {
	enqueued   []jobs.Job
	cancelled  []string
	enqueueErr error
	cancelErr  error
}

func (m *queueStub) Enqueue(job jobs.Job) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

func (m *queueStub) Cancel(id string) error {
	m.cancelled = append(m.cancelled, id)
	return m.cancelErr
}

type recorderStub struct {
	statuses []models.RunStatus
}

func (m *recorderStub) RunFinished(status models.RunStatus, elapsed time.Duration) {
	m.statuses = append(m.statuses, status)
}

type cacheRepoStub struct {
	values map[string]interface{}
}

func (m *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	v, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*(dest.(*models.RegistrationRun)) = *(v.(*models.RegistrationRun))
	return nil
}

func (m *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.values[key] = value
	return nil
}

var aulasRequest = dto.AulasRequest{Senha: "s3nha", LinkCronograma: "https://drive.google.com/file/d/abc/view", Bimestre: "1"}

func testSealer(t *testing.T) *CredentialSealer {
	t.Helper()
	sealer, err := NewCredentialSealer("chave")
	require.NoError(t, err)
	return sealer
}

func TestLessonServiceRegister(t *testing.T) {
	runner := &runnerStub{report: sampleReport()}
	recorder := &recorderStub{}
	locks := newLockStub()
	svc := NewLessonService(LessonServiceDeps{Runner: runner, Locks: locks, Recorder: recorder}, LessonServiceConfig{})

	report, err := svc.Register(context.Background(), "rg123", aulasRequest)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Successes)
	assert.Equal(t, "rg123", runner.req.Credentials.Login)
	assert.Equal(t, "s3nha", runner.req.Credentials.Password)
	assert.Equal(t, "1", runner.req.Bimestre)
	assert.Equal(t, []models.RunStatus{models.RunStatusFinished}, recorder.statuses)
	assert.Equal(t, []string{"rg123"}, locks.released)
}

func TestLessonServiceRegisterLessonPlanFailure(t *testing.T) {
	runner := &runnerStub{err: &registration.StageError{
		Stage: registration.StageLessonPlan,
		Err:   fmt.Errorf("erro ao analisar cronograma: %w", lessonplan.ErrEmptyAnalysis),
	}}
	svc := NewLessonService(LessonServiceDeps{Runner: runner}, LessonServiceConfig{})

	_, err := svc.Register(context.Background(), "rg123", aulasRequest)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, appErrors.ErrLessonPlan.Code, appErr.Code)
	assert.ErrorIs(t, err, lessonplan.ErrEmptyAnalysis)
}

func TestLessonServiceRegisterSessionFailure(t *testing.T) {
	runner := &runnerStub{err: &registration.StageError{Stage: registration.StageSession, Err: errors.New("erro ao fazer login: tempo de espera esgotado")}}
	recorder := &recorderStub{}
	svc := NewLessonService(LessonServiceDeps{Runner: runner, Recorder: recorder}, LessonServiceConfig{})

	_, err := svc.Register(context.Background(), "rg123", aulasRequest)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPortal.Code, appErr.Code)
	assert.Equal(t, "Erro ao fazer login: tempo de espera esgotado.", appErr.Message)
	assert.Equal(t, []models.RunStatus{models.RunStatusFailed}, recorder.statuses)
}

func TestLessonServiceRegisterValidation(t *testing.T) {
	runner := &runnerStub{}
	svc := NewLessonService(LessonServiceDeps{Runner: runner}, LessonServiceConfig{})

	_, err := svc.Register(context.Background(), "rg123", dto.AulasRequest{Senha: "s3nha", Bimestre: "1"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
	assert.Zero(t, runner.calls)
}

func newAsyncLessonService(t *testing.T, store *runStoreStub, queue *queueStub) *LessonService {
	t.Helper()
	return NewLessonService(LessonServiceDeps{
		Runner: &runnerStub{},
		Runs:   store,
		Queue:  queue,
		Sealer: testSealer(t),
		Cache:  NewCacheService(&cacheRepoStub{values: map[string]interface{}{}}, nil, time.Minute, nil),
	}, LessonServiceConfig{})
}

func TestLessonServiceCreateRun(t *testing.T) {
	store := newRunStoreStub()
	queue := &queueStub{}
	svc := newAsyncLessonService(t, store, queue)
	claims := &models.JWTClaims{UserID: "u1", Login: "rg123"}

	run, err := svc.CreateRun(context.Background(), claims, aulasRequest)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusQueued, run.Status)
	assert.Nil(t, run.Credential)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, run.ID, queue.enqueued[0].ID)

	stored := store.runs[run.ID]
	require.NotEmpty(t, stored.Credential)
	assert.NotContains(t, string(stored.Credential), "s3nha")
	password, err := svc.sealer.Open(stored.Credential)
	require.NoError(t, err)
	assert.Equal(t, "s3nha", password)
}

func TestLessonServiceCreateRunQueueFull(t *testing.T) {
	store := newRunStoreStub()
	queue := &queueStub{enqueueErr: errors.New("queue runs full")}
	svc := newAsyncLessonService(t, store, queue)

	_, err := svc.CreateRun(context.Background(), &models.JWTClaims{UserID: "u1", Login: "rg123"}, aulasRequest)
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, appErrors.FromError(err).Status)

	stored := store.runs["run-1"]
	assert.Equal(t, models.RunStatusFailed, stored.Status)
	assert.Nil(t, stored.Credential)
}

func TestLessonServiceCreateRunDisabled(t *testing.T) {
	svc := NewLessonService(LessonServiceDeps{Runner: &runnerStub{}}, LessonServiceConfig{})

	_, err := svc.CreateRun(context.Background(), &models.JWTClaims{UserID: "u1"}, aulasRequest)
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, appErrors.FromError(err).Status)
}

func TestLessonServiceGetRunOwnership(t *testing.T) {
	store := newRunStoreStub(&models.RegistrationRun{ID: "r1", UserID: "u1", Status: models.RunStatusProcessing, Credential: []byte("x")})
	svc := newAsyncLessonService(t, store, &queueStub{})

	run, err := svc.GetRun(context.Background(), "u1", "r1")
	require.NoError(t, err)
	assert.Nil(t, run.Credential)

	_, err = svc.GetRun(context.Background(), "u2", "r1")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)

	_, err = svc.GetRun(context.Background(), "u1", "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestLessonServiceGetRunCachesFinished(t *testing.T) {
	store := newRunStoreStub(finishedRun())
	svc := newAsyncLessonService(t, store, &queueStub{})

	_, err := svc.GetRun(context.Background(), "u1", "run-1")
	require.NoError(t, err)
	delete(store.runs, "run-1")

	run, err := svc.GetRun(context.Background(), "u1", "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFinished, run.Status)

	_, err = svc.GetRun(context.Background(), "u2", "run-1")
	assert.Error(t, err)
}

func TestLessonServiceCancelQueuedRun(t *testing.T) {
	store := newRunStoreStub(&models.RegistrationRun{ID: "r1", UserID: "u1", Status: models.RunStatusQueued, Credential: []byte("x")})
	queue := &queueStub{}
	svc := newAsyncLessonService(t, store, queue)

	run, err := svc.CancelRun(context.Background(), "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCancelled, run.Status)
	assert.Equal(t, []string{"r1"}, queue.cancelled)
	assert.Nil(t, store.runs["r1"].Credential)
}

func TestLessonServiceCancelProcessingRun(t *testing.T) {
	store := newRunStoreStub(&models.RegistrationRun{ID: "r1", UserID: "u1", Status: models.RunStatusProcessing})
	queue := &queueStub{}
	svc := newAsyncLessonService(t, store, queue)

	run, err := svc.CancelRun(context.Background(), "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusProcessing, run.Status)
	assert.Equal(t, []string{"r1"}, queue.cancelled)
	assert.Empty(t, store.updates)
}

func TestLessonServiceCancelLosesRaceWithWorker(t *testing.T) {
	store := newRunStoreStub(&models.RegistrationRun{ID: "r1", UserID: "u1", Status: models.RunStatusQueued})
	store.afterGet = func(run *models.RegistrationRun) { run.Status = models.RunStatusProcessing }
	queue := &queueStub{}
	svc := newAsyncLessonService(t, store, queue)

	run, err := svc.CancelRun(context.Background(), "u1", "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusProcessing, run.Status)
	assert.Equal(t, models.RunStatusProcessing, store.runs["r1"].Status)
	assert.Equal(t, []string{"r1"}, queue.cancelled)
}

func TestLessonServiceCancelFinishedRun(t *testing.T) {
	store := newRunStoreStub(finishedRun())
	svc := newAsyncLessonService(t, store, &queueStub{})

	_, err := svc.CancelRun(context.Background(), "u1", "run-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, appErrors.FromError(err).Status)
}

func TestLessonServiceRecover(t *testing.T) {
	store := newRunStoreStub(
		&models.RegistrationRun{ID: "q1", Status: models.RunStatusQueued},
		&models.RegistrationRun{ID: "p1", Status: models.RunStatusProcessing},
	)
	queue := &queueStub{}
	svc := newAsyncLessonService(t, store, queue)

	svc.Recover(context.Background())

	assert.Equal(t, models.RunStatusFailed, store.runs["p1"].Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "q1", queue.enqueued[0].ID)
}

func TestLessonServiceExportRun(t *testing.T) {
	store := newRunStoreStub(finishedRun())
	svc := NewLessonService(LessonServiceDeps{
		Runner:   &runnerStub{},
		Runs:     store,
		Queue:    &queueStub{},
		Sealer:   testSealer(t),
		Exporter: newExportServiceForTest(t),
	}, LessonServiceConfig{})

	result, err := svc.ExportRun(context.Background(), "u1", "run-1", models.ExportFormatCSV)
	require.NoError(t, err)

	download, err := svc.ResolveDownload(context.Background(), result.Token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Contains(t, download.Filename, ".csv")

	_, err = svc.ResolveDownload(context.Background(), result.Token+"x")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, appErrors.FromError(err).Status)

	_, err = svc.ExportRun(context.Background(), "u1", "run-1", models.ExportFormat("doc"))
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestLessonServiceExportRunNotFinished(t *testing.T) {
	store := newRunStoreStub(&models.RegistrationRun{ID: "r1", UserID: "u1", Status: models.RunStatusProcessing})
	svc := NewLessonService(LessonServiceDeps{
		Runner:   &runnerStub{},
		Runs:     store,
		Exporter: newExportServiceForTest(t),
	}, LessonServiceConfig{})

	_, err := svc.ExportRun(context.Background(), "u1", "r1", models.ExportFormatPDF)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, appErrors.FromError(err).Status)
}
