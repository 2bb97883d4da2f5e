package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/internal/portal"
)

var (
	ErrSubjectNotFound = errors.New("matéria não encontrada na turma")
	ErrInvalidDate     = errors.New("data da aula inválida")
	ErrNoTimeSlots     = errors.New("nenhum horário disponível para a data")
	ErrCancelled       = errors.New("registro de aulas cancelado")
)

// EngineConfig tunes the registration loop.
type EngineConfig struct {
	ListURL            string
	CurriculumsURL     string
	MaxAttempts        int
	RetryDelay         time.Duration
	SettleDelay        time.Duration
	ElementTimeout     time.Duration
	NavigationTimeout  time.Duration
	SkipUnknownSubject bool
}

// Submitter sends the filled registration form.
type Submitter interface {
	Submit(ctx context.Context, page portal.Page, lesson models.Lesson, date time.Time) error
}

// Observer is told about every finished lesson.
type Observer interface {
	LessonFinished(outcome models.RegistrationOutcome)
}

// Engine registers lessons one at a time on a single portal page.
type Engine struct {
	cfg       EngineConfig
	submitter Submitter
	observer  Observer
	picker    portal.DatePicker
	logger    *zap.Logger
	sleep     func(context.Context, time.Duration) error
}

// NewEngine builds an Engine. observer may be nil.
func NewEngine(cfg EngineConfig, submitter Submitter, observer Observer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.ElementTimeout <= 0 {
		cfg.ElementTimeout = 30 * time.Second
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 60 * time.Second
	}
	return &Engine{
		cfg:       cfg,
		submitter: submitter,
		observer:  observer,
		picker:    portal.DatePicker{Container: portal.SelRegistrationPicker},
		logger:    logger,
		sleep:     sleepCtx,
	}
}

// RegisterAll registers lessons in input order. Exhausted lessons do not stop
// the run; a cancelled context or a dead session does, returning the
// outcomes gathered so far with the error.
func (e *Engine) RegisterAll(ctx context.Context, page portal.Page, catalog models.SubjectCatalog, lessons []models.Lesson, bimestre string) ([]models.RegistrationOutcome, error) {
	outcomes := make([]models.RegistrationOutcome, 0, len(lessons))
	for _, lesson := range lessons {
		if err := ctx.Err(); err != nil {
			return outcomes, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		outcome, err := e.Register(ctx, page, catalog, lesson, bimestre)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, outcome)
		if e.observer != nil {
			e.observer.LessonFinished(outcome)
		}
	}
	return outcomes, nil
}

// Register runs the bounded attempt loop for one lesson.
func (e *Engine) Register(ctx context.Context, page portal.Page, catalog models.SubjectCatalog, lesson models.Lesson, bimestre string) (models.RegistrationOutcome, error) {
	log := e.logger.With(zap.String("subject", lesson.Subject), zap.String("date", lesson.Date))
	outcome := models.RegistrationOutcome{Lesson: lesson, State: models.LessonPending}

	for n := 1; !outcome.State.Terminal(); n++ {
		outcome.State = models.LessonAttempting
		outcome.Attempts = n
		log.Info("registering lesson", zap.Int("attempt", n), zap.Int("max_attempts", e.cfg.MaxAttempts))

		missing, err := e.attempt(ctx, page, catalog, lesson, bimestre)
		result := Classify(err, e.cfg.SkipUnknownSubject)
		record := models.RegistrationAttempt{Index: n, Result: result}
		if err != nil {
			record.Error = err.Error()
		}
		outcome.History = append(outcome.History, record)

		if result == models.AttemptSucceeded {
			outcome.State = models.LessonSucceeded
			outcome.SkillsMissing = missing
			break
		}
		if fatal(ctx, err) {
			if ctx.Err() != nil {
				return outcome, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
			}
			return outcome, fmt.Errorf("erro ao registrar %s: %w", lesson, err)
		}

		log.Warn("lesson attempt failed", zap.Int("attempt", n), zap.String("result", string(result)), zap.Error(err))
		if result == models.AttemptTerminal || n >= e.cfg.MaxAttempts {
			outcome.State = models.LessonExhausted
			break
		}
		if err := e.sleep(ctx, e.cfg.RetryDelay); err != nil {
			return outcome, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
	}

	outcome.Succeeded = outcome.State == models.LessonSucceeded
	outcome.Log = LogLine(outcome)
	return outcome, nil
}

// Classify maps an attempt error onto its retry class.
func Classify(err error, skipUnknownSubject bool) models.AttemptResult {
	switch {
	case err == nil:
		return models.AttemptSucceeded
	case portal.IsDateRejected(err), errors.Is(err, ErrInvalidDate):
		return models.AttemptTerminal
	case skipUnknownSubject && errors.Is(err, ErrSubjectNotFound):
		return models.AttemptTerminal
	default:
		return models.AttemptTransient
	}
}

// attempt fills and submits the form once. It returns the requested skill
// codes that had no matching row.
func (e *Engine) attempt(ctx context.Context, page portal.Page, catalog models.SubjectCatalog, lesson models.Lesson, bimestre string) ([]string, error) {
	subject, ok := catalog.Lookup(lesson.Subject)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSubjectNotFound, lesson.Subject)
	}
	date, err := portal.ParseDate(lesson.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}

	if err := e.openSubject(ctx, page, subject); err != nil {
		return nil, err
	}
	if err := e.sleep(ctx, e.cfg.SettleDelay); err != nil {
		return nil, err
	}
	if err := portal.SelectBimestre(ctx, page, bimestre, e.cfg.ElementTimeout); err != nil {
		return nil, err
	}

	status, err := page.Await(ctx, e.cfg.CurriculumsURL, e.cfg.ElementTimeout, func() error {
		return e.picker.Pick(ctx, page, date)
	})
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, fmt.Errorf("erro ao carregar currículos: status %d", status)
	}
	if err := e.sleep(ctx, e.cfg.SettleDelay); err != nil {
		return nil, err
	}

	if err := e.selectTimeSlots(ctx, page); err != nil {
		return nil, err
	}
	missing, err := e.selectSkills(ctx, page, lesson.Skills)
	if err != nil {
		return nil, err
	}
	if err := page.Clear(ctx, portal.SelSummary); err != nil {
		return nil, fmt.Errorf("erro ao preencher resumo: %w", err)
	}
	if err := page.Type(ctx, portal.SelSummary, lesson.Description); err != nil {
		return nil, fmt.Errorf("erro ao preencher resumo: %w", err)
	}

	if err := e.sleep(ctx, e.cfg.SettleDelay); err != nil {
		return nil, err
	}
	if err := e.submitter.Submit(ctx, page, lesson, date); err != nil {
		return nil, err
	}
	return missing, nil
}

func (e *Engine) openSubject(ctx context.Context, page portal.Page, subject models.Subject) error {
	if err := page.Navigate(ctx, e.cfg.ListURL); err != nil {
		return fmt.Errorf("erro ao abrir lista de matérias: %w", err)
	}
	row := portal.SubjectViewSelector(subject.Position)
	if err := page.WaitFor(ctx, row, e.cfg.ElementTimeout); err != nil {
		return fmt.Errorf("erro ao localizar matéria %s: %w", subject.Name, err)
	}
	err := page.WaitNavigation(ctx, e.cfg.NavigationTimeout, func() error {
		return page.Click(ctx, row)
	})
	if err != nil {
		return fmt.Errorf("erro ao abrir matéria %s: %w", subject.Name, err)
	}
	return nil
}

func (e *Engine) selectTimeSlots(ctx context.Context, page portal.Page) error {
	if err := page.Show(ctx, portal.SelTimeSlotList); err != nil {
		return fmt.Errorf("erro ao abrir horários: %w", err)
	}
	if err := page.WaitFor(ctx, portal.SelTimeSlot, e.cfg.ElementTimeout); err != nil {
		return fmt.Errorf("%w: %w", ErrNoTimeSlots, err)
	}
	n, err := page.ClickAll(ctx, portal.SelTimeSlot)
	if err != nil {
		return fmt.Errorf("erro ao selecionar horários: %w", err)
	}
	if n == 0 {
		return ErrNoTimeSlots
	}
	return nil
}

// selectSkills ticks each requested code found through the table filter.
// Codes without a matching row are returned, not treated as failures.
func (e *Engine) selectSkills(ctx context.Context, page portal.Page, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	if err := page.Select(ctx, portal.SelSkillPageSize, skillPageSize); err != nil {
		return nil, fmt.Errorf("erro ao exibir habilidades: %w", err)
	}

	var missing []string
	for _, code := range codes {
		if err := page.Clear(ctx, portal.SelSkillFilter); err != nil {
			return nil, fmt.Errorf("erro ao filtrar habilidades: %w", err)
		}
		if err := page.Type(ctx, portal.SelSkillFilter, code); err != nil {
			return nil, fmt.Errorf("erro ao filtrar habilidades: %w", err)
		}
		found, err := firstRowMatches(ctx, page, code)
		if err != nil {
			return nil, err
		}
		if !found {
			e.logger.Warn("skill not found", zap.String("skill", code))
			missing = append(missing, code)
			continue
		}
		if err := page.Click(ctx, portal.SelSkillFirstBox); err != nil {
			return nil, fmt.Errorf("erro ao marcar habilidade %s: %w", code, err)
		}
	}
	if err := page.Clear(ctx, portal.SelSkillFilter); err != nil {
		return nil, fmt.Errorf("erro ao filtrar habilidades: %w", err)
	}
	return missing, nil
}

func firstRowMatches(ctx context.Context, page portal.Page, code string) (bool, error) {
	ok, err := page.Exists(ctx, portal.SelSkillFirstBox)
	if err != nil || !ok {
		return false, err
	}
	text, err := page.Text(ctx, portal.SelSkillFirstRow)
	if errors.Is(err, portal.ErrElementNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.Contains(text, code), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
