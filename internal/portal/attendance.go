package portal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// attendanceSubjectRows bounds the subject rows tried on the attendance grid.
const attendanceSubjectRows = 5

var (
	ErrNoTimeSlot          = errors.New("nenhum horário de aula encontrado para a data informada")
	ErrStudentOutOfRange   = errors.New("aluno informado não existe na lista de chamada")
	ErrAttendanceNotSaved  = errors.New("portal não confirmou a frequência")
	errAttendanceRowAbsent = errors.New("linha de matéria ausente")
)

// AttendanceConfig bounds the attendance flow waits.
type AttendanceConfig struct {
	URL            string
	ElementTimeout time.Duration
	SlotTimeout    time.Duration
	SaveTimeout    time.Duration
}

// Attendance marks absences on the attendance portal.
type Attendance struct {
	cfg    AttendanceConfig
	origin string
	picker DatePicker
	now    func() time.Time
	logger *zap.Logger
}

// NewAttendance builds the flow for the given attendance entry URL.
func NewAttendance(cfg AttendanceConfig, logger *zap.Logger) *Attendance {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ElementTimeout <= 0 {
		cfg.ElementTimeout = 30 * time.Second
	}
	if cfg.SlotTimeout <= 0 {
		cfg.SlotTimeout = 5 * time.Second
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 10 * time.Second
	}
	origin := cfg.URL
	if u, err := url.Parse(cfg.URL); err == nil && u.Host != "" {
		origin = u.Scheme + "://" + u.Host
	}
	return &Attendance{
		cfg:    cfg,
		origin: origin,
		picker: DatePicker{Container: SelAttendancePicker},
		now:    time.Now,
		logger: logger,
	}
}

// Mark records absences for the given 1-based student rows on date. Subject
// rows are tried in order until one offers a time slot for that date.
func (a *Attendance) Mark(ctx context.Context, page Page, date time.Time, absent []int) error {
	for row := 1; row <= attendanceSubjectRows; row++ {
		err := a.markRow(ctx, page, row, date, absent)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, errAttendanceRowAbsent):
			return ErrNoTimeSlot
		case errors.Is(err, ErrNoTimeSlot):
			a.logger.Info("no time slot for subject row, trying next", zap.Int("row", row))
			continue
		default:
			return err
		}
	}
	return ErrNoTimeSlot
}

func (a *Attendance) markRow(ctx context.Context, page Page, row int, date time.Time, absent []int) error {
	if err := page.Navigate(ctx, a.cfg.URL); err != nil {
		return fmt.Errorf("erro ao navegar para %s: %w", a.cfg.URL, err)
	}
	subject := fmt.Sprintf(selAttendanceSubject, row)
	exists, err := page.Exists(ctx, subject)
	if err != nil {
		return fmt.Errorf("erro ao selecionar matéria: %w", err)
	}
	if !exists {
		return errAttendanceRowAbsent
	}
	if err := page.Click(ctx, subject); err != nil {
		return fmt.Errorf("erro ao selecionar matéria: %w", err)
	}
	if err := page.WaitFor(ctx, SelAttendancePicker, a.cfg.ElementTimeout); err != nil {
		return fmt.Errorf("erro ao abrir calendário: %w", err)
	}

	if !sameDay(date, a.now()) {
		if err := a.selectDate(ctx, page, date); err != nil {
			return err
		}
	}

	if err := page.Show(ctx, SelTimeSlotList); err != nil {
		return fmt.Errorf("erro ao abrir horários: %w", err)
	}
	if err := page.WaitFor(ctx, SelTimeSlot, a.cfg.SlotTimeout); err != nil {
		if errors.Is(err, ErrTimeout) || errors.Is(err, ErrElementNotFound) {
			return ErrNoTimeSlot
		}
		return fmt.Errorf("erro ao verificar horários: %w", err)
	}
	if err := page.Click(ctx, SelTimeSlot); err != nil {
		return fmt.Errorf("erro ao selecionar horário: %w", err)
	}

	if err := page.Click(ctx, SelListStudents); err != nil {
		return fmt.Errorf("erro ao listar alunos: %w", err)
	}
	if err := page.WaitFor(ctx, SelStudentRows, a.cfg.ElementTimeout); err != nil {
		return fmt.Errorf("erro ao listar alunos: %w", err)
	}
	total, err := page.Count(ctx, SelStudentRows)
	if err != nil {
		return fmt.Errorf("erro ao listar alunos: %w", err)
	}
	for _, n := range absent {
		if n < 1 || n > total {
			return fmt.Errorf("%w: %d de %d", ErrStudentOutOfRange, n, total)
		}
		if err := page.Click(ctx, fmt.Sprintf(selStudentPresence, n)); err != nil {
			return fmt.Errorf("erro ao marcar falta do aluno %d: %w", n, err)
		}
	}

	if err := page.Click(ctx, SelSaveAttendance); err != nil {
		return fmt.Errorf("erro ao salvar frequência: %w", err)
	}
	if err := page.WaitFor(ctx, SelConfirmButton, a.cfg.ElementTimeout); err != nil {
		return fmt.Errorf("erro ao confirmar frequência: %w", err)
	}
	status, err := page.Await(ctx, a.origin+PathAttendanceSave, a.cfg.SaveTimeout, func() error {
		return page.Click(ctx, SelConfirmButton)
	})
	if err != nil {
		return fmt.Errorf("erro ao confirmar frequência: %w", err)
	}
	if status >= 400 {
		return fmt.Errorf("%w: status %d", ErrAttendanceNotSaved, status)
	}
	return nil
}

func (a *Attendance) selectDate(ctx context.Context, page Page, date time.Time) error {
	if err := a.picker.Locate(ctx, page, date); err != nil {
		return err
	}
	day := fmt.Sprintf(selAttendanceDay, date.Format(DateLayout))
	if err := page.Click(ctx, day); err != nil {
		return fmt.Errorf("erro ao selecionar data: %w", err)
	}
	_, err := page.Await(ctx, a.origin+PathAttendanceEvents, a.cfg.ElementTimeout, func() error {
		return page.PressEnter(ctx, SelAttendanceDate)
	})
	if err != nil {
		return fmt.Errorf("erro ao atualizar horários: %w", err)
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
