package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sed-diario-api/internal/dto"
	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/internal/portal"
	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
)

type attendanceMarker interface {
	Mark(ctx context.Context, page portal.Page, date time.Time, absent []int) error
}

// AttendanceService marks absences on the attendance portal.
type AttendanceService struct {
	sessions  sessionOpener
	marker    attendanceMarker
	guard     accountGuard
	entryURL  string
	location  *time.Location
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService wires the attendance use case. locks may be nil.
func NewAttendanceService(sessions sessionOpener, marker attendanceMarker, locks accountLocker, entryURL string, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = dto.NewValidator()
	}
	return &AttendanceService{
		sessions:  sessions,
		marker:    marker,
		guard:     accountGuard{locks: locks, logger: logger},
		entryURL:  entryURL,
		location:  time.Local,
		validator: validate,
		logger:    logger,
	}
}

// Mark records the absences listed in req for login.
func (s *AttendanceService) Mark(ctx context.Context, login string, req dto.FrequenciaRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Data ou alunos com falta ausentes.")
	}
	date, err := time.ParseInLocation(dto.DateLayout, req.Data, s.location)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Data inválida, use dd/MM/aaaa.")
	}
	absent, err := ParseAbsentList(req.AlunosComFalta)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Lista de alunos com falta inválida.")
	}

	return s.guard.hold(ctx, login, func() error {
		session, err := s.sessions.Open(ctx, models.Credentials{Login: login, Password: req.Senha}, s.entryURL)
		if err != nil {
			return portalFailure(err)
		}
		defer session.Close() //nolint:errcheck

		if err := s.marker.Mark(ctx, session, date, absent); err != nil {
			s.logger.Warn("attendance not marked", zap.String("login", login), zap.String("date", req.Data), zap.Error(err))
			return portalFailure(err)
		}
		s.logger.Info("attendance marked", zap.String("login", login), zap.String("date", req.Data), zap.Int("absent", len(absent)))
		return nil
	})
}

// ParseAbsentList decodes a JSON array of 1-based student rows. Duplicates
// are dropped and every entry must be positive.
func ParseAbsentList(raw string) ([]int, error) {
	var rows []int
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, err
	}
	seen := make(map[int]struct{}, len(rows))
	out := make([]int, 0, len(rows))
	for _, row := range rows {
		if row < 1 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "posição de aluno inválida")
		}
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		out = append(out, row)
	}
	return out, nil
}
