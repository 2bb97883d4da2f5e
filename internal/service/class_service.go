package service

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sed-diario-api/internal/dto"
	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/internal/portal"
	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
)

type rosterReader interface {
	Classes(ctx context.Context, page portal.Page) ([]string, error)
	Students(ctx context.Context, page portal.Page, index int) ([]string, error)
}

// ClassService reads the teacher's classes and their students from the portal.
type ClassService struct {
	sessions   sessionOpener
	roster     rosterReader
	guard      accountGuard
	classesURL string
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewClassService wires the roster use cases. locks may be nil.
func NewClassService(sessions sessionOpener, roster rosterReader, locks accountLocker, classesURL string, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = dto.NewValidator()
	}
	return &ClassService{
		sessions:   sessions,
		roster:     roster,
		guard:      accountGuard{locks: locks, logger: logger},
		classesURL: classesURL,
		validator:  validate,
		logger:     logger,
	}
}

// ListClasses returns the class names of login.
func (s *ClassService) ListClasses(ctx context.Context, login string, req dto.TurmasRequest) ([]string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Senha obrigatória.")
	}
	var classes []string
	err := s.withSession(ctx, login, req.Senha, func(session *portal.Session) error {
		var err error
		classes, err = s.roster.Classes(ctx, session)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("classes listed", zap.String("login", login), zap.Int("count", len(classes)))
	return classes, nil
}

// ListStudents returns the students of the class at the 1-based index.
func (s *ClassService) ListStudents(ctx context.Context, login string, req dto.AlunosRequest) ([]string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Senha e índice da turma obrigatórios.")
	}
	index, err := strconv.Atoi(req.IndiceTurma)
	if err != nil || index < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Índice da turma inválido.")
	}

	var students []string
	err = s.withSession(ctx, login, req.Senha, func(session *portal.Session) error {
		var err error
		students, err = s.roster.Students(ctx, session, index)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("students listed", zap.String("login", login), zap.Int("class", index), zap.Int("count", len(students)))
	return students, nil
}

func (s *ClassService) withSession(ctx context.Context, login, password string, fn func(*portal.Session) error) error {
	return s.guard.hold(ctx, login, func() error {
		session, err := s.sessions.Open(ctx, models.Credentials{Login: login, Password: password}, s.classesURL)
		if err != nil {
			return portalFailure(err)
		}
		defer session.Close() //nolint:errcheck
		if err := fn(session); err != nil {
			return portalFailure(err)
		}
		return nil
	})
}
