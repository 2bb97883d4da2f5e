package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sed-diario-api/internal/dto"
	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/internal/repository"
	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
)

type userRepository interface {
	Create(ctx context.Context, user *models.Usuario) error
}

// UserService registers teachers allowed to use the API.
type UserService struct {
	repo        userRepository
	validator   *validator.Validate
	logger      *zap.Logger
	adminAPIKey string
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger, adminAPIKey string) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger, adminAPIKey: adminAPIKey}
}

// Create stores a new phone/login pair after checking the admin key.
func (s *UserService) Create(ctx context.Context, req dto.CreateUsuarioRequest) (*models.Usuario, error) {
	req.Telefone = strings.TrimSpace(req.Telefone)
	req.Login = strings.TrimSpace(req.Login)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Telefone e login obrigatórios.")
	}
	if !keysMatch(req.AdminAPIKey, s.adminAPIKey) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Chave de admin inválida.")
	}

	user := &models.Usuario{Telefone: req.Telefone, Login: req.Login}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Já existe um usuário com este telefone.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Erro ao criar usuário.")
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("login", user.Login))
	return user, nil
}
