package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sed-diario-api/internal/models"
)

// ErrDuplicate is returned when a unique constraint rejects an insert.
var ErrDuplicate = errors.New("duplicate record")

const uniqueViolation = "23505"

// UserRepository provides database access for registered teachers.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByTelefone returns a user by phone number.
func (r *UserRepository) FindByTelefone(ctx context.Context, telefone string) (*models.Usuario, error) {
	const query = `SELECT id, telefone, login, created_at, updated_at FROM usuarios WHERE telefone = $1 LIMIT 1`
	var user models.Usuario
	if err := r.db.GetContext(ctx, &user, query, telefone); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by telefone: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.Usuario, error) {
	const query = `SELECT id, telefone, login, created_at, updated_at FROM usuarios WHERE id = $1 LIMIT 1`
	var user models.Usuario
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// Create inserts a user. A phone number already registered yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.Usuario) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO usuarios (id, telefone, login, created_at, updated_at)
VALUES (:id, :telefone, :login, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}
