package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sed-diario-api/internal/dto"
	"github.com/noah-isme/sed-diario-api/internal/models"
	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]*models.Usuario
	findErr   error
	createErr error
	created   []*models.Usuario
}

func newMockUserRepo(users ...*models.Usuario) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*models.Usuario)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) FindByTelefone(ctx context.Context, telefone string) (*models.Usuario, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.Telefone == telefone {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.Usuario, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if u, ok := m.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.Usuario) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = "generated"
	m.created = append(m.created, user)
	return nil
}

func testAuthService(repo *mockUserRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		Secret:     "segredo",
		Expiration: 1800 * time.Second,
		Issuer:     "sed-diario-api",
		APIKey:     "chave-api",
	})
}

func TestIssueTokenAndValidate(t *testing.T) {
	repo := newMockUserRepo(&models.Usuario{ID: "u1", Telefone: "5511999990000", Login: "rg123sp"})
	svc := testAuthService(repo)

	res, err := svc.IssueToken(context.Background(), dto.TokenRequest{Telefone: "5511999990000", APIKey: "chave-api"})
	require.NoError(t, err)
	assert.True(t, res.Sucesso)
	assert.Equal(t, "rg123sp", res.Login)
	assert.Equal(t, "1800s", res.ExpiraEm)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "5511999990000", claims.Telefone)
	assert.Equal(t, "rg123sp", claims.Login)
	assert.Equal(t, "sed-diario-api", claims.Issuer)
}

func TestIssueTokenUnknownTelefone(t *testing.T) {
	svc := testAuthService(newMockUserRepo())

	_, err := svc.IssueToken(context.Background(), dto.TokenRequest{Telefone: "000", APIKey: "chave-api"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Usuário não encontrado com este telefone.", appErr.Message)
}

func TestIssueTokenWrongAPIKey(t *testing.T) {
	repo := newMockUserRepo(&models.Usuario{ID: "u1", Telefone: "1", Login: "l"})
	svc := testAuthService(repo)

	_, err := svc.IssueToken(context.Background(), dto.TokenRequest{Telefone: "1", APIKey: "errada"})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, appErrors.FromError(err).Status)
}

func TestIssueTokenRepositoryFailure(t *testing.T) {
	repo := newMockUserRepo()
	repo.findErr = errors.New("db down")
	svc := testAuthService(repo)

	_, err := svc.IssueToken(context.Background(), dto.TokenRequest{Telefone: "1", APIKey: "chave-api"})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
}

func TestValidateTokenExpired(t *testing.T) {
	repo := newMockUserRepo(&models.Usuario{ID: "u1", Telefone: "1", Login: "l"})
	svc := testAuthService(repo)
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	res, err := svc.IssueToken(context.Background(), dto.TokenRequest{Telefone: "1", APIKey: "chave-api"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(res.Token)
	require.Error(t, err)
	assert.Equal(t, "Token expirado.", appErrors.FromError(err).Message)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	repo := newMockUserRepo(&models.Usuario{ID: "u1", Telefone: "1", Login: "l"})
	svc := testAuthService(repo)
	res, err := svc.IssueToken(context.Background(), dto.TokenRequest{Telefone: "1", APIKey: "chave-api"})
	require.NoError(t, err)

	other := testAuthService(repo)
	other.config.Secret = "outro"
	_, err = other.ValidateToken(res.Token)
	require.Error(t, err)
	assert.Equal(t, "Token inválido.", appErrors.FromError(err).Message)
}

func TestAuthenticateDeletedUser(t *testing.T) {
	repo := newMockUserRepo(&models.Usuario{ID: "u1", Telefone: "1", Login: "l"})
	svc := testAuthService(repo)
	res, err := svc.IssueToken(context.Background(), dto.TokenRequest{Telefone: "1", APIKey: "chave-api"})
	require.NoError(t, err)

	delete(repo.users, "u1")
	_, err = svc.Authenticate(context.Background(), res.Token)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Usuário não encontrado.", appErr.Message)
}

func TestAuthenticateRefreshesLogin(t *testing.T) {
	repo := newMockUserRepo(&models.Usuario{ID: "u1", Telefone: "1", Login: "antigo"})
	svc := testAuthService(repo)
	res, err := svc.IssueToken(context.Background(), dto.TokenRequest{Telefone: "1", APIKey: "chave-api"})
	require.NoError(t, err)

	repo.users["u1"].Login = "novo"
	claims, err := svc.Authenticate(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, "novo", claims.Login)
}
