package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sed-diario-api/internal/dto"
	"github.com/noah-isme/sed-diario-api/internal/portal"
	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
)

type rosterStub struct {
	classes  []string
	students []string
	err      error
	index    int
}

func (m *rosterStub) Classes(ctx context.Context, page portal.Page) ([]string, error) {
	return m.classes, m.err
}

func (m *rosterStub) Students(ctx context.Context, page portal.Page, index int) ([]string, error) {
	m.index = index
	return m.students, m.err
}

const testClassesURL = "https://sed.test/MinhasTurmas/GridAcesso"

func TestClassServiceListClasses(t *testing.T) {
	opener := newOpenerStub()
	locks := newLockStub()
	svc := NewClassService(opener, &rosterStub{classes: []string{"1º ANO A", "2º ANO B"}}, locks, testClassesURL, nil, nil)

	classes, err := svc.ListClasses(context.Background(), "rg123", dto.TurmasRequest{Senha: "s3nha"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1º ANO A", "2º ANO B"}, classes)
	assert.Equal(t, testClassesURL, opener.entry)
	assert.Equal(t, "s3nha", opener.creds.Password)
	assert.True(t, opener.page.Closed())
	assert.Equal(t, []string{"rg123"}, locks.released)
}

func TestClassServiceNoClasses(t *testing.T) {
	opener := newOpenerStub()
	svc := NewClassService(opener, &rosterStub{err: portal.ErrNoClasses}, nil, testClassesURL, nil, nil)

	_, err := svc.ListClasses(context.Background(), "rg123", dto.TurmasRequest{Senha: "s3nha"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Nenhuma turma encontrada para este usuário.", appErr.Message)
	assert.True(t, opener.page.Closed())
}

func TestClassServiceLoginFailure(t *testing.T) {
	opener := newOpenerStub()
	opener.err = fmt.Errorf("erro ao fazer login: %w", portal.ErrLoginRejected)
	svc := NewClassService(opener, &rosterStub{}, nil, testClassesURL, nil, nil)

	_, err := svc.ListClasses(context.Background(), "rg123", dto.TurmasRequest{Senha: "errada"})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
	assert.ErrorIs(t, err, portal.ErrLoginRejected)
}

func TestClassServiceRequiresPassword(t *testing.T) {
	opener := newOpenerStub()
	svc := NewClassService(opener, &rosterStub{}, nil, testClassesURL, nil, nil)

	_, err := svc.ListClasses(context.Background(), "rg123", dto.TurmasRequest{})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
	assert.Empty(t, opener.entry)
}

func TestClassServiceListStudents(t *testing.T) {
	roster := &rosterStub{students: []string{"ANA", "BRUNO"}}
	svc := NewClassService(newOpenerStub(), roster, nil, testClassesURL, nil, nil)

	students, err := svc.ListStudents(context.Background(), "rg123", dto.AlunosRequest{Senha: "s3nha", IndiceTurma: "2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ANA", "BRUNO"}, students)
	assert.Equal(t, 2, roster.index)
}

func TestClassServiceListStudentsInvalidIndex(t *testing.T) {
	svc := NewClassService(newOpenerStub(), &rosterStub{}, nil, testClassesURL, nil, nil)

	_, err := svc.ListStudents(context.Background(), "rg123", dto.AlunosRequest{Senha: "s3nha", IndiceTurma: "0"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)
}

func TestClassServiceListStudentsOutOfRange(t *testing.T) {
	roster := &rosterStub{err: fmt.Errorf("%w: 9 de 2", portal.ErrClassOutOfRange)}
	svc := NewClassService(newOpenerStub(), roster, nil, testClassesURL, nil, nil)

	_, err := svc.ListStudents(context.Background(), "rg123", dto.AlunosRequest{Senha: "s3nha", IndiceTurma: "9"})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
	assert.True(t, errors.Is(err, portal.ErrClassOutOfRange))
}

func TestClassServiceAccountBusy(t *testing.T) {
	locks := newLockStub()
	locks.held["rg123"] = true
	opener := newOpenerStub()
	svc := NewClassService(opener, &rosterStub{}, locks, testClassesURL, nil, nil)

	_, err := svc.ListClasses(context.Background(), "rg123", dto.TurmasRequest{Senha: "s3nha"})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, appErrors.FromError(err).Status)
	assert.Empty(t, opener.entry)
}
