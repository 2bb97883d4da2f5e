package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/internal/portal"
	"github.com/noah-isme/sed-diario-api/internal/portal/portaltest"
	"github.com/noah-isme/sed-diario-api/internal/repository"
	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
)

type openerStub struct {
	page    *portaltest.Page
	err     error
	entry   string
	creds   models.Credentials
	session *portal.Session
}

func newOpenerStub() *openerStub {
	return &openerStub{page: portaltest.New()}
}

func (m *openerStub) Open(ctx context.Context, creds models.Credentials, entryURL string) (*portal.Session, error) {
	m.entry = entryURL
	m.creds = creds
	if m.err != nil {
		return nil, m.err
	}
	m.session = &portal.Session{Page: m.page, Login: creds.Login}
	return m.session, nil
}

type lockStub struct {
	held       map[string]bool
	acquireErr error
	acquired   []string
	released   []string
}

func newLockStub() *lockStub {
	return &lockStub{held: make(map[string]bool)}
}

func (m *lockStub) Acquire(ctx context.Context, login string) (string, error) {
	if m.acquireErr != nil {
		return "", m.acquireErr
	}
	if m.held[login] {
		return "", repository.ErrLockHeld
	}
	m.held[login] = true
	m.acquired = append(m.acquired, login)
	return "token-" + login, nil
}

func (m *lockStub) Release(ctx context.Context, login, token string) error {
	delete(m.held, login)
	m.released = append(m.released, login)
	return nil
}

func TestAccountGuardBusy(t *testing.T) {
	locks := newLockStub()
	locks.held["rg123"] = true
	guard := accountGuard{locks: locks}

	called := false
	err := guard.hold(context.Background(), "rg123", func() error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "Já existe uma operação em andamento para este login.", appErr.Message)
}

func TestAccountGuardReleasesOnError(t *testing.T) {
	locks := newLockStub()
	guard := accountGuard{locks: locks}

	err := guard.hold(context.Background(), "rg123", func() error { return errors.New("falhou") })
	require.Error(t, err)
	assert.Equal(t, []string{"rg123"}, locks.released)
	assert.False(t, locks.held["rg123"])
}

func TestAccountGuardKeepsLockAliveWhileHeld(t *testing.T) {
	locks := repository.NewAccountLockRepository(nil, 30*time.Millisecond)
	guard := accountGuard{locks: locks}

	err := guard.hold(context.Background(), "rg123", func() error {
		time.Sleep(100 * time.Millisecond)
		_, err := locks.Acquire(context.Background(), "rg123")
		assert.ErrorIs(t, err, repository.ErrLockHeld)
		return nil
	})
	require.NoError(t, err)

	_, err = locks.Acquire(context.Background(), "rg123")
	assert.NoError(t, err)
}

func TestAccountGuardLockBackendDown(t *testing.T) {
	locks := newLockStub()
	locks.acquireErr = errors.New("redis down")
	guard := accountGuard{locks: locks}

	err := guard.hold(context.Background(), "rg123", func() error { return nil })
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, appErrors.FromError(err).Status)
}

func TestPortalFailureMessage(t *testing.T) {
	err := portalFailure(errors.New("erro ao fazer login: login recusado pelo portal, verifique usuário e senha"))
	appErr := appErrors.FromError(err)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Erro ao fazer login: login recusado pelo portal, verifique usuário e senha.", appErr.Message)

	busy := portalFailure(appErrors.ErrAccountBusy)
	assert.Equal(t, http.StatusConflict, appErrors.FromError(busy).Status)
}

func TestSentence(t *testing.T) {
	assert.Equal(t, "Ótimo.", sentence("ótimo"))
	assert.Equal(t, "Pronto!", sentence("pronto!"))
	assert.Equal(t, "", sentence("  "))
}
