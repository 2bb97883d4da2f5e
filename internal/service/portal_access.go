package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/internal/portal"
	"github.com/noah-isme/sed-diario-api/internal/repository"
	appErrors "github.com/noah-isme/sed-diario-api/pkg/errors"
)

const releaseTimeout = 5 * time.Second

type sessionOpener interface {
	Open(ctx context.Context, creds models.Credentials, entryURL string) (*portal.Session, error)
}

type accountLocker interface {
	Acquire(ctx context.Context, login string) (string, error)
	Release(ctx context.Context, login, token string) error
}

// lockRenewer is implemented by lockers whose locks expire. hold keeps such
// a lock alive for as long as fn runs.
type lockRenewer interface {
	Extend(ctx context.Context, login, token string) error
	TTL() time.Duration
}

// accountGuard serialises portal work per login.
type accountGuard struct {
	locks  accountLocker
	logger *zap.Logger
}

// hold runs fn while owning the account lock of login. A lock held by
// another operation yields ErrAccountBusy.
func (g accountGuard) hold(ctx context.Context, login string, fn func() error) error {
	if g.locks == nil {
		return fn()
	}
	token, err := g.locks.Acquire(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrLockHeld) {
			return appErrors.ErrAccountBusy
		}
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "Não foi possível reservar a conta. Tente novamente mais tarde!")
	}
	stop := g.keepAlive(login, token)
	defer func() {
		stop()
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := g.locks.Release(releaseCtx, login, token); err != nil {
			g.logger.Warn("failed to release account lock", zap.String("login", login), zap.Error(err))
		}
	}()
	return fn()
}

// keepAlive extends the lock every third of its TTL until the returned stop
// function is called.
func (g accountGuard) keepAlive(login, token string) func() {
	renewer, ok := g.locks.(lockRenewer)
	if !ok || renewer.TTL() <= 0 {
		return func() {}
	}
	logger := g.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(renewer.TTL() / 3)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
				err := renewer.Extend(ctx, login, token)
				cancel()
				if errors.Is(err, repository.ErrLockLost) {
					logger.Error("account lock lost while held", zap.String("login", login))
					return
				}
				if err != nil {
					logger.Warn("failed to extend account lock", zap.String("login", login), zap.Error(err))
				}
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

// portalFailure exposes a portal error chain to the user as a 404, the way
// the chat-bot expects business failures.
func portalFailure(err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrPortal.Code, appErrors.ErrPortal.Status, sentence(err.Error()))
}

// sentence capitalises msg and terminates it with a period.
func sentence(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return msg
	}
	r := []rune(msg)
	r[0] = []rune(strings.ToUpper(string(r[0])))[0]
	msg = string(r)
	if !strings.HasSuffix(msg, ".") && !strings.HasSuffix(msg, "!") {
		msg += "."
	}
	return msg
}
