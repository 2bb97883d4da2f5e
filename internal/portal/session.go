package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sed-diario-api/internal/models"
)

// ErrLoginRejected means the portal kept showing the login form after submit.
var ErrLoginRejected = errors.New("login recusado pelo portal, verifique usuário e senha")

// SessionGauge tracks open browser sessions.
type SessionGauge interface {
	Inc()
	Dec()
}

// Session is an authenticated page bound to one portal account. It is owned
// by a single workflow and must be closed on every exit path.
type Session struct {
	Page
	Login string

	once     sync.Once
	closeErr error
	onClose  func()
}

// Close releases the browser. Further calls are no-ops.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.closeErr = s.Page.Close()
		if s.onClose != nil {
			s.onClose()
		}
	})
	return s.closeErr
}

// BootstrapConfig holds the portal root and login wait bounds.
type BootstrapConfig struct {
	BaseURL           string
	NavigationTimeout time.Duration
	ElementTimeout    time.Duration
}

// Bootstrapper opens authenticated portal sessions.
type Bootstrapper struct {
	launcher Launcher
	cfg      BootstrapConfig
	gauge    SessionGauge
	logger   *zap.Logger
}

// NewBootstrapper constructs a Bootstrapper. gauge may be nil.
func NewBootstrapper(launcher Launcher, cfg BootstrapConfig, gauge SessionGauge, logger *zap.Logger) *Bootstrapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 60 * time.Second
	}
	if cfg.ElementTimeout <= 0 {
		cfg.ElementTimeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Bootstrapper{launcher: launcher, cfg: cfg, gauge: gauge, logger: logger}
}

// URL joins a portal path to the configured base URL.
func (b *Bootstrapper) URL(path string) string {
	return b.cfg.BaseURL + path
}

// Open launches a browser, logs in and navigates to entryURL. On failure the
// browser is already released and no Session is returned.
func (b *Bootstrapper) Open(ctx context.Context, creds models.Credentials, entryURL string) (*Session, error) {
	log := b.logger.With(zap.String("login", creds.Login))
	log.Info("opening portal session", zap.String("entry", entryURL))

	page, err := b.launcher.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao iniciar navegador: %w", err)
	}
	if b.gauge != nil {
		b.gauge.Inc()
	}
	session := &Session{Page: page, Login: creds.Login}
	if b.gauge != nil {
		session.onClose = b.gauge.Dec
	}

	if err := b.login(ctx, page, creds); err != nil {
		_ = session.Close()
		log.Warn("portal login failed", zap.Error(err))
		return nil, err
	}
	if err := page.Navigate(ctx, entryURL); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("erro ao navegar para %s: %w", entryURL, err)
	}
	return session, nil
}

func (b *Bootstrapper) login(ctx context.Context, page Page, creds models.Credentials) error {
	root := b.cfg.BaseURL + "/"
	if err := page.Navigate(ctx, root); err != nil {
		return fmt.Errorf("erro ao navegar para %s: %w", root, err)
	}
	if err := page.WaitFor(ctx, SelLogin, b.cfg.ElementTimeout); err != nil {
		return fmt.Errorf("erro ao fazer login: %w", err)
	}
	if err := page.Type(ctx, SelLogin, creds.Login); err != nil {
		return fmt.Errorf("erro ao fazer login: %w", err)
	}
	if err := page.Type(ctx, SelPassword, creds.Password); err != nil {
		return fmt.Errorf("erro ao fazer login: %w", err)
	}
	err := page.WaitNavigation(ctx, b.cfg.NavigationTimeout, func() error {
		return page.Click(ctx, SelLoginButton)
	})
	if err != nil {
		return fmt.Errorf("erro ao fazer login: %w", err)
	}
	stillOnForm, err := page.Exists(ctx, SelLoginButton)
	if err != nil {
		return fmt.Errorf("erro ao fazer login: %w", err)
	}
	if stillOnForm {
		return fmt.Errorf("erro ao fazer login: %w", ErrLoginRejected)
	}
	return nil
}
