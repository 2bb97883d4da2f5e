package portal

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/noah-isme/sed-diario-api/pkg/config"
)

// RodLauncher starts headless Chromium processes through go-rod.
type RodLauncher struct {
	cfg    config.PortalConfig
	logger *zap.Logger
}

// NewRodLauncher builds a launcher from portal configuration.
func NewRodLauncher(cfg config.PortalConfig, logger *zap.Logger) *RodLauncher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RodLauncher{cfg: cfg, logger: logger}
}

// NewPage launches a browser process and opens a blank page on it.
func (l *RodLauncher) NewPage(ctx context.Context) (Page, error) {
	lc := launcher.New().
		Headless(l.cfg.Headless).
		NoSandbox(true).
		Set("disable-setuid-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage")
	if l.cfg.BrowserBin != "" {
		lc = lc.Bin(l.cfg.BrowserBin)
	}

	controlURL, err := lc.Launch()
	if err != nil {
		return nil, fmt.Errorf("iniciar navegador: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		lc.Kill()
		lc.Cleanup()
		return nil, fmt.Errorf("conectar ao navegador: %w", err)
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		lc.Cleanup()
		return nil, fmt.Errorf("abrir página: %w", err)
	}
	l.logger.Debug("browser launched", zap.String("control_url", controlURL))

	return &rodPage{
		browser:           browser,
		page:              page.Context(context.Background()),
		launcher:          lc,
		elementTimeout:    durationOr(l.cfg.ElementTimeout, 30*time.Second),
		navigationTimeout: durationOr(l.cfg.NavigationTimeout, 60*time.Second),
	}, nil
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
