package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/internal/portal"
)

const skillPageSize = "100"

var (
	// ErrDiscovery marks failures that abort subject discovery.
	ErrDiscovery = errors.New("erro ao buscar matérias da turma")
	// ErrNoSubjects is returned when discovery finishes with an empty catalog.
	ErrNoSubjects = errors.New("nenhuma matéria encontrada para a turma")
)

// DiscovererConfig holds the list page and wait bounds.
type DiscovererConfig struct {
	ListURL           string
	ElementTimeout    time.Duration
	NavigationTimeout time.Duration
}

// Discoverer scrapes the subjects and skill codes of the teacher's class.
type Discoverer struct {
	cfg    DiscovererConfig
	logger *zap.Logger
}

// NewDiscoverer builds a Discoverer.
func NewDiscoverer(cfg DiscovererConfig, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ElementTimeout <= 0 {
		cfg.ElementTimeout = 30 * time.Second
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 60 * time.Second
	}
	return &Discoverer{cfg: cfg, logger: logger}
}

// Discover visits every subject row of the list page, in order, and reads
// its name and the skill codes of bimestre. The page must be on the list.
// A subject that cannot be read is skipped; losing the list position is fatal.
func (d *Discoverer) Discover(ctx context.Context, page portal.Page, bimestre string) (models.SubjectCatalog, error) {
	if err := page.WaitFor(ctx, portal.SelSubjectRows, d.cfg.ElementTimeout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscovery, err)
	}
	total, err := page.Count(ctx, portal.SelSubjectRows)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscovery, err)
	}
	d.logger.Info("discovering subjects", zap.Int("rows", total), zap.String("bimestre", bimestre))

	catalog := make(models.SubjectCatalog, 0, total)
	for position := 1; position <= total && len(catalog) < total; position++ {
		subject, err := d.scrape(ctx, page, position, bimestre)
		switch {
		case err == nil:
			catalog = append(catalog, subject)
			d.logger.Debug("subject discovered",
				zap.Int("position", position),
				zap.String("subject", subject.Name),
				zap.Int("skills", len(subject.Skills)))
		case fatal(ctx, err):
			return nil, fmt.Errorf("%w: %w", ErrDiscovery, err)
		default:
			d.logger.Warn("skipping subject", zap.Int("position", position), zap.Error(err))
		}

		if err := page.Navigate(ctx, d.cfg.ListURL); err != nil {
			return nil, fmt.Errorf("%w: erro ao voltar para a lista de matérias: %w", ErrDiscovery, err)
		}
	}
	return catalog, nil
}

func (d *Discoverer) scrape(ctx context.Context, page portal.Page, position int, bimestre string) (models.Subject, error) {
	view := portal.SubjectViewSelector(position)
	err := page.WaitNavigation(ctx, d.cfg.NavigationTimeout, func() error {
		return page.Click(ctx, view)
	})
	if err != nil {
		return models.Subject{}, fmt.Errorf("erro ao abrir matéria %d: %w", position, err)
	}
	if err := page.WaitFor(ctx, portal.SelSubjectNameLabel, d.cfg.ElementTimeout); err != nil {
		return models.Subject{}, fmt.Errorf("erro ao ler nome da matéria %d: %w", position, err)
	}
	name, err := page.Text(ctx, portal.SelSubjectName)
	if err != nil {
		return models.Subject{}, fmt.Errorf("erro ao ler nome da matéria %d: %w", position, err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Subject{}, fmt.Errorf("matéria %d sem nome", position)
	}

	if err := portal.SelectBimestre(ctx, page, bimestre, d.cfg.ElementTimeout); err != nil {
		return models.Subject{}, fmt.Errorf("%s: %w", name, err)
	}
	if err := page.Select(ctx, portal.SelSkillPageSize, skillPageSize); err != nil {
		return models.Subject{}, fmt.Errorf("%s: erro ao exibir habilidades: %w", name, err)
	}
	codes, err := page.Values(ctx, portal.SelSkillCodes)
	if err != nil {
		return models.Subject{}, fmt.Errorf("%s: erro ao ler habilidades: %w", name, err)
	}
	return models.Subject{Name: name, Position: position, Skills: uniqueCodes(codes)}, nil
}

func uniqueCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

// fatal reports errors that make the session unusable for the rest of the run.
func fatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, portal.ErrSessionClosed)
}
