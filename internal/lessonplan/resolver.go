package lessonplan

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sed-diario-api/internal/models"
)

// Fetcher downloads the plan document behind a link.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (Document, error)
}

// Analyzer maps a document onto the subject catalog and returns the raw
// structured answer.
type Analyzer interface {
	Analyze(ctx context.Context, catalog models.SubjectCatalog, doc Document) (string, error)
}

// Resolver turns a lesson plan link into the ordered lessons to register.
type Resolver struct {
	fetcher  Fetcher
	analyzer Analyzer
	logger   *zap.Logger
}

// NewResolver wires a fetcher and analyzer.
func NewResolver(fetcher Fetcher, analyzer Analyzer, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{fetcher: fetcher, analyzer: analyzer, logger: logger}
}

// Resolve fetches and analyses the plan. Any failure means no lessons.
func (r *Resolver) Resolve(ctx context.Context, catalog models.SubjectCatalog, ref string) ([]models.Lesson, error) {
	doc, err := r.fetcher.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("erro ao baixar cronograma: %w", err)
	}
	r.logger.Info("lesson plan downloaded",
		zap.String("mime", doc.MIMEType),
		zap.Int("bytes", len(doc.Data)),
		zap.Int("subjects", len(catalog)))

	text, err := r.analyzer.Analyze(ctx, catalog, doc)
	if err != nil {
		return nil, fmt.Errorf("erro ao analisar cronograma: %w", err)
	}
	lessons, err := ParseLessons(text)
	if err != nil {
		r.logger.Warn("unusable lesson plan analysis", zap.Error(err))
		return nil, fmt.Errorf("erro ao analisar cronograma: %w", err)
	}
	r.logger.Info("lesson plan resolved", zap.Int("lessons", len(lessons)))
	return lessons, nil
}
