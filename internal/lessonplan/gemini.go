package lessonplan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/pkg/config"
)

// ErrEmptyAnalysis is returned when the model answers without text.
var ErrEmptyAnalysis = errors.New("resposta vazia do serviço de análise")

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAnalyzer maps a lesson plan document onto the subject catalog with
// the Gemini API.
type GeminiAnalyzer struct {
	models         contentGenerator
	model          string
	thinkingBudget int32
}

// NewGeminiAnalyzer builds an analyzer backed by the Gemini API.
func NewGeminiAnalyzer(ctx context.Context, cfg config.LessonPlanConfig) (*GeminiAnalyzer, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY não configurada")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newGeminiAnalyzer(client.Models, cfg), nil
}

func newGeminiAnalyzer(models contentGenerator, cfg config.LessonPlanConfig) *GeminiAnalyzer {
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiAnalyzer{models: models, model: model, thinkingBudget: int32(cfg.ThinkingBudget)}
}

// Analyze sends the catalog and document and returns the raw model text.
func (a *GeminiAnalyzer) Analyze(ctx context.Context, catalog models.SubjectCatalog, doc Document) (string, error) {
	catalogJSON, err := json.Marshal(catalog)
	if err != nil {
		return "", fmt.Errorf("marshal subject catalog: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(string(catalogJSON)),
			genai.NewPartFromBytes(doc.Data, doc.MIMEType),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(systemInstruction)}},
	}
	if a.thinkingBudget > 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(a.thinkingBudget)}
	}

	resp, err := a.models.GenerateContent(ctx, a.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("erro ao consultar serviço de análise: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyAnalysis
	}
	return text, nil
}
