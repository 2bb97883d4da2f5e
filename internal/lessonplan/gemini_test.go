package lessonplan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/pkg/config"
)

type generatorMock struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	text     string
	err      error
}

func (m *generatorMock) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.model, m.contents, m.config = model, contents, cfg
	if m.err != nil {
		return nil, m.err
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []*genai.Part{{Text: m.text}}},
	}}}, nil
}

func TestGeminiAnalyzerRequest(t *testing.T) {
	mock := &generatorMock{text: "[]"}
	analyzer := newGeminiAnalyzer(mock, config.LessonPlanConfig{Model: "gemini-test", ThinkingBudget: 512})
	catalog := models.SubjectCatalog{{Name: "MATEMATICA", Position: 1, Skills: []string{"EF01"}}}

	text, err := analyzer.Analyze(context.Background(), catalog, Document{Data: pdfBytes, MIMEType: "application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, "[]", text)

	assert.Equal(t, "gemini-test", mock.model)
	require.Len(t, mock.contents, 1)
	parts := mock.contents[0].Parts
	require.Len(t, parts, 2)
	assert.JSONEq(t, `[{"materia":"MATEMATICA","habilidades":["EF01"]}]`, parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "application/pdf", parts[1].InlineData.MIMEType)

	assert.Equal(t, "application/json", mock.config.ResponseMIMEType)
	require.NotNil(t, mock.config.ThinkingConfig)
	assert.Equal(t, int32(512), *mock.config.ThinkingConfig.ThinkingBudget)
	assert.Contains(t, mock.config.SystemInstruction.Parts[0].Text, "Educação Física")
}

func TestGeminiAnalyzerDefaultsModel(t *testing.T) {
	mock := &generatorMock{text: "[]"}
	_, err := newGeminiAnalyzer(mock, config.LessonPlanConfig{}).Analyze(context.Background(), nil, Document{})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", mock.model)
	assert.Nil(t, mock.config.ThinkingConfig)
}

func TestGeminiAnalyzerErrors(t *testing.T) {
	_, err := newGeminiAnalyzer(&generatorMock{text: "  "}, config.LessonPlanConfig{}).
		Analyze(context.Background(), nil, Document{})
	assert.ErrorIs(t, err, ErrEmptyAnalysis)

	upstream := errors.New("quota exceeded")
	_, err = newGeminiAnalyzer(&generatorMock{err: upstream}, config.LessonPlanConfig{}).
		Analyze(context.Background(), nil, Document{})
	assert.ErrorIs(t, err, upstream)
}

func TestNewGeminiAnalyzerRequiresKey(t *testing.T) {
	_, err := NewGeminiAnalyzer(context.Background(), config.LessonPlanConfig{})
	assert.Error(t, err)
}
