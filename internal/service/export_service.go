package service

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/pkg/export"
	"github.com/noah-isme/sed-diario-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

var reportHeaders = []string{"Matéria", "Dia", "Situação", "Tentativas", "Habilidades não encontradas", "Registro"}

// ExportService renders run reports and stores them behind signed links.
type ExportService struct {
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the package defaults.
func NewExportService(storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		storage: storage,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Generate renders the report of a finished run and stores the file.
func (s *ExportService) Generate(run *models.RegistrationRun, format models.ExportFormat) (*ExportResult, error) {
	if run == nil || run.Report == nil {
		return nil, fmt.Errorf("run has no report")
	}
	dataset := ReportDataset(run.Report.Report)
	title := fmt.Sprintf("Registro de aulas - %s - %s", run.Login, bimestreLabel(run.Bimestre))

	var (
		payload []byte
		err     error
	)
	switch format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(run, format), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(run.ID, relPath)
	if err != nil {
		return nil, err
	}
	s.logger.Info("run report exported", zap.String("run_id", run.ID), zap.String("format", string(format)))

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exportacoes/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string) (storage.Grant, error) {
	return s.signer.Parse(token, false)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than the configured result TTL.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

func (s *ExportService) buildFilename(run *models.RegistrationRun, format models.ExportFormat) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("aulas_%s_%s_%s.%s", sanitizeFilename(run.Login), sanitizeFilename(run.ID), timestamp, format)
}

// ReportDataset flattens a report into one row per lesson.
func ReportDataset(report models.Report) export.Dataset {
	rows := make([]map[string]string, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		status := "Falhou"
		if o.Succeeded {
			status = "Registrada"
		}
		rows = append(rows, map[string]string{
			"Matéria":                     o.Lesson.Subject,
			"Dia":                         o.Lesson.Date,
			"Situação":                    status,
			"Tentativas":                  strconv.Itoa(o.Attempts),
			"Habilidades não encontradas": strings.Join(o.SkillsMissing, ", "),
			"Registro":                    o.Log,
		})
	}
	return export.Dataset{Headers: reportHeaders, Rows: rows, Widths: []float64{2, 1.2, 1.2, 1, 2, 4}}
}

func bimestreLabel(b string) string {
	if b == "" {
		return "bimestre"
	}
	return b + "º bimestre"
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
