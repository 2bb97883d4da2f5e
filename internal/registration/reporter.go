package registration

import (
	"fmt"

	"github.com/noah-isme/sed-diario-api/internal/models"
)

// LogLine renders the report line of one lesson.
func LogLine(o models.RegistrationOutcome) string {
	if o.Succeeded {
		return fmt.Sprintf("%s - registrada com sucesso", o.Lesson)
	}
	line := fmt.Sprintf("%s - falhou após %d tentativa(s)", o.Lesson, o.Attempts)
	if cause := o.LastError(); cause != "" {
		line += ": " + cause
	}
	return line
}

// Summarize aggregates outcomes in the order given.
func Summarize(outcomes []models.RegistrationOutcome) models.Report {
	if outcomes == nil {
		outcomes = []models.RegistrationOutcome{}
	}
	report := models.Report{
		Lines:    make([]string, 0, len(outcomes)),
		Outcomes: outcomes,
	}
	for _, o := range outcomes {
		if o.Succeeded {
			report.Successes++
		} else {
			report.Failures++
		}
		report.Lines = append(report.Lines, LogLine(o))
	}

	switch {
	case len(outcomes) == 0:
		report.Message = "Nenhuma aula encontrada no cronograma para registrar."
	case report.Failures == 0:
		report.Message = fmt.Sprintf("Registro de aulas concluído com sucesso! %d aula(s) registrada(s).", report.Successes)
	default:
		report.Message = fmt.Sprintf("Registro de aulas concluído com falhas: %d aula(s) registrada(s) e %d com falha.",
			report.Successes, report.Failures)
	}
	return report
}
