package dto

import (
	"time"

	"github.com/noah-isme/sed-diario-api/internal/models"
)

// RunResponse exposes one asynchronous registration run.
type RunResponse struct {
	Sucesso  bool                    `json:"sucesso"`
	Mensagem string                  `json:"mensagem,omitempty"`
	Execucao *models.RegistrationRun `json:"execucao"`
}

// RunExportResponse points to a signed download of a run report.
type RunExportResponse struct {
	Sucesso  bool      `json:"sucesso"`
	URL      string    `json:"url"`
	Formato  string    `json:"formato"`
	ExpiraEm time.Time `json:"expiraEm"`
}
