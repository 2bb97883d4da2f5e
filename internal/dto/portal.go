package dto

import "github.com/noah-isme/sed-diario-api/internal/models"

// TurmasRequest carries the portal password for the authenticated login.
type TurmasRequest struct {
	Senha string `json:"senha" validate:"required"`
}

// TurmasResponse lists class names in portal order.
type TurmasResponse struct {
	Sucesso bool     `json:"sucesso"`
	Turmas  []string `json:"turmas"`
}

// AlunosRequest selects a class by its 1-based position in TurmasResponse.
type AlunosRequest struct {
	Senha       string `json:"senha" validate:"required"`
	IndiceTurma string `json:"indiceTurma" validate:"required,numeric"`
}

// AlunosResponse lists student names of the selected class.
type AlunosResponse struct {
	Sucesso bool     `json:"sucesso"`
	Alunos  []string `json:"alunos"`
}

// FrequenciaRequest marks absences on a given date. AlunosComFalta is a
// JSON-encoded array of 1-based student positions, e.g. "[1,4,7]".
type FrequenciaRequest struct {
	Data           string `json:"data" validate:"required,data"`
	AlunosComFalta string `json:"alunosComFalta" validate:"required"`
	Senha          string `json:"senha" validate:"required"`
}

// AulasRequest starts a lesson registration from a lesson plan document.
type AulasRequest struct {
	Senha          string `json:"senha" validate:"required"`
	LinkCronograma string `json:"linkCronograma" validate:"required,url"`
	Bimestre       string `json:"bimestre" validate:"required"`
}

// AulasResponse is returned once every lesson of the plan reached a final state.
type AulasResponse struct {
	Sucesso   bool           `json:"sucesso"`
	Mensagem  string         `json:"mensagem"`
	Relatorio *models.Report `json:"relatorio,omitempty"`
}
