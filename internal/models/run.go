package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RunStatus captures background registration run lifecycle states.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "QUEUED"
	RunStatusProcessing RunStatus = "PROCESSING"
	RunStatusFinished   RunStatus = "FINISHED"
	RunStatusFailed     RunStatus = "FAILED"
	RunStatusCancelled  RunStatus = "CANCELLED"
)

// Done reports whether the run reached a final state.
func (s RunStatus) Done() bool {
	return s == RunStatusFinished || s == RunStatusFailed || s == RunStatusCancelled
}

// ExportFormat enumerates supported run report export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// RegistrationRun is a persisted asynchronous lesson registration.
type RegistrationRun struct {
	ID            string     `db:"id" json:"id"`
	UserID        string     `db:"user_id" json:"userId"`
	Login         string     `db:"login" json:"login"`
	Bimestre      string     `db:"bimestre" json:"bimestre"`
	LessonPlanURL string     `db:"lesson_plan_url" json:"linkCronograma"`
	Status        RunStatus  `db:"status" json:"status"`
	Credential    []byte     `db:"credential" json:"-"`
	Report        *RunReport `db:"report" json:"relatorio,omitempty"`
	ErrorMessage  *string    `db:"error_message" json:"mensagemErro,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	StartedAt     *time.Time `db:"started_at" json:"startedAt,omitempty"`
	FinishedAt    *time.Time `db:"finished_at" json:"finishedAt,omitempty"`
}

// RunReport persists a Report as JSONB.
type RunReport struct {
	Report
}

// Value marshals the report to JSON for persistence.
func (r RunReport) Value() (driver.Value, error) {
	if r.Lines == nil {
		r.Lines = []string{}
	}
	data, err := json.Marshal(r.Report)
	if err != nil {
		return nil, fmt.Errorf("marshal run report: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the report.
func (r *RunReport) Scan(value interface{}) error {
	if value == nil {
		*r = RunReport{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for RunReport", value)
	}
	if len(data) == 0 {
		*r = RunReport{}
		return nil
	}
	if err := json.Unmarshal(data, &r.Report); err != nil {
		return fmt.Errorf("unmarshal run report: %w", err)
	}
	return nil
}
