package models

import "strings"

// Subject is one curricular component offered for the class, together with
// the skill codes available for the selected bimestre.
type Subject struct {
	Name string `json:"materia"`
	// Position is the 1-based row of the subject on the registration list.
	Position int      `json:"-"`
	Skills   []string `json:"habilidades"`
}

// SubjectCatalog is the ordered result of subject discovery.
type SubjectCatalog []Subject

// Lookup returns the subject whose name matches exactly.
func (c SubjectCatalog) Lookup(name string) (Subject, bool) {
	for _, s := range c {
		if s.Name == name {
			return s, true
		}
	}
	return Subject{}, false
}

// Names lists subject names in discovery order.
func (c SubjectCatalog) Names() []string {
	names := make([]string, 0, len(c))
	for _, s := range c {
		names = append(names, s.Name)
	}
	return names
}

// Lesson is a planned lesson to register on the portal.
type Lesson struct {
	Subject     string   `json:"materia"`
	Date        string   `json:"dia"`
	Description string   `json:"descricao"`
	Skills      []string `json:"habilidades"`
}

// String renders the lesson the way it appears in the registration log.
func (l Lesson) String() string {
	return "Aula de " + l.Subject + " - dia " + l.Date
}

// AttemptResult classifies one registration attempt.
type AttemptResult string

const (
	AttemptSucceeded AttemptResult = "success"
	AttemptTransient AttemptResult = "transient"
	AttemptTerminal  AttemptResult = "terminal"
)

// LessonState is the per-lesson registration state.
type LessonState string

const (
	LessonPending    LessonState = "PENDING"
	LessonAttempting LessonState = "ATTEMPTING"
	LessonSucceeded  LessonState = "SUCCEEDED"
	LessonExhausted  LessonState = "EXHAUSTED"
)

// Terminal reports whether no further attempts can change the state.
func (s LessonState) Terminal() bool {
	return s == LessonSucceeded || s == LessonExhausted
}

// RegistrationAttempt records one try at registering a lesson.
type RegistrationAttempt struct {
	Index  int           `json:"indice"`
	Result AttemptResult `json:"resultado"`
	Error  string        `json:"erro,omitempty"`
}

// RegistrationOutcome is the final result for one lesson.
type RegistrationOutcome struct {
	Lesson        Lesson                `json:"aula"`
	Succeeded     bool                  `json:"sucesso"`
	Attempts      int                   `json:"tentativas"`
	State         LessonState           `json:"estado"`
	History       []RegistrationAttempt `json:"historico,omitempty"`
	SkillsMissing []string              `json:"habilidadesNaoEncontradas,omitempty"`
	Log           string                `json:"log"`
}

// LastError returns the cause recorded by the last failed attempt.
func (o RegistrationOutcome) LastError() string {
	for i := len(o.History) - 1; i >= 0; i-- {
		if o.History[i].Error != "" {
			return o.History[i].Error
		}
	}
	return ""
}

// Report aggregates the outcomes of one registration run.
type Report struct {
	Successes int                   `json:"sucesso"`
	Failures  int                   `json:"falhas"`
	Lines     []string              `json:"registros"`
	Message   string                `json:"mensagem"`
	Outcomes  []RegistrationOutcome `json:"aulas"`
}

// Total returns the number of lessons covered by the report.
func (r Report) Total() int {
	return r.Successes + r.Failures
}

// Text joins the log lines for plain-text clients.
func (r Report) Text() string {
	return strings.Join(r.Lines, "\n")
}
