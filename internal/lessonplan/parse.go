package lessonplan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/internal/portal"
)

// ErrInvalidAnalysis is returned when the model output is not a lesson array.
var ErrInvalidAnalysis = errors.New("resposta do serviço de análise não é uma lista de aulas válida")

var dateLayouts = []string{portal.DateLayout, "2/1/2006", "2006-01-02", "02-01-2006", "02/01/06"}

type rawLesson struct {
	Day         string          `json:"Dia"`
	Subject     string          `json:"Matéria"`
	Description string          `json:"Descrição da Aula"`
	Skills      json.RawMessage `json:"Habilidades"`
	AltDay      string          `json:"dia"`
	AltSubject  string          `json:"materia"`
	AltDescr    string          `json:"descricao"`
	AltSkills   json.RawMessage `json:"habilidades"`
}

// ParseLessons turns the analysis text into lessons, preserving order.
func ParseLessons(text string) ([]models.Lesson, error) {
	body := stripCodeFence(strings.TrimSpace(text))
	if body == "" {
		return nil, ErrEmptyAnalysis
	}

	var raws []rawLesson
	if err := json.Unmarshal([]byte(body), &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnalysis, err)
	}

	lessons := make([]models.Lesson, 0, len(raws))
	for i, raw := range raws {
		lesson := models.Lesson{
			Subject:     strings.TrimSpace(firstNonEmpty(raw.Subject, raw.AltSubject)),
			Date:        normalizeDate(firstNonEmpty(raw.Day, raw.AltDay)),
			Description: strings.TrimSpace(firstNonEmpty(raw.Description, raw.AltDescr)),
		}
		skillsRaw := raw.Skills
		if len(skillsRaw) == 0 {
			skillsRaw = raw.AltSkills
		}
		skills, err := parseSkills(skillsRaw)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidAnalysis, i+1, err)
		}
		lesson.Skills = skills

		if lesson.Subject == "" || lesson.Date == "" {
			return nil, fmt.Errorf("%w: item %d sem matéria ou dia", ErrInvalidAnalysis, i+1)
		}
		if excluded(lesson.Subject) {
			continue
		}
		lessons = append(lessons, lesson)
	}
	return lessons, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

func parseSkills(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, errors.New("habilidades devem ser texto ou lista de textos")
		}
		list = strings.FieldsFunc(single, func(r rune) bool { return r == ',' || r == ';' || r == '\n' })
	}

	seen := make(map[string]struct{}, len(list))
	skills := make([]string, 0, len(list))
	for _, code := range list {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		skills = append(skills, code)
	}
	return skills, nil
}

// normalizeDate rewrites recognised dates as dd/MM/yyyy. Unrecognised values
// are kept so the registration attempt reports them.
func normalizeDate(value string) string {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(portal.DateLayout)
		}
	}
	return value
}

func excluded(subject string) bool {
	folded := portal.Fold(subject)
	for _, name := range excludedSubjects {
		if folded == name {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
