package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/internal/portal"
	"github.com/noah-isme/sed-diario-api/pkg/config"
)

// ErrSaveRejected is returned when the portal answers the save with an error.
var ErrSaveRejected = errors.New("portal recusou o registro da aula")

// UISubmitter clicks the save button and waits for the save response.
type UISubmitter struct {
	SaveURL        string
	ElementTimeout time.Duration
	SaveTimeout    time.Duration
}

func (s *UISubmitter) Submit(ctx context.Context, page portal.Page, lesson models.Lesson, _ time.Time) error {
	if err := page.WaitVisible(ctx, portal.SelSaveButton, s.ElementTimeout); err != nil {
		return fmt.Errorf("botão salvar indisponível: %w", err)
	}
	status, err := page.Await(ctx, s.SaveURL, s.SaveTimeout, func() error {
		return page.Click(ctx, portal.SelSaveButton)
	})
	if err != nil {
		return fmt.Errorf("erro ao salvar aula: %w", err)
	}
	if status >= 400 {
		return fmt.Errorf("%w: status %d", ErrSaveRejected, status)
	}
	return nil
}

type directSkill struct {
	Codigo string `json:"Codigo"`
	Valor  string `json:"Valor"`
}

type directPayload struct {
	CodigoDisciplina string        `json:"CodigoDisciplina"`
	CodigoTurma      string        `json:"CodigoTurma"`
	CodigoAula       string        `json:"CodigoAula"`
	DataAula         string        `json:"DataAula"`
	Habilidades      []directSkill `json:"Habilidades"`
	Horarios         []string      `json:"Horarios"`
	BreveResumo      string        `json:"BreveResumo"`
}

type directReply struct {
	Sucesso  *bool  `json:"Sucesso"`
	Mensagem string `json:"Mensagem"`
}

// DirectSubmitter posts the form contents to the save endpoint from inside
// the page, with the page's anti-forgery token.
type DirectSubmitter struct {
	SaveURL string
}

func (s *DirectSubmitter) Submit(ctx context.Context, page portal.Page, lesson models.Lesson, date time.Time) error {
	token, err := page.Value(ctx, portal.SelCSRFToken)
	if err != nil || token == "" {
		return fmt.Errorf("token de verificação ausente: %w", errOr(err, portal.ErrElementNotFound))
	}
	codes := make(map[string]string, 3)
	for _, sel := range []string{portal.SelDisciplineCode, portal.SelClassCode, portal.SelLessonCode} {
		v, err := page.Value(ctx, sel)
		if err != nil {
			return fmt.Errorf("erro ao ler %s: %w", sel, err)
		}
		codes[sel] = v
	}

	slotsHTML, err := page.HTML(ctx, portal.SelTimeSlotList)
	if err != nil {
		return fmt.Errorf("erro ao ler horários: %w", err)
	}
	slots, err := portal.InputValues(slotsHTML, portal.SelTimeSlot)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		return ErrNoTimeSlots
	}

	tableHTML, err := page.HTML(ctx, portal.SelSkillTable)
	if err != nil {
		return fmt.Errorf("erro ao ler habilidades: %w", err)
	}
	rows, err := portal.RowInputs(tableHTML, 2)
	if err != nil {
		return err
	}
	skills := make([]directSkill, 0, len(lesson.Skills))
	for _, code := range lesson.Skills {
		if value, ok := rows[code]; ok {
			skills = append(skills, directSkill{Codigo: code, Valor: value})
		}
	}

	payload, err := json.Marshal(directPayload{
		CodigoDisciplina: codes[portal.SelDisciplineCode],
		CodigoTurma:      codes[portal.SelClassCode],
		CodigoAula:       codes[portal.SelLessonCode],
		DataAula:         date.Format(portal.DateLayout),
		Habilidades:      skills,
		Horarios:         slots,
		BreveResumo:      lesson.Description,
	})
	if err != nil {
		return fmt.Errorf("marshal save payload: %w", err)
	}

	form := url.Values{}
	form.Set("__RequestVerificationToken", token)
	form.Set("str", string(payload))
	status, body, err := page.PostForm(ctx, s.SaveURL, form)
	if err != nil {
		return fmt.Errorf("erro ao salvar aula: %w", err)
	}
	if status >= 400 {
		return fmt.Errorf("%w: status %d", ErrSaveRejected, status)
	}
	var reply directReply
	if json.Unmarshal([]byte(body), &reply) == nil && reply.Sucesso != nil && !*reply.Sucesso {
		return fmt.Errorf("%w: %s", ErrSaveRejected, strings.TrimSpace(reply.Mensagem))
	}
	return nil
}

// NewSubmitter picks the submission strategy configured for the portal.
func NewSubmitter(cfg config.PortalConfig, saveURL string) Submitter {
	if cfg.SubmitStrategy == config.SubmitStrategyDirect {
		return &DirectSubmitter{SaveURL: saveURL}
	}
	return &UISubmitter{SaveURL: saveURL, ElementTimeout: cfg.ElementTimeout, SaveTimeout: cfg.SaveTimeout}
}

func errOr(err, fallback error) error {
	if err != nil {
		return err
	}
	return fallback
}
