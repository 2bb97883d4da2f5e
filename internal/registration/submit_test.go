package registration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sed-diario-api/internal/models"
	"github.com/noah-isme/sed-diario-api/internal/portal"
	"github.com/noah-isme/sed-diario-api/internal/portal/portaltest"
	"github.com/noah-isme/sed-diario-api/pkg/config"
)

func TestUISubmitterRejectedStatus(t *testing.T) {
	page := portaltest.New()
	page.AwaitStatus = 500

	err := (&UISubmitter{SaveURL: testSaveURL}).Submit(context.Background(), page, models.Lesson{}, time.Time{})
	assert.ErrorIs(t, err, ErrSaveRejected)
	assert.Len(t, page.CallsOf("Click", portal.SelSaveButton), 1)
}

func TestUISubmitterHiddenButton(t *testing.T) {
	page := portaltest.New()
	page.Missing[portal.SelSaveButton] = true

	err := (&UISubmitter{SaveURL: testSaveURL}).Submit(context.Background(), page, models.Lesson{}, time.Time{})
	assert.ErrorIs(t, err, portal.ErrTimeout)
	assert.Empty(t, page.CallsOf("Await", ""))
}

func directPage() *portaltest.Page {
	page := portaltest.New()
	page.Fields[portal.SelCSRFToken] = "csrf-token"
	page.Fields[portal.SelDisciplineCode] = "1100"
	page.Fields[portal.SelClassCode] = "555"
	page.Fields[portal.SelLessonCode] = "0"
	page.Markup[portal.SelTimeSlotList] = `<ul><li><input id="chHorario" value="07:00-07:50"></li><li><input id="chHorario" value="07:50-08:40"></li></ul>`
	page.Markup[portal.SelSkillTable] = `<table><tbody>
		<tr><td><input type="checkbox" value="9001"></td><td>EF01</td></tr>
		<tr><td><input type="checkbox" value="9002"></td><td>EF02</td></tr>
	</tbody></table>`
	return page
}

func TestDirectSubmitterPostsForm(t *testing.T) {
	page := directPage()
	page.PostBody = `{"Sucesso":true}`
	lesson := models.Lesson{Subject: "MATEMATICA", Date: "10/03/2025", Description: "Frações", Skills: []string{"EF01", "EF99"}}
	date := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.Local)

	require.NoError(t, (&DirectSubmitter{SaveURL: testSaveURL}).Submit(context.Background(), page, lesson, date))
	require.Len(t, page.PostForms, 1)
	form := page.PostForms[0]
	assert.Equal(t, "csrf-token", form.Get("__RequestVerificationToken"))

	var payload directPayload
	require.NoError(t, json.Unmarshal([]byte(form.Get("str")), &payload))
	assert.Equal(t, directPayload{
		CodigoDisciplina: "1100",
		CodigoTurma:      "555",
		CodigoAula:       "0",
		DataAula:         "10/03/2025",
		Habilidades:      []directSkill{{Codigo: "EF01", Valor: "9001"}},
		Horarios:         []string{"07:00-07:50", "07:50-08:40"},
		BreveResumo:      "Frações",
	}, payload)
}

func TestDirectSubmitterPortalRefusal(t *testing.T) {
	page := directPage()
	page.PostBody = `{"Sucesso":false,"Mensagem":" Já existe aula registrada "}`

	err := (&DirectSubmitter{SaveURL: testSaveURL}).Submit(context.Background(), page, models.Lesson{}, time.Now())
	assert.ErrorIs(t, err, ErrSaveRejected)
	assert.Contains(t, err.Error(), "Já existe aula registrada")
}

func TestDirectSubmitterMissingToken(t *testing.T) {
	page := directPage()
	page.Fields[portal.SelCSRFToken] = ""

	err := (&DirectSubmitter{SaveURL: testSaveURL}).Submit(context.Background(), page, models.Lesson{}, time.Now())
	assert.ErrorIs(t, err, portal.ErrElementNotFound)
	assert.Empty(t, page.PostForms)
}

func TestNewSubmitter(t *testing.T) {
	assert.IsType(t, &UISubmitter{}, NewSubmitter(config.PortalConfig{SubmitStrategy: config.SubmitStrategyUI}, testSaveURL))
	assert.IsType(t, &DirectSubmitter{}, NewSubmitter(config.PortalConfig{SubmitStrategy: config.SubmitStrategyDirect}, testSaveURL))
}
