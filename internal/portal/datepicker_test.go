package portal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sed-diario-api/internal/portal"
	"github.com/noah-isme/sed-diario-api/internal/portal/portaltest"
)

func TestParseCalendarMonth(t *testing.T) {
	html := portaltest.CalendarHTML(time.March, 2025, nil)
	month, err := portal.ParseCalendarMonth(html)
	require.NoError(t, err)
	assert.Equal(t, portal.CalendarMonth{Month: time.March, Year: 2025}, month)
}

func TestParseCalendarMonthFromDataAttributes(t *testing.T) {
	html := `<table><tbody><tr><td data-month="9" data-year="2024"><a>1</a></td></tr></tbody></table>`
	month, err := portal.ParseCalendarMonth(html)
	require.NoError(t, err)
	assert.Equal(t, time.October, month.Month)
	assert.Equal(t, 2024, month.Year)
}

func TestClassifyDay(t *testing.T) {
	html := portaltest.CalendarHTML(time.March, 2025, map[int]string{
		3:  "datepicker-nao-letivo-color",
		4:  "ui-datepicker-unselectable ui-state-disabled",
		11: "dia-verde",
	})

	cases := map[int]portal.DayStatus{
		10: portal.DayAvailable,
		8:  portal.DayWeekend,
		3:  portal.DayNonInstructional,
		4:  portal.DayDisabled,
		11: portal.DayAlreadyRegistered,
		32: portal.DayNotFound,
	}
	for day, want := range cases {
		assert.Equal(t, want, portal.ClassifyDay(html, day), "day %d", day)
	}
}

func TestDatePickerNavigatesBackToTargetMonth(t *testing.T) {
	page := portaltest.New()
	picker := portal.DatePicker{Container: ".datepicker"}
	months := []string{
		portaltest.CalendarHTML(time.May, 2025, nil),
		portaltest.CalendarHTML(time.April, 2025, nil),
		portaltest.CalendarHTML(time.March, 2025, nil),
	}
	page.Markup[".datepicker"] = months[0]
	shown := 0
	page.OnCall = func(p *portaltest.Page, c portaltest.Call) error {
		if c.Op == "Click" && c.Selector == `.datepicker a[title="Anterior"]` {
			shown++
			p.Markup[".datepicker"] = months[shown]
		}
		return nil
	}

	date := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.Local)
	require.NoError(t, picker.Pick(context.Background(), page, date))

	assert.Len(t, page.CallsOf("Click", `.datepicker a[title="Anterior"]`), 2)
	clicks := page.CallsOf("ClickText", picker.DaySelector())
	require.Len(t, clicks, 1)
	assert.Equal(t, "10", clicks[0].Arg)
}

func TestDatePickerRejectsStructuralDays(t *testing.T) {
	page := portaltest.New()
	page.Markup[".datepicker"] = portaltest.CalendarHTML(time.March, 2025, map[int]string{11: "dia-verde"})
	picker := portal.DatePicker{Container: ".datepicker"}

	err := picker.Pick(context.Background(), page, time.Date(2025, time.March, 11, 0, 0, 0, 0, time.Local))
	var rejected *portal.DateRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, portal.DayAlreadyRegistered, rejected.Status)
	assert.Equal(t, "data 11/03/2025 já possui registro de aula", err.Error())
	assert.Empty(t, page.CallsOf("ClickText", ""))
}

func TestDatePickerMissingDayIsRetryable(t *testing.T) {
	page := portaltest.New()
	page.Markup[".datepicker"] = `<div><span class="ui-datepicker-month">Março</span><span class="ui-datepicker-year">2025</span></div>`
	picker := portal.DatePicker{Container: ".datepicker"}

	err := picker.Locate(context.Background(), page, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.Local))
	assert.ErrorIs(t, err, portal.ErrDayNotFound)
	assert.False(t, portal.IsDateRejected(err))
}

func TestParseDate(t *testing.T) {
	d, err := portal.ParseDate("10/03/2025")
	require.NoError(t, err)
	assert.Equal(t, 10, d.Day())

	_, err = portal.ParseDate("2025-03-10")
	assert.Error(t, err)
}

func TestColumn(t *testing.T) {
	html := `<table id="tabelaDados"><tbody>
		<tr><td>1</td><td>x</td><td> 5º ANO A </td></tr>
		<tr><td>2</td><td>y</td><td>5º ANO B</td></tr>
	</tbody></table>`
	values, err := portal.Column(html, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"5º ANO A", "5º ANO B"}, values)

	empty, err := portal.Column(`<table><tbody><tr><td class="dataTables_empty" colspan="3">Nenhum</td></tr></tbody></table>`, 1)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRowInputs(t *testing.T) {
	html := `<table><tbody>
	<tr><td><input type="checkbox" value="101"></td><td> EF01 </td></tr>
	<tr><td><input type="checkbox" value="102"></td><td>EF02</td></tr>
	<tr><td class="dataTables_empty">vazio</td></tr>
	</tbody></table>`
	values, err := portal.RowInputs(html, 2)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"EF01": "101", "EF02": "102"}, values)
}
