package portal

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DateLayout is the portal's date format (dd/MM/yyyy).
const DateLayout = "02/01/2006"

const maxMonthSteps = 24

// ErrDayNotFound means the requested day is not rendered in the date picker.
// It usually reflects a render race and is worth retrying.
var ErrDayNotFound = errors.New("data não encontrada no calendário")

// DayStatus classifies a day cell of the jQuery UI date picker.
type DayStatus string

const (
	DayAvailable         DayStatus = "available"
	DayWeekend           DayStatus = "weekend"
	DayNonInstructional  DayStatus = "non-instructional"
	DayDisabled          DayStatus = "disabled"
	DayAlreadyRegistered DayStatus = "already-registered"
	DayNotFound          DayStatus = "not-found"
)

// DateRejectedError reports a day the portal will never accept. Retrying
// does not change the outcome.
type DateRejectedError struct {
	Date   string
	Status DayStatus
}

func (e *DateRejectedError) Error() string {
	switch e.Status {
	case DayWeekend:
		return "data " + e.Date + " é um final de semana"
	case DayNonInstructional:
		return "data " + e.Date + " é um dia não letivo"
	case DayAlreadyRegistered:
		return "data " + e.Date + " já possui registro de aula"
	case DayDisabled:
		return "data " + e.Date + " está desabilitada"
	default:
		return "data " + e.Date + " inválida"
	}
}

// IsDateRejected reports whether err carries a DateRejectedError.
func IsDateRejected(err error) bool {
	var rejected *DateRejectedError
	return errors.As(err, &rejected)
}

// CalendarMonth is the month currently displayed by the picker.
type CalendarMonth struct {
	Month time.Month
	Year  int
}

func (m CalendarMonth) stepsTo(t time.Time) int {
	return (t.Year()-m.Year)*12 + int(t.Month()) - int(m.Month)
}

var monthPrefixes = map[string]time.Month{
	"jan": time.January, "fev": time.February, "mar": time.March,
	"abr": time.April, "mai": time.May, "jun": time.June,
	"jul": time.July, "ago": time.August, "set": time.September,
	"out": time.October, "nov": time.November, "dez": time.December,
}

var accentFolder = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e", "í", "i",
	"ó", "o", "ô", "o", "õ", "o", "ú", "u", "ç", "c",
)

// Fold lowercases s and strips Portuguese diacritics.
func Fold(s string) string {
	return accentFolder.Replace(strings.ToLower(strings.TrimSpace(s)))
}

func parseMonthName(name string) (time.Month, bool) {
	folded := Fold(name)
	if len(folded) < 3 {
		return 0, false
	}
	m, ok := monthPrefixes[folded[:3]]
	return m, ok
}

func headerText(s *goquery.Selection) string {
	if s.Is("select") {
		return s.Find("option[selected]").First().Text()
	}
	return s.First().Text()
}

// ParseCalendarMonth reads the displayed month from the picker HTML.
func ParseCalendarMonth(html string) (CalendarMonth, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return CalendarMonth{}, fmt.Errorf("ler calendário: %w", err)
	}

	monthText := headerText(doc.Find(".ui-datepicker-month").First())
	yearText := strings.TrimSpace(headerText(doc.Find(".ui-datepicker-year").First()))
	if month, ok := parseMonthName(monthText); ok {
		if year, err := strconv.Atoi(yearText); err == nil {
			return CalendarMonth{Month: month, Year: year}, nil
		}
	}

	// Pickers without a title still tag selectable cells with the month.
	cell := doc.Find("td[data-month][data-year]").First()
	if cell.Length() > 0 {
		month, errM := strconv.Atoi(cell.AttrOr("data-month", ""))
		year, errY := strconv.Atoi(cell.AttrOr("data-year", ""))
		if errM == nil && errY == nil {
			return CalendarMonth{Month: time.Month(month + 1), Year: year}, nil
		}
	}
	return CalendarMonth{}, fmt.Errorf("mês exibido no calendário não reconhecido: %q %q", monthText, yearText)
}

// ClassifyDay inspects the cell for day in the displayed month.
func ClassifyDay(html string, day int) DayStatus {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return DayNotFound
	}
	want := strconv.Itoa(day)
	var cell *goquery.Selection
	doc.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		if td.HasClass("ui-datepicker-other-month") {
			return true
		}
		if strings.TrimSpace(td.Find("a, span").First().Text()) == want {
			cell = td
			return false
		}
		return true
	})
	if cell == nil {
		return DayNotFound
	}

	switch {
	case cell.HasClass("ui-datepicker-week-end"):
		return DayWeekend
	case cell.HasClass("datepicker-nao-letivo-color"):
		return DayNonInstructional
	case cell.HasClass("ui-state-disabled"), cell.HasClass("ui-datepicker-unselectable"):
		return DayDisabled
	case cell.HasClass("dia-verde"), cell.Find(".dia-verde").Length() > 0:
		return DayAlreadyRegistered
	case cell.Find("a").Length() == 0:
		return DayDisabled
	default:
		return DayAvailable
	}
}

// DatePicker drives a jQuery UI date picker rendered inside Container.
type DatePicker struct {
	Container string
}

// DaySelector matches the clickable day links of the displayed month.
func (d DatePicker) DaySelector() string {
	return d.Container + " td:not(.ui-datepicker-other-month) a"
}

// Locate shows the picker, moves it to the month of date and checks the day
// can be selected. Structural rejections are returned as *DateRejectedError.
func (d DatePicker) Locate(ctx context.Context, page Page, date time.Time) error {
	if err := page.Show(ctx, d.Container); err != nil {
		return fmt.Errorf("abrir calendário: %w", err)
	}

	var html string
	for step := 0; ; step++ {
		var err error
		html, err = page.HTML(ctx, d.Container)
		if err != nil {
			return fmt.Errorf("ler calendário: %w", err)
		}
		shown, err := ParseCalendarMonth(html)
		if err != nil {
			return err
		}
		diff := shown.stepsTo(date)
		if diff == 0 {
			break
		}
		if step >= maxMonthSteps {
			return fmt.Errorf("%w: %s fora do alcance do calendário", ErrDayNotFound, date.Format(DateLayout))
		}
		nav := SelPickerNext
		if diff < 0 {
			nav = SelPickerPrev
		}
		if err := page.Click(ctx, d.Container+" "+nav); err != nil {
			return fmt.Errorf("trocar mês do calendário: %w", err)
		}
	}

	switch status := ClassifyDay(html, date.Day()); status {
	case DayAvailable:
		return nil
	case DayNotFound:
		return fmt.Errorf("%w: %s", ErrDayNotFound, date.Format(DateLayout))
	default:
		return &DateRejectedError{Date: date.Format(DateLayout), Status: status}
	}
}

// Pick locates date and clicks its cell.
func (d DatePicker) Pick(ctx context.Context, page Page, date time.Time) error {
	if err := d.Locate(ctx, page, date); err != nil {
		return err
	}
	if err := page.ClickText(ctx, d.DaySelector(), strconv.Itoa(date.Day())); err != nil {
		return fmt.Errorf("selecionar data %s: %w", date.Format(DateLayout), err)
	}
	return nil
}

// ParseDate parses a dd/MM/yyyy date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("data inválida %q: use dd/MM/aaaa", value)
	}
	return t, nil
}
