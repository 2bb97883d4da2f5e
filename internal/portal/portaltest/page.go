// Package portaltest provides a scripted in-memory portal.Page for tests.
package portaltest

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/sed-diario-api/internal/portal"
)

// Call records one operation issued against the page.
type Call struct {
	Op       string
	Selector string
	Arg      string
}

// Page is a fake portal.Page. Selectors exist unless listed in Missing.
// Errors is keyed by "op selector" and takes precedence over everything
// else except OnCall, which runs first and may mutate the page.
type Page struct {
	mu sync.Mutex

	Missing map[string]bool
	Counts  map[string]int
	Texts   map[string]string
	Lists   map[string][]string
	Markup  map[string]string
	Fields  map[string]string
	Errors  map[string]error

	AwaitStatus int
	PostStatus  int
	PostBody    string
	PostForms   []url.Values

	OnCall func(p *Page, c Call) error

	calls  []Call
	closed bool
}

// New returns an empty page where every selector exists.
func New() *Page {
	return &Page{
		Missing:     map[string]bool{},
		Counts:      map[string]int{},
		Texts:       map[string]string{},
		Lists:       map[string][]string{},
		Markup:      map[string]string{},
		Fields:      map[string]string{},
		Errors:      map[string]error{},
		AwaitStatus: 200,
		PostStatus:  200,
	}
}

// Calls returns a copy of the recorded calls.
func (p *Page) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

// CallsOf filters recorded calls by operation and, when non-empty, selector.
func (p *Page) CallsOf(op, selector string) []Call {
	var out []Call
	for _, c := range p.Calls() {
		if c.Op == op && (selector == "" || c.Selector == selector) {
			out = append(out, c)
		}
	}
	return out
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) do(ctx context.Context, op, selector, arg string, needsElement bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	c := Call{Op: op, Selector: selector, Arg: arg}
	p.calls = append(p.calls, c)
	closed := p.closed
	hook := p.OnCall
	p.mu.Unlock()

	if closed {
		return portal.ErrSessionClosed
	}
	if hook != nil {
		if err := hook(p, c); err != nil {
			return err
		}
	}
	if err, ok := p.Errors[op+" "+selector]; ok && err != nil {
		return err
	}
	if needsElement && p.Missing[selector] {
		if op == "WaitFor" || op == "WaitVisible" {
			return portal.ErrTimeout
		}
		return portal.ErrElementNotFound
	}
	return nil
}

func (p *Page) Navigate(ctx context.Context, target string) error {
	return p.do(ctx, "Navigate", target, "", false)
}

func (p *Page) WaitFor(ctx context.Context, selector string, _ time.Duration) error {
	return p.do(ctx, "WaitFor", selector, "", true)
}

func (p *Page) WaitVisible(ctx context.Context, selector string, _ time.Duration) error {
	return p.do(ctx, "WaitVisible", selector, "", true)
}

func (p *Page) Exists(ctx context.Context, selector string) (bool, error) {
	if err := p.do(ctx, "Exists", selector, "", false); err != nil {
		return false, err
	}
	return !p.Missing[selector], nil
}

func (p *Page) Count(ctx context.Context, selector string) (int, error) {
	if err := p.do(ctx, "Count", selector, "", false); err != nil {
		return 0, err
	}
	return p.Counts[selector], nil
}

func (p *Page) Click(ctx context.Context, selector string) error {
	return p.do(ctx, "Click", selector, "", true)
}

func (p *Page) ClickText(ctx context.Context, selector, text string) error {
	return p.do(ctx, "ClickText", selector, text, true)
}

func (p *Page) ClickAll(ctx context.Context, selector string) (int, error) {
	if err := p.do(ctx, "ClickAll", selector, "", false); err != nil {
		return 0, err
	}
	if n, ok := p.Counts[selector]; ok {
		return n, nil
	}
	if p.Missing[selector] {
		return 0, nil
	}
	return 1, nil
}

func (p *Page) Type(ctx context.Context, selector, text string) error {
	if err := p.do(ctx, "Type", selector, text, true); err != nil {
		return err
	}
	p.Fields[selector] += text
	return nil
}

func (p *Page) Clear(ctx context.Context, selector string) error {
	if err := p.do(ctx, "Clear", selector, "", true); err != nil {
		return err
	}
	p.Fields[selector] = ""
	return nil
}

func (p *Page) PressEnter(ctx context.Context, selector string) error {
	return p.do(ctx, "PressEnter", selector, "", true)
}

func (p *Page) Select(ctx context.Context, selector, value string) error {
	if err := p.do(ctx, "Select", selector, value, true); err != nil {
		return err
	}
	p.Fields[selector] = value
	return nil
}

func (p *Page) Show(ctx context.Context, selector string) error {
	return p.do(ctx, "Show", selector, "", true)
}

func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	if err := p.do(ctx, "Text", selector, "", true); err != nil {
		return "", err
	}
	return p.Texts[selector], nil
}

func (p *Page) Value(ctx context.Context, selector string) (string, error) {
	if err := p.do(ctx, "Value", selector, "", true); err != nil {
		return "", err
	}
	return p.Fields[selector], nil
}

func (p *Page) Values(ctx context.Context, selector string) ([]string, error) {
	if err := p.do(ctx, "Values", selector, "", false); err != nil {
		return nil, err
	}
	return append([]string(nil), p.Lists[selector]...), nil
}

func (p *Page) HTML(ctx context.Context, selector string) (string, error) {
	if err := p.do(ctx, "HTML", selector, "", true); err != nil {
		return "", err
	}
	return p.Markup[selector], nil
}

func (p *Page) Await(ctx context.Context, urlPrefix string, _ time.Duration, action func() error) (int, error) {
	if err := p.do(ctx, "Await", urlPrefix, "", false); err != nil {
		return 0, err
	}
	if err := action(); err != nil {
		return 0, err
	}
	return p.AwaitStatus, nil
}

func (p *Page) WaitNavigation(ctx context.Context, _ time.Duration, action func() error) error {
	if err := p.do(ctx, "WaitNavigation", "", "", false); err != nil {
		return err
	}
	return action()
}

func (p *Page) PostForm(ctx context.Context, target string, form url.Values) (int, string, error) {
	if err := p.do(ctx, "PostForm", target, form.Encode(), false); err != nil {
		return 0, "", err
	}
	p.mu.Lock()
	p.PostForms = append(p.PostForms, form)
	p.mu.Unlock()
	return p.PostStatus, p.PostBody, nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Op: "Close"})
	p.closed = true
	return nil
}

// Launcher hands out pre-built pages in order.
type Launcher struct {
	mu    sync.Mutex
	Pages []*Page
	Err   error
}

// NewPage returns the next scripted page.
func (l *Launcher) NewPage(ctx context.Context) (portal.Page, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	if len(l.Pages) == 0 {
		return New(), nil
	}
	page := l.Pages[0]
	l.Pages = l.Pages[1:]
	return page, nil
}

// CalendarHTML renders a jQuery UI date picker month. Day classes may be
// given per day number.
func CalendarHTML(month time.Month, year int, dayClasses map[int]string) string {
	monthNames := []string{"", "Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
		"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro"}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()

	html := `<div class="ui-datepicker-header"><a title="Anterior">Ant</a><a title="Próximo">Prox</a>` +
		`<div class="ui-datepicker-title"><span class="ui-datepicker-month">` + monthNames[month] +
		`</span>&nbsp;<span class="ui-datepicker-year">` + strconv.Itoa(year) + `</span></div></div>` +
		`<table class="ui-datepicker-calendar"><tbody><tr>` +
		`<td class="ui-datepicker-other-month"><a class="ui-state-default">31</a></td>`
	for d := 1; d <= days; d++ {
		class := dayClasses[d]
		wd := time.Date(year, month, d, 0, 0, 0, 0, time.UTC).Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			class += " ui-datepicker-week-end"
		}
		inner := `<a class="ui-state-default" href="#">` + strconv.Itoa(d) + `</a>`
		if containsDisabled(class) {
			inner = `<span class="ui-state-default">` + strconv.Itoa(d) + `</span>`
		}
		html += `<td class="` + class + `">` + inner + `</td>`
	}
	return html + `</tr></tbody></table>`
}

func containsDisabled(class string) bool {
	return strings.Contains(class, "ui-state-disabled") || strings.Contains(class, "ui-datepicker-unselectable")
}
