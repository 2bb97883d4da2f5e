package portal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const (
	jsClick = `() => this.click()`
	jsShow  = `() => { this.style.display = 'block'; this.style.zIndex = '9999' }`
	jsPost  = `(url, body) => fetch(url, {
		method: 'POST',
		credentials: 'same-origin',
		headers: {
			'Content-Type': 'application/x-www-form-urlencoded; charset=UTF-8',
			'X-Requested-With': 'XMLHttpRequest'
		},
		body: body
	}).then(async (r) => ({ status: r.status, body: await r.text() }))`
)

type rodPage struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher

	elementTimeout    time.Duration
	navigationTimeout time.Duration

	closeOnce sync.Once
	closed    atomic.Bool
}

func (r *rodPage) scoped(ctx context.Context, timeout time.Duration) (*rod.Page, context.CancelFunc) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	return r.page.Context(tctx), cancel
}

func (r *rodPage) element(ctx context.Context, selector string) (*rod.Element, context.CancelFunc, error) {
	p, cancel := r.scoped(ctx, r.elementTimeout)
	el, err := p.Element(selector)
	if err != nil {
		cancel()
		return nil, nil, r.fail(ctx, "localizar", selector, err)
	}
	return el, cancel, nil
}

func (r *rodPage) Navigate(ctx context.Context, target string) error {
	p, cancel := r.scoped(ctx, r.navigationTimeout)
	defer cancel()

	wait := p.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := p.Navigate(target); err != nil {
		return r.fail(ctx, "navegar", target, err)
	}
	wait()
	if err := p.GetContext().Err(); err != nil {
		return r.fail(ctx, "navegar", target, err)
	}
	return nil
}

func (r *rodPage) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	p, cancel := r.scoped(ctx, timeout)
	defer cancel()
	if _, err := p.Element(selector); err != nil {
		return r.fail(ctx, "aguardar", selector, err)
	}
	return nil
}

func (r *rodPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	p, cancel := r.scoped(ctx, timeout)
	defer cancel()
	el, err := p.Element(selector)
	if err == nil {
		err = el.WaitVisible()
	}
	if err != nil {
		return r.fail(ctx, "aguardar visível", selector, err)
	}
	return nil
}

func (r *rodPage) Exists(ctx context.Context, selector string) (bool, error) {
	p, cancel := r.scoped(ctx, r.elementTimeout)
	defer cancel()
	has, _, err := p.Has(selector)
	if err != nil {
		return false, r.fail(ctx, "verificar", selector, err)
	}
	return has, nil
}

func (r *rodPage) Count(ctx context.Context, selector string) (int, error) {
	p, cancel := r.scoped(ctx, r.elementTimeout)
	defer cancel()
	els, err := p.Elements(selector)
	if err != nil {
		return 0, r.fail(ctx, "contar", selector, err)
	}
	return len(els), nil
}

func (r *rodPage) Click(ctx context.Context, selector string) error {
	el, cancel, err := r.element(ctx, selector)
	if err != nil {
		return err
	}
	defer cancel()
	if _, err := el.Eval(jsClick); err != nil {
		return r.fail(ctx, "clicar", selector, err)
	}
	return nil
}

func (r *rodPage) ClickText(ctx context.Context, selector, text string) error {
	p, cancel := r.scoped(ctx, r.elementTimeout)
	defer cancel()
	el, err := p.ElementR(selector, `^\s*`+regexp.QuoteMeta(text)+`\s*$`)
	if err == nil {
		_, err = el.Eval(jsClick)
	}
	if err != nil {
		return r.fail(ctx, "clicar", selector+" "+text, err)
	}
	return nil
}

func (r *rodPage) ClickAll(ctx context.Context, selector string) (int, error) {
	p, cancel := r.scoped(ctx, r.elementTimeout)
	defer cancel()
	els, err := p.Elements(selector)
	if err != nil {
		return 0, r.fail(ctx, "clicar", selector, err)
	}
	for _, el := range els {
		if _, err := el.Eval(jsClick); err != nil {
			return 0, r.fail(ctx, "clicar", selector, err)
		}
	}
	return len(els), nil
}

func (r *rodPage) Type(ctx context.Context, selector, text string) error {
	el, cancel, err := r.element(ctx, selector)
	if err != nil {
		return err
	}
	defer cancel()
	if err := el.Input(text); err != nil {
		return r.fail(ctx, "digitar em", selector, err)
	}
	return nil
}

func (r *rodPage) Clear(ctx context.Context, selector string) error {
	el, cancel, err := r.element(ctx, selector)
	if err != nil {
		return err
	}
	defer cancel()
	if err := el.SelectAllText(); err != nil {
		return r.fail(ctx, "limpar", selector, err)
	}
	if err := el.Input(""); err != nil {
		return r.fail(ctx, "limpar", selector, err)
	}
	return nil
}

func (r *rodPage) PressEnter(ctx context.Context, selector string) error {
	el, cancel, err := r.element(ctx, selector)
	if err != nil {
		return err
	}
	defer cancel()
	if err := el.Focus(); err != nil {
		return r.fail(ctx, "focar", selector, err)
	}
	if err := el.Type(input.Enter); err != nil {
		return r.fail(ctx, "pressionar Enter em", selector, err)
	}
	return nil
}

func (r *rodPage) Select(ctx context.Context, selector, value string) error {
	el, cancel, err := r.element(ctx, selector)
	if err != nil {
		return err
	}
	defer cancel()
	option := fmt.Sprintf(`option[value=%q]`, value)
	if err := el.Select([]string{option}, true, rod.SelectorTypeCSSSector); err != nil {
		return r.fail(ctx, "selecionar "+value+" em", selector, err)
	}
	return nil
}

func (r *rodPage) Show(ctx context.Context, selector string) error {
	el, cancel, err := r.element(ctx, selector)
	if err != nil {
		return err
	}
	defer cancel()
	if _, err := el.Eval(jsShow); err != nil {
		return r.fail(ctx, "exibir", selector, err)
	}
	return nil
}

func (r *rodPage) Text(ctx context.Context, selector string) (string, error) {
	el, cancel, err := r.element(ctx, selector)
	if err != nil {
		return "", err
	}
	defer cancel()
	text, err := el.Text()
	if err != nil {
		return "", r.fail(ctx, "ler texto de", selector, err)
	}
	return strings.TrimSpace(text), nil
}

func (r *rodPage) Value(ctx context.Context, selector string) (string, error) {
	el, cancel, err := r.element(ctx, selector)
	if err != nil {
		return "", err
	}
	defer cancel()
	value, err := el.Property("value")
	if err != nil {
		return "", r.fail(ctx, "ler valor de", selector, err)
	}
	return value.Str(), nil
}

func (r *rodPage) Values(ctx context.Context, selector string) ([]string, error) {
	p, cancel := r.scoped(ctx, r.elementTimeout)
	defer cancel()
	els, err := p.Elements(selector)
	if err != nil {
		return nil, r.fail(ctx, "ler", selector, err)
	}
	values := make([]string, 0, len(els))
	for _, el := range els {
		text, err := el.Text()
		if err != nil {
			return nil, r.fail(ctx, "ler", selector, err)
		}
		values = append(values, strings.TrimSpace(text))
	}
	return values, nil
}

func (r *rodPage) HTML(ctx context.Context, selector string) (string, error) {
	el, cancel, err := r.element(ctx, selector)
	if err != nil {
		return "", err
	}
	defer cancel()
	html, err := el.HTML()
	if err != nil {
		return "", r.fail(ctx, "ler HTML de", selector, err)
	}
	return html, nil
}

func (r *rodPage) Await(ctx context.Context, urlPrefix string, timeout time.Duration, action func() error) (int, error) {
	p, cancel := r.scoped(ctx, timeout)
	defer cancel()

	if err := (proto.NetworkEnable{}).Call(p); err != nil {
		return 0, r.fail(ctx, "monitorar rede para", urlPrefix, err)
	}
	status := 0
	wait := p.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if strings.HasPrefix(e.Response.URL, urlPrefix) {
			status = e.Response.Status
			return true
		}
		return false
	})
	if err := action(); err != nil {
		return 0, err
	}
	wait()
	if status == 0 {
		return 0, r.fail(ctx, "aguardar resposta de", urlPrefix, p.GetContext().Err())
	}
	return status, nil
}

func (r *rodPage) WaitNavigation(ctx context.Context, timeout time.Duration, action func() error) error {
	p, cancel := r.scoped(ctx, timeout)
	defer cancel()

	wait := p.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := action(); err != nil {
		return err
	}
	wait()
	if err := p.GetContext().Err(); err != nil {
		return r.fail(ctx, "aguardar navegação", "", err)
	}
	return nil
}

func (r *rodPage) PostForm(ctx context.Context, target string, form url.Values) (int, string, error) {
	p, cancel := r.scoped(ctx, r.navigationTimeout)
	defer cancel()
	res, err := p.Eval(jsPost, target, form.Encode())
	if err != nil {
		return 0, "", r.fail(ctx, "enviar formulário para", target, err)
	}
	return res.Value.Get("status").Int(), res.Value.Get("body").Str(), nil
}

func (r *rodPage) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		err = r.browser.Close()
		r.launcher.Cleanup()
	})
	return err
}

func (r *rodPage) alive() bool {
	if r.closed.Load() {
		return false
	}
	_, err := proto.BrowserGetVersion{}.Call(r.browser)
	return err == nil
}

// fail maps rod errors onto the package sentinels. The parent ctx wins over
// the per-operation deadline so cancellation is never reported as a timeout.
func (r *rodPage) fail(ctx context.Context, op, target string, err error) error {
	where := strings.TrimSpace(op + " " + target)
	switch {
	case err == nil:
		return fmt.Errorf("%s: %w", where, ErrTimeout)
	case ctx.Err() != nil:
		return fmt.Errorf("%s: %w", where, ctx.Err())
	case r.closed.Load():
		return fmt.Errorf("%s: %w", where, ErrSessionClosed)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", where, ErrTimeout)
	case errors.Is(err, &rod.ElementNotFoundError{}):
		return fmt.Errorf("%s: %w", where, ErrElementNotFound)
	case !r.alive():
		return fmt.Errorf("%s: %w: %v", where, ErrSessionClosed, err)
	default:
		return fmt.Errorf("%s: %w", where, err)
	}
}
