package portal

import (
	"context"
	"errors"
	"net/url"
	"time"
)

var (
	// ErrTimeout is returned when a bounded wait expires.
	ErrTimeout = errors.New("tempo de espera esgotado")
	// ErrElementNotFound is returned when a selector matches nothing.
	ErrElementNotFound = errors.New("elemento não encontrado")
	// ErrSessionClosed means the browser session can no longer be used.
	ErrSessionClosed = errors.New("sessão do navegador encerrada")
)

// Page is the typed set of browser operations the portal flows are built on.
// Business logic stays outside the page; only selectors and plain values
// cross this boundary. Every call is bounded by ctx and, for waits, by the
// given timeout.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Exists(ctx context.Context, selector string) (bool, error)
	Count(ctx context.Context, selector string) (int, error)

	Click(ctx context.Context, selector string) error
	ClickText(ctx context.Context, selector, text string) error
	ClickAll(ctx context.Context, selector string) (int, error)
	Type(ctx context.Context, selector, text string) error
	Clear(ctx context.Context, selector string) error
	PressEnter(ctx context.Context, selector string) error
	Select(ctx context.Context, selector, value string) error
	Show(ctx context.Context, selector string) error

	Text(ctx context.Context, selector string) (string, error)
	Value(ctx context.Context, selector string) (string, error)
	Values(ctx context.Context, selector string) ([]string, error)
	HTML(ctx context.Context, selector string) (string, error)

	// Await arms a listener for the first network response whose URL starts
	// with urlPrefix, runs action and returns the response status.
	Await(ctx context.Context, urlPrefix string, timeout time.Duration, action func() error) (int, error)
	// WaitNavigation runs action and waits for the page to settle.
	WaitNavigation(ctx context.Context, timeout time.Duration, action func() error) error
	// PostForm submits a urlencoded form from inside the page, reusing its cookies.
	PostForm(ctx context.Context, url string, form url.Values) (int, string, error)

	Close() error
}

// Launcher starts a fresh browser and returns its only page.
type Launcher interface {
	NewPage(ctx context.Context) (Page, error)
}
