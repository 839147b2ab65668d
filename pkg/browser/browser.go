// Package browser wraps the underlying browser automation primitives
// behind a small Session interface so the execution engine and crawler
// never depend on the driver directly.
package browser

import (
	"context"
	"time"
)

// Cookie mirrors the fields persisted by the auth store and understood by
// the browser driver.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Session is one controlled browser page. All operations are fallible and
// blocking; interactive operations carry their own timeout where the step
// contract defines one. Implementations are not safe for concurrent use;
// concurrent callers must each own their own session.
type Session interface {
	Navigate(url string, timeout time.Duration) error
	Click(locator string, timeout time.Duration) error
	Fill(locator, value string) error
	SelectOption(locator, value string) error
	SetChecked(locator string, checked bool) error
	Hover(locator string) error
	Press(locator, key string) error
	WaitVisible(locator string, timeout time.Duration) error

	// IsVisible reports whether the locator resolves to a visible
	// element. A locator matching nothing is not an error.
	IsVisible(locator string) (bool, error)

	// Text returns the inner text of the first matching element. ok is
	// false when the locator matches nothing.
	Text(locator string) (text string, ok bool, err error)

	CurrentURL() (string, error)
	Title() (string, error)
	Screenshot(path string, fullPage bool) error

	SetCookies(cookies []Cookie) error
	Cookies() ([]Cookie, error)

	// Evaluate runs a JavaScript expression in the page and unmarshals
	// the result into out.
	Evaluate(js string, out any) error

	Close() error
}

// Factory creates a fresh session. The engine receives a factory rather
// than a session so a future concurrent mode can give each test case its
// own isolated session.
type Factory func(ctx context.Context) (Session, error)
