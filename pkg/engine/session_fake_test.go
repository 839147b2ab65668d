package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/qa-sync/qasync/pkg/browser"
)

// fakeSession is a scriptable Session for engine and interpreter tests.
// Locators listed in failOn make their action fail; fault, when set, is
// returned by every action to simulate a dead session.
type fakeSession struct {
	failOn map[string]bool
	fault  error

	// screenshotOK lets Screenshot keep working when fault is set, like
	// a page that still renders after an interaction fault.
	screenshotOK bool

	visible     map[string]bool
	texts       map[string]string
	currentURL  string
	screenshots []string
	cookies     []browser.Cookie
	closed      bool
	calls       []string
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		failOn:  make(map[string]bool),
		visible: make(map[string]bool),
		texts:   make(map[string]string),
	}
}

func (f *fakeSession) do(name, locator string) error {
	f.calls = append(f.calls, name+":"+locator)

	if f.fault != nil {
		return f.fault
	}

	if f.failOn[locator] {
		return fmt.Errorf("%s failed on %s", name, locator)
	}

	return nil
}

func (f *fakeSession) Navigate(url string, _ time.Duration) error {
	return f.do("navigate", url)
}

func (f *fakeSession) Click(locator string, _ time.Duration) error {
	return f.do("click", locator)
}

func (f *fakeSession) Fill(locator, _ string) error {
	return f.do("fill", locator)
}

func (f *fakeSession) SelectOption(locator, _ string) error {
	return f.do("select", locator)
}

func (f *fakeSession) SetChecked(locator string, _ bool) error {
	return f.do("check", locator)
}

func (f *fakeSession) Hover(locator string) error {
	return f.do("hover", locator)
}

func (f *fakeSession) Press(locator, _ string) error {
	return f.do("press", locator)
}

func (f *fakeSession) WaitVisible(locator string, _ time.Duration) error {
	return f.do("wait_for", locator)
}

func (f *fakeSession) IsVisible(locator string) (bool, error) {
	if err := f.do("is_visible", locator); err != nil {
		return false, err
	}

	return f.visible[locator], nil
}

func (f *fakeSession) Text(locator string) (string, bool, error) {
	if err := f.do("text", locator); err != nil {
		return "", false, err
	}

	text, found := f.texts[locator]

	return text, found, nil
}

func (f *fakeSession) CurrentURL() (string, error) {
	if err := f.do("url", ""); err != nil {
		return "", err
	}

	return f.currentURL, nil
}

func (f *fakeSession) Title() (string, error) {
	return "", nil
}

func (f *fakeSession) Screenshot(path string, _ bool) error {
	if !f.screenshotOK {
		if err := f.do("screenshot", path); err != nil {
			return err
		}
	}

	f.screenshots = append(f.screenshots, path)

	return nil
}

func (f *fakeSession) SetCookies(cookies []browser.Cookie) error {
	f.cookies = cookies

	return nil
}

func (f *fakeSession) Cookies() ([]browser.Cookie, error) {
	return f.cookies, nil
}

func (f *fakeSession) Evaluate(_ string, _ any) error {
	return nil
}

func (f *fakeSession) Close() error {
	f.closed = true

	return nil
}

// fakeFactory returns the given session from every call.
func fakeFactory(session browser.Session) browser.Factory {
	return func(_ context.Context) (browser.Session, error) {
		return session, nil
	}
}
