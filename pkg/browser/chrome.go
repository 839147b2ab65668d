package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/sirupsen/logrus"
)

const (
	// startTimeout bounds browser startup; exceeding it is a fatal
	// startup fault that aborts the run before any case executes.
	startTimeout = 30 * time.Second

	navigateSettle = 1 * time.Second
	clickSettle    = 500 * time.Millisecond
	hoverSettle    = 300 * time.Millisecond
)

// Options configures a Chrome-backed session.
type Options struct {
	Headless    bool
	UserDataDir string

	// ProfileDirectory is the profile name inside UserDataDir ("Default",
	// "Profile 1", ...). Chrome resolves it relative to the user data
	// root; leaving it empty selects "Default".
	ProfileDirectory string

	WindowWidth  int
	WindowHeight int
}

// NewFactory returns a Factory producing Chrome sessions with the given
// options.
func NewFactory(log logrus.FieldLogger, opts *Options) Factory {
	return func(ctx context.Context) (Session, error) {
		return NewChromeSession(ctx, log, opts)
	}
}

type chromeSession struct {
	log         logrus.FieldLogger
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// Ensure interface compliance.
var _ Session = (*chromeSession)(nil)

// NewChromeSession launches a Chrome instance and opens one page. A missing
// or broken Chrome binary surfaces here, before any step executes.
func NewChromeSession(ctx context.Context, log logrus.FieldLogger, opts *Options) (Session, error) {
	if opts == nil {
		opts = &Options{Headless: true}
	}

	width, height := opts.WindowWidth, opts.WindowHeight
	if width == 0 {
		width = 1280
	}

	if height == 0 {
		height = 720
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.WindowSize(width, height),
	)

	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}

	if opts.ProfileDirectory != "" {
		allocOpts = append(allocOpts, chromedp.Flag("profile-directory", opts.ProfileDirectory))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Debugf))

	s := &chromeSession{
		log:         log.WithField("component", "browser"),
		ctx:         browserCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
	}

	// Start the browser eagerly so a missing binary fails the run up front.
	startCtx, startCancel := context.WithTimeout(browserCtx, startTimeout)
	defer startCancel()

	if err := chromedp.Run(startCtx); err != nil {
		cancel()
		allocCancel()

		return nil, fmt.Errorf("starting browser: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"headless": opts.Headless,
		"viewport": fmt.Sprintf("%dx%d", width, height),
	}).Debug("Browser session started")

	return s, nil
}

// run executes chromedp actions, bounded by timeout when non-zero.
func (s *chromeSession) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx := s.ctx

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return chromedp.Run(ctx, actions...)
}

func (s *chromeSession) Navigate(url string, timeout time.Duration) error {
	if err := s.run(timeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}

	return s.run(0, chromedp.Sleep(navigateSettle))
}

func (s *chromeSession) Click(locator string, timeout time.Duration) error {
	sel, opt := toSelector(locator)

	if err := s.run(timeout, chromedp.Click(sel, opt)); err != nil {
		return fmt.Errorf("clicking %s: %w", locator, err)
	}

	return s.run(0, chromedp.Sleep(clickSettle))
}

func (s *chromeSession) Fill(locator, value string) error {
	expr := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		el.value = %s;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, findExpr(locator), jsString(value))

	return s.mutate(locator, expr)
}

func (s *chromeSession) SelectOption(locator, value string) error {
	expr := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		el.value = %s;
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, findExpr(locator), jsString(value))

	return s.mutate(locator, expr)
}

func (s *chromeSession) SetChecked(locator string, checked bool) error {
	expr := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		el.checked = %t;
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, findExpr(locator), checked)

	return s.mutate(locator, expr)
}

func (s *chromeSession) Hover(locator string) error {
	expr := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		for (const type of ['mouseover', 'mouseenter', 'mousemove']) {
			el.dispatchEvent(new MouseEvent(type, {bubbles: true}));
		}
		return true;
	})()`, findExpr(locator))

	if err := s.mutate(locator, expr); err != nil {
		return err
	}

	return s.run(0, chromedp.Sleep(hoverSettle))
}

// mutate evaluates a locator-resolving mutation expression and converts a
// no-match result into an error.
func (s *chromeSession) mutate(locator, expr string) error {
	var found bool
	if err := s.run(0, chromedp.Evaluate(expr, &found)); err != nil {
		return fmt.Errorf("evaluating against %s: %w", locator, err)
	}

	if !found {
		return fmt.Errorf("no element matches locator %q", locator)
	}

	return nil
}

func (s *chromeSession) Press(locator, key string) error {
	if locator == "" {
		locator = "body"
	}

	sel, opt := toSelector(locator)

	if err := s.run(0, chromedp.SendKeys(sel, keyValue(key), opt)); err != nil {
		return fmt.Errorf("pressing %s on %s: %w", key, locator, err)
	}

	return nil
}

func (s *chromeSession) WaitVisible(locator string, timeout time.Duration) error {
	sel, opt := toSelector(locator)

	if err := s.run(timeout, chromedp.WaitVisible(sel, opt)); err != nil {
		return fmt.Errorf("waiting for %s: %w", locator, err)
	}

	return nil
}

func (s *chromeSession) IsVisible(locator string) (bool, error) {
	expr := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		const st = window.getComputedStyle(el);
		if (st.display === 'none' || st.visibility === 'hidden') return false;
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	})()`, findExpr(locator))

	var visible bool
	if err := s.run(0, chromedp.Evaluate(expr, &visible)); err != nil {
		return false, fmt.Errorf("checking visibility of %s: %w", locator, err)
	}

	return visible, nil
}

func (s *chromeSession) Text(locator string) (string, bool, error) {
	expr := fmt.Sprintf(`(() => {
		const el = %s;
		return el ? el.innerText : null;
	})()`, findExpr(locator))

	var text *string
	if err := s.run(0, chromedp.Evaluate(expr, &text)); err != nil {
		return "", false, fmt.Errorf("reading text of %s: %w", locator, err)
	}

	if text == nil {
		return "", false, nil
	}

	return *text, true, nil
}

func (s *chromeSession) CurrentURL() (string, error) {
	var url string
	if err := s.run(0, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("reading current URL: %w", err)
	}

	return url, nil
}

func (s *chromeSession) Title() (string, error) {
	var title string
	if err := s.run(0, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("reading title: %w", err)
	}

	return title, nil
}

func (s *chromeSession) Screenshot(path string, fullPage bool) error {
	var buf []byte

	var action chromedp.Action
	if fullPage {
		action = chromedp.FullScreenshot(&buf, 90)
	} else {
		action = chromedp.CaptureScreenshot(&buf)
	}

	if err := s.run(0, action); err != nil {
		return fmt.Errorf("capturing screenshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating screenshot directory: %w", err)
		}
	}

	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("writing screenshot: %w", err)
	}

	return nil
}

func (s *chromeSession) SetCookies(cookies []Cookie) error {
	return s.run(0, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			p := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithHTTPOnly(c.HTTPOnly).
				WithSecure(c.Secure)

			if c.Expires > 0 {
				expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
				p = p.WithExpires(&expires)
			}

			if c.SameSite != "" {
				p = p.WithSameSite(network.CookieSameSite(c.SameSite))
			}

			if err := p.Do(ctx); err != nil {
				return fmt.Errorf("setting cookie %s: %w", c.Name, err)
			}
		}

		return nil
	}))
}

func (s *chromeSession) Cookies() ([]Cookie, error) {
	var cookies []Cookie

	err := s.run(0, chromedp.ActionFunc(func(ctx context.Context) error {
		raw, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}

		cookies = make([]Cookie, 0, len(raw))
		for _, c := range raw {
			cookies = append(cookies, Cookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Expires:  c.Expires,
				HTTPOnly: c.HTTPOnly,
				Secure:   c.Secure,
				SameSite: c.SameSite.String(),
			})
		}

		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("reading cookies: %w", err)
	}

	return cookies, nil
}

func (s *chromeSession) Evaluate(js string, out any) error {
	return s.run(0, chromedp.Evaluate(js, out))
}

// Close shuts the browser down. Best-effort: a browser that already died
// is not an error.
func (s *chromeSession) Close() error {
	if err := chromedp.Cancel(s.ctx); err != nil {
		s.log.WithError(err).Debug("Browser did not shut down cleanly")
	}

	s.cancel()
	s.allocCancel()

	return nil
}

// keyValue maps a human key name to the raw key runes chromedp sends.
// Unknown names are sent as-is.
func keyValue(name string) string {
	switch name {
	case "", "Enter":
		return kb.Enter
	case "Tab":
		return kb.Tab
	case "Escape":
		return kb.Escape
	case "Backspace":
		return kb.Backspace
	case "Delete":
		return kb.Delete
	case "ArrowUp":
		return kb.ArrowUp
	case "ArrowDown":
		return kb.ArrowDown
	case "ArrowLeft":
		return kb.ArrowLeft
	case "ArrowRight":
		return kb.ArrowRight
	default:
		return name
	}
}
