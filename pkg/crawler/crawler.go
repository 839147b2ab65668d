// Package crawler builds a UI-element inventory of a site's pages, the
// raw material for authoring QA scenarios.
package crawler

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/qa-sync/qasync/pkg/browser"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const pageLoadTimeout = 30 * time.Second

// Element is one interactive UI element found on a page.
type Element struct {
	Type       string            `json:"type"`
	Text       string            `json:"text"`
	Selector   string            `json:"selector"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Location   string            `json:"location"`
}

// PageAnalysis is the inventory of one page.
type PageAnalysis struct {
	URL         string            `json:"url"`
	Title       string            `json:"title"`
	Buttons     []Element         `json:"buttons"`
	Links       []Element         `json:"links"`
	Forms       []Element         `json:"forms"`
	Inputs      []Element         `json:"inputs"`
	Modals      []Element         `json:"modals"`
	Navigation  []Element         `json:"navigation"`
	Interactive []Element         `json:"interactive_elements"`
	Screenshots map[string]string `json:"screenshots,omitempty"`
}

// elementGroups maps inventory groups to the CSS selector that collects
// them.
var elementGroups = []struct {
	name     string
	selector string
}{
	{"buttons", `button, [role="button"], input[type="submit"], input[type="button"]`},
	{"links", `a[href]`},
	{"forms", `form`},
	{"inputs", `input:not([type="hidden"]), textarea, select`},
	{"modals", `[role="dialog"], dialog, .modal`},
	{"navigation", `nav a, [role="navigation"] a`},
	{"interactive", `[onclick], [tabindex]:not([tabindex="-1"])`},
}

// Crawler analyzes pages, one session per page.
type Crawler struct {
	log     logrus.FieldLogger
	factory browser.Factory
}

// New creates a crawler.
func New(log logrus.FieldLogger, factory browser.Factory) *Crawler {
	return &Crawler{
		log:     log.WithField("component", "crawler"),
		factory: factory,
	}
}

// CrawlAll analyzes all URLs, up to concurrency pages at a time. Each page
// owns its own browser session, and results are merged by input index so
// the output order always matches the input order regardless of which
// page finishes first. A page that fails to load yields a nil entry.
func (c *Crawler) CrawlAll(
	ctx context.Context,
	urls []string,
	screenshotDir string,
	concurrency int,
) ([]*PageAnalysis, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]*PageAnalysis, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, pageURL := range urls {
		i, pageURL := i, pageURL
		g.Go(func() error {
			analysis, err := c.AnalyzePage(gctx, pageURL, screenshotDir)
			if err != nil {
				c.log.WithError(err).WithField("url", pageURL).Warn("Page analysis failed")

				return nil
			}

			results[i] = analysis

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// AnalyzePage loads one page in a fresh session and extracts its element
// inventory plus viewport and full-page screenshots.
func (c *Crawler) AnalyzePage(ctx context.Context, pageURL, screenshotDir string) (*PageAnalysis, error) {
	session, err := c.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}

	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			c.log.WithError(closeErr).Debug("Failed to close crawl session")
		}
	}()

	if err := session.Navigate(pageURL, pageLoadTimeout); err != nil {
		return nil, fmt.Errorf("loading page: %w", err)
	}

	title, err := session.Title()
	if err != nil {
		c.log.WithError(err).WithField("url", pageURL).Warn("Failed to read title")
	}

	analysis := &PageAnalysis{
		URL:   pageURL,
		Title: title,
	}

	for _, group := range elementGroups {
		elements, err := c.extract(session, group.selector)
		if err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{
				"url":   pageURL,
				"group": group.name,
			}).Warn("Element extraction failed")

			continue
		}

		switch group.name {
		case "buttons":
			analysis.Buttons = elements
		case "links":
			analysis.Links = elements
		case "forms":
			analysis.Forms = elements
		case "inputs":
			analysis.Inputs = elements
		case "modals":
			analysis.Modals = elements
		case "navigation":
			analysis.Navigation = elements
		case "interactive":
			analysis.Interactive = elements
		}
	}

	if screenshotDir != "" {
		analysis.Screenshots = c.screenshots(session, pageURL, screenshotDir)
	}

	return analysis, nil
}

// extract runs the in-page inventory expression for one selector group.
func (c *Crawler) extract(session browser.Session, selector string) ([]Element, error) {
	expr := fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).slice(0, 50).map(el => {
		const attrs = {};
		for (const name of ['id', 'name', 'href', 'type', 'placeholder', 'aria-label', 'role']) {
			const v = el.getAttribute(name);
			if (v) attrs[name] = v;
		}
		let selector = el.tagName.toLowerCase();
		if (el.id) {
			selector = '#' + el.id;
		} else if (typeof el.className === 'string' && el.className.trim()) {
			selector += '.' + el.className.trim().split(/\s+/)[0];
		}
		const location =
			el.closest('header') ? 'header' :
			el.closest('nav') ? 'nav' :
			el.closest('footer') ? 'footer' :
			el.closest('main') ? 'main' : 'body';
		return {
			type: el.tagName.toLowerCase(),
			text: (el.innerText || el.value || '').trim().slice(0, 80),
			selector: selector,
			attributes: attrs,
			location: location,
		};
	})`, selector)

	var elements []Element
	if err := session.Evaluate(expr, &elements); err != nil {
		return nil, err
	}

	return elements, nil
}

// screenshots captures the viewport and full-page images. Best-effort:
// capture faults only cost the image.
func (c *Crawler) screenshots(session browser.Session, pageURL, dir string) map[string]string {
	name := safeName(pageURL)
	shots := make(map[string]string, 2)

	viewport := filepath.Join(dir, name+"_viewport.png")
	if err := session.Screenshot(viewport, false); err != nil {
		c.log.WithError(err).Warn("Failed to capture viewport screenshot")
	} else {
		shots["viewport"] = viewport
	}

	full := filepath.Join(dir, name+"_full.png")
	if err := session.Screenshot(full, true); err != nil {
		c.log.WithError(err).Warn("Failed to capture full-page screenshot")
	} else {
		shots["full"] = full
	}

	return shots
}

// safeName derives a filesystem-safe name from a page URL's path.
func safeName(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "index"
	}

	name := strings.Trim(strings.ReplaceAll(u.Path, "/", "_"), "_")
	if name == "" {
		return "index"
	}

	return name
}
