package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
)

// textPrefix marks an exact-text locator as produced by the scenario
// resolver. Everything else is treated as a CSS selector.
const textPrefix = "text="

// toSelector translates a locator into a chromedp selector plus the query
// option to evaluate it with. Text locators become an XPath match on the
// element's normalized text.
func toSelector(locator string) (string, chromedp.QueryOption) {
	if text, ok := strings.CutPrefix(locator, textPrefix); ok {
		return textXPath(text), chromedp.BySearch
	}

	return locator, chromedp.ByQuery
}

// textXPath builds an XPath expression matching any element whose
// normalized text contains the given string.
func textXPath(text string) string {
	return fmt.Sprintf(`//*[contains(normalize-space(text()), %s)]`, xpathString(text))
}

// xpathString quotes a literal for use inside an XPath expression. XPath
// 1.0 has no escape sequences, so a value containing both quote kinds has
// to be assembled with concat().
func xpathString(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}

	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}

	parts := strings.Split(s, `"`)

	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}

		if p != "" {
			quoted = append(quoted, `"`+p+`"`)
		}
	}

	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// findExpr returns a JavaScript expression that resolves the locator to an
// element or null, for use inside Evaluate-based queries.
func findExpr(locator string) string {
	if text, ok := strings.CutPrefix(locator, textPrefix); ok {
		return fmt.Sprintf(
			`document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`,
			jsString(textXPath(text)),
		)
	}

	return fmt.Sprintf(`document.querySelector(%s)`, jsString(locator))
}

// jsString quotes a Go string as a JavaScript string literal.
func jsString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)

	return `"` + r.Replace(s) + `"`
}
