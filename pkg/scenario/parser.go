package scenario

import (
	"fmt"
	"regexp"
	"strings"
)

// headerTokens mark a table row as a header row rather than data.
var headerTokens = []string{"유형", "시나리오", "type", "scenario"}

// stepNumberRe matches the leading integer markers of inline numbered
// steps ("1. do X 2. do Y").
var stepNumberRe = regexp.MustCompile(`\d+\.\s*`)

// ParseResult holds the parsed test cases along with parse diagnostics.
// Parsing is deliberately lossy: malformed rows are skipped, never
// surfaced as errors. SkippedRows lets callers report how much was lost.
type ParseResult struct {
	Cases       []TestCase
	SkippedRows int
}

// Parse converts a pipe-delimited markdown scenario table into an ordered
// list of test cases. Rows not starting with "|" are ignored, header and
// separator rows are skipped, and every emitted case begins with an
// implicit navigation to siteURL. Parse never fails: unparseable input
// yields zero cases.
func Parse(doc, siteURL string) *ParseResult {
	result := &ParseResult{}

	for _, line := range strings.Split(strings.TrimSpace(doc), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") || isHeaderRow(line) {
			continue
		}

		cells := splitRow(line)
		if len(cells) < 3 {
			result.SkippedRows++

			continue
		}

		category := strings.ToLower(cells[0])
		scenarioText := cells[1]
		expected := cells[2]

		steps := make([]Step, 0, 8)
		steps = append(steps, Step{
			Action:      ActionNavigate,
			Target:      siteURL,
			Description: "사이트 이동",
		})

		for _, fragment := range splitNumberedSteps(scenarioText) {
			steps = append(steps, Resolve(fragment))
		}

		// Unreachable while the navigate step is prepended
		// unconditionally; kept so a case with an empty step list is
		// never emitted if that ever changes.
		if len(steps) == 0 {
			continue
		}

		priority := "medium"
		if category == "happy" {
			priority = "high"
		}

		result.Cases = append(result.Cases, TestCase{
			ID:       fmt.Sprintf("TC%03d", len(result.Cases)+1),
			Name:     truncateRunes(scenarioText, 50),
			Category: category,
			Steps:    steps,
			Expected: expected,
			Priority: priority,
		})
	}

	return result
}

// isHeaderRow reports whether a table row is a header or separator row.
func isHeaderRow(line string) bool {
	if strings.Contains(line, "---") {
		return true
	}

	lower := strings.ToLower(line)
	for _, token := range headerTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}

	return false
}

// splitRow splits a table row on "|", trims each cell and discards the
// empty leading/trailing cells produced by the outer pipes.
func splitRow(line string) []string {
	parts := strings.Split(line, "|")

	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}

	// Drop the empty cells before the first and after the last pipe.
	if len(cells) > 0 && cells[0] == "" {
		cells = cells[1:]
	}

	if len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}

	return cells
}

// splitNumberedSteps extracts the fragments of an inline numbered list:
// each fragment runs from a leading integer marker up to the next marker
// or the end of the string. Text before the first marker is ignored.
func splitNumberedSteps(text string) []string {
	marks := stepNumberRe.FindAllStringIndex(text, -1)
	if len(marks) == 0 {
		return nil
	}

	fragments := make([]string, 0, len(marks))

	for i, m := range marks {
		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}

		fragment := strings.TrimSpace(text[m[1]:end])
		if fragment != "" {
			fragments = append(fragments, fragment)
		}
	}

	return fragments
}

// truncateRunes shortens s to at most n runes. Scenario text is routinely
// multi-byte, so byte slicing would split characters.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}
