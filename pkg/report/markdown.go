package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/qa-sync/qasync/pkg/engine"
)

// statusGlyph maps a case status to its summary-table glyph.
func statusGlyph(s engine.Status) string {
	switch s {
	case engine.StatusPassed:
		return "✅"
	case engine.StatusFailed:
		return "❌"
	case engine.StatusSkipped:
		return "⏭️"
	case engine.StatusError:
		return "💥"
	default:
		return "?"
	}
}

// RenderMarkdown renders the human-readable report document.
func RenderMarkdown(r *engine.TestReport) string {
	var sb strings.Builder

	sb.Grow(4096)

	writeHeader(&sb, r)
	writeSummary(&sb, r)
	writeResults(&sb, r)
	writeFailureDetails(&sb, r)

	return sb.String()
}

func writeHeader(sb *strings.Builder, r *engine.TestReport) {
	sb.WriteString("# 🧪 QA Test Report\n\n")
	fmt.Fprintf(sb, "**Project:** %s\n", r.ProjectName)
	fmt.Fprintf(sb, "**Site:** %s\n", r.SiteURL)
	fmt.Fprintf(sb, "**Run at:** %s\n", r.RunAt)
	fmt.Fprintf(sb, "**Duration:** %s\n\n", formatDuration(time.Duration(r.DurationMs)*time.Millisecond))
	sb.WriteString("---\n\n")
}

func writeSummary(sb *strings.Builder, r *engine.TestReport) {
	sb.WriteString("## 📊 Summary\n\n")
	sb.WriteString("| Item | Count |\n")
	sb.WriteString("|---|---|\n")
	fmt.Fprintf(sb, "| Total tests | %d |\n", r.TotalTests)
	fmt.Fprintf(sb, "| ✅ Passed | %d |\n", r.Passed)
	fmt.Fprintf(sb, "| ❌ Failed | %d |\n", r.Failed)
	fmt.Fprintf(sb, "| 💥 Error | %d |\n", r.Error)
	fmt.Fprintf(sb, "| **Pass rate** | **%.1f%%** |\n\n", r.PassRate())
	sb.WriteString("---\n\n")
}

func writeResults(sb *strings.Builder, r *engine.TestReport) {
	sb.WriteString("## 📋 Results\n\n")
	sb.WriteString("| ID | Test | Status | Duration | Steps |\n")
	sb.WriteString("|----|------|--------|----------|-------|\n")

	for _, res := range r.Results {
		fmt.Fprintf(sb, "| %s | %s | %s | %dms | %d/%d |\n",
			res.TestID,
			truncateRunes(res.TestName, 30),
			statusGlyph(res.Status),
			res.DurationMs,
			res.StepsCompleted,
			res.TotalSteps,
		)
	}
}

// writeFailureDetails emits a per-case detail section, only when at least
// one case failed or errored.
func writeFailureDetails(sb *strings.Builder, r *engine.TestReport) {
	var failed []engine.TestResult

	for _, res := range r.Results {
		if res.Status == engine.StatusFailed || res.Status == engine.StatusError {
			failed = append(failed, res)
		}
	}

	if len(failed) == 0 {
		return
	}

	sb.WriteString("\n---\n\n## ❌ Failure details\n\n")

	for _, res := range failed {
		fmt.Fprintf(sb, "### %s: %s\n\n", res.TestID, res.TestName)
		fmt.Fprintf(sb, "- **Status:** %s\n", res.Status)
		fmt.Fprintf(sb, "- **Error:** %s\n", res.ErrorMessage)

		if res.ScreenshotPath != "" {
			fmt.Fprintf(sb, "- **Screenshot:** %s\n", res.ScreenshotPath)
		}

		sb.WriteByte('\n')
	}
}

// formatDuration formats a duration as a compact human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

// truncateRunes shortens s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}
