package engine

import (
	"time"
)

// Status is the terminal outcome of one test case.
type Status string

// Case statuses. SKIPPED is part of the taxonomy for forward compatibility
// (disabled or filtered cases) but is never produced by the current engine:
// cases only move PENDING → RUNNING → PASSED/FAILED/ERROR.
const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// TestResult is the immutable outcome of one executed test case.
type TestResult struct {
	TestID         string `json:"test_id"`
	TestName       string `json:"test_name"`
	Status         Status `json:"status"`
	DurationMs     int64  `json:"duration_ms"`
	ErrorMessage   string `json:"error_message,omitempty"`
	ScreenshotPath string `json:"screenshot_path,omitempty"`
	StepsCompleted int    `json:"steps_completed"`
	TotalSteps     int    `json:"total_steps"`
}

// TestReport aggregates the results of one run. Counts are always derived
// from Results via BuildReport, never maintained independently.
type TestReport struct {
	ProjectName string       `json:"project_name"`
	SiteURL     string       `json:"site_url"`
	RunAt       string       `json:"run_at"`
	TotalTests  int          `json:"total_tests"`
	Passed      int          `json:"passed"`
	Failed      int          `json:"failed"`
	Skipped     int          `json:"skipped"`
	Error       int          `json:"error"`
	DurationMs  int64        `json:"duration_ms"`
	Results     []TestResult `json:"results"`
}

// BuildReport assembles a report from the accumulated results, recomputing
// all aggregate counts.
func BuildReport(project, siteURL string, runAt time.Time, durationMs int64, results []TestResult) *TestReport {
	report := &TestReport{
		ProjectName: project,
		SiteURL:     siteURL,
		RunAt:       runAt.Format(time.RFC3339),
		TotalTests:  len(results),
		DurationMs:  durationMs,
		Results:     results,
	}

	for _, r := range results {
		switch r.Status {
		case StatusPassed:
			report.Passed++
		case StatusFailed:
			report.Failed++
		case StatusSkipped:
			report.Skipped++
		case StatusError:
			report.Error++
		}
	}

	return report
}

// PassRate returns the percentage of passed cases, 0.0 for an empty run.
func (r *TestReport) PassRate() float64 {
	if r.TotalTests == 0 {
		return 0.0
	}

	return float64(r.Passed) / float64(r.TotalTests) * 100.0
}
