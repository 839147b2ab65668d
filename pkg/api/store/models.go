package store

import (
	"time"
)

// Run is one indexed test run. Rows are built from the report.json files
// found under the results directory; RunID is the run directory name.
type Run struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RunID       string    `gorm:"uniqueIndex;not null" json:"run_id"`
	ProjectName string    `gorm:"index;not null" json:"project_name"`
	SiteURL     string    `json:"site_url"`
	RunAt       time.Time `gorm:"index" json:"run_at"`
	TotalTests  int       `json:"total_tests"`
	Passed      int       `json:"passed"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
	Errors      int       `json:"errors"`
	DurationMs  int64     `json:"duration_ms"`
	ReportJSON  string    `json:"report_json"`
	ReportMD    string    `json:"report_md"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
