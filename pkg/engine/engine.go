// Package engine runs parsed test cases against a browser session and
// aggregates the outcomes into a report.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/qa-sync/qasync/pkg/browser"
	"github.com/qa-sync/qasync/pkg/fsutil"
	"github.com/qa-sync/qasync/pkg/scenario"
	"github.com/sirupsen/logrus"
)

// Engine executes a run: all test cases in parse order against one shared
// browser session.
type Engine interface {
	Run(ctx context.Context, cases []scenario.TestCase) (*TestReport, error)
}

// Config for the engine. The session factory and the optional pre-seeded
// cookie set are injected explicitly; the engine never reads ambient
// state from disk.
type Config struct {
	ProjectName string
	SiteURL     string

	// OutputDir receives one screenshot per executed case.
	OutputDir string
	Owner     *fsutil.OwnerConfig

	// Cookies seed the session before any step executes. Empty is fine:
	// the session simply runs unauthenticated.
	Cookies []browser.Cookie
}

// New creates an engine.
func New(log logrus.FieldLogger, cfg *Config, factory browser.Factory) Engine {
	return &engine{
		log:     log.WithField("component", "engine"),
		cfg:     cfg,
		factory: factory,
	}
}

type engine struct {
	log     logrus.FieldLogger
	cfg     *Config
	factory browser.Factory
}

// Ensure interface compliance.
var _ Engine = (*engine)(nil)

// Run executes all cases sequentially against one shared session. A
// session startup failure aborts the run; everything after that is
// recorded per case and the run always completes with a report. A run
// with zero cases produces a valid empty report without starting a
// browser.
func (e *engine) Run(ctx context.Context, cases []scenario.TestCase) (*TestReport, error) {
	start := time.Now()

	if len(cases) == 0 {
		e.log.Warn("No test cases to run")

		return BuildReport(e.cfg.ProjectName, e.cfg.SiteURL, start, 0, nil), nil
	}

	if err := fsutil.MkdirAll(e.cfg.OutputDir, 0755, e.cfg.Owner); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	session, err := e.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting browser session: %w", err)
	}

	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			e.log.WithError(closeErr).Warn("Failed to close browser session")
		}
	}()

	if len(e.cfg.Cookies) > 0 {
		if err := session.SetCookies(e.cfg.Cookies); err != nil {
			e.log.WithError(err).Warn("Failed to seed cookies, continuing unauthenticated")
		} else {
			e.log.WithField("cookies", len(e.cfg.Cookies)).Info("Seeded session cookies")
		}
	}

	interp := NewInterpreter(e.log, session)
	results := make([]TestResult, 0, len(cases))

	for idx, tc := range cases {
		select {
		case <-ctx.Done():
			e.log.Warn("Run interrupted between cases")

			return BuildReport(
				e.cfg.ProjectName, e.cfg.SiteURL, start,
				time.Since(start).Milliseconds(), results,
			), nil
		default:
		}

		e.log.WithFields(logrus.Fields{
			"case":     fmt.Sprintf("%d/%d", idx+1, len(cases)),
			"id":       tc.ID,
			"category": tc.Category,
		}).Info("Running test case")

		result := e.runCase(interp, session, tc)
		results = append(results, result)

		log := e.log.WithFields(logrus.Fields{
			"id":       tc.ID,
			"status":   result.Status,
			"duration": time.Duration(result.DurationMs) * time.Millisecond,
			"steps":    fmt.Sprintf("%d/%d", result.StepsCompleted, result.TotalSteps),
		})

		if result.Status == StatusPassed {
			log.Info("Test case completed")
		} else {
			log.WithField("error", result.ErrorMessage).Warn("Test case did not pass")
		}
	}

	return BuildReport(
		e.cfg.ProjectName, e.cfg.SiteURL, start,
		time.Since(start).Milliseconds(), results,
	), nil
}

// runCase executes one case's steps in order, stopping at the first
// failure. No step is ever retried.
func (e *engine) runCase(interp *Interpreter, session browser.Session, tc scenario.TestCase) TestResult {
	start := time.Now()

	result := TestResult{
		TestID:     tc.ID,
		TestName:   tc.Name,
		TotalSteps: len(tc.Steps),
	}

	for idx, step := range tc.Steps {
		e.log.WithFields(logrus.Fields{
			"step":   fmt.Sprintf("%d/%d", idx+1, len(tc.Steps)),
			"action": step.Action,
			"target": step.Target,
		}).Debug("Executing step")

		ok, fault := interp.RunStep(step)

		if fault != nil {
			result.Status = StatusError
			result.ErrorMessage = fault.Error()
			result.ScreenshotPath = e.capture(session, tc.ID, "error")

			break
		}

		if !ok {
			result.Status = StatusFailed
			result.ErrorMessage = fmt.Sprintf(
				"Step %d failed: %s - %s", idx+1, step.Action, step.Target,
			)
			result.ScreenshotPath = e.capture(session, tc.ID, "failed")

			break
		}

		result.StepsCompleted++
	}

	if result.StepsCompleted == result.TotalSteps {
		result.Status = StatusPassed
		result.ScreenshotPath = e.capture(session, tc.ID, "passed")
	}

	result.DurationMs = time.Since(start).Milliseconds()

	return result
}

// capture takes an outcome-tagged screenshot. Capture faults are
// swallowed: a missing screenshot path is the only signal.
func (e *engine) capture(session browser.Session, caseID, tag string) string {
	path := filepath.Join(e.cfg.OutputDir, fmt.Sprintf("%s_%s.png", caseID, tag))

	if err := session.Screenshot(path, false); err != nil {
		e.log.WithError(err).WithField("case", caseID).Warn("Failed to capture screenshot")

		return ""
	}

	fsutil.Chown(path, e.cfg.Owner)

	return path
}
