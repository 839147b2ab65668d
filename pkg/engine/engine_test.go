package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/qa-sync/qasync/pkg/browser"
	"github.com/qa-sync/qasync/pkg/scenario"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return log
}

func testCases() []scenario.TestCase {
	return []scenario.TestCase{
		{
			ID:   "TC001",
			Name: "login",
			Steps: []scenario.Step{
				{Action: scenario.ActionNavigate, Target: "https://example.com"},
				{Action: scenario.ActionClick, Target: "text=로그인"},
			},
		},
		{
			ID:   "TC002",
			Name: "search",
			Steps: []scenario.Step{
				{Action: scenario.ActionNavigate, Target: "https://example.com"},
				{Action: scenario.ActionFill, Target: "input", Value: "hello"},
				{Action: scenario.ActionAssertURL, Value: "example"},
			},
		},
	}
}

func TestEngine_AllPass(t *testing.T) {
	session := newFakeSession()
	session.currentURL = "https://example.com/search"

	dir := t.TempDir()
	eng := New(testLogger(), &Config{
		ProjectName: "demo",
		SiteURL:     "https://example.com",
		OutputDir:   dir,
	}, fakeFactory(session))

	rep, err := eng.Run(context.Background(), testCases())
	require.NoError(t, err)

	assert.Equal(t, 2, rep.TotalTests)
	assert.Equal(t, 2, rep.Passed)
	assert.Zero(t, rep.Failed)
	assert.Zero(t, rep.Error)
	assert.Equal(t, 100.0, rep.PassRate())
	assert.True(t, session.closed)

	require.Len(t, rep.Results, 2)

	first := rep.Results[0]
	assert.Equal(t, StatusPassed, first.Status)
	assert.Equal(t, 2, first.StepsCompleted)
	assert.Equal(t, 2, first.TotalSteps)
	assert.Equal(t, filepath.Join(dir, "TC001_passed.png"), first.ScreenshotPath)
}

func TestEngine_StepFailure(t *testing.T) {
	session := newFakeSession()
	session.failOn["text=로그인"] = true

	dir := t.TempDir()
	eng := New(testLogger(), &Config{
		ProjectName: "demo",
		SiteURL:     "https://example.com",
		OutputDir:   dir,
	}, fakeFactory(session))

	rep, err := eng.Run(context.Background(), testCases()[:1])
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Failed)
	assert.Zero(t, rep.Passed)

	result := rep.Results[0]
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, 1, result.StepsCompleted)
	assert.Contains(t, result.ErrorMessage, "Step 2 failed")
	assert.Contains(t, result.ErrorMessage, "click")
	assert.Equal(t, filepath.Join(dir, "TC001_failed.png"), result.ScreenshotPath)
}

func TestEngine_SessionFault(t *testing.T) {
	session := newFakeSession()
	session.fault = fmt.Errorf("tab crashed: %w", context.Canceled)

	eng := New(testLogger(), &Config{
		ProjectName: "demo",
		SiteURL:     "https://example.com",
		OutputDir:   t.TempDir(),
	}, fakeFactory(session))

	rep, err := eng.Run(context.Background(), testCases()[:1])
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Error)

	result := rep.Results[0]
	assert.Equal(t, StatusError, result.Status)
	assert.Zero(t, result.StepsCompleted)
	// The capture also faults, so no screenshot path is recorded.
	assert.Empty(t, result.ScreenshotPath)
}

func TestEngine_SessionFaultScreenshot(t *testing.T) {
	session := newFakeSession()
	session.fault = fmt.Errorf("tab crashed: %w", context.Canceled)
	session.screenshotOK = true

	dir := t.TempDir()
	eng := New(testLogger(), &Config{
		ProjectName: "demo",
		SiteURL:     "https://example.com",
		OutputDir:   dir,
	}, fakeFactory(session))

	rep, err := eng.Run(context.Background(), testCases()[:1])
	require.NoError(t, err)

	result := rep.Results[0]
	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, filepath.Join(dir, "TC001_error.png"), result.ScreenshotPath)
	assert.Equal(t, []string{result.ScreenshotPath}, session.screenshots)
}

func TestEngine_FactoryError(t *testing.T) {
	factory := func(_ context.Context) (browser.Session, error) {
		return nil, fmt.Errorf("chrome not found")
	}

	eng := New(testLogger(), &Config{
		ProjectName: "demo",
		SiteURL:     "https://example.com",
		OutputDir:   t.TempDir(),
	}, factory)

	_, err := eng.Run(context.Background(), testCases())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting browser session")
}

func TestEngine_NoCases(t *testing.T) {
	factory := func(_ context.Context) (browser.Session, error) {
		t.Fatal("factory must not be called for an empty run")

		return nil, nil
	}

	eng := New(testLogger(), &Config{
		ProjectName: "demo",
		SiteURL:     "https://example.com",
		OutputDir:   t.TempDir(),
	}, factory)

	rep, err := eng.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Zero(t, rep.TotalTests)
	assert.Empty(t, rep.Results)
	assert.Equal(t, 0.0, rep.PassRate())
}

func TestEngine_CancelledBetweenCases(t *testing.T) {
	session := newFakeSession()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := New(testLogger(), &Config{
		ProjectName: "demo",
		SiteURL:     "https://example.com",
		OutputDir:   t.TempDir(),
	}, fakeFactory(session))

	rep, err := eng.Run(ctx, testCases())
	require.NoError(t, err)

	// Cancelled before the first case: a valid but empty report.
	assert.Zero(t, rep.TotalTests)
	assert.True(t, session.closed)
}

func TestEngine_SeedsCookies(t *testing.T) {
	session := newFakeSession()

	cookies := []browser.Cookie{{Name: "sid", Value: "abc"}}

	eng := New(testLogger(), &Config{
		ProjectName: "demo",
		SiteURL:     "https://example.com",
		OutputDir:   t.TempDir(),
		Cookies:     cookies,
	}, fakeFactory(session))

	_, err := eng.Run(context.Background(), testCases())
	require.NoError(t, err)

	assert.Equal(t, cookies, session.cookies)
}
