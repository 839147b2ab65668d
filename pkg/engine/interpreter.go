package engine

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/qa-sync/qasync/pkg/browser"
	"github.com/qa-sync/qasync/pkg/scenario"
	"github.com/sirupsen/logrus"
)

const (
	navigateTimeout = 30 * time.Second
	clickTimeout    = 10 * time.Second
	waitForTimeout  = 10 * time.Second

	// defaultWaitMs is used when a wait step carries no duration.
	defaultWaitMs = 1000
)

// Interpreter executes single steps against a browser session. Failures
// never cross its boundary as errors: a step either succeeds or it does
// not. The returned fault is non-nil only when the session itself is gone
// (run cancelled, browser died), which the engine records as a case-level
// ERROR rather than a step failure.
type Interpreter struct {
	log     logrus.FieldLogger
	session browser.Session
}

// NewInterpreter creates an interpreter bound to one session.
func NewInterpreter(log logrus.FieldLogger, session browser.Session) *Interpreter {
	return &Interpreter{
		log:     log.WithField("component", "interpreter"),
		session: session,
	}
}

// RunStep executes one step and reports whether it succeeded.
func (i *Interpreter) RunStep(step scenario.Step) (ok bool, fault error) {
	switch step.Action {
	case scenario.ActionNavigate:
		return i.check(step, i.session.Navigate(step.Target, navigateTimeout))

	case scenario.ActionClick:
		return i.check(step, i.session.Click(step.Target, clickTimeout))

	case scenario.ActionFill:
		return i.check(step, i.session.Fill(step.Target, step.Value))

	case scenario.ActionSelect:
		return i.check(step, i.session.SelectOption(step.Target, step.Value))

	case scenario.ActionCheck:
		return i.check(step, i.session.SetChecked(step.Target, true))

	case scenario.ActionUncheck:
		return i.check(step, i.session.SetChecked(step.Target, false))

	case scenario.ActionHover:
		return i.check(step, i.session.Hover(step.Target))

	case scenario.ActionPress:
		return i.check(step, i.session.Press(step.Target, step.Value))

	case scenario.ActionWait:
		time.Sleep(waitDuration(step.Value))

		return true, nil

	case scenario.ActionWaitFor:
		return i.check(step, i.session.WaitVisible(step.Target, waitForTimeout))

	case scenario.ActionAssertVisible:
		visible, err := i.session.IsVisible(step.Target)
		if err != nil {
			return i.check(step, err)
		}

		return visible, nil

	case scenario.ActionAssertNotVisible:
		visible, err := i.session.IsVisible(step.Target)
		if err != nil {
			return i.check(step, err)
		}

		return !visible, nil

	case scenario.ActionAssertText:
		text, found, err := i.session.Text(step.Target)
		if err != nil {
			return i.check(step, err)
		}

		if !found {
			return false, nil
		}

		if step.Value == "" {
			return text != "", nil
		}

		return strings.Contains(text, step.Value), nil

	case scenario.ActionAssertURL:
		url, err := i.session.CurrentURL()
		if err != nil {
			return i.check(step, err)
		}

		if step.Value == "" {
			return true, nil
		}

		return strings.Contains(url, step.Value), nil

	case scenario.ActionScreenshot:
		path := step.Target
		if path == "" {
			path = "screenshot.png"
		}

		return i.check(step, i.session.Screenshot(path, false))

	default:
		i.log.WithField("action", step.Action).Warn("Unknown action, treating as success")

		return true, nil
	}
}

// check converts an action error into a step outcome. Session-level faults
// are passed through so the engine can mark the case as ERROR.
func (i *Interpreter) check(step scenario.Step, err error) (bool, error) {
	if err == nil {
		return true, nil
	}

	if errors.Is(err, context.Canceled) {
		return false, err
	}

	i.log.WithFields(logrus.Fields{
		"action": step.Action,
		"target": step.Target,
	}).WithError(err).Warn("Step failed")

	return false, nil
}

// waitDuration parses a wait step's value as milliseconds.
func waitDuration(value string) time.Duration {
	ms := defaultWaitMs
	if value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			ms = parsed
		}
	}

	return time.Duration(ms) * time.Millisecond
}
