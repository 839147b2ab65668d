package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/qa-sync/qasync/pkg/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpreter_Actions(t *testing.T) {
	session := newFakeSession()
	session.visible["#banner"] = true
	session.texts["#msg"] = "저장되었습니다"
	session.currentURL = "https://example.com/done"

	interp := NewInterpreter(testLogger(), session)

	tests := []struct {
		name   string
		step   scenario.Step
		wantOK bool
	}{
		{"navigate", scenario.Step{Action: scenario.ActionNavigate, Target: "https://example.com"}, true},
		{"click", scenario.Step{Action: scenario.ActionClick, Target: "button"}, true},
		{"fill", scenario.Step{Action: scenario.ActionFill, Target: "input", Value: "x"}, true},
		{"select", scenario.Step{Action: scenario.ActionSelect, Target: "select", Value: "kr"}, true},
		{"check", scenario.Step{Action: scenario.ActionCheck, Target: "#agree"}, true},
		{"uncheck", scenario.Step{Action: scenario.ActionUncheck, Target: "#agree"}, true},
		{"hover", scenario.Step{Action: scenario.ActionHover, Target: "#menu"}, true},
		{"press", scenario.Step{Action: scenario.ActionPress, Target: "input", Value: "Enter"}, true},
		{"wait", scenario.Step{Action: scenario.ActionWait, Value: "1"}, true},
		{"wait_for", scenario.Step{Action: scenario.ActionWaitFor, Target: "#banner"}, true},
		{"assert visible hit", scenario.Step{Action: scenario.ActionAssertVisible, Target: "#banner"}, true},
		{"assert visible miss", scenario.Step{Action: scenario.ActionAssertVisible, Target: "#absent"}, false},
		{"assert not visible", scenario.Step{Action: scenario.ActionAssertNotVisible, Target: "#absent"}, true},
		{"assert text contains", scenario.Step{Action: scenario.ActionAssertText, Target: "#msg", Value: "저장"}, true},
		{"assert text mismatch", scenario.Step{Action: scenario.ActionAssertText, Target: "#msg", Value: "삭제"}, false},
		{"assert text missing element", scenario.Step{Action: scenario.ActionAssertText, Target: "#nope", Value: "x"}, false},
		{"assert text any", scenario.Step{Action: scenario.ActionAssertText, Target: "#msg"}, true},
		{"assert url contains", scenario.Step{Action: scenario.ActionAssertURL, Value: "/done"}, true},
		{"assert url mismatch", scenario.Step{Action: scenario.ActionAssertURL, Value: "/login"}, false},
		{"assert url empty value", scenario.Step{Action: scenario.ActionAssertURL}, true},
		{"unknown action", scenario.Step{Action: "teleport"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, fault := interp.RunStep(tt.step)

			require.NoError(t, fault)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestInterpreter_ActionErrorIsFailure(t *testing.T) {
	session := newFakeSession()
	session.failOn["#gone"] = true

	interp := NewInterpreter(testLogger(), session)

	ok, fault := interp.RunStep(scenario.Step{
		Action: scenario.ActionClick, Target: "#gone",
	})

	require.NoError(t, fault)
	assert.False(t, ok)
}

func TestInterpreter_CancelledSessionIsFault(t *testing.T) {
	session := newFakeSession()
	session.fault = fmt.Errorf("session: %w", context.Canceled)

	interp := NewInterpreter(testLogger(), session)

	ok, fault := interp.RunStep(scenario.Step{
		Action: scenario.ActionClick, Target: "button",
	})

	assert.False(t, ok)
	require.Error(t, fault)
	assert.ErrorIs(t, fault, context.Canceled)
}

func TestWaitDuration(t *testing.T) {
	assert.Equal(t, "500ms", waitDuration("500").String())
	assert.Equal(t, "1s", waitDuration("").String())
	assert.Equal(t, "1s", waitDuration("soon").String())
}
