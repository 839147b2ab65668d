package scenario

// Action identifies the kind of browser operation a step performs.
type Action string

// Supported step actions.
const (
	ActionNavigate         Action = "navigate"
	ActionClick            Action = "click"
	ActionFill             Action = "fill"
	ActionSelect           Action = "select"
	ActionCheck            Action = "check"
	ActionUncheck          Action = "uncheck"
	ActionHover            Action = "hover"
	ActionPress            Action = "press"
	ActionWait             Action = "wait"
	ActionWaitFor          Action = "wait_for"
	ActionAssertVisible    Action = "assert_visible"
	ActionAssertNotVisible Action = "assert_not_visible"
	ActionAssertText       Action = "assert_text"
	ActionAssertURL        Action = "assert_url"
	ActionScreenshot       Action = "screenshot"
)

// Step is a single unit of work derived from one natural-language fragment.
// Target and Value are action-dependent and may be empty; Description is a
// free-text label used only for logging.
type Step struct {
	Action      Action `json:"action"`
	Target      string `json:"target,omitempty"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
}

// TestCase is an ordered sequence of steps parsed from one scenario row.
// The first step is always a navigation to the run's site URL.
type TestCase struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Steps    []Step `json:"steps"`
	Expected string `json:"expected"`
	Priority string `json:"priority"`
}
