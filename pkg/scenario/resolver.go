package scenario

import (
	"regexp"
	"strings"
)

// DefaultFillValue is the placeholder used when a fill step carries no
// explicit input value.
const DefaultFillValue = "테스트 입력"

var (
	quotedRe = regexp.MustCompile(`["']([^"']+)["']`)
	roleRe   = regexp.MustCompile(`([\w가-힣]+)\s*(버튼|링크|탭|메뉴|button|link|tab|menu)`)
	urlRe    = regexp.MustCompile(`https?://[^\s|]+`)
)

// resolverRule pairs a keyword predicate with a step builder. Rules are
// evaluated top to bottom and the first match wins, so rule order is the
// documented contract: later rules are unreachable for fragments that
// already matched an earlier one.
type resolverRule struct {
	keywords []string
	build    func(text string) Step
}

var resolverRules = []resolverRule{
	{
		keywords: []string{"클릭", "누르", "선택", "click", "press", "select", "tap"},
		build: func(text string) Step {
			return Step{
				Action:      ActionClick,
				Target:      targetOr(text, "button"),
				Description: text,
			}
		},
	},
	{
		keywords: []string{"입력", "작성", "넣", "input", "enter", "type", "write"},
		build: func(text string) Step {
			value := extractValue(text)
			if value == "" {
				value = DefaultFillValue
			}

			return Step{
				Action:      ActionFill,
				Target:      targetOr(text, "input"),
				Value:       value,
				Description: text,
			}
		},
	},
	{
		keywords: []string{"확인", "검증", "체크", "verify", "check", "confirm"},
		build: func(text string) Step {
			return Step{
				Action:      ActionAssertVisible,
				Target:      targetOr(text, "body"),
				Description: text,
			}
		},
	},
	{
		keywords: []string{"기다", "대기", "로딩", "wait", "loading"},
		build: func(text string) Step {
			return Step{
				Action:      ActionWait,
				Value:       "2000",
				Description: text,
			}
		},
	},
	{
		keywords: []string{"이동", "접속", "열기", "navigate", "open", "visit", "go to"},
		build: func(text string) Step {
			target := urlRe.FindString(text)
			if target == "" {
				target = "/"
			}

			return Step{
				Action:      ActionNavigate,
				Target:      target,
				Description: text,
			}
		},
	},
	{
		keywords: []string{"호버", "마우스", "hover", "mouse"},
		build: func(text string) Step {
			return Step{
				Action:      ActionHover,
				Target:      targetOr(text, "button"),
				Description: text,
			}
		},
	},
}

// Resolve maps a natural-language step fragment to a typed step using
// priority-ordered keyword rules. It is a best-effort heuristic, not a
// grammar: ambiguous fragments resolve to the first matching rule, and a
// fragment matching no rule becomes a short wait instead of an error.
func Resolve(text string) Step {
	lower := strings.ToLower(text)

	for _, rule := range resolverRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.build(text)
			}
		}
	}

	return Step{
		Action:      ActionWait,
		Value:       "1000",
		Description: text,
	}
}

// extractTarget tries to derive an element locator from a fragment: a quoted
// substring wins, then a noun immediately preceding a UI-role word. Returns
// an exact-text locator ("text=...") or empty.
func extractTarget(text string) string {
	if m := quotedRe.FindStringSubmatch(text); m != nil {
		return "text=" + m[1]
	}

	if m := roleRe.FindStringSubmatch(text); m != nil {
		return "text=" + m[1]
	}

	return ""
}

// extractValue returns the quoted substring of a fragment, if any.
func extractValue(text string) string {
	if m := quotedRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}

	return ""
}

func targetOr(text, fallback string) string {
	if target := extractTarget(text); target != "" {
		return target
	}

	return fallback
}
