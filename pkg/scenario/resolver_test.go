package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantAction Action
		wantTarget string
		wantValue  string
	}{
		{
			name:       "click with quoted target",
			text:       `"로그인" 버튼 클릭`,
			wantAction: ActionClick,
			wantTarget: "text=로그인",
		},
		{
			name:       "click with role noun target",
			text:       "로그인 버튼 클릭",
			wantAction: ActionClick,
			wantTarget: "text=로그인",
		},
		{
			name:       "click falls back to button",
			text:       "아무거나 클릭",
			wantAction: ActionClick,
			wantTarget: "button",
		},
		{
			name:       "fill with default value",
			text:       "이메일 입력",
			wantAction: ActionFill,
			wantTarget: "input",
			wantValue:  DefaultFillValue,
		},
		{
			name:       "fill with quoted value",
			text:       `검색창에 "hello" 입력`,
			wantAction: ActionFill,
			wantTarget: "text=hello",
			wantValue:  "hello",
		},
		{
			name:       "assert visible",
			text:       "결과 화면 확인",
			wantAction: ActionAssertVisible,
			wantTarget: "body",
		},
		{
			name:       "wait on loading",
			text:       "로딩 대기",
			wantAction: ActionWait,
			wantValue:  "2000",
		},
		{
			name:       "navigate with url",
			text:       "https://example.com/login 으로 이동",
			wantAction: ActionNavigate,
			wantTarget: "https://example.com/login",
		},
		{
			name:       "navigate without url",
			text:       "메인으로 이동",
			wantAction: ActionNavigate,
			wantTarget: "/",
		},
		{
			name:       "hover",
			text:       "프로필 메뉴에 마우스 호버",
			wantAction: ActionHover,
			wantTarget: "text=프로필",
		},
		{
			name:       "english click",
			text:       `click the "Submit" button`,
			wantAction: ActionClick,
			wantTarget: "text=Submit",
		},
		{
			name:       "unmatched falls back to wait",
			text:       "의미를 알 수 없는 문장",
			wantAction: ActionWait,
			wantValue:  "1000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := Resolve(tt.text)

			assert.Equal(t, tt.wantAction, step.Action)
			assert.Equal(t, tt.wantTarget, step.Target)
			assert.Equal(t, tt.wantValue, step.Value)
			assert.Equal(t, tt.text, step.Description)
		})
	}
}

func TestResolve_RuleOrder(t *testing.T) {
	// A fragment with both click and fill keywords resolves to click: the
	// click rule comes first.
	step := Resolve("입력 후 버튼 클릭")
	assert.Equal(t, ActionClick, step.Action)
}

func TestExtractTarget(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{`"저장" 버튼`, "text=저장"},
		{"저장 버튼", "text=저장"},
		{"링크 없는 문장", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, extractTarget(tt.text))
	}
}
