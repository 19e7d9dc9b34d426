package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	app "pcb-inspector/internal/application"
	"pcb-inspector/internal/domain/entity"
)

func testView(phase entity.AnalysisPhase) *app.View {
	s := entity.NewSession(1)
	s.Phase = phase
	return &app.View{
		Session: *s,
		Case:    entity.TestCase{ID: 2, Name: "Case #002", Description: "对称布线差分对"},
		Total:   4,
	}
}

func TestCaption(t *testing.T) {
	tests := []struct {
		name   string
		phase  entity.AnalysisPhase
		report string
		detail string
		want   []string
	}{
		{name: "idle", phase: entity.PhaseIdle, want: []string{"案例 ID: 002", "(1/4)", "描述: 对称布线差分对", "就绪"}},
		{name: "running", phase: entity.PhaseRunning, want: []string{"正在智能分析"}},
		{name: "completed", phase: entity.PhaseCompleted, report: "no defects", want: []string{"检测完成", "no defects"}},
		{name: "failed", phase: entity.PhaseFailed, detail: "rate limited", want: []string{"检测失败", "rate limited"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testView(tt.phase)
			v.Session.Report = tt.report
			v.Session.ErrorDetail = tt.detail

			got := caption(v)
			for _, want := range tt.want {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestCaption_TruncatesLongReport(t *testing.T) {
	v := testView(entity.PhaseCompleted)
	v.Session.Report = strings.Repeat("缺", 5000)

	got := caption(v)
	assert.Equal(t, maxCaptionRunes, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestKeyboard(t *testing.T) {
	v := testView(entity.PhaseIdle)
	kb := keyboard(v)
	assert.Len(t, kb.InlineKeyboard, 3)
	assert.Equal(t, "🔍 显示缺陷", kb.InlineKeyboard[1][0].Text)
	assert.Equal(t, "👁 显示真值", kb.InlineKeyboard[1][1].Text)
	assert.Equal(t, "✅ 开始 AI 检测", kb.InlineKeyboard[2][0].Text)

	v.Session.ShowDefect = true
	v.Session.ShowReference = true
	v.Session.Phase = entity.PhaseRunning
	kb = keyboard(v)
	assert.Equal(t, "🙈 隐藏缺陷", kb.InlineKeyboard[1][0].Text)
	assert.Equal(t, "🙈 隐藏真值", kb.InlineKeyboard[1][1].Text)
	assert.Equal(t, "⏳ 正在智能分析...", kb.InlineKeyboard[2][0].Text)

	for _, row := range kb.InlineKeyboard {
		for _, button := range row {
			if assert.NotNil(t, button.CallbackData) {
				assert.True(t, isAction(*button.CallbackData))
			}
		}
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab…", truncate("abcd", 3))
}
