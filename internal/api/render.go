package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "pcb-inspector/internal/application"
	"pcb-inspector/internal/domain/entity"
)

// Callback data of the inline keyboard buttons.
const (
	actionPrevious  = "prev"
	actionNext      = "next"
	actionDefect    = "defect"
	actionReference = "reference"
	actionRun       = "run"
)

// Telegram rejects photo captions longer than this many characters.
const maxCaptionRunes = 1024

func isAction(data string) bool {
	switch data {
	case actionPrevious, actionNext, actionDefect, actionReference, actionRun:
		return true
	}
	return false
}

func statusLine(phase entity.AnalysisPhase) string {
	switch phase {
	case entity.PhaseRunning:
		return "⏳ 正在智能分析..."
	case entity.PhaseCompleted:
		return "🟢 检测完成"
	case entity.PhaseFailed:
		return "🔴 检测失败"
	default:
		return "⚪ 就绪"
	}
}

// caption renders the text under the target image.
func caption(v *app.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "案例 ID: %03d · %s (%d/%d)\n", v.Case.ID, v.Case.Name, v.Session.CaseIndex+1, v.Total)
	if v.Case.Description != "" {
		fmt.Fprintf(&b, "描述: %s\n", v.Case.Description)
	}
	b.WriteString(statusLine(v.Session.Phase))

	switch v.Session.Phase {
	case entity.PhaseCompleted:
		b.WriteString("\n\n📋 " + v.Session.Report)
	case entity.PhaseFailed:
		b.WriteString("\n\n⚠️ " + v.Session.ErrorDetail)
	}
	return truncate(b.String(), maxCaptionRunes)
}

// keyboard renders the control buttons for the current state.
func keyboard(v *app.View) tgbotapi.InlineKeyboardMarkup {
	defect := "🔍 显示缺陷"
	if v.Session.ShowDefect {
		defect = "🙈 隐藏缺陷"
	}
	reference := "👁 显示真值"
	if v.Session.ShowReference {
		reference = "🙈 隐藏真值"
	}
	run := "✅ 开始 AI 检测"
	if v.Session.Running() {
		run = "⏳ 正在智能分析..."
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀ 上一张", actionPrevious),
			tgbotapi.NewInlineKeyboardButtonData("下一张 ▶", actionNext),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(defect, actionDefect),
			tgbotapi.NewInlineKeyboardButtonData(reference, actionReference),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(run, actionRun),
		),
	)
}

func overlayCaption(kind entity.ImageKind, tc entity.TestCase) string {
	switch kind {
	case entity.ImageDefect:
		return fmt.Sprintf("缺陷标注 (Defect) · %s", tc.Name)
	case entity.ImageReference:
		return fmt.Sprintf("标准真值 (Reference) · %s", tc.Name)
	default:
		return fmt.Sprintf("待测原图 (Target) · %s", tc.Name)
	}
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
