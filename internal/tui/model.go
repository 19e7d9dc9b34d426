// Package tui is a terminal front end for browsing cases and running inspections.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	app "pcb-inspector/internal/application"
	"pcb-inspector/internal/domain/entity"
)

// LocalSession is the session id used by the terminal UI and the CLI.
const LocalSession int64 = 0

const wrapWidth = 76

// Viewer is the part of the view controller the UI drives.
type Viewer interface {
	Current(ctx context.Context, sessionID int64) (*app.View, error)
	Next(ctx context.Context, sessionID int64) (*app.View, error)
	Previous(ctx context.Context, sessionID int64) (*app.View, error)
	ToggleReference(ctx context.Context, sessionID int64) (*app.View, error)
	ToggleDefect(ctx context.Context, sessionID int64) (*app.View, error)
	RunInspection(ctx context.Context, sessionID int64) (*app.View, error)
}

type viewMsg struct{ view *app.View }

type errMsg struct{ err error }

// Model is the bubbletea model of the viewer.
type Model struct {
	ctx      context.Context
	viewer   Viewer
	view     *app.View
	err      error
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	styles   styles
	width    int
}

// New creates the model. ctx bounds every viewer call made by the UI.
func New(ctx context.Context, viewer Viewer) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	st := defaultStyles()
	sp.Style = st.Running

	// Fall back to plain text when the renderer cannot be built.
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(wrapWidth),
	)

	return Model{
		ctx:      ctx,
		viewer:   viewer,
		keys:     defaultKeys(),
		help:     help.New(),
		spinner:  sp,
		renderer: renderer,
		styles:   st,
		width:    wrapWidth,
	}
}

func (m Model) Init() tea.Cmd {
	return m.call(m.viewer.Current)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case viewMsg:
		m.view = msg.view
		m.err = nil
		m.keys.setRunning(m.view.Session.Running())
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if m.running() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case m.view == nil:
		return m, nil
	case key.Matches(msg, m.keys.Previous):
		return m, m.call(m.viewer.Previous)
	case key.Matches(msg, m.keys.Next):
		return m, m.call(m.viewer.Next)
	case key.Matches(msg, m.keys.Defect):
		return m, m.call(m.viewer.ToggleDefect)
	case key.Matches(msg, m.keys.Reference):
		return m, m.call(m.viewer.ToggleReference)
	case key.Matches(msg, m.keys.Run):
		// Show the running state right away; the command settles it.
		m.view = pending(m.view)
		m.keys.setRunning(true)
		return m, tea.Batch(m.spinner.Tick, m.call(m.viewer.RunInspection))
	}
	return m, nil
}

func (m Model) call(op func(context.Context, int64) (*app.View, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		view, err := op(ctx, LocalSession)
		if err != nil {
			return errMsg{err: err}
		}
		return viewMsg{view: view}
	}
}

func (m Model) running() bool {
	return m.view != nil && m.view.Session.Running()
}

func pending(v *app.View) *app.View {
	p := *v
	p.Session.Phase = entity.PhaseRunning
	p.Session.Report = ""
	p.Session.ErrorDetail = ""
	return &p
}

func (m Model) View() string {
	if m.view == nil {
		if m.err != nil {
			return m.styles.Failure.Render("错误: "+m.err.Error()) + "\n"
		}
		return m.styles.Muted.Render("加载中...") + "\n"
	}

	v := m.view
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("PCB 智能缺陷检测系统"))
	b.WriteString("\n\n")

	card := []string{
		fmt.Sprintf("案例 ID: %03d · %s (%d/%d)", v.Case.ID, v.Case.Name, v.Session.CaseIndex+1, v.Total),
	}
	if v.Case.Description != "" {
		card = append(card, "描述: "+v.Case.Description)
	}
	card = append(card,
		"",
		"待测原图  "+m.styles.Muted.Render(v.Case.PrimaryImage),
		m.overlayLine("缺陷标注", v.Session.ShowDefect, v.Case.DefectImage),
		m.overlayLine("标准真值", v.Session.ShowReference, v.Case.ReferenceImage),
	)
	b.WriteString(m.styles.Box.Render(strings.Join(card, "\n")))
	b.WriteString("\n\n")

	b.WriteString(m.statusLine())
	b.WriteString("\n")

	switch v.Session.Phase {
	case entity.PhaseCompleted:
		b.WriteString(m.renderReport(v.Session.Report))
	case entity.PhaseFailed:
		b.WriteString(m.styles.Failure.Render(v.Session.ErrorDetail))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(m.styles.Failure.Render("错误: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func (m Model) overlayLine(label string, on bool, ref string) string {
	if !on {
		return label + "  " + m.styles.Off.Render("隐藏")
	}
	return label + "  " + m.styles.On.Render("显示") + "  " + m.styles.Muted.Render(ref)
}

func (m Model) statusLine() string {
	switch m.view.Session.Phase {
	case entity.PhaseRunning:
		return m.spinner.View() + m.styles.Running.Render("正在智能分析...")
	case entity.PhaseCompleted:
		return m.styles.Success.Render("● 检测完成")
	case entity.PhaseFailed:
		return m.styles.Failure.Render("● 检测失败")
	default:
		return m.styles.Idle.Render("○ 就绪")
	}
}

func (m Model) renderReport(report string) string {
	if m.renderer == nil {
		return report + "\n"
	}
	out, err := m.renderer.Render(report)
	if err != nil {
		return report + "\n"
	}
	return out
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, viewer Viewer) error {
	_, err := tea.NewProgram(New(ctx, viewer), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
