package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Previous  key.Binding
	Next      key.Binding
	Defect    key.Binding
	Reference key.Binding
	Run       key.Binding
	Quit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Previous:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "上一张")),
		Next:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "下一张")),
		Defect:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "缺陷标注")),
		Reference: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "标准真值")),
		Run:       key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "开始 AI 检测")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "退出")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Previous, k.Next, k.Defect, k.Reference, k.Run, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// setRunning disables the keys that are refused while an inspection runs.
func (k *keyMap) setRunning(running bool) {
	k.Previous.SetEnabled(!running)
	k.Next.SetEnabled(!running)
	k.Run.SetEnabled(!running)
}
