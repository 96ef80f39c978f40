package shortcuts

import "strings"

// Action 是快捷键触发的动作。
type Action string

const (
	ActionExportPDF  Action = "export-pdf"
	ActionExportJSON Action = "export-json"
)

// KeyEvent 是一次按键输入。
type KeyEvent struct {
	Key  string `json:"key"`
	Ctrl bool   `json:"ctrl"`
}

// Binding 将按键组合映射到动作。
type Binding struct {
	Key    string `json:"key"`
	Ctrl   bool   `json:"ctrl"`
	Action Action `json:"action"`
}

// Defaults 返回内置绑定：Ctrl+S 导出 PDF，Ctrl+E 导出 JSON。
func Defaults() []Binding {
	return []Binding{
		{Key: "s", Ctrl: true, Action: ActionExportPDF},
		{Key: "e", Ctrl: true, Action: ActionExportJSON},
	}
}

// Dispatcher 按绑定匹配按键。
type Dispatcher struct {
	bindings []Binding
}

// NewDispatcher 返回使用给定绑定的 Dispatcher，bindings 为空时使用 Defaults。
func NewDispatcher(bindings ...Binding) *Dispatcher {
	if len(bindings) == 0 {
		bindings = Defaults()
	}
	return &Dispatcher{bindings: bindings}
}

// Bindings 返回当前绑定的副本。
func (d *Dispatcher) Bindings() []Binding {
	out := make([]Binding, len(d.bindings))
	copy(out, d.bindings)
	return out
}

// Match 返回第一个匹配的动作。键名不区分大小写；
// 绑定要求 Ctrl 时事件必须带 Ctrl，不要求时 Ctrl 状态不影响匹配。
// 匹配成功意味着调用方应当吞掉该按键的默认行为。
func (d *Dispatcher) Match(ev KeyEvent) (Action, bool) {
	for _, b := range d.bindings {
		if strings.EqualFold(b.Key, ev.Key) && (!b.Ctrl || ev.Ctrl) {
			return b.Action, true
		}
	}
	return "", false
}
