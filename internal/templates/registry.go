package templates

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTemplate 表示模板 ID 不在注册表中。
var ErrUnknownTemplate = errors.New("unknown template")

// ID 是模板的封闭枚举。
type ID string

const (
	Minimal      ID = "minimal"
	Professional ID = "professional"
	Creative     ID = "creative"

	// Default 在未选择或选择非法时使用。
	Default = Minimal
)

// Style 描述模板的视觉参数，预览与 PDF 渲染共用。
type Style struct {
	FontFamily       string `json:"font_family"`
	NameSizePt       int    `json:"name_size_pt"`
	BodySizePt       int    `json:"body_size_pt"`
	AccentColor      string `json:"accent_color"`
	HeadingColor     string `json:"heading_color"`
	TextColor        string `json:"text_color"`
	HeadingTransform string `json:"heading_transform"`
	ShowDividers     bool   `json:"show_dividers"`
	HeaderAlign      string `json:"header_align"`
	ToolbarClass     string `json:"toolbar_class"`
}

// Template 是注册表中的一项。
type Template struct {
	ID          ID       `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	ClassName   string   `json:"class_name"`
	Style       Style    `json:"style"`
}

var registry = []Template{
	{
		ID:          Minimal,
		Name:        "Minimal",
		Description: "Clean and simple design perfect for any industry",
		Features:    []string{"Clean typography", "Simple layout", "Professional look"},
		ClassName:   "template-minimal",
		Style: Style{
			FontFamily:       "Helvetica, Arial, sans-serif",
			NameSizePt:       24,
			BodySizePt:       11,
			AccentColor:      "#666666",
			HeadingColor:     "#333333",
			TextColor:        "#444444",
			HeadingTransform: "none",
			HeaderAlign:      "left",
			ToolbarClass:     "toolbar-minimal",
		},
	},
	{
		ID:          Professional,
		Name:        "Professional",
		Description: "Corporate-style template with structured sections",
		Features:    []string{"Corporate design", "Structured layout", "Formal appearance"},
		ClassName:   "template-professional",
		Style: Style{
			FontFamily:       "Georgia, 'Times New Roman', serif",
			NameSizePt:       26,
			BodySizePt:       11,
			AccentColor:      "#1f3a5f",
			HeadingColor:     "#1f3a5f",
			TextColor:        "#222222",
			HeadingTransform: "uppercase",
			ShowDividers:     true,
			HeaderAlign:      "center",
			ToolbarClass:     "toolbar-professional",
		},
	},
	{
		ID:          Creative,
		Name:        "Creative",
		Description: "Modern and artistic layout for creative professionals",
		Features:    []string{"Modern design", "Color accents", "Creative layout"},
		ClassName:   "template-creative",
		Style: Style{
			FontFamily:       "'Trebuchet MS', Verdana, sans-serif",
			NameSizePt:       28,
			BodySizePt:       11,
			AccentColor:      "#d9480f",
			HeadingColor:     "#7048e8",
			TextColor:        "#343a40",
			HeadingTransform: "none",
			ShowDividers:     true,
			HeaderAlign:      "left",
			ToolbarClass:     "toolbar-creative",
		},
	},
}

// All 返回所有模板，顺序固定。
func All() []Template {
	out := make([]Template, len(registry))
	copy(out, registry)
	return out
}

// Lookup 按 ID 查找模板。
func Lookup(id ID) (Template, bool) {
	for _, t := range registry {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// Resolve 查找模板，找不到时回退到默认模板。
func Resolve(id ID) Template {
	if t, ok := Lookup(id); ok {
		return t
	}
	t, _ := Lookup(Default)
	return t
}

// Parse 将外部输入转换为合法 ID。
func Parse(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := Lookup(id); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, s)
	}
	return id, nil
}
