package richtext

import (
	"github.com/microcosm-cc/bluemonday"
)

// Editor 是富文本编辑能力的边界：输入任意 HTML，输出可以安全进入系统的 HTML。
type Editor interface {
	Render(html string) string
}

// Sanitizer 使用 bluemonday 的 UGC 策略清洗编辑器产出的 HTML，
// 保留标题、段落、列表与 mailto 链接，去掉脚本、样式与事件属性。
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer 返回默认策略的 Sanitizer。
func NewSanitizer() *Sanitizer {
	p := bluemonday.UGCPolicy()
	p.AllowURLSchemes("mailto", "http", "https")
	p.RequireNoFollowOnLinks(false)
	return &Sanitizer{policy: p}
}

// Render 实现 Editor。
func (s *Sanitizer) Render(html string) string {
	return s.policy.Sanitize(html)
}
