package resume

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockSelector = "h1, h2, h3, h4, h5, h6, p, li, div"

var (
	emailInText = regexp.MustCompile(`[^\s@]+@[^\s@]+\.[^\s@]+`)
	phoneInText = regexp.MustCompile(`\+?\d[\d\s-]{8,}\d`)
	spaceRun    = regexp.MustCompile(`\s+`)
)

type block struct {
	text    string
	heading bool
	item    bool
}

// FromHTML 将富文本编辑器产出的 HTML 转换为离散字段。
//
// 第一个非章节标题（或首段文本）作为姓名，mailto 链接与邮箱/电话样式的文本填入联系方式，
// 名为 Education / Experience / Skills 的标题开启对应章节，其后的文本归入该章节。
// 技能列表项以 ", " 连接，其余章节按行连接。
func FromHTML(html string) ResumeData {
	var out ResumeData

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return out
	}

	blocks := collectBlocks(doc)
	if len(blocks) == 0 {
		for _, line := range strings.Split(doc.Text(), "\n") {
			if text := normalizeSpace(line); text != "" {
				blocks = append(blocks, block{text: text})
			}
		}
	}

	if href, ok := doc.Find(`a[href^="mailto:"]`).First().Attr("href"); ok {
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		out.Email = strings.TrimSpace(addr)
	}

	sections := map[string][]string{}
	items := map[string]bool{}
	current := ""
	for _, b := range blocks {
		if b.heading {
			if name := sectionFor(b.text); name != "" {
				current = name
				continue
			}
		}

		if current == "" {
			matched := false
			if m := emailInText.FindString(b.text); m != "" {
				matched = true
				if out.Email == "" {
					out.Email = m
				}
			}
			if m := phoneInText.FindString(b.text); m != "" {
				matched = true
				if out.Phone == "" {
					out.Phone = strings.TrimSpace(m)
				}
			}
			if !matched && out.Name == "" {
				out.Name = b.text
			}
			continue
		}

		sections[current] = append(sections[current], b.text)
		if b.item {
			items[current] = true
		}
	}

	out.Education = strings.Join(sections["education"], "\n")
	out.Experience = strings.Join(sections["experience"], "\n")
	if items["skills"] {
		out.Skills = strings.Join(sections["skills"], ", ")
	} else {
		out.Skills = strings.Join(sections["skills"], "\n")
	}
	return out
}

// collectBlocks 按文档顺序收集叶子块元素，嵌套的容器元素会被跳过。
func collectBlocks(doc *goquery.Document) []block {
	var blocks []block
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		if s.Find(blockSelector).Length() > 0 {
			return
		}
		text := normalizeSpace(s.Text())
		if text == "" {
			return
		}
		blocks = append(blocks, block{
			text:    text,
			heading: s.Is("h1, h2, h3, h4, h5, h6"),
			item:    s.Is("li") || s.ParentsFiltered("li").Length() > 0,
		})
	})
	return blocks
}

func sectionFor(heading string) string {
	h := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(heading), ":"))
	switch {
	case strings.Contains(h, "education"):
		return "education"
	case strings.Contains(h, "experience"), strings.Contains(h, "employment"), strings.Contains(h, "work history"):
		return "experience"
	case strings.Contains(h, "skill"):
		return "skills"
	}
	return ""
}

func normalizeSpace(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
