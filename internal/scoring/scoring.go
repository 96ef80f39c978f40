package scoring

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"resumeStudio/internal/resume"
	"resumeStudio/internal/validation"
)

// UnavailableSuggestion 是分析过程异常时返回的诊断提示。
const UnavailableSuggestion = "Resume analysis is temporarily unavailable"

// 各章节的满分阈值。
const (
	experienceWordTarget = 50
	educationWordTarget  = 30
	skillCountTarget     = 5
)

// ResumeScore 是一次完整性评分的结果。
type ResumeScore struct {
	Total       int            `json:"total"`
	Sections    map[string]int `json:"sections"`
	Suggestions []string       `json:"suggestions"`
}

type section struct {
	key   string
	score func(d resume.ResumeData) (float64, string)
}

// sections 的顺序决定建议的顺序：先是联系方式（不产生建议），再依次是 experience、education、skills。
var sections = []section{
	{key: "name", score: func(d resume.ResumeData) (float64, string) {
		return presence(d.Name != ""), ""
	}},
	{key: "email", score: func(d resume.ResumeData) (float64, string) {
		return presence(d.Email != "" && validation.ValidateEmail(d.Email)), ""
	}},
	{key: "phone", score: func(d resume.ResumeData) (float64, string) {
		return presence(d.Phone != "" && validation.ValidatePhone(d.Phone)), ""
	}},
	{key: "experience", score: func(d resume.ResumeData) (float64, string) {
		return wordScore(d.Experience, experienceWordTarget,
			"Add your work experience to show what you have accomplished",
			fmt.Sprintf("Expand your experience section to at least %d words", experienceWordTarget))
	}},
	{key: "education", score: func(d resume.ResumeData) (float64, string) {
		return wordScore(d.Education, educationWordTarget,
			"Add your education background",
			fmt.Sprintf("Expand your education section to at least %d words", educationWordTarget))
	}},
	{key: "skills", score: func(d resume.ResumeData) (float64, string) {
		n := len(SkillTokens(d.Skills))
		switch {
		case n == 0:
			return 0, "Add your skills as a comma-separated list"
		case n < skillCountTarget:
			return ratio(n, skillCountTarget), fmt.Sprintf("List at least %d skills", skillCountTarget)
		}
		return 100, ""
	}},
}

// Analyze 计算文档的完整性评分。纯函数，对任意输入都会返回结果；
// 分析过程中的 panic 会被恢复为 0 分加一条诊断建议。
func Analyze(d resume.ResumeData) (score ResumeScore) {
	defer func() {
		if r := recover(); r != nil {
			slog.Default().Error("resume analysis failed", slog.Any("panic", r))
			score = ResumeScore{
				Total:       0,
				Sections:    map[string]int{},
				Suggestions: []string{UnavailableSuggestion},
			}
		}
	}()

	score = ResumeScore{
		Sections:    make(map[string]int, len(sections)),
		Suggestions: []string{},
	}

	// 总分取未取整子分的平均值，Sections 中只保存取整后的展示值。
	var sum float64
	for _, s := range sections {
		value, suggestion := s.score(d)
		score.Sections[s.key] = int(math.Round(value))
		sum += value
		if suggestion != "" {
			score.Suggestions = append(score.Suggestions, suggestion)
		}
	}
	if len(sections) > 0 {
		score.Total = int(math.Round(sum / float64(len(sections))))
	}
	return score
}

// SkillTokens 以逗号切分技能文本，去除空白并丢弃空项。
func SkillTokens(skills string) []string {
	var out []string
	for _, tok := range strings.Split(skills, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func wordScore(text string, target int, emptyHint, shortHint string) (float64, string) {
	words := len(strings.Fields(text))
	switch {
	case words == 0:
		return 0, emptyHint
	case words < target:
		return ratio(words, target), shortHint
	}
	return 100, ""
}

func ratio(n, target int) float64 {
	if n >= target {
		return 100
	}
	return float64(n) / float64(target) * 100
}

func presence(ok bool) float64 {
	if ok {
		return 100
	}
	return 0
}
