package preview

import (
	"resumeStudio/internal/resume"
	"resumeStudio/internal/templates"
)

// 空字段的占位文本。
const (
	NamePlaceholder       = "Your Name"
	EmailPlaceholder      = "Your Email"
	PhonePlaceholder      = "Your Phone"
	EducationPlaceholder  = "Your Education"
	ExperiencePlaceholder = "Your Experience"
	SkillsPlaceholder     = "Your Skills"
)

// Text 是带占位标记的展示文本。
type Text struct {
	Value       string `json:"value"`
	Placeholder bool   `json:"placeholder"`
}

// Header 是预览的页眉区域。
type Header struct {
	Name           Text   `json:"name"`
	Email          Text   `json:"email"`
	Phone          Text   `json:"phone"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// Section 是页眉之后的正文章节。
type Section struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Body  Text   `json:"body"`
}

// View 是模板无关的可渲染视图：页眉 + 固定顺序的 education、experience、skills。
type View struct {
	Template templates.Template `json:"template"`
	Header   Header             `json:"header"`
	Sections []Section          `json:"sections"`
}

// Project 将文档投影为指定模板下的视图。未知模板回退到默认模板；
// 富文本内容会先被转换为离散字段，因此只存在一条渲染路径。
func Project(d resume.ResumeData, id templates.ID) View {
	d = resume.Canonicalize(d)

	v := View{
		Template: templates.Resolve(id),
		Header: Header{
			Name:  text(d.Name, NamePlaceholder),
			Email: text(d.Email, EmailPlaceholder),
			Phone: text(d.Phone, PhonePlaceholder),
		},
		Sections: []Section{
			{Key: "education", Title: "Education", Body: text(d.Education, EducationPlaceholder)},
			{Key: "experience", Title: "Experience", Body: text(d.Experience, ExperiencePlaceholder)},
			{Key: "skills", Title: "Skills", Body: text(d.Skills, SkillsPlaceholder)},
		},
	}
	if d.ProfilePicture != nil {
		v.Header.ProfilePicture = *d.ProfilePicture
	}
	return v
}

func text(value, placeholder string) Text {
	if value == "" {
		return Text{Value: placeholder, Placeholder: true}
	}
	return Text{Value: value}
}
