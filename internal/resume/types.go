package resume

import (
	"encoding/base64"
	"strings"
)

// 持久化存储中使用的键名。
const (
	StorageKey        = "resumeData"
	LegacyStorageKey  = "resumeContent"
	TemplateKey       = "selectedTemplate"
	dataURIPrefix     = "data:image/"
	dataURIBase64Mark = ";base64,"
)

// ResumeData 表示一份简历的规范化内容。
// 六个标量字段始终存在（默认空字符串），ProfilePicture 与 HTMLContent 为可选字段。
type ResumeData struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	Education      string  `json:"education"`
	Experience     string  `json:"experience"`
	Skills         string  `json:"skills"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
	HTMLContent    *string `json:"htmlContent,omitempty"`
}

// Default 返回空白简历。
func Default() ResumeData {
	return ResumeData{}
}

// Patch 描述一次局部修改，nil 字段保持原值。
type Patch struct {
	Name                *string `json:"name,omitempty"`
	Email               *string `json:"email,omitempty"`
	Phone               *string `json:"phone,omitempty"`
	Education           *string `json:"education,omitempty"`
	Experience          *string `json:"experience,omitempty"`
	Skills              *string `json:"skills,omitempty"`
	ProfilePicture      *string `json:"profilePicture,omitempty"`
	HTMLContent         *string `json:"htmlContent,omitempty"`
	ClearProfilePicture bool    `json:"clearProfilePicture,omitempty"`
}

// IsEmpty 判断补丁是否不包含任何修改。
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil &&
		p.Education == nil && p.Experience == nil && p.Skills == nil &&
		p.ProfilePicture == nil && p.HTMLContent == nil && !p.ClearProfilePicture
}

// Apply 在 d 的副本上应用补丁并返回新值，d 本身不会被修改。
func (p Patch) Apply(d ResumeData) ResumeData {
	next := d.Clone()
	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	assign(&next.Name, p.Name)
	assign(&next.Email, p.Email)
	assign(&next.Phone, p.Phone)
	assign(&next.Education, p.Education)
	assign(&next.Experience, p.Experience)
	assign(&next.Skills, p.Skills)

	if p.ClearProfilePicture {
		next.ProfilePicture = nil
	}
	if p.ProfilePicture != nil {
		next.ProfilePicture = stringPtr(*p.ProfilePicture)
	}
	if p.HTMLContent != nil {
		next.HTMLContent = stringPtr(*p.HTMLContent)
	}
	return next
}

// Clone 返回深拷贝，避免可选字段的指针在多个快照之间共享。
func (d ResumeData) Clone() ResumeData {
	out := d
	if d.ProfilePicture != nil {
		out.ProfilePicture = stringPtr(*d.ProfilePicture)
	}
	if d.HTMLContent != nil {
		out.HTMLContent = stringPtr(*d.HTMLContent)
	}
	return out
}

// Field 是按声明顺序排列的顶层字段。
type Field struct {
	Key   string
	Value string
}

// Fields 按声明顺序返回所有存在的顶层字段，缺省的可选字段会被跳过。
func (d ResumeData) Fields() []Field {
	fields := []Field{
		{Key: "name", Value: d.Name},
		{Key: "email", Value: d.Email},
		{Key: "phone", Value: d.Phone},
		{Key: "education", Value: d.Education},
		{Key: "experience", Value: d.Experience},
		{Key: "skills", Value: d.Skills},
	}
	if d.ProfilePicture != nil {
		fields = append(fields, Field{Key: "profilePicture", Value: *d.ProfilePicture})
	}
	if d.HTMLContent != nil {
		fields = append(fields, Field{Key: "htmlContent", Value: *d.HTMLContent})
	}
	return fields
}

// IsImageDataURI 判断 s 是否为自包含的 base64 图片 data URI。
func IsImageDataURI(s string) bool {
	if !strings.HasPrefix(s, dataURIPrefix) {
		return false
	}
	idx := strings.Index(s, dataURIBase64Mark)
	if idx <= len(dataURIPrefix) {
		return false
	}
	payload := s[idx+len(dataURIBase64Mark):]
	if payload == "" {
		return false
	}
	_, err := base64.StdEncoding.DecodeString(payload)
	return err == nil
}

// Canonicalize 将文档收敛为唯一的规范表示：
// 富文本 HTMLContent 会被转换为离散字段（只填充空字段）后清除，
// 非法的头像值会被丢弃。
func Canonicalize(d ResumeData) ResumeData {
	out := d.Clone()
	if out.ProfilePicture != nil && !IsImageDataURI(*out.ProfilePicture) {
		out.ProfilePicture = nil
	}
	if out.HTMLContent == nil {
		return out
	}

	html := *out.HTMLContent
	out.HTMLContent = nil
	if strings.TrimSpace(html) == "" {
		return out
	}

	converted := FromHTML(html)
	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = src
		}
	}
	fill(&out.Name, converted.Name)
	fill(&out.Email, converted.Email)
	fill(&out.Phone, converted.Phone)
	fill(&out.Education, converted.Education)
	fill(&out.Experience, converted.Experience)
	fill(&out.Skills, converted.Skills)
	return out
}

func stringPtr(s string) *string {
	return &s
}
