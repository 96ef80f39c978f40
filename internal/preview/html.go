package preview

import (
	"bytes"
	"fmt"
	"html/template"

	"resumeStudio/internal/resume"
)

// printTemplate 渲染 A4 打印页，样式参数来自模板的 Style。
// 占位文本不会出现在打印输出中。
const printTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{if not .Header.Name.Placeholder}}{{.Header.Name.Value}}{{else}}Resume{{end}}</title>
    <style>
        @page { size: A4; margin: 0; }
        body {
            margin: 0;
            font-family: {{.Template.Style.FontFamily | safeCSS}};
            font-size: {{.Template.Style.BodySizePt}}pt;
            color: {{.Template.Style.TextColor | safeCSS}};
        }
        .a4-page {
            width: 794px; /* A4 @ 96 DPI */
            min-height: 1122px;
            padding: 40px;
            box-sizing: border-box;
        }
        .header {
            display: flex;
            justify-content: space-between;
            align-items: center;
            text-align: {{.Template.Style.HeaderAlign | safeCSS}};
            margin-bottom: 20px;
        }
        .name { font-size: {{.Template.Style.NameSizePt}}pt; font-weight: bold; margin: 0 0 8px 0; }
        .contact { font-size: 10pt; color: {{.Template.Style.AccentColor | safeCSS}}; margin: 2px 0; }
        .profile-picture { width: 100px; height: 100px; border-radius: 50%; object-fit: cover; }
        .section { margin-bottom: 16px; }
        .section-title {
            font-size: 14pt;
            font-weight: bold;
            color: {{.Template.Style.HeadingColor | safeCSS}};
            text-transform: {{.Template.Style.HeadingTransform | safeCSS}};
            margin: 0 0 6px 0;
            {{if .Template.Style.ShowDividers}}border-bottom: 1px solid {{.Template.Style.AccentColor | safeCSS}};{{end}}
        }
        .content { white-space: pre-wrap; line-height: 1.5; }
    </style>
</head>
<body>
    <div class="a4-page {{.Template.ClassName}}">
        <div class="header">
            <div class="header-text">
                {{with .Header.Name}}{{if not .Placeholder}}<h1 class="name">{{.Value}}</h1>{{end}}{{end}}
                {{with .Header.Email}}{{if not .Placeholder}}<p class="contact">{{.Value}}</p>{{end}}{{end}}
                {{with .Header.Phone}}{{if not .Placeholder}}<p class="contact">{{.Value}}</p>{{end}}{{end}}
            </div>
            {{with .Header.ProfilePicture}}<img class="profile-picture" src="{{. | safeURL}}" alt="Profile picture" />{{end}}
        </div>
        {{range .Sections}}
        <div class="section section-{{.Key}}">
            <h2 class="section-title">{{.Title}}</h2>
            {{if not .Body.Placeholder}}<div class="content">{{.Body.Value}}</div>{{end}}
        </div>
        {{end}}
    </div>
</body>
</html>
`

var pageTemplate = template.Must(template.New("resume").Funcs(template.FuncMap{
	"safeCSS": func(s string) template.CSS { return template.CSS(s) },
	"safeURL": func(s string) template.URL {
		if !resume.IsImageDataURI(s) {
			return ""
		}
		return template.URL(s)
	},
}).Parse(printTemplate))

// RenderHTML 将视图渲染为可打印的完整 HTML 文档。
func RenderHTML(v View) (string, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("execute print template: %w", err)
	}
	return buf.String(), nil
}
