package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"resumeStudio/internal/resume"
)

// ErrUnknownFormat 表示不支持的导出格式。
var ErrUnknownFormat = errors.New("unknown export format")

// Format 是导出格式，取值同时作为文件扩展名。
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
)

// ContentType 返回格式对应的 MIME 类型。
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Filename 返回下载文件名。
func (f Format) Filename() string {
	return "resume." + string(f)
}

// ParseFormat 解析外部输入的格式名。
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatText, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Download 是一次导出的产物。
type Download struct {
	Format      Format `json:"format"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
	Pages       int    `json:"pages,omitempty"`
}

func newDownload(f Format, data []byte) *Download {
	return &Download{
		Format:      f,
		Filename:    f.Filename(),
		ContentType: f.ContentType(),
		Data:        data,
	}
}

// JSON 以两空格缩进序列化文档，结果可以通过 resume.Decode 还原为相等的值。
func JSON(d resume.ResumeData) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode resume json: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Text 按字段声明顺序输出 "KEY\nvalue\n"，各项之间以换行分隔。
// 头像会以 data URI 原样输出。
func Text(d resume.ResumeData) []byte {
	fields := d.Fields()
	entries := make([]string, 0, len(fields))
	for _, f := range fields {
		entries = append(entries, strings.ToUpper(f.Key)+"\n"+f.Value+"\n")
	}
	return []byte(strings.Join(entries, "\n"))
}

// JSONDownload 构造 JSON 导出产物。
func JSONDownload(d resume.ResumeData) (*Download, error) {
	data, err := JSON(d)
	if err != nil {
		return nil, err
	}
	return newDownload(FormatJSON, data), nil
}

// TextDownload 构造纯文本导出产物。
func TextDownload(d resume.ResumeData) *Download {
	return newDownload(FormatText, Text(d))
}
