package resume

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

// SchemaError 描述序列化文档未通过 JSON Schema 校验的字段。
type SchemaError struct {
	Errors []FieldError
}

// FieldError 表示单个字段的校验失败。
type FieldError struct {
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "invalid resume document: " + strings.Join(parts, "; ")
}

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	})
	return schema, schemaErr
}

// Decode 校验并反序列化一份文档，缺失的标量字段保持空字符串。
// 返回值未经 Canonicalize，调用方按需处理。
func Decode(data []byte) (ResumeData, error) {
	s, err := loadSchema()
	if err != nil {
		return ResumeData{}, fmt.Errorf("load resume schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return ResumeData{}, fmt.Errorf("parse resume document: %w", err)
	}
	if !result.Valid() {
		se := &SchemaError{}
		for _, re := range result.Errors() {
			se.Errors = append(se.Errors, FieldError{Field: re.Field(), Message: re.Description()})
		}
		return ResumeData{}, se
	}

	var d ResumeData
	if err := json.Unmarshal(data, &d); err != nil {
		return ResumeData{}, fmt.Errorf("decode resume document: %w", err)
	}
	return d, nil
}
