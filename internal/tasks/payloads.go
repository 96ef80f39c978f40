package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"resumeStudio/internal/resume"
	"resumeStudio/internal/templates"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypePDFExport = "pdf:export"
)

// QueueExports 是导出任务使用的队列名。
const QueueExports = "exports"

// PDFExportPayload 携带导出时刻的文档快照，worker 不访问编辑器的本地存储。
type PDFExportPayload struct {
	Document      resume.ResumeData `json:"document"`
	TemplateID    templates.ID      `json:"template_id"`
	CorrelationID string            `json:"correlation_id"`
}

// NewPDFExportTask 构造一个新的 PDF 导出任务。
func NewPDFExportTask(doc resume.ResumeData, templateID templates.ID, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(PDFExportPayload{
		Document:      doc,
		TemplateID:    templateID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal pdf export payload: %w", err)
	}
	return asynq.NewTask(TypePDFExport, payload), nil
}

// ParsePDFExportPayload 解析任务负载。
func ParsePDFExportPayload(t *asynq.Task) (PDFExportPayload, error) {
	var p PDFExportPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("unmarshal pdf export payload: %w", err)
	}
	return p, nil
}
