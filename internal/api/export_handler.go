package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"resumeStudio/internal/api/middleware"
	"resumeStudio/internal/editor"
	"resumeStudio/internal/export"
	"resumeStudio/internal/shortcuts"
	"resumeStudio/internal/tasks"
)

const (
	pdfJobMaxRetry = 3
	pdfJobTimeout  = 2 * time.Minute
)

// ExportHandler 负责同步下载、快捷键触发的导出与异步 PDF 任务。
type ExportHandler struct {
	editor *editor.Service
	queue  Enqueuer
}

func NewExportHandler(svc *editor.Service, queue Enqueuer) *ExportHandler {
	return &ExportHandler{editor: svc, queue: queue}
}

// GET /v1/export/:format
func (h *ExportHandler) Download(c *gin.Context) {
	format, err := export.ParseFormat(c.Param("format"))
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	dl, err := h.editor.Export(c.Request.Context(), format)
	if err != nil {
		h.exportFailed(c, format, err)
		return
	}
	writeDownload(c, dl)
}

// POST /v1/shortcuts
// 未绑定的按键返回 handled=false，客户端保留浏览器默认行为。
func (h *ExportHandler) HandleShortcut(c *gin.Context) {
	var ev shortcuts.KeyEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		BadRequest(c, err.Error())
		return
	}

	result, err := h.editor.HandleKey(c.Request.Context(), ev)
	if err != nil {
		h.exportFailed(c, actionFormat(result.Action), err)
		return
	}
	if !result.Handled || result.Download == nil {
		c.JSON(http.StatusOK, gin.H{"handled": result.Handled, "action": result.Action})
		return
	}

	c.Header("X-Shortcut-Action", string(result.Action))
	writeDownload(c, result.Download)
}

// POST /v1/export/pdf/jobs
// 对当前快照投递异步导出任务，结果通过 /v1/ws 推送。
func (h *ExportHandler) EnqueuePDF(c *gin.Context) {
	if h.queue == nil {
		ServiceUnavailable(c, "export queue disabled")
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	view := h.editor.View()
	task, err := tasks.NewPDFExportTask(view.Document, view.Template, correlationID)
	if err != nil {
		Internal(c, "failed to build export task")
		return
	}

	info, err := h.queue.EnqueueContext(c.Request.Context(), task,
		asynq.Queue(tasks.QueueExports),
		asynq.MaxRetry(pdfJobMaxRetry),
		asynq.Timeout(pdfJobTimeout),
	)
	if err != nil {
		middleware.LoggerFromContext(c).Error("enqueue pdf export failed", slog.Any("error", err))
		Internal(c, "failed to enqueue export")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id":        info.ID,
		"correlation_id": correlationID,
	})
}

func (h *ExportHandler) exportFailed(c *gin.Context, format export.Format, err error) {
	if errors.Is(err, editor.ErrNoRenderer) {
		ServiceUnavailable(c, err.Error())
		return
	}
	middleware.LoggerFromContext(c).Error("export failed",
		slog.String("format", string(format)),
		slog.Any("error", err),
	)
	Internal(c, "export failed")
}

func writeDownload(c *gin.Context, dl *export.Download) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Filename))
	if dl.Pages > 0 {
		c.Header("X-Page-Count", strconv.Itoa(dl.Pages))
	}
	c.Data(http.StatusOK, dl.ContentType, dl.Data)
}

func actionFormat(a shortcuts.Action) export.Format {
	switch a {
	case shortcuts.ActionExportPDF:
		return export.FormatPDF
	case shortcuts.ActionExportJSON:
		return export.FormatJSON
	}
	return ""
}
