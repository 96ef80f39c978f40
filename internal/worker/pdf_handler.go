package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"resumeStudio/internal/errcode"
	"resumeStudio/internal/export"
	"resumeStudio/internal/preview"
	"resumeStudio/internal/storage"
	"resumeStudio/internal/tasks"
	"resumeStudio/internal/templates"
)

// Notifier 发布导出结果。
type Notifier interface {
	Publish(ctx context.Context, msg ExportNotifyMessage) error
}

// PDFTaskHandler 消费异步 PDF 导出任务：渲染、上传对象存储并通知客户端。
type PDFTaskHandler struct {
	renderer export.Renderer
	uploader storage.Uploader
	notifier Notifier
	linkTTL  time.Duration
	logger   *slog.Logger
}

// NewPDFTaskHandler 创建任务处理器。
func NewPDFTaskHandler(renderer export.Renderer, uploader storage.Uploader, notifier Notifier, linkTTL time.Duration, logger *slog.Logger) *PDFTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFTaskHandler{
		renderer: renderer,
		uploader: uploader,
		notifier: notifier,
		linkTTL:  linkTTL,
		logger:   logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *PDFTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	payload, err := tasks.ParsePDFExportPayload(t)
	if err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("template", string(payload.TemplateID)),
	)
	log.Info("starting pdf export task")

	defer func() {
		if retErr == nil || !isFinalAsynqAttempt(ctx) {
			return
		}
		notify := ExportNotifyMessage{
			Status:        NotifyError,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.notifier.Publish(ctx, notify); err != nil {
			log.Error("publish pdf error notification failed", slog.Any("error", err))
		}
	}()

	view := preview.Project(payload.Document, payload.TemplateID)
	dl, err := export.PDF(ctx, h.renderer, view, log)
	if err != nil {
		log.Error("render pdf failed", slog.Any("error", err))
		return err
	}

	artifact, err := storage.PublishExport(ctx, h.uploader, dl, h.linkTTL)
	if err != nil {
		log.Error("upload pdf failed", slog.Any("error", err))
		return err
	}

	notify := ExportNotifyMessage{
		Status:        NotifyCompleted,
		CorrelationID: payload.CorrelationID,
		URL:           artifact.URL,
		ObjectKey:     artifact.ObjectKey,
		Pages:         dl.Pages,
		ErrorCode:     errcode.OK,
	}
	if _, ok := templates.Lookup(payload.TemplateID); !ok {
		notify.ErrorCode = errcode.UnknownTemplate
		notify.ErrorMessage = fmt.Sprintf("unknown template %q, rendered with %q", payload.TemplateID, view.Template.ID)
		log.Warn("pdf rendered with fallback template", slog.String("fallback", string(view.Template.ID)))
	}
	if err := h.notifier.Publish(ctx, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("pdf export task completed",
		slog.String("object_key", artifact.ObjectKey),
		slog.Int("pages", dl.Pages),
	)
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
