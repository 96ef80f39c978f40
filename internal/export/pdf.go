package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/ledongthuc/pdf"

	"resumeStudio/internal/preview"
)

// Renderer 将完整 HTML 文档渲染为 PDF 字节。
type Renderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// PDF 渲染视图的打印页并交给 renderer 生成 PDF。
// 页数统计失败只记录日志，不影响导出。
func PDF(ctx context.Context, renderer Renderer, view preview.View, logger *slog.Logger) (*Download, error) {
	if logger == nil {
		logger = slog.Default()
	}

	html, err := preview.RenderHTML(view)
	if err != nil {
		return nil, err
	}

	data, err := renderer.RenderPDF(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	dl := newDownload(FormatPDF, data)
	pages, err := CountPages(data)
	if err != nil {
		logger.Warn("count pdf pages failed", slog.Any("error", err))
	} else {
		dl.Pages = pages
	}
	return dl, nil
}

// CountPages 返回 PDF 的页数。
func CountPages(data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	return reader.NumPage(), nil
}
