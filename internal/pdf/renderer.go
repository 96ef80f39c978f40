package pdf

import (
	"context"
	"fmt"

	"resumeStudio/internal/config"
)

// A4: 210mm x 297mm
const (
	a4WidthInches  = 8.27
	a4HeightInches = 11.69
)

// Renderer 将完整 HTML 文档渲染为 PDF。
type Renderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// New 按配置选择渲染引擎。
func New(cfg config.PDFConfig) (Renderer, error) {
	switch cfg.Engine {
	case config.EngineRod, "":
		return NewRodRenderer(cfg.Timeout, cfg.ChromePath), nil
	case config.EngineChromedp:
		return NewChromedpRenderer(cfg.Timeout, cfg.ChromePath), nil
	}
	return nil, fmt.Errorf("unsupported pdf engine %q", cfg.Engine)
}
