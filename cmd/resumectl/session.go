package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"resumeStudio/internal/config"
	"resumeStudio/internal/editor"
	"resumeStudio/internal/localstore"
	"resumeStudio/internal/logging"
	"resumeStudio/internal/pdf"
)

// session 是一次命令执行期间打开的编辑会话。
var session struct {
	editor       *editor.Service
	closeStorage func() error
}

func openSession(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.Log, os.Stderr)

	storage, closeStorage, err := localstore.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	renderer, err := pdf.New(cfg.PDF)
	if err != nil {
		_ = closeStorage()
		return fmt.Errorf("init pdf renderer: %w", err)
	}

	session.editor = editor.New(ctx, storage, editor.WithRenderer(renderer), editor.WithLogger(logger))
	session.closeStorage = closeStorage
	return nil
}

// closeSession 写入未保存的修改并释放存储连接。
func closeSession(ctx context.Context) error {
	if session.editor == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	err := session.editor.Close(ctx)
	if cerr := session.closeStorage(); cerr != nil && err == nil {
		err = cerr
	}
	session.editor = nil
	if err != nil {
		return fmt.Errorf("save resume: %w", err)
	}
	return nil
}

func closeQuietly() {
	if err := closeSession(context.Background()); err != nil {
		slog.Error("close session failed", slog.Any("error", err))
	}
}
