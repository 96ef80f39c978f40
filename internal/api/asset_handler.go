package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"

	"resumeStudio/internal/api/middleware"
	"resumeStudio/internal/avatar"
	"resumeStudio/internal/editor"
)

// ErrMalicious 表示扫描发现病毒特征。
var ErrMalicious = errors.New("malicious file detected")

// Scanner 在处理上传内容前做病毒扫描。
type Scanner interface {
	Scan(r io.Reader) error
}

// ClamdScanner 通过 clamd 的 INSTREAM 扫描上传内容。
type ClamdScanner struct {
	client *clamd.Clamd
}

// NewClamdScanner 返回连接到 addr（如 tcp://127.0.0.1:3310）的扫描器。
func NewClamdScanner(addr string) *ClamdScanner {
	return &ClamdScanner{client: clamd.NewClamd(addr)}
}

// Scan 读取完整的扫描结果；发现病毒时返回 ErrMalicious。
func (s *ClamdScanner) Scan(r io.Reader) error {
	abort := make(chan bool)
	defer close(abort)

	results, err := s.client.ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("scan stream: %w", err)
	}

	var scanErr error
	for res := range results {
		switch res.Status {
		case clamd.RES_OK:
		case clamd.RES_FOUND:
			scanErr = ErrMalicious
		default:
			if scanErr == nil {
				scanErr = fmt.Errorf("clamd returned %s: %s", res.Status, res.Description)
			}
		}
	}
	return scanErr
}

// AssetHandler 处理头像上传：扫描、居中裁剪后以 data URI 写入文档。
type AssetHandler struct {
	editor  *editor.Service
	scanner Scanner
}

// NewAssetHandler 返回 AssetHandler 实例，scanner 为空时跳过扫描。
func NewAssetHandler(svc *editor.Service, scanner Scanner) *AssetHandler {
	return &AssetHandler{editor: svc, scanner: scanner}
}

// POST /v1/resume/profile-picture
func (h *AssetHandler) UploadProfilePicture(c *gin.Context) {
	log := middleware.LoggerFromContext(c)

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if file.Size > avatar.MaxBytes {
		RequestTooLarge(c, avatar.ErrTooLarge.Error())
		return
	}

	if h.scanner != nil {
		reader, err := file.Open()
		if err != nil {
			Internal(c, "failed to open file")
			return
		}
		err = h.scanner.Scan(reader)
		reader.Close()
		if errors.Is(err, ErrMalicious) {
			log.Warn("rejected infected upload", slog.String("filename", file.Filename))
			BadRequest(c, ErrMalicious.Error())
			return
		}
		if err != nil {
			log.Error("scan file", slog.Any("error", err))
			Internal(c, "failed to scan file")
			return
		}
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to reopen file")
		return
	}
	defer reader.Close()

	dataURI, err := avatar.Process(reader)
	switch {
	case errors.Is(err, avatar.ErrTooLarge):
		RequestTooLarge(c, err.Error())
		return
	case errors.Is(err, avatar.ErrUnsupportedImage):
		BadRequest(c, err.Error())
		return
	case err != nil:
		log.Error("process profile picture", slog.Any("error", err))
		Internal(c, "failed to process image")
		return
	}

	view, err := h.editor.SetProfilePicture(dataURI)
	if err != nil {
		Internal(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, view)
}

// DELETE /v1/resume/profile-picture
func (h *AssetHandler) DeleteProfilePicture(c *gin.Context) {
	c.JSON(http.StatusOK, h.editor.ClearProfilePicture())
}
