package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"resumeStudio/internal/api/middleware"
	"resumeStudio/internal/editor"
	"resumeStudio/internal/preview"
	"resumeStudio/internal/resume"
)

// maxDocumentBytes 限制 JSON 导入与 HTML 导入的请求体大小（头像以 data URI 内嵌）。
const maxDocumentBytes = 8 << 20

// EditorHandler 暴露文档编辑、评分、校验与预览接口。
type EditorHandler struct {
	editor *editor.Service
}

func NewEditorHandler(svc *editor.Service) *EditorHandler {
	return &EditorHandler{editor: svc}
}

type importHTMLRequest struct {
	HTML string `json:"html"`
}

// GET /v1/resume
func (h *EditorHandler) GetResume(c *gin.Context) {
	c.JSON(http.StatusOK, h.editor.View())
}

// PATCH /v1/resume
// 只修改请求中出现的字段，保存在 1 秒防抖后进行，响应中的 save_status 为 saving。
func (h *EditorHandler) PatchResume(c *gin.Context) {
	var p resume.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if p.IsEmpty() {
		BadRequest(c, "empty patch")
		return
	}
	if p.ProfilePicture != nil && !resume.IsImageDataURI(*p.ProfilePicture) {
		Unprocessable(c, editor.ErrInvalidPicture.Error())
		return
	}
	c.JSON(http.StatusOK, h.editor.Update(p))
}

// PUT /v1/resume/html
// 富文本编辑器提交的 HTML 会被清洗并转换为离散字段。
func (h *EditorHandler) ImportHTML(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxDocumentBytes)

	var req importHTMLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, h.editor.ImportHTML(req.HTML))
}

// POST /v1/resume/import
// 请求体为导出的 JSON 文档。
func (h *EditorHandler) ImportJSON(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxDocumentBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RequestTooLarge(c, "document too large")
			return
		}
		BadRequest(c, "failed to read body")
		return
	}

	view, err := h.editor.ImportJSON(body)
	if err != nil {
		var se *resume.SchemaError
		if errors.As(err, &se) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid resume document", "fields": se.Errors})
			return
		}
		middleware.LoggerFromContext(c).Info("import rejected", slog.Any("error", err))
		BadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, view)
}

// GET /v1/resume/score
func (h *EditorHandler) GetScore(c *gin.Context) {
	c.JSON(http.StatusOK, h.editor.View().Score)
}

// GET /v1/resume/validation
func (h *EditorHandler) GetValidation(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"errors": h.editor.View().Errors})
}

// GET /v1/preview
func (h *EditorHandler) GetPreview(c *gin.Context) {
	c.JSON(http.StatusOK, h.editor.View().Preview)
}

// GET /v1/preview/html
// 返回与 PDF 导出一致的打印页。
func (h *EditorHandler) GetPreviewHTML(c *gin.Context) {
	html, err := preview.RenderHTML(h.editor.View().Preview)
	if err != nil {
		middleware.LoggerFromContext(c).Error("render preview html failed", slog.Any("error", err))
		Internal(c, "failed to render preview")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
