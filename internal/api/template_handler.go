package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resumeStudio/internal/editor"
	"resumeStudio/internal/shortcuts"
	"resumeStudio/internal/templates"
)

// TemplateHandler 负责导航：首页、模板选择页与编辑器页。
type TemplateHandler struct {
	editor *editor.Service
}

func NewTemplateHandler(svc *editor.Service) *TemplateHandler {
	return &TemplateHandler{editor: svc}
}

type selectTemplateRequest struct {
	TemplateID string `json:"template_id" binding:"required"`
}

type templateListResponse struct {
	Templates []templates.Template `json:"templates"`
	Selected  templates.ID         `json:"selected"`
}

type editorPageResponse struct {
	editor.View
	Templates []templates.Template `json:"templates"`
	Shortcuts []shortcuts.Binding  `json:"shortcuts"`
}

// GET /
// 首页引导用户先选择模板。
func (h *TemplateHandler) Root(c *gin.Context) {
	c.Redirect(http.StatusFound, "/templates")
}

// GET /templates
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, templateListResponse{
		Templates: h.editor.Templates(),
		Selected:  h.editor.SelectedTemplate(),
	})
}

// POST /templates/select
// 选择立即持久化，随后客户端跳转到编辑器。
func (h *TemplateHandler) SelectTemplate(c *gin.Context) {
	var req selectTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	id, err := templates.Parse(req.TemplateID)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := h.editor.SelectTemplate(c.Request.Context(), id); err != nil {
		if errors.Is(err, templates.ErrUnknownTemplate) {
			BadRequest(c, err.Error())
			return
		}
		Internal(c, "failed to save template selection")
		return
	}

	c.JSON(http.StatusOK, gin.H{"selected": id, "redirect": "/editor"})
}

// GET /editor
// 编辑器页面所需的全部状态：表单、保存状态、评分、校验、预览、模板切换与快捷键。
func (h *TemplateHandler) Editor(c *gin.Context) {
	c.JSON(http.StatusOK, editorPageResponse{
		View:      h.editor.View(),
		Templates: h.editor.Templates(),
		Shortcuts: h.editor.Bindings(),
	})
}
