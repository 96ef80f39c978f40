package editor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"resumeStudio/internal/export"
	"resumeStudio/internal/localstore"
	"resumeStudio/internal/metrics"
	"resumeStudio/internal/preview"
	"resumeStudio/internal/resume"
	"resumeStudio/internal/richtext"
	"resumeStudio/internal/scoring"
	"resumeStudio/internal/shortcuts"
	"resumeStudio/internal/store"
	"resumeStudio/internal/templates"
	"resumeStudio/internal/validation"
)

var (
	// ErrInvalidPicture 表示头像不是自包含的图片 data URI。
	ErrInvalidPicture = errors.New("profile picture must be an image data URI")
	// ErrNoRenderer 表示未配置 PDF 渲染器。
	ErrNoRenderer = errors.New("pdf renderer not configured")
)

// View 是编辑器界面需要的全部状态，每次变更后重新计算。
type View struct {
	Document    resume.ResumeData   `json:"document"`
	SaveStatus  store.Status        `json:"save_status"`
	LastSavedAt *time.Time          `json:"last_saved_at,omitempty"`
	LastError   string              `json:"last_error,omitempty"`
	Score       scoring.ResumeScore `json:"score"`
	Errors      validation.Errors   `json:"errors"`
	Preview     preview.View        `json:"preview"`
	Template    templates.ID        `json:"template"`
}

// KeyResult 是一次按键分发的结果。Handled 为 true 时调用方应吞掉按键默认行为。
type KeyResult struct {
	Handled  bool             `json:"handled"`
	Action   shortcuts.Action `json:"action,omitempty"`
	Download *export.Download `json:"download,omitempty"`
}

// Option 配置 Service。
type Option func(*Service)

// WithRenderer 设置 PDF 渲染器。
func WithRenderer(r export.Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithRichText 替换富文本编辑能力。
func WithRichText(e richtext.Editor) Option {
	return func(s *Service) { s.richtext = e }
}

// WithDispatcher 替换快捷键绑定。
func WithDispatcher(d *shortcuts.Dispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
}

// WithLogger 设置日志记录器。
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithStoreOptions 透传给 store.Open 的选项。
func WithStoreOptions(opts ...store.Option) Option {
	return func(s *Service) { s.storeOpts = append(s.storeOpts, opts...) }
}

// Service 是编辑会话：持有文档存储、所选模板与导出能力，HTTP、WebSocket 与 CLI 都通过它操作。
type Service struct {
	storage    localstore.Storage
	store      *store.Store
	renderer   export.Renderer
	richtext   richtext.Editor
	dispatcher *shortcuts.Dispatcher
	logger     *slog.Logger
	storeOpts  []store.Option

	mu       sync.RWMutex
	template templates.ID
	subs     map[uint64]func(View)
	nextSub  uint64

	flight      singleflight.Group
	cancelStore func()
}

// New 加载文档与模板选择并返回 Service。
func New(ctx context.Context, storage localstore.Storage, opts ...Option) *Service {
	s := &Service{
		storage:    storage,
		richtext:   richtext.NewSanitizer(),
		dispatcher: shortcuts.NewDispatcher(),
		logger:     slog.Default(),
		subs:       map[uint64]func(View){},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.template = s.loadTemplate(ctx)
	s.store = store.Open(ctx, storage, append([]store.Option{store.WithLogger(s.logger)}, s.storeOpts...)...)
	s.cancelStore = s.store.Subscribe(func(snap store.Snapshot) {
		s.broadcast(s.buildView(snap))
	})
	return s
}

func (s *Service) loadTemplate(ctx context.Context) templates.ID {
	raw, err := s.storage.Get(ctx, resume.TemplateKey)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			s.logger.Warn("load selected template failed", slog.Any("error", err))
		}
		return templates.Default
	}
	id, err := templates.Parse(raw)
	if err != nil {
		s.logger.Warn("stored template is unknown, using default", slog.String("template", raw))
		return templates.Default
	}
	return id
}

// Templates 返回模板列表。
func (s *Service) Templates() []templates.Template {
	return templates.All()
}

// SelectedTemplate 返回当前模板。
func (s *Service) SelectedTemplate() templates.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.template
}

// SelectTemplate 立即持久化模板选择，它是进入编辑器的前置步骤。
func (s *Service) SelectTemplate(ctx context.Context, id templates.ID) error {
	if _, ok := templates.Lookup(id); !ok {
		return fmt.Errorf("%w: %q", templates.ErrUnknownTemplate, id)
	}
	if err := s.storage.Set(ctx, resume.TemplateKey, string(id)); err != nil {
		return fmt.Errorf("save selected template: %w", err)
	}

	s.mu.Lock()
	s.template = id
	s.mu.Unlock()

	s.broadcast(s.View())
	return nil
}

// View 返回当前视图。
func (s *Service) View() View {
	return s.buildView(s.store.Snapshot())
}

// Update 应用局部修改。
func (s *Service) Update(p resume.Patch) View {
	return s.buildView(s.store.Update(p))
}

// ImportHTML 经富文本边界清洗后把 HTML 转换为离散字段并覆盖文本内容，头像保持不变。
func (s *Service) ImportHTML(html string) View {
	d := resume.FromHTML(s.richtext.Render(html))
	return s.Update(resume.Patch{
		Name:       &d.Name,
		Email:      &d.Email,
		Phone:      &d.Phone,
		Education:  &d.Education,
		Experience: &d.Experience,
		Skills:     &d.Skills,
	})
}

// ImportJSON 用导出的 JSON 文档替换当前内容。
func (s *Service) ImportJSON(data []byte) (View, error) {
	d, err := resume.Decode(data)
	if err != nil {
		return View{}, err
	}
	return s.buildView(s.store.Replace(d)), nil
}

// SetProfilePicture 设置头像，值必须是图片 data URI。
func (s *Service) SetProfilePicture(dataURI string) (View, error) {
	if !resume.IsImageDataURI(dataURI) {
		return View{}, ErrInvalidPicture
	}
	return s.Update(resume.Patch{ProfilePicture: &dataURI}), nil
}

// ClearProfilePicture 移除头像。
func (s *Service) ClearProfilePicture() View {
	return s.Update(resume.Patch{ClearProfilePicture: true})
}

// Export 在当前快照上执行导出。相同内容的并发 PDF 导出只渲染一次。
func (s *Service) Export(ctx context.Context, format export.Format) (dl *export.Download, err error) {
	defer func() { metrics.ObserveExport(string(format), err) }()

	doc := s.store.Snapshot().Document
	switch format {
	case export.FormatJSON:
		return export.JSONDownload(doc)
	case export.FormatText:
		return export.TextDownload(doc), nil
	case export.FormatPDF:
		return s.exportPDF(ctx, doc)
	}
	return nil, fmt.Errorf("%w: %q", export.ErrUnknownFormat, format)
}

func (s *Service) exportPDF(ctx context.Context, doc resume.ResumeData) (*export.Download, error) {
	if s.renderer == nil {
		return nil, ErrNoRenderer
	}
	tpl := s.SelectedTemplate()

	key, err := flightKey(doc, tpl)
	if err != nil {
		return nil, err
	}
	// 合并后的渲染不跟随任一调用方取消，由渲染器自身的超时约束；
	// 每个调用方只在自己的 ctx 结束时提前返回。
	renderCtx := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(key, func() (any, error) {
		return export.PDF(renderCtx, s.renderer, preview.Project(doc, tpl), s.logger)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("pdf export coalesced", slog.String("template", string(tpl)))
		}
		return res.Val.(*export.Download), nil
	}
}

func flightKey(doc resume.ResumeData, tpl templates.ID) (string, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode resume: %w", err)
	}
	sum := sha256.Sum256(append(payload, string(tpl)...))
	return hex.EncodeToString(sum[:]), nil
}

// HandleKey 分发快捷键：Ctrl+S 导出 PDF，Ctrl+E 导出 JSON，未匹配的按键不处理。
func (s *Service) HandleKey(ctx context.Context, ev shortcuts.KeyEvent) (KeyResult, error) {
	action, ok := s.dispatcher.Match(ev)
	if !ok {
		return KeyResult{}, nil
	}

	result := KeyResult{Handled: true, Action: action}
	var err error
	switch action {
	case shortcuts.ActionExportPDF:
		result.Download, err = s.Export(ctx, export.FormatPDF)
	case shortcuts.ActionExportJSON:
		result.Download, err = s.Export(ctx, export.FormatJSON)
	}
	return result, err
}

// Bindings 返回当前快捷键绑定。
func (s *Service) Bindings() []shortcuts.Binding {
	return s.dispatcher.Bindings()
}

// Subscribe 注册视图监听器，文档、保存状态或模板变化时调用。
// 回调中不能同步修改文档。
func (s *Service) Subscribe(fn func(View)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close 写入尚未保存的修改。
func (s *Service) Close(ctx context.Context) error {
	s.cancelStore()
	return s.store.Flush(ctx)
}

func (s *Service) broadcast(v View) {
	s.mu.RLock()
	subs := make([]func(View), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(v)
	}
}

func (s *Service) buildView(snap store.Snapshot) View {
	tpl := s.SelectedTemplate()
	doc := snap.Document
	return View{
		Document:    doc,
		SaveStatus:  snap.Status,
		LastSavedAt: snap.LastSavedAt,
		LastError:   snap.LastError,
		Score:       scoring.Analyze(doc),
		Errors:      validation.ValidateForm(doc),
		Preview:     preview.Project(doc, tpl),
		Template:    tpl,
	}
}
