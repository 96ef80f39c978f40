package editor

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeStudio/internal/export"
	"resumeStudio/internal/localstore"
	"resumeStudio/internal/resume"
	"resumeStudio/internal/shortcuts"
	"resumeStudio/internal/store"
	"resumeStudio/internal/templates"
	"resumeStudio/internal/validation"
)

const tinyPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="

type countingRenderer struct {
	calls atomic.Int32
	err   error
}

func (r *countingRenderer) RenderPDF(_ context.Context, html string) ([]byte, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-fake " + html[:15]), nil
}

type blockingRenderer struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once

	mu      sync.Mutex
	ctxErrs []error
}

func newBlockingRenderer() *blockingRenderer {
	return &blockingRenderer{started: make(chan struct{}), release: make(chan struct{})}
}

func (r *blockingRenderer) RenderPDF(ctx context.Context, _ string) ([]byte, error) {
	r.once.Do(func() { close(r.started) })
	<-r.release

	r.mu.Lock()
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	r.mu.Unlock()
	return []byte("%PDF-fake"), nil
}

func (r *blockingRenderer) renderCtxErrs() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.ctxErrs...)
}

func strPtr(s string) *string { return &s }

func newService(t *testing.T, opts ...Option) (*Service, *localstore.FileStore) {
	t.Helper()
	storage := localstore.NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	opts = append([]Option{WithStoreOptions(store.WithClock(clock.NewMock()))}, opts...)
	return New(context.Background(), storage, opts...), storage
}

func TestNew_DefaultsToMinimalTemplate(t *testing.T) {
	s, _ := newService(t)

	assert.Equal(t, templates.Minimal, s.SelectedTemplate())
	v := s.View()
	assert.Equal(t, templates.Minimal, v.Template)
	assert.Equal(t, store.StatusSaved, v.SaveStatus)
	assert.Len(t, s.Templates(), 3)
}

func TestSelectTemplate_PersistsAndIsReadOnStart(t *testing.T) {
	s, storage := newService(t)
	ctx := context.Background()

	require.NoError(t, s.SelectTemplate(ctx, templates.Creative))
	assert.Equal(t, templates.Creative, s.View().Preview.Template.ID)

	raw, err := storage.Get(ctx, resume.TemplateKey)
	require.NoError(t, err)
	assert.Equal(t, "creative", raw)

	reopened := New(ctx, storage)
	assert.Equal(t, templates.Creative, reopened.SelectedTemplate())

	err = s.SelectTemplate(ctx, "gothic")
	assert.True(t, errors.Is(err, templates.ErrUnknownTemplate))
}

func TestNew_UnknownStoredTemplateFallsBack(t *testing.T) {
	storage := localstore.NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, storage.Set(context.Background(), resume.TemplateKey, "gothic"))

	s := New(context.Background(), storage)
	assert.Equal(t, templates.Minimal, s.SelectedTemplate())
}

func TestUpdate_RecomputesDerivedState(t *testing.T) {
	s, _ := newService(t)

	v := s.Update(resume.Patch{Name: strPtr("Ada"), Email: strPtr("not-an-email"), Skills: strPtr("Go, SQL")})

	assert.Equal(t, store.StatusSaving, v.SaveStatus)
	assert.Equal(t, validation.EmailMessage, v.Errors["email"])
	assert.Equal(t, 100, v.Score.Sections["name"])
	assert.Equal(t, 0, v.Score.Sections["email"])
	assert.Equal(t, "Ada", v.Preview.Header.Name.Value)
	assert.True(t, v.Preview.Header.Phone.Placeholder)
}

func TestImportHTML_SanitizesAndConvertsKeepingPicture(t *testing.T) {
	s, _ := newService(t)
	_, err := s.SetProfilePicture(tinyPNG)
	require.NoError(t, err)

	v := s.ImportHTML(`<h1>Ada</h1><script>steal()</script><h2>Experience</h2><p>Analytical engine notes.</p>`)

	assert.Equal(t, "Ada", v.Document.Name)
	assert.Equal(t, "Analytical engine notes.", v.Document.Experience)
	assert.NotContains(t, v.Document.Name+v.Document.Experience, "steal")
	require.NotNil(t, v.Document.ProfilePicture)
	assert.Equal(t, tinyPNG, *v.Document.ProfilePicture)
	assert.Nil(t, v.Document.HTMLContent)
}

func TestImportJSON_RoundTripsExport(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	s.Update(resume.Patch{Name: strPtr("Ada"), Education: strPtr("Self-taught")})

	dl, err := s.Export(ctx, export.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "resume.json", dl.Filename)

	other, _ := newService(t)
	v, err := other.ImportJSON(dl.Data)
	require.NoError(t, err)
	assert.Equal(t, s.View().Document, v.Document)

	_, err = other.ImportJSON([]byte(`{"name": 1}`))
	assert.Error(t, err)
}

func TestSetProfilePicture_RejectsRemoteURL(t *testing.T) {
	s, _ := newService(t)

	_, err := s.SetProfilePicture("https://example.com/me.png")
	assert.True(t, errors.Is(err, ErrInvalidPicture))

	_, err = s.SetProfilePicture(tinyPNG)
	require.NoError(t, err)
	assert.Nil(t, s.ClearProfilePicture().Document.ProfilePicture)
}

func TestExport_TextAndUnknownFormat(t *testing.T) {
	s, _ := newService(t)
	s.Update(resume.Patch{Name: strPtr("Ada")})

	dl, err := s.Export(context.Background(), export.FormatText)
	require.NoError(t, err)
	assert.Equal(t, "text/plain; charset=utf-8", dl.ContentType)
	assert.Contains(t, string(dl.Data), "NAME\nAda\n")

	_, err = s.Export(context.Background(), "docx")
	assert.True(t, errors.Is(err, export.ErrUnknownFormat))
}

func TestExport_PDF(t *testing.T) {
	s, _ := newService(t)
	_, err := s.Export(context.Background(), export.FormatPDF)
	assert.True(t, errors.Is(err, ErrNoRenderer))

	r := &countingRenderer{}
	s, _ = newService(t, WithRenderer(r))
	dl, err := s.Export(context.Background(), export.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "resume.pdf", dl.Filename)
	assert.Equal(t, int32(1), r.calls.Load())

	failing := &countingRenderer{err: errors.New("no chromium")}
	s, _ = newService(t, WithRenderer(failing))
	_, err = s.Export(context.Background(), export.FormatPDF)
	assert.ErrorContains(t, err, "no chromium")
}

func TestExport_PDFCancelledCallerDoesNotFailSharedRender(t *testing.T) {
	r := newBlockingRenderer()
	s, _ := newService(t, WithRenderer(r))

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := s.Export(ctxA, export.FormatPDF)
		errA <- err
	}()

	<-r.started
	cancelA()
	select {
	case err := <-errA:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(r.release)
	}()
	dl, err := s.Export(context.Background(), export.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "resume.pdf", dl.Filename)

	require.NotEmpty(t, r.renderCtxErrs())
	for _, e := range r.renderCtxErrs() {
		assert.NoError(t, e)
	}
}

func TestHandleKey(t *testing.T) {
	r := &countingRenderer{}
	s, _ := newService(t, WithRenderer(r))
	ctx := context.Background()

	res, err := s.HandleKey(ctx, shortcuts.KeyEvent{Key: "E", Ctrl: true})
	require.NoError(t, err)
	assert.True(t, res.Handled)
	assert.Equal(t, shortcuts.ActionExportJSON, res.Action)
	require.NotNil(t, res.Download)
	assert.Equal(t, "resume.json", res.Download.Filename)

	res, err = s.HandleKey(ctx, shortcuts.KeyEvent{Key: "s", Ctrl: true})
	require.NoError(t, err)
	assert.Equal(t, "resume.pdf", res.Download.Filename)

	res, err = s.HandleKey(ctx, shortcuts.KeyEvent{Key: "s"})
	require.NoError(t, err)
	assert.False(t, res.Handled)
	assert.Nil(t, res.Download)
}

func TestSubscribe_ReceivesUpdatesAndTemplateChanges(t *testing.T) {
	s, _ := newService(t)

	var mu sync.Mutex
	var seen []View
	cancel := s.Subscribe(func(v View) {
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
	})

	s.Update(resume.Patch{Name: strPtr("Ada")})
	require.NoError(t, s.SelectTemplate(context.Background(), templates.Professional))
	cancel()
	s.Update(resume.Patch{Name: strPtr("Grace")})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.Equal(t, "Ada", seen[0].Document.Name)
	assert.Equal(t, templates.Professional, seen[1].Template)
}

func TestClose_FlushesPendingEdits(t *testing.T) {
	s, storage := newService(t)
	s.Update(resume.Patch{Skills: strPtr("Go")})

	require.NoError(t, s.Close(context.Background()))

	raw, err := storage.Get(context.Background(), resume.StorageKey)
	require.NoError(t, err)
	d, err := resume.Decode([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "Go", d.Skills)
}
