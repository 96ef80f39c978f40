package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeStudio/internal/errcode"
	"resumeStudio/internal/resume"
	"resumeStudio/internal/tasks"
	"resumeStudio/internal/templates"
)

type fakeRenderer struct {
	html string
	err  error
}

func (f *fakeRenderer) RenderPDF(_ context.Context, html string) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-fake"), nil
}

type fakeUploader struct {
	keys []string
}

func (f *fakeUploader) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (*minio.UploadInfo, error) {
	if _, err := io.ReadAll(reader); err != nil {
		return nil, err
	}
	f.keys = append(f.keys, objectName)
	return &minio.UploadInfo{Key: objectName}, nil
}

func (f *fakeUploader) GeneratePresignedURLWithParams(_ context.Context, objectKey string, _ time.Duration, _ map[string]string) (string, error) {
	return "https://files.test/" + objectKey, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []ExportNotifyMessage
}

func (r *recordingNotifier) Publish(_ context.Context, msg ExportNotifyMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func newTask(t *testing.T, doc resume.ResumeData, id templates.ID) *asynq.Task {
	t.Helper()
	task, err := tasks.NewPDFExportTask(doc, id, "cid-42")
	require.NoError(t, err)
	return task
}

func TestPDFTaskHandler_Completed(t *testing.T) {
	renderer := &fakeRenderer{}
	uploader := &fakeUploader{}
	notifier := &recordingNotifier{}
	h := NewPDFTaskHandler(renderer, uploader, notifier, time.Hour, nil)

	err := h.ProcessTask(context.Background(), newTask(t, resume.ResumeData{Name: "Ada Lovelace"}, templates.Professional))
	require.NoError(t, err)

	assert.Contains(t, renderer.html, "Ada Lovelace")
	require.Len(t, uploader.keys, 1)
	require.Len(t, notifier.msgs, 1)

	msg := notifier.msgs[0]
	assert.Equal(t, NotifyCompleted, msg.Status)
	assert.Equal(t, "cid-42", msg.CorrelationID)
	assert.Equal(t, uploader.keys[0], msg.ObjectKey)
	assert.Equal(t, "https://files.test/"+uploader.keys[0], msg.URL)
	assert.Equal(t, errcode.OK, msg.ErrorCode)
}

func TestPDFTaskHandler_UnknownTemplateFallsBack(t *testing.T) {
	notifier := &recordingNotifier{}
	h := NewPDFTaskHandler(&fakeRenderer{}, &fakeUploader{}, notifier, time.Hour, nil)

	require.NoError(t, h.ProcessTask(context.Background(), newTask(t, resume.Default(), "retro")))
	require.Len(t, notifier.msgs, 1)
	assert.Equal(t, NotifyCompleted, notifier.msgs[0].Status)
	assert.Equal(t, errcode.UnknownTemplate, notifier.msgs[0].ErrorCode)
}

func TestPDFTaskHandler_RenderErrorIsReturned(t *testing.T) {
	uploader := &fakeUploader{}
	notifier := &recordingNotifier{}
	h := NewPDFTaskHandler(&fakeRenderer{err: errors.New("chrome crashed")}, uploader, notifier, time.Hour, nil)

	err := h.ProcessTask(context.Background(), newTask(t, resume.Default(), templates.Minimal))
	require.Error(t, err)
	assert.Empty(t, uploader.keys)
	assert.Empty(t, notifier.msgs, "error notifications are only sent on the final attempt")
}

func TestPDFTaskHandler_BadPayloadSkipsRetry(t *testing.T) {
	h := NewPDFTaskHandler(&fakeRenderer{}, &fakeUploader{}, &recordingNotifier{}, time.Hour, nil)

	err := h.ProcessTask(context.Background(), asynq.NewTask(tasks.TypePDFExport, []byte("not json")))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestPublisher_PublishesToChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, "resume_notify")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub := NewPublisher(rdb, "resume_notify")
	require.NoError(t, pub.Publish(ctx, ExportNotifyMessage{Status: NotifyCompleted, CorrelationID: "c1", URL: "https://x"}))

	select {
	case m := <-sub.Channel():
		var got ExportNotifyMessage
		require.NoError(t, json.Unmarshal([]byte(m.Payload), &got))
		assert.Equal(t, MessageTypeExport, got.Type)
		assert.Equal(t, "c1", got.CorrelationID)
		assert.Equal(t, "https://x", got.URL)
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered")
	}
}
