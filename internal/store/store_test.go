package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeStudio/internal/localstore"
	"resumeStudio/internal/resume"
)

type fakeStorage struct {
	mu      sync.Mutex
	data    map[string]string
	sets    []string
	getErr  error
	setErr  error
	release chan struct{}
	started chan struct{}
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{data: map[string]string{}}
}

func (f *fakeStorage) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", localstore.ErrNotFound
	}
	return v, nil
}

func (f *fakeStorage) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	release, started := f.release, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	f.sets = append(f.sets, value)
	return nil
}

func (f *fakeStorage) setCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sets)
}

func (f *fakeStorage) lastSet() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sets) == 0 {
		return ""
	}
	return f.sets[len(f.sets)-1]
}

func strPtr(s string) *string { return &s }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func openStore(t *testing.T, storage localstore.Storage) (*Store, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	return Open(context.Background(), storage, WithClock(mock)), mock
}

func TestOpen_EmptyStorageYieldsDefault(t *testing.T) {
	s, _ := openStore(t, newFakeStorage())

	snap := s.Snapshot()
	assert.Equal(t, resume.Default(), snap.Document)
	assert.Equal(t, StatusSaved, snap.Status)
}

func TestOpen_LoadsStoredDocument(t *testing.T) {
	storage := newFakeStorage()
	storage.data[resume.StorageKey] = `{"name":"Ada","skills":"Go"}`

	s, _ := openStore(t, storage)

	assert.Equal(t, resume.ResumeData{Name: "Ada", Skills: "Go"}, s.Snapshot().Document)
}

func TestOpen_UndecodableDocumentFallsBackToDefault(t *testing.T) {
	storage := newFakeStorage()
	storage.data[resume.StorageKey] = `{"name":`
	storage.data[resume.LegacyStorageKey] = `<h1>Legacy</h1>`

	s, _ := openStore(t, storage)

	assert.Equal(t, resume.Default(), s.Snapshot().Document)
}

func TestOpen_StorageErrorFallsBackToDefault(t *testing.T) {
	storage := newFakeStorage()
	storage.getErr = errors.New("disk unavailable")

	s, _ := openStore(t, storage)

	assert.Equal(t, resume.Default(), s.Snapshot().Document)
}

func TestOpen_ConvertsLegacyRichText(t *testing.T) {
	storage := newFakeStorage()
	storage.data[resume.LegacyStorageKey] = `<h1>Grace</h1><h2>Skills</h2><ul><li>COBOL</li><li>Math</li></ul>`

	s, _ := openStore(t, storage)

	doc := s.Snapshot().Document
	assert.Equal(t, "Grace", doc.Name)
	assert.Equal(t, "COBOL, Math", doc.Skills)
	assert.Nil(t, doc.HTMLContent)
}

func TestUpdate_StatusSavingSynchronously(t *testing.T) {
	s, _ := openStore(t, newFakeStorage())

	snap := s.Update(resume.Patch{Name: strPtr("Ada")})

	assert.Equal(t, StatusSaving, snap.Status)
	assert.Equal(t, "Ada", snap.Document.Name)
	assert.Equal(t, StatusSaving, s.Snapshot().Status)
}

func TestUpdate_DebounceCoalescesBurst(t *testing.T) {
	storage := newFakeStorage()
	s, mock := openStore(t, storage)

	s.Update(resume.Patch{Name: strPtr("A")})
	mock.Add(300 * time.Millisecond)
	s.Update(resume.Patch{Name: strPtr("Ad")})
	mock.Add(300 * time.Millisecond)
	s.Update(resume.Patch{Name: strPtr("Ada")})

	mock.Add(999 * time.Millisecond)
	assert.Equal(t, 0, storage.setCount())

	mock.Add(time.Millisecond)
	waitFor(t, func() bool { return s.Snapshot().Status == StatusSaved })

	assert.Equal(t, 1, storage.setCount())
	saved, err := resume.Decode([]byte(storage.lastSet()))
	require.NoError(t, err)
	assert.Equal(t, "Ada", saved.Name)

	mock.Add(5 * time.Second)
	assert.Equal(t, 1, storage.setCount())
	assert.NotNil(t, s.Snapshot().LastSavedAt)
}

func TestUpdate_WriteFailureSetsErrorAndKeepsDocument(t *testing.T) {
	storage := newFakeStorage()
	storage.setErr = errors.New("quota exceeded")
	s, mock := openStore(t, storage)

	s.Update(resume.Patch{Skills: strPtr("Go, SQL")})
	mock.Add(DebounceDelay)
	waitFor(t, func() bool { return s.Snapshot().Status == StatusError })

	snap := s.Snapshot()
	assert.Equal(t, "Go, SQL", snap.Document.Skills)
	assert.Contains(t, snap.LastError, "quota exceeded")

	mock.Add(10 * time.Second)
	assert.Equal(t, StatusError, s.Snapshot().Status, "no automatic retry")
}

func TestUpdate_CorruptStoreFileRecoversOnSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	storage := localstore.NewFileStore(path)
	s, mock := openStore(t, storage)
	require.Equal(t, resume.Default(), s.Snapshot().Document)

	s.Update(resume.Patch{Name: strPtr("Ada")})
	mock.Add(DebounceDelay)
	waitFor(t, func() bool { return s.Snapshot().Status == StatusSaved })

	raw, err := storage.Get(context.Background(), resume.StorageKey)
	require.NoError(t, err)
	saved, err := resume.Decode([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "Ada", saved.Name)
	assert.Empty(t, s.Snapshot().LastError)
}

func TestUpdate_EditDuringWriteKeepsSaving(t *testing.T) {
	storage := newFakeStorage()
	storage.release = make(chan struct{})
	storage.started = make(chan struct{}, 2)
	s, mock := openStore(t, storage)

	s.Update(resume.Patch{Name: strPtr("first")})
	mock.Add(DebounceDelay)
	<-storage.started

	s.Update(resume.Patch{Name: strPtr("second")})
	storage.release <- struct{}{}
	waitFor(t, func() bool { return storage.setCount() == 1 })
	assert.Equal(t, StatusSaving, s.Snapshot().Status)

	mock.Add(DebounceDelay)
	<-storage.started
	storage.release <- struct{}{}
	waitFor(t, func() bool { return s.Snapshot().Status == StatusSaved })

	saved, err := resume.Decode([]byte(storage.lastSet()))
	require.NoError(t, err)
	assert.Equal(t, "second", saved.Name)
}

func TestUpdate_CanonicalizesRichText(t *testing.T) {
	s, _ := openStore(t, newFakeStorage())

	snap := s.Update(resume.Patch{HTMLContent: strPtr("<h1>Ada</h1><p>ada@example.com</p>")})

	assert.Nil(t, snap.Document.HTMLContent)
	assert.Equal(t, "Ada", snap.Document.Name)
	assert.Equal(t, "ada@example.com", snap.Document.Email)
}

func TestReplace_StoresCopy(t *testing.T) {
	s, _ := openStore(t, newFakeStorage())
	pic := "data:image/png;base64,aGVsbG8="
	doc := resume.ResumeData{Name: "Ada", ProfilePicture: &pic}

	s.Replace(doc)
	pic = "changed"

	got := s.Snapshot().Document
	require.NotNil(t, got.ProfilePicture)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", *got.ProfilePicture)
}

func TestFlush_WritesPendingImmediately(t *testing.T) {
	storage := newFakeStorage()
	s, mock := openStore(t, storage)

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 0, storage.setCount(), "nothing pending")

	s.Update(resume.Patch{Email: strPtr("ada@example.com")})
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 1, storage.setCount())
	assert.Equal(t, StatusSaved, s.Snapshot().Status)

	mock.Add(DebounceDelay)
	assert.Never(t, func() bool { return storage.setCount() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestFlush_ReturnsWriteError(t *testing.T) {
	storage := newFakeStorage()
	storage.setErr = errors.New("read-only")
	s, _ := openStore(t, storage)

	s.Update(resume.Patch{Name: strPtr("x")})
	assert.ErrorContains(t, s.Flush(context.Background()), "read-only")
	assert.Equal(t, StatusError, s.Snapshot().Status)
}

func TestSubscribe_ReceivesChangesUntilCancelled(t *testing.T) {
	storage := newFakeStorage()
	s, mock := openStore(t, storage)

	var mu sync.Mutex
	var statuses []Status
	cancel := s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		statuses = append(statuses, snap.Status)
		mu.Unlock()
	})

	s.Update(resume.Patch{Name: strPtr("Ada")})
	mock.Add(DebounceDelay)
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(statuses) == 2
	})

	cancel()
	s.Update(resume.Patch{Name: strPtr("Grace")})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusSaving, StatusSaved}, statuses)
}
