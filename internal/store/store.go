package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"resumeStudio/internal/localstore"
	"resumeStudio/internal/metrics"
	"resumeStudio/internal/resume"
)

// DebounceDelay 是最后一次编辑到持久化写入之间的静默期。
const DebounceDelay = time.Second

const writeTimeout = 5 * time.Second

// Status 是面向用户的保存状态。
type Status string

const (
	StatusSaved  Status = "saved"
	StatusSaving Status = "saving"
	StatusError  Status = "error"
)

// Snapshot 是某一时刻的文档与保存状态。
type Snapshot struct {
	Document    resume.ResumeData `json:"document"`
	Status      Status            `json:"status"`
	LastSavedAt *time.Time        `json:"last_saved_at,omitempty"`
	LastError   string            `json:"last_error,omitempty"`
}

// Option 配置 Store。
type Option func(*Store)

// WithClock 替换时间源，测试中传入 clock.NewMock()。
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLogger 设置日志记录器。
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store 持有当前文档，并在编辑停止 DebounceDelay 后写入持久化存储。
//
// mu 保护文档、状态、定时器与代数；writeMu 保证同一时刻最多一个写入；
// notifyMu 保证监听器按变更顺序收到快照。加锁顺序为 writeMu、notifyMu、mu。
// 定时器触发时若代数已变化则放弃写入，因此一次连续编辑只产生一次写入。
type Store struct {
	storage localstore.Storage
	clock   clock.Clock
	logger  *slog.Logger

	mu          sync.Mutex
	doc         resume.ResumeData
	status      Status
	timer       *clock.Timer
	gen         uint64
	written     uint64
	lastSavedAt *time.Time
	lastErr     string
	subs        map[uint64]func(Snapshot)
	nextSub     uint64

	writeMu  sync.Mutex
	notifyMu sync.Mutex
}

// Open 从存储加载文档并返回 Store。加载失败只记录日志，文档回退为空白简历。
func Open(ctx context.Context, storage localstore.Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		clock:   clock.New(),
		logger:  slog.Default(),
		status:  StatusSaved,
		subs:    map[uint64]func(Snapshot){},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.doc = s.load(ctx)
	return s
}

func (s *Store) load(ctx context.Context) resume.ResumeData {
	raw, err := s.storage.Get(ctx, resume.StorageKey)
	switch {
	case err == nil:
		d, decErr := resume.Decode([]byte(raw))
		if decErr != nil {
			s.logger.Warn("stored resume is unreadable, starting from default", slog.Any("error", decErr))
			return resume.Default()
		}
		return resume.Canonicalize(d)
	case errors.Is(err, localstore.ErrNotFound):
	default:
		s.logger.Warn("load stored resume failed, starting from default", slog.Any("error", err))
		return resume.Default()
	}

	legacy, err := s.storage.Get(ctx, resume.LegacyStorageKey)
	if err != nil || strings.TrimSpace(legacy) == "" {
		return resume.Default()
	}
	s.logger.Info("converting legacy rich text resume")
	return resume.Canonicalize(resume.ResumeData{HTMLContent: &legacy})
}

// Snapshot 返回当前文档与保存状态的副本。
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Update 应用局部修改并重新开始防抖计时。状态会同步变为 saving。
func (s *Store) Update(p resume.Patch) Snapshot {
	return s.apply(p.Apply)
}

// Replace 用完整文档替换当前内容，语义与 Update 相同。
func (s *Store) Replace(d resume.ResumeData) Snapshot {
	return s.apply(func(resume.ResumeData) resume.ResumeData { return d.Clone() })
}

func (s *Store) apply(fn func(resume.ResumeData) resume.ResumeData) Snapshot {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.doc = resume.Canonicalize(fn(s.doc))
	if s.timer != nil && s.timer.Stop() {
		metrics.ObserveCoalesced()
	}
	s.gen++
	gen := s.gen
	s.status = StatusSaving
	s.timer = s.clock.AfterFunc(DebounceDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		_ = s.persist(ctx, gen)
	})
	snap := s.snapshotLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return snap
}

// Flush 取消等待中的定时器并立即写入未保存的修改，用于进程退出前。
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.status != StatusSaving || s.written >= s.gen {
		s.mu.Unlock()
		return nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	gen := s.gen
	s.mu.Unlock()

	return s.persist(ctx, gen)
}

func (s *Store) persist(ctx context.Context, gen uint64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if gen != s.gen || s.written >= gen {
		s.mu.Unlock()
		return nil
	}
	s.written = gen
	doc := s.doc.Clone()
	s.mu.Unlock()

	err := s.write(ctx, doc)
	metrics.ObserveSave(err)

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if gen != s.gen {
		// 写入期间又有新的编辑，状态保持 saving，由新的定时器负责。
		s.mu.Unlock()
		return err
	}
	s.timer = nil
	if err != nil {
		s.status = StatusError
		s.lastErr = err.Error()
		s.logger.Error("persist resume failed", slog.Any("error", err))
	} else {
		now := s.clock.Now()
		s.status = StatusSaved
		s.lastSavedAt = &now
		s.lastErr = ""
	}
	snap := s.snapshotLocked()
	subs := s.subscribersLocked()
	s.mu.Unlock()

	notify(subs, snap)
	return err
}

func (s *Store) write(ctx context.Context, doc resume.ResumeData) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode resume: %w", err)
	}
	if err := s.storage.Set(ctx, resume.StorageKey, string(payload)); err != nil {
		return fmt.Errorf("save resume: %w", err)
	}
	return nil
}

// Subscribe 注册快照监听器，返回取消函数。
// 监听器按变更顺序同步调用，不能在回调中再调用 Update 或 Replace。
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
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

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Document:  s.doc.Clone(),
		Status:    s.status,
		LastError: s.lastErr,
	}
	if s.lastSavedAt != nil {
		t := *s.lastSavedAt
		snap.LastSavedAt = &t
	}
	return snap
}

func (s *Store) subscribersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
