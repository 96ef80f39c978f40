package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"resumeStudio/internal/api/middleware"
	"resumeStudio/internal/editor"
	"resumeStudio/internal/resume"
)

const (
	wsWriteWait    = 5 * time.Second
	wsPingInterval = 30 * time.Second
)

// WsHandler 向客户端推送编辑器视图与导出通知，并接收实时编辑。
type WsHandler struct {
	editor         *editor.Service
	notifications  Subscriber
	channel        string
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
}

type wsOutbound struct {
	Type string       `json:"type"`
	View *editor.View `json:"view,omitempty"`
}

type wsInbound struct {
	Type  string        `json:"type"`
	Patch *resume.Patch `json:"patch,omitempty"`
}

// NewWsHandler 构造 WebSocket 处理器。notifications 为空时只推送视图。
func NewWsHandler(svc *editor.Service, notifications Subscriber, channel string, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	h := &WsHandler{
		editor:         svc,
		notifications:  notifications,
		channel:        channel,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *WsHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(h.allowedOrigins) == 0 {
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// HandleConnection 升级连接后先发送当前视图，之后推送每次变更。
// 同一连接的所有写操作都在本 goroutine 中完成。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	log := middleware.LoggerFromContext(c).With(slog.String("client_ip", c.ClientIP()))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// 只保留最新视图，慢客户端不会阻塞文档存储的通知。
	views := make(chan editor.View, 1)
	push := func(v editor.View) {
		select {
		case <-views:
		default:
		}
		select {
		case views <- v:
		default:
		}
	}
	unsubscribe := h.editor.Subscribe(push)
	defer unsubscribe()
	push(h.editor.View())

	var notes <-chan *redis.Message
	if h.notifications != nil {
		pubsub := h.notifications.Subscribe(ctx, h.channel)
		defer pubsub.Close()
		notes = pubsub.Channel()
		log.Debug("subscribed to redis channel", slog.String("channel", h.channel))
	}

	readErr := make(chan error, 1)
	go func() { readErr <- h.readLoop(conn, log) }()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-readErr:
			log.Info("websocket connection closed", slog.Any("error", err))
			return
		case v := <-views:
			if err := writeJSON(conn, wsOutbound{Type: "view", View: &v}); err != nil {
				log.Info("write view failed", slog.Any("error", err))
				return
			}
		case msg, ok := <-notes:
			if !ok {
				notes = nil
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Info("forward notification failed", slog.Any("error", err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(wsWriteWait)); err != nil {
				log.Info("write ping failed", slog.Any("error", err))
				return
			}
		}
	}
}

// readLoop 处理客户端的实时编辑，直到连接断开。
func (h *WsHandler) readLoop(conn *websocket.Conn, log *slog.Logger) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		var msg wsInbound
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn("ignore malformed websocket message", slog.Any("error", err))
			continue
		}
		switch msg.Type {
		case "patch":
			if msg.Patch == nil || msg.Patch.IsEmpty() {
				continue
			}
			h.editor.Update(*msg.Patch)
		default:
			log.Debug("ignore websocket message", slog.String("type", msg.Type))
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(v)
}
