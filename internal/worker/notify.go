package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// 导出通知的状态值。
const (
	NotifyCompleted = "completed"
	NotifyError     = "error"
)

// ExportNotifyMessage 是通过 Redis Pub/Sub 转发给 WebSocket 客户端的导出结果。
// 字段名与客户端解析保持一致。
type ExportNotifyMessage struct {
	Type          string `json:"type"`
	Status        string `json:"status"`
	CorrelationID string `json:"correlation_id"`
	URL           string `json:"url,omitempty"`
	ObjectKey     string `json:"object_key,omitempty"`
	Pages         int    `json:"pages,omitempty"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
}

// MessageTypeExport 标记导出通知，区别于视图更新消息。
const MessageTypeExport = "export"

// Publisher 把通知发布到 Redis 频道。
type Publisher struct {
	client  redis.Cmdable
	channel string
}

// NewPublisher 构造 Publisher。
func NewPublisher(client redis.Cmdable, channel string) *Publisher {
	return &Publisher{client: client, channel: channel}
}

// Publish 发布一条导出通知。
func (p *Publisher) Publish(ctx context.Context, msg ExportNotifyMessage) error {
	msg.Type = MessageTypeExport
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", p.channel, err)
	}
	return nil
}
