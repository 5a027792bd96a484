package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// 统一的 WebSocket 消息协议（通过 Redis Pub/Sub 转发给前端）。
// 注意：这里的字段名与前端解析保持一致。

// Notify event types.
const (
	EventUploadProgress       = "resume_upload_progress"
	EventResumeParsing        = "resume_parsing"
	EventResumeReady          = "resume_ready"
	EventResumeFailed         = "resume_failed"
	EventOptimizationAnalyzed = "optimization_analyzed"
	EventOptimizationDone     = "optimization_completed"
	EventOptimizationFailed   = "optimization_failed"
)

// NotifyMessage is one event on a user's notification channel.
type NotifyMessage struct {
	Type           string `json:"type"`
	CorrelationID  string `json:"correlation_id,omitempty"`
	FileName       string `json:"file_name,omitempty"`
	Percent        int    `json:"percent,omitempty"`
	ResumeID       uint   `json:"resume_id,omitempty"`
	OptimizationID uint   `json:"optimization_id,omitempty"`
	ErrorCode      int    `json:"error_code,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

// NotifyChannel 返回用户的 Redis 通知频道名。
func NotifyChannel(userID uint) string {
	return fmt.Sprintf("user_notify:%d", userID)
}

// PublishNotify serializes the message onto the user's channel.
func PublishNotify(ctx context.Context, client redis.UniversalClient, userID uint, msg NotifyMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := NotifyChannel(userID)
	if err := client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}
