// Package tasks 定义发送到 Kafka 的消息结构。
package tasks

import "time"

// SessionEvent 表示一次已应用的会话状态转换。
type SessionEvent struct {
	SessionID  string    `json:"session_id"`
	Action     string    `json:"action"`
	Version    int64     `json:"version"`
	Section    string    `json:"section"`
	Alert      string    `json:"alert,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
