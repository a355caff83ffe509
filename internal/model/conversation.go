// Package model 包含了应用的数据模型定义。
package model

// Role 标识对话记录中一条消息的发送方。
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// ChatMessage 代表对话记录中的单条消息。
// 追加后不可修改；唯一的例外是 Pending 占位消息被解析一次。
type ChatMessage struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"` // 仅用于展示，不参与排序
	Pending   bool   `json:"pending,omitempty"`
}

// Transcript 是按插入顺序排列的对话记录。
type Transcript struct {
	Messages []ChatMessage `json:"messages"`
	// ScrollTarget 指向最新一条消息，视图据此滚动到底部。
	ScrollTarget string `json:"scrollTarget"`
}

// Len 返回对话记录中的消息数。
func (t Transcript) Len() int {
	return len(t.Messages)
}

// Last 返回最后一条消息。
func (t Transcript) Last() (ChatMessage, bool) {
	if len(t.Messages) == 0 {
		return ChatMessage{}, false
	}
	return t.Messages[len(t.Messages)-1], true
}
