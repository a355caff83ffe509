package session

import (
	"time"

	"lawguide-go/internal/model"
)

// NewTranscript 创建只包含欢迎消息的对话记录。
func NewTranscript(welcomeID string, now time.Time) model.Transcript {
	welcome := model.ChatMessage{
		ID:        welcomeID,
		Role:      model.RoleBot,
		Content:   WelcomeMessage,
		Timestamp: model.DisplayTime(now),
	}
	return model.Transcript{
		Messages:     []model.ChatMessage{welcome},
		ScrollTarget: welcomeID,
	}
}

// Append 在对话记录末尾追加消息，返回新的对话记录，原记录不变。
func Append(t model.Transcript, entries ...model.ChatMessage) model.Transcript {
	if len(entries) == 0 {
		return t
	}
	messages := make([]model.ChatMessage, 0, len(t.Messages)+len(entries))
	messages = append(messages, t.Messages...)
	messages = append(messages, entries...)
	return model.Transcript{
		Messages:     messages,
		ScrollTarget: messages[len(messages)-1].ID,
	}
}

// ResolvePending 将占位消息原地替换为最终内容，位置保持不变。
// 每条占位消息只能被解析一次。
func ResolvePending(t model.Transcript, id, content, timestamp string) (model.Transcript, error) {
	idx := -1
	for i, m := range t.Messages {
		if m.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return t, ErrEntryNotFound
	}
	if !t.Messages[idx].Pending {
		return t, ErrEntryNotPending
	}

	messages := make([]model.ChatMessage, len(t.Messages))
	copy(messages, t.Messages)
	messages[idx] = model.ChatMessage{
		ID:        id,
		Role:      messages[idx].Role,
		Content:   content,
		Timestamp: timestamp,
	}
	return model.Transcript{
		Messages:     messages,
		ScrollTarget: messages[len(messages)-1].ID,
	}, nil
}

// PendingCount 返回尚未解析的占位消息数。
func PendingCount(t model.Transcript) int {
	n := 0
	for _, m := range t.Messages {
		if m.Pending {
			n++
		}
	}
	return n
}
