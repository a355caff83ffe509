package events

import (
	"context"

	"lawguide-go/internal/model"
	"lawguide-go/internal/session"
	"lawguide-go/pkg/kafka"
	"lawguide-go/pkg/log"
	"lawguide-go/pkg/tasks"
)

// Fanout 依次把状态转换交给每个 Publisher。
type Fanout []session.Publisher

// Publish 实现 session.Publisher。
func (f Fanout) Publish(ctx context.Context, state model.SessionState, actions []string) {
	for _, p := range f {
		p.Publish(ctx, state, actions)
	}
}

// ProduceFunc 发送一条会话事件。
type ProduceFunc func(ctx context.Context, event tasks.SessionEvent) error

// KafkaPublisher 为每个 action 生成一条 SessionEvent 写入 Kafka。
type KafkaPublisher struct {
	produce ProduceFunc
}

// NewKafkaPublisher 返回一个使用 pkg/kafka 全局生产者的 KafkaPublisher。
func NewKafkaPublisher() *KafkaPublisher {
	return &KafkaPublisher{produce: kafka.ProduceSessionEvent}
}

// Publish 实现 session.Publisher。一次 Apply 中的多个 action 按顺序编号版本。
func (p *KafkaPublisher) Publish(ctx context.Context, state model.SessionState, actions []string) {
	for _, event := range Events(state, actions) {
		if err := p.produce(context.WithoutCancel(ctx), event); err != nil {
			log.Warnf("发送会话事件失败: session=%s action=%s, Error: %v", event.SessionID, event.Action, err)
		}
	}
}

// Events 把一次状态转换展开为按 action 划分的事件，最后一个事件的版本等于 state.Version。
func Events(state model.SessionState, actions []string) []tasks.SessionEvent {
	events := make([]tasks.SessionEvent, 0, len(actions))
	for i, action := range actions {
		events = append(events, tasks.SessionEvent{
			SessionID:  state.ID,
			Action:     action,
			Version:    state.Version - int64(len(actions)-1-i),
			Section:    string(state.ActiveSection),
			Alert:      state.Alert,
			OccurredAt: state.UpdatedAt,
		})
	}
	return events
}
