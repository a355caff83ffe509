// Package events 把会话状态转换分发给 WebSocket 订阅者和 Kafka。
package events

import (
	"context"
	"encoding/json"
	"sync"

	"lawguide-go/internal/model"
	"lawguide-go/internal/session"
	"lawguide-go/pkg/log"
)

// StateMessage 是推送给浏览器的消息。
type StateMessage struct {
	Type    string       `json:"type"`
	Actions []string     `json:"actions"`
	Data    session.View `json:"data"`
}

// Subscriber 是某个会话的一个 WebSocket 连接。
type Subscriber struct {
	sessionID string
	c         chan []byte
}

// C 返回待发送消息的通道，Unsubscribe 后关闭。
func (s *Subscriber) C() <-chan []byte {
	return s.c
}

// Hub 按会话维护订阅者。发送不阻塞：缓冲区满时丢弃最旧的一条，
// 每条消息都携带完整状态，所以订阅者总能看到最新版本。
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscriber]struct{}
	buffer      int
}

// NewHub 创建一个 Hub，buffer 为每个订阅者的缓冲消息数。
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subscribers: make(map[string]map[*Subscriber]struct{}),
		buffer:      buffer,
	}
}

// Subscribe 注册一个会话订阅者。
func (h *Hub) Subscribe(sessionID string) *Subscriber {
	sub := &Subscriber{sessionID: sessionID, c: make(chan []byte, h.buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[sessionID] == nil {
		h.subscribers[sessionID] = make(map[*Subscriber]struct{})
	}
	h.subscribers[sessionID][sub] = struct{}{}
	return sub
}

// Unsubscribe 注销订阅者并关闭其通道，重复调用无副作用。
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.subscribers[sub.sessionID]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.c)
	if len(subs) == 0 {
		delete(h.subscribers, sub.sessionID)
	}
}

// Count 返回某个会话当前的订阅者数量。
func (h *Hub) Count(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[sessionID])
}

// CloseSession 注销某个会话的全部订阅者，会话结束时调用。
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers[sessionID] {
		close(sub.c)
	}
	delete(h.subscribers, sessionID)
}

// Publish 实现 session.Publisher。
func (h *Hub) Publish(ctx context.Context, state model.SessionState, actions []string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs := h.subscribers[state.ID]
	if len(subs) == 0 {
		return
	}

	b, err := json.Marshal(StateMessage{Type: "state", Actions: actions, Data: session.NewView(state)})
	if err != nil {
		log.Errorf("序列化会话状态失败: %v", err)
		return
	}
	for sub := range subs {
		select {
		case sub.c <- b:
		default:
			// 丢弃最旧的消息再重试一次
			select {
			case <-sub.c:
			default:
			}
			select {
			case sub.c <- b:
			default:
				log.Warnf("会话 %s 的订阅者缓冲区已满，丢弃一条状态消息", state.ID)
			}
		}
	}
}
