package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"lawguide-go/internal/events"
	"lawguide-go/internal/repository"
	"lawguide-go/internal/service"
	"lawguide-go/internal/session"
	"lawguide-go/pkg/log"
	"lawguide-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// StreamHandler 通过 WebSocket 推送会话状态。每次状态转换后推送一次完整视图。
type StreamHandler struct {
	sessionService service.SessionService
	hub            *events.Hub
	jwtManager     *token.JWTManager
}

// NewStreamHandler 创建一个新的 StreamHandler。
func NewStreamHandler(sessionService service.SessionService, hub *events.Hub, jwtManager *token.JWTManager) *StreamHandler {
	return &StreamHandler{sessionService: sessionService, hub: hub, jwtManager: jwtManager}
}

// Handle 处理一个传入的 WebSocket 连接。
func (h *StreamHandler) Handle(c *gin.Context) {
	claims, err := h.jwtManager.VerifyToken(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token", "data": nil})
		return
	}

	state, err := h.sessionService.Get(c.Request.Context(), claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "会话不存在或已过期", "data": nil})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取会话状态", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	// 先订阅再发送初始状态，避免漏掉两者之间的转换
	sub := h.hub.Subscribe(claims.SessionID)
	defer h.hub.Unsubscribe(sub)
	log.Infof("WebSocket 连接已建立，会话: %s", claims.SessionID)

	initial, err := json.Marshal(events.StateMessage{Type: "state", Actions: []string{}, Data: session.NewView(state)})
	if err != nil {
		log.Errorf("序列化会话状态失败: %v", err)
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, initial); err != nil {
		return
	}

	// 读协程只处理 pong 和关闭帧，客户端的操作都走 HTTP 接口
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warnf("WebSocket 读取错误, 会话: %s, error: %v", claims.SessionID, err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-sub.C():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 会话已结束
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			log.Infof("WebSocket 连接已关闭，会话: %s", claims.SessionID)
			return
		}
	}
}
