package handler

import (
	"lawguide-go/internal/middleware"
	"lawguide-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// Handlers 汇总了网关的全部控制器。
type Handlers struct {
	Session  *SessionHandler
	Document *DocumentHandler
	Chat     *ChatHandler
	Draft    *DraftHandler
	Review   *ReviewHandler
	Stream   *StreamHandler
	Health   *HealthHandler
}

// RegisterRoutes 在 r 上注册 /api/v1 下的全部路由。
// auditEnabled 为 false 时不注册审计查询接口。
func RegisterRoutes(r *gin.Engine, h Handlers, jwtManager *token.JWTManager, auditEnabled bool) {
	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/health", h.Health.Health)
		apiV1.GET("/chat/suggestions", h.Chat.Suggestions)
		apiV1.POST("/sessions", h.Session.Create)
		apiV1.GET("/ws/:token", h.Stream.Handle)

		auth := apiV1.Group("/")
		auth.Use(middleware.SessionAuth(jwtManager))
		{
			sessions := auth.Group("/sessions")
			{
				sessions.DELETE("", h.Session.End)
				sessions.GET("/state", h.Session.State)
				sessions.PATCH("/form", h.Session.UpdateForm)
				sessions.PUT("/files/:slot", h.Session.StageFile)
				sessions.POST("/alert/dismiss", h.Session.DismissAlert)
				if auditEnabled {
					sessions.GET("/actions", h.Session.Actions)
				}
			}

			documents := auth.Group("/documents")
			{
				documents.POST("/summarize", h.Document.Summarize)
				documents.POST("/upload", h.Document.Upload)
			}

			chat := auth.Group("/chat")
			{
				chat.POST("/ask", h.Chat.Ask)
				chat.POST("/ask-document", h.Chat.AskDocument)
			}

			drafts := auth.Group("/drafts")
			{
				drafts.POST("", h.Draft.Draft)
				drafts.GET("/:id/download", h.Draft.Download)
			}

			auth.POST("/reviews", h.Review.Review)
		}
	}
}
