// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lawguide-go/internal/config"
	"lawguide-go/internal/events"
	"lawguide-go/internal/handler"
	"lawguide-go/internal/job"
	"lawguide-go/internal/middleware"
	"lawguide-go/internal/pipeline"
	"lawguide-go/internal/repository"
	"lawguide-go/internal/service"
	"lawguide-go/internal/session"
	"lawguide-go/pkg/database"
	"lawguide-go/pkg/kafka"
	"lawguide-go/pkg/lawguide"
	"lawguide-go/pkg/log"
	"lawguide-go/pkg/storage"
	"lawguide-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	configPath := os.Getenv("LAWGUIDE_CONFIG")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}
	config.Init(configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// 3. 初始化会话存储和对象存储
	var sessionRepo repository.SessionRepository
	switch cfg.Session.Store {
	case "redis":
		database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
		defer database.CloseRedis()
		sessionRepo = repository.NewRedisSessionRepository(database.RDB, cfg.Session.TTL())
	default:
		sessionRepo = repository.NewMemorySessionRepository(cfg.Session.TTL(), cfg.Session.MaxSessions)
	}

	var blobs storage.BlobStore
	switch cfg.Files.Storage {
	case "minio":
		store, err := storage.NewMinIOStore(rootCtx, cfg.MinIO)
		if err != nil {
			log.Fatalf("MinIO 初始化失败: %v", err)
		}
		blobs = store
	default:
		blobs = storage.NewMemoryStore()
	}

	// 4. 状态转换的分发：WebSocket 推送，以及可选的 Kafka 事件
	hub := events.NewHub(16)
	publishers := events.Fanout{hub}
	if cfg.Kafka.Enabled {
		kafka.InitProducer(cfg.Kafka)
		publishers = append(publishers, events.NewKafkaPublisher())
	}
	manager := session.NewManager(sessionRepo, publishers)

	// 5. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TokenExpireHours)
	backend := lawguide.NewClient(cfg.Backend)
	sessionService := service.NewSessionService(manager, blobs, cfg.Files.MaxUploadBytes, jwtManager, hub)
	assistantService := service.NewAssistantService(
		manager,
		backend,
		blobs,
		cfg.Backend.Timeout(),
		cfg.Files.MaxUploadBytes,
		cfg.Files.DownloadExpiry(),
	)

	// 6. 审计：消费会话事件写入 MySQL
	var auditService service.AuditService
	consumerDone := make(chan struct{})
	if cfg.Audit.Enabled {
		database.InitMySQL(cfg.Database.MySQL.DSN)
		defer database.CloseMySQL()
		auditRepo := repository.NewAuditRepository(database.DB)
		auditService = service.NewAuditService(auditRepo)
		go func() {
			defer close(consumerDone)
			kafka.StartConsumer(rootCtx, cfg.Kafka, pipeline.NewAuditProcessor(auditRepo))
		}()
	} else {
		close(consumerDone)
	}

	// 7. 启动过期会话清理任务
	janitor, err := job.StartJanitor(cfg.Session.JanitorSchedule, sessionService)
	if err != nil {
		log.Fatalf("会话清理任务启动失败: %v", err)
	}

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestID(), middleware.RequestLogger(), middleware.Recovery())
	// multipart 表单超出部分写入临时文件
	r.MaxMultipartMemory = cfg.Files.MaxUploadBytes + 1<<20

	// 9. 注册路由
	handler.RegisterRoutes(r, handler.Handlers{
		Session:  handler.NewSessionHandler(sessionService, auditService, cfg.Files.MaxUploadBytes),
		Document: handler.NewDocumentHandler(assistantService, cfg.Files.MaxUploadBytes),
		Chat:     handler.NewChatHandler(assistantService),
		Draft:    handler.NewDraftHandler(assistantService),
		Review:   handler.NewReviewHandler(assistantService, cfg.Files.MaxUploadBytes),
		Stream:   handler.NewStreamHandler(sessionService, hub, jwtManager),
		Health:   handler.NewHealthHandler(backend),
	}, jwtManager, cfg.Audit.Enabled)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 后端调用最长可能持续一个超时周期，留出等待时间
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.Timeout()+5*time.Second)
	defer cancel()

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}

	<-janitor.Stop().Done()
	cancelRoot()
	<-consumerDone
	if err := kafka.CloseProducer(); err != nil {
		log.Errorf("关闭 Kafka 生产者失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
