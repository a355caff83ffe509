// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"lawguide-go/internal/config"
	"lawguide-go/pkg/log"
	"lawguide-go/pkg/tasks"

	"github.com/segmentio/kafka-go"
)

// maxAttempts 是单条事件的最大处理次数，超过后提交 offset 放弃该事件。
const maxAttempts = 3

// EventProcessor 是处理会话事件的接口，消费者不依赖具体的审计实现。
type EventProcessor interface {
	Process(ctx context.Context, event tasks.SessionEvent) error
}

var producer *kafka.Writer

// ErrProducerNotInitialized 表示尚未调用 InitProducer。
var ErrProducerNotInitialized = errors.New("kafka producer not initialized")

func brokers(cfg config.KafkaConfig) []string {
	var out []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// InitProducer 初始化 Kafka 生产者。
// 写入是异步的，消息以会话 ID 为 key，同一会话的事件落在同一分区并保持顺序。
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:         kafka.TCP(brokers(cfg)...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Errorf("发送 %d 条会话事件到 Kafka 失败: %v", len(messages), err)
			}
		},
	}
	log.Info("Kafka 生产者初始化成功")
}

// ProduceSessionEvent 发送一个会话事件到 Kafka。
func ProduceSessionEvent(ctx context.Context, event tasks.SessionEvent) error {
	if producer == nil {
		return ErrProducerNotInitialized
	}
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return producer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SessionID),
		Value: eventBytes,
	})
}

// CloseProducer 刷新缓冲区并关闭生产者。
func CloseProducer() error {
	if producer == nil {
		return nil
	}
	return producer.Close()
}

// StartConsumer 启动一个 Kafka 消费者来处理会话事件，ctx 取消后退出。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor EventProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers(cfg),
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Error("从 Kafka 读取消息失败", err)
			}
			break
		}

		var event tasks.SessionEvent
		if err := json.Unmarshal(m.Value, &event); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			commit(r, m)
			continue
		}

		for attempt := 1; attempt <= maxAttempts; attempt++ {
			err = processor.Process(ctx, event)
			if err == nil {
				break
			}
			log.Warnf("处理会话事件失败(第 %d 次): session=%s action=%s, Error: %v", attempt, event.SessionID, event.Action, err)
			if ctx.Err() != nil {
				break
			}
			time.Sleep(time.Duration(attempt) * 200 * time.Millisecond)
		}
		if ctx.Err() != nil {
			// 未提交的消息会在下次启动时重新投递
			break
		}
		if err != nil {
			log.Errorf("会话事件多次失败(>=%d)，提交 offset 终止重试: session=%s action=%s", maxAttempts, event.SessionID, event.Action)
		}
		commit(r, m)
	}

	if err := r.Close(); err != nil {
		log.Errorf("关闭 Kafka 消费者失败: %v", err)
	}
	log.Info("Kafka 消费者已停止")
}

func commit(r *kafka.Reader, m kafka.Message) {
	if err := r.CommitMessages(context.Background(), m); err != nil {
		log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
	}
}
