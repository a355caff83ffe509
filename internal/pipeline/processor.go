// Package pipeline 定义了会话事件的消费流程：把 Kafka 中的状态转换写入审计表。
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"lawguide-go/internal/model"
	"lawguide-go/internal/repository"
	"lawguide-go/pkg/log"
	"lawguide-go/pkg/tasks"

	"gorm.io/gorm"
)

// AuditProcessor 封装了审计写入的依赖和逻辑。
type AuditProcessor struct {
	auditRepo repository.AuditRepository
}

// NewAuditProcessor 创建一个新的 AuditProcessor 实例。
func NewAuditProcessor(auditRepo repository.AuditRepository) *AuditProcessor {
	return &AuditProcessor{auditRepo: auditRepo}
}

// Process 将一条会话事件写入 session_action 表。
// 同一 (session, version) 只记录一次，Kafka 重复投递时直接忽略。
func (p *AuditProcessor) Process(ctx context.Context, event tasks.SessionEvent) error {
	if event.SessionID == "" || event.Action == "" {
		log.Warnf("[AuditProcessor] 忽略不完整的会话事件: %+v", event)
		return nil
	}

	record := &model.ActionRecord{
		SessionID:  event.SessionID,
		Action:     event.Action,
		Version:    event.Version,
		Section:    event.Section,
		Alert:      truncate(event.Alert, 255),
		OccurredAt: event.OccurredAt,
	}
	if err := p.auditRepo.Create(record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Infof("[AuditProcessor] 重复事件已忽略: session=%s version=%d", event.SessionID, event.Version)
			return nil
		}
		return fmt.Errorf("写入审计记录失败: %w", err)
	}
	log.Debugw("[AuditProcessor] 审计记录已写入", "session", event.SessionID, "action", event.Action, "version", event.Version)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
