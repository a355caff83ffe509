package service

import (
	"lawguide-go/internal/model"
	"lawguide-go/internal/repository"
)

// maxHistory 是单次查询审计记录的上限。
const maxHistory = 500

// AuditService 提供会话动作审计记录的查询。
type AuditService interface {
	History(sessionID string, limit int) ([]model.ActionRecord, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

// NewAuditService 创建一个新的 AuditService 实例。
func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

// History 按版本顺序返回会话的动作记录。
func (s *auditService) History(sessionID string, limit int) ([]model.ActionRecord, error) {
	if limit <= 0 || limit > maxHistory {
		limit = maxHistory
	}
	records, err := s.auditRepo.FindBySession(sessionID, limit)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.ActionRecord{}
	}
	return records, nil
}
