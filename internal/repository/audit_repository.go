package repository

import (
	"lawguide-go/internal/model"

	"gorm.io/gorm"
)

// AuditRepository 定义了会话动作审计记录的持久化操作。
type AuditRepository interface {
	Create(record *model.ActionRecord) error
	FindBySession(sessionID string, limit int) ([]model.ActionRecord, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository 创建一个新的 AuditRepository 实例。
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Create 写入一条审计记录。
func (r *auditRepository) Create(record *model.ActionRecord) error {
	return r.db.Create(record).Error
}

// FindBySession 按版本顺序返回某个会话最近的动作记录。
func (r *auditRepository) FindBySession(sessionID string, limit int) ([]model.ActionRecord, error) {
	var records []model.ActionRecord
	q := r.db.Where("session_id = ?", sessionID).Order("version DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	// 取最新的 limit 条后恢复为升序
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}
