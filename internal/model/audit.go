package model

import "time"

// ActionRecord 对应 session_action 表，记录会话上每一次状态转换。
type ActionRecord struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID  string    `gorm:"type:varchar(36);uniqueIndex:idx_session_version;not null" json:"sessionId"`
	Action     string    `gorm:"type:varchar(64);not null" json:"action"`
	Version    int64     `gorm:"uniqueIndex:idx_session_version;not null" json:"version"`
	Section    string    `gorm:"type:varchar(16)" json:"section"`
	Alert      string    `gorm:"type:varchar(255)" json:"alert"`
	OccurredAt time.Time `gorm:"not null" json:"occurredAt"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ActionRecord) TableName() string {
	return "session_action"
}
