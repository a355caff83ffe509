package service

import (
	"context"
	"errors"

	"lawguide-go/internal/session"
)

var (
	// ErrValidation 表示请求在发出前被拒绝，提示文案已写入会话的 Alert。
	ErrValidation = errors.New("validation failed")
	// ErrBackend 表示后端调用失败，失败提示已写入会话。
	ErrBackend = errors.New("backend request failed")
	// ErrDraftNotFound 表示会话中没有对应的起草文档。
	ErrDraftNotFound = errors.New("draft not found")
)

// failureAlert 把超时和取消与普通失败区分开。
func failureAlert(err error, fallback string) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return session.AlertTimeout
	case errors.Is(err, context.Canceled):
		return session.AlertCancelled
	}
	return fallback
}
