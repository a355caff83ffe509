package service

import (
	"context"
	"fmt"

	"lawguide-go/internal/model"
	"lawguide-go/internal/session"
	"lawguide-go/pkg/log"
	"lawguide-go/pkg/storage"
	"lawguide-go/pkg/token"
)

// FormUpdate 是一次表单编辑，nil 字段保持不变。
type FormUpdate struct {
	Text     *string          `json:"text"`
	Question *string          `json:"question"`
	Language *model.Language  `json:"language"`
	Section  *model.Section   `json:"activeSection"`
	Tab      *model.InputTab  `json:"activeTab"`
	Draft    *DraftFormUpdate `json:"draft"`
}

// DraftFormUpdate 是起草表单的部分更新。
type DraftFormUpdate struct {
	DocType *string `json:"docType"`
	Party1  *string `json:"party1"`
	Party2  *string `json:"party2"`
	Date    *string `json:"date"`
	Details *string `json:"details"`
}

// Actions 把表单编辑转换为 session.Action 列表。
func (u FormUpdate) Actions() []session.Action {
	var actions []session.Action
	if u.Section != nil {
		actions = append(actions, session.SelectSection{Section: *u.Section})
	}
	if u.Tab != nil {
		actions = append(actions, session.SelectTab{Tab: *u.Tab})
	}
	if u.Text != nil {
		actions = append(actions, session.SetText{Text: *u.Text})
	}
	if u.Question != nil {
		actions = append(actions, session.SetQuestion{Question: *u.Question})
	}
	if u.Language != nil {
		actions = append(actions, session.SetLanguage{Language: *u.Language})
	}
	if d := u.Draft; d != nil {
		fields := []struct {
			field session.DraftField
			value *string
		}{
			{session.FieldDocType, d.DocType},
			{session.FieldParty1, d.Party1},
			{session.FieldParty2, d.Party2},
			{session.FieldDate, d.Date},
			{session.FieldDetails, d.Details},
		}
		for _, f := range fields {
			if f.value != nil {
				actions = append(actions, session.EditDraft{Field: f.field, Value: *f.value})
			}
		}
	}
	return actions
}

// SessionCloser 在会话结束时断开它的实时连接。
type SessionCloser interface {
	CloseSession(sessionID string)
}

// SessionService 接口定义了会话生命周期与表单编辑相关的操作。
type SessionService interface {
	Create(ctx context.Context) (model.SessionState, string, error)
	Get(ctx context.Context, sessionID string) (model.SessionState, error)
	UpdateForm(ctx context.Context, sessionID string, update FormUpdate) (model.SessionState, error)
	StageFile(ctx context.Context, sessionID string, slot model.FileSlot, upload *FileUpload) (model.SessionState, error)
	DismissAlert(ctx context.Context, sessionID string) (model.SessionState, error)
	End(ctx context.Context, sessionID string) error
	Sweep(ctx context.Context) (int, error)
}

type sessionService struct {
	sessions   *session.Manager
	files      *fileStager
	jwtManager *token.JWTManager
	closer     SessionCloser
}

// NewSessionService 创建一个新的 SessionService 实例，closer 可以为 nil。
func NewSessionService(sessions *session.Manager, blobs storage.BlobStore, maxUploadBytes int64, jwtManager *token.JWTManager, closer SessionCloser) SessionService {
	return &sessionService{
		sessions:   sessions,
		files:      &fileStager{blobs: blobs, maxBytes: maxUploadBytes},
		jwtManager: jwtManager,
		closer:     closer,
	}
}

// Create 创建一个新会话并签发会话 token。
func (s *sessionService) Create(ctx context.Context) (model.SessionState, string, error) {
	state, err := s.sessions.Create(ctx)
	if err != nil {
		return model.SessionState{}, "", err
	}
	tokenString, err := s.jwtManager.GenerateToken(state.ID)
	if err != nil {
		_ = s.sessions.Delete(ctx, state.ID)
		return model.SessionState{}, "", fmt.Errorf("failed to generate session token: %w", err)
	}
	log.Infof("[SessionService] 新会话已创建: %s", state.ID)
	return state, tokenString, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (model.SessionState, error) {
	return s.sessions.Get(ctx, sessionID)
}

// UpdateForm 原子地应用一组表单编辑，任一字段非法时全部不生效。
func (s *sessionService) UpdateForm(ctx context.Context, sessionID string, update FormUpdate) (model.SessionState, error) {
	return s.sessions.Apply(ctx, sessionID, update.Actions()...)
}

// StageFile 校验并暂存文件，记录为对应选择框的当前文件。
func (s *sessionService) StageFile(ctx context.Context, sessionID string, slot model.FileSlot, upload *FileUpload) (model.SessionState, error) {
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return model.SessionState{}, err
	}
	if reason := s.files.check(upload); reason != "" {
		state, err := s.sessions.Apply(ctx, sessionID, session.ValidationFailed{Message: reason})
		if err != nil {
			return state, err
		}
		return state, fmt.Errorf("%w: %s", ErrValidation, reason)
	}
	ref, err := s.files.stage(ctx, sessionID, slot, upload)
	if err != nil {
		return model.SessionState{}, err
	}
	return s.sessions.Apply(ctx, sessionID, session.StageFile{Slot: slot, File: ref})
}

func (s *sessionService) DismissAlert(ctx context.Context, sessionID string) (model.SessionState, error) {
	return s.sessions.Apply(ctx, sessionID, session.DismissAlert{})
}

// End 结束会话并清理它的文件和连接。
func (s *sessionService) End(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.release(ctx, sessionID)
	log.Infof("[SessionService] 会话已结束: %s", sessionID)
	return nil
}

// Sweep 清理已过期的会话，返回清理数量。
func (s *sessionService) Sweep(ctx context.Context) (int, error) {
	ids, err := s.sessions.Purge(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.release(ctx, id)
	}
	return len(ids), nil
}

func (s *sessionService) release(ctx context.Context, sessionID string) {
	if err := s.files.blobs.DeletePrefix(ctx, sessionPrefix(sessionID)); err != nil {
		log.Warnf("[SessionService] 清理会话文件失败, session: %s, error: %v", sessionID, err)
	}
	if s.closer != nil {
		s.closer.CloseSession(sessionID)
	}
}
