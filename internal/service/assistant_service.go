// Package service 包含了网关的业务逻辑层：六个后端操作的调度和会话生命周期。
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lawguide-go/internal/model"
	"lawguide-go/internal/session"
	"lawguide-go/pkg/lawguide"
	"lawguide-go/pkg/log"
	"lawguide-go/pkg/storage"

	"github.com/google/uuid"
)

// AssistantService 接口定义了发往法律助手后端的六个操作。
// 每个操作都遵循同一生命周期：校验、置忙、调用后端、在会话上记录成功或失败。
// 参数为空时使用会话中对应输入框的当前值。
type AssistantService interface {
	SummarizeText(ctx context.Context, sessionID, text string) (model.SessionState, error)
	UploadDocument(ctx context.Context, sessionID string, upload *FileUpload) (model.SessionState, error)
	AskQuestion(ctx context.Context, sessionID, question string, language model.Language) (model.SessionState, error)
	AskAboutDocument(ctx context.Context, sessionID, question string) (model.SessionState, error)
	DraftDocument(ctx context.Context, sessionID string, form *model.DraftForm) (model.SessionState, error)
	ReviewContract(ctx context.Context, sessionID string, upload *FileUpload) (model.SessionState, error)
	OpenDraft(ctx context.Context, sessionID, draftID string) (*DraftDownload, error)
}

// DraftDownload 是起草文档的下载信息：要么是预签名链接，要么是文件内容。
type DraftDownload struct {
	FileName    string
	ContentType string
	URL         string
	Data        []byte
}

type assistantService struct {
	sessions       *session.Manager
	backend        lawguide.Client
	files          *fileStager
	timeout        time.Duration
	downloadExpiry time.Duration
	now            func() time.Time
	newID          func() string
}

// NewAssistantService 创建一个新的 AssistantService 实例。
func NewAssistantService(
	sessions *session.Manager,
	backend lawguide.Client,
	blobs storage.BlobStore,
	timeout time.Duration,
	maxUploadBytes int64,
	downloadExpiry time.Duration,
) AssistantService {
	return &assistantService{
		sessions:       sessions,
		backend:        backend,
		files:          &fileStager{blobs: blobs, maxBytes: maxUploadBytes},
		timeout:        timeout,
		downloadExpiry: downloadExpiry,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

// reject 记录一次校验失败，不发送请求。
func (s *assistantService) reject(ctx context.Context, sessionID, message string, edits ...session.Action) (model.SessionState, error) {
	actions := append(edits, session.ValidationFailed{Message: message})
	state, err := s.sessions.Apply(ctx, sessionID, actions...)
	if err != nil {
		return state, err
	}
	return state, fmt.Errorf("%w: %s", ErrValidation, message)
}

// settle 在调用方取消后仍然写入终态，保证忙碌标志被清除。
func (s *assistantService) settle(ctx context.Context, sessionID string, action session.Action) (model.SessionState, error) {
	return s.sessions.Apply(context.WithoutCancel(ctx), sessionID, action)
}

func (s *assistantService) fail(ctx context.Context, sessionID string, action session.Action, cause error) (model.SessionState, error) {
	state, err := s.settle(ctx, sessionID, action)
	if err != nil {
		return state, err
	}
	return state, fmt.Errorf("%w: %v", ErrBackend, cause)
}

// ---- 文档摘要 ----

func (s *assistantService) SummarizeText(ctx context.Context, sessionID, text string) (model.SessionState, error) {
	var edits []session.Action
	if text != "" {
		edits = append(edits, session.SetText{Text: text})
	} else {
		state, err := s.sessions.Get(ctx, sessionID)
		if err != nil {
			return state, err
		}
		text = state.Text
	}
	if strings.TrimSpace(text) == "" {
		return s.reject(ctx, sessionID, session.AlertBlankText, edits...)
	}

	if prior, err := s.sessions.Apply(ctx, sessionID, append(edits, session.SummarizeStarted{})...); err != nil {
		return prior, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resp, err := s.backend.Summarize(callCtx, text)
	if err != nil {
		log.Errorf("[AssistantService] 文本摘要失败, session: %s, error: %v", sessionID, err)
		return s.fail(ctx, sessionID, session.SummarizeFailed{Alert: failureAlert(err, session.AlertSummarizeFailed)}, err)
	}
	return s.settle(ctx, sessionID, session.SummarizeSucceeded{Summary: resp.Summary})
}

// ---- 文档上传 ----

func (s *assistantService) UploadDocument(ctx context.Context, sessionID string, upload *FileUpload) (model.SessionState, error) {
	ref, data, edits, err := s.resolveFile(ctx, sessionID, model.SlotDocument, upload)
	if err != nil {
		return model.SessionState{}, err
	}
	if ref == nil {
		return s.reject(ctx, sessionID, s.files.check(upload))
	}

	if prior, err := s.beginFileCall(ctx, sessionID, ref, edits, session.UploadStarted{}); err != nil {
		return prior, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resp, err := s.backend.UploadDocument(callCtx, ref.Name, data, ref.ContentType)
	if err != nil {
		log.Errorf("[AssistantService] 文档上传失败, session: %s, file: %s, error: %v", sessionID, ref.Name, err)
		return s.fail(ctx, sessionID, session.UploadFailed{Alert: failureAlert(err, session.AlertUploadFailed)}, err)
	}
	log.Infof("[AssistantService] 文档上传成功, session: %s, file: %s", sessionID, ref.Name)
	return s.settle(ctx, sessionID, session.UploadSucceeded{
		FileName:  ref.Name,
		Summary:   resp.Summary,
		NoticeID:  s.newID(),
		Timestamp: model.DisplayTime(s.now()),
	})
}

// beginFileCall 应用置忙动作。本次请求新暂存的文件在置忙被拒绝时删除，
// 否则它不会被任何会话状态引用。
func (s *assistantService) beginFileCall(ctx context.Context, sessionID string, ref *model.FileRef, edits []session.Action, started session.Action) (model.SessionState, error) {
	prior, err := s.sessions.Apply(ctx, sessionID, append(edits, started)...)
	if err != nil && len(edits) > 0 {
		if delErr := s.files.blobs.Delete(context.WithoutCancel(ctx), ref.Key); delErr != nil {
			log.Warnf("[AssistantService] 删除未使用的暂存文件失败, key: %s, error: %v", ref.Key, delErr)
		}
	}
	return prior, err
}

// resolveFile 取得要发送的文件：优先使用本次请求携带的文件（校验后暂存），
// 否则使用会话中已选中的文件。返回 nil ref 表示校验失败。
func (s *assistantService) resolveFile(ctx context.Context, sessionID string, slot model.FileSlot, upload *FileUpload) (*model.FileRef, []byte, []session.Action, error) {
	if upload != nil {
		if s.files.check(upload) != "" {
			return nil, nil, nil, nil
		}
		ref, err := s.files.stage(ctx, sessionID, slot, upload)
		if err != nil {
			return nil, nil, nil, err
		}
		return ref, upload.Data, []session.Action{session.StageFile{Slot: slot, File: ref}}, nil
	}

	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, nil, err
	}
	ref := state.DocumentFile
	if slot == model.SlotReview {
		ref = state.ReviewFile
	}
	if ref == nil {
		return nil, nil, nil, nil
	}
	data, err := s.files.load(ctx, ref)
	if err != nil {
		return nil, nil, nil, err
	}
	return ref, data, nil, nil
}

// ---- 问答 ----

func (s *assistantService) AskQuestion(ctx context.Context, sessionID, question string, language model.Language) (model.SessionState, error) {
	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return state, err
	}
	if question == "" {
		question = state.Question
	}
	var edits []session.Action
	if language != "" && language != state.Language {
		edits = append(edits, session.SetLanguage{Language: language})
	} else {
		language = state.Language
	}
	if strings.TrimSpace(question) == "" {
		return s.reject(ctx, sessionID, session.AlertBlankQuestion, edits...)
	}

	placeholderID := s.newID()
	asked := session.QuestionAsked{
		EntryID:       s.newID(),
		PlaceholderID: placeholderID,
		Content:       question,
		Timestamp:     model.DisplayTime(s.now()),
	}
	if prior, err := s.sessions.Apply(ctx, sessionID, append(edits, asked)...); err != nil {
		return prior, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resolved := session.AnswerResolved{PlaceholderID: placeholderID}
	if resp, err := s.backend.AskLegalQuestion(callCtx, question, language); err != nil {
		log.Errorf("[AssistantService] 法律问答失败, session: %s, error: %v", sessionID, err)
		resolved.Content, resolved.Fallback = session.FallbackConnection, true
	} else {
		resolved.Content = resp.Answer
	}
	resolved.Timestamp = model.DisplayTime(s.now())
	return s.settle(ctx, sessionID, resolved)
}

// AskAboutDocument 针对已上传文档提问。尚未上传文档时不发送请求，直接给出引导文案。
func (s *assistantService) AskAboutDocument(ctx context.Context, sessionID, question string) (model.SessionState, error) {
	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return state, err
	}
	if question == "" {
		question = state.Question
	}
	if strings.TrimSpace(question) == "" {
		return s.reject(ctx, sessionID, session.AlertBlankQuestion)
	}

	placeholderID := s.newID()
	asked := session.QuestionAsked{
		EntryID:       s.newID(),
		PlaceholderID: placeholderID,
		Content:       session.AboutDocumentPrefix + question,
		Timestamp:     model.DisplayTime(s.now()),
	}
	if !state.HasUploadedDocument {
		return s.sessions.Apply(ctx, sessionID, asked, session.AnswerResolved{
			PlaceholderID: placeholderID,
			Content:       session.FallbackNoDocument,
			Timestamp:     asked.Timestamp,
			Fallback:      true,
		})
	}
	if prior, err := s.sessions.Apply(ctx, sessionID, asked); err != nil {
		return prior, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resolved := session.AnswerResolved{PlaceholderID: placeholderID}
	if resp, err := s.backend.AskAboutDocument(callCtx, question); err != nil {
		log.Errorf("[AssistantService] 文档问答失败, session: %s, error: %v", sessionID, err)
		resolved.Content, resolved.Fallback = session.FallbackNoDocument, true
	} else {
		resolved.Content = resp.Answer
	}
	resolved.Timestamp = model.DisplayTime(s.now())
	return s.settle(ctx, sessionID, resolved)
}

// ---- 文书起草 ----

// DraftFileName 返回起草文档的下载文件名：文书类型中的第一个空格替换为下划线。
func DraftFileName(docType model.DocType) string {
	return strings.Replace(string(docType), " ", "_", 1) + ".pdf"
}

func draftKey(sessionID, draftID string) string {
	return fmt.Sprintf("%sdrafts/%s.pdf", sessionPrefix(sessionID), draftID)
}

// draftEdits 只写入请求中非空的字段，未携带的字段保留会话表单中的值。
func draftEdits(form *model.DraftForm) []session.Action {
	if form == nil {
		return nil
	}
	fields := []struct {
		field session.DraftField
		value string
	}{
		{session.FieldDocType, string(form.DocType)},
		{session.FieldParty1, form.Party1},
		{session.FieldParty2, form.Party2},
		{session.FieldDate, form.Date},
		{session.FieldDetails, form.Details},
	}
	var edits []session.Action
	for _, f := range fields {
		if f.value != "" {
			edits = append(edits, session.EditDraft{Field: f.field, Value: f.value})
		}
	}
	return edits
}

func (s *assistantService) DraftDocument(ctx context.Context, sessionID string, form *model.DraftForm) (model.SessionState, error) {
	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return state, err
	}
	edits := draftEdits(form)
	draft := state.Draft
	if form != nil {
		if form.DocType != "" {
			draft.DocType = form.DocType
		}
		if form.Party1 != "" {
			draft.Party1 = form.Party1
		}
		if form.Party2 != "" {
			draft.Party2 = form.Party2
		}
		if form.Date != "" {
			draft.Date = form.Date
		}
		if form.Details != "" {
			draft.Details = form.Details
		}
	}
	if strings.TrimSpace(draft.Party1) == "" || strings.TrimSpace(draft.Party2) == "" || strings.TrimSpace(draft.Date) == "" {
		return s.reject(ctx, sessionID, session.AlertDraftFieldsRequired, edits...)
	}

	started, err := s.sessions.Apply(ctx, sessionID, append(edits, session.DraftStarted{})...)
	if err != nil {
		return started, err
	}

	req := lawguide.DraftRequest{
		DocType:  string(started.Draft.DocType),
		Party1:   started.Draft.Party1,
		Party2:   started.Draft.Party2,
		Date:     started.Draft.Date,
		Details:  started.Draft.Details,
		Language: string(started.Language),
	}
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	doc, err := s.backend.DraftDocumentPDF(callCtx, req)
	if err != nil {
		log.Errorf("[AssistantService] 文书起草失败, session: %s, error: %v", sessionID, err)
		return s.fail(ctx, sessionID, session.DraftFailed{Alert: failureAlert(err, session.AlertDraftFailed)}, err)
	}

	draftID := s.newID()
	key := draftKey(sessionID, draftID)
	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	if err := s.files.blobs.Put(context.WithoutCancel(ctx), key, doc.Data, contentType); err != nil {
		log.Errorf("[AssistantService] 保存起草文档失败, session: %s, error: %v", sessionID, err)
		return s.fail(ctx, sessionID, session.DraftFailed{Alert: session.AlertDraftFailed}, err)
	}

	final, err := s.settle(ctx, sessionID, session.DraftSucceeded{Artifact: model.DraftArtifact{
		ID:          draftID,
		Key:         key,
		FileName:    DraftFileName(started.Draft.DocType),
		Size:        int64(len(doc.Data)),
		DownloadURL: fmt.Sprintf("/api/v1/drafts/%s/download", draftID),
		CreatedAt:   s.now(),
	}})
	if err != nil {
		return final, err
	}
	// 每个会话只保留最近一份起草文档
	if started.LastDraft != nil {
		if err := s.files.blobs.Delete(context.WithoutCancel(ctx), started.LastDraft.Key); err != nil {
			log.Warnf("[AssistantService] 删除旧起草文档失败, key: %s, error: %v", started.LastDraft.Key, err)
		}
	}
	log.Infof("[AssistantService] 文书起草成功, session: %s, draft: %s", sessionID, draftID)
	return final, nil
}

// OpenDraft 返回会话最近一份起草文档的下载方式。
func (s *assistantService) OpenDraft(ctx context.Context, sessionID, draftID string) (*DraftDownload, error) {
	state, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	artifact := state.LastDraft
	if artifact == nil || artifact.ID != draftID {
		return nil, ErrDraftNotFound
	}

	download := &DraftDownload{FileName: artifact.FileName, ContentType: "application/pdf"}
	url, err := s.files.blobs.PresignedURL(ctx, artifact.Key, artifact.FileName, s.downloadExpiry)
	if err != nil {
		return nil, err
	}
	if url != "" {
		download.URL = url
		return download, nil
	}
	download.Data, err = s.files.blobs.Get(ctx, artifact.Key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, ErrDraftNotFound
	}
	return download, err
}

// ---- 合同审阅 ----

func (s *assistantService) ReviewContract(ctx context.Context, sessionID string, upload *FileUpload) (model.SessionState, error) {
	ref, data, edits, err := s.resolveFile(ctx, sessionID, model.SlotReview, upload)
	if err != nil {
		return model.SessionState{}, err
	}
	if ref == nil {
		return s.reject(ctx, sessionID, s.files.check(upload))
	}

	if prior, err := s.beginFileCall(ctx, sessionID, ref, edits, session.ReviewStarted{}); err != nil {
		return prior, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result, err := s.backend.ReviewContract(callCtx, ref.Name, data, ref.ContentType)
	if err != nil {
		log.Errorf("[AssistantService] 合同审阅失败, session: %s, file: %s, error: %v", sessionID, ref.Name, err)
		return s.fail(ctx, sessionID, session.ReviewFailed{Alert: failureAlert(err, session.AlertReviewFailed)}, err)
	}
	return s.settle(ctx, sessionID, session.ReviewSucceeded{Result: *result})
}
