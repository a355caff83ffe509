// Package session 实现了会话状态模型：纯函数 Reduce、对话记录管理以及按会话串行化的 Manager。
package session

import (
	"errors"
	"fmt"
	"time"

	"lawguide-go/internal/model"
)

var (
	ErrUnknownAction    = errors.New("session: unknown action")
	ErrOperationPending = errors.New("session: operation already pending")
	ErrEntryNotFound    = errors.New("session: transcript entry not found")
	ErrEntryNotPending  = errors.New("session: transcript entry already resolved")
	ErrInvalidValue     = errors.New("session: invalid value")
)

// New 创建一个全新的会话状态。
func New(id, welcomeID string, now time.Time) model.SessionState {
	return model.SessionState{
		ID:            id,
		ActiveSection: model.SectionDocument,
		ActiveTab:     model.TabText,
		Transcript:    NewTranscript(welcomeID, now),
		Language:      model.LangEnglish,
		Draft:         model.DraftForm{DocType: model.DocRentalAgreement},
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Reduce 将 action 应用于 s 并返回新状态。出错时返回原状态。
// 切换导航永远不会清除其他区块的状态。
func Reduce(s model.SessionState, action Action) (model.SessionState, error) {
	next := s

	switch a := action.(type) {
	case SetText:
		next.Text = a.Text
	case SetQuestion:
		next.Question = a.Question
	case SetLanguage:
		if !a.Language.Valid() {
			return s, fmt.Errorf("%w: language %q", ErrInvalidValue, a.Language)
		}
		next.Language = a.Language
	case SelectSection:
		if !a.Section.Valid() {
			return s, fmt.Errorf("%w: section %q", ErrInvalidValue, a.Section)
		}
		next.ActiveSection = a.Section
	case SelectTab:
		if !a.Tab.Valid() {
			return s, fmt.Errorf("%w: tab %q", ErrInvalidValue, a.Tab)
		}
		next.ActiveTab = a.Tab
	case EditDraft:
		draft, err := editDraft(s.Draft, a)
		if err != nil {
			return s, err
		}
		next.Draft = draft
	case StageFile:
		switch a.Slot {
		case model.SlotDocument:
			next.DocumentFile = a.File
		case model.SlotReview:
			next.ReviewFile = a.File
		default:
			return s, fmt.Errorf("%w: file slot %q", ErrInvalidValue, a.Slot)
		}
	case DismissAlert:
		next.Alert = ""
	case ValidationFailed:
		next.Alert = a.Message

	case SummarizeStarted:
		if s.Loading {
			return s, ErrOperationPending
		}
		next.Loading = true
	case SummarizeSucceeded:
		next.Loading = false
		next.Summary = a.Summary
	case SummarizeFailed:
		next.Loading = false
		next.Alert = a.Alert

	case UploadStarted:
		if s.Loading {
			return s, ErrOperationPending
		}
		next.Loading = true
	case UploadSucceeded:
		next.Loading = false
		next.Summary = a.Summary
		next.HasUploadedDocument = true
		next.Transcript = Append(s.Transcript, model.ChatMessage{
			ID:        a.NoticeID,
			Role:      model.RoleBot,
			Content:   UploadNotice(a.FileName),
			Timestamp: a.Timestamp,
		})
	case UploadFailed:
		next.Loading = false
		next.Alert = a.Alert

	case QuestionAsked:
		next.Question = ""
		next.Transcript = Append(s.Transcript,
			model.ChatMessage{ID: a.EntryID, Role: model.RoleUser, Content: a.Content, Timestamp: a.Timestamp},
			model.ChatMessage{ID: a.PlaceholderID, Role: model.RoleBot, Timestamp: a.Timestamp, Pending: true},
		)
	case AnswerResolved:
		t, err := ResolvePending(s.Transcript, a.PlaceholderID, a.Content, a.Timestamp)
		if err != nil {
			return s, err
		}
		next.Transcript = t

	case DraftStarted:
		if s.Loading {
			return s, ErrOperationPending
		}
		next.Loading = true
		next.DraftMessage = ""
	case DraftSucceeded:
		artifact := a.Artifact
		next.Loading = false
		next.LastDraft = &artifact
		next.DraftMessage = DraftSuccessMessage
	case DraftFailed:
		next.Loading = false
		next.Alert = a.Alert

	case ReviewStarted:
		if s.ReviewLoading {
			return s, ErrOperationPending
		}
		next.ReviewLoading = true
	case ReviewSucceeded:
		result := a.Result
		if result.Annotations == nil {
			result.Annotations = []model.Annotation{}
		}
		next.ReviewLoading = false
		next.ContractReview = &result
	case ReviewFailed:
		next.ReviewLoading = false
		next.Alert = a.Alert

	default:
		return s, fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}

	next.Version = s.Version + 1
	return next, nil
}

func editDraft(d model.DraftForm, a EditDraft) (model.DraftForm, error) {
	switch a.Field {
	case FieldDocType:
		dt := model.DocType(a.Value)
		if !dt.Valid() {
			return d, fmt.Errorf("%w: document type %q", ErrInvalidValue, a.Value)
		}
		d.DocType = dt
	case FieldParty1:
		d.Party1 = a.Value
	case FieldParty2:
		d.Party2 = a.Value
	case FieldDate:
		d.Date = a.Value
	case FieldDetails:
		d.Details = a.Value
	default:
		return d, fmt.Errorf("%w: draft field %q", ErrInvalidValue, a.Field)
	}
	return d, nil
}
