package session

import "lawguide-go/internal/model"

// Action 是作用于 SessionState 的一次具名状态转换。
// 所有非确定性输入（ID、时间戳）都由调用方放进 Action，Reduce 本身保持纯函数。
type Action interface {
	ActionName() string
}

// ---- 表单编辑 ----

type SetText struct{ Text string }

type SetQuestion struct{ Question string }

type SetLanguage struct{ Language model.Language }

type SelectSection struct{ Section model.Section }

type SelectTab struct{ Tab model.InputTab }

// DraftField 标识起草表单中的一个字段。
type DraftField string

const (
	FieldDocType DraftField = "docType"
	FieldParty1  DraftField = "party1"
	FieldParty2  DraftField = "party2"
	FieldDate    DraftField = "date"
	FieldDetails DraftField = "details"
)

type EditDraft struct {
	Field DraftField
	Value string
}

// StageFile 记录某个文件选择框当前选中的文件。
type StageFile struct {
	Slot model.FileSlot
	File *model.FileRef
}

type DismissAlert struct{}

// ValidationFailed 在请求发出前被拒绝时设置阻塞提示，不改变其他状态。
type ValidationFailed struct{ Message string }

// ---- 文档摘要 ----

type SummarizeStarted struct{}

type SummarizeSucceeded struct{ Summary string }

type SummarizeFailed struct{ Alert string }

// ---- 文档上传 ----

type UploadStarted struct{}

type UploadSucceeded struct {
	FileName  string
	Summary   string
	NoticeID  string
	Timestamp string
}

type UploadFailed struct{ Alert string }

// ---- 问答 ----

// QuestionAsked 是两阶段追加的第一阶段：用户消息与机器人占位消息一起追加。
type QuestionAsked struct {
	EntryID       string
	PlaceholderID string
	Content       string
	Timestamp     string
}

// AnswerResolved 是第二阶段：占位消息被回答或固定的兜底文案替换。
type AnswerResolved struct {
	PlaceholderID string
	Content       string
	Timestamp     string
	Fallback      bool
}

// ---- 文书起草 ----

type DraftStarted struct{}

type DraftSucceeded struct {
	Artifact model.DraftArtifact
}

type DraftFailed struct{ Alert string }

// ---- 合同审阅 ----

type ReviewStarted struct{}

type ReviewSucceeded struct {
	Result model.ContractReviewResult
}

type ReviewFailed struct{ Alert string }

func (SetText) ActionName() string            { return "set_text" }
func (SetQuestion) ActionName() string        { return "set_question" }
func (SetLanguage) ActionName() string        { return "set_language" }
func (SelectSection) ActionName() string      { return "select_section" }
func (SelectTab) ActionName() string          { return "select_tab" }
func (EditDraft) ActionName() string          { return "edit_draft" }
func (StageFile) ActionName() string          { return "stage_file" }
func (DismissAlert) ActionName() string       { return "dismiss_alert" }
func (ValidationFailed) ActionName() string   { return "validation_failed" }
func (SummarizeStarted) ActionName() string   { return "summarize_started" }
func (SummarizeSucceeded) ActionName() string { return "summarize_succeeded" }
func (SummarizeFailed) ActionName() string    { return "summarize_failed" }
func (UploadStarted) ActionName() string      { return "upload_started" }
func (UploadSucceeded) ActionName() string    { return "upload_succeeded" }
func (UploadFailed) ActionName() string       { return "upload_failed" }
func (QuestionAsked) ActionName() string      { return "question_asked" }
func (AnswerResolved) ActionName() string     { return "answer_resolved" }
func (DraftStarted) ActionName() string       { return "draft_started" }
func (DraftSucceeded) ActionName() string     { return "draft_succeeded" }
func (DraftFailed) ActionName() string        { return "draft_failed" }
func (ReviewStarted) ActionName() string      { return "review_started" }
func (ReviewSucceeded) ActionName() string    { return "review_succeeded" }
func (ReviewFailed) ActionName() string       { return "review_failed" }
