package model

import "time"

// Section 是四个互斥的界面模式之一。
type Section string

const (
	SectionDocument Section = "document"
	SectionChat     Section = "chat"
	SectionDraft    Section = "draft"
	SectionReview   Section = "review"
)

// Valid 判断是否为已知的 Section。
func (s Section) Valid() bool {
	switch s {
	case SectionDocument, SectionChat, SectionDraft, SectionReview:
		return true
	}
	return false
}

// InputTab 是文档分析区内的输入方式：粘贴文本或上传文件。
type InputTab string

const (
	TabText   InputTab = "text"
	TabUpload InputTab = "upload"
)

// Valid 判断是否为已知的 InputTab。
func (t InputTab) Valid() bool {
	return t == TabText || t == TabUpload
}

// Language 是问答与起草支持的语言。
type Language string

const (
	LangEnglish Language = "en"
	LangHindi   Language = "hi"
	LangFrench  Language = "fr"
	LangSpanish Language = "es"
)

// Languages 按界面展示顺序列出全部语言。
var Languages = []Language{LangEnglish, LangHindi, LangFrench, LangSpanish}

// Valid 判断是否为支持的语言。
func (l Language) Valid() bool {
	for _, v := range Languages {
		if l == v {
			return true
		}
	}
	return false
}

// DocType 是可起草的法律文书类型。
type DocType string

const (
	DocRentalAgreement DocType = "rental agreement"
	DocNDA             DocType = "non-disclosure agreement"
	DocServiceContract DocType = "service contract"
	DocAffidavit       DocType = "affidavit"
	DocWill            DocType = "will"
)

// DocTypes 按界面展示顺序列出全部文书类型。
var DocTypes = []DocType{DocRentalAgreement, DocNDA, DocServiceContract, DocAffidavit, DocWill}

// Valid 判断是否为支持的文书类型。
func (d DocType) Valid() bool {
	for _, v := range DocTypes {
		if d == v {
			return true
		}
	}
	return false
}

// DraftForm 是起草区的表单字段，语言与问答区共用 SessionState.Language。
type DraftForm struct {
	DocType DocType `json:"docType"`
	Party1  string  `json:"party1"`
	Party2  string  `json:"party2"`
	Date    string  `json:"date"`
	Details string  `json:"details"`
}

// Annotation 是合同审阅中标注出的一个问题。
type Annotation struct {
	Severity   string `json:"severity"`
	Issue      string `json:"issue"`
	Text       string `json:"text"`
	Suggestion string `json:"suggestion"`
}

// ContractReviewResult 是一次合同审阅的完整结果，每次成功审阅整体替换。
type ContractReviewResult struct {
	RiskLevel   string       `json:"risk_level"`
	Summary     string       `json:"summary"`
	Annotations []Annotation `json:"annotations"`
}

// SessionState 保存一个浏览器会话的全部界面状态。
// 它按值传递，只能通过 session.Reduce 产生新版本。
type SessionState struct {
	ID string `json:"id"`

	// 文档分析区
	Text                string   `json:"text"`
	DocumentFile        *FileRef `json:"documentFile,omitempty"`
	Summary             string   `json:"summary"`
	Loading             bool     `json:"loading"`
	HasUploadedDocument bool     `json:"hasUploadedDocument"`

	// 导航
	ActiveSection Section  `json:"activeSection"`
	ActiveTab     InputTab `json:"activeTab"`

	// 问答区
	Transcript Transcript `json:"transcript"`
	Question   string     `json:"question"`
	Language   Language   `json:"language"`

	// 起草区
	Draft        DraftForm      `json:"draft"`
	DraftMessage string         `json:"draftMessage"`
	LastDraft    *DraftArtifact `json:"lastDraft,omitempty"`

	// 合同审阅区
	ReviewFile     *FileRef              `json:"reviewFile,omitempty"`
	ReviewLoading  bool                  `json:"reviewLoading"`
	ContractReview *ContractReviewResult `json:"contractReview,omitempty"`

	// Alert 是最近一次需要用户确认的提示。
	Alert string `json:"alert,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
