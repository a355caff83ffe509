package session

import "lawguide-go/internal/model"

// Affordances 描述当前哪些操作可以触发，视图据此禁用按钮。
type Affordances struct {
	Summarize        bool `json:"summarize"`
	Upload           bool `json:"upload"`
	AskQuestion      bool `json:"askQuestion"`
	AskAboutDocument bool `json:"askAboutDocument"`
	Draft            bool `json:"draft"`
	Review           bool `json:"review"`
}

// View 是返回给浏览器的会话状态。
type View struct {
	model.SessionState
	Affordances Affordances `json:"affordances"`
	// PendingAnswers 是仍在等待后端回复的问题数。
	PendingAnswers int `json:"pendingAnswers"`
}

// AffordancesOf 根据忙碌标志和已选文件计算可用操作。
func AffordancesOf(s model.SessionState) Affordances {
	return Affordances{
		Summarize:        !s.Loading,
		Upload:           !s.Loading && s.DocumentFile != nil,
		AskQuestion:      true,
		AskAboutDocument: s.HasUploadedDocument,
		Draft:            !s.Loading,
		Review:           !s.ReviewLoading && s.ReviewFile != nil,
	}
}

// NewView 组装会话视图。
func NewView(s model.SessionState) View {
	return View{
		SessionState:   s,
		Affordances:    AffordancesOf(s),
		PendingAnswers: PendingCount(s.Transcript),
	}
}
