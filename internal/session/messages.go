package session

import "fmt"

// 面向用户的固定文案。
const (
	WelcomeMessage = "Hello! I'm LawGuide AI, your legal assistant and tutor. I can help you analyze legal documents, answer legal questions, and draft basic legal forms. How can I assist you today?"

	FallbackConnection = "Sorry, I'm having trouble connecting to the server. Please try again later."
	FallbackNoDocument = "Please upload a document first or try a general legal question."

	AboutDocumentPrefix = "[About uploaded document] "

	AlertSummarizeFailed = "Failed to get summary. Please check if the backend is running."
	AlertUploadFailed    = "Failed to upload file. Please check if the file is a PDF and try again."
	AlertDraftFailed     = "Failed to draft document. Please try again."
	AlertReviewFailed    = "Failed to review contract. Please check if the file is a PDF and try again."
	AlertTimeout         = "The request timed out. Please try again."
	AlertCancelled       = "The request was cancelled."

	AlertDraftFieldsRequired = "Please fill in all required fields: Party 1, Party 2, and Date"
	AlertBlankText           = "Please paste some legal text to summarize."
	AlertBlankQuestion       = "Please type a question first."
	AlertNoFileSelected      = "Please select a PDF file first."
	AlertNotPDF              = "Only PDF files are supported"
	AlertFileTooLarge        = "File too large. Maximum size is 10MB"

	DraftSuccessMessage = "Document drafted and downloaded successfully!"
)

// SuggestedQuestions 是问答区展示的示例问题。
var SuggestedQuestions = []string{
	"What should be included in a rental agreement?",
	"How does copyright protection work?",
	"What are the basic elements of a contract?",
	"What is intellectual property?",
	"How do I create a will?",
}

// UploadNotice 返回文档上传成功后追加到对话记录中的确认消息。
func UploadNotice(fileName string) string {
	return fmt.Sprintf("Document \"%s\" uploaded successfully! You can now ask questions about this specific document.", fileName)
}
