package model

import "time"

// FileSlot 标识一个文件选择框：文档分析或合同审阅。
type FileSlot string

const (
	SlotDocument FileSlot = "document"
	SlotReview   FileSlot = "review"
)

// ParseFileSlot 将路径参数转换为 FileSlot。
func ParseFileSlot(s string) (FileSlot, bool) {
	switch FileSlot(s) {
	case SlotDocument, SlotReview:
		return FileSlot(s), true
	}
	return "", false
}

// FileRef 描述一个已暂存的文件，文件内容存放在对象存储的 Key 下。
type FileRef struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// DraftArtifact 是一次起草成功后生成的可下载 PDF。
type DraftArtifact struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	FileName    string    `json:"fileName"`
	Size        int64     `json:"size"`
	DownloadURL string    `json:"downloadUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}
