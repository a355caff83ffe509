package service

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"lawguide-go/internal/model"
	"lawguide-go/internal/session"
	"lawguide-go/pkg/storage"

	"github.com/google/uuid"
)

// FileUpload 是浏览器提交的一个文件。
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// fileStager 负责校验上传文件并暂存到 BlobStore。
type fileStager struct {
	blobs    storage.BlobStore
	maxBytes int64
}

func sessionPrefix(sessionID string) string {
	return fmt.Sprintf("sessions/%s/", sessionID)
}

// check 返回面向用户的拒绝原因，合法时返回空字符串。
func (f *fileStager) check(upload *FileUpload) string {
	if upload == nil || upload.Name == "" || len(upload.Data) == 0 {
		return session.AlertNoFileSelected
	}
	if f.maxBytes > 0 && int64(len(upload.Data)) > f.maxBytes {
		return session.AlertFileTooLarge
	}
	if !isPDF(upload) {
		return session.AlertNotPDF
	}
	return ""
}

func isPDF(upload *FileUpload) bool {
	if strings.EqualFold(path.Ext(upload.Name), ".pdf") {
		return true
	}
	return http.DetectContentType(upload.Data) == "application/pdf"
}

// stage 把文件写入 sessions/{id}/{slot}/{uuid}，返回文件引用。
func (f *fileStager) stage(ctx context.Context, sessionID string, slot model.FileSlot, upload *FileUpload) (*model.FileRef, error) {
	contentType := upload.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "application/pdf"
	}
	key := fmt.Sprintf("%s%s/%s", sessionPrefix(sessionID), slot, uuid.NewString())
	if err := f.blobs.Put(ctx, key, upload.Data, contentType); err != nil {
		return nil, fmt.Errorf("failed to stage file: %w", err)
	}
	return &model.FileRef{
		Key:         key,
		Name:        upload.Name,
		Size:        int64(len(upload.Data)),
		ContentType: contentType,
	}, nil
}

// load 读取已暂存文件的内容。
func (f *fileStager) load(ctx context.Context, ref *model.FileRef) ([]byte, error) {
	data, err := f.blobs.Get(ctx, ref.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to load staged file %s: %w", ref.Name, err)
	}
	return data, nil
}
