package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"lawguide-go/internal/service"

	"github.com/gin-gonic/gin"
)

// readUpload 读取 multipart 字段 "file"。没有文件时返回 nil。
// maxBytes 为正时最多读取 maxBytes+1 字节，超限由业务层校验并给出提示。
func readUpload(c *gin.Context, maxBytes int64) (*service.FileUpload, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("无效的上传表单: %w", err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("无法打开上传文件: %w", err)
	}
	defer file.Close()

	var r io.Reader = file
	if maxBytes > 0 {
		r = io.LimitReader(file, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取上传文件失败: %w", err)
	}
	return &service.FileUpload{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
