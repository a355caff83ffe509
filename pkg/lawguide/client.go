// Package lawguide 是法律助手后端（摘要、文档问答、起草、合同审阅）的 HTTP 客户端。
package lawguide

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"lawguide-go/internal/config"
	"lawguide-go/internal/model"
)

// Client 定义网关对法律助手后端的调用。
// 调用不做重试，超时由调用方的 context 控制。
type Client interface {
	Summarize(ctx context.Context, text string) (*SummaryResponse, error)
	UploadDocument(ctx context.Context, fileName string, data []byte, contentType string) (*UploadResponse, error)
	AskLegalQuestion(ctx context.Context, question string, language model.Language) (*AnswerResponse, error)
	AskAboutDocument(ctx context.Context, question string) (*AnswerResponse, error)
	DraftDocumentPDF(ctx context.Context, req DraftRequest) (*DraftedDocument, error)
	ReviewContract(ctx context.Context, fileName string, data []byte, contentType string) (*model.ContractReviewResult, error)
	Health(ctx context.Context) (*HealthResponse, error)
	ListModels(ctx context.Context) ([]string, error)
}

// SummaryResponse 是 POST /summarize 的响应体。
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// UploadResponse 是 POST /upload-document 的响应体。
type UploadResponse struct {
	FileName      string `json:"filename"`
	Summary       string `json:"summary"`
	ExtractedText string `json:"extracted_text"`
	Message       string `json:"message"`
}

// AnswerResponse 是两个问答接口共用的响应体。
type AnswerResponse struct {
	Answer string `json:"answer"`
}

// DraftRequest 是 POST /draft-document-pdf 的请求体。
type DraftRequest struct {
	DocType  string `json:"doc_type"`
	Party1   string `json:"party1"`
	Party2   string `json:"party2"`
	Date     string `json:"date"`
	Details  string `json:"details"`
	Language string `json:"language"`
}

// DraftedDocument 是起草接口返回的 PDF 二进制内容。
type DraftedDocument struct {
	Data        []byte
	FileName    string // 取自 Content-Disposition，后端未提供时为空
	ContentType string
}

// HealthResponse 是 GET /health 的响应体。
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// APIError 表示后端返回的非 2xx 响应，原因取自 "detail" 字段。
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned HTTP %d: %s", e.StatusCode, e.Detail)
}

type client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建指向 cfg.BaseURL 的后端客户端。
func NewClient(cfg config.BackendConfig) Client {
	return NewClientWithHTTP(cfg.BaseURL, &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	})
}

// NewClientWithHTTP 使用调用方提供的 http.Client 创建客户端。
func NewClientWithHTTP(baseURL string, httpClient *http.Client) Client {
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// ============================================================================
// 后端接口
// ============================================================================

func (c *client) Summarize(ctx context.Context, text string) (*SummaryResponse, error) {
	var result SummaryResponse
	if err := c.postJSON(ctx, "/summarize", map[string]string{"text": text}, &result); err != nil {
		return nil, fmt.Errorf("summarize request failed: %w", err)
	}
	return &result, nil
}

func (c *client) UploadDocument(ctx context.Context, fileName string, data []byte, contentType string) (*UploadResponse, error) {
	var result UploadResponse
	if err := c.postFile(ctx, "/upload-document", fileName, data, contentType, &result); err != nil {
		return nil, fmt.Errorf("upload document request failed: %w", err)
	}
	return &result, nil
}

func (c *client) AskLegalQuestion(ctx context.Context, question string, language model.Language) (*AnswerResponse, error) {
	endpoint := "/ask-legal-question?language=" + url.QueryEscape(string(language))
	var result AnswerResponse
	if err := c.postJSON(ctx, endpoint, map[string]string{"text": question}, &result); err != nil {
		return nil, fmt.Errorf("ask legal question request failed: %w", err)
	}
	return &result, nil
}

func (c *client) AskAboutDocument(ctx context.Context, question string) (*AnswerResponse, error) {
	var result AnswerResponse
	if err := c.postJSON(ctx, "/ask-about-document", map[string]string{"text": question}, &result); err != nil {
		return nil, fmt.Errorf("ask about document request failed: %w", err)
	}
	return &result, nil
}

func (c *client) DraftDocumentPDF(ctx context.Context, draft DraftRequest) (*DraftedDocument, error) {
	resp, err := c.do(ctx, http.MethodPost, "/draft-document-pdf", draft)
	if err != nil {
		return nil, fmt.Errorf("draft document request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("draft document request failed: %w", err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read drafted document: %w", err)
	}
	doc := &DraftedDocument{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			doc.FileName = params["filename"]
		}
	}
	return doc, nil
}

func (c *client) ReviewContract(ctx context.Context, fileName string, data []byte, contentType string) (*model.ContractReviewResult, error) {
	var result model.ContractReviewResult
	if err := c.postFile(ctx, "/review-contract", fileName, data, contentType, &result); err != nil {
		return nil, fmt.Errorf("review contract request failed: %w", err)
	}
	if result.Annotations == nil {
		result.Annotations = []model.Annotation{}
	}
	return &result, nil
}

func (c *client) Health(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	var result HealthResponse
	if err := parseResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	return &result, nil
}

// ListModels 返回后端可用的模型名称。
// 模型服务不可达时后端仍返回 200，正文为 {"error": ...}。
func (c *client) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/list-models", nil)
	if err != nil {
		return nil, fmt.Errorf("list models failed: %w", err)
	}
	var result struct {
		AvailableModels []string `json:"available_models"`
		Error           string   `json:"error"`
	}
	if err := parseResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("list models failed: %w", err)
	}
	if result.Error != "" {
		return nil, &APIError{StatusCode: http.StatusOK, Detail: result.Error}
	}
	return result.AvailableModels, nil
}

// ============================================================================
// HTTP 辅助方法
// ============================================================================

func (c *client) postJSON(ctx context.Context, endpoint string, body, result interface{}) error {
	resp, err := c.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	return parseResponse(resp, result)
}

// do 创建并执行一个 JSON 请求。
func (c *client) do(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

// postFile 以 multipart 字段 "file" 发送文件内容。
func (c *client) postFile(ctx context.Context, endpoint, fileName string, data []byte, contentType string, result interface{}) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	if contentType == "" {
		contentType = "application/pdf"
	}
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	return parseResponse(resp, result)
}

// parseResponse 读取并解析 JSON 响应。
func parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &APIError{StatusCode: resp.StatusCode, Detail: detailOf(bodyBytes)}
}

// detailOf 提取响应中的 "detail" 字段，没有时返回原始正文。
func detailOf(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}
		return string(payload.Detail)
	}
	return strings.TrimSpace(string(body))
}
