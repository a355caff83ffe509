package lawguide

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lawguide-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T, handler http.HandlerFunc) Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithHTTP(server.URL, server.Client())
}

func TestSummarize(t *testing.T) {
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/summarize", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "The tenant shall pay rent.", req["text"])

		json.NewEncoder(w).Encode(map[string]string{"summary": "You pay rent."})
	})

	result, err := c.Summarize(context.Background(), "The tenant shall pay rent.")
	require.NoError(t, err)
	assert.Equal(t, "You pay rent.", result.Summary)
}

func TestAskLegalQuestionSendsLanguage(t *testing.T) {
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ask-legal-question", r.URL.Path)
		assert.Equal(t, "hi", r.URL.Query().Get("language"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "What is a lease?", req["text"])

		json.NewEncoder(w).Encode(map[string]string{"answer": "A lease is a contract."})
	})

	result, err := c.AskLegalQuestion(context.Background(), "What is a lease?", model.LangHindi)
	require.NoError(t, err)
	assert.Equal(t, "A lease is a contract.", result.Answer)
}

func TestAskAboutDocument(t *testing.T) {
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ask-about-document", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"answer": "30 days."})
	})

	result, err := c.AskAboutDocument(context.Background(), "What is the notice period?")
	require.NoError(t, err)
	assert.Equal(t, "30 days.", result.Answer)
}

func TestUploadDocumentMultipart(t *testing.T) {
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload-document", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "lease.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))
		assert.Equal(t, "%PDF-1.4 body", string(data))

		json.NewEncoder(w).Encode(map[string]string{
			"filename":       "lease.pdf",
			"summary":        "A lease.",
			"extracted_text": "body",
			"message":        "Document uploaded successfully. You can now ask questions about it.",
		})
	})

	result, err := c.UploadDocument(context.Background(), "lease.pdf", []byte("%PDF-1.4 body"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "A lease.", result.Summary)
	assert.Equal(t, "lease.pdf", result.FileName)
	assert.Equal(t, "body", result.ExtractedText)
}

func TestDraftDocumentPDF(t *testing.T) {
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/draft-document-pdf", r.URL.Path)

		var req DraftRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DraftRequest{
			DocType: "rental agreement", Party1: "A", Party2: "B",
			Date: "2024-01-01", Details: "", Language: "en",
		}, req)

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="rental_agreement_20240101_120000.pdf"`)
		w.Write([]byte("%PDF-1.4 drafted"))
	})

	doc, err := c.DraftDocumentPDF(context.Background(), DraftRequest{
		DocType: "rental agreement", Party1: "A", Party2: "B", Date: "2024-01-01", Language: "en",
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 drafted"), doc.Data)
	assert.Equal(t, "rental_agreement_20240101_120000.pdf", doc.FileName)
	assert.Equal(t, "application/pdf", doc.ContentType)
}

func TestReviewContractFallbackShape(t *testing.T) {
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/review-contract", r.URL.Path)
		w.Write([]byte(`{
			"summary": "Contract review completed but formatting issues occurred",
			"annotations": [{"text": "Full document", "issue": "Analysis completed",
				"suggestion": "Please review the detailed analysis above", "severity": "medium"}],
			"risk_level": "requires_manual_review"
		}`))
	})

	result, err := c.ReviewContract(context.Background(), "c.pdf", []byte("%PDF"), "")
	require.NoError(t, err)
	assert.Equal(t, "requires_manual_review", result.RiskLevel)
	require.Len(t, result.Annotations, 1)
	assert.Equal(t, "medium", result.Annotations[0].Severity)
	assert.Equal(t, "Full document", result.Annotations[0].Text)
}

func TestReviewContractNilAnnotations(t *testing.T) {
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"summary": "ok", "risk_level": "low"}`))
	})

	result, err := c.ReviewContract(context.Background(), "c.pdf", []byte("%PDF"), "application/pdf")
	require.NoError(t, err)
	assert.NotNil(t, result.Annotations)
	assert.Empty(t, result.Annotations)
}

func TestAPIErrorDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		detail string
	}{
		{"string detail", http.StatusBadRequest, `{"detail": "Only PDF files are supported"}`, "Only PDF files are supported"},
		{"structured detail", http.StatusUnprocessableEntity, `{"detail": [{"loc": ["body"]}]}`, `[{"loc": ["body"]}]`},
		{"plain body", http.StatusBadGateway, "upstream down", "upstream down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.Summarize(context.Background(), "x")
			require.Error(t, err)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.detail, apiErr.Detail)
		})
	}
}

func TestServerErrorIsNotRetried(t *testing.T) {
	calls := 0
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail": "boom"}`))
	})

	_, err := c.AskLegalQuestion(context.Background(), "q", model.LangEnglish)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestContextDeadline(t *testing.T) {
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Summarize(ctx, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestHealthAndListModels(t *testing.T) {
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.Write([]byte(`{"status": "healthy", "service": "LawGuide AI API"}`))
		case "/list-models":
			w.Write([]byte(`{"available_models": ["models/gemini-1.5-flash-latest"]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	health, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)

	models, err := c.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"models/gemini-1.5-flash-latest"}, models)
}

func TestListModelsProviderError(t *testing.T) {
	c := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "invalid api key"}`))
	})

	_, err := c.ListModels(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "invalid api key", apiErr.Detail)
}
