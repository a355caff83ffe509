package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"lawguide-go/internal/events"
	"lawguide-go/internal/model"
	"lawguide-go/internal/repository"
	"lawguide-go/internal/service"
	"lawguide-go/internal/session"
	"lawguide-go/pkg/lawguide"
	"lawguide-go/pkg/storage"
	"lawguide-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const maxUpload = 1024

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type gateway struct {
	router  *gin.Engine
	backend *httptest.Server
	calls   map[string]*int32
	hub     *events.Hub
}

// newGateway 组装一个使用内存存储和假后端的网关。routes 为后端路径到处理函数的映射。
func newGateway(t *testing.T, routes map[string]http.HandlerFunc) *gateway {
	t.Helper()
	gin.SetMode(gin.TestMode)

	g := &gateway{calls: make(map[string]*int32)}
	mux := http.NewServeMux()
	for path, fn := range routes {
		counter := new(int32)
		g.calls[path] = counter
		fn := fn
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(counter, 1)
			fn(w, r)
		})
	}
	g.backend = httptest.NewServer(mux)
	t.Cleanup(g.backend.Close)

	backend := lawguide.NewClientWithHTTP(g.backend.URL, g.backend.Client())
	blobs := storage.NewMemoryStore()
	jwtManager := token.NewJWTManager("test-secret", 1)
	g.hub = events.NewHub(8)
	manager := session.NewManager(repository.NewMemorySessionRepository(time.Hour, 0), g.hub)

	sessionService := service.NewSessionService(manager, blobs, maxUpload, jwtManager, g.hub)
	assistant := service.NewAssistantService(manager, backend, blobs, 2*time.Second, maxUpload, time.Minute)

	g.router = gin.New()
	RegisterRoutes(g.router, Handlers{
		Session:  NewSessionHandler(sessionService, nil, maxUpload),
		Document: NewDocumentHandler(assistant, maxUpload),
		Chat:     NewChatHandler(assistant),
		Draft:    NewDraftHandler(assistant),
		Review:   NewReviewHandler(assistant, maxUpload),
		Stream:   NewStreamHandler(sessionService, g.hub, jwtManager),
		Health:   NewHealthHandler(backend),
	}, jwtManager, false)
	return g
}

func (g *gateway) called(path string) int32 {
	if c, ok := g.calls[path]; ok {
		return atomic.LoadInt32(c)
	}
	return 0
}

func (g *gateway) do(t *testing.T, method, path, tokenString string, body *bytes.Buffer, contentType string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, body)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tokenString != "" {
		req.Header.Set("Authorization", "Bearer "+tokenString)
	}
	w := httptest.NewRecorder()
	g.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (g *gateway) doJSON(t *testing.T, method, path, tokenString string, payload interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return g.do(t, method, path, tokenString, bytes.NewBuffer(b), "application/json")
}

func (g *gateway) doFile(t *testing.T, method, path, tokenString, fileName string, data []byte) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return g.do(t, method, path, tokenString, body, writer.FormDataContentType())
}

func (g *gateway) createSession(t *testing.T) string {
	t.Helper()
	w, env := g.do(t, http.MethodPost, "/api/v1/sessions", "", nil, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var data struct {
		Token string       `json:"token"`
		State session.View `json:"state"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func decodeView(t *testing.T, env envelope) session.View {
	t.Helper()
	var v session.View
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestCreateSessionAndState(t *testing.T) {
	g := newGateway(t, nil)
	tokenString := g.createSession(t)

	w, env := g.do(t, http.MethodGet, "/api/v1/sessions/state", tokenString, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, env)
	require.Equal(t, 1, view.Transcript.Len())
	assert.Equal(t, model.RoleBot, view.Transcript.Messages[0].Role)
	assert.Equal(t, model.SectionDocument, view.ActiveSection)
	assert.False(t, view.Affordances.AskAboutDocument)

	w, _ = g.do(t, http.MethodGet, "/api/v1/sessions/state", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSummarizeSuccess(t *testing.T) {
	g := newGateway(t, map[string]http.HandlerFunc{
		"/summarize": func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			writeJSON(w, http.StatusOK, map[string]string{"summary": "summary of " + body["text"]})
		},
	})
	tokenString := g.createSession(t)

	w, env := g.doJSON(t, http.MethodPost, "/api/v1/documents/summarize", tokenString, gin.H{"text": "lease terms"})
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, env)
	assert.Equal(t, "summary of lease terms", view.Summary)
	assert.Equal(t, "lease terms", view.Text)
	assert.False(t, view.Loading)
}

func TestSummarizeBlankTextIsRejected(t *testing.T) {
	g := newGateway(t, map[string]http.HandlerFunc{
		"/summarize": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"summary": "x"})
		},
	})
	tokenString := g.createSession(t)

	w, env := g.do(t, http.MethodPost, "/api/v1/documents/summarize", tokenString, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, session.AlertBlankText, env.Message)
	assert.Equal(t, session.AlertBlankText, decodeView(t, env).Alert)
	assert.Zero(t, g.called("/summarize"))
}

func TestSummarizeBackendFailure(t *testing.T) {
	g := newGateway(t, map[string]http.HandlerFunc{
		"/summarize": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "model offline"})
		},
	})
	tokenString := g.createSession(t)

	w, env := g.doJSON(t, http.MethodPost, "/api/v1/documents/summarize", tokenString, gin.H{"text": "t"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	view := decodeView(t, env)
	assert.Equal(t, session.AlertSummarizeFailed, view.Alert)
	assert.False(t, view.Loading)
	assert.Equal(t, int32(1), g.called("/summarize"))

	// 关闭提示
	w, env = g.do(t, http.MethodPost, "/api/v1/sessions/alert/dismiss", tokenString, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeView(t, env).Alert)
}

func TestAskQuestionAppendsExchange(t *testing.T) {
	var language string
	g := newGateway(t, map[string]http.HandlerFunc{
		"/ask-legal-question": func(w http.ResponseWriter, r *http.Request) {
			language = r.URL.Query().Get("language")
			writeJSON(w, http.StatusOK, map[string]string{"answer": "It depends."})
		},
	})
	tokenString := g.createSession(t)

	w, env := g.doJSON(t, http.MethodPost, "/api/v1/chat/ask", tokenString, gin.H{"question": "Can I sublet?", "language": "fr"})
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, env)
	require.Equal(t, 3, view.Transcript.Len())
	assert.Equal(t, "Can I sublet?", view.Transcript.Messages[1].Content)
	last, _ := view.Transcript.Last()
	assert.Equal(t, "It depends.", last.Content)
	assert.False(t, last.Pending)
	assert.Equal(t, last.ID, view.Transcript.ScrollTarget)
	assert.Equal(t, model.LangFrench, view.Language)
	assert.Equal(t, "fr", language)
}

func TestAskQuestionFailureResolvesWithFallback(t *testing.T) {
	g := newGateway(t, map[string]http.HandlerFunc{
		"/ask-legal-question": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
	})
	tokenString := g.createSession(t)

	w, env := g.doJSON(t, http.MethodPost, "/api/v1/chat/ask", tokenString, gin.H{"question": "Hello?"})
	require.Equal(t, http.StatusOK, w.Code)
	last, _ := decodeView(t, env).Transcript.Last()
	assert.Equal(t, session.FallbackConnection, last.Content)
}

func TestAskAboutDocumentWithoutUpload(t *testing.T) {
	g := newGateway(t, map[string]http.HandlerFunc{
		"/ask-about-document": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"answer": "should not be called"})
		},
	})
	tokenString := g.createSession(t)

	w, env := g.doJSON(t, http.MethodPost, "/api/v1/chat/ask-document", tokenString, gin.H{"question": "What is the term?"})
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, env)
	require.Equal(t, 3, view.Transcript.Len())
	last, _ := view.Transcript.Last()
	assert.Equal(t, session.FallbackNoDocument, last.Content)
	assert.Zero(t, g.called("/ask-about-document"))
}

func TestUploadThenAskAboutDocument(t *testing.T) {
	g := newGateway(t, map[string]http.HandlerFunc{
		"/upload-document": func(w http.ResponseWriter, r *http.Request) {
			file, header, err := r.FormFile("file")
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			file.Close()
			writeJSON(w, http.StatusOK, map[string]string{"filename": header.Filename, "summary": "uploaded summary"})
		},
		"/ask-about-document": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"answer": "Twelve months."})
		},
	})
	tokenString := g.createSession(t)

	w, env := g.doFile(t, http.MethodPost, "/api/v1/documents/upload", tokenString, "lease.pdf", pdfBytes)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, env)
	assert.True(t, view.HasUploadedDocument)
	assert.True(t, view.Affordances.AskAboutDocument)
	assert.Equal(t, "uploaded summary", view.Summary)
	require.NotNil(t, view.DocumentFile)
	assert.Equal(t, "lease.pdf", view.DocumentFile.Name)

	w, env = g.doJSON(t, http.MethodPost, "/api/v1/chat/ask-document", tokenString, gin.H{"question": "What is the term?"})
	require.Equal(t, http.StatusOK, w.Code)
	last, _ := decodeView(t, env).Transcript.Last()
	assert.Equal(t, "Twelve months.", last.Content)
}

func TestUploadRejectsNonPDF(t *testing.T) {
	g := newGateway(t, map[string]http.HandlerFunc{
		"/upload-document": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"summary": "x"})
		},
	})
	tokenString := g.createSession(t)

	w, env := g.doFile(t, http.MethodPost, "/api/v1/documents/upload", tokenString, "notes.txt", []byte("plain text"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, session.AlertNotPDF, env.Message)

	w, env = g.doFile(t, http.MethodPost, "/api/v1/documents/upload", tokenString, "big.pdf", bytes.Repeat([]byte("a"), maxUpload+10))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, session.AlertFileTooLarge, env.Message)

	w, env = g.do(t, http.MethodPost, "/api/v1/documents/upload", tokenString, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, session.AlertNoFileSelected, env.Message)
	assert.Zero(t, g.called("/upload-document"))
}

func TestStageFileAndReview(t *testing.T) {
	g := newGateway(t, map[string]http.HandlerFunc{
		"/review-contract": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, gin.H{
				"risk_level":  "medium",
				"summary":     "One issue found.",
				"annotations": []gin.H{{"severity": "high", "issue": "penalty", "text": "clause 4", "suggestion": "cap it"}},
			})
		},
	})
	tokenString := g.createSession(t)

	w, _ := g.doFile(t, http.MethodPut, "/api/v1/sessions/files/unknown", tokenString, "c.pdf", pdfBytes)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := g.doFile(t, http.MethodPut, "/api/v1/sessions/files/review", tokenString, "contract.pdf", pdfBytes)
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, env)
	require.NotNil(t, view.ReviewFile)
	assert.True(t, view.Affordances.Review)

	w, env = g.do(t, http.MethodPost, "/api/v1/reviews", tokenString, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeView(t, env)
	require.NotNil(t, view.ContractReview)
	assert.Equal(t, "medium", view.ContractReview.RiskLevel)
	require.Len(t, view.ContractReview.Annotations, 1)
	assert.Equal(t, "cap it", view.ContractReview.Annotations[0].Suggestion)
	assert.False(t, view.ReviewLoading)
}

func TestDraftAndDownload(t *testing.T) {
	var request lawguide.DraftRequest
	g := newGateway(t, map[string]http.HandlerFunc{
		"/draft-document-pdf": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&request)
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write(pdfBytes)
		},
	})
	tokenString := g.createSession(t)

	w, env := g.doJSON(t, http.MethodPost, "/api/v1/drafts", tokenString, model.DraftForm{DocType: model.DocNDA, Party1: "Acme"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, session.AlertDraftFieldsRequired, env.Message)
	assert.Zero(t, g.called("/draft-document-pdf"))

	w, env = g.doJSON(t, http.MethodPost, "/api/v1/drafts", tokenString, model.DraftForm{
		DocType: model.DocRentalAgreement, Party1: "Alice", Party2: "Bob", Date: "2024-01-01",
	})
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, env)
	require.NotNil(t, view.LastDraft)
	assert.Equal(t, "rental_agreement.pdf", view.LastDraft.FileName)
	assert.Equal(t, "Alice", request.Party1)
	assert.Equal(t, "rental agreement", request.DocType)
	assert.Equal(t, "en", request.Language)

	w, _ = g.do(t, http.MethodGet, view.LastDraft.DownloadURL, tokenString, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pdfBytes, w.Body.Bytes())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "rental_agreement.pdf")

	w, _ = g.do(t, http.MethodGet, "/api/v1/drafts/other/download", tokenString, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateFormIsAtomic(t *testing.T) {
	g := newGateway(t, nil)
	tokenString := g.createSession(t)

	w, _ := g.doJSON(t, http.MethodPatch, "/api/v1/sessions/form", tokenString, gin.H{"text": "draft text", "language": "de"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := g.do(t, http.MethodGet, "/api/v1/sessions/state", tokenString, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeView(t, env).Text)

	w, env = g.doJSON(t, http.MethodPatch, "/api/v1/sessions/form", tokenString, gin.H{
		"text": "draft text", "activeSection": "chat", "draft": gin.H{"party1": "Alice"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, env)
	assert.Equal(t, "draft text", view.Text)
	assert.Equal(t, model.SectionChat, view.ActiveSection)
	assert.Equal(t, "Alice", view.Draft.Party1)
}

func TestEndSession(t *testing.T) {
	g := newGateway(t, nil)
	tokenString := g.createSession(t)

	w, _ := g.do(t, http.MethodDelete, "/api/v1/sessions", tokenString, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = g.do(t, http.MethodGet, "/api/v1/sessions/state", tokenString, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSuggestions(t *testing.T) {
	g := newGateway(t, nil)
	w, env := g.do(t, http.MethodGet, "/api/v1/chat/suggestions", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Questions []string `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, session.SuggestedQuestions, data.Questions)
}

func TestHealth(t *testing.T) {
	g := newGateway(t, map[string]http.HandlerFunc{
		"/health": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "LawGuide AI"})
		},
		"/list-models": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string][]string{"available_models": {"llama3"}})
		},
	})
	w, env := g.do(t, http.MethodGet, "/api/v1/health", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Status  string `json:"status"`
		Backend struct {
			Status string   `json:"status"`
			Models []string `json:"models"`
		} `json:"backend"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "ok", data.Status)
	assert.Equal(t, "healthy", data.Backend.Status)
	assert.Equal(t, []string{"llama3"}, data.Backend.Models)
}

func TestStreamPushesStateUpdates(t *testing.T) {
	g := newGateway(t, nil)
	tokenString := g.createSession(t)

	server := httptest.NewServer(g.router)
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws/" + tokenString
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readState := func() events.StateMessage {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, b, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg events.StateMessage
		require.NoError(t, json.Unmarshal(b, &msg))
		return msg
	}

	initial := readState()
	assert.Equal(t, "state", initial.Type)
	assert.Equal(t, 1, initial.Data.Transcript.Len())

	// 订阅在读协程启动前完成，等待订阅者注册后再修改表单
	require.Eventually(t, func() bool { return g.hub.Count(initial.Data.ID) == 1 }, time.Second, 10*time.Millisecond)
	w, _ := g.doJSON(t, http.MethodPatch, "/api/v1/sessions/form", tokenString, gin.H{"question": "Is this binding?"})
	require.Equal(t, http.StatusOK, w.Code)

	update := readState()
	assert.Equal(t, []string{"set_question"}, update.Actions)
	assert.Equal(t, "Is this binding?", update.Data.Question)

	w, _ = g.do(t, http.MethodDelete, "/api/v1/sessions", tokenString, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestStreamRejectsInvalidToken(t *testing.T) {
	g := newGateway(t, nil)
	w, _ := g.do(t, http.MethodGet, "/api/v1/ws/not-a-token", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestActionsRouteRequiresAudit(t *testing.T) {
	g := newGateway(t, nil)
	tokenString := g.createSession(t)
	w, _ := g.do(t, http.MethodGet, "/api/v1/sessions/actions", tokenString, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
