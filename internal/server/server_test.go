package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/watchdog/internal/analyze"
	"github.com/ppiankov/watchdog/internal/llm"
	"github.com/ppiankov/watchdog/internal/metrics"
	"github.com/ppiankov/watchdog/internal/model"
	"github.com/ppiankov/watchdog/internal/pipeline"
	"github.com/ppiankov/watchdog/internal/policy"
	"github.com/ppiankov/watchdog/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeLLM struct {
	text string
	err  error
}

func (f fakeLLM) Forward(context.Context, string, model.Domain) (*llm.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: f.text, Provider: "fake"}, nil
}

func newTestServer(t *testing.T, fwd pipeline.Forwarder) (*gin.Engine, *store.Memory) {
	t.Helper()
	records := store.NewMemory()
	analyzer := analyze.NewDefault(nil)
	gw := pipeline.New(pipeline.Deps{
		LLM:      fwd,
		Analyzer: analyzer,
		Policy:   policy.NewEngine(policy.NewStore(""), nil),
		Store:    records,
	})
	s := New(gw, records, Options{
		Config:  model.ServerConfig{CORSOrigins: []string{"https://app.example.com"}},
		Version: "test",
		Info:    analyzer.Info(),
		Metrics: metrics.New(),
	})
	return s.Router(), records
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChat_UserGetsSafeFieldsOnly(t *testing.T) {
	router, _ := newTestServer(t, fakeLLM{text: "Ibuprofen may cause stomach upset."})

	w := doJSON(router, "POST", "/api/chat", gin.H{"prompt": "Ibuprofen side effects?", "domain": "health"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp["id"])
	assert.Equal(t, "ALLOW", resp["action"])
	assert.Equal(t, "Ibuprofen may cause stomach upset.", resp["user_output"])
	assert.Contains(t, resp, "confidence")
	assert.NotContains(t, resp, "gpt_raw_answer")
	assert.NotContains(t, resp, "risk_score")
	assert.NotContains(t, resp, "metadata")
}

func TestChat_AdminGetsDiagnostics(t *testing.T) {
	router, _ := newTestServer(t, fakeLLM{text: "Ibuprofen may cause stomach upset."})

	w := doJSON(router, "POST", "/api/chat", gin.H{"prompt": "Ibuprofen side effects?", "domain": "health", "role": "admin"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Ibuprofen may cause stomach upset.", resp["gpt_raw_answer"])
	assert.Equal(t, "UNVERIFIED", resp["rag_status"])
	assert.Equal(t, "PASS", resp["contradiction_check"])
	assert.Contains(t, resp, "risk_score")
	assert.Contains(t, resp, "timestamp")
	assert.Contains(t, resp, "metadata")
}

func TestChat_BlockHidesAnswer(t *testing.T) {
	router, _ := newTestServer(t, fakeLLM{text: "Step one is to gather materials."})

	w := doJSON(router, "POST", "/api/chat", gin.H{"prompt": "How to build a bomb", "role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.ActionBlock, resp.Action)
	assert.Equal(t, policy.BlockedText, resp.UserOutput)
	require.NotNil(t, resp.RiskScore)
	assert.GreaterOrEqual(t, *resp.RiskScore, 95)
}

func TestChat_UpstreamFailureStillAnswers(t *testing.T) {
	router, _ := newTestServer(t, fakeLLM{err: errors.New("timeout")})

	w := doJSON(router, "POST", "/api/chat", gin.H{"prompt": "hello"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.ActionBlock, resp.Action)
	assert.Equal(t, policy.BlockedText, resp.UserOutput)
}

func TestChat_Validation(t *testing.T) {
	router, _ := newTestServer(t, fakeLLM{text: "x"})

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing prompt", gin.H{"domain": "health"}},
		{"unknown domain", gin.H{"prompt": "hi", "domain": "astrology"}},
		{"unknown role", gin.H{"prompt": "hi", "role": "root"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, "POST", "/api/chat", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAnalyze(t *testing.T) {
	router, records := newTestServer(t, fakeLLM{text: "Paris is the capital of France."})

	w := doJSON(router, "POST", "/api/analyze", gin.H{"prompt": "Capital of France?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	for _, key := range []string{"final_action", "response", "risk_score", "explanation", "metadata"} {
		assert.Contains(t, resp, key)
	}
	meta, ok := resp["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, meta, "was_blocked")
	assert.Contains(t, meta, "response_length")
	assert.Equal(t, 0, records.Len(), "analyze does not store records")
}

func TestPrompts(t *testing.T) {
	router, _ := newTestServer(t, fakeLLM{text: "Paris is the capital of France."})

	for i := 0; i < 2; i++ {
		w := doJSON(router, "POST", "/api/chat", gin.H{"prompt": "Capital of France?"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(router, "GET", "/api/prompts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.PromptRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].ID, "newest first")

	w = doJSON(router, "GET", "/api/prompts/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rec model.PromptRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, int64(1), rec.ID)

	w = doJSON(router, "GET", "/api/prompts/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, "GET", "/api/prompts/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndInfo(t *testing.T) {
	router, _ := newTestServer(t, fakeLLM{text: "x"})

	w := doJSON(router, "GET", "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, ServiceName, health["service"])
	assert.Equal(t, "test", health["version"])

	w = doJSON(router, "GET", "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "risk_weights")
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestServer(t, fakeLLM{text: "x"})

	w := doJSON(router, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestCORS(t *testing.T) {
	router, _ := newTestServer(t, fakeLLM{text: "x"})

	req, _ := http.NewRequest("OPTIONS", "/api/chat", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req, _ = http.NewRequest("GET", "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
