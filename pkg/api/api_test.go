package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocturne-labs/dreamscape/pkg/ai"
	"github.com/nocturne-labs/dreamscape/pkg/chat"
	"github.com/nocturne-labs/dreamscape/pkg/conflict"
	"github.com/nocturne-labs/dreamscape/pkg/emotion"
	"github.com/nocturne-labs/dreamscape/pkg/extract"
	"github.com/nocturne-labs/dreamscape/pkg/memory"
	"github.com/nocturne-labs/dreamscape/pkg/model"
	"github.com/nocturne-labs/dreamscape/pkg/respond"
	"github.com/nocturne-labs/dreamscape/pkg/session"
)

func testHandler(mock *ai.MockCompletion) http.Handler {
	logger := log.New(io.Discard)
	svc := chat.NewService(
		logger,
		session.NewStore(logger, 30*time.Minute),
		memory.NewBank(logger),
		extract.NewExtractor(logger, mock, "test-model"),
		emotion.NewDetector(logger, mock, "test-model"),
		conflict.NewResolver(logger),
		respond.NewEngine(logger, mock, "test-model"),
		nil,
		nil,
	)
	return NewHandler(logger, svc).Router([]string{"*"})
}

func TestHealth(t *testing.T) {
	handler := testHandler(&ai.MockCompletion{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestChatMalformedBody(t *testing.T) {
	handler := testHandler(&ai.MockCompletion{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "malformed request body"}`, rec.Body.String())
}

func TestChatTurn(t *testing.T) {
	mock := &ai.MockCompletion{Responses: []string{"Hey you. What kept you up?"}}
	handler := testHandler(mock)

	body := `{"sessionId": "", "messages": [{"id": "m1", "text": "hey", "sender": "user", "timestamp": "2026-08-29T01:02:03Z"}]}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result model.ChatResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Hey you. What kept you up?", result.ReplyText)
	assert.Contains(t, result.SessionID, "session-")
	assert.Equal(t, "happy", result.EmotionalState)
}

func TestKnowledgeRoundTrip(t *testing.T) {
	handler := testHandler(&ai.MockCompletion{})

	payload := `{"preferences": {"f1": "Loves rainy evenings"}}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/knowledge", strings.NewReader(payload)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/knowledge", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, payload, rec.Body.String())
}

func TestKnowledgeMalformedSnapshot(t *testing.T) {
	handler := testHandler(&ai.MockCompletion{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/knowledge", strings.NewReader(`[1, 2]`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecentFactsEndpoint(t *testing.T) {
	handler := testHandler(&ai.MockCompletion{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/knowledge", strings.NewReader(`{"plans": {"f1": "Trip to Kyoto"}}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/memory/recent", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var facts []memory.Fact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &facts))
	require.Len(t, facts, 1)
	assert.Equal(t, "Trip to Kyoto", facts[0].Content)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/memory/recent?hours=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMemoryStats(t *testing.T) {
	handler := testHandler(&ai.MockCompletion{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/knowledge", strings.NewReader(`{"plans": {"f1": "Trip to Kyoto"}}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/memory/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats memory.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalFacts)
	assert.Equal(t, 1, stats.VerifiedFacts)
}
