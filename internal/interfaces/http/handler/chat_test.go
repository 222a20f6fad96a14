package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-gpt-api/internal/application/chat"
	"movie-gpt-api/internal/application/retrieval"
	"movie-gpt-api/internal/domain/entity"
	"movie-gpt-api/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAnswerer struct {
	mu     sync.Mutex
	inputs []chat.AnswerInput
	answer *chat.Answer
	err    error
}

func (s *stubAnswerer) Answer(_ context.Context, in chat.AnswerInput) (*chat.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, in)
	if s.err != nil {
		return nil, s.err
	}
	return s.answer, nil
}

type memoryHistory struct {
	mu        sync.Mutex
	sessions  map[string][]entity.ChatTurn
	recentErr error
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{sessions: map[string][]entity.ChatTurn{}}
}

func (m *memoryHistory) Append(_ context.Context, sid string, turns ...entity.ChatTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sid] = append(m.sessions[sid], turns...)
	return nil
}

func (m *memoryHistory) Recent(_ context.Context, sid string, limit int) ([]entity.ChatTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	turns := m.sessions[sid]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return append([]entity.ChatTurn(nil), turns...), nil
}

func (m *memoryHistory) Clear(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sid)
	return nil
}

func inceptionAnswer() *chat.Answer {
	return &chat.Answer{
		Text:           "Inception was directed by Christopher Nolan.",
		Classification: chat.InDomain,
		Trace:          []string{"classification: IN_DOMAIN", "retrieved 1 movies (top_k=5)"},
		Retrieval: &retrieval.Result{
			Query:  "Who directed Inception?",
			Movies: []retrieval.Movie{{ID: "m1", Title: "Inception", Year: "2010", Score: 0.91}},
		},
		Usage:    chat.Usage{InputTokens: 120, OutputTokens: 7, Cost: 0.377, Currency: "IDR"},
		Duration: 1500 * time.Millisecond,
	}
}

func newChatEngine(h *ChatHandler) *gin.Engine {
	r := gin.New()
	r.POST("/v1/chat/messages", h.SendMessage)
	r.GET("/v1/chat/sessions/:sid/messages", h.GetHistory)
	r.DELETE("/v1/chat/sessions/:sid", h.ClearHistory)
	return r
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestChatHandler_SendMessage(t *testing.T) {
	agent := &stubAnswerer{answer: inceptionAnswer()}
	history := newMemoryHistory()
	r := newChatEngine(NewChatHandler(agent, history, ChatHandlerOptions{HistoryTurns: 5}))

	w := postJSON(t, r, "/v1/chat/messages", dto.ChatRequest{SessionID: "s-1", Question: "  Who directed Inception?  "})
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response[dto.ChatResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "s-1", resp.Data.SessionID)
	assert.Equal(t, "IN_DOMAIN", resp.Data.Classification)
	assert.Contains(t, resp.Data.Answer, "Christopher Nolan")
	assert.Len(t, resp.Data.Trace, 2)
	require.Len(t, resp.Data.Sources, 1)
	assert.Equal(t, "Inception", resp.Data.Sources[0].Title)
	assert.Equal(t, 120, resp.Data.Usage.InputTokens)
	assert.Equal(t, "IDR", resp.Data.Usage.Currency)
	assert.Equal(t, int64(1500), resp.Data.DurationMs)

	require.Len(t, agent.inputs, 1)
	assert.Equal(t, "Who directed Inception?", agent.inputs[0].Question)
	assert.Empty(t, agent.inputs[0].History)

	turns, _ := history.Recent(context.Background(), "s-1", 0)
	require.Len(t, turns, 2)
	assert.Equal(t, entity.RoleUser, turns[0].Role)
	assert.Equal(t, "Who directed Inception?", turns[0].Content)
	assert.Equal(t, entity.RoleAssistant, turns[1].Role)
}

func TestChatHandler_SendMessagePassesHistory(t *testing.T) {
	agent := &stubAnswerer{answer: inceptionAnswer()}
	history := newMemoryHistory()
	for i := 0; i < 4; i++ {
		_ = history.Append(context.Background(), "s-2",
			entity.NewChatTurn(entity.RoleUser, "q"),
			entity.NewChatTurn(entity.RoleAssistant, "a"))
	}
	r := newChatEngine(NewChatHandler(agent, history, ChatHandlerOptions{HistoryTurns: 2}))

	w := postJSON(t, r, "/v1/chat/messages", dto.ChatRequest{SessionID: "s-2", Question: "And the sequel?"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, agent.inputs, 1)
	assert.Len(t, agent.inputs[0].History, 4)
}

func TestChatHandler_GeneratesSessionID(t *testing.T) {
	agent := &stubAnswerer{answer: inceptionAnswer()}
	r := newChatEngine(NewChatHandler(agent, nil, ChatHandlerOptions{}))

	w := postJSON(t, r, "/v1/chat/messages", dto.ChatRequest{Question: "Who directed Inception?"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response[dto.ChatResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.SessionID, 36)
	assert.Equal(t, resp.Data.SessionID, agent.inputs[0].SessionID)
}

func TestChatHandler_HistoryFailureDoesNotFailRequest(t *testing.T) {
	agent := &stubAnswerer{answer: inceptionAnswer()}
	history := newMemoryHistory()
	history.recentErr = errors.New("redis down")
	r := newChatEngine(NewChatHandler(agent, history, ChatHandlerOptions{HistoryTurns: 5}))

	w := postJSON(t, r, "/v1/chat/messages", dto.ChatRequest{SessionID: "s-3", Question: "Who directed Inception?"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, agent.inputs[0].History)
}

func TestChatHandler_RejectsInvalidInput(t *testing.T) {
	agent := &stubAnswerer{answer: inceptionAnswer()}
	r := newChatEngine(NewChatHandler(agent, nil, ChatHandlerOptions{MaxQuestionRunes: 10}))

	tests := []struct {
		name string
		body any
	}{
		{"missing question", map[string]string{}},
		{"blank question", dto.ChatRequest{Question: "   "}},
		{"too long", dto.ChatRequest{Question: strings.Repeat("é", 11)}},
		{"bad session id", dto.ChatRequest{SessionID: "a b", Question: "film?"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, r, "/v1/chat/messages", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "1001", resp.Error.ErrorCode)
		})
	}
	assert.Empty(t, agent.inputs)
}

func TestChatHandler_QuestionAtLimitAccepted(t *testing.T) {
	agent := &stubAnswerer{answer: inceptionAnswer()}
	r := newChatEngine(NewChatHandler(agent, nil, ChatHandlerOptions{MaxQuestionRunes: 10}))

	w := postJSON(t, r, "/v1/chat/messages", dto.ChatRequest{Question: strings.Repeat("é", 10)})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChatHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{
			name:       "retrieval",
			err:        &retrieval.RetrievalError{Stage: retrieval.StageEmbedding, Err: errors.New("401 invalid key sk-secret")},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "4003",
			wantDetail: "stage: embedding",
		},
		{
			name:       "completion",
			err:        &chat.CompletionError{Err: errors.New("upstream 500 sk-secret")},
			wantStatus: http.StatusBadGateway,
			wantCode:   "4005",
		},
		{
			name:       "empty completion",
			err:        &chat.CompletionError{Err: chat.ErrEmptyCompletion},
			wantStatus: http.StatusBadGateway,
			wantCode:   "4005",
			wantDetail: "empty answer",
		},
		{
			name:       "timeout",
			err:        &chat.CompletionError{Err: context.DeadlineExceeded},
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "1009",
		},
		{
			name:       "unexpected",
			err:        errors.New("boom sk-secret"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "1007",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := newMemoryHistory()
			r := newChatEngine(NewChatHandler(&stubAnswerer{err: tt.err}, history, ChatHandlerOptions{}))

			w := postJSON(t, r, "/v1/chat/messages", dto.ChatRequest{SessionID: "s-e", Question: "Who directed Inception?"})
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.NotContains(t, w.Body.String(), "sk-secret")

			resp := decodeError(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.ErrorCode)
			assert.Equal(t, tt.wantDetail, resp.Error.Details)

			turns, _ := history.Recent(context.Background(), "s-e", 0)
			assert.Empty(t, turns)
		})
	}
}

func TestChatHandler_GetAndClearHistory(t *testing.T) {
	history := newMemoryHistory()
	_ = history.Append(context.Background(), "s-4",
		entity.NewChatTurn(entity.RoleUser, "Who directed Inception?"),
		entity.NewChatTurn(entity.RoleAssistant, "Christopher Nolan."))
	r := newChatEngine(NewChatHandler(&stubAnswerer{}, history, ChatHandlerOptions{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/chat/sessions/s-4/messages", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response[dto.SessionHistoryResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Messages, 2)
	assert.Equal(t, "assistant", resp.Data.Messages[1].Role)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/chat/sessions/s-4", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	turns, _ := history.Recent(context.Background(), "s-4", 0)
	assert.Empty(t, turns)
}

func TestChatHandler_HistoryDisabled(t *testing.T) {
	r := newChatEngine(NewChatHandler(&stubAnswerer{}, nil, ChatHandlerOptions{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/chat/sessions/s-5/messages", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/chat/sessions/bad.id", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidSessionID(t *testing.T) {
	assert.True(t, validSessionID("3f2b6c1e-8d7a-4c1b-9e2f-0a1b2c3d4e5f"))
	assert.True(t, validSessionID("user_42"))
	assert.False(t, validSessionID(""))
	assert.False(t, validSessionID("a/b"))
	assert.False(t, validSessionID(strings.Repeat("a", 65)))
}
