package httpadapter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/PabloGalante/farum-wellness/internal/adapters/http"
	"github.com/PabloGalante/farum-wellness/internal/adapters/identity"
	"github.com/PabloGalante/farum-wellness/internal/adapters/llm"
	ratestore "github.com/PabloGalante/farum-wellness/internal/adapters/ratelimit"
	"github.com/PabloGalante/farum-wellness/internal/adapters/storage/memory"
	"github.com/PabloGalante/farum-wellness/internal/app/account"
	"github.com/PabloGalante/farum-wellness/internal/app/conversation"
	"github.com/PabloGalante/farum-wellness/internal/app/mood"
	"github.com/PabloGalante/farum-wellness/internal/app/ratelimit"
	"github.com/PabloGalante/farum-wellness/internal/app/tasks"
	"github.com/PabloGalante/farum-wellness/internal/domain"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testEnv struct {
	handler http.Handler
	store   *memory.Store
	llm     *llm.MockLLM
}

func generous() httpadapter.Policies {
	return httpadapter.Policies{
		Chat:  ratelimit.Policy{Name: "chat", Window: time.Minute, Max: 100},
		Tasks: ratelimit.Policy{Name: "tasks", Window: time.Minute, Max: 100},
		Read:  ratelimit.Policy{Name: "read", Window: time.Minute, Max: 100},
	}
}

func newTestEnv(t *testing.T, policies httpadapter.Policies) *testEnv {
	t.Helper()

	store := memory.NewStore()
	llmClient := llm.NewMockLLM()

	h := httpadapter.NewServer(httpadapter.Deps{
		Conversation: conversation.NewService(llmClient, store, store, nil),
		Generator:    tasks.NewGenerator(llmClient, store, time.UTC),
		Board:        tasks.NewBoard(store, time.UTC),
		Moods:        mood.NewHistory(store),
		Accounts:     account.NewService(store, store, identity.LocalAdmin{}),
		Governor:     ratelimit.NewGovernor(ratestore.NewMemoryStore(0)),
		Auth:         identity.HeaderAuthenticator{},
		Policies:     policies,
	})
	return &testEnv{handler: h, store: store, llm: llmClient}
}

func (e *testEnv) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

type chatBody struct {
	Text    string `json:"text"`
	Success bool   `json:"success"`
	ChatID  string `json:"chatId"`
}

type taskBody struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type tasksBody struct {
	Success bool       `json:"success"`
	Tasks   []taskBody `json:"tasks"`
}

const helloChat = `{"messages":[{"id":1,"text":"<script>alert(1)</script>hello","isUser":true}]}`

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, generous())
	w := env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	env := newTestEnv(t, generous())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, generous())
	env.do(t, http.MethodPost, "/chat", "alice", helloChat)

	w := env.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "farum_ratelimit_decisions_total")
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, generous())
	w := env.do(t, http.MethodOptions, "/chat", "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestChatRequiresAuth(t *testing.T) {
	env := newTestEnv(t, generous())
	w := env.do(t, http.MethodPost, "/chat", "", helloChat)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode[envelope](t, w)
	assert.False(t, body.Success)
	assert.Equal(t, domain.CodeUnauthorized, body.Code)
}

func TestChatReply(t *testing.T) {
	env := newTestEnv(t, generous())
	w := env.do(t, http.MethodPost, "/chat", "alice", helloChat)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode[chatBody](t, w)
	assert.True(t, body.Success)
	assert.Contains(t, body.Text, `"hello"`)
	assert.NotContains(t, body.Text, "script")
	_, err := uuid.Parse(body.ChatID)
	require.NoError(t, err)

	assert.Equal(t, "100", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "99", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))

	msgs, err := env.store.RecentMessages(context.Background(), domain.ChatID(body.ChatID), 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[1].Content)
}

func TestChatContinuationOwnership(t *testing.T) {
	env := newTestEnv(t, generous())
	first := decode[chatBody](t, env.do(t, http.MethodPost, "/chat", "alice", helloChat))

	cont := `{"chatId":"` + first.ChatID + `","messages":[{"id":"a","text":"again","isUser":true}]}`
	w := env.do(t, http.MethodPost, "/chat", "alice", cont)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first.ChatID, decode[chatBody](t, w).ChatID)

	w = env.do(t, http.MethodPost, "/chat", "mallory", cont)
	assert.Equal(t, http.StatusForbidden, w.Code)

	missing := `{"chatId":"` + uuid.NewString() + `","messages":[{"id":"a","text":"again","isUser":true}]}`
	w = env.do(t, http.MethodPost, "/chat", "alice", missing)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatBadRequests(t *testing.T) {
	env := newTestEnv(t, generous())

	tests := []struct {
		name string
		body string
		code string
	}{
		{"not json", `{"messages":`, domain.CodeInvalidRequest},
		{"empty body", ``, domain.CodeInvalidRequest},
		{"no messages", `{"messages":[]}`, domain.CodeValidation},
		{"bad language", `{"messages":[{"id":1,"text":"hi","isUser":true}],"language":"fr"}`, domain.CodeValidation},
		{"bad chat id", `{"messages":[{"id":1,"text":"hi","isUser":true}],"chatId":"nope"}`, domain.CodeValidation},
		{"only script", `{"messages":[{"id":1,"text":"<script>x</script>  ","isUser":true}]}`, domain.CodeEmptyMessage},
		{"assistant last", `{"messages":[{"id":1,"text":"hi","isUser":false}]}`, domain.CodeInvalidMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/chat", "alice", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decode[envelope](t, w).Code)
		})
	}
}

func TestChatUpstreamFailureIsGeneric(t *testing.T) {
	env := newTestEnv(t, generous())
	env.llm.Set("reply", "   ")

	w := env.do(t, http.MethodPost, "/chat", "alice", helloChat)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode[envelope](t, w)
	assert.Equal(t, domain.CodeUpstream, body.Code)
	assert.NotContains(t, body.Error, "empty")
}

func TestChatRateLimited(t *testing.T) {
	policies := generous()
	policies.Chat = ratelimit.Policy{Name: "chat", Window: time.Minute, Max: 2}
	env := newTestEnv(t, policies)

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodPost, "/chat", "alice", helloChat)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.do(t, http.MethodPost, "/chat", "alice", helloChat)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, domain.CodeRateLimited, decode[envelope](t, w).Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// A separate policy keeps its own budget.
	w = env.do(t, http.MethodPost, "/tasks/generate", "alice", `{}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChatRateLimitIgnoresSpoofedForwarding(t *testing.T) {
	policies := generous()
	policies.Chat = ratelimit.Policy{Name: "chat", Window: time.Minute, Max: 2}
	env := newTestEnv(t, policies)

	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(helloChat))
		req.RemoteAddr = "192.0.2.10:4321"
		req.Header.Set("X-User-ID", "alice")
		req.Header.Set("X-Forwarded-For", forwarded)
		w := httptest.NewRecorder()
		env.handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.1"))
	assert.Equal(t, http.StatusOK, send("198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.3"))
}

func TestTasksFlow(t *testing.T) {
	env := newTestEnv(t, generous())

	w := env.do(t, http.MethodPost, "/tasks/generate", "alice", `{"language":"ru"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	generated := decode[tasksBody](t, w)
	require.True(t, generated.Success)
	require.Len(t, generated.Tasks, 3)
	assert.Equal(t, "alice", generated.Tasks[0].UserID)

	w = env.do(t, http.MethodGet, "/tasks/today", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	today := decode[tasksBody](t, w)
	require.Len(t, today.Tasks, 3)

	id := today.Tasks[0].ID
	w = env.do(t, http.MethodPost, "/tasks/update", "alice", `{"taskId":"`+id+`","completed":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[struct {
		Task taskBody `json:"task"`
	}](t, w)
	assert.True(t, updated.Task.Completed)

	w = env.do(t, http.MethodPost, "/tasks/update", "mallory", `{"taskId":"`+id+`","completed":false}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/tasks/update", "alice", `{"taskId":"`+uuid.NewString()+`","completed":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/tasks/update", "alice", `{"taskId":"`+id+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskGenerationWithoutTitlesFails(t *testing.T) {
	env := newTestEnv(t, generous())
	env.llm.Set("tasks", "<p></p>")

	w := env.do(t, http.MethodPost, "/tasks/generate", "alice", `{}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, domain.CodeUpstream, decode[envelope](t, w).Code)
}

func TestMoodHistory(t *testing.T) {
	env := newTestEnv(t, generous())
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, score := range []int{3, 5, 8} {
		require.NoError(t, env.store.AppendMoodEntry(context.Background(), &domain.MoodEntry{
			ID: domain.MoodEntryID(uuid.NewString()), UserID: "alice", Score: score,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	w := env.do(t, http.MethodGet, "/mood?limit=2", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Entries []struct {
			Score int `json:"score"`
		} `json:"entries"`
	}](t, w)
	require.Len(t, body.Entries, 2)
	assert.Equal(t, 5, body.Entries[0].Score)
	assert.Equal(t, 8, body.Entries[1].Score)

	for _, q := range []string{"abc", "91", "-1", "0"} {
		w = env.do(t, http.MethodGet, "/mood?limit="+q, "alice", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestDeleteChat(t *testing.T) {
	env := newTestEnv(t, generous())
	chat := decode[chatBody](t, env.do(t, http.MethodPost, "/chat", "alice", helloChat))
	body := `{"chatId":"` + chat.ChatID + `"}`

	w := env.do(t, http.MethodPost, "/chat/delete", "mallory", body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/chat/delete", "alice", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[envelope](t, w).Success)

	w = env.do(t, http.MethodPost, "/chat/delete", "alice", body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv(t, generous())
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/tasks/generate", "alice", `{}`).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/tasks/generate", "bob", `{}`).Code)

	w := env.do(t, http.MethodPost, "/account/delete", "alice", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, decode[tasksBody](t, env.do(t, http.MethodGet, "/tasks/today", "alice", "")).Tasks)
	assert.Len(t, decode[tasksBody](t, env.do(t, http.MethodGet, "/tasks/today", "bob", "")).Tasks, 3)
}
