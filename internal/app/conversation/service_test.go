package conversation_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/farum-wellness/internal/adapters/llm"
	"github.com/PabloGalante/farum-wellness/internal/adapters/storage/memory"
	"github.com/PabloGalante/farum-wellness/internal/app/conversation"
	"github.com/PabloGalante/farum-wellness/internal/app/mood"
	"github.com/PabloGalante/farum-wellness/internal/app/validation"
	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

type recordingScheduler struct {
	mu   sync.Mutex
	jobs []mood.Job
}

func (r *recordingScheduler) Submit(_ context.Context, job mood.Job) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return true
}

type brokenMessages struct{}

func (brokenMessages) AppendMessage(context.Context, *domain.Message) error {
	return errors.New("disk full")
}

func (brokenMessages) RecentMessages(context.Context, domain.ChatID, int) ([]*domain.Message, error) {
	return nil, errors.New("disk full")
}

type brokenChats struct{ *memory.Store }

func (brokenChats) CreateChat(context.Context, *domain.Chat) error {
	return errors.New("connection reset")
}

func input(user domain.UserID, chatID *domain.ChatID, lang domain.Language, turns ...domain.Turn) conversation.ReplyInput {
	return conversation.ReplyInput{
		UserID:    user,
		ChatInput: validation.ChatInput{Turns: turns, ChatID: chatID, Language: lang},
	}
}

func TestReplyCreatesChatAndStoresBothMessages(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockLLM()
	mock.Set("reply", "  That sounds hard. What happened?  ")
	store := memory.NewStore()
	sched := &recordingScheduler{}

	svc := conversation.NewService(mock, store, store, sched)

	out, err := svc.Reply(ctx, input("u1", nil, domain.LangEN, domain.Turn{Text: "I had a rough day", IsUser: true}))
	require.NoError(t, err)
	assert.Equal(t, "That sounds hard. What happened?", out.Text)
	require.NotEmpty(t, out.ChatID)

	chat, err := store.GetChat(ctx, out.ChatID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("u1"), chat.UserID)

	msgs, err := store.RecentMessages(ctx, out.ChatID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleAssistant, msgs[0].Role)
	assert.Equal(t, "That sounds hard. What happened?", msgs[0].Content)
	assert.Equal(t, domain.RoleUser, msgs[1].Role)
	assert.Equal(t, "I had a rough day", msgs[1].Content)

	require.Len(t, sched.jobs, 1)
	assert.Equal(t, mood.Job{UserID: "u1", Text: "I had a rough day", Language: domain.LangEN}, sched.jobs[0])
}

func TestReplySendsPersonaPinsAndHistory(t *testing.T) {
	mock := llm.NewMockLLM()
	store := memory.NewStore()
	svc := conversation.NewService(mock, store, store, nil)

	_, err := svc.Reply(context.Background(), input("u1", nil, domain.LangRU,
		domain.Turn{Text: "hello", IsUser: true},
		domain.Turn{Text: "hi, how are you?", IsUser: false},
		domain.Turn{Text: "не очень", IsUser: true},
	))
	require.NoError(t, err)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	req := calls[0]
	assert.Equal(t, "reply", req.Purpose)
	assert.InDelta(t, 0.7, req.Temperature, 1e-6)
	assert.EqualValues(t, 1, req.TopP)
	assert.EqualValues(t, 500, req.MaxTokens)

	require.Len(t, req.Messages, 4)
	system := req.Messages[0]
	assert.Equal(t, domain.CompletionSystem, system.Role)
	assert.Contains(t, system.Content, "Ты профессиональный психолог")
	assert.Contains(t, system.Content, "СТРОГО на русском языке")
	assert.Contains(t, system.Content, "STRICTLY in Russian")

	assert.Equal(t, []domain.CompletionMessage{
		{Role: domain.CompletionUser, Content: "hello"},
		{Role: domain.CompletionAssistant, Content: "hi, how are you?"},
		{Role: domain.CompletionUser, Content: "не очень"},
	}, req.Messages[1:])
}

func TestReplyContinuesExistingChat(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.CreateChat(ctx, &domain.Chat{ID: "c1", UserID: "u1", CreatedAt: time.Now()}))
	svc := conversation.NewService(llm.NewMockLLM(), store, store, nil)

	chatID := domain.ChatID("c1")
	out, err := svc.Reply(ctx, input("u1", &chatID, domain.LangEN, domain.Turn{Text: "again", IsUser: true}))
	require.NoError(t, err)
	assert.Equal(t, chatID, out.ChatID)
}

func TestReplyChecksChatOwnership(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.CreateChat(ctx, &domain.Chat{ID: "c1", UserID: "owner", CreatedAt: time.Now()}))
	mock := llm.NewMockLLM()
	svc := conversation.NewService(mock, store, store, nil)

	chatID := domain.ChatID("c1")
	_, err := svc.Reply(ctx, input("intruder", &chatID, domain.LangEN, domain.Turn{Text: "hi", IsUser: true}))
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	missing := domain.ChatID("nope")
	_, err = svc.Reply(ctx, input("owner", &missing, domain.LangEN, domain.Turn{Text: "hi", IsUser: true}))
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	assert.Empty(t, mock.Calls(), "no completion for rejected chats")
}

func TestReplyRejectsTrailingAssistantTurn(t *testing.T) {
	svc := conversation.NewService(llm.NewMockLLM(), memory.NewStore(), memory.NewStore(), nil)

	_, err := svc.Reply(context.Background(), input("u1", nil, domain.LangEN,
		domain.Turn{Text: "hi", IsUser: true},
		domain.Turn{Text: "hello", IsUser: false},
	))

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.KindInvalid, de.Kind)
	assert.Equal(t, domain.CodeInvalidMessage, de.Code)
}

func TestReplyUpstreamFailures(t *testing.T) {
	for name, configure := range map[string]func(*llm.MockLLM){
		"error": func(m *llm.MockLLM) { m.Err = errors.New("groq: 503") },
		"empty": func(m *llm.MockLLM) { m.Set("reply", "   ") },
	} {
		t.Run(name, func(t *testing.T) {
			mock := llm.NewMockLLM()
			configure(mock)
			sched := &recordingScheduler{}
			svc := conversation.NewService(mock, memory.NewStore(), memory.NewStore(), sched)

			_, err := svc.Reply(context.Background(), input("u1", nil, domain.LangEN, domain.Turn{Text: "hi", IsUser: true}))
			require.Error(t, err)
			assert.Equal(t, domain.KindUpstream, domain.KindOf(err))

			var de *domain.Error
			require.ErrorAs(t, err, &de)
			assert.False(t, strings.Contains(de.Message, "groq"), "upstream detail must not reach the client message")
			assert.Empty(t, sched.jobs)
		})
	}
}

func TestReplySurvivesMessagePersistenceFailure(t *testing.T) {
	store := memory.NewStore()
	sched := &recordingScheduler{}
	svc := conversation.NewService(llm.NewMockLLM(), store, brokenMessages{}, sched)

	out, err := svc.Reply(context.Background(), input("u1", nil, domain.LangEN, domain.Turn{Text: "hi", IsUser: true}))
	require.NoError(t, err)
	assert.NotEmpty(t, out.Text)
	assert.Len(t, sched.jobs, 1)
}

func TestReplyFailsWhenChatCannotBeCreated(t *testing.T) {
	store := memory.NewStore()
	svc := conversation.NewService(llm.NewMockLLM(), brokenChats{store}, store, nil)

	_, err := svc.Reply(context.Background(), input("u1", nil, domain.LangEN, domain.Turn{Text: "hi", IsUser: true}))
	require.Error(t, err)
	assert.Equal(t, domain.KindPersistence, domain.KindOf(err))
}

func TestReplyLogsUserIDOnce(t *testing.T) {
	var buf bytes.Buffer
	observability.InitWriter(&buf, "debug")
	t.Cleanup(func() { observability.Init("info") })

	store := memory.NewStore()
	svc := conversation.NewService(llm.NewMockLLM(), store, store, nil)
	ctx := observability.WithUserID(observability.WithRequestID(context.Background(), "req-1"), "alice")

	_, err := svc.Reply(ctx, input("alice", nil, domain.LangEN, domain.Turn{Text: "hi", IsUser: true}))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, `"user_id"`), line)
	}
}
