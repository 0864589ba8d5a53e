package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/farum-wellness/internal/app/locale"
	"github.com/PabloGalante/farum-wellness/internal/app/mood"
	"github.com/PabloGalante/farum-wellness/internal/app/validation"
	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

const (
	replyTemperature = 0.7
	replyTopP        = 1
	replyMaxTokens   = 500
)

// MoodScheduler accepts scoring jobs without blocking the caller.
type MoodScheduler interface {
	Submit(ctx context.Context, job mood.Job) bool
}

type Service struct {
	llm      domain.CompletionClient
	chats    domain.ChatStore
	messages domain.MessageStore
	moods    MoodScheduler
	now      func() time.Time
}

// NewService builds the chat orchestrator. moods may be nil, in which case
// no scoring happens.
func NewService(
	llm domain.CompletionClient,
	chats domain.ChatStore,
	messages domain.MessageStore,
	moods MoodScheduler,
) *Service {
	return &Service{
		llm:      llm,
		chats:    chats,
		messages: messages,
		moods:    moods,
		now:      time.Now,
	}
}

type ReplyInput struct {
	UserID domain.UserID
	validation.ChatInput
}

type ReplyOutput struct {
	Text   string
	ChatID domain.ChatID
}

// Reply answers the last user turn of in. The chat is created when in carries
// no chat id. Message and mood persistence are best-effort.
func (s *Service) Reply(ctx context.Context, in ReplyInput) (*ReplyOutput, error) {
	if len(in.Turns) == 0 || !in.Turns[len(in.Turns)-1].IsUser {
		return nil, domain.Invalid(domain.CodeInvalidMessage, "Invalid message format",
			errors.New("last message must come from the user"))
	}
	last := in.Turns[len(in.Turns)-1]

	log := observability.LoggerForUser(ctx, string(in.UserID)).With(
		"language", in.Language,
		"turns", len(in.Turns),
	)

	chat, err := s.resolveChat(ctx, in.UserID, in.ChatID)
	if err != nil {
		log.Error("failed to resolve chat", "error", err)
		return nil, err
	}
	log = log.With("chat_id", chat.ID)

	s.persist(ctx, log, chat.ID, domain.RoleUser, last.Text)

	text, err := s.llm.Complete(ctx, domain.CompletionRequest{
		Purpose:     "reply",
		Messages:    buildMessages(in.Turns, in.Language),
		Temperature: replyTemperature,
		TopP:        replyTopP,
		MaxTokens:   replyMaxTokens,
	})
	if err != nil {
		log.Error("reply generation failed", "error", err)
		return nil, domain.Upstream(err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		log.Error("reply generation returned no text")
		return nil, domain.Upstream(domain.ErrEmptyCompletion)
	}

	s.persist(ctx, log, chat.ID, domain.RoleAssistant, text)

	if s.moods != nil {
		s.moods.Submit(ctx, mood.Job{UserID: in.UserID, Text: last.Text, Language: in.Language})
	}

	log.Info("reply sent", "reply_len", len(text))
	return &ReplyOutput{Text: text, ChatID: chat.ID}, nil
}

func (s *Service) resolveChat(ctx context.Context, userID domain.UserID, chatID *domain.ChatID) (*domain.Chat, error) {
	if chatID != nil {
		chat, err := s.chats.GetChat(ctx, *chatID)
		if errors.Is(err, domain.ErrChatNotFound) {
			return nil, domain.NotFound("Chat not found", err)
		}
		if err != nil {
			observability.PersistenceFailed("get_chat", true)
			return nil, domain.Persistence("Failed to load chat", err)
		}
		if chat.UserID != userID {
			return nil, domain.Forbidden("Chat belongs to another user")
		}
		return chat, nil
	}

	chat := &domain.Chat{
		ID:        domain.ChatID(uuid.NewString()),
		UserID:    userID,
		CreatedAt: s.now(),
	}
	if err := s.chats.CreateChat(ctx, chat); err != nil {
		observability.PersistenceFailed("create_chat", true)
		return nil, domain.Persistence("Failed to create chat", err)
	}
	return chat, nil
}

// persist stores one message. Failures are logged and swallowed.
func (s *Service) persist(ctx context.Context, log *slog.Logger, chatID domain.ChatID, role domain.Role, content string) {
	msg := &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.messages.AppendMessage(ctx, msg); err != nil {
		log.Warn("failed to store message", "role", role, "error", err)
		observability.PersistenceFailed("append_message", false)
	}
}

// buildMessages prepends the persona and the language pin to the history.
// The pin is stated in both supported phrasings.
func buildMessages(turns []domain.Turn, lang domain.Language) []domain.CompletionMessage {
	var system strings.Builder
	system.WriteString(locale.Text(locale.ReplyPersona, lang))
	for _, phrasing := range []domain.Language{domain.LangRU, domain.LangEN} {
		system.WriteString("\n\n")
		system.WriteString(locale.Format(locale.ReplyLanguagePin, phrasing, locale.LanguageName(lang, phrasing)))
	}

	out := make([]domain.CompletionMessage, 0, len(turns)+1)
	out = append(out, domain.CompletionMessage{Role: domain.CompletionSystem, Content: system.String()})
	for _, t := range turns {
		role := domain.CompletionAssistant
		if t.IsUser {
			role = domain.CompletionUser
		}
		out = append(out, domain.CompletionMessage{Role: role, Content: t.Text})
	}
	return out
}
