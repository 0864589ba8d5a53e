package domain

import (
	"context"
	"time"
)

type CompletionRole string

const (
	CompletionSystem    CompletionRole = "system"
	CompletionUser      CompletionRole = "user"
	CompletionAssistant CompletionRole = "assistant"
)

// CompletionMessage is one role-tagged entry sent to the completion service.
type CompletionMessage struct {
	Role    CompletionRole
	Content string
}

// CompletionRequest carries the messages and sampling parameters of one call.
// Purpose labels the call for logs and metrics ("reply", "mood", "tasks").
type CompletionRequest struct {
	Purpose     string
	Messages    []CompletionMessage
	Temperature float32
	TopP        float32
	MaxTokens   int32
}

// CompletionClient defines how the core application talks to a language model.
// Implementations return the completion text, or an error; an empty string is
// never a success.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ChatStore defines chat persistence. DeleteChat cascades to the chat's messages.
type ChatStore interface {
	CreateChat(ctx context.Context, chat *Chat) error
	GetChat(ctx context.Context, id ChatID) (*Chat, error)
	LatestChat(ctx context.Context, userID UserID) (*Chat, error)
	DeleteChat(ctx context.Context, id ChatID) error
}

// MessageStore defines message persistence. RecentMessages returns newest first.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg *Message) error
	RecentMessages(ctx context.Context, chatID ChatID, limit int) ([]*Message, error)
}

// MoodStore defines mood persistence. RecentMoodEntries returns newest first.
type MoodStore interface {
	AppendMoodEntry(ctx context.Context, entry *MoodEntry) error
	RecentMoodEntries(ctx context.Context, userID UserID, limit int) ([]*MoodEntry, error)
}

// TaskStore defines task persistence.
//
// ReplaceTasksForDay deletes every task of userID created inside day and
// inserts tasks in its place. Implementations apply both steps atomically:
// when the insert fails the previous set is kept.
type TaskStore interface {
	ReplaceTasksForDay(ctx context.Context, userID UserID, day DayWindow, tasks []*Task) error
	ListTasks(ctx context.Context, userID UserID, day DayWindow) ([]*Task, error)
	GetTask(ctx context.Context, id TaskID) (*Task, error)
	SetTaskCompleted(ctx context.Context, id TaskID, completed bool) error
}

// UserDataPurger removes every record owned by a user.
type UserDataPurger interface {
	PurgeUser(ctx context.Context, userID UserID) error
}

// Store is the full persistence contract a backend provides.
type Store interface {
	ChatStore
	MessageStore
	MoodStore
	TaskStore
	UserDataPurger
}

// IdentityAdmin performs privileged operations against the identity provider.
type IdentityAdmin interface {
	DeleteUser(ctx context.Context, userID UserID) error
}

// RateDecision is the outcome of one admission attempt.
type RateDecision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RateStore is the backing table of the rate governor. Hit performs the
// check-and-increment for key atomically.
type RateStore interface {
	Hit(ctx context.Context, key string, window time.Duration, max int, now time.Time) (RateDecision, error)
}
