// Package tasks builds and serves a user's plan for the day.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/farum-wellness/internal/app/locale"
	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

const (
	contextMoodEntries = 7
	contextMessages    = 10

	genTemperature = 0.7
	genMaxTokens   = 500
)

var errNoTitles = errors.New("no usable task titles in completion")

// Generator replaces today's tasks with a fresh plan built from recent mood
// entries and the latest chat.
type Generator struct {
	llm   domain.CompletionClient
	store domain.Store
	loc   *time.Location
	now   func() time.Time
}

func NewGenerator(llm domain.CompletionClient, store domain.Store, loc *time.Location) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{llm: llm, store: store, loc: loc, now: time.Now}
}

// Generate returns the new task list. Nothing is stored unless the answer
// yields at least one usable title.
func (g *Generator) Generate(ctx context.Context, userID domain.UserID, lang domain.Language) ([]*domain.Task, error) {
	log := observability.LoggerForUser(ctx, string(userID)).With("language", lang)

	moods, messages := g.context(ctx, userID)

	answer, err := g.llm.Complete(ctx, domain.CompletionRequest{
		Purpose:     "tasks",
		Messages:    buildMessages(lang, Digest(lang, moods, messages)),
		Temperature: genTemperature,
		TopP:        1,
		MaxTokens:   genMaxTokens,
	})
	if err != nil {
		log.Error("task generation failed", "error", err)
		return nil, domain.Upstream(err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, domain.Upstream(domain.ErrEmptyCompletion)
	}

	titles, parser := ExtractTitles(answer)
	if len(titles) == 0 {
		log.Error("task answer could not be parsed", "answer_len", len(answer))
		return nil, domain.Upstream(errNoTitles)
	}
	if parser != "bracketed" {
		log.Warn("task answer was not a bracketed JSON array", "parser", parser)
	}
	observability.TasksGenerated.WithLabelValues(parser).Inc()

	now := g.now()
	tasks := make([]*domain.Task, 0, len(titles))
	for _, title := range titles {
		tasks = append(tasks, &domain.Task{
			ID:        domain.TaskID(uuid.NewString()),
			UserID:    userID,
			Title:     title,
			CreatedAt: now,
		})
	}

	if err := g.store.ReplaceTasksForDay(ctx, userID, domain.DayOf(now, g.loc), tasks); err != nil {
		log.Error("failed to save tasks", "error", err)
		observability.PersistenceFailed("replace_tasks", true)
		return nil, domain.Persistence("Failed to save tasks", err)
	}

	log.Info("tasks generated", "count", len(tasks), "parser", parser)
	return tasks, nil
}

// context loads the digest inputs. Each source is optional.
func (g *Generator) context(ctx context.Context, userID domain.UserID) ([]*domain.MoodEntry, []*domain.Message) {
	log := observability.LoggerForUser(ctx, string(userID))

	moods, err := g.store.RecentMoodEntries(ctx, userID, contextMoodEntries)
	if err != nil {
		log.Warn("mood context unavailable", "error", err)
		moods = nil
	}

	chat, err := g.store.LatestChat(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrChatNotFound) {
			log.Warn("chat context unavailable", "error", err)
		}
		return moods, nil
	}

	messages, err := g.store.RecentMessages(ctx, chat.ID, contextMessages)
	if err != nil {
		log.Warn("chat context unavailable", "chat_id", chat.ID, "error", err)
		return moods, nil
	}
	return moods, messages
}

func buildMessages(lang domain.Language, digest string) []domain.CompletionMessage {
	name := locale.LanguageName(lang, lang)
	system := fmt.Sprintf("%s\n\n%s",
		locale.Text(locale.TasksInstruction, lang),
		locale.Format(locale.TasksLanguagePin, lang, name),
	)
	user := fmt.Sprintf("%s\n\n%s", digest, locale.Format(locale.TasksLanguageLast, lang, name))

	return []domain.CompletionMessage{
		{Role: domain.CompletionSystem, Content: system},
		{Role: domain.CompletionUser, Content: user},
	}
}
