// Package mood rates the emotional tone of user messages and serves the
// resulting mood history.
package mood

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/PabloGalante/farum-wellness/internal/app/locale"
	"github.com/PabloGalante/farum-wellness/internal/app/validation"
	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

const (
	notePrefix = `Auto-generated from message: "`
	noteSuffix = `"`

	scoreTemperature = 0.3
	scoreMaxTokens   = 10
)

var firstNumber = regexp.MustCompile(`\d+`)

// Job asks for one user message to be scored.
type Job struct {
	UserID   domain.UserID
	Text     string
	Language domain.Language
}

// Scorer classifies a message into a 1..10 mood score and records it.
type Scorer struct {
	llm   domain.CompletionClient
	store domain.MoodStore
	now   func() time.Time
}

func NewScorer(llm domain.CompletionClient, store domain.MoodStore) *Scorer {
	return &Scorer{llm: llm, store: store, now: time.Now}
}

// Score asks the model for a rating. ok is false when the answer holds no
// number in range; err is only set when the call itself failed.
func (s *Scorer) Score(ctx context.Context, text string, lang domain.Language) (score int, ok bool, err error) {
	out, err := s.llm.Complete(ctx, domain.CompletionRequest{
		Purpose: "mood",
		Messages: []domain.CompletionMessage{
			{Role: domain.CompletionSystem, Content: locale.Text(locale.MoodInstruction, lang)},
			{Role: domain.CompletionUser, Content: text},
		},
		Temperature: scoreTemperature,
		TopP:        1,
		MaxTokens:   scoreMaxTokens,
	})
	if err != nil {
		return 0, false, err
	}
	score, ok = ParseScore(out)
	return score, ok, nil
}

// Run scores job and appends a mood entry. Every failure is logged and
// counted, never returned.
func (s *Scorer) Run(ctx context.Context, job Job) {
	log := observability.LoggerForUser(ctx, string(job.UserID))

	score, ok, err := s.Score(ctx, job.Text, job.Language)
	if err != nil {
		log.Warn("mood scoring failed", "error", err)
		observability.MoodScoring.WithLabelValues("failed").Inc()
		return
	}
	if !ok {
		log.Debug("mood score discarded")
		observability.MoodScoring.WithLabelValues("discarded").Inc()
		return
	}

	entry := &domain.MoodEntry{
		ID:        domain.MoodEntryID(uuid.NewString()),
		UserID:    job.UserID,
		Score:     score,
		Note:      BuildNote(job.Text),
		CreatedAt: s.now(),
	}
	if err := s.store.AppendMoodEntry(ctx, entry); err != nil {
		log.Error("failed to store mood entry", "error", err)
		observability.MoodScoring.WithLabelValues("failed").Inc()
		observability.PersistenceFailed("append_mood_entry", false)
		return
	}

	log.Info("mood entry stored", "score", score)
	observability.MoodScoring.WithLabelValues("stored").Inc()
}

// ParseScore reads the first run of digits in s and accepts it only if it is
// a valid mood score.
func ParseScore(s string) (int, bool) {
	digits := firstNumber.FindString(s)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || !domain.ValidMoodScore(n) {
		return 0, false
	}
	return n, true
}

// BuildNote quotes a tag-free excerpt of text behind the provenance marker.
// The whole note fits domain.MoodNoteMaxLen characters.
func BuildNote(text string) string {
	excerpt := validation.StripTags(text)
	excerpt = strings.NewReplacer("<", "", ">", "").Replace(excerpt)
	excerpt = strings.TrimSpace(excerpt)

	room := domain.MoodNoteMaxLen - utf8.RuneCountInString(notePrefix) - utf8.RuneCountInString(noteSuffix)
	if utf8.RuneCountInString(excerpt) > room {
		excerpt = string([]rune(excerpt)[:room])
	}
	return notePrefix + excerpt + noteSuffix
}
