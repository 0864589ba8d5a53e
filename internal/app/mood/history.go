package mood

import (
	"context"
	"fmt"
	"slices"

	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

const (
	DefaultHistoryLimit = 30
	MaxHistoryLimit     = 90
)

type History struct {
	store domain.MoodStore
}

func NewHistory(store domain.MoodStore) *History {
	return &History{store: store}
}

// Recent returns up to limit of the user's latest entries, oldest first.
// A zero limit means DefaultHistoryLimit.
func (h *History) Recent(ctx context.Context, userID domain.UserID, limit int) ([]*domain.MoodEntry, error) {
	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	if limit < 1 || limit > MaxHistoryLimit {
		return nil, domain.Invalid(domain.CodeValidation,
			fmt.Sprintf("limit must be between 1 and %d", MaxHistoryLimit), domain.ErrSchemaViolation)
	}

	entries, err := h.store.RecentMoodEntries(ctx, userID, limit)
	if err != nil {
		observability.LoggerForUser(ctx, string(userID)).Error("failed to load mood history", "error", err)
		observability.PersistenceFailed("recent_mood_entries", true)
		return nil, domain.Persistence("Failed to load mood history", err)
	}

	slices.Reverse(entries)
	return entries, nil
}
