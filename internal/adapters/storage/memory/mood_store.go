package memory

import (
	"context"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

func (s *Store) AppendMoodEntry(_ context.Context, entry *domain.MoodEntry) error {
	if entry == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e := *entry
	s.moods[entry.UserID] = append(s.moods[entry.UserID], &e)
	return nil
}

// RecentMoodEntries returns the last `limit` entries for a user, newest first.
// If limit <= 0, returns all.
func (s *Store) RecentMoodEntries(_ context.Context, userID domain.UserID, limit int) ([]*domain.MoodEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.moods[userID]
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}

	out := make([]*domain.MoodEntry, 0, limit)
	for i := len(entries) - 1; i >= len(entries)-limit; i-- {
		e := *entries[i]
		out = append(out, &e)
	}
	return out, nil
}
