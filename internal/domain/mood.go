package domain

const (
	MoodScoreMin = 1
	MoodScoreMax = 10

	// MoodNoteMaxLen bounds the whole note, provenance marker included.
	MoodNoteMaxLen = 100
)

// MoodEntry is an append-only emotional valence sample for a user.
type MoodEntry struct {
	ID        MoodEntryID
	UserID    UserID
	Score     int
	Note      string
	CreatedAt Timestamp
}

// ValidMoodScore reports whether score may be stored.
func ValidMoodScore(score int) bool {
	return score >= MoodScoreMin && score <= MoodScoreMax
}
