package tasks

import (
	"slices"
	"strings"
	"time"

	"github.com/PabloGalante/farum-wellness/internal/app/locale"
	"github.com/PabloGalante/farum-wellness/internal/domain"
)

// Digest renders the context the model plans from. moods and messages are
// newest first, as the stores return them; either may be empty.
func Digest(lang domain.Language, moods []*domain.MoodEntry, messages []*domain.Message) string {
	var b strings.Builder

	b.WriteString(locale.Text(locale.DigestHeader, lang))
	b.WriteString("\n\n")

	b.WriteString(locale.Text(locale.DigestMoodTitle, lang))
	b.WriteString("\n")
	if len(moods) == 0 {
		b.WriteString(locale.Text(locale.DigestNoMood, lang))
	} else {
		lines := make([]string, 0, len(moods))
		for _, m := range slices.Backward(moods) {
			lines = append(lines, locale.Format(locale.DigestMoodLine, lang, m.Score, m.CreatedAt.UTC().Format(time.RFC3339)))
		}
		b.WriteString(strings.Join(lines, "\n"))
	}
	b.WriteString("\n\n")

	b.WriteString(locale.Text(locale.DigestChatTitle, lang))
	b.WriteString("\n")
	if len(messages) == 0 {
		b.WriteString(locale.Text(locale.DigestNoChat, lang))
	} else {
		user := locale.Text(locale.DigestUser, lang)
		assistant := locale.Text(locale.DigestAssistant, lang)
		lines := make([]string, 0, len(messages))
		for _, m := range slices.Backward(messages) {
			who := assistant
			if m.Role == domain.RoleUser {
				who = user
			}
			lines = append(lines, who+": "+m.Content)
		}
		b.WriteString(strings.Join(lines, "\n"))
	}
	b.WriteString("\n\n")

	b.WriteString(locale.Text(locale.DigestAskForPlan, lang))
	return b.String()
}
