package domain

import "time"

type UserID string
type ChatID string
type MessageID string
type MoodEntryID string
type TaskID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Language is the interface language a request pins the model output to.
type Language string

const (
	LangEN Language = "en"
	LangRU Language = "ru"
)

// DefaultLanguage is used when a request omits the language tag.
const DefaultLanguage = LangEN

// SupportedLanguages is the closed set accepted at the API boundary.
var SupportedLanguages = []Language{LangEN, LangRU}

// IsSupported reports whether l belongs to SupportedLanguages.
func (l Language) IsSupported() bool {
	for _, s := range SupportedLanguages {
		if s == l {
			return true
		}
	}
	return false
}

type Timestamp = time.Time
