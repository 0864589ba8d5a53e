package domain

// Chat owns an ordered sequence of messages. Deleting a chat removes its messages.
type Chat struct {
	ID        ChatID
	UserID    UserID
	CreatedAt Timestamp
}

// Message is one turn of a chat. Immutable once written.
type Message struct {
	ID        MessageID
	ChatID    ChatID
	Role      Role
	Content   string
	CreatedAt Timestamp
}

// Turn is a client-supplied history entry, already validated and sanitized.
type Turn struct {
	Text   string
	IsUser bool
}
