// Package validation decodes inbound payloads, checks them against their
// schemas and sanitizes user-authored text.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

const (
	MaxTurns       = 100
	MaxTurnLength  = 10000
	msgBadEnvelope = "Invalid request format"
	msgBadSchema   = "Invalid request data"
)

var validate = validator.New()

// TurnID accepts either a JSON string or a JSON number.
type TurnID string

func (id *TurnID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = TurnID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("turn id must be a string or a number")
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("turn id must be a string or a number")
	}
	*id = TurnID(n.String())
	return nil
}

type ChatTurn struct {
	ID     TurnID `json:"id" validate:"required"`
	Text   string `json:"text" validate:"min=1,max=10000"`
	IsUser *bool  `json:"isUser" validate:"required"`
}

type ChatRequest struct {
	Messages []ChatTurn `json:"messages" validate:"required,min=1,max=100,dive"`
	ChatID   *string    `json:"chatId" validate:"omitempty,uuid"`
	Language string     `json:"language" validate:"omitempty,oneof=en ru"`
}

type TaskGenerationRequest struct {
	Language string `json:"language" validate:"omitempty,oneof=en ru"`
}

type TaskUpdateRequest struct {
	TaskID    string `json:"taskId" validate:"required,uuid"`
	Completed *bool  `json:"completed" validate:"required"`
}

type DeleteChatRequest struct {
	ChatID string `json:"chatId" validate:"required,uuid"`
}

// ChatInput is a chat request that passed schema validation and sanitization.
type ChatInput struct {
	Turns    []domain.Turn
	ChatID   *domain.ChatID
	Language domain.Language
}

// Decode parses body into T and validates it. A body that is not JSON at all
// yields ErrMalformedEnvelope; anything that parses but does not fit the
// schema yields ErrSchemaViolation. Both are client errors.
func Decode[T any](body []byte) (*T, error) {
	if len(bytes.TrimSpace(body)) == 0 || !json.Valid(body) {
		return nil, domain.Invalid(domain.CodeInvalidRequest, msgBadEnvelope, domain.ErrMalformedEnvelope)
	}

	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, domain.Invalid(domain.CodeValidation, msgBadSchema, fmt.Errorf("%w: %v", domain.ErrSchemaViolation, err))
	}
	if err := validate.Struct(&v); err != nil {
		return nil, domain.Invalid(domain.CodeValidation, msgBadSchema, fmt.Errorf("%w: %v", domain.ErrSchemaViolation, err))
	}
	return &v, nil
}

// ParseChatRequest validates a chat request and sanitizes every turn.
// A turn that sanitizes to nothing invalidates the whole request.
func ParseChatRequest(body []byte) (*ChatInput, error) {
	req, err := Decode[ChatRequest](body)
	if err != nil {
		return nil, err
	}

	in := &ChatInput{
		Turns:    make([]domain.Turn, 0, len(req.Messages)),
		Language: languageOrDefault(req.Language),
	}
	if req.ChatID != nil {
		id := domain.ChatID(*req.ChatID)
		in.ChatID = &id
	}

	for i, m := range req.Messages {
		text := Sanitize(m.Text)
		if text == "" {
			return nil, domain.Invalid(domain.CodeEmptyMessage, "Message cannot be empty",
				fmt.Errorf("%w: message %d is empty after sanitization", domain.ErrSchemaViolation, i))
		}
		in.Turns = append(in.Turns, domain.Turn{Text: text, IsUser: *m.IsUser})
	}
	return in, nil
}

// ParseTaskGenerationRequest returns the requested language.
func ParseTaskGenerationRequest(body []byte) (domain.Language, error) {
	req, err := Decode[TaskGenerationRequest](body)
	if err != nil {
		return "", err
	}
	return languageOrDefault(req.Language), nil
}

func ParseTaskUpdateRequest(body []byte) (domain.TaskID, bool, error) {
	req, err := Decode[TaskUpdateRequest](body)
	if err != nil {
		return "", false, err
	}
	return domain.TaskID(req.TaskID), *req.Completed, nil
}

func ParseDeleteChatRequest(body []byte) (domain.ChatID, error) {
	req, err := Decode[DeleteChatRequest](body)
	if err != nil {
		return "", err
	}
	return domain.ChatID(req.ChatID), nil
}

func languageOrDefault(s string) domain.Language {
	if s == "" {
		return domain.DefaultLanguage
	}
	return domain.Language(s)
}
