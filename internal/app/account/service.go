// Package account handles destructive user requests: chat and account removal.
package account

import (
	"context"
	"errors"

	"github.com/PabloGalante/farum-wellness/internal/domain"
	"github.com/PabloGalante/farum-wellness/internal/observability"
)

type Service struct {
	chats  domain.ChatStore
	purger domain.UserDataPurger
	admin  domain.IdentityAdmin
}

func NewService(chats domain.ChatStore, purger domain.UserDataPurger, admin domain.IdentityAdmin) *Service {
	return &Service{chats: chats, purger: purger, admin: admin}
}

// DeleteChat removes a chat of userID together with its messages.
func (s *Service) DeleteChat(ctx context.Context, userID domain.UserID, chatID domain.ChatID) error {
	log := observability.LoggerForUser(ctx, string(userID)).With("chat_id", chatID)

	chat, err := s.chats.GetChat(ctx, chatID)
	if errors.Is(err, domain.ErrChatNotFound) {
		return domain.NotFound("Chat not found", err)
	}
	if err != nil {
		log.Error("failed to load chat", "error", err)
		observability.PersistenceFailed("get_chat", true)
		return domain.Persistence("Failed to delete chat", err)
	}
	if chat.UserID != userID {
		log.Warn("chat deletion denied")
		return domain.Forbidden("Chat belongs to another user")
	}

	if err := s.chats.DeleteChat(ctx, chatID); err != nil {
		if errors.Is(err, domain.ErrChatNotFound) {
			return domain.NotFound("Chat not found", err)
		}
		log.Error("failed to delete chat", "error", err)
		observability.PersistenceFailed("delete_chat", true)
		return domain.Persistence("Failed to delete chat", err)
	}

	log.Info("chat deleted")
	return nil
}

// DeleteAccount deletes the identity of userID, then every record it owns.
func (s *Service) DeleteAccount(ctx context.Context, userID domain.UserID) error {
	log := observability.LoggerForUser(ctx, string(userID))

	if err := s.admin.DeleteUser(ctx, userID); err != nil {
		log.Error("identity deletion failed", "error", err)
		return &domain.Error{
			Kind:    domain.KindUpstream,
			Code:    domain.CodeUpstream,
			Message: "Failed to delete account",
			Err:     err,
		}
	}

	if err := s.purger.PurgeUser(ctx, userID); err != nil {
		log.Error("identity deleted but user data purge failed", "error", err)
		observability.PersistenceFailed("purge_user", true)
		return domain.Persistence("Failed to delete account data", err)
	}

	log.Info("account deleted")
	return nil
}
