package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/serejivanov62/wish/internal/service"
	"github.com/serejivanov62/wish/internal/telegram"
)

// FriendsHandler handles the /friends command
type FriendsHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewFriendsHandler creates a new FriendsHandler.
func NewFriendsHandler(svc *service.Service, logger *logrus.Logger) *FriendsHandler {
	return &FriendsHandler{svc: svc, logger: logger}
}

// Handle processes the /friends command.
func (h *FriendsHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()

	user, err := registeredUser(ctx, h.svc, bot, message)
	if err != nil || user == nil {
		return err
	}

	friends, err := h.svc.ListFriends(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list friends: %w", err)
	}
	if len(friends) == 0 {
		return send(bot, message.Chat.ID, "👥 You have no friends in WishSpace yet. Add them by phone in the Mini App.")
	}

	var sb strings.Builder
	sb.WriteString("👥 Your friends\n\n")
	for _, f := range friends {
		sb.WriteString("• " + f.DisplayName() + "\n")
	}
	return send(bot, message.Chat.ID, sb.String())
}

// ContactHandler saves the phone number from a contact the sender shares
// about themselves
type ContactHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(svc *service.Service, logger *logrus.Logger) *ContactHandler {
	return &ContactHandler{svc: svc, logger: logger}
}

// Handle processes a shared contact.
func (h *ContactHandler) Handle(bot telegram.Sender, message *tgbotapi.Message) error {
	if message.Contact.UserID != message.From.ID {
		return send(bot, message.Chat.ID, "Please share your own contact. Add friends by phone in the Mini App.")
	}

	ctx := context.Background()

	user, err := registeredUser(ctx, h.svc, bot, message)
	if err != nil || user == nil {
		return err
	}

	_, err = h.svc.UpdatePhone(ctx, user.ID, message.Contact.PhoneNumber)
	switch {
	case errors.Is(err, service.ErrConflict):
		return send(bot, message.Chat.ID, "This phone number is already linked to another account.")
	case errors.Is(err, service.ErrInvalid):
		return send(bot, message.Chat.ID, "I couldn't read that phone number.")
	case err != nil:
		return fmt.Errorf("update phone: %w", err)
	}

	h.logger.WithField("user_id", user.ID).Info("Phone saved from shared contact")
	return send(bot, message.Chat.ID, "📱 Phone saved. Friends can now add you by your number.")
}
