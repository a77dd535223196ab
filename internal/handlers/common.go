package handlers

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/serejivanov62/wish/internal/models"
	"github.com/serejivanov62/wish/internal/service"
	"github.com/serejivanov62/wish/internal/telegram"
)

const notRegisteredText = "Please open the WishSpace Mini App first to register."

func send(bot telegram.Sender, chatID int64, text string) error {
	if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func sendMarkdown(bot telegram.Sender, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// registeredUser finds the WishSpace user behind a message. When the
// sender has not registered yet it tells them so and returns nil.
func registeredUser(ctx context.Context, svc *service.Service, bot telegram.Sender, message *tgbotapi.Message) (*models.User, error) {
	user, err := svc.GetUserByTelegramID(ctx, message.From.ID)
	if errors.Is(err, service.ErrNotFound) {
		return nil, send(bot, message.Chat.ID, notRegisteredText)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
