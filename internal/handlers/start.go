package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/serejivanov62/wish/internal/telegram"
)

// StartHandler handles the /start command
type StartHandler struct {
	logger *logrus.Logger
}

// NewStartHandler creates a new start command handler
func NewStartHandler(logger *logrus.Logger) *StartHandler {
	return &StartHandler{
		logger: logger,
	}
}

// Handle processes the /start command
func (h *StartHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	welcomeText := `🎁 *Welcome to WishSpace!*

Keep your wishes in one place and let friends book gifts without spoiling the surprise.

*Getting started:*
• Open the WishSpace Mini App once to register
• Send me a link to any product and I will add it to your wishes
• Add a word after the link to pick a category, e.g. ` + "`https://shop.example/lamp Home`" + `
• Share your contact to let friends find you by phone

Use /help to see all commands.`

	if err := sendMarkdown(bot, message.Chat.ID, welcomeText); err != nil {
		return fmt.Errorf("failed to send start message: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
	}).Info("Sent start message")

	return nil
}
