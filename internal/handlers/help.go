package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/serejivanov62/wish/internal/telegram"
)

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

func (h *HelpHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	helpText := `📚 *WishSpace Help*

*Wishes:*
• Send a product link - Add it to your wishes
• Link followed by text - Add it under that category
• /wishes - Show your wishes

*Friends:*
• /friends - Show your friends
• Share your contact - Save your phone so friends can add you

_Events, sharing and booking live in the Mini App._`

	if err := sendMarkdown(bot, message.Chat.ID, helpText); err != nil {
		return fmt.Errorf("failed to send help message: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
	}).Info("Sent help message")

	return nil
}
