package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Sender is the part of the bot API handlers reply through.
// *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// CommandHandler defines the interface for command handlers
type CommandHandler interface {
	Handle(bot Sender, message *tgbotapi.Message, args []string) error
}

// MessageHandler handles non-command messages
type MessageHandler interface {
	Handle(bot Sender, message *tgbotapi.Message) error
}

// Router handles message routing and command parsing
type Router struct {
	logger   *logrus.Logger
	handlers map[string]CommandHandler
	text     MessageHandler
	contact  MessageHandler
}

// NewRouter creates a new message router
func NewRouter(logger *logrus.Logger) *Router {
	return &Router{
		logger:   logger,
		handlers: make(map[string]CommandHandler),
	}
}

// RegisterCommand registers a command handler
func (r *Router) RegisterCommand(command string, handler CommandHandler) {
	r.handlers[command] = handler
	r.logger.Debugf("Registered command: %s", command)
}

// RegisterText sets the handler for plain text messages
func (r *Router) RegisterText(handler MessageHandler) {
	r.text = handler
}

// RegisterContact sets the handler for shared contacts
func (r *Router) RegisterContact(handler MessageHandler) {
	r.contact = handler
}

// HandleMessage handles incoming messages
func (r *Router) HandleMessage(bot Sender, message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil {
		return
	}

	r.logger.WithFields(logrus.Fields{
		"chat_id":    message.Chat.ID,
		"user_id":    message.From.ID,
		"username":   message.From.UserName,
		"message_id": message.MessageID,
	}).Info("Received message")

	switch {
	case message.Contact != nil:
		if r.contact != nil {
			r.run(bot, message, "contact", func() error { return r.contact.Handle(bot, message) })
		}
	case message.IsCommand():
		r.handleCommand(bot, message)
	case strings.TrimSpace(message.Text) != "":
		if r.text != nil {
			r.run(bot, message, "text", func() error { return r.text.Handle(bot, message) })
		}
	}
}

func (r *Router) handleCommand(bot Sender, message *tgbotapi.Message) {
	command := message.Command()
	args := strings.Fields(message.CommandArguments())

	handler, exists := r.handlers[command]
	if !exists {
		r.logger.WithFields(logrus.Fields{
			"command": command,
			"chat_id": message.Chat.ID,
			"user_id": message.From.ID,
		}).Warn("Unknown command")

		reply(r.logger, bot, message.Chat.ID, "❓ Unknown command. Use /help to see available commands.")
		return
	}

	r.run(bot, message, command, func() error { return handler.Handle(bot, message, args) })
}

func (r *Router) run(bot Sender, message *tgbotapi.Message, name string, fn func() error) {
	if err := fn(); err != nil {
		r.logger.WithFields(logrus.Fields{
			"handler": name,
			"chat_id": message.Chat.ID,
			"user_id": message.From.ID,
			"error":   err,
		}).Error("Message handler failed")

		reply(r.logger, bot, message.Chat.ID, "❌ An error occurred while processing your message. Please try again.")
	}
}

func reply(logger *logrus.Logger, bot Sender, chatID int64, text string) {
	if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logger.WithError(err).Error("Failed to send message")
	}
}
