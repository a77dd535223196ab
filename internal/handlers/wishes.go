package handlers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/serejivanov62/wish/internal/models"
	"github.com/serejivanov62/wish/internal/service"
	"github.com/serejivanov62/wish/internal/telegram"
)

// ---------------------------------------------------------------------------
// WishesHandler: /wishes
// ---------------------------------------------------------------------------

// WishesHandler lists the sender's wishes grouped by category
type WishesHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewWishesHandler creates a new WishesHandler.
func NewWishesHandler(svc *service.Service, logger *logrus.Logger) *WishesHandler {
	return &WishesHandler{svc: svc, logger: logger}
}

// Handle processes the /wishes command.
func (h *WishesHandler) Handle(bot telegram.Sender, message *tgbotapi.Message, args []string) error {
	ctx := context.Background()

	user, err := registeredUser(ctx, h.svc, bot, message)
	if err != nil || user == nil {
		return err
	}

	items, err := h.svc.ListItems(ctx, user.ID, 0, service.MaxItemLimit)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	if len(items) == 0 {
		return send(bot, message.Chat.ID, "🎁 Your wish list is empty. Send me a product link to add one!")
	}

	categories, err := h.svc.ListCategories(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}

	return send(bot, message.Chat.ID, formatWishes(items, categories))
}

func formatWishes(items []*models.Item, categories []*models.Category) string {
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	grouped := make(map[string][]*models.Item)
	var order []string
	for _, item := range items {
		name := models.DefaultCategory
		if item.CategoryID != nil {
			if n, ok := names[*item.CategoryID]; ok {
				name = n
			}
		}
		if _, seen := grouped[name]; !seen {
			order = append(order, name)
		}
		grouped[name] = append(grouped[name], item)
	}

	var sb strings.Builder
	sb.WriteString("🎁 Your wishes\n")
	for _, name := range order {
		sb.WriteString("\n📂 " + name + "\n")
		for _, item := range grouped[name] {
			sb.WriteString(fmt.Sprintf("%d. %s", item.ID, item.Title))
			if item.Price != nil {
				sb.WriteString(fmt.Sprintf(" (%.2f)", *item.Price))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// ---------------------------------------------------------------------------
// LinkHandler: plain text containing a product URL
// ---------------------------------------------------------------------------

var urlPattern = regexp.MustCompile(`https?://\S+`)

// LinkHandler turns a product link sent to the bot into a wish. Text
// around the link names the category.
type LinkHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewLinkHandler creates a new LinkHandler.
func NewLinkHandler(svc *service.Service, logger *logrus.Logger) *LinkHandler {
	return &LinkHandler{svc: svc, logger: logger}
}

// ParseLink splits a message into the first URL and the category named by
// the remaining text. ok is false when the text has no URL.
func ParseLink(text string) (url, category string, ok bool) {
	url = urlPattern.FindString(text)
	if url == "" {
		return "", "", false
	}
	category = strings.Join(strings.Fields(strings.Replace(text, url, " ", 1)), " ")
	if category == "" {
		category = models.DefaultCategory
	}
	return url, category, true
}

// Handle processes a text message.
func (h *LinkHandler) Handle(bot telegram.Sender, message *tgbotapi.Message) error {
	ctx := context.Background()

	user, err := registeredUser(ctx, h.svc, bot, message)
	if err != nil || user == nil {
		return err
	}

	url, category, ok := ParseLink(message.Text)
	if !ok {
		return send(bot, message.Chat.ID, "Please send a link to a product you want to add.")
	}

	item, err := h.svc.CreateItemFromURL(ctx, user.ID, url, category)
	switch {
	case errors.Is(err, service.ErrUpstream):
		return send(bot, message.Chat.ID, "😕 I couldn't read that page. Try another link or add the wish manually in the Mini App.")
	case errors.Is(err, service.ErrInvalid):
		return send(bot, message.Chat.ID, "That doesn't look like a valid link.")
	case err != nil:
		return fmt.Errorf("create item from link: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"item_id":  item.ID,
		"category": category,
	}).Info("Wish added from link")

	return send(bot, message.Chat.ID, fmt.Sprintf("✅ Wish %q added to your %s list!", item.Title, category))
}
