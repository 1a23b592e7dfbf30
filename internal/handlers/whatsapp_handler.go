package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tailor_tracker/internal/lifecycle"
	"tailor_tracker/internal/models"
	"tailor_tracker/internal/services"
)

// WhatsAppHandler answers customer messages coming from the WhatsApp gateway.
type WhatsAppHandler struct {
	itemService services.OrderItemService
	userService services.UserService
	sender      services.MessageSender
	log         *zap.Logger
}

// NewWhatsAppHandler builds the webhook handler. With a nil sender replies
// are only returned in the HTTP response.
func NewWhatsAppHandler(
	itemService services.OrderItemService,
	userService services.UserService,
	sender services.MessageSender,
	log *zap.Logger,
) *WhatsAppHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WhatsAppHandler{
		itemService: itemService,
		userService: userService,
		sender:      sender,
		log:         log.Named("whatsapp"),
	}
}

type WebhookRequest struct {
	SenderID  string `json:"sender_id"`
	ChatID    string `json:"chat_id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Pushname  string `json:"pushname"`
	Message   struct {
		Text string `json:"text"`
		ID   string `json:"id"`
	} `json:"message"`
}

// shortCodeLen is how many leading characters of an item ID a customer
// types to pick an item.
const shortCodeLen = 8

func (h *WhatsAppHandler) HandleWebhook(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	// Format: 628123456789@s.whatsapp.net
	phoneNumber := req.From
	if phoneNumber == "" {
		phoneNumber = req.SenderID
	}
	phoneNumber = strings.TrimSuffix(phoneNumber, "@s.whatsapp.net")
	if phoneNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing sender"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.GetUserByWhatsAppNumber(ctx, phoneNumber)
	if err != nil {
		if !errors.Is(err, services.ErrUserNotFound) {
			h.log.Error("lookup sender failed", zap.String("phone", phoneNumber), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up sender"})
			return
		}
		reply := "Your number is not registered with us. Please contact the shop."
		h.reply(ctx, phoneNumber, reply)
		c.JSON(http.StatusOK, gin.H{"status": "user_not_found", "reply": reply})
		return
	}

	reply := h.processCommand(ctx, user, req.Message.Text)
	if err := h.reply(ctx, phoneNumber, reply); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "reply": reply})
}

func (h *WhatsAppHandler) reply(ctx context.Context, phone, message string) error {
	if h.sender == nil {
		return nil
	}
	if err := h.sender.SendText(ctx, phone, message); err != nil {
		h.log.Warn("send reply failed", zap.String("phone", phone), zap.Error(err))
		return err
	}
	return nil
}

func (h *WhatsAppHandler) processCommand(ctx context.Context, user *models.User, message string) string {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(message)))
	if len(parts) == 0 {
		return "Empty message. Type /help for available commands."
	}
	command := strings.TrimPrefix(parts[0], "/")
	args := parts[1:]

	switch command {
	case "help":
		return helpMessage()
	case "status", "orders":
		return h.statusSummary(ctx, user)
	case "confirm", "yes", "ok":
		return h.answerPrice(ctx, user, args, true)
	case "decline", "no":
		return h.answerPrice(ctx, user, args, false)
	default:
		return "Unknown command. Type /help for available commands."
	}
}

func helpMessage() string {
	return strings.Join([]string{
		"Available commands:",
		"/status - show your order items",
		"/confirm [code] - accept the revised price",
		"/decline [code] - decline the revised price",
	}, "\n")
}

func (h *WhatsAppHandler) statusSummary(ctx context.Context, user *models.User) string {
	items, err := h.itemService.ListUserItems(ctx, user.ID)
	if err != nil {
		h.log.Error("list items failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return "Sorry, we could not load your orders right now."
	}
	if len(items) == 0 {
		return "You have no orders with us yet."
	}

	var b strings.Builder
	b.WriteString("Your order items:")
	for i := range items {
		item := &items[i]
		fmt.Fprintf(&b, "\n%s %s: %s", shortCode(item), item.ServiceType, lifecycle.Meta(item.Status()).Label)
		if item.Status() == lifecycle.StatusPriceConfirmation && item.HasFinalPrice() {
			fmt.Fprintf(&b, " (new price %s)", item.FinalPrice.Decimal.StringFixed(2))
		}
	}
	return b.String()
}

func (h *WhatsAppHandler) answerPrice(ctx context.Context, user *models.User, args []string, accept bool) string {
	items, err := h.itemService.ListUserItems(ctx, user.ID)
	if err != nil {
		h.log.Error("list items failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return "Sorry, we could not load your orders right now."
	}

	var waiting []*models.OrderItem
	for i := range items {
		if items[i].Status() != lifecycle.StatusPriceConfirmation {
			continue
		}
		if len(args) > 0 && !strings.HasPrefix(items[i].ID.String(), args[0]) {
			continue
		}
		waiting = append(waiting, &items[i])
	}

	switch {
	case len(waiting) == 0:
		return "You have no price confirmation waiting."
	case len(waiting) > 1:
		var b strings.Builder
		b.WriteString("Several items are waiting for your answer. Reply with the code, for example /confirm ")
		b.WriteString(shortCode(waiting[0]))
		for _, item := range waiting {
			fmt.Fprintf(&b, "\n%s %s", shortCode(item), item.ServiceType)
		}
		return b.String()
	}

	item := waiting[0]
	answer := h.itemService.DeclinePrice
	if accept {
		answer = h.itemService.ConfirmPrice
	}
	updated, err := answer(ctx, item.ID, user.ID)
	if err != nil {
		if errors.Is(err, lifecycle.ErrInvalidTransition) {
			return "This item no longer needs your confirmation."
		}
		h.log.Error("answer price failed", zap.String("item_id", item.ID.String()), zap.Error(err))
		return "Sorry, we could not record your answer. Please try again."
	}
	if accept {
		return fmt.Sprintf("Thank you. Item %s is now %s.", shortCode(updated), lifecycle.Meta(updated.Status()).Label)
	}
	return fmt.Sprintf("Item %s has been cancelled after you declined the new price.", shortCode(updated))
}

func shortCode(item *models.OrderItem) string {
	return item.ID.String()[:shortCodeLen]
}
