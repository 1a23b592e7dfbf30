package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tailor_tracker/internal/lifecycle"
	"tailor_tracker/internal/services"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingSender) SendText(ctx context.Context, phone, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, phone+": "+message)
	return nil
}

func mustParse(t *testing.T, id string) uuid.UUID {
	t.Helper()
	u, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("parse %q: %v", id, err)
	}
	return u
}

func webhook(from, text string) map[string]any {
	return map[string]any{"from": from + "@s.whatsapp.net", "message": map[string]any{"text": text}}
}

func TestWebhookUnknownSender(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/whatsapp/webhook", webhook("6299999", "/status"))
	if w.Code != http.StatusOK || decode(t, w)["status"] != "user_not_found" {
		t.Fatalf("webhook = %d %s", w.Code, w.Body.String())
	}
	if len(s.replies.sent) != 1 || !strings.HasPrefix(s.replies.sent[0], "6299999: ") {
		t.Fatalf("replies = %v", s.replies.sent)
	}
}

func TestWebhookStatusAndConfirm(t *testing.T) {
	s := newTestServer(t)
	id := s.placeRepair(t)

	w := s.do(t, http.MethodPost, "/api/whatsapp/webhook", webhook("628123456789", "CONFIRM"))
	if reply := decode(t, w)["reply"]; reply != "You have no price confirmation waiting." {
		t.Fatalf("reply = %v", reply)
	}

	items := services.NewOrderItemService(s.repo, zap.NewNop(), services.OrderItemOptions{})
	item, err := items.GetItem(context.Background(), mustParse(t, id))
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	price := decimal.NewFromInt(900)
	if _, err := items.UpdatePricing(context.Background(), item.ID, services.PricingUpdate{FinalPrice: &price}); err != nil {
		t.Fatalf("UpdatePricing: %v", err)
	}

	w = s.do(t, http.MethodPost, "/api/whatsapp/webhook", webhook("628123456789", "/status"))
	reply := decode(t, w)["reply"].(string)
	if !strings.Contains(reply, "Awaiting Price Confirmation") || !strings.Contains(reply, "900.00") {
		t.Fatalf("status reply = %q", reply)
	}

	w = s.do(t, http.MethodPost, "/api/whatsapp/webhook", webhook("628123456789", "yes"))
	if w.Code != http.StatusOK {
		t.Fatalf("confirm = %d %s", w.Code, w.Body.String())
	}
	got, _ := items.GetItem(context.Background(), item.ID)
	if got.Status() != lifecycle.StatusAccepted {
		t.Fatalf("status after confirm = %s", got.Status())
	}
}

func TestWebhookDeclineNeedsCodeWhenAmbiguous(t *testing.T) {
	s := newTestServer(t)
	items := services.NewOrderItemService(s.repo, zap.NewNop(), services.OrderItemOptions{})
	price := decimal.NewFromInt(2000)
	var ids []string
	for i := 0; i < 2; i++ {
		id := s.placeRepair(t)
		if _, err := items.UpdatePricing(context.Background(), mustParse(t, id), services.PricingUpdate{FinalPrice: &price}); err != nil {
			t.Fatalf("UpdatePricing: %v", err)
		}
		ids = append(ids, id)
	}

	w := s.do(t, http.MethodPost, "/api/whatsapp/webhook", webhook("628123456789", "/decline"))
	if reply := decode(t, w)["reply"].(string); !strings.HasPrefix(reply, "Several items") {
		t.Fatalf("reply = %q", reply)
	}

	w = s.do(t, http.MethodPost, "/api/whatsapp/webhook", webhook("628123456789", "/decline "+ids[1][:8]))
	if reply := decode(t, w)["reply"].(string); !strings.Contains(reply, "cancelled") {
		t.Fatalf("reply = %q", reply)
	}
	got, _ := items.GetItem(context.Background(), mustParse(t, ids[1]))
	if got.Status() != lifecycle.StatusPriceDeclined {
		t.Fatalf("declined item status = %s", got.Status())
	}
	other, _ := items.GetItem(context.Background(), mustParse(t, ids[0]))
	if other.Status() != lifecycle.StatusPriceConfirmation {
		t.Fatalf("other item status = %s", other.Status())
	}
}

func TestProcessCommandHelp(t *testing.T) {
	h := NewWhatsAppHandler(nil, nil, nil, nil)
	if got := h.processCommand(context.Background(), nil, "  "); !strings.HasPrefix(got, "Empty message") {
		t.Fatalf("empty = %q", got)
	}
	if got := h.processCommand(context.Background(), nil, "/HELP"); !strings.Contains(got, "/confirm") {
		t.Fatalf("help = %q", got)
	}
	if got := h.processCommand(context.Background(), nil, "hello"); !strings.HasPrefix(got, "Unknown command") {
		t.Fatalf("unknown = %q", got)
	}
}
