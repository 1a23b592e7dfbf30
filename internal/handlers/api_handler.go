package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tailor_tracker/internal/lifecycle"
	"tailor_tracker/internal/models"
	"tailor_tracker/internal/services"
)

// HeaderUserID identifies the customer acting on their own items.
const HeaderUserID = "X-User-ID"

// ReminderRunner triggers the reminder job on demand.
type ReminderRunner interface {
	RunOnceNow(ctx context.Context) (*services.ReminderRunSummary, error)
}

type APIHandler struct {
	itemService         services.OrderItemService
	orderService        services.OrderService
	userService         services.UserService
	notificationService services.NotificationService
	reminders           ReminderRunner
	log                 *zap.Logger
}

func NewAPIHandler(
	itemService services.OrderItemService,
	orderService services.OrderService,
	userService services.UserService,
	notificationService services.NotificationService,
	reminders ReminderRunner,
	log *zap.Logger,
) *APIHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &APIHandler{
		itemService:         itemService,
		orderService:        orderService,
		userService:         userService,
		notificationService: notificationService,
		reminders:           reminders,
		log:                 log.Named("api"),
	}
}

type itemResponse struct {
	*models.OrderItem
	StatusLabel    string                   `json:"status_label"`
	Classification lifecycle.Classification `json:"classification"`
	NextStatus     lifecycle.Status         `json:"next_status,omitempty"`
}

func newItemResponse(item *models.OrderItem) itemResponse {
	meta := lifecycle.Meta(item.Status())
	resp := itemResponse{OrderItem: item, StatusLabel: meta.Label, Classification: meta.Classification}
	if next, ok := lifecycle.NextStatus(item.Status(), item.ServiceType); ok {
		resp.NextStatus = next
	}
	return resp
}

func newItemResponses(items []models.OrderItem) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for i := range items {
		out = append(out, newItemResponse(&items[i]))
	}
	return out
}

func (h *APIHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListStatuses returns the status registry, optionally for one service type.
func (h *APIHandler) ListStatuses(c *gin.Context) {
	types := lifecycle.ServiceTypes()
	if raw := c.Query("service_type"); raw != "" {
		t, err := lifecycle.ParseServiceType(raw)
		if err != nil {
			h.respondError(c, err, "")
			return
		}
		types = []lifecycle.ServiceType{t}
	}

	flows := make([]gin.H, 0, len(types))
	for _, t := range types {
		flow, ok := lifecycle.FlowFor(t)
		if !ok {
			continue
		}
		flows = append(flows, gin.H{
			"service_type":       t,
			"steps":              flow.Steps,
			"price_confirmation": flow.HasPriceConfirmation(),
			"statuses":           lifecycle.Statuses(t),
		})
	}
	c.JSON(http.StatusOK, gin.H{"flows": flows})
}

func (h *APIHandler) EstimatePrice(c *gin.Context) {
	var req struct {
		ServiceType  string         `json:"service_type" binding:"required"`
		SpecificData map[string]any `json:"specific_data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	est, err := h.itemService.EstimatePrice(req.ServiceType, req.SpecificData)
	if err != nil {
		h.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, est)
}

func (h *APIHandler) RegisterUser(c *gin.Context) {
	var req struct {
		Name           string `json:"name" binding:"required"`
		Email          string `json:"email" binding:"required,email"`
		PhoneNumber    string `json:"phone_number"`
		WhatsAppNumber string `json:"whatsapp_number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	user := &models.User{
		Name:           req.Name,
		Email:          req.Email,
		PhoneNumber:    req.PhoneNumber,
		WhatsAppNumber: req.WhatsAppNumber,
	}
	if err := h.userService.RegisterCustomer(c.Request.Context(), user); err != nil {
		h.respondError(c, err, "Failed to register user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *APIHandler) PlaceOrder(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
		Items  []struct {
			ServiceType  string         `json:"service_type"`
			SpecificData map[string]any `json:"specific_data"`
		} `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	items := make([]services.NewOrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, services.NewOrderItem{ServiceType: it.ServiceType, SpecificData: it.SpecificData})
	}
	order, err := h.orderService.PlaceOrder(c.Request.Context(), userID, items)
	if err != nil {
		h.respondError(c, err, "Failed to place order")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order, "items": newItemResponses(order.Items)})
}

func (h *APIHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "items": newItemResponses(order.Items)})
}

func (h *APIHandler) ListUserOrders(c *gin.Context) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	orders, err := h.orderService.ListUserOrders(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Failed to list orders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *APIHandler) GetItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	item, err := h.itemService.GetItem(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get order item")
		return
	}
	c.JSON(http.StatusOK, newItemResponse(item))
}

func (h *APIHandler) GetItemStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	status, err := h.itemService.CurrentStatus(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_item_id": id, "status": lifecycle.Meta(status)})
}

func (h *APIHandler) GetTimeline(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	steps, err := h.itemService.Timeline(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to build timeline")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_item_id": id, "timeline": steps})
}

func (h *APIHandler) GetPriceHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	revs, err := h.itemService.PriceHistory(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to list price history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_item_id": id, "revisions": revs})
}

func (h *APIHandler) ListUserItems(c *gin.Context) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	items, err := h.itemService.ListUserItems(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Failed to list order items")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": newItemResponses(items)})
}

func (h *APIHandler) ListItemsByStatus(c *gin.Context) {
	items, err := h.itemService.ListByStatus(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.respondError(c, err, "Failed to list order items")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": newItemResponses(items)})
}

func (h *APIHandler) ConfirmPrice(c *gin.Context) {
	h.answerPrice(c, h.itemService.ConfirmPrice)
}

func (h *APIHandler) DeclinePrice(c *gin.Context) {
	h.answerPrice(c, h.itemService.DeclinePrice)
}

func (h *APIHandler) answerPrice(c *gin.Context, answer func(ctx context.Context, id, userID uuid.UUID) (*models.OrderItem, error)) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.GetHeader(HeaderUserID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid " + HeaderUserID + " header"})
		return
	}
	item, err := answer(c.Request.Context(), id, userID)
	if err != nil {
		h.respondError(c, err, "Failed to update status")
		return
	}
	c.JSON(http.StatusOK, newItemResponse(item))
}

func (h *APIHandler) ListNotifications(c *gin.Context) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	notes, err := h.notificationService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "Failed to list notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notes})
}

func (h *APIHandler) MarkNotificationRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.GetHeader(HeaderUserID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid " + HeaderUserID + " header"})
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), id, userID); err != nil {
		h.respondError(c, err, "Failed to mark notification")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *APIHandler) AcceptItem(c *gin.Context) {
	h.transition(c, h.itemService.Accept)
}

func (h *APIHandler) AdvanceItem(c *gin.Context) {
	h.transition(c, h.itemService.Advance)
}

func (h *APIHandler) CompleteItem(c *gin.Context) {
	h.transition(c, h.itemService.Complete)
}

func (h *APIHandler) DeclineItem(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	// An empty body is a decline without a reason.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
			return
		}
	}
	h.transition(c, func(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
		return h.itemService.Decline(ctx, id, strings.TrimSpace(req.Reason))
	})
}

func (h *APIHandler) transition(c *gin.Context, apply func(ctx context.Context, id uuid.UUID) (*models.OrderItem, error)) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	item, err := apply(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to update status")
		return
	}
	c.JSON(http.StatusOK, newItemResponse(item))
}

type pricingRequest struct {
	FinalPrice    *decimal.Decimal `json:"final_price"`
	Status        string           `json:"status"`
	AdminNotes    *string          `json:"admin_notes"`
	DepositAmount *decimal.Decimal `json:"deposit_amount"`
}

func (h *APIHandler) UpdatePricing(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req pricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	res, err := h.itemService.UpdatePricing(c.Request.Context(), id, services.PricingUpdate{
		FinalPrice:    req.FinalPrice,
		Status:        req.Status,
		AdminNotes:    req.AdminNotes,
		DepositAmount: req.DepositAmount,
	})
	if err != nil {
		h.respondError(c, err, "Failed to update status")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"item":                        newItemResponse(res.Item),
		"price_confirmation_required": res.Forced,
		"estimated_price":             res.Estimate,
	})
}

func (h *APIHandler) RunReminders(c *gin.Context) {
	summary, err := h.reminders.RunOnceNow(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to run reminders")
		return
	}
	c.JSON(http.StatusOK, summary)
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + strings.ReplaceAll(param, "_", " ")})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service errors to HTTP codes. Unexpected errors are
// logged and answered with fallback.
func (h *APIHandler) respondError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNoTransition),
		errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrTerminalStatus),
		errors.Is(err, lifecycle.ErrAwaitingPriceConfirmation):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidPrice),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, lifecycle.ErrUnknownStatus),
		errors.Is(err, lifecycle.ErrUnknownServiceType):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		if fallback == "" {
			fallback = "Internal server error"
		}
		c.JSON(status, gin.H{"error": fallback})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
