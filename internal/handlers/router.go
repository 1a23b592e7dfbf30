package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires every HTTP route. wa may be nil when the WhatsApp
// gateway is not configured.
func NewRouter(api *APIHandler, wa *WhatsAppHandler, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(log), gin.Recovery())

	r.GET("/healthz", api.Health)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/statuses", api.ListStatuses)
		apiGroup.POST("/estimate", api.EstimatePrice)

		apiGroup.POST("/users", api.RegisterUser)
		apiGroup.GET("/users/:user_id/orders", api.ListUserOrders)
		apiGroup.GET("/users/:user_id/order-items", api.ListUserItems)
		apiGroup.GET("/users/:user_id/notifications", api.ListNotifications)

		apiGroup.POST("/orders", api.PlaceOrder)
		apiGroup.GET("/orders/:id", api.GetOrder)

		apiGroup.GET("/order-items/:id", api.GetItem)
		apiGroup.GET("/order-items/:id/status", api.GetItemStatus)
		apiGroup.GET("/order-items/:id/timeline", api.GetTimeline)
		apiGroup.GET("/order-items/:id/price-history", api.GetPriceHistory)
		apiGroup.POST("/order-items/:id/price/confirm", api.ConfirmPrice)
		apiGroup.POST("/order-items/:id/price/decline", api.DeclinePrice)

		apiGroup.POST("/notifications/:id/read", api.MarkNotificationRead)

		if wa != nil {
			apiGroup.POST("/whatsapp/webhook", wa.HandleWebhook)
		}
	}

	admin := r.Group("/api/admin")
	{
		admin.GET("/order-items", api.ListItemsByStatus)
		admin.POST("/order-items/:id/accept", api.AcceptItem)
		admin.POST("/order-items/:id/decline", api.DeclineItem)
		admin.POST("/order-items/:id/advance", api.AdvanceItem)
		admin.POST("/order-items/:id/complete", api.CompleteItem)
		admin.PUT("/order-items/:id/pricing", api.UpdatePricing)
		admin.POST("/reminders/run", api.RunReminders)
	}

	return r
}

// RequestLogger logs one line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Error("request", fields...)
		case c.Writer.Status() >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
