package routes

import (
	"net/http"
	"time"

	"studiobook/config"
	"studiobook/handlers"
	"studiobook/middleware"
	"studiobook/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterSlotDraftRoutes registers the organizer's slot editor endpoints.
func RegisterSlotDraftRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	h := hb.SlotDraftHandler
	drafts := api.Group("/slot-drafts")
	{
		drafts.POST("", h.CreateDraft)
		drafts.GET("/:draftID", h.GetDraft)
		drafts.DELETE("/:draftID", h.DiscardDraft)
		drafts.POST("/:draftID/slots", h.SaveSlot)
		drafts.DELETE("/:draftID/slots/:slotID", h.RemoveSlot)
		drafts.POST("/:draftID/slots/:slotID/edit", h.BeginEdit)
		drafts.DELETE("/:draftID/edit", h.CancelEdit)
		drafts.PUT("/:draftID/schedule", h.SetSchedule)
		drafts.POST("/:draftID/costume-image", h.UploadCostumeImage)
	}
}

// RegisterSessionRoutes registers photo session management and the booking entry points.
func RegisterSessionRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	sessions := api.Group("/sessions")
	{
		sessions.GET("", hb.SessionHandler.ListSessions)
		sessions.POST("", hb.SessionHandler.CreateSession)
		sessions.GET("/:sessionID", hb.SessionHandler.GetSession)
		sessions.GET("/:sessionID/quote", hb.SessionHandler.QuoteSession)
		sessions.PUT("/:sessionID", hb.SessionHandler.UpdateSession)
		sessions.POST("/:sessionID/draft", hb.SessionHandler.EditSession)
		sessions.POST("/:sessionID/publish", hb.SessionHandler.PublishSession)
		sessions.POST("/:sessionID/unpublish", hb.SessionHandler.UnpublishSession)

		sessions.POST("/:sessionID/bookings", hb.BookingHandler.BookSession)
		sessions.POST("/:sessionID/checkout", hb.PaymentHandler.Checkout)
		sessions.POST("/:sessionID/flows", hb.FlowHandler.StartFlow)
	}
}

// RegisterBookingRoutes registers participant booking endpoints.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.POST("/slots/:slotID/bookings", hb.BookingHandler.BookSlot)

	bookings := api.Group("/bookings")
	{
		bookings.GET("/:bookingID", hb.BookingHandler.GetBooking)
		bookings.DELETE("/:bookingID", hb.BookingHandler.CancelBooking)
	}

	flows := api.Group("/flows")
	{
		flows.GET("/:flowID", hb.FlowHandler.GetFlow)
		flows.POST("/:flowID/select", hb.FlowHandler.SelectSlot)
		flows.POST("/:flowID/back", hb.FlowHandler.Back)
		flows.POST("/:flowID/confirm", hb.FlowHandler.ConfirmFlow)
	}
}

// RegisterPaymentRoutes registers payment endpoints.
func RegisterPaymentRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	payments := api.Group("/payments")
	{
		payments.POST("/intents", hb.PaymentHandler.CreateIntent)
		payments.POST("/confirm", hb.PaymentHandler.ConfirmPayment)
		payments.GET("/fees", hb.PaymentHandler.Fees)
		payments.POST("/:paymentID/card", hb.PaymentHandler.ConfirmCard)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.Mongo || !status.Redis {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "message": "Hi, I'm studiobook"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", handlers.IdempotencyHeader, middleware.ViewportHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)

	// Signed by the processor, not the user.
	r.POST("/webhooks/stripe", hb.PaymentHandler.Webhook)

	api := r.Group("/api")
	api.Use(
		middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin, utils.GetLogger()),
		middleware.JWTAuthUserMiddleware(),
		middleware.ViewportMiddleware(),
	)
	RegisterSlotDraftRoutes(api, hb)
	RegisterSessionRoutes(api, hb)
	RegisterBookingRoutes(api, hb)
	RegisterPaymentRoutes(api, hb)
}
