package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"studiobook/models"
	"studiobook/services/payment"
	"studiobook/services/pricing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBody bounds what we read from the processor.
const maxWebhookBody = 64 << 10

// PaymentService is the part of the payment orchestrator the HTTP layer drives.
type PaymentService interface {
	Checkout(ctx context.Context, req payment.CheckoutRequest) (*models.CheckoutResult, error)
	CreatePaymentIntent(ctx context.Context, userID string, params models.PaymentIntentParams) (*models.PaymentIntentResult, error)
	ConfirmCard(ctx context.Context, paymentID, userID, paymentMethodID string, billing models.BillingDetails) (*payment.CardResult, error)
	ConfirmPayment(ctx context.Context, userID, intentID string) error
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type PaymentHandler struct {
	Payments PaymentService
	Logger   *zap.Logger
}

func NewPaymentHandler(payments PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{Payments: payments, Logger: logger}
}

type checkoutRequest struct {
	SlotID string `json:"slot_id"`
}

type confirmCardRequest struct {
	PaymentMethodID string                `json:"payment_method_id" binding:"required"`
	Billing         models.BillingDetails `json:"billing_details" binding:"required"`
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
}

// Checkout books the session and opens its payment in one call.
func (h *PaymentHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid checkout request", "details": err.Error()})
			return
		}
	}

	result, err := h.Payments.Checkout(c.Request.Context(), payment.CheckoutRequest{
		SessionID:      c.Param("sessionID"),
		SlotID:         req.SlotID,
		UserID:         userID(c),
		IdempotencyKey: c.GetHeader(IdempotencyHeader),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var params models.PaymentIntentParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, models.PaymentIntentResult{Success: false, Error: "amount must be a positive integer"})
		return
	}

	result, err := h.Payments.CreatePaymentIntent(c.Request.Context(), userID(c), params)
	if err != nil {
		status, msg := classify(err)
		c.JSON(status, models.PaymentIntentResult{Success: false, Error: msg})
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ConfirmCard submits the card for a payment. A 200 with requires_action asks the
// client to complete authentication before calling ConfirmPayment.
func (h *PaymentHandler) ConfirmCard(c *gin.Context) {
	var req confirmCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid card details", "details": err.Error()})
		return
	}

	result, err := h.Payments.ConfirmCard(c.Request.Context(), c.Param("paymentID"), userID(c), req.PaymentMethodID, req.Billing)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ConfirmPayment accepts either the intent id or the client secret the client holds.
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ConfirmPaymentResult{Success: false, Error: "Invalid request body"})
		return
	}

	intentID := req.PaymentIntentID
	if intentID == "" {
		id, ok := payment.IntentIDFromSecret(req.ClientSecret)
		if !ok {
			c.JSON(http.StatusBadRequest, models.ConfirmPaymentResult{Success: false, Error: "payment_intent_id or client_secret is required"})
			return
		}
		intentID = id
	}

	if err := h.Payments.ConfirmPayment(c.Request.Context(), userID(c), intentID); err != nil {
		status, msg := classify(err)
		c.JSON(status, models.ConfirmPaymentResult{Success: false, Error: msg})
		return
	}
	c.JSON(http.StatusOK, models.ConfirmPaymentResult{Success: true})
}

// Fees previews the fee split for ?amount=.
func (h *PaymentHandler) Fees(c *gin.Context) {
	amount, err := strconv.ParseInt(c.Query("amount"), 10, 64)
	if err != nil || amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a non-negative integer"})
		return
	}
	c.JSON(http.StatusOK, pricing.Fees(amount))
}

// Webhook receives processor events. It is mounted outside the authenticated group.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read body"})
		return
	}

	if err := h.Payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		status, msg := classify(err)
		h.Logger.Warn("webhook rejected", zap.Int("status", status), zap.Error(err))
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
