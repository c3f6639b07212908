package handlers

import (
	"net/http"

	"studiobook/models"
	"studiobook/services/booking"

	"github.com/gin-gonic/gin"
)

// IdempotencyHeader carries the client's retry key for booking requests.
const IdempotencyHeader = "Idempotency-Key"

const slotBookedMessage = "予約が完了しました"

type BookingHandler struct {
	Bookings booking.BookingService
}

func NewBookingHandler(bookings booking.BookingService) *BookingHandler {
	return &BookingHandler{Bookings: bookings}
}

type sessionBookingRequest struct {
	SlotID string `json:"slot_id"`
}

// BookSlot reserves one seat in a slot and answers with SlotBookingResult.
func (h *BookingHandler) BookSlot(c *gin.Context) {
	_, err := h.Bookings.CreateSlotBooking(c.Request.Context(), c.Param("slotID"), userID(c), c.GetHeader(IdempotencyHeader))
	if err != nil {
		status, _ := classify(err)
		c.JSON(status, models.SlotBookingResult{Success: false, Message: booking.Message(err)})
		return
	}
	c.JSON(http.StatusCreated, models.SlotBookingResult{Success: true, Message: slotBookedMessage})
}

// BookSession books a session, or one of its slots when slot_id is given.
func (h *BookingHandler) BookSession(c *gin.Context) {
	var req sessionBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.BookingResult{Success: false, Error: "Invalid booking request"})
			return
		}
	}

	b, err := h.Bookings.CreatePhotoSessionBooking(c.Request.Context(), booking.BookingRequest{
		SessionID:      c.Param("sessionID"),
		SlotID:         req.SlotID,
		UserID:         userID(c),
		IdempotencyKey: c.GetHeader(IdempotencyHeader),
	})
	if err != nil {
		status, _ := classify(err)
		c.JSON(status, models.BookingResult{Success: false, Error: booking.Message(err)})
		return
	}
	c.JSON(http.StatusCreated, models.BookingResult{Success: true, BookingID: b.ID})
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.Bookings.GetBooking(c.Request.Context(), c.Param("bookingID"), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	if err := h.Bookings.CancelBooking(c.Request.Context(), c.Param("bookingID"), userID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
