package handlers

import (
	"errors"
	"net/http"

	"studiobook/middleware"
	"studiobook/services/booking"
	"studiobook/services/payment"
	"studiobook/services/pricing"
	"studiobook/services/session"
	"studiobook/services/slot"
	"studiobook/services/storage"
	"studiobook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{slot.ErrDraftNotFound, http.StatusNotFound},
	{slot.ErrSlotNotFound, http.StatusNotFound},
	{session.ErrNotFound, http.StatusNotFound},
	{session.ErrSlotNotInSession, http.StatusNotFound},
	{booking.ErrSessionNotFound, http.StatusNotFound},
	{booking.ErrSlotNotFound, http.StatusNotFound},
	{booking.ErrBookingNotFound, http.StatusNotFound},
	{booking.ErrFlowNotFound, http.StatusNotFound},
	{payment.ErrPaymentNotFound, http.StatusNotFound},

	{session.ErrNotOrganizer, http.StatusForbidden},
	{booking.ErrNotPublished, http.StatusForbidden},
	{booking.ErrLotteryBooking, http.StatusForbidden},

	{booking.ErrSlotFull, http.StatusConflict},
	{booking.ErrAlreadyBooked, http.StatusConflict},
	{booking.ErrSlotNotSelectable, http.StatusConflict},
	{booking.ErrBookingInProgress, http.StatusConflict},
	{booking.ErrFlowStep, http.StatusConflict},
	{slot.ErrSlotHasBookings, http.StatusConflict},
	{session.ErrSlotHasBookings, http.StatusConflict},
	{session.ErrDraftMismatch, http.StatusConflict},
	{payment.ErrInvalidState, http.StatusConflict},
	{payment.ErrNotSucceeded, http.StatusConflict},

	{booking.ErrSlotRequired, http.StatusUnprocessableEntity},
	{booking.ErrUnsupportedBookingType, http.StatusUnprocessableEntity},
	{slot.ErrDuplicateSlotNumber, http.StatusUnprocessableEntity},
	{slot.ErrInvalidTimeRange, http.StatusUnprocessableEntity},
	{slot.ErrInvalidCapacity, http.StatusUnprocessableEntity},
	{slot.ErrInvalidPrice, http.StatusUnprocessableEntity},
	{slot.ErrInvalidDiscount, http.StatusUnprocessableEntity},
	{slot.ErrInvalidSlotNumber, http.StatusUnprocessableEntity},
	{slot.ErrInvalidBreak, http.StatusUnprocessableEntity},
	{pricing.ErrInvalidDiscountType, http.StatusUnprocessableEntity},
	{session.ErrInvalidBookingType, http.StatusUnprocessableEntity},
	{session.ErrInvalidSchedule, http.StatusUnprocessableEntity},
	{session.ErrInvalidCapacity, http.StatusUnprocessableEntity},
	{session.ErrInvalidPrice, http.StatusUnprocessableEntity},
	{session.ErrInvalidTier, http.StatusUnprocessableEntity},
	{session.ErrNoSlotsSelected, http.StatusUnprocessableEntity},
	{payment.ErrInvalidAmount, http.StatusUnprocessableEntity},
	{payment.ErrAmountMismatch, http.StatusUnprocessableEntity},

	{storage.ErrUnsupportedImage, http.StatusUnsupportedMediaType},
	{slot.ErrImageUpload, http.StatusBadGateway},
	{payment.ErrWebhook, http.StatusBadRequest},
}

// classify maps a service error to an HTTP status and the message the client shows.
// Unrecognized errors become a 500 without internal detail.
func classify(err error) (int, string) {
	var procErr *payment.ProcessorError
	if errors.As(err, &procErr) {
		return http.StatusPaymentRequired, procErr.Message
	}
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			if msg := booking.Message(err); msg != booking.FallbackMessage {
				return e.status, msg
			}
			return e.status, e.err.Error()
		}
	}
	return http.StatusInternalServerError, "Internal Server Error"
}

// respondError writes err in the standard error shape, naming the form field for
// validation failures.
func respondError(c *gin.Context, err error) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		utils.GetLogger().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}

	var fieldErr *slot.FieldError
	if errors.As(err, &fieldErr) {
		utils.JSONFieldError(c, fieldErr.Field, msg)
		return
	}
	utils.JSONError(c, status, msg, "")
}

func userID(c *gin.Context) string {
	return middleware.UserID(c)
}
