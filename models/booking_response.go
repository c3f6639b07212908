package models

// SlotBookingResult is returned by createSlotBooking.
type SlotBookingResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// BookingResult is returned by createPhotoSessionBooking.
type BookingResult struct {
	Success   bool   `json:"success"`
	BookingID string `json:"bookingId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// PaymentIntentResult is returned by createPaymentIntent.
type PaymentIntentResult struct {
	Success         bool   `json:"success"`
	ClientSecret    string `json:"client_secret,omitempty"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	Error           string `json:"error,omitempty"`
}

// ConfirmPaymentResult is returned by confirmPayment.
type ConfirmPaymentResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// CheckoutResult carries what the card form needs after booking and intent creation.
type CheckoutResult struct {
	BookingID       string       `json:"bookingId"`
	PaymentID       string       `json:"paymentId"`
	ClientSecret    string       `json:"client_secret"`
	PaymentIntentID string       `json:"payment_intent_id"`
	Fees            FeeBreakdown `json:"fees"`
}
