package handlers

// HandlerBundle groups all handlers for route registration.
type HandlerBundle struct {
	SlotDraftHandler *SlotDraftHandler
	SessionHandler   *SessionHandler
	BookingHandler   *BookingHandler
	FlowHandler      *FlowHandler
	PaymentHandler   *PaymentHandler
}
