package payment

import "errors"

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrInvalidState    = errors.New("payment cannot take this step in its current state")
	ErrNotSucceeded    = errors.New("payment has not completed with the processor")
	ErrInvalidAmount   = errors.New("payment amount must be positive")
	ErrAmountMismatch  = errors.New("payment amount does not match the booking")
	ErrWebhook         = errors.New("invalid webhook payload")
)

// ProcessorError carries the processor's own explanation of a declined or failed call.
// Its message is shown to the payer as is.
type ProcessorError struct {
	Message string
	Code    string
}

func (e *ProcessorError) Error() string {
	return e.Message
}
