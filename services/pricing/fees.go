package pricing

import (
	"github.com/shopspring/decimal"

	"studiobook/models"
)

var (
	platformFeeRate  = decimal.RequireFromString("0.10")
	processorFeeRate = decimal.RequireFromString("0.036")
)

// Fees breaks an amount down for display. Nothing is subtracted from the charge.
func Fees(amount int64) models.FeeBreakdown {
	a := decimal.NewFromInt(amount)
	return models.FeeBreakdown{
		Amount:       amount,
		PlatformFee:  a.Mul(platformFeeRate).Round(0).IntPart(),
		ProcessorFee: a.Mul(processorFeeRate).Round(0).IntPart(),
	}
}
