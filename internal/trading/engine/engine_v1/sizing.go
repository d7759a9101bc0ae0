package engine_v1

import (
	"math"

	"github.com/econicmedia/bot-sub001/internal/trading/engine"
	"github.com/econicmedia/bot-sub001/internal/types"
	"github.com/econicmedia/bot-sub001/internal/utils"
)

// quantityPrecision is the number of decimals order quantities are rounded down to.
const quantityPrecision = 8

// sizeSignal returns the order quantity for signal given the current
// position and account, or 0 when the signal must be skipped.
//
// A signal against the position closes it; with AllowShort a sell signal
// also opens the sized short. A signal with the position adds up to the
// MaxPositionSize cap.
//
// Reversal is one-sided: a buy against a short only covers it and never
// opens a long in the same order. The next buy signal, sized against a flat
// position and the cash check, opens the long.
func sizeSignal(risk engine.RiskConfig, signal types.Signal, position types.Position, account types.AccountInfo) float64 {
	price := signal.Price
	if price <= 0 || account.Equity <= 0 {
		return 0
	}

	capQuantity := utils.CalculateOrderQuantityByPercentage(account.Equity, price, 0, risk.MaxPositionSize)
	sized := math.Min(utils.CalculateOrderQuantityByPercentage(account.Equity, price, 0, risk.RiskPerTrade*signal.Confidence), capQuantity)

	held := position.Quantity
	direction := signal.Side.Sign()

	var quantity float64

	switch {
	case held*direction < 0:
		// Opposite side: close, and reverse into a short only when allowed.
		quantity = math.Abs(held)
		if signal.Side == types.OrderSideSell && risk.AllowShort {
			quantity += sized
		}
	case signal.Side == types.OrderSideSell && held == 0 && !risk.AllowShort:
		return 0
	default:
		headroom := capQuantity - math.Abs(held)
		quantity = math.Min(sized, headroom)
	}

	if signal.Side == types.OrderSideBuy && held >= 0 {
		quantity = math.Min(quantity, utils.CalculateMaxQuantity(account.Cash, price, 0))
	}

	quantity = utils.RoundToDecimalPrecision(quantity, quantityPrecision)
	if quantity <= 0 {
		return 0
	}

	return quantity
}
