package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/econicmedia/bot-sub001/pkg/errors"
)

// Trade is an immutable record of one fill.
type Trade struct {
	ID        string    `json:"id" yaml:"id" validate:"required"`
	OrderID   string    `json:"order_id" yaml:"order_id" validate:"required"`
	Symbol    string    `json:"symbol" yaml:"symbol" validate:"required"`
	Side      OrderSide `json:"side" yaml:"side" validate:"required,oneof=BUY SELL"`
	Quantity  float64   `json:"quantity" yaml:"quantity" validate:"gt=0"`
	Price     float64   `json:"price" yaml:"price" validate:"gt=0"`
	Fee       float64   `json:"fee" yaml:"fee" validate:"gte=0"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp" validate:"required"`
	// PnL is the profit realized by this trade when it reduced a position.
	// For example, holding 3 BTC at an average entry of 100 and selling 1 at
	// 110 realizes (110-100)*1 = 10. Trades that open or add realize 0.
	PnL float64 `json:"pnl" yaml:"pnl"`
}

// SignedQuantity is positive for buys and negative for sells.
func (t Trade) SignedQuantity() float64 {
	return t.Side.Sign() * t.Quantity
}

// Validate validates the Trade struct.
func (t *Trade) Validate() error {
	if !IsFinite(t.Quantity, t.Price, t.Fee) {
		return errors.Newf(errors.ErrCodeInvalidInput, "invalid trade %s: non-finite quantity, price or fee", t.ID)
	}

	validate := validator.New()
	if err := validate.Struct(t); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, "invalid trade", err)
	}

	return nil
}

// Position represents current holdings of an asset. Quantity is signed:
// positive for long, negative for short.
type Position struct {
	Symbol        string    `json:"symbol" yaml:"symbol"`
	Quantity      float64   `json:"quantity" yaml:"quantity"`
	AvgEntryPrice float64   `json:"avg_entry_price" yaml:"avg_entry_price"`
	RealizedPnL   float64   `json:"realized_pnl" yaml:"realized_pnl"`
	UnrealizedPnL float64   `json:"unrealized_pnl" yaml:"unrealized_pnl"`
	LastPrice     float64   `json:"last_price" yaml:"last_price"`
	OpenedAt      time.Time `json:"opened_at" yaml:"opened_at"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"updated_at"`
}

// IsLong reports whether the position is net long.
func (p Position) IsLong() bool {
	return p.Quantity > 0
}

// MarketValue is the signed value of the position at the last price.
func (p Position) MarketValue() float64 {
	return p.Quantity * p.LastPrice
}
