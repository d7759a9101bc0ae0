package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"

	"github.com/econicmedia/bot-sub001/pkg/errors"
)

type OrderSide string

type OrderKind string

type OrderStatus string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Sign returns +1 for buys and -1 for sells.
func (s OrderSide) Sign() float64 {
	if s == OrderSideSell {
		return -1
	}

	return 1
}

// Opposite returns the other side.
func (s OrderSide) Opposite() OrderSide {
	if s == OrderSideBuy {
		return OrderSideSell
	}

	return OrderSideBuy
}

const (
	OrderKindMarket OrderKind = "MARKET"
	OrderKindLimit  OrderKind = "LIMIT"
	OrderKindStop   OrderKind = "STOP"
)

// RequiresPrice reports whether orders of this kind must carry a price.
func (k OrderKind) RequiresPrice() bool {
	switch k {
	case OrderKindLimit, OrderKindStop:
		return true
	case OrderKindMarket:
		return false
	default:
		return false
	}
}

const (
	OrderStatusCreated         OrderStatus = "CREATED"
	OrderStatusSubmitted       OrderStatus = "SUBMITTED"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusRejected, OrderStatusCancelled:
		return true
	case OrderStatusCreated, OrderStatusSubmitted, OrderStatusPartiallyFilled:
		return false
	default:
		return false
	}
}

// IsValid reports whether s is one of the known statuses.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusCreated, OrderStatusSubmitted, OrderStatusPartiallyFilled,
		OrderStatusFilled, OrderStatusRejected, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the order state machine allows from -> to.
//
//	Created -> Submitted | Rejected | Cancelled
//	Submitted -> PartiallyFilled | Filled | Rejected | Cancelled
//	PartiallyFilled -> Submitted | PartiallyFilled | Filled | Cancelled
func CanTransition(from, to OrderStatus) bool {
	switch from {
	case OrderStatusCreated:
		return to == OrderStatusSubmitted || to == OrderStatusRejected || to == OrderStatusCancelled
	case OrderStatusSubmitted:
		return to == OrderStatusPartiallyFilled || to == OrderStatusFilled ||
			to == OrderStatusRejected || to == OrderStatusCancelled
	case OrderStatusPartiallyFilled:
		return to == OrderStatusSubmitted || to == OrderStatusPartiallyFilled ||
			to == OrderStatusFilled || to == OrderStatusCancelled
	case OrderStatusFilled, OrderStatusRejected, OrderStatusCancelled:
		return false
	default:
		return false
	}
}

const (
	OrderReasonStrategy            string = "strategy"
	OrderReasonDuplicateSubmission string = "duplicate_submission"
	OrderReasonExchangeUnavailable string = "exchange_unavailable"
	OrderReasonExchangeRejected    string = "exchange_rejected"
	OrderReasonExchangeAuth        string = "exchange_auth"
	OrderReasonCancelled           string = "cancelled"
	OrderReasonReconciled          string = "reconciled"
)

type Reason struct {
	Reason  string `yaml:"reason" json:"reason"`
	Message string `yaml:"message" json:"message"`
}

// OrderIntent is the request to create an order.
type OrderIntent struct {
	Symbol   string                  `yaml:"symbol" json:"symbol" validate:"required"`
	Side     OrderSide               `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Kind     OrderKind               `yaml:"kind" json:"kind" validate:"required,oneof=MARKET LIMIT STOP"`
	Quantity float64                 `yaml:"quantity" json:"quantity" validate:"gt=0"`
	Price    optional.Option[float64] `yaml:"price" json:"price"`
	// SignalTimestamp is the timestamp of the originating signal. Part of the
	// submission fingerprint.
	SignalTimestamp time.Time `yaml:"signal_timestamp" json:"signal_timestamp"`
	Reason          Reason    `yaml:"reason" json:"reason"`
}

// Validate validates the OrderIntent struct.
func (oi *OrderIntent) Validate() error {
	validate := validator.New()
	if err := validate.Struct(oi); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrderIntent, "invalid order intent", err)
	}

	if oi.Kind.RequiresPrice() {
		price, err := oi.Price.Take()
		if err != nil {
			return errors.Newf(errors.ErrCodeInvalidOrderIntent, "%s order requires a price", oi.Kind)
		}

		if price <= 0 {
			return errors.Newf(errors.ErrCodeInvalidOrderIntent, "%s order price must be positive, got %v", oi.Kind, price)
		}
	}

	if price, err := oi.Price.Take(); err == nil && (price <= 0 || !IsFinite(price)) {
		return errors.Newf(errors.ErrCodeInvalidOrderIntent, "order price must be positive, got %v", price)
	}

	if !IsFinite(oi.Quantity) {
		return errors.Newf(errors.ErrCodeInvalidOrderIntent, "order quantity must be finite, got %v", oi.Quantity)
	}

	return nil
}

type Order struct {
	ID       string                   `yaml:"id" json:"id"`
	Symbol   string                   `yaml:"symbol" json:"symbol"`
	Side     OrderSide                `yaml:"side" json:"side"`
	Kind     OrderKind                `yaml:"kind" json:"kind"`
	Quantity float64                  `yaml:"quantity" json:"quantity"`
	Price    optional.Option[float64] `yaml:"price" json:"price"`
	Status   OrderStatus              `yaml:"status" json:"status"`
	// StatusHistory lists every status the order has been in, oldest first.
	StatusHistory []OrderStatus `yaml:"status_history" json:"status_history"`
	CreatedAt     time.Time     `yaml:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `yaml:"updated_at" json:"updated_at"`
	// ExchangeOrderID is set once the gateway accepted the order.
	ExchangeOrderID string    `yaml:"exchange_order_id" json:"exchange_order_id"`
	FilledQuantity  float64   `yaml:"filled_quantity" json:"filled_quantity"`
	AvgFillPrice    float64   `yaml:"avg_fill_price" json:"avg_fill_price"`
	SignalTimestamp time.Time `yaml:"signal_timestamp" json:"signal_timestamp"`
	// Reason carries why the order was created, rejected or cancelled.
	Reason Reason `yaml:"reason" json:"reason"`
}

// RemainingQuantity is the quantity not yet filled.
func (o Order) RemainingQuantity() float64 {
	return o.Quantity - o.FilledQuantity
}

// Clone returns a copy that shares no slices with o.
func (o Order) Clone() Order {
	c := o
	c.StatusHistory = append([]OrderStatus(nil), o.StatusHistory...)

	return c
}

// FillEvent is an exchange report that part of an order executed.
// Sequence starts at 1 for each order and increases by one per fill.
type FillEvent struct {
	OrderID         string    `json:"order_id"`
	ExchangeOrderID string    `json:"exchange_order_id"`
	Symbol          string    `json:"symbol"`
	Sequence        int64     `json:"sequence"`
	Quantity        float64   `json:"quantity"`
	Price           float64   `json:"price"`
	Fee             float64   `json:"fee"`
	Timestamp       time.Time `json:"timestamp"`
}
