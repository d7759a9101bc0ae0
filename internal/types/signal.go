package types

import "time"

// Signal is a trade proposal produced by a strategy. The order manager
// consumes each signal at most once.
type Signal struct {
	ID         string                `json:"id"`
	Symbol     string                `json:"symbol"`
	Side       OrderSide             `json:"side"`
	Confidence float64               `json:"confidence"`
	Structure  MarketStructureResult `json:"structure"`
	// Timestamp is the close time of the candle that produced the signal.
	Timestamp time.Time `json:"timestamp"`
	// Price is the reference price (last close) at signal time.
	Price  float64 `json:"price"`
	Reason string  `json:"reason"`
}
