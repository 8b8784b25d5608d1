package models

import "github.com/fieldelevate/risk-analyzer/pkg/utils/errors"

// TradeAction discriminates the trade variants.
type TradeAction string

const (
	TradeActionBuy  TradeAction = "BUY"
	TradeActionSell TradeAction = "SELL"
)

// Trade is a proposed trade submitted for risk evaluation. BUY opens or
// augments a position and requires a price and sector; SELL reduces or
// closes one and ignores both.
type Trade struct {
	Action   TradeAction `json:"action" binding:"required"`
	Symbol   string      `json:"symbol" binding:"required"`
	Quantity float64     `json:"quantity" binding:"required"`
	Price    float64     `json:"price,omitempty"`
	Sector   string      `json:"sector,omitempty"`
}

// Validate checks the trade at the boundary, before it reaches the risk
// monitor.
func (t *Trade) Validate() error {
	if t.Symbol == "" {
		return errors.InvalidArgument("trade symbol is required")
	}
	if t.Quantity <= 0 {
		return errors.InvalidArgument("trade quantity must be positive")
	}
	switch t.Action {
	case TradeActionBuy:
		if t.Price <= 0 {
			return errors.InvalidArgument("buy trades require a positive price")
		}
	case TradeActionSell:
		// Sells execute at the current mark; no price needed.
	default:
		return errors.InvalidArgument("trade action must be BUY or SELL")
	}
	return nil
}
