package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTradeValidate(t *testing.T) {
	tests := []struct {
		name    string
		trade   Trade
		wantErr bool
	}{
		{
			name:  "valid buy",
			trade: Trade{Action: TradeActionBuy, Symbol: "AAPL", Quantity: 100, Price: 150},
		},
		{
			name:  "valid sell without price",
			trade: Trade{Action: TradeActionSell, Symbol: "AAPL", Quantity: 100},
		},
		{
			name:    "missing symbol",
			trade:   Trade{Action: TradeActionBuy, Quantity: 100, Price: 150},
			wantErr: true,
		},
		{
			name:    "zero quantity",
			trade:   Trade{Action: TradeActionBuy, Symbol: "AAPL", Price: 150},
			wantErr: true,
		},
		{
			name:    "negative quantity",
			trade:   Trade{Action: TradeActionSell, Symbol: "AAPL", Quantity: -10},
			wantErr: true,
		},
		{
			name:    "buy without price",
			trade:   Trade{Action: TradeActionBuy, Symbol: "AAPL", Quantity: 100},
			wantErr: true,
		},
		{
			name:    "unknown action",
			trade:   Trade{Action: "HOLD", Symbol: "AAPL", Quantity: 100, Price: 150},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trade.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
