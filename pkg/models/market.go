package models

import "time"

// Bar is a single OHLCV price bar. Bar series are ordered
// chronological-descending: index 0 is the most recent bar.
type Bar struct {
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// MarketData is the price history returned by the data hub for a single
// symbol. MarketBars carries the benchmark index series when the hub
// provides one; beta is not computable without it.
type MarketData struct {
	Symbol     string `json:"symbol"`
	Bars       []Bar  `json:"bars"`
	MarketBars []Bar  `json:"marketBars,omitempty"`
}

// LatestClose returns the most recent close price and whether any bars
// are present.
func (m *MarketData) LatestClose() (float64, bool) {
	if m == nil || len(m.Bars) == 0 {
		return 0, false
	}
	return m.Bars[0].Close, true
}
