package models

import (
	"sort"
	"sync"
	"time"

	"github.com/fieldelevate/risk-analyzer/pkg/utils/errors"
)

// DefaultSector is assigned to positions added without a sector label.
const DefaultSector = "unknown"

// Position is a single holding within a portfolio. Value, Weight and
// UnrealizedPnL are derived and recomputed by the owning portfolio on
// every mutation.
type Position struct {
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	AvgPrice      float64 `json:"avgPrice"`
	CurrentPrice  float64 `json:"currentPrice"`
	Value         float64 `json:"value"`
	Sector        string  `json:"sector"`
	Weight        float64 `json:"weight"`
	UnrealizedPnL float64 `json:"unrealizedPnL"`
	RealizedPnL   float64 `json:"realizedPnL"`
}

// PnL aggregates profit and loss across a portfolio.
type PnL struct {
	Unrealized float64 `json:"unrealized"`
	Realized   float64 `json:"realized"`
	Total      float64 `json:"total"`
}

// PortfolioSnapshot is the JSON projection of a portfolio, used for
// persistence and for the query surface.
type PortfolioSnapshot struct {
	Positions      []Position         `json:"positions"`
	Cash           float64            `json:"cash"`
	TotalValue     float64            `json:"totalValue"`
	SectorExposure map[string]float64 `json:"sectorExposure"`
	PnL            PnL                `json:"pnl"`
	LastUpdated    time.Time          `json:"lastUpdated"`
}

// Portfolio holds cash and a set of positions keyed by symbol. Every
// mutator recomputes total value, weights and the last-updated
// timestamp before returning, so readers never observe a partially
// consistent state. All methods are safe for concurrent use; writers
// are expected to follow a single-writer discipline (the monitoring
// loop or an explicit update request).
type Portfolio struct {
	mu          sync.RWMutex
	cash        float64
	positions   map[string]*Position
	order       []string
	totalValue  float64
	lastUpdated time.Time
}

// NewPortfolio creates an empty portfolio with the given cash balance.
func NewPortfolio(cash float64) *Portfolio {
	return &Portfolio{
		cash:       cash,
		positions:  make(map[string]*Position),
		totalValue: cash,
	}
}

// FromSnapshot rebuilds a portfolio from its JSON projection.
func FromSnapshot(snap *PortfolioSnapshot) *Portfolio {
	p := NewPortfolio(snap.Cash)
	for _, pos := range snap.Positions {
		if err := p.AddPosition(pos.Symbol, pos.Quantity, pos.AvgPrice, pos.Sector); err != nil {
			continue
		}
		if pos.CurrentPrice != pos.AvgPrice {
			p.UpdatePosition(pos.Symbol, pos.CurrentPrice)
		}
		p.mu.Lock()
		p.positions[pos.Symbol].RealizedPnL = pos.RealizedPnL
		p.mu.Unlock()
	}
	return p
}

// AddPosition opens a new position at the given cost basis. Returns an
// AlreadyExists error if the symbol is already tracked; augmenting an
// existing position is a distinct operation (IncreasePosition).
func (p *Portfolio) AddPosition(symbol string, quantity, price float64, sector string) error {
	if symbol == "" {
		return errors.InvalidArgument("symbol is required")
	}
	if sector == "" {
		sector = DefaultSector
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.positions[symbol]; exists {
		return errors.AlreadyExists("position already exists: " + symbol)
	}

	p.positions[symbol] = &Position{
		Symbol:       symbol,
		Quantity:     quantity,
		AvgPrice:     price,
		CurrentPrice: price,
		Value:        quantity * price,
		Sector:       sector,
	}
	p.order = append(p.order, symbol)
	p.recompute()
	return nil
}

// IncreasePosition adds quantity to an existing position, moving the
// cost basis to the quantity-weighted average price.
func (p *Portfolio) IncreasePosition(symbol string, quantity, price float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, exists := p.positions[symbol]
	if !exists {
		return errors.NotFound("position not found: " + symbol)
	}

	total := pos.Quantity + quantity
	if total != 0 {
		pos.AvgPrice = (pos.AvgPrice*pos.Quantity + price*quantity) / total
	}
	pos.Quantity = total
	pos.CurrentPrice = price
	pos.Value = pos.Quantity * pos.CurrentPrice
	pos.UnrealizedPnL = (pos.CurrentPrice - pos.AvgPrice) * pos.Quantity
	p.recompute()
	return nil
}

// ReducePosition closes part of a position, realizing PnL on the closed
// quantity at the current mark. Quantities exceeding the held amount
// are capped; the position is removed entirely when fully closed.
// Returns the quantity actually closed. A no-op for unknown symbols.
func (p *Portfolio) ReducePosition(symbol string, quantity float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, exists := p.positions[symbol]
	if !exists {
		return 0
	}

	closed := quantity
	if closed > pos.Quantity {
		closed = pos.Quantity
	}

	pos.RealizedPnL += (pos.CurrentPrice - pos.AvgPrice) * closed
	pos.Quantity -= closed
	if pos.Quantity <= 0 {
		p.removeLocked(symbol)
	} else {
		pos.Value = pos.Quantity * pos.CurrentPrice
		pos.UnrealizedPnL = (pos.CurrentPrice - pos.AvgPrice) * pos.Quantity
	}
	p.recompute()
	return closed
}

// UpdatePosition marks a position to the given price. A no-op (not an
// error) when the symbol is not tracked.
func (p *Portfolio) UpdatePosition(symbol string, currentPrice float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, exists := p.positions[symbol]
	if !exists {
		return
	}

	pos.CurrentPrice = currentPrice
	pos.Value = pos.Quantity * currentPrice
	pos.UnrealizedPnL = (currentPrice - pos.AvgPrice) * pos.Quantity
	p.recompute()
}

// RemovePosition drops a position. A no-op when the symbol is absent.
func (p *Portfolio) RemovePosition(symbol string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.positions[symbol]; !exists {
		return
	}
	p.removeLocked(symbol)
	p.recompute()
}

// Clear removes all positions and sets the cash balance, used when an
// explicit update replaces the whole portfolio.
func (p *Portfolio) Clear(cash float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.positions = make(map[string]*Position)
	p.order = p.order[:0]
	p.cash = cash
	p.recompute()
}

// Replace swaps the cash balance and the whole position set under a
// single write lock, so no reader or concurrent tick observes a
// partially rebuilt portfolio. Entries are validated up front; on error
// the portfolio is left untouched. Each entry opens at its cost basis,
// like AddPosition.
func (p *Portfolio) Replace(cash float64, positions []Position) error {
	seen := make(map[string]struct{}, len(positions))
	for _, pos := range positions {
		if pos.Symbol == "" {
			return errors.InvalidArgument("symbol is required")
		}
		if _, dup := seen[pos.Symbol]; dup {
			return errors.AlreadyExists("position already exists: " + pos.Symbol)
		}
		seen[pos.Symbol] = struct{}{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.cash = cash
	p.positions = make(map[string]*Position, len(positions))
	p.order = p.order[:0]
	for _, pos := range positions {
		sector := pos.Sector
		if sector == "" {
			sector = DefaultSector
		}
		p.positions[pos.Symbol] = &Position{
			Symbol:       pos.Symbol,
			Quantity:     pos.Quantity,
			AvgPrice:     pos.AvgPrice,
			CurrentPrice: pos.AvgPrice,
			Value:        pos.Quantity * pos.AvgPrice,
			Sector:       sector,
		}
		p.order = append(p.order, pos.Symbol)
	}
	p.recompute()
	return nil
}

// SetCash replaces the cash balance.
func (p *Portfolio) SetCash(cash float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cash = cash
	p.recompute()
}

func (p *Portfolio) removeLocked(symbol string) {
	delete(p.positions, symbol)
	for i, s := range p.order {
		if s == symbol {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

// recompute refreshes total value and per-position weights. Callers
// must hold the write lock.
func (p *Portfolio) recompute() {
	p.totalValue = p.cash
	for _, pos := range p.positions {
		p.totalValue += pos.Value
	}
	for _, pos := range p.positions {
		if p.totalValue > 0 {
			pos.Weight = pos.Value / p.totalValue
		} else {
			pos.Weight = 0
		}
	}
	p.lastUpdated = time.Now()
}

// Cash returns the cash balance.
func (p *Portfolio) Cash() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cash
}

// TotalValue returns cash plus the marked value of all positions.
func (p *Portfolio) TotalValue() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.totalValue
}

// LastUpdated returns the time of the last metrics recompute.
func (p *Portfolio) LastUpdated() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastUpdated
}

// PositionCount returns the number of open positions.
func (p *Portfolio) PositionCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.positions)
}

// GetPosition returns a copy of the position for a symbol.
func (p *Portfolio) GetPosition(symbol string) (Position, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	pos, exists := p.positions[symbol]
	if !exists {
		return Position{}, false
	}
	return *pos, true
}

// Positions returns a snapshot of all positions in insertion order.
func (p *Portfolio) Positions() []Position {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.positionsLocked()
}

func (p *Portfolio) positionsLocked() []Position {
	out := make([]Position, 0, len(p.order))
	for _, symbol := range p.order {
		out = append(out, *p.positions[symbol])
	}
	return out
}

// Symbols returns all tracked symbols in insertion order.
func (p *Portfolio) Symbols() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// LargestPositions returns up to n positions sorted descending by
// marked value.
func (p *Portfolio) LargestPositions(n int) []Position {
	positions := p.Positions()
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Value > positions[j].Value
	})
	if n > 0 && n < len(positions) {
		positions = positions[:n]
	}
	return positions
}

// SectorExposure returns the summed position weight per sector.
func (p *Portfolio) SectorExposure() map[string]float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sectorExposureLocked()
}

func (p *Portfolio) sectorExposureLocked() map[string]float64 {
	exposure := make(map[string]float64)
	for _, pos := range p.positions {
		exposure[pos.Sector] += pos.Weight
	}
	return exposure
}

// TotalPnL sums unrealized and realized PnL across all positions.
func (p *Portfolio) TotalPnL() PnL {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.totalPnLLocked()
}

func (p *Portfolio) totalPnLLocked() PnL {
	var pnl PnL
	for _, pos := range p.positions {
		pnl.Unrealized += pos.UnrealizedPnL
		pnl.Realized += pos.RealizedPnL
	}
	pnl.Total = pnl.Unrealized + pnl.Realized
	return pnl
}

// Clone returns an independent deep copy. Mutating the clone never
// affects the original, so speculative trade checks can run against it
// concurrently with the monitoring loop.
func (p *Portfolio) Clone() *Portfolio {
	p.mu.RLock()
	defer p.mu.RUnlock()

	clone := &Portfolio{
		cash:        p.cash,
		positions:   make(map[string]*Position, len(p.positions)),
		order:       make([]string, len(p.order)),
		totalValue:  p.totalValue,
		lastUpdated: p.lastUpdated,
	}
	copy(clone.order, p.order)
	for symbol, pos := range p.positions {
		cp := *pos
		clone.positions[symbol] = &cp
	}
	return clone
}

// Snapshot returns the serializable projection of the portfolio.
func (p *Portfolio) Snapshot() *PortfolioSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return &PortfolioSnapshot{
		Positions:      p.positionsLocked(),
		Cash:           p.cash,
		TotalValue:     p.totalValue,
		SectorExposure: p.sectorExposureLocked(),
		PnL:            p.totalPnLLocked(),
		LastUpdated:    p.lastUpdated,
	}
}
