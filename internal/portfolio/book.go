package portfolio

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"PortfolioSentinel/internal/model"
)

var (
	ErrUnknownTicker = errors.New("unknown ticker")
	ErrInvalidTicker = errors.New("ticker must not be empty")
)

// NormalizeTicker upper-cases and trims a ticker.
func NormalizeTicker(t string) string { return strings.ToUpper(strings.TrimSpace(t)) }

// Book holds tracked securities and positions with concurrency safety.
// Every mutation is persisted before it returns.
type Book struct {
	mu         sync.Mutex
	securities map[string]model.Security
	positions  map[string]model.Position
	cash       float64
	filePath   string
}

// NewBook loads the book from filePath, or starts an empty one.
func NewBook(filePath string) (*Book, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}
	b := &Book{
		securities: make(map[string]model.Security, len(state.Securities)),
		positions:  make(map[string]model.Position, len(state.Positions)),
		cash:       state.Cash,
		filePath:   filePath,
	}
	for _, s := range state.Securities {
		s.Ticker = NormalizeTicker(s.Ticker)
		if s.Ticker == "" {
			return nil, fmt.Errorf("load portfolio: %w", ErrInvalidTicker)
		}
		b.securities[s.Ticker] = s
	}
	for _, p := range state.Positions {
		p.Ticker = NormalizeTicker(p.Ticker)
		b.positions[p.Ticker] = p
	}
	return b, nil
}

// Tickers returns every tracked ticker in sorted order.
func (b *Book) Tickers() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.securities))
	for t := range b.securities {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Security returns a copy of one tracked security.
func (b *Book) Security(ticker string) (model.Security, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.securities[NormalizeTicker(ticker)]
	if !ok {
		return model.Security{}, false
	}
	return s.Clone(), true
}

// Securities returns copies of all tracked securities, sorted by ticker.
func (b *Book) Securities() []model.Security {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sortedSecurities()
}

// Position returns a copy of the position in ticker, or nil when none is held.
func (b *Book) Position(ticker string) *model.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[NormalizeTicker(ticker)]
	if !ok {
		return nil
	}
	return &p
}

// Positions returns copies of all positions, sorted by ticker.
func (b *Book) Positions() []model.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sortedPositions()
}

// Cash returns the uninvested cash balance.
func (b *Book) Cash() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cash
}

// TotalValue is the market value of all positions plus cash.
func (b *Book) TotalValue() decimal.Decimal {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := decimal.NewFromFloat(b.cash)
	for _, p := range b.positions {
		total = total.Add(p.MarketValue())
	}
	return total
}

// UpsertSecurity adds or replaces a tracked security.
func (b *Book) UpsertSecurity(sec model.Security) error {
	sec.Ticker = NormalizeTicker(sec.Ticker)
	if sec.Ticker == "" {
		return ErrInvalidTicker
	}
	if sec.AssetClass != "" && !sec.AssetClass.Valid() {
		return fmt.Errorf("%s: unknown asset class %q", sec.Ticker, sec.AssetClass)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.securities[sec.Ticker] = sec.Clone()
	return b.save()
}

// UpdateSecurity applies fn to the stored security under the lock.
func (b *Book) UpdateSecurity(ticker string, fn func(*model.Security)) error {
	ticker = NormalizeTicker(ticker)
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.securities[ticker]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTicker, ticker)
	}
	fn(&s)
	s.Ticker = ticker
	b.securities[ticker] = s
	return b.save()
}

// SetPosition records a holding. Zero shares removes the position.
func (b *Book) SetPosition(pos model.Position) error {
	pos.Ticker = NormalizeTicker(pos.Ticker)
	if pos.Ticker == "" {
		return ErrInvalidTicker
	}
	if pos.Shares < 0 || pos.AvgCost < 0 {
		return fmt.Errorf("%s: shares and average cost must not be negative", pos.Ticker)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if pos.Shares == 0 {
		delete(b.positions, pos.Ticker)
	} else {
		b.positions[pos.Ticker] = pos
	}
	return b.save()
}

// SetCash records the uninvested cash balance.
func (b *Book) SetCash(cash float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cash = cash
	return b.save()
}

// ApplyMarketData copies the non-nil fields of a snapshot onto the security
// and the position price. Missing fields keep their previous values.
func (b *Book) ApplyMarketData(snap *model.MarketSnapshot) error {
	ticker := NormalizeTicker(snap.Symbol)
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.securities[ticker]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTicker, ticker)
	}
	if snap.CurrentPrice != nil {
		s.CurrentPrice = model.Float(*snap.CurrentPrice)
		if p, held := b.positions[ticker]; held {
			p.CurrentPrice = *snap.CurrentPrice
			b.positions[ticker] = p
		}
	}
	if snap.CashOnHand != nil && snap.QuarterlyBurn != nil {
		s.CashOnHand = model.Float(*snap.CashOnHand)
		s.QuarterlyBurn = model.Float(*snap.QuarterlyBurn)
	}
	b.securities[ticker] = s
	return b.save()
}

// Snapshot returns a copy of the whole book.
func (b *Book) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return State{Securities: b.sortedSecurities(), Positions: b.sortedPositions(), Cash: b.cash}
}

func (b *Book) sortedSecurities() []model.Security {
	out := make([]model.Security, 0, len(b.securities))
	for _, s := range b.securities {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

func (b *Book) sortedPositions() []model.Position {
	out := make([]model.Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

func (b *Book) save() error {
	state := State{Securities: b.sortedSecurities(), Positions: b.sortedPositions(), Cash: b.cash}
	if err := SaveState(b.filePath, &state); err != nil {
		return fmt.Errorf("save portfolio: %w", err)
	}
	return nil
}
