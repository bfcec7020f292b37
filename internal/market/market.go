package market

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrDepthUnsupported is returned by sources that only serve spot quotes.
var ErrDepthUnsupported = errors.New("market: order book depth not supported by this source")

// Quote is a spot price observation for a single symbol.
type Quote struct {
	Symbol    string
	Price     decimal.Decimal
	Timestamp time.Time
}

// Level is one order book rung: price and the quantity resting at it.
type Level struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// OrderBook is a depth snapshot. Bids descend, asks ascend, best price first.
type OrderBook struct {
	Symbol    string
	Bids      []Level
	Asks      []Level
	UpdatedAt time.Time
}

// BestBid returns the top bid price, or zero when the side is empty.
func (b OrderBook) BestBid() decimal.Decimal {
	if len(b.Bids) == 0 {
		return decimal.Zero
	}
	return b.Bids[0].Price
}

// BestAsk returns the top ask price, or zero when the side is empty.
func (b OrderBook) BestAsk() decimal.Decimal {
	if len(b.Asks) == 0 {
		return decimal.Zero
	}
	return b.Asks[0].Price
}

// MidPrice returns (best bid + best ask) / 2.
func (b OrderBook) MidPrice() decimal.Decimal {
	return b.BestBid().Add(b.BestAsk()).Div(decimal.NewFromInt(2))
}

// PriceSource supplies spot quotes and depth snapshots for monitored symbols.
type PriceSource interface {
	Price(ctx context.Context, symbol string) (Quote, error)
	Depth(ctx context.Context, symbol string, limit int) (OrderBook, error)
}
