package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// SampleRecord is a persisted ratio observation. In volume mode PriceA and
// PriceB hold the effective execution prices and the slippage columns are
// populated; in simple mode they hold spot prices.
type SampleRecord struct {
	ID        int64
	Pair      string
	Mode      string
	SymbolA   string
	SymbolB   string
	PriceA    decimal.Decimal
	PriceB    decimal.Decimal
	Ratio     decimal.Decimal
	Volume    *decimal.Decimal
	SlippageA *decimal.Decimal
	SlippageB *decimal.Decimal
	Timestamp time.Time
	CreatedAt time.Time
}

// AlertRecord captures an emitted threshold alert for auditing.
type AlertRecord struct {
	ID           int64
	Pair         string
	Ratio        decimal.Decimal
	ChangePct    decimal.Decimal
	ThresholdPct decimal.Decimal
	Direction    string
	WindowSecs   int64
	Timestamp    time.Time
	CreatedAt    time.Time
}
