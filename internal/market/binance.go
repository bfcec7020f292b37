package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	tickerPricePath = "/ticker/price"
	depthPath       = "/depth"

	defaultDepthLimit = 100
)

// BinanceOptions parameterise the Binance REST source.
type BinanceOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Binance fetches quotes and depth snapshots from the Binance spot API.
type Binance struct {
	opts    BinanceOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewBinance constructs a Binance market data source.
func NewBinance(opts BinanceOptions, logger zerolog.Logger) *Binance {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.binance.com/api/v3"
	}

	return &Binance{
		opts:    opts,
		logger:  logger.With().Str("component", "binance_source").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Price retrieves the current spot price for a symbol.
func (b *Binance) Price(ctx context.Context, symbol string) (Quote, error) {
	endpoint := fmt.Sprintf("%s%s?symbol=%s", b.baseURL, tickerPricePath, url.QueryEscape(symbol))

	payload, err := b.getJSON(ctx, endpoint)
	if err != nil {
		return Quote{}, fmt.Errorf("fetch price for %s: %w", symbol, err)
	}

	var ticker tickerResponse
	if err := json.Unmarshal(payload, &ticker); err != nil {
		return Quote{}, fmt.Errorf("parse price response for %s: %w", symbol, err)
	}

	price, err := decimal.NewFromString(ticker.Price)
	if err != nil {
		return Quote{}, fmt.Errorf("parse price value %q: %w", ticker.Price, err)
	}

	return Quote{Symbol: ticker.Symbol, Price: price, Timestamp: time.Now().UTC()}, nil
}

// Depth retrieves an order book snapshot for a symbol. Binance caps the
// level count server-side; limit <= 0 requests the default of 100 levels.
func (b *Binance) Depth(ctx context.Context, symbol string, limit int) (OrderBook, error) {
	if limit <= 0 {
		limit = defaultDepthLimit
	}
	endpoint := fmt.Sprintf("%s%s?symbol=%s&limit=%d", b.baseURL, depthPath, url.QueryEscape(symbol), limit)

	payload, err := b.getJSON(ctx, endpoint)
	if err != nil {
		return OrderBook{}, fmt.Errorf("fetch order book for %s: %w", symbol, err)
	}

	var book depthResponse
	if err := json.Unmarshal(payload, &book); err != nil {
		return OrderBook{}, fmt.Errorf("parse order book response for %s: %w", symbol, err)
	}

	bids, err := parseLevels(book.Bids)
	if err != nil {
		return OrderBook{}, fmt.Errorf("parse bids for %s: %w", symbol, err)
	}
	asks, err := parseLevels(book.Asks)
	if err != nil {
		return OrderBook{}, fmt.Errorf("parse asks for %s: %w", symbol, err)
	}

	return OrderBook{Symbol: symbol, Bids: bids, Asks: asks, UpdatedAt: time.Now().UTC()}, nil
}

func (b *Binance) getJSON(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(b.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "ratiowatcher/1.0")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, payload)
	}
	return payload, nil
}

type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type depthResponse struct {
	LastUpdateID uint64     `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

type apiErrorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func parseLevels(raw [][]string) ([]Level, error) {
	levels := make([]Level, 0, len(raw))
	for _, entry := range raw {
		if len(entry) < 2 {
			return nil, fmt.Errorf("malformed depth level: %v", entry)
		}
		price, err := decimal.NewFromString(entry[0])
		if err != nil {
			return nil, fmt.Errorf("parse level price %q: %w", entry[0], err)
		}
		qty, err := decimal.NewFromString(entry[1])
		if err != nil {
			return nil, fmt.Errorf("parse level quantity %q: %w", entry[1], err)
		}
		levels = append(levels, Level{Price: price, Quantity: qty})
	}
	return levels, nil
}

func parseAPIError(status int, payload []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Msg != "" {
		return fmt.Errorf("binance api error (%d, code %s): %s", status, strconv.Itoa(apiErr.Code), apiErr.Msg)
	}
	if len(payload) > 0 {
		return fmt.Errorf("binance api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("binance api error (%d)", status)
}

var _ PriceSource = (*Binance)(nil)
