package market

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const aggregatorABIJSON = `[
{"inputs":[],"name":"latestRoundData","outputs":[{"internalType":"uint80","name":"roundId","type":"uint80"},{"internalType":"int256","name":"answer","type":"int256"},{"internalType":"uint256","name":"startedAt","type":"uint256"},{"internalType":"uint256","name":"updatedAt","type":"uint256"},{"internalType":"uint80","name":"answeredInRound","type":"uint80"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

var aggregatorABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(aggregatorABIJSON))
	if err != nil {
		panic("failed to parse aggregator ABI: " + err.Error())
	}
	aggregatorABI = parsed
}

// ChainlinkOptions parameterise the on-chain price source.
type ChainlinkOptions struct {
	RPCURL  string
	Feeds   map[string]string // symbol -> aggregator contract address
	Timeout time.Duration
}

// Chainlink reads spot prices from Chainlink aggregator contracts over
// Ethereum RPC. It serves quotes only; there is no order book on-chain.
type Chainlink struct {
	opts      ChainlinkOptions
	logger    zerolog.Logger
	client    *ethclient.Client
	clientMux sync.Mutex

	decimalsMux sync.Mutex
	decimals    map[string]int32 // feed address -> answer exponent
}

// NewChainlink builds a Chainlink aggregator source.
func NewChainlink(opts ChainlinkOptions, logger zerolog.Logger) *Chainlink {
	return &Chainlink{
		opts:     opts,
		logger:   logger.With().Str("component", "chainlink_source").Logger(),
		decimals: make(map[string]int32),
	}
}

// Price reads latestRoundData from the aggregator configured for symbol.
func (c *Chainlink) Price(ctx context.Context, symbol string) (Quote, error) {
	if c.opts.RPCURL == "" {
		return Quote{}, errors.New("ethereum rpc url not configured")
	}
	feed, ok := c.opts.Feeds[symbol]
	if !ok {
		return Quote{}, fmt.Errorf("no aggregator feed configured for %s", symbol)
	}

	timeout := c.opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var cancel context.CancelFunc
	ctx, cancel = context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := c.getClient(ctx)
	if err != nil {
		return Quote{}, err
	}

	addr := common.HexToAddress(feed)

	exponent, err := c.feedDecimals(ctx, client, addr)
	if err != nil {
		return Quote{}, err
	}

	payload, err := aggregatorABI.Pack("latestRoundData")
	if err != nil {
		return Quote{}, err
	}

	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: payload}, nil)
	if err != nil {
		return Quote{}, err
	}

	outputs, err := aggregatorABI.Unpack("latestRoundData", res)
	if err != nil {
		return Quote{}, err
	}
	if len(outputs) != 5 {
		return Quote{}, errors.New("unexpected latestRoundData response")
	}

	answer, ok := outputs[1].(*big.Int)
	if !ok {
		return Quote{}, errors.New("failed to decode latestRoundData answer")
	}

	updatedAt := time.Now().UTC()
	if ts, ok := outputs[3].(*big.Int); ok && ts.Sign() > 0 {
		updatedAt = time.Unix(ts.Int64(), 0).UTC()
	}

	price := decimal.NewFromBigInt(answer, -exponent)
	return Quote{Symbol: symbol, Price: price, Timestamp: updatedAt}, nil
}

// Depth is unsupported: aggregator feeds carry no book. Pairs that need
// volume-based ratios must use an order-book-capable source.
func (c *Chainlink) Depth(ctx context.Context, symbol string, limit int) (OrderBook, error) {
	return OrderBook{}, ErrDepthUnsupported
}

func (c *Chainlink) feedDecimals(ctx context.Context, client *ethclient.Client, addr common.Address) (int32, error) {
	key := addr.Hex()

	c.decimalsMux.Lock()
	cached, ok := c.decimals[key]
	c.decimalsMux.Unlock()
	if ok {
		return cached, nil
	}

	payload, err := aggregatorABI.Pack("decimals")
	if err != nil {
		return 0, err
	}
	res, err := client.CallContract(ctx, ethereum.CallMsg{To: &addr, Data: payload}, nil)
	if err != nil {
		return 0, err
	}
	outputs, err := aggregatorABI.Unpack("decimals", res)
	if err != nil {
		return 0, err
	}
	if len(outputs) != 1 {
		return 0, errors.New("unexpected decimals response")
	}
	dec, ok := outputs[0].(uint8)
	if !ok {
		return 0, errors.New("failed to decode decimals output")
	}

	c.decimalsMux.Lock()
	c.decimals[key] = int32(dec)
	c.decimalsMux.Unlock()
	return int32(dec), nil
}

func (c *Chainlink) getClient(ctx context.Context) (*ethclient.Client, error) {
	c.clientMux.Lock()
	defer c.clientMux.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	client, err := ethclient.DialContext(ctx, c.opts.RPCURL)
	if err != nil {
		return nil, err
	}
	c.client = client
	return client, nil
}

var _ PriceSource = (*Chainlink)(nil)
