package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ratio-alerts/internal/market"
	"ratio-alerts/internal/monitor"
)

// Simulate 以合成价格驱动一次完整的告警链路：两次采样之间注入指定的
// 涨跌幅，验证检测与推送是否按配置工作。不读写数据库。
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting 未启用")
	}
	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("未配置任何告警通道")
	}

	pair, ok := a.Config.FindPair(opts.Pair)
	if !ok {
		return fmt.Errorf("pair %q is not configured", opts.Pair)
	}

	source := &staticSource{prices: map[string]decimal.Decimal{
		pair.SymbolA: decimal.NewFromInt(100),
		pair.SymbolB: decimal.NewFromInt(1),
	}}

	mon := monitor.New(a.monitorOptions(), []monitor.Pair{{
		Name:    pair.Name,
		SymbolA: pair.SymbolA,
		SymbolB: pair.SymbolB,
	}}, source, a.newDetector(), notifier, nil, nil, a.Logger)

	now := time.Now().UTC()
	if err := mon.CheckTick(ctx, now.Add(-a.Config.Monitor.CheckInterval)); err != nil {
		return err
	}

	// 第二次采样前按指定百分比移动 A 腿价格。
	factor := decimal.NewFromFloat(1 + opts.ChangePct/100)
	source.prices[pair.SymbolA] = source.prices[pair.SymbolA].Mul(factor)

	return mon.CheckTick(ctx, now)
}

type staticSource struct {
	prices map[string]decimal.Decimal
}

func (s *staticSource) Price(ctx context.Context, symbol string) (market.Quote, error) {
	price, ok := s.prices[symbol]
	if !ok {
		return market.Quote{}, fmt.Errorf("no simulated price for %s", symbol)
	}
	return market.Quote{Symbol: symbol, Price: price, Timestamp: time.Now().UTC()}, nil
}

func (s *staticSource) Depth(ctx context.Context, symbol string, limit int) (market.OrderBook, error) {
	return market.OrderBook{}, market.ErrDepthUnsupported
}

var _ market.PriceSource = (*staticSource)(nil)
