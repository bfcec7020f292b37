// Package detector turns window changes into tiered threshold alerts.
//
// Each pair runs an "episode": once a tier has been notified in one
// direction, only a strictly higher tier (or a direction flip) alerts
// again. Falling back below the lowest configured threshold silently
// resets the episode, re-arming every tier.
package detector

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"ratio-alerts/internal/history"
)

// Direction of a detected move.
type Direction int

const (
	DirectionUp Direction = iota
	DirectionDown
)

func (d Direction) String() string {
	if d == DirectionDown {
		return "down"
	}
	return "up"
}

// Alert is a single threshold breach, handed straight to the notifier.
type Alert struct {
	Pair      string
	Ratio     decimal.Decimal
	ChangePct decimal.Decimal
	Threshold decimal.Decimal
	Direction Direction
	Window    time.Duration
	Timestamp time.Time
}

type episode struct {
	active    bool
	direction Direction
	tier      decimal.Decimal // highest tier already notified this episode
}

// Detector evaluates changes against the configured threshold ladder.
type Detector struct {
	thresholds []decimal.Decimal // sorted descending, de-duplicated
	window     time.Duration
	logger     zerolog.Logger

	mu       sync.Mutex
	episodes map[string]episode
}

// New builds a detector. Thresholds are positive percentages; duplicates
// are collapsed and ordering does not matter.
func New(thresholds []float64, window time.Duration, logger zerolog.Logger) *Detector {
	tiers := make([]decimal.Decimal, 0, len(thresholds))
	seen := make(map[string]struct{}, len(thresholds))
	for _, t := range thresholds {
		d := decimal.NewFromFloat(t)
		if d.Sign() <= 0 {
			continue
		}
		if _, dup := seen[d.String()]; dup {
			continue
		}
		seen[d.String()] = struct{}{}
		tiers = append(tiers, d)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].GreaterThan(tiers[j]) })

	return &Detector{
		thresholds: tiers,
		window:     window,
		logger:     logger.With().Str("component", "detector").Logger(),
		episodes:   make(map[string]episode),
	}
}

// Evaluate feeds one change observation through the pair's state machine
// and returns at most one alert: the highest newly crossed tier.
func (d *Detector) Evaluate(pair string, change history.Change) (Alert, bool) {
	if len(d.thresholds) == 0 {
		return Alert{}, false
	}

	magnitude := change.Pct.Abs()

	// Largest tier at or below the observed magnitude; thresholds descend.
	var tier decimal.Decimal
	breached := false
	for _, t := range d.thresholds {
		if magnitude.GreaterThanOrEqual(t) {
			tier = t
			breached = true
			break
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	state := d.episodes[pair]

	if !breached {
		if state.active {
			d.logger.Debug().Str("pair", pair).Str("change_pct", change.Pct.String()).Msg("movement decayed below lowest tier, episode reset")
			delete(d.episodes, pair)
		}
		return Alert{}, false
	}

	direction := DirectionUp
	if change.Pct.Sign() < 0 {
		direction = DirectionDown
	}

	if state.active && state.direction == direction && !tier.GreaterThan(state.tier) {
		// Same episode, no higher tier crossed.
		return Alert{}, false
	}

	d.episodes[pair] = episode{active: true, direction: direction, tier: tier}

	return Alert{
		Pair:      pair,
		Ratio:     change.Latest.Ratio,
		ChangePct: change.Pct,
		Threshold: tier,
		Direction: direction,
		Window:    d.window,
		Timestamp: change.Latest.Timestamp,
	}, true
}

// Reset clears the episode for a pair.
func (d *Detector) Reset(pair string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.episodes, pair)
}
