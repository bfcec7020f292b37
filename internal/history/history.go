// Package history keeps a rolling per-pair window of ratio samples and
// answers "how much did this ratio move over the lookback".
package history

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Sample modes. Volume-mode samples carry effective prices and slippage.
const (
	ModeSimple = "simple"
	ModeVolume = "volume"
)

// Sample is one observed ratio for a pair. Immutable once appended.
type Sample struct {
	Pair      string
	Mode      string
	Ratio     decimal.Decimal
	SymbolA   string
	SymbolB   string
	PriceA    decimal.Decimal // spot price, or effective price in volume mode
	PriceB    decimal.Decimal
	Volume    decimal.Decimal // zero in simple mode
	SlippageA decimal.Decimal
	SlippageB decimal.Decimal
	Timestamp time.Time
}

// Change is the movement between the window baseline and the latest sample.
type Change struct {
	Baseline Sample
	Latest   Sample
	Pct      decimal.Decimal
}

// History is a map of per-pair windows. The map lock only guards window
// lookup; each window carries its own lock so pairs stay independent.
type History struct {
	mu      sync.RWMutex
	windows map[string]*window

	lookback time.Duration
	margin   time.Duration
}

type window struct {
	mu      sync.Mutex
	samples []Sample
}

// New creates a history retaining lookback + margin worth of samples per
// pair. The margin should be one check interval so the oldest retained
// sample never lags the lookback by more than a single tick.
func New(lookback, margin time.Duration) *History {
	if margin < 0 {
		margin = 0
	}
	return &History{
		windows:  make(map[string]*window),
		lookback: lookback,
		margin:   margin,
	}
}

// Append inserts a sample in timestamp order (ties keep insertion order)
// and prunes entries older than lookback + margin. The most recent sample
// is never pruned, regardless of age.
func (h *History) Append(pair string, s Sample) {
	w := h.window(pair)
	w.mu.Lock()
	defer w.mu.Unlock()

	idx := sort.Search(len(w.samples), func(i int) bool {
		return w.samples[i].Timestamp.After(s.Timestamp)
	})
	w.samples = append(w.samples, Sample{})
	copy(w.samples[idx+1:], w.samples[idx:])
	w.samples[idx] = s

	cutoff := w.samples[len(w.samples)-1].Timestamp.Add(-(h.lookback + h.margin))
	firstKept := 0
	for firstKept < len(w.samples)-1 && w.samples[firstKept].Timestamp.Before(cutoff) {
		firstKept++
	}
	if firstKept > 0 {
		w.samples = append(w.samples[:0], w.samples[firstKept:]...)
	}
}

// Latest returns the most recent sample for a pair.
func (h *History) Latest(pair string) (Sample, bool) {
	w := h.peek(pair)
	if w == nil {
		return Sample{}, false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.samples) == 0 {
		return Sample{}, false
	}
	return w.samples[len(w.samples)-1], true
}

// ChangeSince compares the latest sample against the earliest retained
// sample whose timestamp is within the lookback ending at now. The second
// return is false when there is no signal yet: an empty window, or no
// baseline distinct from the latest sample inside the lookback.
func (h *History) ChangeSince(pair string, now time.Time) (Change, bool) {
	w := h.peek(pair)
	if w == nil {
		return Change{}, false
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.samples) < 2 {
		return Change{}, false
	}

	latest := w.samples[len(w.samples)-1]
	windowStart := now.Add(-h.lookback)

	var baseline *Sample
	for i := range w.samples[:len(w.samples)-1] {
		if !w.samples[i].Timestamp.Before(windowStart) {
			baseline = &w.samples[i]
			break
		}
	}
	if baseline == nil || baseline.Ratio.Sign() == 0 {
		return Change{}, false
	}

	pct := latest.Ratio.Sub(baseline.Ratio).Div(baseline.Ratio).Mul(decimal.NewFromInt(100))
	return Change{Baseline: *baseline, Latest: latest, Pct: pct}, true
}

// Pairs lists the pairs that currently hold at least one sample.
func (h *History) Pairs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.windows))
	for name := range h.windows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *History) window(pair string) *window {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[pair]
	if !ok {
		w = &window{}
		h.windows[pair] = w
	}
	return w
}

func (h *History) peek(pair string) *window {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.windows[pair]
}
